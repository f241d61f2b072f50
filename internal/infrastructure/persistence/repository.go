package persistence

import (
	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
	"github.com/dipanjanswapna/ongonbd/internal/domain/user"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/cache/redis"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/persistence/memory"
)

// Repositories holds the dev auth API's storage.
type Repositories struct {
	Accounts    user.Repository
	Revocations token.RevocationList
}

// NewRepositories creates the dev API repositories. Accounts always live in
// memory; revocations move to Redis when a client is given so they survive
// restarts of the API.
func NewRepositories(redisClient *redis.Client) *Repositories {
	repos := &Repositories{
		Accounts:    memory.NewUserRepository(),
		Revocations: memory.NewRevocationList(),
	}
	if redisClient != nil {
		repos.Revocations = redis.NewRevocationList(redisClient)
	}
	return repos
}
