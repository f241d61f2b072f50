package token

// Storage keys of the persisted credential pair.
const (
	AccessTokenKey  = "authToken"
	RefreshTokenKey = "refreshToken"
)

// Token types carried in the typ claim of issued JWTs.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Pair is the credential pair persisted between runs.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// HasAccess reports whether an access token is present.
func (p Pair) HasAccess() bool {
	return p.AccessToken != ""
}

// HasRefresh reports whether a refresh token is present.
func (p Pair) HasRefresh() bool {
	return p.RefreshToken != ""
}
