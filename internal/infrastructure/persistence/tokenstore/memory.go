// Package tokenstore holds the local token.Store backends.
package tokenstore

import (
	"context"
	"sync"

	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
)

// Memory keeps tokens for the lifetime of the process.
type Memory struct {
	mu   sync.RWMutex
	pair token.Pair
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (token.Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair, nil
}

func (m *Memory) SaveAccess(_ context.Context, value string) error {
	m.mu.Lock()
	m.pair.AccessToken = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) SaveRefresh(_ context.Context, value string) error {
	m.mu.Lock()
	m.pair.RefreshToken = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.pair = token.Pair{}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
