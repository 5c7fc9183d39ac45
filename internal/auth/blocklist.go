// File: internal/auth/blocklist.go
package auth

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenBlocklistService defines the interface for a JWT blocklist.
type TokenBlocklistService interface {
	// AddToBlocklist adds a token's JTI (JWT ID) to the blocklist until it expires.
	AddToBlocklist(jti string, expiresAt time.Time)
	// IsBlocklisted checks if a token's JTI is in the blocklist.
	IsBlocklisted(jti string) bool
}

// InMemoryBlocklistService is an in-memory implementation of TokenBlocklistService.
type InMemoryBlocklistService struct {
	mu    sync.RWMutex
	cache *cache.Cache
}

// InMemoryBlocklistConfig holds the configuration for the InMemoryBlocklistService.
type InMemoryBlocklistConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

// NewInMemoryBlocklistService creates a new in-memory blocklist service.
func NewInMemoryBlocklistService(cfg InMemoryBlocklistConfig) *InMemoryBlocklistService {
	return &InMemoryBlocklistService{
		cache: cache.New(cfg.DefaultExpiration, cfg.CleanupInterval),
	}
}

// AddToBlocklist stores a token JTI until the token's own expiry, so revoked
// tokens stay rejected for exactly as long as they would have been valid.
func (s *InMemoryBlocklistService) AddToBlocklist(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := time.Until(expiresAt)
	if duration <= 0 {
		return
	}
	s.cache.Set(jti, true, duration)
}

// IsBlocklisted checks if a token JTI exists in the blocklist.
func (s *InMemoryBlocklistService) IsBlocklisted(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.cache.Get(jti)
	return found
}
