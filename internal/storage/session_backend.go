// Package storage provides the session-scoped in-memory tier.
package storage

import (
	"github.com/patrickmn/go-cache"
)

// SessionBackend is the session tier: an in-process cache whose contents
// live exactly as long as the current session. It implements
// softtypes.StorageBackend.
type SessionBackend struct {
	cache *cache.Cache
}

// NewSessionBackend creates an empty session store. Entries never expire on
// their own; the whole store is dropped when the session ends.
func NewSessionBackend() *SessionBackend {
	return &SessionBackend{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Get returns the value stored under key and whether it was present.
func (s *SessionBackend) Get(key string) ([]byte, bool) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, false
	}
	return data, true
}

// Set stores value under key. In-memory writes cannot fail.
func (s *SessionBackend) Set(key string, value []byte) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

// Delete removes key.
func (s *SessionBackend) Delete(key string) {
	s.cache.Delete(key)
}

// Reset drops all session state, modeling the end of a session.
func (s *SessionBackend) Reset() {
	s.cache.Flush()
}
