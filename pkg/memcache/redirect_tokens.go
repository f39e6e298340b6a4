// pkg/memcache/redirect_tokens.go
package mem

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RedirectTokenStore maps the single-use redirect token handed out at purchase
// intent creation to the intent it belongs to, for the address-collection step.
type RedirectTokenStore interface {
	Set(token string, intentID uuid.UUID, ttl time.Duration)

	// Consume returns the intent id for token if not expired, and removes the
	// token (single-use). Returns uuid.Nil if missing/expired.
	Consume(token string) uuid.UUID

	// Peek reads without consuming.
	Peek(token string) (uuid.UUID, bool)
}

type entry struct {
	intentID  uuid.UUID
	expiresAt time.Time
}

type RedirectTokens struct {
	mu   sync.RWMutex
	data map[string]entry
	// no background janitor: entries are few, short-lived, and dropped on read
}

func NewRedirectTokens() *RedirectTokens {
	return &RedirectTokens{
		data: make(map[string]entry),
	}
}

func (s *RedirectTokens) Set(token string, intentID uuid.UUID, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[token] = entry{
		intentID:  intentID,
		expiresAt: time.Now().Add(ttl),
	}
}

func (s *RedirectTokens) Consume(token string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[token]
	if !ok {
		return uuid.Nil
	}
	delete(s.data, token)
	if time.Now().After(e.expiresAt) {
		return uuid.Nil
	}
	return e.intentID
}

func (s *RedirectTokens) Peek(token string) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[token]
	if !ok || time.Now().After(e.expiresAt) {
		return uuid.Nil, false
	}
	return e.intentID, true
}
