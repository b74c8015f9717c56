package dhcpauth

import (
	"bytes"
	"fmt"
	"sync"
	"time"
)

// Token is a shared secret usable by one or more authentication
// protocols: a TOKEN-protocol secret, a DELAYED/DELAYED_REALM HMAC key,
// or a RECONF_KEY reconfigure key.
//
// A Token looked up from a TokenStore, or stored in an AuthState's
// pinned/reconfigure slot, is always referenced by pointer: pin checks
// compare Token identity, not Token value, matching the reference
// semantics of the tokens held by a long-lived configuration store.
type Token struct {
	SecretID uint32
	Realm    []byte
	Key      []byte
	// Expire is the token's expiry time, or nil if the token never
	// expires.
	Expire *time.Time
}

// Destroy zeroes the token's key material in place. Callers that own a
// Token removed from a TokenStore (e.g. on reconfiguration or config
// reload) should call Destroy once the token is no longer reachable.
func (t *Token) Destroy() {
	for i := range t.Key {
		t.Key[i] = 0
	}
	t.Key = nil
	t.Realm = nil
}

// TokenStore resolves configured tokens by secret_id and realm. A
// TokenStore is read-only from the perspective of the validator and
// encoder: it is populated once at configuration load and mutated only
// by the configuration subsystem, never by Validate or Encode.
type TokenStore interface {
	// Lookup returns the token matching secretID and realm. realm is
	// compared byte-for-byte; a nil or empty realm matches only tokens
	// configured with a nil or empty realm.
	Lookup(secretID uint32, realm []byte) (*Token, bool)
	// Default returns the implicit TOKEN-protocol token: the unique
	// configured token with secret_id 0 and an empty realm.
	Default() (*Token, bool)
}

// MemoryTokenStore is a TokenStore backed by an in-memory slice,
// populated once from configuration and never mutated afterward.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens []*Token
}

// NewMemoryTokenStore builds a MemoryTokenStore from the given tokens.
// The store takes ownership of the Token values; callers must not reuse
// or mutate them afterward.
func NewMemoryTokenStore(tokens ...*Token) *MemoryTokenStore {
	s := &MemoryTokenStore{tokens: make([]*Token, len(tokens))}
	copy(s.tokens, tokens)
	return s
}

// Lookup implements TokenStore.
func (s *MemoryTokenStore) Lookup(secretID uint32, realm []byte) (*Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.SecretID == secretID && bytes.Equal(t.Realm, realm) {
			return t, true
		}
	}
	return nil, false
}

// Default implements TokenStore.
func (s *MemoryTokenStore) Default() (*Token, bool) {
	return s.Lookup(0, nil)
}

// Add registers an additional token, rejecting a (secret_id, realm) pair
// that already has a configured token.
func (s *MemoryTokenStore) Add(t *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tokens {
		if existing.SecretID == t.SecretID && bytes.Equal(existing.Realm, t.Realm) {
			return fmt.Errorf("token (secret_id=%d, realm=%q) already configured: %w", t.SecretID, t.Realm, ErrMalformed)
		}
	}
	s.tokens = append(s.tokens, t)
	return nil
}

// Close scrubs every token's key material. Call Close when the store is
// being replaced, e.g. on configuration reload.
func (s *MemoryTokenStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		t.Destroy()
	}
	s.tokens = nil
}
