package dhcpauth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"
)

// ReplayCounter produces the strictly-increasing replay values Encode
// stamps into outgoing authentication options. internal/replay provides
// the durable, file-backed implementation; tests may substitute an
// in-memory fake.
type ReplayCounter interface {
	Next() (uint64, error)
}

// Authenticator is the DHCP authentication core: a Validator for
// incoming messages and an Encoder for outgoing ones, bound to a
// TokenStore and a ReplayCounter.
//
// An Authenticator holds no per-session state; AuthState is owned by
// the caller and passed explicitly to Validate.
type Authenticator struct {
	Tokens TokenStore
	Replay ReplayCounter
	Logger *slog.Logger

	// now is stubbable for tests; defaults to time.Now.
	now func() time.Time
}

// NewAuthenticator builds an Authenticator. logger may be nil, in which
// case slog.Default() is used.
func NewAuthenticator(tokens TokenStore, replay ReplayCounter, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		Tokens: tokens,
		Replay: replay,
		Logger: logger,
		now:    time.Now,
	}
}

// lookupToken resolves and expiry-checks a token by secret_id and
// realm.
func (a *Authenticator) lookupToken(secretID uint32, realm []byte) (*Token, error) {
	t, ok := a.Tokens.Lookup(secretID, realm)
	if !ok {
		return nil, fmt.Errorf("token (secret_id=%d, realm=%q): %w", secretID, realm, ErrNotFound)
	}
	if t.Expire != nil && !t.Expire.After(a.now()) {
		return nil, fmt.Errorf("token (secret_id=%d, realm=%q) expired at %s: %w", secretID, realm, t.Expire, ErrExpired)
	}
	return t, nil
}

// pinCheck enforces the token-pinning invariant: once state.Token is
// set, every later Validate call must resolve to the identical token.
func pinCheck(state *AuthState, t *Token) error {
	if state.Token != nil && state.Token != t {
		return fmt.Errorf("token pin mismatch: %w", ErrDenied)
	}
	return nil
}

// computeDigest computes the keyed MAC of m as it would appear on the
// wire once the digestSize bytes at digestOffset are replaced by zero
// and, for DHCPv4, the hop-count and relay-agent-address fields are
// zeroed. It operates on a private copy; m itself is never mutated.
func (a *Authenticator) computeDigest(algorithm AuthAlgorithm, key, m []byte, digestOffset, digestSize int, mp MessageProtocol) ([]byte, error) {
	if algorithm != AuthAlgorithmHMACMD5 {
		return nil, fmt.Errorf("algorithm %d: %w", algorithm, ErrUnsupported)
	}
	mm := make([]byte, len(m))
	copy(mm, m)
	for i := 0; i < digestSize && digestOffset+i < len(mm); i++ {
		mm[digestOffset+i] = 0
	}
	if mp == ProtocolV4 {
		normalizeDHCPv4Header(mm)
	}
	return computeHMACMD5(key, mm), nil
}

// constantTimeEqual reports whether a and b hold identical bytes,
// taking time independent of where they first differ.
func constantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
