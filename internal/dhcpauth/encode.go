package dhcpauth

import (
	"encoding/binary"
	"fmt"
)

// EncodeSize returns the number of bytes an authentication option built
// from policy and token would occupy, without writing anything. Callers
// use this to size the option buffer before calling Encode.
func (a *Authenticator) EncodeSize(policy AuthPolicy, token *Token) (int, error) {
	size := authHeaderSize
	switch policy.Protocol {
	case AuthProtocolToken:
		if token == nil {
			return 0, fmt.Errorf("size query for token protocol requires a token: %w", ErrMalformed)
		}
		size += len(token.Key)
	case AuthProtocolDelayed:
		if token != nil {
			size += 4 + authMACSize
		}
	case AuthProtocolDelayedRealm:
		if token != nil {
			size += len(token.Realm) + 4 + authMACSize
		}
	default:
		return 0, fmt.Errorf("protocol %d: %w", policy.Protocol, ErrUnsupported)
	}
	return size, nil
}

// Encode writes an authentication option for an outgoing message into
// m[optOffset:optOffset+optLen], drawing the replay value from
// a.Replay. token may be nil for AuthProtocolDelayed and
// AuthProtocolDelayedRealm: for a no-auth message type, the header and
// replay fields are written and the returned count is the number of
// unused trailing bytes the caller should omit; otherwise (no token
// available to a MAC-bearing message type, e.g. loading a saved lease
// with no token yet resolved) nothing beyond the header and replay fields
// is written and Encode returns 0.
//
// token may be nil for AuthProtocolToken; Encode then falls back to the
// TokenStore's default token (secret_id 0, empty realm).
func (a *Authenticator) Encode(policy AuthPolicy, token *Token, m []byte, mp MessageProtocol, mt uint8, optOffset, optLen int) (int, error) {
	switch policy.Protocol {
	case AuthProtocolToken, AuthProtocolDelayed, AuthProtocolDelayedRealm:
	default:
		return 0, fmt.Errorf("encode protocol %d: %w", policy.Protocol, ErrUnsupported)
	}
	if policy.Algorithm != AuthAlgorithmHMACMD5 {
		return 0, fmt.Errorf("encode algorithm %d: %w", policy.Algorithm, ErrUnsupported)
	}
	if policy.RDM != ReplayDetectionMonotonic {
		return 0, fmt.Errorf("encode rdm %d: %w", policy.RDM, ErrUnsupported)
	}
	if optLen < authHeaderSize {
		return 0, fmt.Errorf("encode target length %d shorter than header %d: %w", optLen, authHeaderSize, ErrBufferTooSmall)
	}
	if optOffset < 0 || optOffset+optLen > len(m) {
		return 0, fmt.Errorf("encode target [%d:%d] outside message of length %d: %w", optOffset, optOffset+optLen, len(m), ErrOutOfRange)
	}

	t := token
	if policy.Protocol == AuthProtocolToken && t == nil {
		def, ok := a.Tokens.Default()
		if !ok {
			return 0, fmt.Errorf("no default token configured: %w", ErrMalformed)
		}
		if def.Expire != nil && !def.Expire.After(a.now()) {
			return 0, fmt.Errorf("default token expired: %w", ErrExpired)
		}
		t = def
	}

	d := m[optOffset : optOffset+optLen]
	d[0] = byte(policy.Protocol)
	d[1] = byte(policy.Algorithm)
	d[2] = byte(policy.RDM)

	replay, err := a.Replay.Next()
	if err != nil {
		return 0, fmt.Errorf("next replay counter: %w", err)
	}
	binary.BigEndian.PutUint64(d[3:11], replay)

	rest := d[authHeaderSize:]

	if policy.Protocol == AuthProtocolToken {
		if t == nil {
			return 0, fmt.Errorf("encode protocol token requires a token: %w", ErrMalformed)
		}
		if len(rest) < len(t.Key) {
			return 0, fmt.Errorf("encode key area %d shorter than key %d: %w", len(rest), len(t.Key), ErrBufferTooSmall)
		}
		copy(rest, t.Key)
		return len(rest) - len(t.Key), nil
	}

	if isNoAuthMessageType(mp, mt) {
		return len(rest), nil
	}
	if t == nil {
		return 0, nil
	}

	if policy.Protocol == AuthProtocolDelayedRealm {
		if len(rest) < len(t.Realm) {
			return 0, fmt.Errorf("encode realm area %d shorter than realm %d: %w", len(rest), len(t.Realm), ErrBufferTooSmall)
		}
		copy(rest, t.Realm)
		rest = rest[len(t.Realm):]
	}

	if len(rest) < 4+authMACSize {
		return 0, fmt.Errorf("encode secret-id/digest area %d shorter than %d: %w", len(rest), 4+authMACSize, ErrBufferTooSmall)
	}
	binary.BigEndian.PutUint32(rest[:4], t.SecretID)
	rest = rest[4:]

	digestOffset := optOffset + optLen - len(rest)
	digest, err := a.computeDigest(policy.Algorithm, t.Key, m, digestOffset, len(rest), mp)
	if err != nil {
		return 0, err
	}
	copy(rest, digest)

	return len(rest) - len(digest), nil
}
