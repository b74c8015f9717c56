package dhcpauth

import (
	"encoding/binary"
	"fmt"
)

// Validate checks the authentication option at m[optOffset:optOffset+optLen]
// against policy and state, returning the token that authenticated the
// message.
//
// mp identifies the DHCP protocol version of m and mt its message type:
// mp selects the normalization applied before MAC computation (DHCPv4
// only), and mp and mt together decide whether a RECONF_KEY key delivery
// is accepted (DHCPv4 ACK or DHCPv6 REPLY only).
//
// On success, state.Replay and state.Token are updated, except for an
// accepted RECONF_KEY key delivery, which sets only state.Reconf; on
// failure, state is left unchanged. The returned error always wraps one of the
// package's sentinel errors and can be classified with Kind.
func (a *Authenticator) Validate(state *AuthState, policy AuthPolicy, m []byte, mp MessageProtocol, mt uint8, optOffset, optLen int) (Token, error) {
	if optLen < authHeaderSize {
		return Token{}, fmt.Errorf("authentication option length %d shorter than header %d: %w", optLen, authHeaderSize, ErrMalformed)
	}
	if optOffset < 0 || optLen < 0 || optOffset+optLen > len(m) {
		return Token{}, fmt.Errorf("authentication option [%d:%d] outside message of length %d: %w", optOffset, optOffset+optLen, len(m), ErrOutOfRange)
	}

	d := m[optOffset : optOffset+optLen]
	protocol := AuthProtocol(d[0])
	algorithm := AuthAlgorithm(d[1])
	rdm := ReplayDetectionMethod(d[2])
	replay := binary.BigEndian.Uint64(d[3:11])

	if !policy.Send() {
		if protocol != AuthProtocolReconfKey {
			return Token{}, fmt.Errorf("protocol %d received without an active send policy: %w", protocol, ErrMalformed)
		}
	} else if protocol != policy.Protocol || algorithm != policy.Algorithm || rdm != policy.RDM {
		return Token{}, fmt.Errorf("option (protocol=%d algorithm=%d rdm=%d) does not match policy: %w", protocol, algorithm, rdm, ErrDenied)
	}

	if protocol == AuthProtocolReconfKey {
		return a.validateReconfKey(state, replay, algorithm, m, mp, mt, d, optOffset)
	}

	if state.Token != nil && !replayIsFresh(replay, state.Replay) {
		return Token{}, fmt.Errorf("replay %d not fresher than %d: %w", replay, state.Replay, ErrDenied)
	}

	consumed := authHeaderSize
	var (
		t   *Token
		err error
	)

	switch protocol {
	case AuthProtocolToken:
		t, err = a.lookupToken(0, nil)
	case AuthProtocolDelayed:
		if len(d)-consumed < 4+authMACSize {
			return Token{}, fmt.Errorf("delayed authentication payload length %d: %w", len(d)-consumed, ErrMalformed)
		}
		secretID := binary.BigEndian.Uint32(d[consumed : consumed+4])
		consumed += 4
		t, err = a.lookupToken(secretID, nil)
	case AuthProtocolDelayedRealm:
		if len(d)-consumed < 4+authMACSize {
			return Token{}, fmt.Errorf("delayed-realm authentication payload length %d: %w", len(d)-consumed, ErrMalformed)
		}
		realmLen := len(d) - consumed - 4 - authMACSize
		var realm []byte
		if realmLen > 0 {
			realm = d[consumed : consumed+realmLen]
			consumed += realmLen
		}
		secretID := binary.BigEndian.Uint32(d[consumed : consumed+4])
		consumed += 4
		t, err = a.lookupToken(secretID, realm)
	default:
		return Token{}, fmt.Errorf("protocol %d: %w", protocol, ErrUnsupported)
	}
	if err != nil {
		return Token{}, err
	}

	if err := pinCheck(state, t); err != nil {
		return Token{}, err
	}

	macRegion := d[consumed:]
	if protocol == AuthProtocolToken {
		if !constantTimeEqual(macRegion, t.Key) {
			return Token{}, fmt.Errorf("token secret mismatch: %w", ErrDenied)
		}
	} else {
		digest, err := a.computeDigest(algorithm, t.Key, m, optOffset+consumed, len(macRegion), mp)
		if err != nil {
			return Token{}, err
		}
		if !constantTimeEqual(macRegion, digest) {
			return Token{}, fmt.Errorf("digest mismatch: %w", ErrDenied)
		}
	}

	state.Replay = replay
	state.Token = t

	return *t, nil
}

// validateReconfKey handles the RECONF_KEY sub-protocol (RFC 3118
// Section 4.3): type 1 delivers a reconfigure key with no MAC check,
// type 2 exercises a previously delivered key exactly like a delayed
// authentication option.
func (a *Authenticator) validateReconfKey(state *AuthState, replay uint64, algorithm AuthAlgorithm, m []byte, mp MessageProtocol, mt uint8, d []byte, optOffset int) (Token, error) {
	consumed := authHeaderSize
	rest := d[consumed:]
	if len(rest) != reconfPayloadSize {
		return Token{}, fmt.Errorf("reconfigure-key payload length %d: %w", len(rest), ErrMalformed)
	}

	if state.Token != nil && !replayIsFresh(replay, state.Replay) {
		return Token{}, fmt.Errorf("replay %d not fresher than %d: %w", replay, state.Replay, ErrDenied)
	}

	kind := rest[0]
	switch kind {
	case reconfKeyDelivery:
		if !((mp == ProtocolV4 && mt == DHCPv4Ack) || (mp == ProtocolV6 && mt == DHCPv6Reply)) {
			return Token{}, fmt.Errorf("reconfigure-key delivery in message type %d: %w", mt, ErrMalformed)
		}
		key := make([]byte, authMACSize)
		copy(key, rest[1:])
		if state.Reconf == nil {
			state.Reconf = &Token{}
		}
		state.Reconf.SecretID = 0
		state.Reconf.Realm = nil
		state.Reconf.Expire = nil
		state.Reconf.Key = key
		return *state.Reconf, nil

	case reconfKeyRequest:
		if state.Reconf == nil {
			return Token{}, fmt.Errorf("reconfigure request with no stored reconfigure key: %w", ErrNotFound)
		}
		t := state.Reconf
		if err := pinCheck(state, t); err != nil {
			return Token{}, err
		}
		macRegion := rest[1:]
		digest, err := a.computeDigest(algorithm, t.Key, m, optOffset+consumed+1, len(macRegion), mp)
		if err != nil {
			return Token{}, err
		}
		if !constantTimeEqual(macRegion, digest) {
			return Token{}, fmt.Errorf("reconfigure digest mismatch: %w", ErrDenied)
		}
		state.Replay = replay
		state.Token = t
		return *t, nil

	default:
		return Token{}, fmt.Errorf("reconfigure-key type %d: %w", kind, ErrMalformed)
	}
}
