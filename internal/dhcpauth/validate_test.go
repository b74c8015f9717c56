package dhcpauth_test

import (
	"errors"
	"testing"

	"github.com/dantte-lp/dhcpauthd/internal/dhcpauth"
)

func newAuthenticator(t *testing.T, tokens ...*dhcpauth.Token) (*dhcpauth.Authenticator, *sequenceCounter) {
	t.Helper()
	store := dhcpauth.NewMemoryTokenStore(tokens...)
	counter := &sequenceCounter{}
	return dhcpauth.NewAuthenticator(store, counter, nil), counter
}

func TestTokenProtocolRoundTrip(t *testing.T) {
	t.Parallel()

	tok := &dhcpauth.Token{SecretID: 0, Key: []byte("shared-secret-01")}
	a, _ := newAuthenticator(t, tok)
	policy := newTestPolicy(dhcpauth.AuthProtocolToken)

	m := newTestMessage(64, 20, 32)
	size, err := a.EncodeSize(policy, tok)
	if err != nil {
		t.Fatalf("EncodeSize: %v", err)
	}
	if size > 32 {
		t.Fatalf("EncodeSize = %d, want <= 32", size)
	}

	unused, err := a.Encode(policy, tok, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Request, 20, 32)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got, want := 32-unused, size; got != want {
		t.Fatalf("written bytes = %d, want %d", got, want)
	}

	state := &dhcpauth.AuthState{}
	got, err := a.Validate(state, policy, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Request, 20, size)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.SecretID != tok.SecretID {
		t.Fatalf("validated token secret_id = %d, want %d", got.SecretID, tok.SecretID)
	}
	if state.Token == nil {
		t.Fatal("state.Token not pinned after successful validate")
	}
}

func TestDelayedProtocolRoundTrip(t *testing.T) {
	t.Parallel()

	tok := &dhcpauth.Token{SecretID: 7, Key: []byte("0123456789abcdef")}
	a, _ := newAuthenticator(t, tok)
	policy := newTestPolicy(dhcpauth.AuthProtocolDelayed)

	m := newTestMessage(300, 240, 40)
	if _, err := a.Encode(policy, tok, m, dhcpauth.ProtocolV6, dhcpauth.DHCPv6Reply, 240, 40); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	state := &dhcpauth.AuthState{}
	got, err := a.Validate(state, policy, m, dhcpauth.ProtocolV6, dhcpauth.DHCPv6Reply, 240, 40)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.SecretID != 7 {
		t.Fatalf("secret_id = %d, want 7", got.SecretID)
	}
}

func TestDelayedRealmRoundTrip(t *testing.T) {
	t.Parallel()

	tok := &dhcpauth.Token{SecretID: 3, Realm: []byte("example.org"), Key: []byte("fedcba9876543210")}
	a, _ := newAuthenticator(t, tok)
	policy := newTestPolicy(dhcpauth.AuthProtocolDelayedRealm)

	size, err := a.EncodeSize(policy, tok)
	if err != nil {
		t.Fatalf("EncodeSize: %v", err)
	}
	m := newTestMessage(300, 100, size)
	if _, err := a.Encode(policy, tok, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 100, size); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	state := &dhcpauth.AuthState{}
	got, err := a.Validate(state, policy, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 100, size)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if string(got.Realm) != "example.org" {
		t.Fatalf("realm = %q, want example.org", got.Realm)
	}
}

func TestV4NormalizationIgnoresHopsAndGiaddr(t *testing.T) {
	t.Parallel()

	tok := &dhcpauth.Token{SecretID: 1, Key: []byte("0123456789abcdef")}
	a, _ := newAuthenticator(t, tok)
	policy := newTestPolicy(dhcpauth.AuthProtocolDelayed)

	m := newTestMessage(300, 240, 40)
	if _, err := a.Encode(policy, tok, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// A relay agent increments hops and fills giaddr in transit; these
	// fields are excluded from the authenticated image and must not
	// invalidate the MAC.
	m[3] = 2
	m[24], m[25], m[26], m[27] = 192, 0, 2, 1

	state := &dhcpauth.AuthState{}
	if _, err := a.Validate(state, policy, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Validate after relay mutation: %v", err)
	}
}

func TestReplayRejectsStaleCounter(t *testing.T) {
	t.Parallel()

	tok := &dhcpauth.Token{SecretID: 1, Key: []byte("0123456789abcdef")}
	a, _ := newAuthenticator(t, tok)
	policy := newTestPolicy(dhcpauth.AuthProtocolDelayed)

	m1 := newTestMessage(300, 240, 40)
	if _, err := a.Encode(policy, tok, m1, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Encode m1: %v", err)
	}
	m2 := newTestMessage(300, 240, 40)
	if _, err := a.Encode(policy, tok, m2, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Encode m2: %v", err)
	}

	state := &dhcpauth.AuthState{}
	if _, err := a.Validate(state, policy, m2, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Validate m2: %v", err)
	}
	_, err := a.Validate(state, policy, m1, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40)
	if err == nil {
		t.Fatal("Validate m1 after m2 succeeded, want replay rejection")
	}
	if dhcpauth.Kind(err) != dhcpauth.KindDenied {
		t.Fatalf("Kind = %v, want KindDenied", dhcpauth.Kind(err))
	}
}

func TestPinRejectsDifferentToken(t *testing.T) {
	t.Parallel()

	tokA := &dhcpauth.Token{SecretID: 1, Key: []byte("0123456789abcdef")}
	tokB := &dhcpauth.Token{SecretID: 2, Key: []byte("fedcba9876543210")}
	a, _ := newAuthenticator(t, tokA, tokB)
	policy := newTestPolicy(dhcpauth.AuthProtocolDelayed)

	mA := newTestMessage(300, 240, 40)
	if _, err := a.Encode(policy, tokA, mA, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Encode mA: %v", err)
	}
	mB := newTestMessage(300, 240, 40)
	if _, err := a.Encode(policy, tokB, mB, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Encode mB: %v", err)
	}

	state := &dhcpauth.AuthState{}
	if _, err := a.Validate(state, policy, mA, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40); err != nil {
		t.Fatalf("Validate mA: %v", err)
	}
	_, err := a.Validate(state, policy, mB, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, 40)
	if err == nil || dhcpauth.Kind(err) != dhcpauth.KindDenied {
		t.Fatalf("Validate mB = %v, want KindDenied (pin mismatch)", err)
	}
}

func TestReconfKeyDeliveryThenRequest(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator(t)
	policy := dhcpauth.AuthPolicy{
		Protocol:  dhcpauth.AuthProtocolReconfKey,
		Algorithm: dhcpauth.AuthAlgorithmHMACMD5,
		RDM:       dhcpauth.ReplayDetectionMonotonic,
		Options:   dhcpauth.AuthOptionSend,
	}
	state := &dhcpauth.AuthState{}

	// Type 1: the server delivers a reconfigure key inside an ACK.
	ack := newTestMessage(300, 240, authOptionLenReconf())
	ack[240] = byte(dhcpauth.AuthProtocolReconfKey)
	ack[241] = byte(dhcpauth.AuthAlgorithmHMACMD5)
	ack[242] = byte(dhcpauth.ReplayDetectionMonotonic)
	putUint64(ack[243:251], 1)
	ack[251] = 1 // reconf delivery
	copy(ack[252:268], []byte("reconfigurekey16"))

	if _, err := a.Validate(state, policy, ack, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, authOptionLenReconf()); err != nil {
		t.Fatalf("Validate type1 delivery: %v", err)
	}
	if state.Reconf == nil {
		t.Fatal("state.Reconf not set after type1 delivery")
	}
	if state.Token != nil {
		t.Fatal("state.Token must not be touched by type1 delivery")
	}

	// Type 2: the client later authenticates a Reconfigure-triggered
	// message using the stored reconfigure key.
	req := newTestMessage(300, 240, authOptionLenReconf())
	req[240] = byte(dhcpauth.AuthProtocolReconfKey)
	req[241] = byte(dhcpauth.AuthAlgorithmHMACMD5)
	req[242] = byte(dhcpauth.ReplayDetectionMonotonic)
	putUint64(req[243:251], 2)
	req[251] = 2 // reconf request

	digest := computeTestDigest(t, state.Reconf.Key, req, 240, authOptionLenReconf())
	copy(req[252:268], digest)

	got, err := a.Validate(state, policy, req, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Request, 240, authOptionLenReconf())
	if err != nil {
		t.Fatalf("Validate type2 request: %v", err)
	}
	if len(got.Key) != 16 {
		t.Fatalf("reconf token key length = %d, want 16", len(got.Key))
	}
	if state.Token != state.Reconf {
		t.Fatal("state.Token not pinned to reconf token after type2 success")
	}
}

func TestReconfKeyDeliveryRejectsStaleReplay(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator(t)
	policy := dhcpauth.AuthPolicy{
		Protocol:  dhcpauth.AuthProtocolReconfKey,
		Algorithm: dhcpauth.AuthAlgorithmHMACMD5,
		RDM:       dhcpauth.ReplayDetectionMonotonic,
		Options:   dhcpauth.AuthOptionSend,
	}
	state := &dhcpauth.AuthState{}

	ack := newTestMessage(300, 240, authOptionLenReconf())
	ack[240] = byte(dhcpauth.AuthProtocolReconfKey)
	ack[241] = byte(dhcpauth.AuthAlgorithmHMACMD5)
	ack[242] = byte(dhcpauth.ReplayDetectionMonotonic)
	putUint64(ack[243:251], 1)
	ack[251] = 1 // reconf delivery
	copy(ack[252:268], []byte("reconfigurekey16"))

	if _, err := a.Validate(state, policy, ack, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, authOptionLenReconf()); err != nil {
		t.Fatalf("Validate type1 delivery: %v", err)
	}

	// Pin state.Token via a type2 request, exactly as in
	// TestReconfKeyDeliveryThenRequest.
	req := newTestMessage(300, 240, authOptionLenReconf())
	req[240] = byte(dhcpauth.AuthProtocolReconfKey)
	req[241] = byte(dhcpauth.AuthAlgorithmHMACMD5)
	req[242] = byte(dhcpauth.ReplayDetectionMonotonic)
	putUint64(req[243:251], 2)
	req[251] = 2 // reconf request
	digest := computeTestDigest(t, state.Reconf.Key, req, 240, authOptionLenReconf())
	copy(req[252:268], digest)
	if _, err := a.Validate(state, policy, req, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Request, 240, authOptionLenReconf()); err != nil {
		t.Fatalf("Validate type2 request: %v", err)
	}
	pinnedReplay := state.Replay

	// A replayed/reordered type1 delivery carrying a replay value no
	// fresher than the pinned high-water mark must be denied, not
	// silently accepted and overwrite state.Reconf with stale key
	// material (RFC 3118 Section 4.1; auth.c lines 133-137).
	stale := newTestMessage(300, 240, authOptionLenReconf())
	stale[240] = byte(dhcpauth.AuthProtocolReconfKey)
	stale[241] = byte(dhcpauth.AuthAlgorithmHMACMD5)
	stale[242] = byte(dhcpauth.ReplayDetectionMonotonic)
	putUint64(stale[243:251], pinnedReplay)
	stale[251] = 1 // reconf delivery
	copy(stale[252:268], []byte("stolenreplaykey1"))

	oldReconfKey := append([]byte(nil), state.Reconf.Key...)
	_, err := a.Validate(state, policy, stale, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Ack, 240, authOptionLenReconf())
	if dhcpauth.Kind(err) != dhcpauth.KindDenied {
		t.Fatalf("Validate stale type1 delivery: err = %v, want KindDenied", err)
	}
	if string(state.Reconf.Key) != string(oldReconfKey) {
		t.Fatal("state.Reconf was overwritten by a stale replayed type1 delivery")
	}
}

func authOptionLenReconf() int { return 11 + 1 + 16 }

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func computeTestDigest(t *testing.T, key, m []byte, optOffset, optLen int) []byte {
	t.Helper()
	mm := make([]byte, len(m))
	copy(mm, m)
	digestOffset := optOffset + 11 + 1
	for i := 0; i < 16; i++ {
		mm[digestOffset+i] = 0
	}
	mm[3] = 0
	for i := 0; i < 4; i++ {
		mm[24+i] = 0
	}
	return hmacMD5(key, mm)
}

func TestMalformedShortOption(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator(t)
	policy := newTestPolicy(dhcpauth.AuthProtocolToken)
	m := newTestMessage(64, 20, 5)
	state := &dhcpauth.AuthState{}

	_, err := a.Validate(state, policy, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Request, 20, 5)
	if !errors.Is(err, dhcpauth.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestOutOfRangeOption(t *testing.T) {
	t.Parallel()

	a, _ := newAuthenticator(t)
	policy := newTestPolicy(dhcpauth.AuthProtocolToken)
	m := newTestMessage(32, 20, 20)
	state := &dhcpauth.AuthState{}

	_, err := a.Validate(state, policy, m, dhcpauth.ProtocolV4, dhcpauth.DHCPv4Request, 20, 20)
	if !errors.Is(err, dhcpauth.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}
