package dhcpauth_test

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // test-only digest matching the package under test.
	"sync/atomic"

	"github.com/dantte-lp/dhcpauthd/internal/dhcpauth"
)

// hmacMD5 mirrors the package's internal digest computation so tests
// can construct wire-valid options without exporting internals.
func hmacMD5(key, data []byte) []byte {
	mac := hmac.New(md5.New, key)
	mac.Write(data) //nolint:errcheck // hash.Hash.Write never returns an error.
	return mac.Sum(nil)
}

// sequenceCounter is a trivial in-memory dhcpauth.ReplayCounter used by
// tests in place of the durable internal/replay implementation.
type sequenceCounter struct {
	n uint64
}

func (c *sequenceCounter) Next() (uint64, error) {
	return atomic.AddUint64(&c.n, 1), nil
}

func newTestPolicy(protocol dhcpauth.AuthProtocol) dhcpauth.AuthPolicy {
	return dhcpauth.AuthPolicy{
		Protocol:  protocol,
		Algorithm: dhcpauth.AuthAlgorithmHMACMD5,
		RDM:       dhcpauth.ReplayDetectionMonotonic,
		Options:   dhcpauth.AuthOptionSend,
	}
}

// newTestMessage returns a synthetic message buffer of length mlen filled
// with a non-zero byte pattern. optOffset and optLen only document the
// option slot at the call site; the buffer is not altered for them.
func newTestMessage(mlen, optOffset, optLen int) []byte {
	m := make([]byte, mlen)
	for i := range m {
		m[i] = byte(i*7 + 3)
	}
	_ = optOffset
	_ = optLen
	return m
}
