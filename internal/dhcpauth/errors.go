package dhcpauth

import "errors"

// ErrorKind classifies a validate/encode failure into one of the seven
// outcome kinds a caller needs to act on (log, count, or translate into
// a DHCP-layer response).
type ErrorKind int

const (
	// KindNone is returned by Kind for a nil or unrecognized error.
	KindNone ErrorKind = iota
	// KindMalformed indicates the authentication option's structure
	// could not be parsed.
	KindMalformed
	// KindOutOfRange indicates the option's declared range falls
	// outside the message buffer.
	KindOutOfRange
	// KindDenied indicates a well-formed option failed policy match,
	// replay, pin, or MAC verification.
	KindDenied
	// KindUnsupported indicates a well-formed option names a protocol,
	// algorithm, or replay detection method this package does not
	// implement.
	KindUnsupported
	// KindNotFound indicates no configured token matches the option's
	// secret_id/realm.
	KindNotFound
	// KindExpired indicates the resolved token's expiry time has
	// passed.
	KindExpired
	// KindBufferTooSmall indicates the caller's target buffer cannot
	// hold the option Encode would produce.
	KindBufferTooSmall
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindOutOfRange:
		return "out_of_range"
	case KindDenied:
		return "denied"
	case KindUnsupported:
		return "unsupported"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindBufferTooSmall:
		return "buffer_too_small"
	default:
		return "none"
	}
}

// Sentinel errors, one per ErrorKind. Validate and Encode always wrap
// one of these with fmt.Errorf("...: %w", ...), so errors.Is and Kind
// both see through the added context.
var (
	ErrMalformed      = errors.New("dhcpauth: malformed authentication option")
	ErrOutOfRange     = errors.New("dhcpauth: authentication option out of range")
	ErrDenied         = errors.New("dhcpauth: authentication denied")
	ErrUnsupported    = errors.New("dhcpauth: unsupported protocol, algorithm, or replay detection method")
	ErrNotFound       = errors.New("dhcpauth: no matching token")
	ErrExpired        = errors.New("dhcpauth: token expired")
	ErrBufferTooSmall = errors.New("dhcpauth: target buffer too small")
)

// Kind classifies err into an ErrorKind, returning KindNone if err is
// nil or was not produced by this package.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrOutOfRange):
		return KindOutOfRange
	case errors.Is(err, ErrDenied):
		return KindDenied
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExpired):
		return KindExpired
	case errors.Is(err, ErrBufferTooSmall):
		return KindBufferTooSmall
	default:
		return KindNone
	}
}
