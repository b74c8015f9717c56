package dhcpauth

// AuthProtocol identifies the authentication protocol carried in the
// DHCP authentication option's "protocol" field (RFC 3118 Section 3,
// RFC 3315 Section 21.1).
type AuthProtocol uint8

const (
	// AuthProtocolToken is the cleartext shared-secret protocol.
	AuthProtocolToken AuthProtocol = 0
	// AuthProtocolDelayed authenticates with a delayed-disclosure HMAC
	// keyed by secret_id.
	AuthProtocolDelayed AuthProtocol = 1
	// AuthProtocolReconfKey is the RECONF_KEY sub-protocol used to
	// deliver and then exercise a reconfigure key.
	AuthProtocolReconfKey AuthProtocol = 2
	// AuthProtocolDelayedRealm is AuthProtocolDelayed extended with a
	// realm name ahead of the secret_id.
	AuthProtocolDelayedRealm AuthProtocol = 3
)

// AuthAlgorithm identifies the keyed-hash algorithm used by the delayed
// authentication protocols.
type AuthAlgorithm uint8

// AuthAlgorithmHMACMD5 is the only algorithm defined by RFC 3118.
const AuthAlgorithmHMACMD5 AuthAlgorithm = 1

// ReplayDetectionMethod identifies how the replay field of the
// authentication option is produced and checked.
type ReplayDetectionMethod uint8

// ReplayDetectionMonotonic is the strictly-increasing replay counter
// method (RFC 3118 Section 4).
const ReplayDetectionMonotonic ReplayDetectionMethod = 0

// AuthOptions is a bitset of policy switches layered on top of the wire
// protocol/algorithm/rdm triple.
type AuthOptions uint32

// AuthOptionSend marks a policy under which the client authenticates its
// own messages. When set, Validate requires incoming options to match the
// policy's protocol/algorithm/rdm triple; when clear, Validate accepts
// only a RECONF_KEY option. Encode does not consult this flag.
const AuthOptionSend AuthOptions = 1 << 0

// AuthPolicy is the configured authentication contract for a session:
// which protocol/algorithm/replay-detection-method triple is expected on
// the wire, and whether authentication is actively enforced.
type AuthPolicy struct {
	Protocol  AuthProtocol
	Algorithm AuthAlgorithm
	RDM       ReplayDetectionMethod
	Options   AuthOptions
}

// Send reports whether the SEND option is set.
func (p AuthPolicy) Send() bool {
	return p.Options&AuthOptionSend != 0
}

// MessageProtocol distinguishes DHCPv4 from DHCPv6 messages, since the
// wire layout normalized for MAC computation and the set of message
// types that never carry a MAC both differ between the two protocols.
type MessageProtocol uint8

const (
	// ProtocolV4 identifies a DHCPv4 message (RFC 2131).
	ProtocolV4 MessageProtocol = 4
	// ProtocolV6 identifies a DHCPv6 message (RFC 8415).
	ProtocolV6 MessageProtocol = 6
)

// DHCPv4 message types relevant to authentication (RFC 2131 Section 3,
// RFC 3118 Section 4).
const (
	DHCPv4Discover uint8 = 1
	DHCPv4Offer    uint8 = 2
	DHCPv4Request  uint8 = 3
	DHCPv4Decline  uint8 = 4
	DHCPv4Ack      uint8 = 5
	DHCPv4Nak      uint8 = 6
	DHCPv4Release  uint8 = 7
	DHCPv4Inform   uint8 = 8
)

// DHCPv6 message types relevant to authentication (RFC 8415 Section 7.3,
// RFC 3315 Section 21).
const (
	DHCPv6Solicit            uint8 = 1
	DHCPv6Advertise          uint8 = 2
	DHCPv6Request            uint8 = 3
	DHCPv6Reply              uint8 = 7
	DHCPv6Reconfigure        uint8 = 10
	DHCPv6InformationRequest uint8 = 11
)

// reconfKeyDelivery and reconfKeyRequest are the two RECONF_KEY
// sub-protocol message types (RFC 3118 Section 4.3).
const (
	reconfKeyDelivery uint8 = 1
	reconfKeyRequest  uint8 = 2
)

// isNoAuthMessageType reports whether mt is a message type that, per
// RFC 3118 Section 4 / RFC 3315 Section 21, never carries a MAC even
// under an active SEND policy (DISCOVER/SOLICIT and INFORM/
// INFORMATION-REQUEST authenticate with the TOKEN protocol only, or not
// at all).
func isNoAuthMessageType(mp MessageProtocol, mt uint8) bool {
	switch mp {
	case ProtocolV4:
		return mt == DHCPv4Discover || mt == DHCPv4Inform
	case ProtocolV6:
		return mt == DHCPv6Solicit || mt == DHCPv6InformationRequest
	default:
		return false
	}
}
