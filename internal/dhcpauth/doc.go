// Package dhcpauth implements the DHCP authentication option (RFC 3118 for
// DHCPv4, RFC 3315 Section 21 for DHCPv6): validation of authentication
// options received from a DHCP server, and construction of authentication
// options for outgoing DHCP messages.
//
// This package does not parse DHCP messages or frame options; callers
// (the packet layer) supply the full message buffer and the byte range of
// the authentication option's payload within it.
package dhcpauth
