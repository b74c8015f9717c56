package dhcpauth

// AuthState is the per-session authentication state carried alongside a
// DHCP client's lease state: the pinned token, the replay high-water
// mark, and any reconfigure key delivered via RECONF_KEY.
//
// An AuthState is not safe for concurrent use; callers serialize access
// the same way they serialize the rest of a session's mutable state.
type AuthState struct {
	// Token is the token a prior successful Validate call pinned this
	// session to. Once non-nil, every subsequent Validate call must
	// resolve to the same Token (by identity) or fail with ErrDenied.
	Token *Token
	// Replay is the highest replay counter value accepted so far.
	Replay uint64
	// Reconf is the reconfigure key delivered by a RECONF_KEY type-1
	// option, or nil if none has been delivered yet.
	Reconf *Token
}

// Reset clears all authentication state, scrubbing the reconfigure key
// if one was delivered. It does not scrub Token: the token belongs to
// the TokenStore and outlives the session.
func (s *AuthState) Reset() {
	s.Token = nil
	s.Replay = 0
	if s.Reconf != nil {
		s.Reconf.Destroy()
		s.Reconf = nil
	}
}

// replayIsFresh reports whether replay is strictly newer than last,
// using wraparound-safe unsigned subtraction (RFC 3118 Section 4.1).
func replayIsFresh(replay, last uint64) bool {
	return int64(replay-last) > 0
}
