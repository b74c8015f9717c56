// Package replay implements a durable, monotonically increasing replay
// counter for the MONOTONIC replay detection method (RFC 3118 Section 4,
// RFC 3315 Section 21.4.1).
//
// The counter survives process restarts by persisting its current value
// to a file guarded by an advisory lock, so two values handed out across
// a restart never collide even if the in-memory high-water mark was
// lost.
package replay
