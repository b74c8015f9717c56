package replay

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// MonotonicCounter is a durable, monotonically increasing counter backed
// by a single file, suitable as the replay source for the MONOTONIC
// replay detection method.
//
// Next is safe for concurrent use from multiple goroutines in this
// process (serialized by an internal mutex) and from multiple processes
// sharing the same file (serialized by a POSIX advisory lock).
type MonotonicCounter struct {
	path string

	mu       sync.Mutex
	cache    uint64
	degraded bool
}

// Degraded reports whether a prior Next call failed to persist the
// counter to disk (lock, read, or write failure) and is now issuing
// values from the in-process high-water mark alone. Once degraded, the
// counter no longer guards against reissuing a value already handed out
// by a previous process run; it still guarantees strictly increasing
// values for the remainder of this process.
func (c *MonotonicCounter) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// NewMonotonicCounter opens (creating if necessary) the counter file at
// path and seeds the in-memory high-water mark from its current
// contents before returning, so the very first Next call is already
// consistent with whatever value a prior process run left behind.
func NewMonotonicCounter(path string) (*MonotonicCounter, error) {
	c := &MonotonicCounter{path: path}

	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock replay counter file %q: %w", path, err)
	}
	defer fl.Unlock() //nolint:errcheck // best-effort unlock; the fd close also releases it.

	v, err := readCounterFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("seed replay counter from %q: %w", path, err)
	}
	c.cache = v
	return c, nil
}

// Next returns the next value in the sequence, durably recording it
// before returning so that a crash immediately after Next cannot cause a
// later process to reissue the same value.
//
// If the counter file cannot be locked, read, or written, Next falls
// back to the in-memory high-water mark and keeps returning strictly
// increasing values for the remainder of this process, rather than
// failing the caller's authentication path over a storage outage. Once
// this fallback engages, Degraded reports true.
func (c *MonotonicCounter) Next() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl := flock.New(c.path)
	if err := fl.Lock(); err != nil {
		c.degraded = true
		c.cache++
		return c.cache, nil
	}

	switch diskValue, err := readCounterFile(c.path); {
	case err == nil:
		if diskValue > c.cache {
			c.cache = diskValue
		}
	case errors.Is(err, os.ErrNotExist):
		// First use of this counter file; c.cache already holds
		// whatever NewMonotonicCounter seeded (normally zero).
	default:
		// The file exists but is unreadable (truncated, permission
		// change mid-run). Fall back to the in-memory high-water mark
		// rather than risk reissuing an already-handed-out value; the
		// write below will repair the file on disk.
	}

	next := c.cache + 1
	if err := writeCounterFile(c.path, next); err != nil {
		fl.Unlock() //nolint:errcheck // best-effort unlock; the fd close also releases it.
		c.degraded = true
		c.cache = next
		return next, nil
	}
	fl.Unlock() //nolint:errcheck // best-effort unlock; the fd close also releases it.
	c.cache = next
	return next, nil
}

// Peek returns the counter value currently durable at path without
// advancing it, for operator inspection (dhcpauthctl replay show).
// Returns 0, nil if the file does not yet exist.
func Peek(path string) (uint64, error) {
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return 0, fmt.Errorf("lock replay counter file %q: %w", path, err)
	}
	defer fl.Unlock() //nolint:errcheck // best-effort unlock; the fd close also releases it.

	v, err := readCounterFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read replay counter %q: %w", path, err)
	}
	return v, nil
}

// Reset rewrites the counter file at path to zero, for operator recovery
// (dhcpauthctl replay reset) when a peer's replay state has been
// deliberately reset out of band. Callers are responsible for ensuring no
// pinned AuthState still expects monotonically increasing values from the
// old sequence.
func Reset(path string) error {
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock replay counter file %q: %w", path, err)
	}
	defer fl.Unlock() //nolint:errcheck // best-effort unlock; the fd close also releases it.

	if err := writeCounterFile(path, 0); err != nil {
		return fmt.Errorf("reset replay counter file %q: %w", path, err)
	}
	return nil
}

// canonicalHexDigits is the width of the %016x field writeCounterFile
// produces; it is also what disambiguates the canonical format from the
// legacy one below.
const canonicalHexDigits = 16

// readCounterFile parses the counter file's contents. The canonical
// format written by writeCounterFile is "0x%016x\n" (19 bytes): a
// fixed-width 16-digit hex value. A now-fixed defect in an earlier
// implementation wrote the same "0x" prefix ahead of an unpadded
// decimal conversion instead, producing a variable-width value; that
// legacy format is distinguished from the canonical one by its width
// and parsed as decimal, so a durable counter recovered from disk never
// goes backward across an upgrade.
func readCounterFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	rest, hasPrefix := strings.CutPrefix(s, "0x")
	if !hasPrefix {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unrecognized replay counter format %q", s)
		}
		return n, nil
	}
	if len(rest) == canonicalHexDigits {
		if n, err := strconv.ParseUint(rest, 16, 64); err == nil {
			return n, nil
		}
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognized replay counter format %q", s)
	}
	return n, nil
}

// writeCounterFile writes v in the canonical fixed-width hex format and
// fsyncs it, so a crash right after the write cannot leave a
// half-written counter file behind.
func writeCounterFile(path string, v uint64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // error from Close is surfaced via Sync below when it matters.

	if _, err := fmt.Fprintf(f, "0x%016x\n", v); err != nil {
		return err
	}
	return f.Sync()
}
