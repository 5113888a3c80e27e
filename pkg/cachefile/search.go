package cachefile

import (
	"fmt"
	"io"
)

// seekToRegionLocked bisects the sorted cache file by byte offset and
// leaves the cursor at the start of a line no later than the first record
// whose key is >= the target. The caller then scans linearly through the
// matching region.
//
// Each probe seeks to the midpoint, discards the partial line it landed
// in, and compares the key of the next full line. The invariant is that
// every record starting at or before lo compares below the target, so the
// final cursor never skips a potential match; among duplicate keys the
// forward scan still finds the first one.
//
// Only the producer's sort guarantee makes this correct; the resolver
// never validates global ordering.
func (r *Resolver) seekToRegionLocked(size int64, lineCmp func([]byte) int) error {
	lo, hi := int64(0), size
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		line, err := r.firstLineAfterLocked(mid)
		if err != nil {
			if err == io.EOF {
				// No full line between mid and end of file.
				hi = mid
				continue
			}
			return fmt.Errorf("binary search probe at offset %d: %w", mid, err)
		}
		if lineCmp(line) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	if lo == 0 {
		return r.rewindLocked(0)
	}
	// Land inside (or at the end of) the last below-target line and skip
	// the remainder of it.
	if err := r.rewindLocked(lo); err != nil {
		return err
	}
	return r.discardPartialLineLocked()
}

// firstLineAfterLocked returns the first complete line that starts after
// the given offset. Returns io.EOF when no complete line follows.
func (r *Resolver) firstLineAfterLocked(offset int64) ([]byte, error) {
	if err := r.rewindLocked(offset); err != nil {
		return nil, err
	}
	if offset > 0 {
		if err := r.discardPartialLineLocked(); err != nil {
			return nil, err
		}
	}
	return r.readLineLocked()
}

// discardPartialLineLocked advances the cursor past the line fragment it
// is currently inside. Reaching end of file while discarding is fine; the
// next read reports io.EOF on its own.
func (r *Resolver) discardPartialLineLocked() error {
	raw, err := r.reader.ReadBytes('\n')
	r.offset += int64(len(raw))
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}
