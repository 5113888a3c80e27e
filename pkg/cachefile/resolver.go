// Package cachefile resolves accounts from the locally materialized cache
// file.
//
// The cache file is a sorted flat text file, one passwd-format record per
// line, produced by the refresh command (or any external producer that
// keeps the sort invariant). The resolver serves the same lookup contract
// as the network resolver from that file alone, so lookups keep working
// when the directory is unreachable.
//
// All entry points funnel through one process-wide mutex guarding a single
// open-file cursor. The lock is deliberately coarse: it spans the whole
// duration of every call, file I/O included, so two concurrent point
// lookups can never interleave their scans. A blocked caller waits on the
// lock; a stuck read blocks everyone, which is exactly the fail-slow
// behavior the host expects from this contract.
package cachefile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/marmos91/cloudnss/pkg/buffer"
	"github.com/marmos91/cloudnss/pkg/metrics"
	"github.com/marmos91/cloudnss/pkg/nss"
)

// DefaultPath is the well-known location of the account cache file.
const DefaultPath = "/etc/cloudnss_passwd.cache"

// binarySearchMinSize is the file size below which point lookups always
// scan linearly; bisecting tiny files costs more seeks than it saves.
const binarySearchMinSize = 32 << 10

// SortKey declares which key the cache file producer sorted by. Point
// lookups on that key may bisect the file; lookups on the other key fall
// back to a linear scan from the start.
type SortKey int

const (
	// SortKeyUID means the file is sorted by numeric uid (what the
	// bundled refresh writer produces).
	SortKeyUID SortKey = iota

	// SortKeyName means the file is sorted by username, byte-wise.
	SortKeyName

	// SortKeyNone disables binary search entirely.
	SortKeyNone
)

// Resolver scans the cache file. The zero value is not usable; construct
// with NewResolver.
type Resolver struct {
	mu      sync.Mutex
	path    string
	sortKey SortKey

	// Cursor state, guarded by mu. file == nil means Closed; otherwise the
	// cursor is Open with offset pointing at the next unread line.
	file   *os.File
	reader *bufio.Reader
	offset int64

	// scanSteps counts records visited, incremented under mu. Lookups that
	// interleaved would show it advancing mid-scan; tests rely on that.
	scanSteps uint64
}

// NewResolver creates a resolver for the cache file at path. An empty path
// uses DefaultPath. The file is assumed uid-sorted; use WithSortKey if the
// producer sorts differently.
func NewResolver(path string) *Resolver {
	if path == "" {
		path = DefaultPath
	}
	return &Resolver{path: path, sortKey: SortKeyUID}
}

// WithSortKey declares the producer's sort key and returns the resolver.
func (r *Resolver) WithSortKey(key SortKey) *Resolver {
	r.sortKey = key
	return r
}

// SetEnt opens the cache file and positions the cursor at the first
// record. Returns StatusUnavailable if the file cannot be opened.
func (r *Resolver) SetEnt() nss.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.setEntLocked(); err != nil {
		return nss.StatusUnavailable
	}
	return nss.StatusSuccess
}

// GetEnt reads the next record into the caller buffer, opening the cursor
// implicitly if SetEnt has not been called. At end of data it reports
// not-found; a record that does not fit buf reports try-again and leaves
// the cursor on that record so the retry re-reads it.
func (r *Resolver) GetEnt(out *nss.Passwd, buf []byte) (nss.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getEntLocked(out, buf)
}

// EndEnt closes the cursor. Idempotent; safe to call when already closed.
func (r *Resolver) EndEnt() nss.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endEntLocked()
	return nss.StatusSuccess
}

// LookupUserByUID finds the first record with the given uid. The whole
// open-scan-close sequence runs under the lock as one atomic unit.
func (r *Resolver) LookupUserByUID(uid uint32, out *nss.Passwd, buf []byte) (nss.Status, error) {
	status, err := r.lookup(SortKeyUID, out, buf,
		func(line []byte) int {
			_, lineUID, ok := lineKey(line)
			if !ok {
				return -1
			}
			return compareUint32(lineUID, uid)
		},
		func(p *nss.Passwd) int {
			return compareUint32(p.UID, uid)
		})
	metrics.RecordLookup(metrics.SourceCache, metrics.KindPasswdUID, status.String())
	return status, err
}

// LookupUserByName finds the first record with the given username.
func (r *Resolver) LookupUserByName(name string, out *nss.Passwd, buf []byte) (nss.Status, error) {
	nameBytes := []byte(name)
	status, err := r.lookup(SortKeyName, out, buf,
		func(line []byte) int {
			lineName, _, ok := lineKey(line)
			if !ok {
				return -1
			}
			return bytes.Compare(lineName, nameBytes)
		},
		func(p *nss.Passwd) int {
			return bytes.Compare(p.Name, nameBytes)
		})
	metrics.RecordLookup(metrics.SourceCache, metrics.KindPasswdName, status.String())
	return status, err
}

// lookup is the shared point-lookup skeleton. lineCmp compares a raw line
// against the target key (for the bisection probes); recordCmp compares a
// packed record (for the scan itself). Both return <0, 0, >0.
func (r *Resolver) lookup(key SortKey, out *nss.Passwd, buf []byte, lineCmp func([]byte) int, recordCmp func(*nss.Passwd) int) (nss.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.setEntLocked(); err != nil {
		return nss.StatusUnavailable, fmt.Errorf("open cache file %s: %w", r.path, err)
	}
	defer r.endEntLocked()

	// When the file is sorted by this lookup's key, bisect to just before
	// the matching region and let the sort invariant stop the scan early.
	// Any probe failure falls back to a full linear scan from the start.
	sorted := false
	if r.sortKey == key {
		if info, err := r.file.Stat(); err == nil && info.Size() >= binarySearchMinSize {
			if err := r.seekToRegionLocked(info.Size(), lineCmp); err == nil {
				sorted = true
			} else if err := r.rewindLocked(0); err != nil {
				return nss.StatusUnavailable, fmt.Errorf("rewind cache file %s: %w", r.path, err)
			}
		}
	}

	for {
		status, err := r.getEntLocked(out, buf)
		if status != nss.StatusSuccess {
			return status, err
		}
		switch cmp := recordCmp(out); {
		case cmp == 0:
			return nss.StatusSuccess, nil
		case sorted && cmp > 0:
			// Past the matching region of a sorted file; the key is absent.
			return nss.StatusNotFound, nss.ErrNotFound
		}
	}
}

// setEntLocked (re)opens the cache file and resets the cursor.
func (r *Resolver) setEntLocked() error {
	r.endEntLocked()
	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	r.file = f
	r.reader = bufio.NewReader(f)
	r.offset = 0
	return nil
}

// endEntLocked closes the cursor if it is open.
func (r *Resolver) endEntLocked() {
	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
		r.reader = nil
		r.offset = 0
	}
}

// getEntLocked reads and packs the next record.
func (r *Resolver) getEntLocked(out *nss.Passwd, buf []byte) (nss.Status, error) {
	if r.file == nil {
		if err := r.setEntLocked(); err != nil {
			return nss.StatusUnavailable, fmt.Errorf("open cache file %s: %w", r.path, err)
		}
	}

	lineStart := r.offset
	line, err := r.readLineLocked()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nss.StatusNotFound, fmt.Errorf("cache enumeration exhausted: %w", nss.ErrNotFound)
		}
		return nss.StatusNotFound, fmt.Errorf("%w: read cache file: %v", nss.ErrNotFound, err)
	}

	r.scanSteps++
	metrics.RecordCacheScan(1)

	bm := buffer.NewManager(buf)
	if err := packLine(line, out, bm); err != nil {
		if errors.Is(err, buffer.ErrInsufficientSpace) {
			// Leave the cursor on this record so a retry with a bigger
			// buffer picks it up again.
			if rerr := r.rewindLocked(lineStart); rerr != nil {
				return nss.StatusNotFound, fmt.Errorf("%w: rewind cache file: %v", nss.ErrNotFound, rerr)
			}
			return nss.StatusTryAgain, err
		}
		return nss.StatusNotFound, fmt.Errorf("%w: %v", nss.ErrNotFound, err)
	}
	return nss.StatusSuccess, nil
}

// readLineLocked returns the next non-empty line without its terminator
// and advances the cursor offset past it. io.EOF means end of data.
func (r *Resolver) readLineLocked() ([]byte, error) {
	for {
		raw, err := r.reader.ReadBytes('\n')
		r.offset += int64(len(raw))
		if len(raw) == 0 {
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		line := bytes.TrimRight(raw, "\r\n")
		if len(line) > 0 {
			return line, nil
		}
		// Blank line: not a record, keep going.
		if err != nil {
			return nil, io.EOF
		}
	}
}

// rewindLocked repositions the cursor at the given byte offset.
func (r *Resolver) rewindLocked(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.reader.Reset(r.file)
	r.offset = offset
	return nil
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
