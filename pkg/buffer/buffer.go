// Package buffer provides a bump allocator over a caller-supplied byte
// region.
//
// The host dispatcher hands every lookup a fixed-size buffer and expects
// variable-length record fields (strings, member arrays) to be copied into
// it. The Manager is the single chokepoint for those writes: successive
// Reserve calls hand out non-overlapping subslices of the region, and once
// the region is exhausted every further Reserve fails with
// ErrInsufficientSpace so the caller can retry with a bigger buffer.
//
// Nothing is ever freed individually. A retry always arrives with a fresh
// buffer and a fresh Manager; reservations made before a failed build are
// simply abandoned.
//
// A Manager is not safe for concurrent use. Each lookup builds its own over
// the buffer it was given, which matches the host threading model: the
// buffer belongs to exactly one in-flight call.
package buffer

import (
	"errors"
	"fmt"
)

// ErrInsufficientSpace reports that the region cannot hold a requested
// reservation (the host's ERANGE condition). pkg/nss re-exports it as part
// of the resolver error taxonomy.
var ErrInsufficientSpace = errors.New("insufficient buffer space")

// Manager hands out successive chunks of a caller-supplied byte region.
type Manager struct {
	buf  []byte
	next int
}

// NewManager creates a Manager over the caller-supplied region. The Manager
// does not copy the slice; everything it reserves aliases buf.
func NewManager(buf []byte) *Manager {
	return &Manager{buf: buf}
}

// Reserve returns the next n bytes of the region. The returned slice has
// length and capacity exactly n, so a reservation cannot grow into its
// neighbour's bytes. Fails with ErrInsufficientSpace when fewer than n
// bytes remain.
func (m *Manager) Reserve(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("reserve %d bytes: %w", n, ErrInsufficientSpace)
	}
	if n > len(m.buf)-m.next {
		return nil, fmt.Errorf("reserve %d bytes with %d remaining: %w",
			n, m.Remaining(), ErrInsufficientSpace)
	}
	chunk := m.buf[m.next : m.next+n : m.next+n]
	m.next += n
	return chunk, nil
}

// ReserveString copies s into the region and returns the packed bytes.
func (m *Manager) ReserveString(s string) ([]byte, error) {
	chunk, err := m.Reserve(len(s))
	if err != nil {
		return nil, err
	}
	copy(chunk, s)
	return chunk, nil
}

// Remaining reports how many bytes are still unreserved.
func (m *Manager) Remaining() int {
	return len(m.buf) - m.next
}

// Size reports the total capacity of the region.
func (m *Manager) Size() int {
	return len(m.buf)
}
