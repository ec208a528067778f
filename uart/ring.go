// uart/ring.go
package uart

import "sync/atomic"

// Ring is a single-producer, single-consumer byte ring with a fixed
// power-of-two capacity. Indexes are monotonic and masked on access, so
// head and tail each have exactly one writer and no lock is needed:
// the interrupt side owns one index, the application side the other.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)
}

// NewRing allocates a ring of the given capacity.
func NewRing(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("uart: ring size must be power of two >= 2")
	}
	return &Ring{
		buf:  make([]byte, size),
		mask: uint32(size - 1),
	}
}

// Size returns the total capacity in bytes.
func (r *Ring) Size() int { return len(r.buf) }

// Used returns how many bytes are currently buffered.
func (r *Ring) Used() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Free returns how many bytes can be stored before the ring is full.
func (r *Ring) Free() int {
	return len(r.buf) - r.Used()
}

// Put stores one byte. If the ring is full it returns false and leaves
// the contents untouched; callers needing guaranteed delivery must check
// Free first.
func (r *Ring) Put(b byte) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr-rd == uint32(len(r.buf)) {
		return false
	}
	r.buf[wr&r.mask] = b
	r.wr.Store(wr + 1) // release
	return true
}

// Get removes and returns the oldest byte. The second result is false
// when the ring is empty; no state is mutated in that case.
func (r *Ring) Get() (byte, bool) {
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	if wr == rd {
		return 0, false
	}
	b := r.buf[rd&r.mask]
	r.rd.Store(rd + 1) // release
	return b, true
}

// Clear resets the ring to empty. Only safe while neither side is active,
// i.e. during initialization.
func (r *Ring) Clear() {
	r.rd.Store(0)
	r.wr.Store(0)
}
