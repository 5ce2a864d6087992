// Package ring implements the fixed-capacity circular buffer shared by
// the windowed-aggregate stages (MAV, RMS, linear regression) and by the
// Interpolator's per-channel delay line. Stages compose a
// ring.Buffer with their own accumulator fields (a running sum, a running
// sum of squares) rather than subclassing it, keeping the buffer itself
// free of any particular stage's update logic.
package ring

import "fmt"

// Buffer is a fixed-capacity circular buffer of float32 samples. The zero
// value is not usable; construct with New.
type Buffer struct {
	data     []float32
	writeIdx int
	count    int
}

// New returns an empty Buffer with the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]float32, capacity)}
}

// Cap returns the buffer's fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the number of valid samples currently held (monotone up to
// Cap, then steady).
func (b *Buffer) Len() int { return b.count }

// Full reports whether the buffer holds Cap samples.
func (b *Buffer) Full() bool { return b.count == len(b.data) }

// WriteIndex returns the index the next Push will write to.
func (b *Buffer) WriteIndex() int { return b.writeIdx }

// Push writes x at the current write position and advances it. If the
// buffer was already full, the oldest sample is evicted and returned.
func (b *Buffer) Push(x float32) (evicted float32, wasEvicted bool) {
	cap := len(b.data)
	if b.count == cap {
		evicted = b.data[b.writeIdx]
		wasEvicted = true
	}
	b.data[b.writeIdx] = x
	b.writeIdx = (b.writeIdx + 1) % cap
	if b.count < cap {
		b.count++
	}
	return evicted, wasEvicted
}

// At returns the i-th oldest sample currently held: At(0) is the oldest,
// At(Len()-1) is the most recently pushed. When the buffer is full this
// is exactly the arrival-order enumeration the linear regression stage
// needs: buf[(write_idx + i) mod cap].
func (b *Buffer) At(i int) float32 {
	cap := len(b.data)
	oldest := (b.writeIdx - b.count + cap) % cap
	return b.data[(oldest+i)%cap]
}

// RawAt returns the raw underlying slot at index i directly, with no
// oldest/newest reordering. Used by stages (the Interpolator) that
// address the ring by write-index arithmetic rather than arrival order.
func (b *Buffer) RawAt(i int) float32 {
	return b.data[i]
}

// Contents returns a newly allocated oldest-to-newest copy of the
// currently held samples (length Len()). Used to persist variable-
// occupancy windows (MAV/RMS/linear regression) without needing to carry
// the write index separately: replaying Contents() through Push, in
// order, into a fresh same-capacity Buffer reproduces identical internal
// state.
func (b *Buffer) Contents() []float32 {
	out := make([]float32, b.count)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}

// RestoreFromContents rebuilds a Buffer of the given capacity by pushing
// contents (oldest to newest) in order. Fails if contents is longer than
// capacity.
func RestoreFromContents(capacity int, contents []float32) (*Buffer, error) {
	if len(contents) > capacity {
		return nil, fmt.Errorf("ring: %d stored samples exceed capacity %d", len(contents), capacity)
	}
	b := New(capacity)
	for _, v := range contents {
		b.Push(v)
	}
	return b, nil
}

// RawData returns a copy of the full underlying capacity-length array,
// including slots never written to (still zero). Used by stages whose
// ring is always fully populated from construction (e.g. the
// Interpolator's delay line), where the raw array plus the write index is
// the persisted state rather than a shorter oldest-to-newest sequence.
func (b *Buffer) RawData() []float32 {
	return append([]float32(nil), b.data...)
}

// RestoreRaw rebuilds a Buffer directly from a full capacity-length array
// and an explicit write index, bypassing Push replay. Fails unless
// len(data) == capacity and 0 <= writeIdx < capacity.
func RestoreRaw(capacity int, data []float32, writeIdx int) (*Buffer, error) {
	if len(data) != capacity {
		return nil, fmt.Errorf("ring: stored data length %d does not match capacity %d", len(data), capacity)
	}
	if writeIdx < 0 || writeIdx >= capacity {
		return nil, fmt.Errorf("ring: stored write index %d out of range [0,%d)", writeIdx, capacity)
	}
	b := &Buffer{
		data:     append([]float32(nil), data...),
		writeIdx: writeIdx,
		count:    capacity,
	}
	return b, nil
}

// Reset clears the buffer back to empty, preserving capacity.
func (b *Buffer) Reset() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.writeIdx = 0
	b.count = 0
}
