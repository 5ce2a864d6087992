// Package chanstate implements the per-channel state lifecycle every
// channel-aware stage follows: a stage is "uninitialized" until it first
// sees a channel count C, then lazily allocates exactly C state records; a
// subsequent call with a different C rebuilds the set from scratch,
// discarding all prior continuity.
package chanstate

// Set holds one state record of type T per channel.
type Set[T any] struct {
	channels []T
	bound    bool
	newFn    func() T
}

// New returns an empty, unbound Set. newFn constructs one channel's
// zero-value state record; it is called once per channel whenever the
// set is (re)built.
func New[T any](newFn func() T) *Set[T] {
	return &Set[T]{newFn: newFn}
}

// Ensure binds the set to c channels. If the set was unbound, or was
// bound to a different channel count, it is rebuilt from scratch (all
// existing per-channel state is discarded) and Ensure returns true. If
// the set was already bound to c channels, Ensure is a no-op and returns
// false.
func (s *Set[T]) Ensure(c int) (rebuilt bool) {
	if s.bound && len(s.channels) == c {
		return false
	}
	s.channels = make([]T, c)
	for i := range s.channels {
		s.channels[i] = s.newFn()
	}
	s.bound = true
	return true
}

// Bound reports whether the set has ever seen a channel count.
func (s *Set[T]) Bound() bool { return s.bound }

// Len returns the number of channels currently bound (0 if unbound).
func (s *Set[T]) Len() int { return len(s.channels) }

// At returns a pointer to channel i's state record.
func (s *Set[T]) At(i int) *T { return &s.channels[i] }

// Reset discards all per-channel state, returning the set to unbound;
// the next Ensure call will allocate fresh records.
func (s *Set[T]) Reset() {
	s.channels = nil
	s.bound = false
}

// RestoreChannels replaces the set's contents wholesale (used when
// deserializing persisted per-channel state) and marks the set bound to
// len(values) channels.
func (s *Set[T]) RestoreChannels(values []T) {
	s.channels = values
	s.bound = true
}
