// Package stage defines the uniform contract every DSP processing stage
// implements: identity, in-place or resizing buffer processing, reset,
// and state serialization to both of the runtime's wire formats.
//
// A driver (not part of this package, see the out-of-scope note in the
// module's top-level documentation) owns an interleaved sample buffer of
// layout [ch0_s0, ch1_s0, ..., chN_s0, ch0_s1, ...] and hands it to a
// Stage's Process or ProcessResizing method on every call, pairing each
// Stage instance with exactly one logical stream.
package stage

import "github.com/doismellburning/dspstage/statecodec"

// Stage is the contract every DSP processing stage implements.
//
// All buffer arguments are flat interleaved float32 slices; n/inLen/outLen
// are total element counts (samples_per_channel * numChannels), not
// per-channel sample counts. Timestamps, when present, carry one entry
// per sample position (len(ts) == n/c) in milliseconds and are optional;
// a stage may ignore a nil ts.
type Stage interface {
	// TypeTag returns the stage's stable identifier, used for
	// serialization discrimination and pipeline routing.
	TypeTag() string

	// IsResizing reports whether this stage changes buffer length.
	// Non-resizing stages (the default) transform buf in place.
	IsResizing() bool

	// TimeScaleFactor returns the multiplier the driver should apply to
	// timestamps after a resizing call. 1.0 for non-resizing stages.
	TimeScaleFactor() float64

	// CalculateOutputSize returns the output buffer length a resizing
	// stage needs for a given input length. Identity for non-resizing
	// stages.
	CalculateOutputSize(inputLen int) int

	// Process mutates buf[:n] in place. Fatal (returns a ContractError)
	// if called on a stage for which IsResizing() is true.
	Process(buf []float32, n int, c int, ts []float64) error

	// ProcessResizing reads in[:inLen], writes the result into out,
	// and stores the number of elements written into *outLen. Non-resizing
	// stages default to copying in to out and calling Process.
	ProcessResizing(in []float32, inLen int, out []float32, outLen *int, c int, ts []float64) error

	// Reset clears all per-channel state, returning the stage to its
	// post-construction condition while preserving configuration.
	Reset()

	// SerializeTOON writes the stage's persisted state to w.
	SerializeTOON(w statecodec.Writer)
	// DeserializeTOON restores state from r. Validates before mutating;
	// on error the receiver's state is left intact.
	DeserializeTOON(r statecodec.Reader) error

	// SerializeHost writes the stage's persisted state to w using the
	// host object-tree format. Semantically identical to SerializeTOON.
	SerializeHost(w statecodec.Writer)
	// DeserializeHost restores state from r using the host object-tree
	// format. Performs the same validations as DeserializeTOON.
	DeserializeHost(r statecodec.Reader) error
}

// Base supplies the default, non-resizing implementations of IsResizing,
// TimeScaleFactor, and CalculateOutputSize. Stages that transform buffers
// in place without changing their length embed Base; resizing stages
// (Interpolator, Mel Spectrogram) implement all three directly instead.
type Base struct{}

// IsResizing always returns false for Base.
func (Base) IsResizing() bool { return false }

// TimeScaleFactor always returns 1.0 for Base.
func (Base) TimeScaleFactor() float64 { return 1.0 }

// CalculateOutputSize is the identity function for Base.
func (Base) CalculateOutputSize(inputLen int) int { return inputLen }

// DefaultProcessResizing implements the default ProcessResizing behavior
// for non-resizing stages: copy in[:inLen] into out, then run Process over
// the copy. Go has no virtual dispatch through embedding, so the stage is
// passed explicitly rather than invoked through Base.
func DefaultProcessResizing(s Stage, in []float32, inLen int, out []float32, outLen *int, c int, ts []float64) error {
	n := copy(out, in[:inLen])
	*outLen = n
	return s.Process(out[:n], n, c, ts)
}

// ErrProcessOnResizingStage builds the ContractError a resizing stage
// returns when Process (rather than ProcessResizing) is called on it.
func ErrProcessOnResizingStage(tag string) error {
	return NewContractError(tag, "Process called on a resizing stage; use ProcessResizing")
}
