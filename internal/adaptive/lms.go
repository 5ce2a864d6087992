// Package adaptive implements the two adaptive-filter cores the LMS and
// RLS stages drive: a normalized-or-plain leaky LMS filter and a
// recursive least-squares filter. Spec.md treats these as external
// collaborators specified only at their interface boundary ("underlying
// filter state objects... we specify the contract stages require from
// them"); this module supplies the working engine behind that contract
// directly, since the stage library has nothing else to delegate to.
package adaptive

// LMS is a (optionally normalized, optionally leaky) least-mean-squares
// adaptive FIR filter.
type LMS struct {
	numTaps     int
	mu          float32
	normalized  bool
	lambda      float32
	initialized bool
	weights     []float32
	taps        []float32 // tap delay line; not part of persisted state.
}

// NewLMS constructs an LMS filter with numTaps coefficients, all zero.
func NewLMS(numTaps int, mu float32, normalized bool, lambda float32) *LMS {
	return &LMS{
		numTaps:    numTaps,
		mu:         mu,
		normalized: normalized,
		lambda:     lambda,
		weights:    make([]float32, numTaps),
		taps:       make([]float32, numTaps),
	}
}

// NumTaps returns the configured tap count.
func (f *LMS) NumTaps() int { return f.numTaps }

// Initialized reports whether Step has ever run.
func (f *LMS) Initialized() bool { return f.initialized }

// Weights returns a copy of the current weight vector.
func (f *LMS) Weights() []float32 { return append([]float32(nil), f.weights...) }

// RestoreWeights replaces the weight vector (length must equal numTaps)
// and the initialized flag, as part of a state restore. The tap delay
// line is left at zero: it is reconstructible from the weights alone and
// is deliberately left out of persisted state.
func (f *LMS) RestoreWeights(weights []float32, initialized bool) {
	f.weights = append([]float32(nil), weights...)
	for i := range f.taps {
		f.taps[i] = 0
	}
	f.initialized = initialized
}

// Reset clears weights, tap history, and the initialized flag.
func (f *LMS) Reset() {
	for i := range f.weights {
		f.weights[i] = 0
	}
	for i := range f.taps {
		f.taps[i] = 0
	}
	f.initialized = false
}

// Step runs one adaptation cycle: shift x into the tap delay line,
// predict, compute the error against d, update the weight vector, and
// return the error.
func (f *LMS) Step(x, d float32) float32 {
	for i := f.numTaps - 1; i > 0; i-- {
		f.taps[i] = f.taps[i-1]
	}
	f.taps[0] = x

	var y float32
	for i := 0; i < f.numTaps; i++ {
		y += f.weights[i] * f.taps[i]
	}
	e := d - y

	var norm float32 = 1
	if f.normalized {
		var energy float32
		for i := 0; i < f.numTaps; i++ {
			energy += f.taps[i] * f.taps[i]
		}
		const epsilon = 1e-6
		norm = energy + epsilon
	}

	leak := 1 - f.lambda
	for i := 0; i < f.numTaps; i++ {
		f.weights[i] = leak*f.weights[i] + (f.mu*e*f.taps[i])/norm
	}
	f.initialized = true
	return e
}
