package adaptive

// RLS is a recursive-least-squares adaptive FIR filter: O(N^2) state (an
// N x N inverse covariance matrix) for faster convergence than LMS.
type RLS struct {
	numTaps     int
	lambda      float32
	delta       float32
	initialized bool
	weights     []float32
	p           [][]float32 // inverse covariance, N x N
	taps        []float32   // tap delay line; part of persisted state.
}

// NewRLS constructs an RLS filter with numTaps coefficients, inverse
// covariance delta*I, and zero weights/tap history.
func NewRLS(numTaps int, lambda, delta float32) *RLS {
	p := make([][]float32, numTaps)
	for i := range p {
		p[i] = make([]float32, numTaps)
		p[i][i] = delta
	}
	return &RLS{
		numTaps: numTaps,
		lambda:  lambda,
		delta:   delta,
		weights: make([]float32, numTaps),
		p:       p,
		taps:    make([]float32, numTaps),
	}
}

// NumTaps returns the configured tap count.
func (f *RLS) NumTaps() int { return f.numTaps }

// Initialized reports whether Step has ever run.
func (f *RLS) Initialized() bool { return f.initialized }

// Weights returns a copy of the current weight vector.
func (f *RLS) Weights() []float32 { return append([]float32(nil), f.weights...) }

// InverseCov returns the inverse covariance matrix flattened row-major.
func (f *RLS) InverseCov() []float32 {
	out := make([]float32, 0, f.numTaps*f.numTaps)
	for i := 0; i < f.numTaps; i++ {
		out = append(out, f.p[i]...)
	}
	return out
}

// Taps returns a copy of the current tap delay line.
func (f *RLS) Taps() []float32 { return append([]float32(nil), f.taps...) }

// Restore replaces weights, inverse covariance (row-major, length
// numTaps*numTaps), tap delay line, and the initialized flag as part of a
// state restore. Callers must validate lengths before calling.
func (f *RLS) Restore(weights []float32, invCovFlat []float32, taps []float32, initialized bool) {
	f.weights = append([]float32(nil), weights...)
	f.taps = append([]float32(nil), taps...)
	f.p = make([][]float32, f.numTaps)
	for i := 0; i < f.numTaps; i++ {
		f.p[i] = append([]float32(nil), invCovFlat[i*f.numTaps:(i+1)*f.numTaps]...)
	}
	f.initialized = initialized
}

// Reset returns the filter to its post-construction state: zero weights
// and tap history, inverse covariance back to delta*I.
func (f *RLS) Reset() {
	for i := range f.weights {
		f.weights[i] = 0
	}
	for i := range f.taps {
		f.taps[i] = 0
	}
	for i := 0; i < f.numTaps; i++ {
		for j := 0; j < f.numTaps; j++ {
			if i == j {
				f.p[i][j] = f.delta
			} else {
				f.p[i][j] = 0
			}
		}
	}
	f.initialized = false
}

// Step runs one RLS adaptation cycle and returns the error e = d - w.u.
func (f *RLS) Step(x, d float32) float32 {
	n := f.numTaps
	for i := n - 1; i > 0; i-- {
		f.taps[i] = f.taps[i-1]
	}
	f.taps[0] = x
	u := f.taps

	var y float32
	for i := 0; i < n; i++ {
		y += f.weights[i] * u[i]
	}
	e := d - y

	pu := make([]float32, n)
	for i := 0; i < n; i++ {
		var s float32
		for j := 0; j < n; j++ {
			s += f.p[i][j] * u[j]
		}
		pu[i] = s
	}

	denom := f.lambda
	for i := 0; i < n; i++ {
		denom += u[i] * pu[i]
	}

	k := make([]float32, n)
	for i := 0; i < n; i++ {
		k[i] = pu[i] / denom
	}

	for i := 0; i < n; i++ {
		f.weights[i] += k[i] * e
	}

	utp := make([]float32, n)
	for j := 0; j < n; j++ {
		var s float32
		for i := 0; i < n; i++ {
			s += u[i] * f.p[i][j]
		}
		utp[j] = s
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			f.p[i][j] = (f.p[i][j] - k[i]*utp[j]) / f.lambda
		}
	}

	f.initialized = true
	return e
}
