// Package firdesign computes windowed-sinc FIR filter taps. Grounded on
// the teacher's src/dsp.go (gen_lowpass, window): the same "evaluate a
// sinc kernel, shape it with a window function, handle the center-tap
// singularity as a special case" structure, generalized from the
// teacher's choice of window families to the single Hamming-windowed,
// DC-gain-corrected design the Interpolator stage requires.
package firdesign

import "math"

// LowpassSincHamming designs an L-fold interpolation lowpass filter of M
// taps (M odd): a windowed-sinc kernel with cutoff fc = 1/(2L), Hamming-
// windowed, with every tap scaled by L to correct DC gain for the
// zero-stuffed upsampled signal the filter will run over.
//
//	h[n] = sinc(2*fc*(n - M/2)) * (0.54 - 0.46*cos(2*pi*n/(M-1))) * L
//
// where sinc(x) here is sin(2*pi*fc*delta)/(pi*delta) for delta != 0 and
// the limit value 2*fc at delta == 0 (delta = n - M/2), matching the
// teacher's gen_lowpass center-tap handling.
func LowpassSincHamming(L, M int) []float32 {
	fc := 1.0 / (2.0 * float64(L))
	center := M / 2 // M is odd, so M/2 == (M-1)/2.
	taps := make([]float32, M)
	for n := 0; n < M; n++ {
		delta := float64(n - center)
		var s float64
		if delta == 0 {
			s = 2 * fc
		} else {
			s = math.Sin(2*math.Pi*fc*delta) / (math.Pi * delta)
		}
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(M-1))
		taps[n] = float32(s * w * float64(L))
	}
	return taps
}
