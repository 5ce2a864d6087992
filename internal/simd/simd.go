// Package simd provides the small set of numeric kernels the stage
// library treats as primitives with a stated contract rather than
// reimplementing inline: summation, sum-of-squares, and 2-channel
// interleave/deinterleave. A production build of the host runtime is
// expected to vectorize these; this module supplies straightforward,
// correct scalar implementations behind the same names so stage code
// never has to change if a SIMD build is swapped in.
package simd

// Sum returns the sum of x. Summation order is left-to-right; callers
// that need a specific order for numerical reproducibility should not
// assume associativity beyond that.
func Sum(x []float32) float32 {
	var total float32
	for _, v := range x {
		total += v
	}
	return total
}

// SumSquares returns the sum of the squares of x, fused into one pass.
func SumSquares(x []float32) float32 {
	var total float32
	for _, v := range x {
		total += v * v
	}
	return total
}

// Deinterleave2Ch splits a 2-channel interleaved buffer buf (length 2*n)
// into its two channels. ch0 and ch1 must each have length >= n.
func Deinterleave2Ch(buf []float32, n int, ch0, ch1 []float32) {
	for i := 0; i < n; i++ {
		ch0[i] = buf[2*i]
		ch1[i] = buf[2*i+1]
	}
}

// Interleave2Ch merges two single-channel buffers ch0, ch1 (length n)
// into a 2-channel interleaved buffer buf (length >= 2*n).
func Interleave2Ch(ch0, ch1 []float32, n int, buf []float32) {
	for i := 0; i < n; i++ {
		buf[2*i] = ch0[i]
		buf[2*i+1] = ch1[i]
	}
}
