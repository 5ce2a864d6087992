// Package peakcore implements the shared windowed-maximum peak test used
// by the Peak Detection stage's batch mode, in both its time-domain and
// frequency-domain variants, which share an identical scan structure and
// differ only in how strictly the window endpoints compare.
package peakcore

// BatchDetect scans x for peaks using a centered window of size
// windowSize (odd). A position is a confirmed peak when it is the
// (strict, or for frequencyDomain non-strict at the two window
// endpoints) maximum of its window, is >= threshold, and lies at least
// minPeakDistance positions after the previous confirmed peak. Boundary
// positions that can't be fully windowed are left at 0. The returned
// slice has the same length as x, with 1.0 at confirmed peaks and 0.0
// elsewhere.
func BatchDetect(x []float32, windowSize, minPeakDistance int, threshold float32, frequencyDomain bool) []float32 {
	out := make([]float32, len(x))
	half := windowSize / 2
	lastPeak := -minPeakDistance

	for i := half; i < len(x)-half; i++ {
		center := x[i]
		if center < threshold {
			continue
		}
		isPeak := true
		for k := -half; k <= half; k++ {
			if k == 0 {
				continue
			}
			neighbor := x[i+k]
			if frequencyDomain && (k == -half || k == half) {
				if neighbor > center {
					isPeak = false
					break
				}
			} else if neighbor >= center {
				isPeak = false
				break
			}
		}
		if isPeak && i-lastPeak >= minPeakDistance {
			out[i] = 1.0
			lastPeak = i
		}
	}
	return out
}
