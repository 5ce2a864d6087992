package firdesign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_LowpassSincHamming_ReturnsMTaps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := rapid.IntRange(1, 8).Draw(t, "l")
		m := rapid.IntRange(1, 10).Draw(t, "m")*2 + 1 // force odd
		taps := LowpassSincHamming(l, m)
		assert.Len(t, taps, m)
	})
}

func Test_LowpassSincHamming_IsSymmetric(t *testing.T) {
	taps := LowpassSincHamming(4, 15)
	for i := range taps {
		assert.InDelta(t, taps[i], taps[len(taps)-1-i], 1e-5)
	}
}

func Test_LowpassSincHamming_TapsSumToApproximatelyL(t *testing.T) {
	const l = 4
	taps := LowpassSincHamming(l, 63)
	var sum float32
	for _, v := range taps {
		sum += v
	}
	assert.InDelta(t, l, sum, 0.1)
}
