package rms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dspstage/mode"
	"github.com/doismellburning/dspstage/toon"
)

// Test_Moving_LiteralSequence is end-to-end scenario 3 from spec.md §8.
func Test_Moving_LiteralSequence(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving, WindowSize: 2})
	assert.NoError(t, err)

	buf := []float32{3, 4, 0, 0}
	assert.NoError(t, s.Process(buf, len(buf), 1, nil))
	assert.InDeltaSlice(t, []float32{3, float32(math.Sqrt(25.0 / 2)), float32(math.Sqrt(8)), 0}, buf, 1e-5)
}

// Test_Moving_DCInputConvergesToMagnitude is the per-stage property from
// spec.md §8: RMS Moving on DC input c with a filled window equals |c|.
func Test_Moving_DCInputConvergesToMagnitude(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := float32(rapid.Float64Range(-50, 50).Draw(t, "c"))
		windowSize := rapid.IntRange(1, 10).Draw(t, "window_size")

		s, err := New(Config{Mode: mode.Moving, WindowSize: windowSize})
		assert.NoError(t, err)

		buf := make([]float32, windowSize*2)
		for i := range buf {
			buf[i] = c
		}
		assert.NoError(t, s.Process(buf, len(buf), 1, nil))
		assert.InDelta(t, math.Abs(float64(c)), float64(buf[len(buf)-1]), 1e-4)
	})
}

func Test_Batch_SingleChannelFastPath(t *testing.T) {
	s, err := New(Config{Mode: mode.Batch})
	assert.NoError(t, err)

	buf := []float32{3, 4, 0, 0}
	assert.NoError(t, s.Process(buf, len(buf), 1, nil))
	want := float32(math.Sqrt((9.0 + 16.0) / 4.0))
	for _, v := range buf {
		assert.InDelta(t, want, v, 1e-5)
	}
}

func Test_ResetEqualsFresh(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving, WindowSize: 3})
	assert.NoError(t, err)

	buf := []float32{1, -2, 3, -4}
	assert.NoError(t, s.Process(buf, len(buf), 1, nil))
	s.Reset()

	fresh, err := New(Config{Mode: mode.Moving, WindowSize: 3})
	assert.NoError(t, err)

	wUsed, wFresh := toon.NewWriter(), toon.NewWriter()
	s.SerializeTOON(wUsed)
	fresh.SerializeTOON(wFresh)
	assert.Equal(t, wFresh.Bytes(), wUsed.Bytes())
}

func Test_SerializeDeserializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		windowSize := rapid.IntRange(1, 10).Draw(t, "window_size")
		s, err := New(Config{Mode: mode.Moving, WindowSize: windowSize})
		assert.NoError(t, err)

		n := rapid.IntRange(0, 30).Draw(t, "n")
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = float32(rapid.Float64Range(-50, 50).Draw(t, "v"))
		}
		assert.NoError(t, s.Process(buf, n, 1, nil))

		w := toon.NewWriter()
		s.SerializeTOON(w)

		restored, err := New(Config{Mode: mode.Moving, WindowSize: windowSize})
		assert.NoError(t, err)
		assert.NoError(t, restored.DeserializeTOON(toon.NewReader(w.Bytes())))

		c1 := []float32{1, -2, 3}
		c2 := []float32{1, -2, 3}
		assert.NoError(t, s.Process(c1, len(c1), 1, nil))
		assert.NoError(t, restored.Process(c2, len(c2), 1, nil))
		assert.InDeltaSlice(t, c1, c2, 1e-4)
	})
}

func Test_DeserializeRejectsWindowSizeMismatch(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving, WindowSize: 4})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{Mode: mode.Moving, WindowSize: 5})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}
