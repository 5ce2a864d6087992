package cma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dspstage/mode"
	"github.com/doismellburning/dspstage/toon"
)

// Test_Moving_LiteralSequence is end-to-end scenario 1 from spec.md §8.
func Test_Moving_LiteralSequence(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving})
	assert.NoError(t, err)

	buf := []float32{2, 4, 4, 4, 4}
	assert.NoError(t, s.Process(buf, len(buf), 1, nil))
	assert.InDeltaSlice(t, []float32{2, 3, 10.0 / 3, 3.5, 3.6}, buf, 1e-5)
}

func Test_Moving_ConstantInputEqualsConstantFromFirstSample(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := float32(rapid.Float64Range(-100, 100).Draw(t, "c"))
		n := rapid.IntRange(1, 20).Draw(t, "n")

		s, err := New(Config{Mode: mode.Moving})
		assert.NoError(t, err)

		buf := make([]float32, n)
		for i := range buf {
			buf[i] = c
		}
		assert.NoError(t, s.Process(buf, n, 1, nil))
		for _, v := range buf {
			assert.InDelta(t, c, v, 1e-3)
		}
	})
}

func Test_Batch_RecomputesFromStart(t *testing.T) {
	s, err := New(Config{Mode: mode.Batch})
	assert.NoError(t, err)

	first := []float32{2, 4, 4, 4, 4}
	assert.NoError(t, s.Process(first, len(first), 1, nil))
	assert.InDeltaSlice(t, []float32{2, 3, 10.0 / 3, 3.5, 3.6}, first, 1e-5)

	second := []float32{2, 4, 4, 4, 4}
	assert.NoError(t, s.Process(second, len(second), 1, nil))
	assert.InDeltaSlice(t, first, second, 1e-5)
}

func Test_ResetEqualsFresh(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving})
	assert.NoError(t, err)

	buf := []float32{1, 2, 3}
	assert.NoError(t, s.Process(buf, len(buf), 1, nil))
	s.Reset()

	fresh, err := New(Config{Mode: mode.Moving})
	assert.NoError(t, err)

	wUsed, wFresh := toon.NewWriter(), toon.NewWriter()
	s.SerializeTOON(wUsed)
	fresh.SerializeTOON(wFresh)
	assert.Equal(t, wFresh.Bytes(), wUsed.Bytes())
}

func Test_SerializeDeserializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := New(Config{Mode: mode.Moving})
		assert.NoError(t, err)

		n := rapid.IntRange(0, 30).Draw(t, "n")
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = float32(rapid.Float64Range(-50, 50).Draw(t, "v"))
		}
		assert.NoError(t, s.Process(buf, n, 1, nil))

		w := toon.NewWriter()
		s.SerializeTOON(w)

		restored, err := New(Config{Mode: mode.Moving})
		assert.NoError(t, err)
		assert.NoError(t, restored.DeserializeTOON(toon.NewReader(w.Bytes())))

		continuation1 := []float32{1, 2, 3}
		continuation2 := []float32{1, 2, 3}
		assert.NoError(t, s.Process(continuation1, len(continuation1), 1, nil))
		assert.NoError(t, restored.Process(continuation2, len(continuation2), 1, nil))
		assert.InDeltaSlice(t, continuation1, continuation2, 1e-4)
	})
}

func Test_DeserializeRejectsModeMismatch(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{Mode: mode.Batch})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}
