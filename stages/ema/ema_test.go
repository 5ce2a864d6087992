package ema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dspstage/mode"
	"github.com/doismellburning/dspstage/toon"
)

func Test_New_RejectsAlphaOutOfRange(t *testing.T) {
	_, err := New(Config{Mode: mode.Moving, Alpha: 0})
	assert.Error(t, err)
	_, err = New(Config{Mode: mode.Moving, Alpha: 1.5})
	assert.Error(t, err)
	_, err = New(Config{Mode: mode.Moving, Alpha: -0.1})
	assert.Error(t, err)
}

// Test_Moving_LiteralSequence is end-to-end scenario 2 from spec.md §8.
func Test_Moving_LiteralSequence(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving, Alpha: 0.5})
	assert.NoError(t, err)

	buf := []float32{10, 0, 0, 0}
	assert.NoError(t, s.Process(buf, len(buf), 1, nil))
	assert.InDeltaSlice(t, []float32{10, 5, 2.5, 1.25}, buf, 1e-5)
}

func Test_Moving_AlphaOneIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := New(Config{Mode: mode.Moving, Alpha: 1})
		assert.NoError(t, err)

		n := rapid.IntRange(1, 20).Draw(t, "n")
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = float32(rapid.Float64Range(-50, 50).Draw(t, "v"))
		}
		want := append([]float32(nil), buf...)
		assert.NoError(t, s.Process(buf, n, 1, nil))
		assert.InDeltaSlice(t, want, buf, 1e-5)
	})
}

func Test_Moving_AlphaNearZeroConvergesToFirstSample(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving, Alpha: 1e-6})
	assert.NoError(t, err)

	buf := []float32{7, 40, -20, 99, 3}
	assert.NoError(t, s.Process(buf, len(buf), 1, nil))
	for _, v := range buf {
		assert.InDelta(t, 7, v, 1e-2)
	}
}

func Test_ResetEqualsFresh(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving, Alpha: 0.3})
	assert.NoError(t, err)

	buf := []float32{1, 2, 3}
	assert.NoError(t, s.Process(buf, len(buf), 2, nil))
	s.Reset()

	fresh, err := New(Config{Mode: mode.Moving, Alpha: 0.3})
	assert.NoError(t, err)

	wUsed, wFresh := toon.NewWriter(), toon.NewWriter()
	s.SerializeTOON(wUsed)
	fresh.SerializeTOON(wFresh)
	assert.Equal(t, wFresh.Bytes(), wUsed.Bytes())
}

func Test_SerializeDeserializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		alpha := float32(rapid.Float64Range(0.01, 1).Draw(t, "alpha"))
		s, err := New(Config{Mode: mode.Moving, Alpha: alpha})
		assert.NoError(t, err)

		n := rapid.IntRange(0, 30).Draw(t, "n")
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = float32(rapid.Float64Range(-50, 50).Draw(t, "v"))
		}
		assert.NoError(t, s.Process(buf, n, 1, nil))

		w := toon.NewWriter()
		s.SerializeTOON(w)

		restored, err := New(Config{Mode: mode.Moving, Alpha: alpha})
		assert.NoError(t, err)
		assert.NoError(t, restored.DeserializeTOON(toon.NewReader(w.Bytes())))

		c1 := []float32{1, 2, 3}
		c2 := []float32{1, 2, 3}
		assert.NoError(t, s.Process(c1, len(c1), 1, nil))
		assert.NoError(t, restored.Process(c2, len(c2), 1, nil))
		assert.InDeltaSlice(t, c1, c2, 1e-4)
	})
}

func Test_DeserializeRejectsAlphaMismatch(t *testing.T) {
	s, err := New(Config{Mode: mode.Moving, Alpha: 0.4})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{Mode: mode.Moving, Alpha: 0.9})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}
