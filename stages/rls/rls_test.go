package rls

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dspstage/toon"
)

func Test_New_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{NumTaps: 0, Lambda: 0.99, Delta: 1})
	assert.Error(t, err)
	_, err = New(Config{NumTaps: 1, Lambda: 1.5, Delta: 1})
	assert.Error(t, err)
	_, err = New(Config{NumTaps: 1, Lambda: 0.99, Delta: 0})
	assert.Error(t, err)
}

func Test_Process_RequiresTwoChannels(t *testing.T) {
	s, err := New(Config{NumTaps: 1, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)
	assert.Error(t, s.Process(make([]float32, 3), 3, 3, nil))
}

// Test_Convergence is the per-stage property from spec.md §8: same
// convergence property as LMS, with a tighter tolerance over fewer
// samples.
func Test_Convergence(t *testing.T) {
	const h = -0.4
	s, err := New(Config{NumTaps: 1, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	const n = 200
	buf := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		x := float32(rng.NormFloat64())
		buf[2*i] = x
		buf[2*i+1] = h * x
	}
	assert.NoError(t, s.Process(buf, len(buf), 2, nil))
	assert.InDelta(t, h, s.core.Weights()[0], 0.01)
}

func Test_ResetEqualsFresh(t *testing.T) {
	s, err := New(Config{NumTaps: 2, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)

	buf := []float32{1, 2, 3, 4}
	assert.NoError(t, s.Process(buf, len(buf), 2, nil))
	s.Reset()

	fresh, err := New(Config{NumTaps: 2, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)

	wUsed, wFresh := toon.NewWriter(), toon.NewWriter()
	s.SerializeTOON(wUsed)
	fresh.SerializeTOON(wFresh)
	assert.Equal(t, wFresh.Bytes(), wUsed.Bytes())
}

func Test_SerializeDeserializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numTaps := rapid.IntRange(1, 4).Draw(t, "num_taps")
		lambda := float32(rapid.Float64Range(0.9, 1).Draw(t, "lambda"))
		s, err := New(Config{NumTaps: numTaps, Lambda: lambda, Delta: 1})
		assert.NoError(t, err)

		n := rapid.IntRange(0, 10).Draw(t, "n")
		buf := make([]float32, 2*n)
		for i := range buf {
			buf[i] = float32(rapid.Float64Range(-5, 5).Draw(t, "v"))
		}
		assert.NoError(t, s.Process(buf, len(buf), 2, nil))

		w := toon.NewWriter()
		s.SerializeTOON(w)

		restored, err := New(Config{NumTaps: numTaps, Lambda: lambda, Delta: 1})
		assert.NoError(t, err)
		assert.NoError(t, restored.DeserializeTOON(toon.NewReader(w.Bytes())))
		assert.InDeltaSlice(t, s.core.Weights(), restored.core.Weights(), 1e-5)
		assert.InDeltaSlice(t, s.core.InverseCov(), restored.core.InverseCov(), 1e-5)
	})
}

func Test_DeserializeRejectsLambdaMismatch(t *testing.T) {
	s, err := New(Config{NumTaps: 1, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{NumTaps: 1, Lambda: 0.9, Delta: 1})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}

func Test_DeserializeRejectsDeltaMismatch(t *testing.T) {
	s, err := New(Config{NumTaps: 1, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{NumTaps: 1, Lambda: 0.99, Delta: 2})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}

func Test_DeserializeRejectsNumTapsMismatch(t *testing.T) {
	s, err := New(Config{NumTaps: 2, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{NumTaps: 3, Lambda: 0.99, Delta: 1})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}
