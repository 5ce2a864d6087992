package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dspstage/toon"
)

func Test_Process_FailsOnResizingStage(t *testing.T) {
	s, err := New(Config{L: 2, M: 3, FsIn: 1000})
	assert.NoError(t, err)
	assert.Error(t, s.Process(make([]float32, 4), 4, 1, nil))
}

// Test_CalculateOutputSize is the per-stage property from spec.md §8:
// calculate_output_size(n*C) = n*L*C.
func Test_CalculateOutputSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := rapid.IntRange(2, 8).Draw(t, "l")
		nc := rapid.IntRange(0, 200).Draw(t, "nc")

		s, err := New(Config{L: l, M: 5, FsIn: 8000})
		assert.NoError(t, err)
		assert.Equal(t, nc*l, s.CalculateOutputSize(nc))
	})
}

// Test_DCInput_ConvergesToUnityGain is the per-stage property from
// spec.md §8: a DC input run long enough to fill the delay ring
// converges to c.
func Test_DCInput_ConvergesToUnityGain(t *testing.T) {
	s, err := New(Config{L: 4, M: 31, FsIn: 8000})
	assert.NoError(t, err)

	const c = 5.0
	in := make([]float32, 64)
	for i := range in {
		in[i] = c
	}
	out := make([]float32, s.CalculateOutputSize(len(in)))
	var written int
	assert.NoError(t, s.ProcessResizing(in, len(in), out, &written, 1, nil))

	for _, v := range out[written-8:] {
		assert.InDelta(t, c, v, 0.1)
	}
}

func Test_ResetReturnsRingToZero(t *testing.T) {
	s, err := New(Config{L: 2, M: 5, FsIn: 8000})
	assert.NoError(t, err)

	in := []float32{1, 2, 3, 4}
	out := make([]float32, s.CalculateOutputSize(len(in)))
	var written int
	assert.NoError(t, s.ProcessResizing(in, len(in), out, &written, 1, nil))
	s.Reset()

	fresh, err := New(Config{L: 2, M: 5, FsIn: 8000})
	assert.NoError(t, err)

	wUsed, wFresh := toon.NewWriter(), toon.NewWriter()
	s.SerializeTOON(wUsed)
	fresh.SerializeTOON(wFresh)
	assert.Equal(t, wFresh.Bytes(), wUsed.Bytes())
}

func Test_SerializeDeserializeRoundTrip(t *testing.T) {
	s, err := New(Config{L: 3, M: 7, FsIn: 8000})
	assert.NoError(t, err)

	in := []float32{1, -2, 3, -4, 5}
	out := make([]float32, s.CalculateOutputSize(len(in)))
	var written int
	assert.NoError(t, s.ProcessResizing(in, len(in), out, &written, 1, nil))

	w := toon.NewWriter()
	s.SerializeTOON(w)

	restored, err := New(Config{L: 3, M: 7, FsIn: 8000})
	assert.NoError(t, err)
	assert.NoError(t, restored.DeserializeTOON(toon.NewReader(w.Bytes())))

	in2 := []float32{6, 7}
	out1 := make([]float32, s.CalculateOutputSize(len(in2)))
	out2 := make([]float32, restored.CalculateOutputSize(len(in2)))
	var w1, w2 int
	assert.NoError(t, s.ProcessResizing(in2, len(in2), out1, &w1, 1, nil))
	assert.NoError(t, restored.ProcessResizing(in2, len(in2), out2, &w2, 1, nil))
	assert.InDeltaSlice(t, out1[:w1], out2[:w2], 1e-4)
}

func Test_DeserializeRejectsMMismatch(t *testing.T) {
	s, err := New(Config{L: 2, M: 5, FsIn: 8000})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{L: 2, M: 7, FsIn: 8000})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}
