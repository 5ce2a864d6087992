package melspectrogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dspstage/toon"
)

func identity(n int) []float32 {
	m := make([]float32, n*n)
	for i := 0; i < n; i++ {
		m[i*n+i] = 1
	}
	return m
}

// Test_IdentityFilterbank_IsPassthrough is the per-stage property from
// spec.md §8: num_mel_bands == num_bins with F = identity leaves each
// frame unchanged.
func Test_IdentityFilterbank_IsPassthrough(t *testing.T) {
	s, err := New(Config{NumBins: 3, NumMelBands: 3, Filterbank: identity(3)})
	assert.NoError(t, err)

	in := []float32{1, 2, 3, 4, 5, 6}
	out := make([]float32, s.CalculateOutputSize(len(in)))
	var written int
	assert.NoError(t, s.ProcessResizing(in, len(in), out, &written, 1, nil))
	assert.Equal(t, in, out[:written])
}

// Test_ZeroFilterbank_ProducesZeros is the per-stage property from
// spec.md §8: an all-zero filterbank produces all-zero output.
func Test_ZeroFilterbank_ProducesZeros(t *testing.T) {
	s, err := New(Config{NumBins: 4, NumMelBands: 2, Filterbank: make([]float32, 8)})
	assert.NoError(t, err)

	in := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	out := make([]float32, s.CalculateOutputSize(len(in)))
	var written int
	assert.NoError(t, s.ProcessResizing(in, len(in), out, &written, 1, nil))
	for _, v := range out[:written] {
		assert.Equal(t, float32(0), v)
	}
}

// Test_CalculateOutputSize is the per-stage property from spec.md §8:
// output length equals (in_len/C/num_bins)*num_mel_bands*C.
func Test_CalculateOutputSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numBins := rapid.IntRange(1, 8).Draw(t, "num_bins")
		numMelBands := rapid.IntRange(1, 8).Draw(t, "num_mel_bands")
		c := rapid.IntRange(1, 3).Draw(t, "c")
		frames := rapid.IntRange(0, 5).Draw(t, "frames")

		s, err := New(Config{NumBins: numBins, NumMelBands: numMelBands, Filterbank: make([]float32, numMelBands*numBins)})
		assert.NoError(t, err)

		inLen := frames * numBins * c
		in := make([]float32, inLen)
		out := make([]float32, s.CalculateOutputSize(inLen))
		var written int
		assert.NoError(t, s.ProcessResizing(in, inLen, out, &written, c, nil))
		assert.Equal(t, frames*numMelBands*c, written)
	})
}

func Test_New_RejectsFilterbankDimensionMismatch(t *testing.T) {
	_, err := New(Config{NumBins: 4, NumMelBands: 2, Filterbank: make([]float32, 5)})
	assert.Error(t, err)
}

func Test_Process_FailsOnResizingStage(t *testing.T) {
	s, err := New(Config{NumBins: 2, NumMelBands: 2, Filterbank: identity(2)})
	assert.NoError(t, err)
	assert.Error(t, s.Process(make([]float32, 4), 4, 1, nil))
}

func Test_ResetIsNoOp(t *testing.T) {
	s, err := New(Config{NumBins: 2, NumMelBands: 2, Filterbank: identity(2)})
	assert.NoError(t, err)

	wBefore := toon.NewWriter()
	s.SerializeTOON(wBefore)
	s.Reset()
	wAfter := toon.NewWriter()
	s.SerializeTOON(wAfter)
	assert.Equal(t, wBefore.Bytes(), wAfter.Bytes())
}

func Test_SerializeDeserializeRoundTrip(t *testing.T) {
	fb := []float32{1, 2, 3, 4, 5, 6}
	s, err := New(Config{NumBins: 3, NumMelBands: 2, Filterbank: fb})
	assert.NoError(t, err)

	w := toon.NewWriter()
	s.SerializeTOON(w)

	restored, err := New(Config{NumBins: 3, NumMelBands: 2, Filterbank: fb})
	assert.NoError(t, err)
	assert.NoError(t, restored.DeserializeTOON(toon.NewReader(w.Bytes())))
}

func Test_DeserializeRejectsNumBinsMismatch(t *testing.T) {
	s, err := New(Config{NumBins: 3, NumMelBands: 2, Filterbank: make([]float32, 6)})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{NumBins: 4, NumMelBands: 2, Filterbank: make([]float32, 8)})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}

func Test_DeserializeRejectsNumMelBandsMismatch(t *testing.T) {
	s, err := New(Config{NumBins: 3, NumMelBands: 2, Filterbank: make([]float32, 6)})
	assert.NoError(t, err)
	w := toon.NewWriter()
	s.SerializeTOON(w)

	other, err := New(Config{NumBins: 3, NumMelBands: 3, Filterbank: make([]float32, 9)})
	assert.NoError(t, err)
	assert.Error(t, other.DeserializeTOON(toon.NewReader(w.Bytes())))
}
