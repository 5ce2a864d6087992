package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Base_DefaultsAreIdentity(t *testing.T) {
	var b Base
	assert.False(t, b.IsResizing())
	assert.Equal(t, 1.0, b.TimeScaleFactor())
	assert.Equal(t, 7, b.CalculateOutputSize(7))
}

func Test_DefaultProcessResizing_CopiesAndProcesses(t *testing.T) {
	s := fakeStage{}
	in := []float32{1, 2, 3}
	out := make([]float32, 3)
	var outLen int
	err := DefaultProcessResizing(s, in, len(in), out, &outLen, 1, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, outLen)
	assert.Equal(t, in, out)
}

func Test_ErrProcessOnResizingStage_NamesStage(t *testing.T) {
	err := ErrProcessOnResizingStage("melSpectrogram")
	assert.ErrorContains(t, err, "melSpectrogram")
	assert.ErrorContains(t, err, "ProcessResizing")
}
