// Package pipeline implements a minimal straight-line driver: a list of
// stages run in sequence over one buffer. It exists to exercise the
// stage.Stage contract end to end for the demo CLI and integration
// tests; it is not a topology/scheduling runtime (no threading, no
// stage graph, no backpressure); that system is out of scope.
package pipeline

import (
	"fmt"

	"github.com/doismellburning/dspstage/stage"
)

// Pipeline runs an ordered list of stages over one interleaved buffer.
type Pipeline struct {
	stages []stage.Stage
}

// New returns a Pipeline that runs stages in the given order.
func New(stages []stage.Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run passes buf through every stage in order, growing or shrinking it
// at resizing stages, and returns the final buffer and timestamp
// vector. c is the channel count; ts may be nil.
func (p *Pipeline) Run(buf []float32, c int, ts []float64) ([]float32, []float64, error) {
	current := buf
	n := len(buf)
	currentTs := ts

	for _, s := range p.stages {
		if !s.IsResizing() {
			if err := s.Process(current[:n], n, c, currentTs); err != nil {
				return nil, nil, fmt.Errorf("pipeline: stage %q: %w", s.TypeTag(), err)
			}
			continue
		}

		outLen := s.CalculateOutputSize(n)
		out := make([]float32, outLen)
		var written int
		if err := s.ProcessResizing(current[:n], n, out, &written, c, currentTs); err != nil {
			return nil, nil, fmt.Errorf("pipeline: stage %q: %w", s.TypeTag(), err)
		}
		current = out
		n = written
		currentTs = rescaleTimestamps(currentTs, s.TimeScaleFactor(), n/c)
	}

	return current[:n], currentTs, nil
}

// Reset returns every stage to its post-construction condition.
func (p *Pipeline) Reset() {
	for _, s := range p.stages {
		s.Reset()
	}
}

// rescaleTimestamps approximates the new timestamp vector after a
// resizing stage changes the sample count: it keeps the original start
// time and stretches the per-sample step by factor, regenerating
// newLen evenly spaced entries. This is a driver-level convenience, not
// part of the stage contract, which only specifies time_scale_factor.
func rescaleTimestamps(ts []float64, factor float64, newLen int) []float64 {
	if ts == nil || newLen == 0 {
		return nil
	}
	step := 0.0
	if len(ts) > 1 {
		step = (ts[len(ts)-1] - ts[0]) / float64(len(ts)-1)
	}
	step *= factor
	out := make([]float64, newLen)
	for i := range out {
		out[i] = ts[0] + float64(i)*step
	}
	return out
}
