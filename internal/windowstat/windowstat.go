// Package windowstat implements the shared circular-window running-
// statistic primitive behind the MAV and RMS stages: a per-channel ring
// buffer paired with a running accumulator that is kept incrementally
// correct as samples enter and (once the window is full) leave the
// window. MAV and RMS differ only in what each
// sample contributes to the accumulator and how the accumulator is
// turned into an emitted value; that difference is captured by the Stat
// interface so the eviction/accumulation bookkeeping is written once.
package windowstat

import (
	"fmt"
	"math"

	"github.com/doismellburning/dspstage/internal/ring"
)

// Stat is the per-stage policy a Channel drives: how one sample
// contributes to the running accumulator, and how the accumulator
// becomes the emitted value.
type Stat interface {
	Contribute(x float32) float32
	Emit(accumulator float32, occupancy int) float32
}

// Channel pairs a fixed-capacity ring buffer with the running
// accumulator derived from its contents.
type Channel struct {
	Ring *ring.Buffer
	Sum  float32
}

// NewChannel returns an empty Channel with the given window capacity.
func NewChannel(capacity int) *Channel {
	return &Channel{Ring: ring.New(capacity)}
}

// Push admits x, evicting the oldest sample if the window was already
// full, and returns the newly emitted value.
func (c *Channel) Push(x float32, stat Stat) float32 {
	evicted, wasEvicted := c.Ring.Push(x)
	if wasEvicted {
		c.Sum -= stat.Contribute(evicted)
	}
	c.Sum += stat.Contribute(x)
	return stat.Emit(c.Sum, c.Ring.Len())
}

// Recompute recomputes the accumulator from scratch over the window's
// current contents, for restore-time cross-field validation.
func (c *Channel) Recompute(stat Stat) float32 {
	var total float32
	n := c.Ring.Len()
	for i := 0; i < n; i++ {
		total += stat.Contribute(c.Ring.At(i))
	}
	return total
}

// EstimateWindowSize implements the MAV/RMS duration-mode lazy bind:
// estimate the sample period from the first <=10 timestamps, then set
// window_size = max(1, ceil(duration_s*rate)*3).
func EstimateWindowSize(ts []float64, durationMs float64) (int, error) {
	if len(ts) < 2 {
		return 0, fmt.Errorf("windowstat: need at least 2 timestamps to estimate sample rate")
	}
	n := len(ts)
	if n > 10 {
		n = 10
	}
	span := ts[n-1] - ts[0]
	if span <= 0 {
		return 0, fmt.Errorf("windowstat: non-increasing timestamps, cannot estimate sample rate")
	}
	rate := float64(n-1) / span * 1000
	durationS := durationMs / 1000
	windowSize := int(math.Ceil(durationS*rate)) * 3
	if windowSize < 1 {
		windowSize = 1
	}
	return windowSize, nil
}
