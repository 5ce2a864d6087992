// Package linreg implements the policy-parameterized streaming linear
// regression stage: a circular window of the most recent samples, fit
// by ordinary least squares on every incoming sample, emitting one of
// four derived quantities selected at construction. The
// policy is compiled into the stage instance rather than switched per
// call; the instance's type tag is the policy's name.
package linreg

import (
	"fmt"
	"math"

	"github.com/doismellburning/dspstage/internal/chanstate"
	"github.com/doismellburning/dspstage/internal/ring"
	"github.com/doismellburning/dspstage/internal/simd"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// Policy selects which derived quantity a linreg Stage emits.
type Policy int

const (
	PolicySlope Policy = iota
	PolicyIntercept
	PolicyResiduals
	PolicyPredictions
)

// String returns the policy's type tag.
func (p Policy) String() string {
	switch p {
	case PolicySlope:
		return "slope"
	case PolicyIntercept:
		return "intercept"
	case PolicyResiduals:
		return "residuals"
	case PolicyPredictions:
		return "predictions"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy's type tag.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "slope":
		return PolicySlope, nil
	case "intercept":
		return PolicyIntercept, nil
	case "residuals":
		return PolicyResiduals, nil
	case "predictions":
		return PolicyPredictions, nil
	default:
		return 0, fmt.Errorf("linreg: unrecognized policy %q", s)
	}
}

// Config holds the stage's immutable construction parameters.
type Config struct {
	WindowSize int
	Policy     Policy
}

// Stage is the streaming linear regression processing stage.
type Stage struct {
	stage.Base
	cfg      Config
	channels *chanstate.Set[ring.Buffer]
}

// New constructs a linreg Stage, validating window_size >= 2 and that
// the policy is recognized.
func New(cfg Config) (*Stage, error) {
	if cfg.WindowSize < 2 {
		return nil, stage.NewConfigError(cfg.Policy.String(), "window_size must be >= 2")
	}
	switch cfg.Policy {
	case PolicySlope, PolicyIntercept, PolicyResiduals, PolicyPredictions:
	default:
		return nil, stage.NewConfigError("linreg", "unrecognized policy")
	}
	return &Stage{
		cfg: cfg,
		channels: chanstate.New(func() ring.Buffer {
			return *ring.New(cfg.WindowSize)
		}),
	}, nil
}

// TypeTag returns the configured policy's name.
func (s *Stage) TypeTag() string { return s.cfg.Policy.String() }

// init registers one factory per policy, since a linreg Stage's type tag
// is the policy name rather than a fixed "linreg" string.
func init() {
	for _, policy := range []Policy{PolicySlope, PolicyIntercept, PolicyResiduals, PolicyPredictions} {
		policy := policy
		stage.Register(policy.String(), func(raw stage.Raw) (stage.Stage, error) {
			windowSize, _ := raw.Int("window_size")
			return New(Config{WindowSize: windowSize, Policy: policy})
		})
	}
}

// Process implements stage.Stage.
func (s *Stage) Process(buf []float32, n int, c int, ts []float64) error {
	if c <= 0 {
		return stage.NewContractError(s.TypeTag(), "channel count must be positive")
	}
	samplesPerChannel := n / c
	s.channels.Ensure(c)

	for ch := 0; ch < c; ch++ {
		window := s.channels.At(ch)
		for k := 0; k < samplesPerChannel; k++ {
			idx := k*c + ch
			window.Push(buf[idx])
			count := window.Len()
			if count < 2 {
				buf[idx] = 0
				continue
			}

			contents := window.Contents()
			meanX := float64(count-1) / 2
			sumY := simd.Sum(contents)
			meanY := float64(sumY) / float64(count)

			var sumXY, sumXX float64
			for i, v := range contents {
				dx := float64(i) - meanX
				dy := float64(v) - meanY
				sumXY += dx * dy
				sumXX += dx * dx
			}

			var slope float64
			if math.Abs(sumXX) >= 1e-10 {
				slope = sumXY / sumXX
			}
			intercept := meanY - slope*meanX

			xNow := float64(count - 1)
			yNow := float64(contents[count-1])

			var out float64
			switch s.cfg.Policy {
			case PolicySlope:
				out = slope
			case PolicyIntercept:
				out = intercept
			case PolicyResiduals:
				out = yNow - (slope*xNow + intercept)
			case PolicyPredictions:
				out = slope*xNow + intercept
			}
			buf[idx] = float32(out)
		}
	}
	return nil
}

// ProcessResizing implements stage.Stage via the default non-resizing
// behavior.
func (s *Stage) ProcessResizing(in []float32, inLen int, out []float32, outLen *int, c int, ts []float64) error {
	return stage.DefaultProcessResizing(s, in, inLen, out, outLen, c, ts)
}

// Reset clears all per-channel windows.
func (s *Stage) Reset() { s.channels.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteInt32(int32(s.cfg.WindowSize))
	w.WriteString(s.cfg.Policy.String())
	numChannels := int32(0)
	if s.channels.Bound() {
		numChannels = int32(s.channels.Len())
	}
	w.WriteInt32(numChannels)
	for i := 0; i < int(numChannels); i++ {
		w.WriteFloatArray(s.channels.At(i).Contents())
	}
}

func (s *Stage) deserialize(r statecodec.Reader) error {
	windowSize, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(windowSize) != s.cfg.WindowSize {
		return stage.NewStateError(s.TypeTag(), "window_size mismatch")
	}
	policyStr, err := r.ReadString()
	if err != nil {
		return err
	}
	restoredPolicy, err := ParsePolicy(policyStr)
	if err != nil {
		return stage.NewStateError(s.TypeTag(), err.Error())
	}
	if restoredPolicy != s.cfg.Policy {
		return stage.NewStateError(s.TypeTag(), "policy mismatch")
	}
	numChannels, err := r.ReadInt32()
	if err != nil {
		return err
	}

	channels := make([]ring.Buffer, 0, numChannels)
	for i := int32(0); i < numChannels; i++ {
		contents, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		buf, err := ring.RestoreFromContents(s.cfg.WindowSize, contents)
		if err != nil {
			return stage.NewStateError(s.TypeTag(), err.Error())
		}
		channels = append(channels, *buf)
	}

	if numChannels == 0 {
		s.channels.Reset()
		return nil
	}
	s.channels.RestoreChannels(channels)
	return nil
}

// SerializeTOON implements stage.Stage.
func (s *Stage) SerializeTOON(w statecodec.Writer) { s.serialize(w) }

// DeserializeTOON implements stage.Stage.
func (s *Stage) DeserializeTOON(r statecodec.Reader) error { return s.deserialize(r) }

// SerializeHost implements stage.Stage.
func (s *Stage) SerializeHost(w statecodec.Writer) { s.serialize(w) }

// DeserializeHost implements stage.Stage.
func (s *Stage) DeserializeHost(r statecodec.Reader) error { return s.deserialize(r) }
