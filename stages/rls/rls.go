// Package rls implements the 2-channel RLS adaptive filter stage: the
// same interface shape as LMS, trading LMS's O(N) state for an O(N^2)
// inverse-covariance update that converges faster.
package rls

import (
	"math"

	"github.com/doismellburning/dspstage/internal/adaptive"
	"github.com/doismellburning/dspstage/internal/scratch"
	"github.com/doismellburning/dspstage/internal/simd"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "rlsFilter"

const fixedChannelCount = 2
const configTolerance = 1e-6

// Config holds the stage's immutable construction parameters.
type Config struct {
	NumTaps int
	Lambda  float32
	Delta   float32
}

// Stage is the RLS adaptive filter processing stage.
type Stage struct {
	stage.Base
	cfg     Config
	core    *adaptive.RLS
	primary scratch.Buffer
	desired scratch.Buffer
	errBuf  scratch.Buffer
}

// New constructs an RLS Stage, validating the configuration.
func New(cfg Config) (*Stage, error) {
	if cfg.NumTaps < 1 {
		return nil, stage.NewConfigError(TypeTag, "num_taps must be >= 1")
	}
	if !(cfg.Lambda > 0 && cfg.Lambda <= 1) {
		return nil, stage.NewConfigError(TypeTag, "lambda must be in (0,1]")
	}
	if cfg.Delta <= 0 {
		return nil, stage.NewConfigError(TypeTag, "delta must be positive")
	}
	return &Stage{
		cfg:  cfg,
		core: adaptive.NewRLS(cfg.NumTaps, cfg.Lambda, cfg.Delta),
	}, nil
}

// TypeTag returns "rlsFilter".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		numTaps, _ := raw.Int("num_taps")
		lambda, _ := raw.Float32("lambda")
		delta, _ := raw.Float32("delta")
		return New(Config{NumTaps: numTaps, Lambda: lambda, Delta: delta})
	})
}

// Process implements stage.Stage. Channel 0 is the primary signal,
// channel 1 the desired signal; both output channels carry the error.
func (s *Stage) Process(buf []float32, n int, c int, ts []float64) error {
	if c != fixedChannelCount {
		return stage.NewContractError(TypeTag, "RLS requires exactly 2 channels")
	}
	samplesPerChannel := n / c

	primary := s.primary.Resize(samplesPerChannel)
	desired := s.desired.Resize(samplesPerChannel)
	errOut := s.errBuf.Resize(samplesPerChannel)

	simd.Deinterleave2Ch(buf[:n], samplesPerChannel, primary, desired)
	for i := 0; i < samplesPerChannel; i++ {
		errOut[i] = s.core.Step(primary[i], desired[i])
	}
	simd.Interleave2Ch(errOut, errOut, samplesPerChannel, buf[:n])
	return nil
}

// ProcessResizing implements stage.Stage via the default non-resizing
// behavior.
func (s *Stage) ProcessResizing(in []float32, inLen int, out []float32, outLen *int, c int, ts []float64) error {
	return stage.DefaultProcessResizing(s, in, inLen, out, outLen, c, ts)
}

// Reset clears the filter's weights, inverse covariance, and tap line.
func (s *Stage) Reset() { s.core.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteInt32(int32(s.cfg.NumTaps))
	w.WriteFloat32(s.cfg.Lambda)
	w.WriteFloat32(s.cfg.Delta)
	w.WriteBool(s.core.Initialized())
	w.WriteFloatArray(s.core.Weights())
	w.WriteFloatArray(s.core.InverseCov())
	w.WriteFloatArray(s.core.Taps())
}

func (s *Stage) deserialize(r statecodec.Reader) error {
	numTaps, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(numTaps) != s.cfg.NumTaps {
		return stage.NewStateError(TypeTag, "num_taps mismatch")
	}
	lambda, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	if math.Abs(float64(lambda-s.cfg.Lambda)) > configTolerance {
		return stage.NewStateError(TypeTag, "lambda mismatch")
	}
	delta, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	if math.Abs(float64(delta-s.cfg.Delta)) > configTolerance {
		return stage.NewStateError(TypeTag, "delta mismatch")
	}
	initialized, err := r.ReadBool()
	if err != nil {
		return err
	}
	weights, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	if len(weights) != s.cfg.NumTaps {
		return stage.NewStateError(TypeTag, "weights length mismatch")
	}
	invCov, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	if len(invCov) != s.cfg.NumTaps*s.cfg.NumTaps {
		return stage.NewStateError(TypeTag, "inverse covariance dimension mismatch")
	}
	taps, err := r.ReadFloatArray()
	if err != nil {
		return err
	}
	if len(taps) != s.cfg.NumTaps {
		return stage.NewStateError(TypeTag, "tap line length mismatch")
	}

	s.core.Restore(weights, invCov, taps, initialized)
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
