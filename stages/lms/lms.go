// Package lms implements the 2-channel LMS adaptive filter stage:
// channel 0 is the primary input, channel 1 the desired signal, and
// both output channels carry the adaptation error.
package lms

import (
	"math"

	"github.com/doismellburning/dspstage/internal/adaptive"
	"github.com/doismellburning/dspstage/internal/scratch"
	"github.com/doismellburning/dspstage/internal/simd"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "lmsFilter"

const fixedChannelCount = 2
const configTolerance = 1e-6

// Config holds the stage's immutable construction parameters.
type Config struct {
	NumTaps      int
	LearningRate float32
	Normalized   bool
	Lambda       float32
}

// Stage is the LMS adaptive filter processing stage.
type Stage struct {
	stage.Base
	cfg     Config
	core    *adaptive.LMS
	primary scratch.Buffer
	desired scratch.Buffer
	errBuf  scratch.Buffer
}

// New constructs an LMS Stage, validating the configuration.
func New(cfg Config) (*Stage, error) {
	if cfg.NumTaps < 1 {
		return nil, stage.NewConfigError(TypeTag, "num_taps must be >= 1")
	}
	if !(cfg.LearningRate > 0 && cfg.LearningRate <= 1) {
		return nil, stage.NewConfigError(TypeTag, "learning_rate must be in (0,1]")
	}
	if !(cfg.Lambda >= 0 && cfg.Lambda < 1) {
		return nil, stage.NewConfigError(TypeTag, "lambda must be in [0,1)")
	}
	return &Stage{
		cfg:  cfg,
		core: adaptive.NewLMS(cfg.NumTaps, cfg.LearningRate, cfg.Normalized, cfg.Lambda),
	}, nil
}

// TypeTag returns "lmsFilter".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		numTaps, _ := raw.Int("num_taps")
		learningRate, _ := raw.Float32("learning_rate")
		normalized, _ := raw.Bool("normalized")
		lambda, _ := raw.Float32("lambda")
		return New(Config{
			NumTaps:      numTaps,
			LearningRate: learningRate,
			Normalized:   normalized,
			Lambda:       lambda,
		})
	})
}

// Process implements stage.Stage. Channel 0 is the primary signal,
// channel 1 the desired signal; both output channels carry the error.
func (s *Stage) Process(buf []float32, n int, c int, ts []float64) error {
	if c != fixedChannelCount {
		return stage.NewContractError(TypeTag, "LMS requires exactly 2 channels")
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

// Reset clears the adaptive filter's weights and tap history.
func (s *Stage) Reset() { s.core.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.BeginObject()
	w.WriteInt32(int32(s.cfg.NumTaps))
	w.WriteFloat32(s.cfg.LearningRate)
	w.WriteBool(s.cfg.Normalized)
	w.WriteFloat32(s.cfg.Lambda)
	w.WriteBool(s.core.Initialized())
	w.WriteFloatArray(s.core.Weights())
	w.EndObject()
}

func (s *Stage) deserialize(r statecodec.Reader) error {
	if err := r.BeginObject(); err != nil {
		return err
	}
	numTaps, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(numTaps) != s.cfg.NumTaps {
		return stage.NewStateError(TypeTag, "num_taps mismatch")
	}
	learningRate, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	if math.Abs(float64(learningRate-s.cfg.LearningRate)) > configTolerance {
		return stage.NewStateError(TypeTag, "learning_rate mismatch")
	}
	normalized, err := r.ReadBool()
	if err != nil {
		return err
	}
	if normalized != s.cfg.Normalized {
		return stage.NewStateError(TypeTag, "normalized mismatch")
	}
	lambda, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	if math.Abs(float64(lambda-s.cfg.Lambda)) > configTolerance {
		return stage.NewStateError(TypeTag, "lambda mismatch")
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
	if err := r.EndObject(); err != nil {
		return err
	}

	s.core.RestoreWeights(weights, initialized)
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
