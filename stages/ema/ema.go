// Package ema implements the Exponential Moving Average stage.
package ema

import (
	"math"

	"github.com/doismellburning/dspstage/internal/chanstate"
	"github.com/doismellburning/dspstage/mode"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "ema"

// Config holds EMA's immutable construction parameters.
type Config struct {
	Mode  mode.Mode
	Alpha float32
}

const alphaTolerance = 1e-6

type channelState struct {
	ema         float32
	initialized bool
}

// Stage is the Exponential Moving Average processing stage.
type Stage struct {
	stage.Base
	cfg      Config
	channels *chanstate.Set[channelState]
}

// New constructs an EMA stage, validating alpha ∈ (0,1].
func New(cfg Config) (*Stage, error) {
	if !(cfg.Alpha > 0 && cfg.Alpha <= 1) {
		return nil, stage.NewConfigError(TypeTag, "alpha must be in (0,1]")
	}
	return &Stage{
		cfg:      cfg,
		channels: chanstate.New(func() channelState { return channelState{} }),
	}, nil
}

// TypeTag returns "ema".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		modeStr, _ := raw.String("mode")
		m, err := mode.Parse(modeStr)
		if err != nil {
			return nil, stage.NewConfigError(TypeTag, err.Error())
		}
		alpha, _ := raw.Float32("alpha")
		return New(Config{Mode: m, Alpha: alpha})
	})
}

// Process implements stage.Stage.
func (s *Stage) Process(buf []float32, n int, c int, ts []float64) error {
	if c <= 0 {
		return stage.NewContractError(TypeTag, "channel count must be positive")
	}
	samplesPerChannel := n / c

	switch s.cfg.Mode {
	case mode.Batch:
		for ch := 0; ch < c; ch++ {
			var cur float32
			for k := 0; k < samplesPerChannel; k++ {
				idx := k*c + ch
				if k == 0 {
					cur = buf[idx]
				} else {
					cur = s.cfg.Alpha*buf[idx] + (1-s.cfg.Alpha)*cur
				}
				buf[idx] = cur
			}
		}
	case mode.Moving:
		s.channels.Ensure(c)
		for ch := 0; ch < c; ch++ {
			st := s.channels.At(ch)
			for k := 0; k < samplesPerChannel; k++ {
				idx := k*c + ch
				if !st.initialized {
					st.ema = buf[idx]
					st.initialized = true
				} else {
					st.ema = s.cfg.Alpha*buf[idx] + (1-s.cfg.Alpha)*st.ema
				}
				buf[idx] = st.ema
			}
		}
	}
	return nil
}

// ProcessResizing implements stage.Stage via the default non-resizing
// behavior.
func (s *Stage) ProcessResizing(in []float32, inLen int, out []float32, outLen *int, c int, ts []float64) error {
	return stage.DefaultProcessResizing(s, in, inLen, out, outLen, c, ts)
}

// Reset clears all per-channel EMA state.
func (s *Stage) Reset() { s.channels.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteString(s.cfg.Mode.String())
	w.WriteFloat32(s.cfg.Alpha)
	w.BeginArray()
	if s.channels.Bound() {
		for i := 0; i < s.channels.Len(); i++ {
			ch := s.channels.At(i)
			w.BeginObject()
			w.WriteFloat32(ch.ema)
			w.WriteBool(ch.initialized)
			w.EndObject()
		}
	}
	w.EndArray()
}

func (s *Stage) deserialize(r statecodec.Reader) error {
	modeStr, err := r.ReadString()
	if err != nil {
		return err
	}
	restoredMode, err := mode.Parse(modeStr)
	if err != nil {
		return stage.NewStateError(TypeTag, err.Error())
	}
	if restoredMode != s.cfg.Mode {
		return stage.NewStateError(TypeTag, "mode mismatch")
	}
	alpha, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	if math.Abs(float64(alpha-s.cfg.Alpha)) > alphaTolerance {
		return stage.NewStateError(TypeTag, "alpha mismatch")
	}

	if err := r.BeginArray(); err != nil {
		return err
	}
	var channels []channelState
	for !r.PeekEndArray() {
		if err := r.BeginObject(); err != nil {
			return err
		}
		emaVal, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		initialized, err := r.ReadBool()
		if err != nil {
			return err
		}
		if err := r.EndObject(); err != nil {
			return err
		}
		channels = append(channels, channelState{ema: emaVal, initialized: initialized})
	}
	if err := r.EndArray(); err != nil {
		return err
	}

	if len(channels) == 0 {
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
