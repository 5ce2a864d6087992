// Package cma implements the Cumulative Moving Average stage.
package cma

import (
	"github.com/doismellburning/dspstage/internal/chanstate"
	"github.com/doismellburning/dspstage/mode"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "cma"

// Config holds CMA's immutable construction parameters.
type Config struct {
	Mode mode.Mode
}

type channelState struct {
	sum   float32
	count uint32
}

// Stage is the Cumulative Moving Average processing stage: Batch mode
// replaces each sample with the running mean from the start of the
// buffer; Moving mode carries the running sum/count across calls.
type Stage struct {
	stage.Base
	cfg      Config
	channels *chanstate.Set[channelState]
}

// New constructs a CMA stage. CMA has no numeric configuration to
// validate beyond the mode, so construction never fails; the error
// return exists for symmetry with the other stage constructors.
func New(cfg Config) (*Stage, error) {
	return &Stage{
		cfg:      cfg,
		channels: chanstate.New(func() channelState { return channelState{} }),
	}, nil
}

// TypeTag returns "cma".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		modeStr, _ := raw.String("mode")
		m, err := mode.Parse(modeStr)
		if err != nil {
			return nil, stage.NewConfigError(TypeTag, err.Error())
		}
		return New(Config{Mode: m})
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
			var sum float32
			for k := 0; k < samplesPerChannel; k++ {
				idx := k*c + ch
				sum += buf[idx]
				buf[idx] = sum / float32(k+1)
			}
		}
	case mode.Moving:
		s.channels.Ensure(c)
		for ch := 0; ch < c; ch++ {
			st := s.channels.At(ch)
			for k := 0; k < samplesPerChannel; k++ {
				idx := k*c + ch
				st.sum += buf[idx]
				st.count++
				buf[idx] = st.sum / float32(st.count)
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

// Reset clears all per-channel running sums/counts.
func (s *Stage) Reset() { s.channels.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteString(s.cfg.Mode.String())
	w.BeginArray()
	if s.channels.Bound() {
		for i := 0; i < s.channels.Len(); i++ {
			ch := s.channels.At(i)
			w.BeginObject()
			w.WriteFloat32(ch.sum)
			w.WriteInt32(int32(ch.count))
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

	if err := r.BeginArray(); err != nil {
		return err
	}
	var channels []channelState
	for !r.PeekEndArray() {
		if err := r.BeginObject(); err != nil {
			return err
		}
		sum, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		count, err := r.ReadInt32()
		if err != nil {
			return err
		}
		if err := r.EndObject(); err != nil {
			return err
		}
		channels = append(channels, channelState{sum: sum, count: uint32(count)})
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
