// Package mav implements the Moving Absolute Value stage.
package mav

import (
	"math"

	"github.com/doismellburning/dspstage/internal/chanstate"
	"github.com/doismellburning/dspstage/internal/ring"
	"github.com/doismellburning/dspstage/internal/windowstat"
	"github.com/doismellburning/dspstage/mode"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "mav"

// Config holds MAV's immutable construction parameters. Either
// WindowSize or WindowDurationMs must be > 0 in Moving mode; if
// WindowSize is 0 and WindowDurationMs > 0, the window capacity is
// lazily bound from the first buffer's timestamps.
type Config struct {
	Mode             mode.Mode
	WindowSize       int
	WindowDurationMs float64
}

type absStat struct{}

func (absStat) Contribute(x float32) float32 { return float32(math.Abs(float64(x))) }
func (absStat) Emit(sum float32, occupancy int) float32 {
	if occupancy == 0 {
		return 0
	}
	return sum / float32(occupancy)
}

// Stage is the Moving Absolute Value processing stage.
type Stage struct {
	stage.Base
	cfg            Config
	windowCapacity int // resolved window size; 0 means not yet bound (duration mode).
	channels       *chanstate.Set[windowstat.Channel]
}

// New constructs a MAV stage, validating the window configuration.
func New(cfg Config) (*Stage, error) {
	if cfg.WindowSize < 0 {
		return nil, stage.NewConfigError(TypeTag, "window_size must be non-negative")
	}
	if cfg.WindowDurationMs < 0 {
		return nil, stage.NewConfigError(TypeTag, "window_duration_ms must be non-negative")
	}
	if cfg.Mode == mode.Moving && cfg.WindowSize <= 0 && cfg.WindowDurationMs <= 0 {
		return nil, stage.NewConfigError(TypeTag, "moving mode requires window_size or window_duration_ms > 0")
	}
	s := &Stage{cfg: cfg, windowCapacity: cfg.WindowSize}
	s.channels = chanstate.New(func() windowstat.Channel {
		return *windowstat.NewChannel(s.windowCapacity)
	})
	return s, nil
}

// TypeTag returns "mav".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		modeStr, _ := raw.String("mode")
		m, err := mode.Parse(modeStr)
		if err != nil {
			return nil, stage.NewConfigError(TypeTag, err.Error())
		}
		windowSize, _ := raw.Int("window_size")
		windowDurationMs, _ := raw.Float64("window_duration_ms")
		return New(Config{Mode: m, WindowSize: windowSize, WindowDurationMs: windowDurationMs})
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
				sum += float32(math.Abs(float64(buf[k*c+ch])))
			}
			var mean float32
			if samplesPerChannel > 0 {
				mean = sum / float32(samplesPerChannel)
			}
			for k := 0; k < samplesPerChannel; k++ {
				buf[k*c+ch] = mean
			}
		}
	case mode.Moving:
		if s.windowCapacity <= 0 {
			if s.cfg.WindowDurationMs <= 0 {
				return stage.NewContractError(TypeTag, "window not bound and duration mode not configured")
			}
			if len(ts) == 0 {
				return stage.NewContractError(TypeTag, "duration-mode window requires timestamps before window_size is bound")
			}
			resolved, err := windowstat.EstimateWindowSize(ts, s.cfg.WindowDurationMs)
			if err != nil {
				return stage.NewContractError(TypeTag, err.Error())
			}
			s.windowCapacity = resolved
		}
		s.channels.Ensure(c)
		for ch := 0; ch < c; ch++ {
			chState := s.channels.At(ch)
			for k := 0; k < samplesPerChannel; k++ {
				idx := k*c + ch
				buf[idx] = chState.Push(buf[idx], absStat{})
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

// Reset clears all per-channel window state, but keeps a duration-mode
// window_size once it has been bound; that decision is made once, not
// redone on every reset.
func (s *Stage) Reset() { s.channels.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteString(s.cfg.Mode.String())
	w.WriteInt32(int32(s.windowCapacity))
	w.WriteFloat64(s.cfg.WindowDurationMs)
	w.WriteBool(s.windowCapacity > 0)
	numChannels := int32(0)
	if s.channels.Bound() {
		numChannels = int32(s.channels.Len())
	}
	w.WriteInt32(numChannels)
	for i := 0; i < int(numChannels); i++ {
		ch := s.channels.At(i)
		w.WriteFloatArray(ch.Ring.Contents())
		w.WriteFloat32(ch.Sum)
	}
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
	windowSize, err := r.ReadInt32()
	if err != nil {
		return err
	}
	windowDurationMs, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	if windowDurationMs != s.cfg.WindowDurationMs {
		return stage.NewStateError(TypeTag, "window_duration_ms mismatch")
	}
	isInitialized, err := r.ReadBool()
	if err != nil {
		return err
	}
	numChannels, err := r.ReadInt32()
	if err != nil {
		return err
	}

	effectiveWindow := s.windowCapacity
	if s.cfg.WindowSize > 0 {
		if int(windowSize) != s.cfg.WindowSize {
			return stage.NewStateError(TypeTag, "window_size mismatch")
		}
		effectiveWindow = s.cfg.WindowSize
	} else if effectiveWindow > 0 {
		if int(windowSize) != effectiveWindow {
			return stage.NewStateError(TypeTag, "window_size mismatch")
		}
	} else if isInitialized {
		effectiveWindow = int(windowSize)
	}

	channels := make([]windowstat.Channel, 0, numChannels)
	for i := int32(0); i < numChannels; i++ {
		contents, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		sum, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		if effectiveWindow <= 0 {
			return stage.NewStateError(TypeTag, "channel state present but window_size unresolved")
		}
		buf, err := ring.RestoreFromContents(effectiveWindow, contents)
		if err != nil {
			return stage.NewStateError(TypeTag, err.Error())
		}
		ch := windowstat.Channel{Ring: buf, Sum: sum}
		recomputed := ch.Recompute(absStat{})
		tol := math.Max(1, math.Abs(float64(recomputed))) * 1e-4
		if math.Abs(float64(sum-recomputed)) > tol {
			return stage.NewStateError(TypeTag, "running sum of absolute values failed revalidation")
		}
		channels = append(channels, ch)
	}

	s.windowCapacity = effectiveWindow
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
