// Package peak implements the Peak Detection stage: a 3-point moving
// detector with refractory cooldown, and a windowed batch detector over
// either the time or frequency domain.
package peak

import (
	"fmt"

	"github.com/doismellburning/dspstage/internal/chanstate"
	"github.com/doismellburning/dspstage/internal/peakcore"
	"github.com/doismellburning/dspstage/mode"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "peak"

// Domain selects which axis the Batch detector treats the buffer as.
type Domain int

const (
	DomainTime Domain = iota
	DomainFrequency
)

// String returns the domain's configuration name.
func (d Domain) String() string {
	switch d {
	case DomainTime:
		return "time"
	case DomainFrequency:
		return "frequency"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// ParseDomain parses a domain's configuration name.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "time":
		return DomainTime, nil
	case "frequency":
		return DomainFrequency, nil
	default:
		return 0, fmt.Errorf("peak: unrecognized domain %q", s)
	}
}

// movingWindowSize is the fixed 3-point window the Moving detector uses,
// regardless of the configured WindowSize, which only applies in batch
// mode.
const movingWindowSize = 3

// Config holds the stage's immutable construction parameters.
type Config struct {
	Threshold       float32
	Mode            mode.Mode
	Domain          Domain
	WindowSize      int
	MinPeakDistance int
}

type channelState struct {
	prevPrev float32
	prev     float32
	cooldown int32
}

// Stage is the Peak Detection processing stage.
type Stage struct {
	stage.Base
	cfg      Config
	channels *chanstate.Set[channelState]
}

// New constructs a peak detection Stage, validating the configuration.
func New(cfg Config) (*Stage, error) {
	if cfg.Threshold < 0 {
		return nil, stage.NewConfigError(TypeTag, "threshold must be non-negative")
	}
	if cfg.MinPeakDistance < 1 {
		return nil, stage.NewConfigError(TypeTag, "min_peak_distance must be >= 1")
	}
	if cfg.Mode == mode.Batch {
		if cfg.WindowSize < 3 || cfg.WindowSize%2 == 0 {
			return nil, stage.NewConfigError(TypeTag, "window_size must be odd and >= 3 in batch mode")
		}
	}
	return &Stage{
		cfg:      cfg,
		channels: chanstate.New(func() channelState { return channelState{} }),
	}, nil
}

// TypeTag returns "peak".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		modeStr, _ := raw.String("mode")
		m, err := mode.Parse(modeStr)
		if err != nil {
			return nil, stage.NewConfigError(TypeTag, err.Error())
		}
		domainStr, ok := raw.String("domain")
		if !ok {
			domainStr = "time"
		}
		d, err := ParseDomain(domainStr)
		if err != nil {
			return nil, stage.NewConfigError(TypeTag, err.Error())
		}
		threshold, _ := raw.Float32("threshold")
		windowSize, _ := raw.Int("window_size")
		minPeakDistance, _ := raw.Int("min_peak_distance")
		return New(Config{
			Threshold:       threshold,
			Mode:            m,
			Domain:          d,
			WindowSize:      windowSize,
			MinPeakDistance: minPeakDistance,
		})
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
			channelData := make([]float32, samplesPerChannel)
			for k := 0; k < samplesPerChannel; k++ {
				channelData[k] = buf[k*c+ch]
			}
			out := peakcore.BatchDetect(channelData, s.cfg.WindowSize, s.cfg.MinPeakDistance, s.cfg.Threshold, s.cfg.Domain == DomainFrequency)
			for k := 0; k < samplesPerChannel; k++ {
				buf[k*c+ch] = out[k]
			}
		}
	case mode.Moving:
		s.channels.Ensure(c)
		for ch := 0; ch < c; ch++ {
			st := s.channels.At(ch)
			for k := 0; k < samplesPerChannel; k++ {
				idx := k*c + ch
				current := buf[idx]
				if st.cooldown > 0 {
					st.cooldown--
				}
				prevIsPeak := st.cooldown == 0 && st.prev > st.prevPrev && st.prev > current && st.prev >= s.cfg.Threshold
				if k > 0 {
					prevIdx := (k-1)*c + ch
					if prevIsPeak {
						buf[prevIdx] = 1.0
					} else {
						buf[prevIdx] = 0.0
					}
				}
				if prevIsPeak {
					// The cooldown is decremented before each check, so this
					// keeps the next confirmed peak at least MinPeakDistance
					// positions after this one.
					st.cooldown = int32(s.cfg.MinPeakDistance)
				}
				st.prevPrev = st.prev
				st.prev = current
			}
			if samplesPerChannel > 0 {
				buf[(samplesPerChannel-1)*c+ch] = 0.0
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

// Reset clears all per-channel cooldown/history state.
func (s *Stage) Reset() { s.channels.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteString(s.cfg.Mode.String())
	w.WriteString(s.cfg.Domain.String())
	w.WriteFloat32(s.cfg.Threshold)
	w.WriteInt32(int32(s.cfg.WindowSize))
	w.WriteInt32(int32(s.cfg.MinPeakDistance))
	numChannels := int32(0)
	if s.channels.Bound() {
		numChannels = int32(s.channels.Len())
	}
	w.WriteInt32(numChannels)
	for i := 0; i < int(numChannels); i++ {
		ch := s.channels.At(i)
		w.BeginObject()
		w.WriteFloat32(ch.prevPrev)
		w.WriteFloat32(ch.prev)
		w.WriteInt32(ch.cooldown)
		w.EndObject()
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
	domainStr, err := r.ReadString()
	if err != nil {
		return err
	}
	restoredDomain, err := ParseDomain(domainStr)
	if err != nil {
		return stage.NewStateError(TypeTag, err.Error())
	}
	if restoredDomain != s.cfg.Domain {
		return stage.NewStateError(TypeTag, "domain mismatch")
	}
	threshold, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	if threshold != s.cfg.Threshold {
		return stage.NewStateError(TypeTag, "threshold mismatch")
	}
	windowSize, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(windowSize) != s.cfg.WindowSize {
		return stage.NewStateError(TypeTag, "window_size mismatch")
	}
	minPeakDistance, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(minPeakDistance) != s.cfg.MinPeakDistance {
		return stage.NewStateError(TypeTag, "min_peak_distance mismatch")
	}
	numChannels, err := r.ReadInt32()
	if err != nil {
		return err
	}

	channels := make([]channelState, 0, numChannels)
	for i := int32(0); i < numChannels; i++ {
		if err := r.BeginObject(); err != nil {
			return err
		}
		prevPrev, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		prev, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		cooldown, err := r.ReadInt32()
		if err != nil {
			return err
		}
		if err := r.EndObject(); err != nil {
			return err
		}
		channels = append(channels, channelState{prevPrev: prevPrev, prev: prev, cooldown: cooldown})
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
