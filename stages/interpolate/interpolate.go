// Package interpolate implements the polyphase FIR interpolator stage:
// the one resizing stage whose buffer length changes by an integer
// factor L.
package interpolate

import (
	"github.com/doismellburning/dspstage/internal/chanstate"
	"github.com/doismellburning/dspstage/internal/firdesign"
	"github.com/doismellburning/dspstage/internal/ring"
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "interpolate"

// Config holds the stage's immutable construction parameters.
type Config struct {
	L    int
	M    int
	FsIn float64
}

// Stage is the polyphase FIR interpolator.
type Stage struct {
	cfg      Config
	taps     []float32
	channels *chanstate.Set[ring.Buffer]
}

func newFilledRing(capacity int) ring.Buffer {
	b := ring.New(capacity)
	for i := 0; i < capacity; i++ {
		b.Push(0)
	}
	return *b
}

// New constructs an Interpolator stage, designing its FIR taps.
func New(cfg Config) (*Stage, error) {
	if cfg.L < 2 {
		return nil, stage.NewConfigError(TypeTag, "L must be >= 2")
	}
	if cfg.M < 3 || cfg.M%2 == 0 {
		return nil, stage.NewConfigError(TypeTag, "M must be odd and >= 3")
	}
	if cfg.FsIn <= 0 {
		return nil, stage.NewConfigError(TypeTag, "Fs_in must be positive")
	}
	return &Stage{
		cfg:  cfg,
		taps: firdesign.LowpassSincHamming(cfg.L, cfg.M),
		channels: chanstate.New(func() ring.Buffer {
			return newFilledRing(cfg.M)
		}),
	}, nil
}

// TypeTag returns "interpolate".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		l, _ := raw.Int("l")
		m, _ := raw.Int("m")
		fsIn, _ := raw.Float64("fs_in")
		return New(Config{L: l, M: m, FsIn: fsIn})
	})
}

// IsResizing always returns true.
func (s *Stage) IsResizing() bool { return true }

// TimeScaleFactor returns 1/L.
func (s *Stage) TimeScaleFactor() float64 { return 1.0 / float64(s.cfg.L) }

// CalculateOutputSize returns inputLen * L.
func (s *Stage) CalculateOutputSize(inputLen int) int { return inputLen * s.cfg.L }

// Process always fails: the Interpolator is a resizing stage.
func (s *Stage) Process(buf []float32, n int, c int, ts []float64) error {
	return stage.ErrProcessOnResizingStage(TypeTag)
}

// ProcessResizing implements polyphase upsampling: each input sample
// seeds L output samples, one per phase of the interpolation filter.
func (s *Stage) ProcessResizing(in []float32, inLen int, out []float32, outLen *int, c int, ts []float64) error {
	if c <= 0 {
		return stage.NewContractError(TypeTag, "channel count must be positive")
	}
	samplesPerChannel := inLen / c
	s.channels.Ensure(c)
	L := s.cfg.L

	for k := 0; k < samplesPerChannel; k++ {
		for ch := 0; ch < c; ch++ {
			r := s.channels.At(ch)
			r.Push(in[k*c+ch])
		}
		for phi := 0; phi < L; phi++ {
			for ch := 0; ch < c; ch++ {
				r := s.channels.At(ch)
				stateIdx := r.WriteIndex()
				m := r.Cap()
				var y float32
				for kk := phi; kk < len(s.taps); kk += L {
					delay := kk / L
					idx := ((stateIdx-1-delay)%m + m) % m
					y += s.taps[kk] * r.RawAt(idx)
				}
				out[(k*L+phi)*c+ch] = y
			}
		}
	}
	*outLen = samplesPerChannel * L * c
	return nil
}

// Reset discards every channel's delay ring, returning the stage to its
// freshly constructed, unbound state; the next call allocates all-zero
// rings again.
func (s *Stage) Reset() { s.channels.Reset() }

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteInt32(int32(s.cfg.L))
	w.WriteInt32(int32(s.cfg.M))
	w.WriteFloat64(s.cfg.FsIn)
	numChannels := int32(0)
	if s.channels.Bound() {
		numChannels = int32(s.channels.Len())
	}
	w.WriteInt32(numChannels)
	for i := 0; i < int(numChannels); i++ {
		w.WriteFloatArray(s.channels.At(i).RawData())
	}
	for i := 0; i < int(numChannels); i++ {
		w.WriteInt32(int32(s.channels.At(i).WriteIndex()))
	}
}

func (s *Stage) deserialize(r statecodec.Reader) error {
	l, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(l) != s.cfg.L {
		return stage.NewStateError(TypeTag, "L mismatch")
	}
	m, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(m) != s.cfg.M {
		return stage.NewStateError(TypeTag, "M mismatch")
	}
	fsIn, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	if fsIn != s.cfg.FsIn {
		return stage.NewStateError(TypeTag, "Fs_in mismatch")
	}
	numChannels, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if s.channels.Bound() && int(numChannels) != s.channels.Len() {
		return stage.NewStateError(TypeTag, "channel count mismatch")
	}

	rawData := make([][]float32, numChannels)
	for i := int32(0); i < numChannels; i++ {
		data, err := r.ReadFloatArray()
		if err != nil {
			return err
		}
		rawData[i] = data
	}
	channels := make([]ring.Buffer, numChannels)
	for i := int32(0); i < numChannels; i++ {
		writeIdx, err := r.ReadInt32()
		if err != nil {
			return err
		}
		buf, err := ring.RestoreRaw(s.cfg.M, rawData[i], int(writeIdx))
		if err != nil {
			return stage.NewStateError(TypeTag, err.Error())
		}
		channels[i] = *buf
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
