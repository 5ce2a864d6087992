// Package melspectrogram implements the Mel Spectrogram stage: a fixed
// matrix-vector projection of power-spectrum frames onto a perceptual
// filterbank. It is resizing, and unlike every other stage in the
// library it is entirely stateless.
package melspectrogram

import (
	"github.com/doismellburning/dspstage/stage"
	"github.com/doismellburning/dspstage/statecodec"
)

// TypeTag is the stage's stable identifier.
const TypeTag = "melSpectrogram"

// Config holds the stage's immutable construction parameters. Filterbank
// is row-major, shape NumMelBands x NumBins.
type Config struct {
	NumBins     int
	NumMelBands int
	Filterbank  []float32
}

// Stage is the Mel Spectrogram processing stage.
type Stage struct {
	cfg Config
}

// New constructs a Mel Spectrogram Stage, validating dimensions.
func New(cfg Config) (*Stage, error) {
	if cfg.NumBins < 1 {
		return nil, stage.NewConfigError(TypeTag, "num_bins must be >= 1")
	}
	if cfg.NumMelBands < 1 {
		return nil, stage.NewConfigError(TypeTag, "num_mel_bands must be >= 1")
	}
	if len(cfg.Filterbank) != cfg.NumMelBands*cfg.NumBins {
		return nil, stage.NewConfigError(TypeTag, "filterbank length must equal num_mel_bands * num_bins")
	}
	return &Stage{cfg: cfg}, nil
}

// TypeTag returns "melSpectrogram".
func (s *Stage) TypeTag() string { return TypeTag }

func init() {
	stage.Register(TypeTag, func(raw stage.Raw) (stage.Stage, error) {
		numBins, _ := raw.Int("num_bins")
		numMelBands, _ := raw.Int("num_mel_bands")
		filterbank, _ := raw.Float32Slice("filterbank")
		return New(Config{NumBins: numBins, NumMelBands: numMelBands, Filterbank: filterbank})
	})
}

// IsResizing always returns true.
func (s *Stage) IsResizing() bool { return true }

// TimeScaleFactor always returns 1.0: frame-to-band projection does not
// rescale timestamps.
func (s *Stage) TimeScaleFactor() float64 { return 1.0 }

// CalculateOutputSize returns (inputLen / num_bins) * num_mel_bands.
// For an interleaved total inputLen this equals what ProcessResizing
// writes only when each channel's sample count is a multiple of
// num_bins; otherwise it can exceed it, since ProcessResizing drops each
// channel's partial frame separately.
func (s *Stage) CalculateOutputSize(inputLen int) int {
	return (inputLen / s.cfg.NumBins) * s.cfg.NumMelBands
}

// Process always fails: Mel Spectrogram is a resizing stage.
func (s *Stage) Process(buf []float32, n int, c int, ts []float64) error {
	return stage.ErrProcessOnResizingStage(TypeTag)
}

// ProcessResizing projects each num_bins-wide frame through the
// filterbank matrix, per channel.
func (s *Stage) ProcessResizing(in []float32, inLen int, out []float32, outLen *int, c int, ts []float64) error {
	if c <= 0 {
		return stage.NewContractError(TypeTag, "channel count must be positive")
	}
	samplesPerChannel := inLen / c
	numFrames := samplesPerChannel / s.cfg.NumBins
	if numFrames == 0 {
		*outLen = 0
		return nil
	}

	numBins := s.cfg.NumBins
	numMelBands := s.cfg.NumMelBands
	f := s.cfg.Filterbank

	for frame := 0; frame < numFrames; frame++ {
		for ch := 0; ch < c; ch++ {
			base := frame * numBins * c
			for m := 0; m < numMelBands; m++ {
				var acc float32
				row := m * numBins
				for b := 0; b < numBins; b++ {
					acc += f[row+b] * in[base+b*c+ch]
				}
				out[(frame*numMelBands+m)*c+ch] = acc
			}
		}
	}
	*outLen = numFrames * numMelBands * c
	return nil
}

// Reset is a no-op: Mel Spectrogram carries no per-channel state.
func (s *Stage) Reset() {}

func (s *Stage) serialize(w statecodec.Writer) {
	w.WriteInt32(int32(s.cfg.NumBins))
	w.WriteInt32(int32(s.cfg.NumMelBands))
	w.BeginArray()
	for _, v := range s.cfg.Filterbank {
		w.WriteFloat32(v)
	}
	w.EndArray()
}

// deserialize validates both filterbank dimensions: a mismatch here
// fails loudly rather than silently accepting state built for a
// differently shaped filterbank.
func (s *Stage) deserialize(r statecodec.Reader) error {
	numBins, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(numBins) != s.cfg.NumBins {
		return stage.NewStateError(TypeTag, "num_bins mismatch")
	}
	numMelBands, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if int(numMelBands) != s.cfg.NumMelBands {
		return stage.NewStateError(TypeTag, "num_mel_bands mismatch")
	}
	if err := r.BeginArray(); err != nil {
		return err
	}
	var filterbank []float32
	for !r.PeekEndArray() {
		v, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		filterbank = append(filterbank, v)
	}
	if err := r.EndArray(); err != nil {
		return err
	}
	if len(filterbank) != s.cfg.NumMelBands*s.cfg.NumBins {
		return stage.NewStateError(TypeTag, "filterbank dimension mismatch")
	}
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
