// Package config declares a pipeline of stages in YAML and builds the
// corresponding stage.Stage instances via the stage registry, mirroring
// the teacher's "read structured config, construct runtime objects,
// validate as you go" shape used for tocalls.yaml (src/deviceid.go).
//
// The ten stage packages under stages/ are imported here solely for
// their init() registration side effect; nothing in this package
// references their exported symbols directly.
package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/doismellburning/dspstage/stage"

	_ "github.com/doismellburning/dspstage/stages/cma"
	_ "github.com/doismellburning/dspstage/stages/ema"
	_ "github.com/doismellburning/dspstage/stages/interpolate"
	_ "github.com/doismellburning/dspstage/stages/linreg"
	_ "github.com/doismellburning/dspstage/stages/lms"
	_ "github.com/doismellburning/dspstage/stages/mav"
	_ "github.com/doismellburning/dspstage/stages/melspectrogram"
	_ "github.com/doismellburning/dspstage/stages/peak"
	_ "github.com/doismellburning/dspstage/stages/rls"
	_ "github.com/doismellburning/dspstage/stages/rms"
)

// StageConfig is one entry in a pipeline's stage list: Type selects the
// registered factory, and every other key under the entry is captured
// into Params for the factory to interpret.
type StageConfig struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:",inline"`
}

// PipelineConfig is the YAML document shape cmd/dspstage-run reads via
// --config: a plain top-to-bottom list of stages run in sequence.
type PipelineConfig struct {
	Stages []StageConfig `yaml:"stages"`
}

// Load decodes a PipelineConfig from r.
func Load(r io.Reader) (*PipelineConfig, error) {
	var cfg PipelineConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Build constructs every stage in cfg, in order, via the stage
// registry. On error it names the failing stage's position and type
// tag; no stages are left partially constructed since each stage
// constructor either returns a complete stage or none at all.
func Build(cfg *PipelineConfig) ([]stage.Stage, error) {
	stages := make([]stage.Stage, 0, len(cfg.Stages))
	for i, sc := range cfg.Stages {
		s, err := stage.New(sc.Type, stage.Raw(sc.Params))
		if err != nil {
			return nil, fmt.Errorf("config: stage %d (type %q): %w", i, sc.Type, err)
		}
		stages = append(stages, s)
	}
	return stages, nil
}
