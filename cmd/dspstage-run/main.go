// Command dspstage-run is a demonstration driver: it loads a pipeline
// declared in YAML, reads a raw little-endian float32 buffer, runs it
// through the pipeline once, and writes the result back out. It is
// deliberately not an audio tool (no device I/O, no WAV parsing),
// since audio hardware access is out of scope for this module.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/doismellburning/dspstage/config"
	"github.com/doismellburning/dspstage/pipeline"
	"github.com/doismellburning/dspstage/stage"
)

func main() {
	var configPath = pflag.StringP("config", "c", "", "Path to a pipeline YAML config (required).")
	var channels = pflag.IntP("channels", "n", 1, "Number of interleaved channels in the input buffer.")
	var inPath = pflag.StringP("in", "i", "", "Path to a raw little-endian float32 input buffer, or - for stdin.")
	var outPath = pflag.StringP("out", "o", "", "Path to write the raw little-endian float32 output buffer, or - for stdout.")
	var listStages = pflag.Bool("list-stages", false, "Print every registered stage type tag and exit.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s runs a configured DSP stage pipeline once over a raw float32 buffer.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s --config pipeline.yaml --channels 2 --in in.raw --out out.raw\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	if *listStages {
		tags := stage.Tags()
		sort.Strings(tags)
		for _, tag := range tags {
			fmt.Println(tag)
		}
		return
	}

	if *configPath == "" || *inPath == "" || *outPath == "" {
		pflag.Usage()
		os.Exit(1)
	}

	if err := run(*configPath, *inPath, *outPath, *channels); err != nil {
		stage.Logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, inPath, outPath string, channels int) error {
	cfgFile, err := os.Open(configPath) //nolint:gosec
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer cfgFile.Close()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	stages, err := config.Build(cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	stage.Logger.Info("pipeline built", "stages", len(stages))

	buf, err := readFloat32Buffer(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	p := pipeline.New(stages)
	out, _, err := p.Run(buf, channels, nil)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if err := writeFloat32Buffer(outPath, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func readFloat32Buffer(path string) ([]float32, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of 4 bytes", len(raw))
	}
	buf := make([]float32, len(raw)/4)
	for i := range buf {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		buf[i] = math.Float32frombits(bits)
	}
	return buf, nil
}

func writeFloat32Buffer(path string, buf []float32) error {
	var w io.Writer
	if path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path) //nolint:gosec
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	raw := make([]byte, len(buf)*4)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(raw[i*4:i*4+4], math.Float32bits(v))
	}
	_, err := w.Write(raw)
	return err
}
