// Package config loads optional YAML settings for the entropy command.
//
//	experiment: candle
//	delay: 30s
//	length: 5m
//	trials: 3
//	descriptor: calm
//	source: pseudo
//	outdir: experiments
//	report: true
//	camera:
//	  device: /dev/video0
//	  width: 640
//	  height: 480
//	  fps: 1
//	  format: MJPEG
//
// Plan fields left out of the file stay nil and are asked for on the terminal.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thiagojm/rng_trials/camera"
	"github.com/Thiagojm/rng_trials/coin"
	"github.com/Thiagojm/rng_trials/experiment"
	"github.com/Thiagojm/rng_trials/naming"
)

// Config holds every setting of a run.
type Config struct {
	Experiment *experiment.Kind `yaml:"experiment"`
	Delay      *time.Duration   `yaml:"delay"`
	Length     *time.Duration   `yaml:"length"`
	Trials     *int             `yaml:"trials"`
	Descriptor *string          `yaml:"descriptor"`

	Source     coin.Device   `yaml:"source"`
	Seed       uint64        `yaml:"seed"`
	BatchBits  int           `yaml:"batch_bits"`
	OutDir     string        `yaml:"outdir"`
	Report     bool          `yaml:"report"`
	SaveFrames bool          `yaml:"save_frames"`
	Camera     camera.Config `yaml:"camera"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Source:    coin.DevicePseudo,
		BatchBits: coin.DefaultBatchBits,
		OutDir:    naming.DefaultRoot,
		Camera:    camera.DefaultConfig(),
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

// Validate rejects settings no run could use.
func (c Config) Validate() error {
	if c.Experiment != nil {
		if err := c.Experiment.Validate(); err != nil {
			return err
		}
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if c.Delay != nil && *c.Delay < 0 {
		return fmt.Errorf("delay must not be negative: %s", *c.Delay)
	}
	if c.Length != nil && *c.Length < 0 {
		return fmt.Errorf("length must not be negative: %s", *c.Length)
	}
	if c.Trials != nil && (*c.Trials < 0 || *c.Trials > 255) {
		return fmt.Errorf("trials must be between 0 and 255: %d", *c.Trials)
	}
	if c.BatchBits <= 0 {
		return fmt.Errorf("batch_bits must be > 0: %d", c.BatchBits)
	}
	if c.OutDir == "" {
		return errors.New("outdir must not be empty")
	}
	return c.Camera.Validate()
}

// Plan returns the plan fields that are set, ready to be completed by prompts.
func (c Config) Plan() experiment.Plan {
	var p experiment.Plan
	if c.Experiment != nil {
		p.Kind = *c.Experiment
	}
	if c.Delay != nil {
		p.Delay = *c.Delay
	}
	if c.Length != nil {
		p.Length = *c.Length
	}
	if c.Trials != nil {
		p.Trials = *c.Trials
	}
	if c.Descriptor != nil {
		p.Descriptor = *c.Descriptor
	}
	return p
}
