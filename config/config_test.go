package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagojm/rng_trials/camera"
	"github.com/Thiagojm/rng_trials/coin"
	"github.com/Thiagojm/rng_trials/experiment"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, experiment.Plan{}, cfg.Plan())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entropy.yaml")
	body := `
experiment: candle
delay: 30s
length: 5m
trials: 3
descriptor: calm
source: trng
report: true
camera:
  device: /dev/video0
  fps: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, coin.DeviceTrueRNG, cfg.Source)
	assert.True(t, cfg.Report)
	assert.Equal(t, "/dev/video0", cfg.Camera.Device)
	assert.Equal(t, 2, cfg.Camera.FPS)
	assert.Equal(t, 640, cfg.Camera.Width, "unset keys keep their defaults")
	assert.Equal(t, camera.FormatMJPEG, cfg.Camera.Format)

	assert.Equal(t, experiment.Plan{
		Kind:       experiment.KindCandle,
		Delay:      30 * time.Second,
		Length:     5 * time.Minute,
		Trials:     3,
		Descriptor: "calm",
	}, cfg.Plan())
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "colour: red\n",
		"bad source":   "source: lava\n",
		"bad kind":     "experiment: dice\n",
		"too many":     "trials: 300\n",
		"negative":     "delay: -5s\n",
		"camera size":  "camera:\n  width: 0\n",
		"empty outdir": "outdir: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, Decode(strings.NewReader(body), &cfg))
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Decode(strings.NewReader(""), &cfg))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
