package trial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Thiagojm/rng_trials/camera"
	"github.com/Thiagojm/rng_trials/entropy"
	"github.com/Thiagojm/rng_trials/internal/logging"
	"github.com/Thiagojm/rng_trials/naming"
)

// Candle captures camera frames until the deadline and scores the Shannon
// entropy of their concatenated text form.
type Candle struct {
	Camera camera.Config
	// Open defaults to camera.Open.
	Open func(camera.Config) (camera.Device, error)
	// Root is the experiments directory, naming.DefaultRoot when empty.
	Root string
	// SaveFrames writes MJPEG frames to their paths after capture.
	SaveFrames bool
	Out        io.Writer
	Logger     *slog.Logger
}

// Name implements Trial.
func (c *Candle) Name() string { return "candle" }

// Run implements Trial. The camera is held for the whole pass and released
// before the entropy is computed.
func (c *Candle) Run(ctx context.Context, p Params) (Result, error) {
	log := logging.OrNop(c.Logger).With("trial", c.Name(), "phase", p.Phase(), "index", p.Index)
	open := c.Open
	if open == nil {
		open = camera.Open
	}
	root := c.Root
	if root == "" {
		root = naming.DefaultRoot
	}

	res := Result{Phase: p.Phase(), Index: p.Index, Length: p.Length}
	dev, err := open(c.Camera)
	if err != nil {
		return res, fmt.Errorf("open camera: %w", err)
	}
	dir := naming.TrialDir(root, p.Label, p.Phase())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = dev.Close()
		return res, fmt.Errorf("could not create output directories: %w", err)
	}

	var frames []camera.Frame
	res.Started = time.Now()
	err = RunUntil(ctx, p.Length, func() error {
		f, ferr := dev.Frame(ctx)
		if ferr != nil {
			return fmt.Errorf("capture frame: %w", ferr)
		}
		frames = append(frames, f)
		res.FramePaths = append(res.FramePaths, naming.FramePath(dir, len(frames), f.Captured))
		return nil
	})
	res.Stopped = time.Now()
	if cerr := dev.Close(); cerr != nil {
		log.Warn("could not stop camera stream", "error", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return res, err
	}
	res.Frames = len(frames)
	log.Debug("capture finished", "frames", res.Frames, "dir", dir)

	if c.SaveFrames {
		c.save(log, frames, res.FramePaths)
	}

	var counter entropy.Counter
	for i, f := range frames {
		if terr := f.WriteText(&counter); terr != nil {
			return res, fmt.Errorf("frame %d: %w", i+1, terr)
		}
	}
	res.Entropy = counter.Entropy()
	fmt.Fprintf(c.Out, "Entropy of %s is %v\n", p.Phase(), res.Entropy)
	return res, err
}

func (c *Candle) save(log *slog.Logger, frames []camera.Frame, paths []string) {
	for i, f := range frames {
		if f.Format != camera.FormatMJPEG {
			log.Warn("skipping save of non-jpeg frame", "format", f.Format)
			return
		}
		if err := os.WriteFile(paths[i], f.Data, 0o644); err != nil {
			log.Warn("could not save image from camera", "path", paths[i], "error", err)
			continue
		}
		log.Debug("saved image", "n", i+1, "of", len(frames))
	}
}
