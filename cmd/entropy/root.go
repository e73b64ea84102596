package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thiagojm/rng_trials/coin"
	"github.com/Thiagojm/rng_trials/config"
	"github.com/Thiagojm/rng_trials/experiment"
	"github.com/Thiagojm/rng_trials/internal/logging"
	"github.com/Thiagojm/rng_trials/prompt"
	"github.com/Thiagojm/rng_trials/trial"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "entropy",
		Short: "Run RNG and candle-light entropy experiments",
		Long: `entropy runs a control baseline followed by a number of active trials.
The RNG experiment flips a coin and tallies ones and zeros; the candle
experiment captures camera frames and scores their Shannon entropy.
Answers not given as flags or in --config are asked for interactively.`,
		SilenceUsage: true,
		RunE:         runExperiment,
	}

	f := root.Flags()
	f.String("experiment", "", "experiment to run: rng|candle")
	f.Duration("delay", 0, "length of the control baseline (e.g. 30s)")
	f.Duration("length", 0, "length of each active trial (e.g. 5m)")
	f.Int("trials", 0, "number of active trials (0-255)")
	f.String("descriptor", "", "label for the altered mental state, used in output paths")
	f.String("source", string(coin.DevicePseudo), "coin source: pseudo|trng|bitb")
	f.Uint64("seed", 0, "seed for the pseudo source (0 draws one from crypto/rand)")
	f.Int("batch-bits", coin.DefaultBatchBits, "bits fetched from the source per refill")
	f.String("camera", "", "capture device for the candle experiment (e.g. /dev/video0)")
	f.String("outdir", "", "directory experiments are written under")
	f.Bool("report", false, "write an xlsx summary of every pass")
	f.Bool("save-frames", false, "save captured MJPEG frames")

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("config", "", "YAML settings file")
	root.PersistentFlags().Bool("debug", false, "log debug output to stderr")

	root.AddCommand(newDetectCmd())
	return root
}

// Execute builds the command tree and runs it.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		out := termenv.NewOutput(os.Stderr)
		fmt.Fprintln(os.Stderr, out.String("error:").Foreground(out.Color("1")), err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelWarn)
}

// loadConfig reads --config and overlays every flag the user set.
func loadConfig(cmd *cobra.Command) (config.Config, prompt.Missing, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, 0, err
	}

	fl := cmd.Flags()
	if fl.Changed("experiment") {
		v, _ := fl.GetString("experiment")
		k := experiment.Kind(v)
		cfg.Experiment = &k
	}
	if fl.Changed("delay") {
		v, _ := fl.GetDuration("delay")
		cfg.Delay = &v
	}
	if fl.Changed("length") {
		v, _ := fl.GetDuration("length")
		cfg.Length = &v
	}
	if fl.Changed("trials") {
		v, _ := fl.GetInt("trials")
		cfg.Trials = &v
	}
	if fl.Changed("descriptor") {
		v, _ := fl.GetString("descriptor")
		cfg.Descriptor = &v
	}
	if fl.Changed("source") {
		v, _ := fl.GetString("source")
		cfg.Source = coin.Device(v)
	}
	if fl.Changed("seed") {
		cfg.Seed, _ = fl.GetUint64("seed")
	}
	if fl.Changed("batch-bits") {
		cfg.BatchBits, _ = fl.GetInt("batch-bits")
	}
	if fl.Changed("camera") {
		cfg.Camera.Device, _ = fl.GetString("camera")
	}
	if fl.Changed("outdir") {
		cfg.OutDir, _ = fl.GetString("outdir")
	}
	if fl.Changed("report") {
		cfg.Report, _ = fl.GetBool("report")
	}
	if fl.Changed("save-frames") {
		cfg.SaveFrames, _ = fl.GetBool("save-frames")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, 0, err
	}

	var missing prompt.Missing
	if cfg.Experiment == nil {
		missing |= prompt.AskKind
	}
	if cfg.Delay == nil {
		missing |= prompt.AskDelay
	}
	if cfg.Length == nil {
		missing |= prompt.AskLength
	}
	if cfg.Trials == nil {
		missing |= prompt.AskTrials
	}
	if cfg.Descriptor == nil {
		missing |= prompt.AskDescriptor
	}
	return cfg, missing, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	cfg, missing, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	plan := cfg.Plan()
	if missing != 0 {
		if f, ok := cmd.InOrStdin().(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			log.Warn("stdin is not a terminal; reading answers from it")
		}
		if err := prompt.New(cmd.InOrStdin(), stdout).Fill(&plan, missing); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, closeTrial, err := newTrial(cfg, plan.Kind, stdout, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeTrial(); cerr != nil {
			log.Warn("closing coin source", "error", cerr)
		}
	}()

	runner := &experiment.Runner{
		Trial:  tr,
		Out:    stdout,
		Root:   cfg.OutDir,
		Report: cfg.Report,
		Logger: log,
	}
	rec, err := runner.Run(ctx, plan)
	if rec.ReportPath != "" {
		out := termenv.NewOutput(stdout)
		fmt.Fprintln(stdout, out.String("Report saved to "+rec.ReportPath).Foreground(out.Color("2")))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newTrial builds the trial for kind. The returned close func releases the
// coin source, if any.
func newTrial(cfg config.Config, kind experiment.Kind, out io.Writer, log *slog.Logger) (trial.Trial, func() error, error) {
	nop := func() error { return nil }
	switch kind {
	case experiment.KindCandle:
		return &trial.Candle{
			Camera:     cfg.Camera,
			Root:       cfg.OutDir,
			SaveFrames: cfg.SaveFrames,
			Out:        out,
			Logger:     log,
		}, nop, nil
	case experiment.KindRNG:
		src, closeSrc, err := openSource(cfg, log)
		if err != nil {
			return nil, nop, err
		}
		return &trial.RNG{Coin: coin.New(src, cfg.BatchBits), Out: out, Logger: log}, closeSrc, nil
	default:
		return nil, nop, kind.Validate()
	}
}

