// Package experiment drives a full experiment: a control baseline followed by
// a number of active trials of the chosen procedure.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Thiagojm/rng_trials/internal/logging"
	"github.com/Thiagojm/rng_trials/naming"
	"github.com/Thiagojm/rng_trials/report"
	"github.com/Thiagojm/rng_trials/trial"
)

// Kind selects the trial procedure.
type Kind string

const (
	KindRNG    Kind = "rng"
	KindCandle Kind = "candle"
)

// Validate checks that k names a known procedure.
func (k Kind) Validate() error {
	if k == KindRNG || k == KindCandle {
		return nil
	}
	return fmt.Errorf("invalid experiment: %q (allowed: rng, candle)", string(k))
}

// Plan is the set of answers an experiment runs from.
type Plan struct {
	Kind Kind
	// Delay is the length of the control baseline pass.
	Delay      time.Duration
	Length     time.Duration
	Trials     int
	Descriptor string
}

// Record is the outcome of Run.
type Record struct {
	Label   string
	Plan    Plan
	Results []trial.Result
	// ReportPath is set when a workbook was written.
	ReportPath string
}

// Runner runs a Plan against a Trial.
type Runner struct {
	Trial trial.Trial
	Out   io.Writer
	// Root is the experiments directory, naming.DefaultRoot when empty.
	Root string
	// Report writes an xlsx summary of every pass under Root.
	Report bool
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Run rings the bell, runs the control pass for plan.Delay, rings again and
// then runs plan.Trials active passes of plan.Length. It stops at the first
// failing pass; the passes completed so far are still returned and reported.
func (r *Runner) Run(ctx context.Context, plan Plan) (Record, error) {
	log := logging.OrNop(r.Logger)
	now := r.Now
	if now == nil {
		now = time.Now
	}
	root := r.Root
	if root == "" {
		root = naming.DefaultRoot
	}

	rec := Record{Label: naming.Label(plan.Descriptor, now()), Plan: plan}
	log.Info("experiment started", "label", rec.Label, "trial", r.Trial.Name(), "trials", plan.Trials)

	err := r.passes(ctx, plan, &rec)
	if errors.Is(err, context.Canceled) {
		log.Info("experiment interrupted", "completed", len(rec.Results))
	}

	if r.Report && len(rec.Results) > 0 {
		path := naming.ReportPath(root, rec.Label)
		werr := report.Write(path, report.Experiment{Label: rec.Label, Kind: r.Trial.Name(), Results: rec.Results})
		if werr != nil {
			err = errors.Join(err, fmt.Errorf("write report: %w", werr))
		} else {
			rec.ReportPath = path
			log.Info("report written", "path", path)
		}
	}
	return rec, err
}

func (r *Runner) passes(ctx context.Context, plan Plan, rec *Record) error {
	if err := trial.Alert(r.Out); err != nil {
		return err
	}
	res, err := r.Trial.Run(ctx, trial.Params{Length: plan.Delay, Label: rec.Label, Active: false})
	if err != nil {
		rec.keepInterrupted(res, err)
		return fmt.Errorf("control: %w", err)
	}
	rec.Results = append(rec.Results, res)
	if err := trial.Alert(r.Out); err != nil {
		return err
	}

	for i := 1; i <= plan.Trials; i++ {
		fmt.Fprintf(r.Out, "Running trial %d of %d\n", i, plan.Trials)
		fmt.Fprintf(r.Out, "Altered mental state: %s\n", plan.Descriptor)
		res, err := r.Trial.Run(ctx, trial.Params{Length: plan.Length, Label: rec.Label, Active: true, Index: i})
		if err != nil {
			rec.keepInterrupted(res, err)
			return fmt.Errorf("trial %d: %w", i, err)
		}
		rec.Results = append(rec.Results, res)
	}
	return nil
}

// keepInterrupted records a pass cut short by cancellation; it still measured
// something worth reporting.
func (rec *Record) keepInterrupted(res trial.Result, err error) {
	if errors.Is(err, context.Canceled) && !res.Started.IsZero() {
		rec.Results = append(rec.Results, res)
	}
}
