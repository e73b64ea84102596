// Package trial runs one timed pass of an experiment. A pass is either the
// control baseline or an active trial; both kinds loop against a wall-clock
// deadline captured once at entry.
package trial

import (
	"context"
	"io"
	"time"

	"github.com/Thiagojm/rng_trials/naming"
	"github.com/Thiagojm/rng_trials/stats"
)

// Params describes a single pass.
type Params struct {
	Length time.Duration
	// Label namespaces output, see naming.Label.
	Label  string
	Active bool
	// Index is 0 for the control pass and 1..n for active trials.
	Index int
}

// Phase returns control or trial according to p.Active.
func (p Params) Phase() naming.Phase { return naming.PhaseOf(p.Active) }

// Result is what a pass measured.
type Result struct {
	Phase   naming.Phase
	Index   int
	Started time.Time
	Stopped time.Time
	Length  time.Duration

	// RNG trials
	Summary *stats.Summary

	// Candle trials
	Frames     int
	FramePaths []string
	Entropy    float64
}

// Trial is one of the experiment procedures.
type Trial interface {
	Name() string
	Run(ctx context.Context, p Params) (Result, error)
}

// RunUntil calls step until d has elapsed. step always runs at least once and
// the loop exits on the first check at or past the deadline, so it overruns d
// by at most one step. It also stops on the first step error or when ctx is
// done.
func RunUntil(ctx context.Context, d time.Duration, step func() error) error {
	stop := time.Now().Add(d)
	for {
		if err := step(); err != nil {
			return err
		}
		if !time.Now().Before(stop) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Alert rings the terminal bell.
func Alert(w io.Writer) error {
	_, err := io.WriteString(w, "\a")
	return err
}
