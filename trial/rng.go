package trial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Thiagojm/rng_trials/internal/logging"
	"github.com/Thiagojm/rng_trials/stats"
)

// Flipper yields one random bit per call.
type Flipper interface {
	Flip() (bool, error)
}

// RNG flips a coin until the deadline, streaming every bit and ringing the
// bell while the running imbalance score exceeds Threshold.
type RNG struct {
	Coin Flipper
	Out  io.Writer
	// Threshold defaults to stats.AlertThreshold when zero.
	Threshold float64
	Logger    *slog.Logger
}

// Name implements Trial.
func (r *RNG) Name() string { return "rng" }

// Run implements Trial. On cancellation the partial tally is still
// summarized and returned alongside ctx's error.
func (r *RNG) Run(ctx context.Context, p Params) (Result, error) {
	log := logging.OrNop(r.Logger).With("trial", r.Name(), "phase", p.Phase(), "index", p.Index)
	threshold := r.Threshold
	if threshold == 0 {
		threshold = stats.AlertThreshold
	}

	// Bits are buffered; each alert flushes so the bell sounds when it is due.
	out := bufio.NewWriter(r.Out)

	var tally stats.Tally
	alerts := 0
	res := Result{Phase: p.Phase(), Index: p.Index, Length: p.Length, Started: time.Now()}
	log.Debug("trial started", "length", p.Length, "label", p.Label)

	err := RunUntil(ctx, p.Length, func() error {
		bit, err := r.Coin.Flip()
		if err != nil {
			return fmt.Errorf("flip: %w", err)
		}
		tally.Add(bit)
		if bit {
			out.WriteString("1\n")
		} else {
			out.WriteString("0\n")
		}
		if tally.Score() > threshold {
			alerts++
			if err := Alert(out); err != nil {
				return err
			}
			return out.Flush()
		}
		return nil
	})
	res.Stopped = time.Now()
	if err != nil && !errors.Is(err, context.Canceled) {
		_ = out.Flush()
		return res, err
	}

	summary := stats.Summarize(tally)
	res.Summary = &summary
	fmt.Fprintf(out, "start time: %s\n", res.Started.Format(time.RFC3339Nano))
	fmt.Fprintf(out, "stop time: %s\n", res.Stopped.Format(time.RFC3339Nano))
	fmt.Fprintf(out, "duration: %s\n", p.Length)
	if _, werr := summary.WriteTo(out); werr != nil {
		return res, werr
	}
	if ferr := out.Flush(); ferr != nil {
		return res, fmt.Errorf("write output: %w", ferr)
	}
	log.Debug("trial finished", "rounds", summary.Total, "score", summary.Score, "alerts", alerts)
	return res, err
}
