// Package prompt asks the experiment questions on a terminal. Malformed
// numeric answers are not errors: a warning is printed and 0 is used.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Thiagojm/rng_trials/experiment"
)

// Questions printed before each answer is read.
const (
	QuestionDelay      = "Please enter a delay before starting the trial:"
	QuestionLength     = "Please input the desired trial length:"
	QuestionTrials     = "Enter the number of trials to perform:"
	QuestionDescriptor = "Please input a descriptor if you are currently in an altered mental state:"
)

// Durations offered by the duration menu, in menu order.
var Durations = []time.Duration{
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
	5 * time.Minute,
	20 * time.Minute,
	60 * time.Minute,
}

var durationLabels = []string{"30 seconds", "60 seconds", "120 seconds", "5 minutes", "20 minutes", "60 minutes"}

// ErrNoInput is returned when input ends before an answer is given.
var ErrNoInput = errors.New("prompt: no input")

// Prompter reads answers from in and writes menus to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && s != "" {
			return s, nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read line: %w", err)
	}
	return s, nil
}

func (p *Prompter) notUnsigned(s string) {
	fmt.Fprintf(p.out, "This was not a unsigned integer: %s\n", s)
}

// Experiment shows the experiment menu. Anything but 1 or 2 prints a warning
// and selects the RNG trial.
func (p *Prompter) Experiment() (experiment.Kind, error) {
	fmt.Fprintln(p.out, " [1]: RNG")
	fmt.Fprintln(p.out, " [2]: Candle Light Entropy")
	s, err := p.line()
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	n, perr := strconv.ParseUint(s, 10, 64)
	switch {
	case perr != nil:
		p.notUnsigned(s)
	case n == 1:
		return experiment.KindRNG, nil
	case n == 2:
		return experiment.KindCandle, nil
	default:
		fmt.Fprintf(p.out, "This was not a unsigned integer between 1 and 2: %s\n", s)
	}
	return experiment.KindRNG, nil
}

// Duration shows the duration menu. An out of range choice yields 0; a
// non-integer prints a warning and yields 0.
func (p *Prompter) Duration() (time.Duration, error) {
	for i, l := range durationLabels {
		fmt.Fprintf(p.out, " [%d]: %s\n", i+1, l)
	}
	s, err := p.line()
	if err != nil {
		return 0, err
	}
	s = strings.TrimSpace(s)
	n, perr := strconv.ParseUint(s, 10, 64)
	if perr != nil {
		p.notUnsigned(s)
		return 0, nil
	}
	if n < 1 || n > uint64(len(Durations)) {
		return 0, nil
	}
	return Durations[n-1], nil
}

// Number reads an unsigned 8-bit count. Invalid input prints a warning and
// yields 0.
func (p *Prompter) Number() (int, error) {
	s, err := p.line()
	if err != nil {
		return 0, err
	}
	s = strings.TrimSpace(s)
	n, perr := strconv.ParseUint(s, 10, 8)
	if perr != nil {
		p.notUnsigned(s)
		return 0, nil
	}
	return int(n), nil
}

// Descriptor reads a free-text line without its line ending.
func (p *Prompter) Descriptor() (string, error) {
	s, err := p.line()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Missing marks which plan fields still need an answer.
type Missing uint8

const (
	AskKind Missing = 1 << iota
	AskDelay
	AskLength
	AskTrials
	AskDescriptor

	AskAll = AskKind | AskDelay | AskLength | AskTrials | AskDescriptor
)

// Fill asks, in order, every question flagged in missing and stores the
// answers in plan.
func (p *Prompter) Fill(plan *experiment.Plan, missing Missing) error {
	var err error
	if missing&AskKind != 0 {
		if plan.Kind, err = p.Experiment(); err != nil {
			return err
		}
	}
	if missing&AskDelay != 0 {
		fmt.Fprintln(p.out, QuestionDelay)
		if plan.Delay, err = p.Duration(); err != nil {
			return err
		}
	}
	if missing&AskLength != 0 {
		fmt.Fprintln(p.out, QuestionLength)
		if plan.Length, err = p.Duration(); err != nil {
			return err
		}
	}
	if missing&AskTrials != 0 {
		fmt.Fprintln(p.out, QuestionTrials)
		if plan.Trials, err = p.Number(); err != nil {
			return err
		}
	}
	if missing&AskDescriptor != 0 {
		fmt.Fprintln(p.out, QuestionDescriptor)
		if plan.Descriptor, err = p.Descriptor(); err != nil {
			return err
		}
	}
	return nil
}
