package prompt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagojm/rng_trials/experiment"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestExperiment(t *testing.T) {
	cases := []struct {
		in      string
		want    experiment.Kind
		warning string
	}{
		{"1\n", experiment.KindRNG, ""},
		{"2\n", experiment.KindCandle, ""},
		{" 2 \n", experiment.KindCandle, ""},
		{"3\n", experiment.KindRNG, "between 1 and 2: 3"},
		{"candle\n", experiment.KindRNG, "This was not a unsigned integer: candle"},
	}
	for _, tc := range cases {
		p, out := newPrompter(tc.in)
		got, err := p.Experiment()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Contains(t, out.String(), " [2]: Candle Light Entropy")
		if tc.warning != "" {
			assert.Contains(t, out.String(), tc.warning)
		}
	}
}

func TestDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1\n":   30 * time.Second,
		"3\n":   2 * time.Minute,
		"4\n":   5 * time.Minute,
		"6\n":   time.Hour,
		"0\n":   0,
		"7\n":   0,
		"-1\n":  0,
		"abc\n": 0,
		"5":     20 * time.Minute,
	}
	for in, want := range cases {
		p, _ := newPrompter(in)
		got, err := p.Duration()
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}

	p, out := newPrompter("soon\n")
	_, _ = p.Duration()
	assert.Contains(t, out.String(), "This was not a unsigned integer: soon")
	assert.Contains(t, out.String(), " [6]: 60 minutes")
}

func TestNumber(t *testing.T) {
	cases := map[string]int{"3\n": 3, "255\n": 255, "256\n": 0, "x\n": 0, "\n": 0}
	for in, want := range cases {
		p, _ := newPrompter(in)
		got, err := p.Number()
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestDescriptor(t *testing.T) {
	p, _ := newPrompter("  after coffee \r\n")
	got, err := p.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "  after coffee ", got)
}

func TestNoInput(t *testing.T) {
	p, _ := newPrompter("")
	_, err := p.Number()
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestFill(t *testing.T) {
	p, out := newPrompter("2\n1\n2\n3\ncalm\n")
	var plan experiment.Plan
	require.NoError(t, p.Fill(&plan, AskAll))

	assert.Equal(t, experiment.Plan{
		Kind:       experiment.KindCandle,
		Delay:      30 * time.Second,
		Length:     time.Minute,
		Trials:     3,
		Descriptor: "calm",
	}, plan)
	text := out.String()
	assert.Less(t, strings.Index(text, QuestionDelay), strings.Index(text, QuestionLength))
	assert.Contains(t, text, QuestionDescriptor)
}

func TestFill_OnlyMissing(t *testing.T) {
	p, out := newPrompter("4\n")
	plan := experiment.Plan{Kind: experiment.KindRNG, Delay: time.Second}
	require.NoError(t, p.Fill(&plan, AskTrials))
	assert.Equal(t, 4, plan.Trials)
	assert.Equal(t, time.Second, plan.Delay)
	assert.NotContains(t, out.String(), QuestionDelay)
}
