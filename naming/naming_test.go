package naming

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"calm\n":              "calm",
		"  deep  meditation ": "deep_meditation",
		"a/b\\c:d":            "a_b_c_d",
		"":                    "untitled",
		"   \n":               "untitled",
		"..":                  "untitled",
		"café":                "café",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestLabelAndPaths(t *testing.T) {
	now := time.Unix(1700000000, 0)
	label := Label("focused\n", now)
	assert.Equal(t, "focused-1700000000", label)

	dir := TrialDir("experiments", label, PhaseOf(false))
	assert.Equal(t, filepath.Join("experiments", "focused-1700000000", "control"), dir)
	assert.Equal(t, filepath.Join(dir, "3-1700000005.jpg"), FramePath(dir, 3, now.Add(5*time.Second)))
	assert.Equal(t, filepath.Join("experiments", "focused-1700000000", "summary.xlsx"), ReportPath("experiments", label))
	assert.Equal(t, PhaseTrial, PhaseOf(true))
}

func TestWithExtAndJoinDir(t *testing.T) {
	assert.Equal(t, "a.jpg", WithExt("a", ".jpg"))
	assert.Equal(t, "a.jpg", WithExt("a", "jpg"))
	assert.Equal(t, "a", WithExt("a", ""))
	assert.Equal(t, "x", JoinDir("", "x"))
	assert.Equal(t, filepath.Join("d", "x"), JoinDir("d", "x"))
}
