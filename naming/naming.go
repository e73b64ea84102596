// Package naming builds the directory and file names used for experiment
// output:
//
//	<root>/<descriptor>-<unix>/{control,trial}/<i>-<unix>.jpg
//	<root>/<descriptor>-<unix>/summary.xlsx
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// DefaultRoot is the directory all experiments are written under.
const DefaultRoot = "experiments"

// untitled replaces a descriptor that is empty after sanitizing.
const untitled = "untitled"

// Phase separates the control baseline from the active trials.
type Phase string

const (
	PhaseControl Phase = "control"
	PhaseTrial   Phase = "trial"
)

// PhaseOf maps the active flag of a trial to its Phase.
func PhaseOf(active bool) Phase {
	if active {
		return PhaseTrial
	}
	return PhaseControl
}

// Sanitize makes a free-text descriptor safe to use as a single path
// element: surrounding space is trimmed, separators and control characters
// become '_', and inner whitespace runs collapse to a single '_'.
func Sanitize(descriptor string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(descriptor) {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case r == '/' || r == '\\' || r == ':' || unicode.IsControl(r):
			r = '_'
		}
		if space {
			b.WriteByte('_')
			space = false
		}
		b.WriteRune(r)
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return untitled
	}
	return s
}

// Label builds the experiment label: <descriptor>-<unix seconds>.
func Label(descriptor string, now time.Time) string {
	return fmt.Sprintf("%s-%d", Sanitize(descriptor), now.Unix())
}

// ExperimentDir returns <root>/<label>.
func ExperimentDir(root, label string) string {
	return JoinDir(root, label)
}

// TrialDir returns <root>/<label>/<phase>.
func TrialDir(root, label string, phase Phase) string {
	return filepath.Join(ExperimentDir(root, label), string(phase))
}

// FramePath returns <dir>/<i>-<unix>.jpg for the i-th frame of a pass.
func FramePath(dir string, i int, now time.Time) string {
	return JoinDir(dir, WithExt(fmt.Sprintf("%d-%d", i, now.Unix()), "jpg"))
}

// ReportPath returns <root>/<label>/summary.xlsx.
func ReportPath(root, label string) string {
	return filepath.Join(ExperimentDir(root, label), WithExt("summary", ".xlsx"))
}

// WithExt appends an extension (with or without leading dot) to a base name.
// Empty ext returns base.
func WithExt(base string, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}

// JoinDir joins an optional directory with a name. If dir is empty, it
// returns name as-is.
func JoinDir(dir string, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
