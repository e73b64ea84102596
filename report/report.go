// Package report writes the per-pass results of an experiment to an Excel
// workbook with a chart of the score across passes.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Thiagojm/rng_trials/trial"
)

const sheetName = "Trials"

// Experiment is everything a workbook is built from.
type Experiment struct {
	Label   string
	Kind    string
	Results []trial.Result
}

var (
	commonHeader = []string{"pass", "phase", "index", "started", "duration_s"}
	rngHeader    = []string{"rounds", "ones", "zeros", "difference", "reduced_ratio", "exact_ratio", "pct_ones", "pct_zeros", "variance_pct", "score"}
	candleHeader = []string{"frames", "entropy"}
)

// Write saves the workbook at path, creating parent directories.
func Write(path string, exp Experiment) error {
	if len(exp.Results) == 0 {
		return errors.New("no results to write")
	}
	candle := exp.Results[0].Summary == nil

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	header := append([]string{}, commonHeader...)
	if candle {
		header = append(header, candleHeader...)
	} else {
		header = append(header, rngHeader...)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for i, r := range exp.Results {
		row := []interface{}{
			passName(r),
			string(r.Phase),
			r.Index,
			r.Started.Format(time.RFC3339),
			r.Stopped.Sub(r.Started).Seconds(),
		}
		if candle {
			row = append(row, r.Frames, r.Entropy)
		} else if s := r.Summary; s != nil {
			row = append(row,
				s.Total, s.Ones, s.Zeros, s.Difference,
				fmt.Sprintf("%.1f:%.1f", s.ReducedOnes, s.ReducedZeros),
				s.ExactRatio, s.RatioOnes*100, s.RatioZeros*100, s.Variance, s.Score,
			)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := addChart(f, exp, len(header), candle); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func addChart(f *excelize.File, exp Experiment, valueCol int, candle bool) error {
	endRow := len(exp.Results) + 1
	col, err := excelize.ColumnNumberToName(valueCol)
	if err != nil {
		return err
	}
	anchor, err := excelize.CoordinatesToCellName(valueCol+2, 2)
	if err != nil {
		return err
	}
	yTitle := "Imbalance score"
	if candle {
		yTitle = "Shannon entropy (bits/symbol)"
	}
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$%s$1", sheetName, col),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, endRow),
				Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheetName, col, col, endRow),
			},
		},
		Title:  []excelize.RichTextRun{{Text: fmt.Sprintf("%s (%s)", exp.Label, exp.Kind)}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Pass"}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: yTitle}}, MajorGridLines: true},
	}
	return f.AddChart(sheetName, anchor, chart)
}

func passName(r trial.Result) string {
	if r.Index == 0 {
		return string(r.Phase)
	}
	return fmt.Sprintf("%s %d", r.Phase, r.Index)
}
