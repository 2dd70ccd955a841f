package reporting

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xkilldash9x/ghostswarm/internal/results"
)

// TextReporter renders a human-readable summary followed by one line per run.
type TextReporter struct {
	w io.WriteCloser
}

// NewTextReporter creates a text reporter that owns w.
func NewTextReporter(w io.WriteCloser) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) Write(report *results.Report) error {
	b, s := report.Batch, report.Summary
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Batch\t%s\n", b.ID)
	fmt.Fprintf(tw, "Algorithm\t%s\n", b.Algorithm)
	fmt.Fprintf(tw, "Layout\t%s\n", b.Layout)
	fmt.Fprintf(tw, "Agents\t%d\n", b.Agents)
	fmt.Fprintf(tw, "Colours\t%d\n", b.Colours)
	fmt.Fprintf(tw, "Runs\t%d (%d converged, %.1f%%)\n", s.Runs, s.Converged, 100*s.ConvergenceRate)
	fmt.Fprintf(tw, "Accuracy\tmean %.3f  sd %.3f  min %.3f  max %.3f\n",
		s.Accuracy.Mean, s.Accuracy.StdDev, s.Accuracy.Min, s.Accuracy.Max)
	fmt.Fprintf(tw, "Rounds\tmean %.1f  sd %.1f  min %.0f  max %.0f\n",
		s.Rounds.Mean, s.Rounds.StdDev, s.Rounds.Min, s.Rounds.Max)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "RUN\tSEED\tROUNDS\tCONVERGED\tMAJORITY\tACCURACY")
	for _, run := range b.Runs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%t\t%d\t%.3f\n",
			run.Index, run.Seed, run.Rounds, run.Converged, run.TrueMajority, run.Accuracy)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *TextReporter) Close() error {
	return r.w.Close()
}
