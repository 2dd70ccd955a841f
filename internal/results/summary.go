// File: internal/results/summary.go
package results

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes one metric across runs.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary aggregates a batch. Round statistics cover converged runs only.
type Summary struct {
	Runs            int     `json:"runs"`
	Converged       int     `json:"converged"`
	ConvergenceRate float64 `json:"convergence_rate"`
	Accuracy        Stats   `json:"accuracy"`
	Rounds          Stats   `json:"rounds"`
}

// Summarize computes batch statistics. An empty batch gives a zero Summary.
func Summarize(runs []RunResult) Summary {
	s := Summary{Runs: len(runs)}
	if len(runs) == 0 {
		return s
	}

	accuracy := make([]float64, 0, len(runs))
	var rounds []float64
	for _, r := range runs {
		accuracy = append(accuracy, r.Accuracy)
		if r.Converged {
			s.Converged++
			rounds = append(rounds, float64(r.Rounds))
		}
	}
	s.ConvergenceRate = float64(s.Converged) / float64(s.Runs)
	s.Accuracy = describe(accuracy)
	s.Rounds = describe(rounds)
	return s
}

// describe uses the sample standard deviation; a single value has none.
func describe(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	return Stats{Mean: mean, StdDev: std, Min: floats.Min(xs), Max: floats.Max(xs)}
}
