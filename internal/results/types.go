package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/ghostswarm/internal/simulation"
)

// RunResult is the outcome of one independent run of a batch.
type RunResult struct {
	ID           uuid.UUID `json:"id"`
	Index        int       `json:"index"`
	Seed         int64     `json:"seed"`
	Rounds       int       `json:"rounds"`
	Converged    bool      `json:"converged"`
	SweepRounds  []int     `json:"sweep_rounds"`
	TrueMajority int       `json:"true_majority"`
	Answers      []int     `json:"answers"`
	// Accuracy is the fraction of agents whose answer is the true majority.
	Accuracy float64               `json:"accuracy"`
	Agents   []simulation.Snapshot `json:"agents,omitempty"`
	Duration time.Duration         `json:"duration"`
}

// Batch groups the runs of one invocation with the settings that produced
// them.
type Batch struct {
	ID        uuid.UUID   `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Algorithm string      `json:"algorithm"`
	Agents    int         `json:"agents"`
	Colours   int         `json:"colours"`
	Layout    string      `json:"layout"`
	BaseSeed  int64       `json:"base_seed"`
	Runs      []RunResult `json:"runs"`
}

// Accuracy returns the fraction of answers equal to truth. No answers gives 0;
// a negative answer never matches.
func Accuracy(answers []int, truth int) float64 {
	if len(answers) == 0 {
		return 0
	}
	hits := 0
	for _, a := range answers {
		if a == truth {
			hits++
		}
	}
	return float64(hits) / float64(len(answers))
}
