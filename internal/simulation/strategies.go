package simulation

import (
	"fmt"

	"github.com/xkilldash9x/ghostswarm/internal/belief"
	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

// Algorithm names the decision strategy.
type Algorithm string

const (
	AlgorithmBayesian  Algorithm = "bayesian"
	AlgorithmBenchmark Algorithm = "benchmark"
)

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case AlgorithmBayesian, AlgorithmBenchmark:
		return a, nil
	default:
		return "", fmt.Errorf("unknown algorithm %q", s)
	}
}

// BayesianFactory arms every agent with a sequential Bayesian model.
func BayesianFactory(params belief.BayesianParams) StrategyFactory {
	return func(_ comms.AgentID, hypothesis int) (belief.Strategy, error) {
		return belief.NewBayesian(params, hypothesis)
	}
}

// QuorumFactory arms every agent with the two-phase benchmark model. The
// budget is computed once per population.
func QuorumFactory(budget belief.Budget) StrategyFactory {
	return func(id comms.AgentID, hypothesis int) (belief.Strategy, error) {
		return belief.NewQuorum(id, budget, hypothesis), nil
	}
}
