package cmd

import (
	"fmt"

	"github.com/xkilldash9x/ghostswarm/internal/belief"
	"github.com/xkilldash9x/ghostswarm/internal/config"
	"github.com/xkilldash9x/ghostswarm/internal/engine"
	"github.com/xkilldash9x/ghostswarm/internal/environment"
	"github.com/xkilldash9x/ghostswarm/internal/simulation"
)

// buildSettings turns the validated configuration into engine settings.
func buildSettings(cfg config.Interface) (engine.Settings, error) {
	sim := cfg.Simulation()
	env := cfg.Environment()

	algorithm, err := simulation.ParseAlgorithm(sim.Algorithm)
	if err != nil {
		return engine.Settings{}, err
	}
	pattern, err := environment.ParsePattern(env.Pattern)
	if err != nil {
		return engine.Settings{}, err
	}
	factory, err := strategyFactory(cfg, algorithm)
	if err != nil {
		return engine.Settings{}, err
	}

	return engine.Settings{
		Algorithm: string(algorithm),
		Layout:    env.Layout,
		Painter: environment.Painter{
			Weights: environment.Weights(env.Ratios),
			Pattern: pattern,
			Scale:   env.ClusterScale,
		},
		World: simulation.Options{
			Agents:    sim.Agents,
			Colours:   env.Colours,
			Radius:    cfg.Communication().Range,
			MaxRounds: sim.MaxRounds,
		},
		Factory:       factory,
		BaseSeed:      sim.Seed,
		Workers:       sim.Workers,
		KeepSnapshots: sim.KeepAgents,
	}, nil
}

func strategyFactory(cfg config.Interface, algorithm simulation.Algorithm) (simulation.StrategyFactory, error) {
	switch algorithm {
	case simulation.AlgorithmBenchmark:
		budget, err := benchmarkBudget(cfg, cfg.Simulation().Agents)
		if err != nil {
			return nil, err
		}
		return simulation.QuorumFactory(budget), nil
	default:
		b := cfg.Bayesian()
		params := belief.BayesianParams{
			Prior:              b.Prior,
			PosteriorThreshold: b.PosteriorThreshold,
			PositiveFeedback:   b.PositiveFeedback,
		}
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("invalid bayesian parameters: %w", err)
		}
		return simulation.BayesianFactory(params), nil
	}
}

func benchmarkBudget(cfg config.Interface, agents int) (belief.Budget, error) {
	b := cfg.Benchmark()
	budget, err := belief.ComputeBudget(belief.QuorumParams{
		Agents:         agents,
		WorstCaseRatio: b.WorstCaseRatio,
		Confidence:     b.Confidence,
		Delta:          b.Delta,
		Diameter:       b.Diameter,
	})
	if err != nil {
		return belief.Budget{}, fmt.Errorf("invalid benchmark parameters: %w", err)
	}
	return budget, nil
}
