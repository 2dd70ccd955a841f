package belief

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// QuorumParams sizes the two phases of the benchmark algorithm.
type QuorumParams struct {
	// Agents is the population size the sample budget is shared across.
	Agents int
	// WorstCaseRatio is the closest-to-even majority ratio the budget must resolve.
	WorstCaseRatio float64
	// Confidence is the normal quantile level used for z.
	Confidence float64
	// Delta bounds the probability that gossip fails to reach everyone.
	Delta float64
	// Diameter is proportional to the map's linear extent.
	Diameter float64
}

// Validate rejects parameters for which the closed forms are undefined.
func (p QuorumParams) Validate() error {
	if p.Agents <= 0 {
		return fmt.Errorf("agents must be positive, got %d", p.Agents)
	}
	if p.WorstCaseRatio <= 0.5 || p.WorstCaseRatio >= 1 {
		return fmt.Errorf("worst-case ratio must be in (0.5,1), got %v", p.WorstCaseRatio)
	}
	if p.Confidence <= 0 || p.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0,1), got %v", p.Confidence)
	}
	if p.Delta <= 0 || p.Delta >= 1 {
		return fmt.Errorf("delta must be in (0,1), got %v", p.Delta)
	}
	if p.Diameter <= 0 {
		return fmt.Errorf("diameter must be positive, got %v", p.Diameter)
	}
	return nil
}

// Budget is the sizing derived from QuorumParams.
type Budget struct {
	Z               float64 `json:"z"`
	Epsilon         float64 `json:"epsilon"`
	TotalSamples    float64 `json:"total_samples"`
	SamplesPerAgent int     `json:"samples_per_agent"`
	CommRoundsExact float64 `json:"comm_rounds_exact"`
	CommRounds      int     `json:"comm_rounds"`
}

// TotalSamples returns s = 4·p·(1−p)·z² / ε² with ε = 2·(p − 0.5) and
// z = Φ⁻¹(confidence).
func TotalSamples(worstCase, confidence float64) (s, z, eps float64) {
	z = distuv.UnitNormal.Quantile(confidence)
	eps = 2 * (worstCase - 0.5)
	s = 4 * worstCase * (1 - worstCase) * z * z / (eps * eps)
	return s, z, eps
}

// CommRounds returns t = 2·ln(n² / δ)·diameter.
func CommRounds(agents int, delta, diameter float64) float64 {
	n := float64(agents)
	return 2 * math.Log(n*n/delta) * diameter
}

// ComputeBudget validates p and derives both phase lengths.
func ComputeBudget(p QuorumParams) (Budget, error) {
	if err := p.Validate(); err != nil {
		return Budget{}, err
	}
	s, z, eps := TotalSamples(p.WorstCaseRatio, p.Confidence)
	t := CommRounds(p.Agents, p.Delta, p.Diameter)
	return Budget{
		Z:               z,
		Epsilon:         eps,
		TotalSamples:    s,
		SamplesPerAgent: int(math.Round(s / float64(p.Agents))),
		CommRoundsExact: t,
		CommRounds:      int(math.Round(t)),
	}, nil
}
