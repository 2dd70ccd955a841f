package environment

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/aquilax/go-perlin"
)

// Pattern selects how colours are laid over the colourable cells.
type Pattern string

const (
	// PatternUniform draws every cell's colour independently from the ratios.
	PatternUniform Pattern = "uniform"
	// PatternExact assigns exact proportions to randomly shuffled cells.
	PatternExact Pattern = "exact"
	// PatternClustered assigns exact proportions along a Perlin noise field,
	// so colours form contiguous patches.
	PatternClustered Pattern = "clustered"
)

// ParsePattern validates a pattern name.
func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(s); p {
	case PatternUniform, PatternExact, PatternClustered:
		return p, nil
	default:
		return "", fmt.Errorf("unknown colour pattern %q", s)
	}
}

// Perlin noise parameters. Alpha and beta follow the usual 2/2 weighting.
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = int32(3)
)

// Weights expands a ratio list into one weight per colour: the listed ratios
// followed by the remainder for the final colour.
func Weights(ratios []float64) []float64 {
	weights := make([]float64, 0, len(ratios)+1)
	rest := 1.0
	for _, r := range ratios {
		weights = append(weights, r)
		rest -= r
	}
	return append(weights, max(rest, 0))
}

// Painter colours a grid's colourable cells.
type Painter struct {
	Weights []float64
	Pattern Pattern
	// Scale is the Perlin sampling step per cell; smaller means larger patches.
	Scale float64
}

// Paint colours g in place using rng.
func (p Painter) Paint(g *Grid, rng *rand.Rand) error {
	if len(p.Weights) < 2 {
		return fmt.Errorf("at least two colours are required, got %d", len(p.Weights))
	}
	cells := g.ColourableCells()
	if len(cells) == 0 {
		return ErrNoColourableCells
	}

	switch p.Pattern {
	case PatternUniform, "":
		for _, c := range cells {
			t := g.At(c.X, c.Y)
			t.Colour = p.draw(rng)
			g.set(c.X, c.Y, t)
		}
		return nil
	case PatternExact:
		rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
	case PatternClustered:
		scale := p.Scale
		if scale <= 0 {
			scale = 0.15
		}
		noise := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, rng.Int63())
		values := make(map[int]float64, len(cells))
		for _, c := range cells {
			values[c.Y*g.Width+c.X] = noise.Noise2D(float64(c.X)*scale, float64(c.Y)*scale)
		}
		sort.SliceStable(cells, func(i, j int) bool {
			return values[cells[i].Y*g.Width+cells[i].X] < values[cells[j].Y*g.Width+cells[j].X]
		})
	default:
		return fmt.Errorf("unknown colour pattern %q", p.Pattern)
	}

	quotas := p.quotas(len(cells))
	i := 0
	for colour, n := range quotas {
		for ; n > 0; n-- {
			c := cells[i]
			t := g.At(c.X, c.Y)
			t.Colour = Colour(colour)
			g.set(c.X, c.Y, t)
			i++
		}
	}
	return nil
}

// draw samples one colour from the categorical distribution.
func (p Painter) draw(rng *rand.Rand) Colour {
	u := rng.Float64()
	acc := 0.0
	for c, w := range p.Weights {
		acc += w
		if u < acc {
			return Colour(c)
		}
	}
	return Colour(len(p.Weights) - 1)
}

// quotas splits n cells by weight, rounding down and giving the remainder to
// the final colour.
func (p Painter) quotas(n int) []int {
	q := make([]int, len(p.Weights))
	used := 0
	for c := 0; c < len(p.Weights)-1; c++ {
		q[c] = int(p.Weights[c] * float64(n))
		used += q[c]
	}
	q[len(q)-1] = n - used
	return q
}
