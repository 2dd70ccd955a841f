package environment

import (
	"math/rand"

	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

// Directions are the four unit moves. Y grows downward, so the order is
// south, north, east, west.
var Directions = [4]comms.Position{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: -1, Y: 0},
}

// Walker moves agents one cell per round in a uniformly random open direction.
type Walker struct {
	grid *Grid
	rng  *rand.Rand
}

// NewWalker binds a walker to a grid and a random source.
func NewWalker(g *Grid, rng *rand.Rand) *Walker {
	return &Walker{grid: g, rng: rng}
}

// Moves lists the open directions from pos.
func (w *Walker) Moves(pos comms.Position) []comms.Position {
	moves := make([]comms.Position, 0, len(Directions))
	for _, d := range Directions {
		if !w.grid.IsWall(pos.X+d.X, pos.Y+d.Y) {
			moves = append(moves, d)
		}
	}
	return moves
}

// Step returns the next position. A boxed-in agent stays put.
func (w *Walker) Step(pos comms.Position) comms.Position {
	moves := w.Moves(pos)
	if len(moves) == 0 {
		return pos
	}
	d := moves[w.rng.Intn(len(moves))]
	return comms.Position{X: pos.X + d.X, Y: pos.Y + d.Y}
}
