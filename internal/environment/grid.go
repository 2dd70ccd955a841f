// File: internal/environment/grid.go
// Description: The shared grid the agents walk on. Cells are walls,
// colourable floor carrying one hypothesis colour, or plain background floor.

package environment

import (
	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

// Colour is a hypothesis colour index, 0..k-1.
type Colour int

// NoColour marks a cell that carries no hypothesis colour.
const NoColour Colour = -1

// Tile is one grid cell.
type Tile struct {
	Wall       bool
	Colourable bool
	Colour     Colour
}

// Grid is a rectangular map. The zero-based origin is the top-left character
// of the layout; y grows downwards.
type Grid struct {
	Width  int
	Height int
	tiles  []Tile
}

// NewGrid creates a grid of background tiles.
func NewGrid(width, height int) *Grid {
	tiles := make([]Tile, width*height)
	for i := range tiles {
		tiles[i].Colour = NoColour
	}
	return &Grid{Width: width, Height: height, tiles: tiles}
}

// InBounds reports whether (x, y) is on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the tile at (x, y). Off-grid coordinates read as walls.
func (g *Grid) At(x, y int) Tile {
	if !g.InBounds(x, y) {
		return Tile{Wall: true, Colour: NoColour}
	}
	return g.tiles[y*g.Width+x]
}

func (g *Grid) set(x, y int, t Tile) {
	g.tiles[y*g.Width+x] = t
}

// IsWall reports whether (x, y) is impassable.
func (g *Grid) IsWall(x, y int) bool {
	return g.At(x, y).Wall
}

// ColourAt returns the colour at (x, y), or NoColour.
func (g *Grid) ColourAt(x, y int) Colour {
	return g.At(x, y).Colour
}

// PassableCells lists every non-wall cell in row-major order.
func (g *Grid) PassableCells() []comms.Position {
	var cells []comms.Position
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !g.At(x, y).Wall {
				cells = append(cells, comms.Position{X: x, Y: y})
			}
		}
	}
	return cells
}

// ColourableCells lists every colourable cell in row-major order.
func (g *Grid) ColourableCells() []comms.Position {
	var cells []comms.Position
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.At(x, y).Colourable {
				cells = append(cells, comms.Position{X: x, Y: y})
			}
		}
	}
	return cells
}

// Counts returns how many cells carry each of k colours.
func (g *Grid) Counts(k int) []int {
	counts := make([]int, k)
	for _, t := range g.tiles {
		if t.Colour >= 0 && int(t.Colour) < k {
			counts[t.Colour]++
		}
	}
	return counts
}

// Majority returns the colour with the largest count among k colours. Ties go
// to the lower index.
func (g *Grid) Majority(k int) Colour {
	counts := g.Counts(k)
	best := NoColour
	bestCount := -1
	for c, n := range counts {
		if n > bestCount {
			best, bestCount = Colour(c), n
		}
	}
	return best
}

// Clone returns a deep copy, so a painted grid can be reused as a template.
func (g *Grid) Clone() *Grid {
	tiles := make([]Tile, len(g.tiles))
	copy(tiles, g.tiles)
	return &Grid{Width: g.Width, Height: g.Height, tiles: tiles}
}
