package environment

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

const smallLayout = `%%%%%
%*.*%
%*%*%
%***%
%%%%%`

func TestParseLayout(t *testing.T) {
	g, err := ParseLayout(strings.NewReader(smallLayout))
	require.NoError(t, err)

	assert.Equal(t, 5, g.Width)
	assert.Equal(t, 5, g.Height)
	assert.True(t, g.IsWall(0, 0))
	assert.True(t, g.IsWall(2, 2))
	assert.False(t, g.IsWall(2, 1), "background cells are passable")
	assert.False(t, g.At(2, 1).Colourable)
	assert.True(t, g.At(1, 1).Colourable)
	assert.Equal(t, NoColour, g.ColourAt(1, 1), "parsing does not colour cells")
	assert.True(t, g.IsWall(-1, 3), "off-grid reads as wall")
	assert.True(t, g.IsWall(5, 3))

	assert.Len(t, g.ColourableCells(), 7)
	assert.Len(t, g.PassableCells(), 8)
}

func TestParseLayout_RaggedLines(t *testing.T) {
	g, err := ParseLayout(strings.NewReader("%%%%%%\n%*\n%%%%%%\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, g.Width)
	assert.Equal(t, 3, g.Height)
	assert.False(t, g.IsWall(4, 1), "short lines are padded with background")
}

func TestParseLayout_NoColourableCells(t *testing.T) {
	_, err := ParseLayout(strings.NewReader("%%%\n% %\n%%%"))
	assert.ErrorIs(t, err, ErrNoColourableCells)
}

func TestLoadLayout(t *testing.T) {
	t.Run("builtin", func(t *testing.T) {
		for _, name := range BuiltinLayouts() {
			g, err := LoadLayout(name)
			require.NoError(t, err, name)
			assert.NotEmpty(t, g.ColourableCells(), name)
		}
		assert.Contains(t, BuiltinLayouts(), "classic")
		assert.Contains(t, BuiltinLayouts(), "open")
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tiny.lay")
		require.NoError(t, os.WriteFile(path, []byte(smallLayout), 0o644))
		g, err := LoadLayout(path)
		require.NoError(t, err)
		assert.Equal(t, 5, g.Width)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLayout(filepath.Join(t.TempDir(), "nope.lay"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestWeights(t *testing.T) {
	w := Weights([]float64{0.55})
	require.Len(t, w, 2)
	assert.InDelta(t, 0.45, w[1], 1e-12)

	w = Weights([]float64{0.4, 0.35})
	require.Len(t, w, 3)
	assert.InDelta(t, 0.25, w[2], 1e-12)
}

func paintedClassic(t *testing.T, p Painter, seed int64) *Grid {
	t.Helper()
	g, err := LoadLayout("classic")
	require.NoError(t, err)
	require.NoError(t, p.Paint(g, rand.New(rand.NewSource(seed))))
	return g
}

func TestPainter_Exact(t *testing.T) {
	for _, pattern := range []Pattern{PatternExact, PatternClustered} {
		t.Run(string(pattern), func(t *testing.T) {
			g := paintedClassic(t, Painter{Weights: Weights([]float64{0.55}), Pattern: pattern}, 42)
			n := len(g.ColourableCells())
			counts := g.Counts(2)

			assert.Equal(t, int(0.55*float64(n)), counts[0])
			assert.Equal(t, n, counts[0]+counts[1], "every colourable cell is painted")
			assert.Equal(t, Colour(0), g.Majority(2))
		})
	}
}

func TestPainter_UniformIsSeeded(t *testing.T) {
	p := Painter{Weights: Weights([]float64{0.7}), Pattern: PatternUniform}
	a := paintedClassic(t, p, 7)
	b := paintedClassic(t, p, 7)

	assert.Equal(t, a.Counts(2), b.Counts(2))
	for _, c := range a.ColourableCells() {
		assert.Equal(t, a.ColourAt(c.X, c.Y), b.ColourAt(c.X, c.Y))
	}
	assert.Equal(t, a.Majority(2), b.Majority(2))
	for _, c := range a.PassableCells() {
		if !a.At(c.X, c.Y).Colourable {
			assert.Equal(t, NoColour, a.ColourAt(c.X, c.Y))
		}
	}
}

func TestPainter_Errors(t *testing.T) {
	g, err := LoadLayout("open")
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))

	assert.Error(t, Painter{Weights: []float64{1}}.Paint(g, rng))
	assert.Error(t, Painter{Weights: Weights([]float64{0.5}), Pattern: "stripes"}.Paint(g, rng))

	_, err = ParsePattern("stripes")
	assert.Error(t, err)
	p, err := ParsePattern("clustered")
	require.NoError(t, err)
	assert.Equal(t, PatternClustered, p)
}

func TestMajorityTieGoesToLowerIndex(t *testing.T) {
	g := NewGrid(2, 1)
	g.set(0, 0, Tile{Colourable: true, Colour: 1})
	g.set(1, 0, Tile{Colourable: true, Colour: 0})
	assert.Equal(t, Colour(0), g.Majority(2))
}

func TestWalker(t *testing.T) {
	g, err := ParseLayout(strings.NewReader(smallLayout))
	require.NoError(t, err)
	w := NewWalker(g, rand.New(rand.NewSource(3)))

	assert.ElementsMatch(t,
		[]comms.Position{{X: 0, Y: 1}, {X: 1, Y: 0}},
		w.Moves(comms.Position{X: 1, Y: 1}))

	pos := comms.Position{X: 1, Y: 1}
	for i := 0; i < 500; i++ {
		next := w.Step(pos)
		assert.False(t, g.IsWall(next.X, next.Y), "walker entered a wall at %v", next)
		assert.Equal(t, 1, comms.Chebyshev(pos, next), "walker moves exactly one orthogonal cell")
		pos = next
	}

	boxed := NewGrid(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if x != 1 || y != 1 {
				boxed.set(x, y, Tile{Wall: true, Colour: NoColour})
			}
		}
	}
	bw := NewWalker(boxed, rand.New(rand.NewSource(3)))
	assert.Equal(t, comms.Position{X: 1, Y: 1}, bw.Step(comms.Position{X: 1, Y: 1}))
}

func TestGridClone(t *testing.T) {
	g := paintedClassic(t, Painter{Weights: Weights([]float64{0.6}), Pattern: PatternExact}, 1)
	c := g.Clone()
	cell := g.ColourableCells()[0]
	c.set(cell.X, cell.Y, Tile{Wall: true, Colour: NoColour})
	assert.False(t, g.IsWall(cell.X, cell.Y))
}
