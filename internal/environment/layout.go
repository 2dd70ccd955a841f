package environment

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	wallChar       = '%'
	colourableChar = '*'
)

// ErrNoColourableCells is returned for layouts without a single '*' cell.
var ErrNoColourableCells = errors.New("layout has no colourable cells")

//go:embed layouts/*.lay
var builtinLayouts embed.FS

// BuiltinLayouts lists the names of the embedded layouts.
func BuiltinLayouts() []string {
	entries, err := builtinLayouts.ReadDir("layouts")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".lay"))
	}
	sort.Strings(names)
	return names
}

// LoadLayout resolves name as an embedded layout first and as a file path
// otherwise.
func LoadLayout(name string) (*Grid, error) {
	if f, err := builtinLayouts.Open("layouts/" + name + ".lay"); err == nil {
		defer f.Close()
		return ParseLayout(f)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout %q: %w", name, err)
	}
	defer f.Close()

	g, err := ParseLayout(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout %q: %w", name, err)
	}
	return g, nil
}

// ParseLayout reads a text grid: '%' is a wall, '*' is a colourable floor
// cell and anything else is background floor. The width is the longest line;
// shorter lines are padded with background.
func ParseLayout(r io.Reader) (*Grid, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	width := 0
	for _, l := range lines {
		width = max(width, len(l))
	}
	g := NewGrid(width, len(lines))

	colourable := 0
	for y, l := range lines {
		for x := 0; x < len(l); x++ {
			switch l[x] {
			case wallChar:
				g.set(x, y, Tile{Wall: true, Colour: NoColour})
			case colourableChar:
				g.set(x, y, Tile{Colourable: true, Colour: NoColour})
				colourable++
			}
		}
	}
	if colourable == 0 {
		return nil, ErrNoColourableCells
	}
	return g, nil
}
