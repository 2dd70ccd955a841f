//go:build go1.18
// +build go1.18

package environment

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
)

func FuzzParseLayout(f *testing.F) {
	f.Add([]byte(smallLayout))
	f.Add([]byte("%%%\n%*%\n%%%\n"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		text, err := consumer.GetString()
		if err != nil {
			return
		}

		g, err := ParseLayout(bytes.NewBufferString(text))
		if err != nil {
			if !errors.Is(err, ErrNoColourableCells) && !errors.Is(err, bufio.ErrTooLong) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		for _, c := range g.ColourableCells() {
			if g.IsWall(c.X, c.Y) {
				t.Fatalf("cell %v is both colourable and a wall", c)
			}
		}
	})
}
