package qr

import (
	"errors"
	"strings"

	"golang.org/x/term"
)

// ErrTooWide is returned by FitsTerminal when the code would wrap.
var ErrTooWide = errors.New("qr: terminal too narrow")

// Terminal renders v with half-block characters, two module rows per text
// line. With invert set dark modules are drawn as spaces, which scans better
// on dark-background terminals.
func Terminal(v *Vector, invert bool) string {
	n := v.Size()
	dark := func(x, y int) bool {
		if y >= n {
			return invert
		}
		return v.Dark(x, y) != invert
	}

	var b strings.Builder
	for y := 0; y < n; y += 2 {
		for x := 0; x < n; x++ {
			top, bottom := dark(x, y), dark(x, y+1)
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FitsTerminal checks that v fits the width of the terminal behind fd.
// Non-terminals always fit.
func FitsTerminal(v *Vector, fd int) error {
	if !term.IsTerminal(fd) {
		return nil
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return nil
	}
	if v.Size() > width {
		return ErrTooWide
	}
	return nil
}
