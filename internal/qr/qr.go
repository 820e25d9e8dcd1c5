// Package qr encodes share links as QR codes and renders them as SVG, PNG or
// terminal text.
package qr

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Level is the error-correction level.
type Level = qrcode.RecoveryLevel

const (
	// LevelMain is used for the code shown right after an upload and for exports.
	LevelMain = qrcode.High
	// LevelPreview is used for compact history previews.
	LevelPreview = qrcode.Medium
)

var ErrEmptyContent = errors.New("qr: empty content")

// Vector is the module matrix of a QR code including its quiet zone.
// Modules[y][x] is true for dark modules.
type Vector struct {
	Modules [][]bool
}

// Encode builds the QR matrix of content.
func Encode(content string, level Level) (*Vector, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	code, err := qrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return &Vector{Modules: code.Bitmap()}, nil
}

// Size is the side length in modules.
func (v *Vector) Size() int {
	return len(v.Modules)
}

// Dark reports whether the module at (x, y) is dark. Out of range is light.
func (v *Vector) Dark(x, y int) bool {
	if y < 0 || y >= len(v.Modules) || x < 0 || x >= len(v.Modules[y]) {
		return false
	}
	return v.Modules[y][x]
}

// SVG serializes the code as standalone SVG markup of px by px pixels.
// Consecutive dark modules of a row are merged into one rect.
func (v *Vector) SVG(px int) string {
	n := v.Size()
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, px, px, n, n)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#FFFFFF"/>`, n, n)

	for y := 0; y < n; y++ {
		for x := 0; x < n; {
			if !v.Dark(x, y) {
				x++
				continue
			}
			start := x
			for x < n && v.Dark(x, y) {
				x++
			}
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="1" fill="#000000"/>`, start, y, x-start)
		}
	}

	b.WriteString(`</svg>`)
	return b.String()
}
