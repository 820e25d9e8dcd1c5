package qr

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/mediaqr/internal/filex"
	"github.com/fogleman/gg"
)

// SizeTag names an export size.
type SizeTag string

const (
	Small  SizeTag = "small"
	Medium SizeTag = "medium"
	Large  SizeTag = "large"
	// SVG exports the vector markup instead of a raster image.
	SVG SizeTag = "svg"
)

var pixelSizes = map[SizeTag]int{
	Small:  256,
	Medium: 512,
	Large:  1024,
}

// svgExportPx is the nominal width written into exported SVG files.
const svgExportPx = 512

// ParseSizeTag accepts small, medium, large or svg.
func ParseSizeTag(s string) (SizeTag, error) {
	tag := SizeTag(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := pixelSizes[tag]; ok || tag == SVG {
		return tag, nil
	}
	return "", fmt.Errorf("unknown size %q (use small, medium, large or svg)", s)
}

// Pixels returns the raster side length for tag.
func (t SizeTag) Pixels() (int, bool) {
	px, ok := pixelSizes[t]
	return px, ok
}

// Rasterize draws v onto an opaque white size by size canvas.
func Rasterize(v *Vector, size int) image.Image {
	dc := gg.NewContext(size, size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	n := v.Size()
	if n == 0 {
		return dc.Image()
	}

	scale := float64(size) / float64(n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if v.Dark(x, y) {
				dc.DrawRectangle(float64(x)*scale, float64(y)*scale, scale, scale)
			}
		}
	}
	dc.SetRGB(0, 0, 0)
	dc.Fill()

	return dc.Image()
}

// ExportName is the file name used for an export of filename at tag.
func ExportName(filename string, tag SizeTag) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "qr"
	}
	if tag == SVG {
		return base + "-qr.svg"
	}
	return fmt.Sprintf("%s-qr-%s.png", base, tag)
}

// Export writes v into dir under ExportName and returns the written path.
// A nil vector does nothing and returns an empty path.
func Export(v *Vector, filename string, tag SizeTag, dir string) (string, error) {
	if v == nil {
		return "", nil
	}

	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(abs, ExportName(filename, tag))

	if tag == SVG {
		if err := os.WriteFile(path, []byte(v.SVG(svgExportPx)), 0o644); err != nil {
			return "", fmt.Errorf("write svg: %w", err)
		}
		return path, nil
	}

	px, ok := tag.Pixels()
	if !ok {
		return "", fmt.Errorf("unknown export size %q", tag)
	}

	if err := imaging.Save(Rasterize(v, px), path); err != nil {
		return "", fmt.Errorf("save png: %w", err)
	}
	return path, nil
}
