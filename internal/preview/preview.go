// Package preview writes baked tables as PNG images for visual inspection.
package preview

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

// gamma applied after exposure so dim sky colors stay visible.
const gamma = 1 / 2.2

// Writer writes table previews into a directory.
type Writer struct {
	outputDir string
	prefix    string
}

// NewWriter creates a preview writer. Files are named <prefix>_z<slice>.png.
func NewWriter(outputDir, prefix string) *Writer {
	return &Writer{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Exposure returns the scale mapping the brightest color sample of b to 1.
// Tables with no positive color sample get exposure 1.
func Exposure(b *lut.Buffer) float64 {
	colors := min(b.Channels, 3)
	var peak float64
	for c := 0; c < colors; c++ {
		peak = math.Max(peak, b.ChannelStats(c).Max)
	}
	if peak <= 0 {
		return 1
	}
	return 1 / peak
}

// Image tone-maps slice z of b into an RGBA image. Single channel tables are
// gray, alpha is taken from channel 3 when present and opaque otherwise.
// Row 0 of the table ends up at the bottom of the image.
func Image(b *lut.Buffer, z int, exposure float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		dst := img.Pix[(b.Height-1-y)*img.Stride:]
		for x := 0; x < b.Width; x++ {
			t := b.Texel(x, y, z)
			px := dst[x*4 : x*4+4]
			for c := 0; c < 3; c++ {
				src := c
				if src >= b.Channels {
					src = 0
				}
				px[c] = toByte(math.Pow(math.Max(0, float64(t[src])*exposure), gamma))
			}
			px[3] = 255
			if b.Channels > 3 {
				px[3] = toByte(float64(t[3]))
			}
		}
	}
	return img
}

// AlphaImage returns channel 3 of slice z as a gray image, or nil when b has
// no alpha channel.
func AlphaImage(b *lut.Buffer, z int) *image.Gray {
	if b.Channels < 4 {
		return nil
	}
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		row := (b.Height - 1 - y) * img.Stride
		for x := 0; x < b.Width; x++ {
			img.Pix[row+x] = toByte(float64(b.Texel(x, y, z)[3]))
		}
	}
	return img
}

// WriteTable writes every slice of b and returns the written paths. Tables
// with alpha also get a <prefix>_z<slice>_alpha.png per slice.
func (w *Writer) WriteTable(b *lut.Buffer) ([]string, error) {
	if b == nil || len(b.Data) != b.Dims().Len() {
		return nil, fmt.Errorf("preview: %w", lut.ErrMalformedTable)
	}
	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0755); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}

	exposure := Exposure(b)
	var paths []string
	for z := 0; z < b.Depth; z++ {
		path, err := w.write(fmt.Sprintf("%s_z%d.png", w.prefix, z), Image(b, z, exposure))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)

		if alpha := AlphaImage(b, z); alpha != nil {
			path, err := w.write(fmt.Sprintf("%s_z%d_alpha.png", w.prefix, z), alpha)
			if err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func (w *Writer) write(name string, img image.Image) (string, error) {
	filename := name
	if w.outputDir != "" {
		filename = filepath.Join(w.outputDir, name)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
