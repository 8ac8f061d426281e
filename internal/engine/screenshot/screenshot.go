// Package screenshot writes viewport captures to disk as PNG files.
package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Capture saves RGBA pixel buffers into an output directory with
// timestamped filenames.
type Capture struct {
	outputDir string
	prefix    string
}

// NewCapture creates a capture writer. The output directory is created on
// first save if it does not exist.
func NewCapture(outputDir, prefix string) *Capture {
	if prefix == "" {
		prefix = "screenshot"
	}
	return &Capture{outputDir: outputDir, prefix: prefix}
}

// FromPixels writes an RGBA buffer as a PNG and returns the file path.
// The buffer is expected in OpenGL row order, bottom row first, and is
// flipped vertically while encoding.
func (c *Capture) FromPixels(pixels []byte, width, height int) (string, error) {
	if len(pixels) < width*height*4 {
		return "", fmt.Errorf("pixel buffer too small: %d bytes for %dx%d", len(pixels), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowLen := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowLen
		dst := y * rowLen
		copy(img.Pix[dst:dst+rowLen], pixels[src:src+rowLen])
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}

	path := filepath.Join(c.outputDir, c.filename())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating screenshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encoding screenshot: %w", err)
	}
	return path, nil
}

func (c *Capture) filename() string {
	return fmt.Sprintf("%s_%s.png", c.prefix, time.Now().Format("20060102_150405"))
}
