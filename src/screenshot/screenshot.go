package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/kbinani/screenshot"
)

// Capture grabs the primary display at full resolution. Region rectangles in
// the catalog are authored against this capture, so no scaling happens here.
func Capture() (*image.RGBA, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("screenshot: no active displays found")
	}
	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(0))
	if err != nil {
		return nil, fmt.Errorf("screenshot: capture display: %w", err)
	}
	return img, nil
}

// EncodePNG converts a capture to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("screenshot: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadPNG reads a previously captured image from disk, used by the manual
// upload path.
func LoadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("screenshot: open %s: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("screenshot: decode %s: %w", path, err)
	}
	return img, nil
}
