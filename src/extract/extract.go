package extract

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"scorewatch/src/catalog"
)

// Extract crops a sampling rectangle out of a capture and normalizes it for
// OCR: single grayscale channel, contrast stretched over the full range.
// The rectangle must lie entirely within the image bounds. Captures are
// always full resolution, so an out-of-bounds rectangle means the catalog
// and the capture disagree and the caller must hear about it.
func Extract(img image.Image, r catalog.Rect) (*image.NRGBA, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("extract: invalid rectangle %+v", r)
	}
	bounds := img.Bounds()
	crop := image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
	if !crop.In(bounds) {
		return nil, fmt.Errorf("extract: rectangle %v outside capture bounds %v", crop, bounds)
	}

	gray := imaging.Grayscale(imaging.Crop(img, crop))
	stretchContrast(gray)
	return gray, nil
}

// stretchContrast rescales pixel intensities so the darkest pixel maps to 0
// and the brightest to 255. On a flat crop (min == max) it is a no-op.
func stretchContrast(img *image.NRGBA) {
	min, max := uint8(255), uint8(0)
	for i := 0; i < len(img.Pix); i += 4 {
		v := img.Pix[i]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min >= max {
		return
	}
	span := int(max) - int(min)
	for i := 0; i < len(img.Pix); i += 4 {
		v := (int(img.Pix[i]) - int(min)) * 255 / span
		img.Pix[i] = uint8(v)
		img.Pix[i+1] = uint8(v)
		img.Pix[i+2] = uint8(v)
	}
}
