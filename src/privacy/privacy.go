package privacy

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"scorewatch/src/catalog"
)

// Mode selects whose profile regions are redacted before an image leaves
// the machine or hits disk.
type Mode int

const (
	// MaskNone redacts nothing beyond unconditionally sensitive regions.
	MaskNone Mode = iota
	// MaskOthersOnly redacts other players' profiles but keeps the user's.
	MaskOthersOnly
	// MaskAllProfiles redacts every profile region.
	MaskAllProfiles
)

// Style selects how a redacted rectangle is rendered.
type Style int

const (
	// StyleFill paints the rectangle opaque black.
	StyleFill Style = iota
	// StyleBlur replaces the rectangle with a coarse pixelated copy.
	StyleBlur
)

// Policy is the user's redaction preference, read at capture time.
type Policy struct {
	Mode  Mode
	Style Style
}

// openSelectExtra is a supplemental privacy zone on the openSelect screen
// that is redacted no matter what the policy says. It is hard-coded because
// it is not a profile region and does not belong in the catalog.
var openSelectExtra = catalog.Rect{Left: 58, Top: 687, Width: 524, Height: 256}

// singleProfile lists the variants that display only the player's own
// profile, so there is no other-profile region worth redacting.
var singleProfile = map[string]bool{
	catalog.VariantResult:     true,
	catalog.VariantSelect:     true,
	catalog.VariantCollection: true,
}

// ComputeRedactions resolves the policy against one screen variant and
// returns the rectangles to redact, possibly none.
func ComputeRedactions(cat *catalog.Catalog, game catalog.Game, variant string, pol Policy) []catalog.Rect {
	regions, ok := cat.Privacy(game, variant)
	if !ok {
		return nil
	}

	var rects []catalog.Rect
	switch pol.Mode {
	case MaskAllProfiles:
		rects = append(rects, regions.My)
		if variant == catalog.VariantOpenSelect {
			rects = append(rects, regions.Other, openSelectExtra)
		} else if !singleProfile[variant] {
			rects = append(rects, regions.Other)
		}
	case MaskOthersOnly:
		if variant == catalog.VariantOpenSelect {
			rects = append(rects, regions.Other, openSelectExtra)
		} else if !singleProfile[variant] {
			rects = append(rects, regions.Other)
		}
	case MaskNone:
		if variant == catalog.VariantOpenSelect {
			rects = append(rects, openSelectExtra)
		}
	}
	return rects
}

// ApplyRedactions composites the redactions onto a copy of the capture.
// With no rectangles the original image is returned untouched, so an
// unredacted capture is never recompressed. The operation is deterministic
// and idempotent: redacting an already-redacted image changes nothing.
func ApplyRedactions(img image.Image, rects []catalog.Rect, style Style) image.Image {
	if len(rects) == 0 {
		return img
	}
	out := imaging.Clone(img)
	for _, r := range rects {
		area := image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height).Intersect(out.Bounds())
		if area.Empty() {
			continue
		}
		switch style {
		case StyleBlur:
			pixelate(out, area)
		default:
			draw.Draw(out, area, image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)
		}
	}
	return out
}

// pixelateBlock is the mosaic cell size in pixels.
const pixelateBlock = 16

// pixelate replaces each block of the area with its average color. Averaging
// a constant block returns the same constant, which is what makes a second
// pass over the same rectangles a no-op.
func pixelate(img *image.NRGBA, area image.Rectangle) {
	for by := area.Min.Y; by < area.Max.Y; by += pixelateBlock {
		for bx := area.Min.X; bx < area.Max.X; bx += pixelateBlock {
			x1 := min(bx+pixelateBlock, area.Max.X)
			y1 := min(by+pixelateBlock, area.Max.Y)
			fillAverage(img, image.Rect(bx, by, x1, y1))
		}
	}
}

func fillAverage(img *image.NRGBA, block image.Rectangle) {
	var r, g, b, a, n int
	for y := block.Min.Y; y < block.Max.Y; y++ {
		i := img.PixOffset(block.Min.X, y)
		for x := block.Min.X; x < block.Max.X; x++ {
			r += int(img.Pix[i])
			g += int(img.Pix[i+1])
			b += int(img.Pix[i+2])
			a += int(img.Pix[i+3])
			n++
			i += 4
		}
	}
	if n == 0 {
		return
	}
	avg := color.NRGBA{
		R: uint8(r / n),
		G: uint8(g / n),
		B: uint8(b / n),
		A: uint8(a / n),
	}
	for y := block.Min.Y; y < block.Max.Y; y++ {
		i := img.PixOffset(block.Min.X, y)
		for x := block.Min.X; x < block.Max.X; x++ {
			img.Pix[i] = avg.R
			img.Pix[i+1] = avg.G
			img.Pix[i+2] = avg.B
			img.Pix[i+3] = avg.A
			i += 4
		}
	}
}
