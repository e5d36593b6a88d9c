package privacy

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"scorewatch/src/catalog"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load failed: %v", err)
	}
	return cat
}

func TestComputeRedactionsMaskAll(t *testing.T) {
	cat := loadCatalog(t)

	// Single-profile variant: only the user's own region.
	rects := ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantResult, Policy{Mode: MaskAllProfiles})
	if len(rects) != 1 {
		t.Fatalf("result under MaskAllProfiles: expected 1 rectangle, got %d", len(rects))
	}

	// Dual-profile variant: both regions.
	rects = ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantVersus, Policy{Mode: MaskAllProfiles})
	if len(rects) != 2 {
		t.Fatalf("versus under MaskAllProfiles: expected 2 rectangles, got %d", len(rects))
	}

	// openSelect: both profiles plus the supplemental zone.
	rects = ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantOpenSelect, Policy{Mode: MaskAllProfiles})
	if len(rects) != 3 {
		t.Fatalf("openSelect under MaskAllProfiles: expected 3 rectangles, got %d", len(rects))
	}
}

func TestComputeRedactionsMaskOthers(t *testing.T) {
	cat := loadCatalog(t)

	if rects := ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantResult, Policy{Mode: MaskOthersOnly}); len(rects) != 0 {
		t.Errorf("result under MaskOthersOnly: expected nothing, got %d", len(rects))
	}
	if rects := ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantVersus, Policy{Mode: MaskOthersOnly}); len(rects) != 1 {
		t.Errorf("versus under MaskOthersOnly: expected 1 rectangle, got %d", len(rects))
	}
	if rects := ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantOpenSelect, Policy{Mode: MaskOthersOnly}); len(rects) != 2 {
		t.Errorf("openSelect under MaskOthersOnly: expected 2 rectangles, got %d", len(rects))
	}
}

func TestComputeRedactionsMaskNone(t *testing.T) {
	cat := loadCatalog(t)

	if rects := ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantVersus, Policy{Mode: MaskNone}); len(rects) != 0 {
		t.Errorf("versus under MaskNone: expected nothing, got %d", len(rects))
	}
	// The supplemental openSelect zone is unconditionally sensitive.
	rects := ComputeRedactions(cat, catalog.GameDMRV, catalog.VariantOpenSelect, Policy{Mode: MaskNone})
	if len(rects) != 1 {
		t.Fatalf("openSelect under MaskNone: expected 1 rectangle, got %d", len(rects))
	}
	want := catalog.Rect{Left: 58, Top: 687, Width: 524, Height: 256}
	if rects[0] != want {
		t.Errorf("expected supplemental zone %+v, got %+v", want, rects[0])
	}
}

func TestComputeRedactionsUnknownVariant(t *testing.T) {
	cat := loadCatalog(t)
	if rects := ComputeRedactions(cat, catalog.GameDMRV, "no-such-variant", Policy{Mode: MaskAllProfiles}); rects != nil {
		t.Errorf("expected nil for variant without privacy regions, got %v", rects)
	}
}

func noisyImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 7 % 256),
				G: uint8(y * 13 % 256),
				B: uint8((x + y) * 3 % 256),
				A: 255,
			})
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestApplyRedactionsNoRectsReturnsOriginal(t *testing.T) {
	img := noisyImage(64, 64)
	out := ApplyRedactions(img, nil, StyleFill)
	if out != image.Image(img) {
		t.Fatalf("expected the original image back when nothing is redacted")
	}
}

func TestApplyRedactionsFill(t *testing.T) {
	img := noisyImage(64, 64)
	rects := []catalog.Rect{{Left: 8, Top: 8, Width: 16, Height: 16}}
	out := ApplyRedactions(img, rects, StyleFill).(*image.NRGBA)

	// inside the rectangle: opaque black
	if got := out.NRGBAAt(10, 10); got != (color.NRGBA{A: 255}) {
		t.Errorf("expected black fill at (10,10), got %v", got)
	}
	// outside: untouched
	if got, want := out.NRGBAAt(40, 40), img.NRGBAAt(40, 40); got != want {
		t.Errorf("pixel outside redaction changed: got %v want %v", got, want)
	}
	// source not mutated
	if img.NRGBAAt(10, 10) == (color.NRGBA{A: 255}) {
		t.Errorf("source image was mutated")
	}
}

func TestApplyRedactionsIdempotent(t *testing.T) {
	rects := []catalog.Rect{
		{Left: 5, Top: 5, Width: 30, Height: 20},
		{Left: 40, Top: 40, Width: 23, Height: 17}, // not block-aligned
	}
	for _, style := range []Style{StyleFill, StyleBlur} {
		img := noisyImage(80, 80)
		once := ApplyRedactions(img, rects, style)
		twice := ApplyRedactions(once, rects, style)
		if !bytes.Equal(encode(t, once), encode(t, twice)) {
			t.Errorf("style %d: second application changed the image", style)
		}
	}
}

func TestApplyRedactionsDeterministic(t *testing.T) {
	rects := []catalog.Rect{{Left: 0, Top: 0, Width: 48, Height: 48}}
	a := ApplyRedactions(noisyImage(64, 64), rects, StyleBlur)
	b := ApplyRedactions(noisyImage(64, 64), rects, StyleBlur)
	if !bytes.Equal(encode(t, a), encode(t, b)) {
		t.Errorf("same input and policy produced different output")
	}
}

func TestApplyRedactionsClipsToBounds(t *testing.T) {
	img := noisyImage(32, 32)
	rects := []catalog.Rect{{Left: 24, Top: 24, Width: 100, Height: 100}}
	out := ApplyRedactions(img, rects, StyleFill).(*image.NRGBA)
	if got := out.NRGBAAt(30, 30); got != (color.NRGBA{A: 255}) {
		t.Errorf("expected clipped redaction to cover (30,30), got %v", got)
	}
}
