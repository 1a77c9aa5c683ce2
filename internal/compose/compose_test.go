package compose_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"lacquer/internal/badge"
	"lacquer/internal/compose"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func testPoster() *image.NRGBA {
	return solidImage(400, 600, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
}

func testOverlay(c color.NRGBA) *image.NRGBA {
	return solidImage(80, 30, c)
}

func TestComposeIdempotent(t *testing.T) {
	overlays := []compose.Overlay{
		{Type: badge.TypeAudio, Image: testOverlay(color.NRGBA{G: 200, A: 255})},
		{Type: badge.TypeResolution, Image: testOverlay(color.NRGBA{B: 200, A: 255})},
	}
	policy := compose.DefaultPolicy(24, 12)

	var encoded [2][]byte
	for i := range encoded {
		result, err := compose.Compose(testPoster(), overlays, policy)
		if err != nil {
			t.Fatalf("Compose failed: %v", err)
		}
		data, err := compose.EncodePNG(result.Image)
		if err != nil {
			t.Fatalf("EncodePNG failed: %v", err)
		}
		encoded[i] = data
	}
	if !bytes.Equal(encoded[0], encoded[1]) {
		t.Fatal("repeated composition is not byte-identical")
	}
}

func TestComposePlacementIndependentOfInputOrder(t *testing.T) {
	a := compose.Overlay{Type: badge.TypeResolution, Image: testOverlay(color.NRGBA{B: 200, A: 255})}
	b := compose.Overlay{Type: badge.TypeAudio, Image: testOverlay(color.NRGBA{G: 200, A: 255})}
	// Same corner for both forces stacking.
	policy := compose.LayoutPolicy{
		Corners: map[badge.Type]compose.Corner{
			badge.TypeResolution: compose.TopLeft,
			badge.TypeAudio:      compose.TopLeft,
		},
		EdgeMargin:   10,
		StackPadding: 8,
	}

	forward, err := compose.Compose(testPoster(), []compose.Overlay{a, b}, policy)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	reversed, err := compose.Compose(testPoster(), []compose.Overlay{b, a}, policy)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	forwardPNG, _ := compose.EncodePNG(forward.Image)
	reversedPNG, _ := compose.EncodePNG(reversed.Image)
	if !bytes.Equal(forwardPNG, reversedPNG) {
		t.Fatal("overlay input order changed placement")
	}
}

func TestComposeSkipsMalformedOverlay(t *testing.T) {
	overlays := []compose.Overlay{
		{Type: badge.TypeAudio, Image: testOverlay(color.NRGBA{G: 200, A: 255})},
		{Type: badge.TypeReview, Image: nil},
		{Type: badge.TypeAwards, Image: image.NewNRGBA(image.Rect(0, 0, 0, 0))},
	}
	result, err := compose.Compose(testPoster(), overlays, compose.DefaultPolicy(24, 12))
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if len(result.Applied) != 1 || result.Applied[0] != badge.TypeAudio {
		t.Fatalf("unexpected applied set: %v", result.Applied)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("unexpected failed set: %v", result.Failed)
	}
}

func TestComposeDoesNotMutateOriginal(t *testing.T) {
	original := testPoster()
	before := make([]byte, len(original.Pix))
	copy(before, original.Pix)

	overlays := []compose.Overlay{
		{Type: badge.TypeAudio, Image: testOverlay(color.NRGBA{G: 200, A: 255})},
	}
	if _, err := compose.Compose(original, overlays, compose.DefaultPolicy(0, 12)); err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !bytes.Equal(before, original.Pix) {
		t.Fatal("original poster pixels were mutated")
	}
}

func TestDecodePosterRoundTrip(t *testing.T) {
	data, err := compose.EncodePNG(testPoster())
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := compose.DecodePoster(data)
	if err != nil {
		t.Fatalf("DecodePoster failed: %v", err)
	}
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 600 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if _, err := compose.DecodePoster(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
