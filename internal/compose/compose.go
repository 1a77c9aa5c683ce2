package compose

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	"lacquer/internal/badge"
)

// Corner names a poster corner an overlay anchors to.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Overlay pairs a rendered badge image with its type.
type Overlay struct {
	Type  badge.Type
	Image image.Image
}

// LayoutPolicy assigns each badge type a corner and fixes the spacing used
// when several overlays stack in the same corner.
type LayoutPolicy struct {
	Corners      map[badge.Type]Corner
	EdgeMargin   int
	StackPadding int
}

// DefaultPolicy returns the standard badge placement: resolution top left,
// audio top right, review bottom right, awards bottom left.
func DefaultPolicy(edgeMargin, stackPadding int) LayoutPolicy {
	if edgeMargin < 0 {
		edgeMargin = 0
	}
	if stackPadding <= 0 {
		stackPadding = 12
	}
	return LayoutPolicy{
		Corners: map[badge.Type]Corner{
			badge.TypeResolution: TopLeft,
			badge.TypeAudio:      TopRight,
			badge.TypeReview:     BottomRight,
			badge.TypeAwards:     BottomLeft,
		},
		EdgeMargin:   edgeMargin,
		StackPadding: stackPadding,
	}
}

// Result is the composited poster plus per-overlay accounting.
type Result struct {
	Image   *image.NRGBA
	Applied []badge.Type
	Failed  []badge.Type
}

// Compose merges overlays onto a copy of the original poster. Overlays stack
// within a corner in badge priority order, so placement is reproducible
// regardless of the order overlays arrive in. A malformed overlay is skipped
// and recorded in Failed; composition never aborts because of one bad overlay.
func Compose(original image.Image, overlays []Overlay, policy LayoutPolicy) (Result, error) {
	if original == nil {
		return Result{}, errors.New("compose: original image must not be nil")
	}
	bounds := original.Bounds()
	if bounds.Empty() {
		return Result{}, errors.New("compose: original image is empty")
	}

	// Work on a copy; the source poster is never mutated.
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), original, bounds.Min, draw.Src)

	ordered := make([]Overlay, len(overlays))
	copy(ordered, overlays)
	sortOverlays(ordered)

	result := Result{Image: canvas}
	stackOffsets := make(map[Corner]int)

	for _, overlay := range ordered {
		if !validOverlay(overlay, canvas.Bounds()) {
			result.Failed = append(result.Failed, overlay.Type)
			continue
		}
		corner, ok := policy.Corners[overlay.Type]
		if !ok {
			result.Failed = append(result.Failed, overlay.Type)
			continue
		}
		origin := overlayOrigin(canvas.Bounds(), overlay.Image.Bounds(), corner, policy.EdgeMargin, stackOffsets[corner])
		target := image.Rectangle{Min: origin, Max: origin.Add(overlay.Image.Bounds().Size())}
		draw.Draw(canvas, target, overlay.Image, overlay.Image.Bounds().Min, draw.Over)

		stackOffsets[corner] += overlay.Image.Bounds().Dy() + policy.StackPadding
		result.Applied = append(result.Applied, overlay.Type)
	}

	return result, nil
}

func sortOverlays(overlays []Overlay) {
	for i := 1; i < len(overlays); i++ {
		for j := i; j > 0 && overlays[j].Type.Priority() < overlays[j-1].Type.Priority(); j-- {
			overlays[j], overlays[j-1] = overlays[j-1], overlays[j]
		}
	}
}

func validOverlay(overlay Overlay, poster image.Rectangle) bool {
	if overlay.Image == nil {
		return false
	}
	bounds := overlay.Image.Bounds()
	if bounds.Empty() {
		return false
	}
	return bounds.Dx() <= poster.Dx() && bounds.Dy() <= poster.Dy()
}

func overlayOrigin(poster, overlay image.Rectangle, corner Corner, margin, stackOffset int) image.Point {
	switch corner {
	case TopLeft:
		return image.Point{X: margin, Y: margin + stackOffset}
	case TopRight:
		return image.Point{X: poster.Dx() - overlay.Dx() - margin, Y: margin + stackOffset}
	case BottomLeft:
		return image.Point{X: margin, Y: poster.Dy() - overlay.Dy() - margin - stackOffset}
	default: // BottomRight
		return image.Point{X: poster.Dx() - overlay.Dx() - margin, Y: poster.Dy() - overlay.Dy() - margin - stackOffset}
	}
}

// DecodePoster decodes poster bytes in any registered format (PNG, JPEG).
func DecodePoster(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("compose: poster payload is empty")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode poster: %w", err)
	}
	return img, nil
}

// EncodePNG serializes the composite in the fixed output format. PNG encoding
// with default settings is deterministic, which keeps repeat composites
// byte-identical.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode composite: %w", err)
	}
	return buf.Bytes(), nil
}
