package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"lacquer/internal/badge"
)

// ErrNoMapping indicates the normalized data matches no known visual mapping.
// Callers treat this as a skipped badge, not a failed one.
var ErrNoMapping = errors.New("render: no visual mapping")

const (
	glyphWidth   = 7 // basicfont.Face7x13 advance
	glyphHeight  = 13
	textPadX     = 8
	textPadY     = 6
	cornerRadius = 4
)

// backgrounds fixes the fill color per badge type.
var backgrounds = map[badge.Type]color.NRGBA{
	badge.TypeResolution: {R: 0x1f, G: 0x6f, B: 0xeb},
	badge.TypeAudio:      {R: 0x23, G: 0x86, B: 0x3a},
	badge.TypeReview:     {R: 0xd2, G: 0x99, B: 0x22},
	badge.TypeAwards:     {R: 0x8a, G: 0x2b, B: 0xe2},
}

// Options controls badge geometry.
type Options struct {
	// TextSize is the requested glyph height in pixels; rendering scales the
	// fixed 7x13 face by the nearest integer factor.
	TextSize int
	// MaxWidth caps the overall badge width in pixels. Scaling backs off to
	// the largest integer factor that fits; the unscaled badge is never
	// shrunk below factor 1.
	MaxWidth int
	// BackgroundOpacity in (0, 1].
	BackgroundOpacity float64
}

// Renderer turns normalized badge data into overlay images. The mapping is
// deterministic: identical inputs produce byte-identical output.
type Renderer struct {
	opts Options
}

// New constructs a renderer.
func New(opts Options) *Renderer {
	if opts.TextSize <= 0 {
		opts.TextSize = glyphHeight
	}
	if opts.BackgroundOpacity <= 0 || opts.BackgroundOpacity > 1 {
		opts.BackgroundOpacity = 0.85
	}
	return &Renderer{opts: opts}
}

// Render produces the overlay image for one badge.
func (r *Renderer) Render(badgeType badge.Type, data badge.Data) (image.Image, error) {
	text, err := label(badgeType, data)
	if err != nil {
		return nil, err
	}

	bg, ok := backgrounds[badgeType]
	if !ok {
		return nil, ErrNoMapping
	}
	bg.A = uint8(r.opts.BackgroundOpacity * 0xff)

	width := len(text)*glyphWidth + 2*textPadX
	height := glyphHeight + 2*textPadY

	base := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillRoundedRect(base, bg, cornerRadius)

	drawer := font.Drawer{
		Dst:  base,
		Src:  image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(textPadX),
			Y: fixed.I(textPadY + basicfont.Face7x13.Ascent),
		},
	}
	drawer.DrawString(text)

	scale := r.opts.TextSize / glyphHeight
	if r.opts.MaxWidth > 0 {
		for scale > 1 && width*scale > r.opts.MaxWidth {
			scale--
		}
	}
	if scale <= 1 {
		return base, nil
	}
	return scaleNearest(base, scale), nil
}

// fillRoundedRect fills the image bounds with c, leaving the corner pixels
// outside the radius transparent.
func fillRoundedRect(dst *image.NRGBA, c color.NRGBA, radius int) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(c), image.Point{}, draw.Src)

	corners := []image.Point{
		{X: bounds.Min.X + radius - 1, Y: bounds.Min.Y + radius - 1},
		{X: bounds.Max.X - radius, Y: bounds.Min.Y + radius - 1},
		{X: bounds.Min.X + radius - 1, Y: bounds.Max.Y - radius},
		{X: bounds.Max.X - radius, Y: bounds.Max.Y - radius},
	}
	clear := color.NRGBA{}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			inCornerBox := (x < bounds.Min.X+radius || x >= bounds.Max.X-radius) &&
				(y < bounds.Min.Y+radius || y >= bounds.Max.Y-radius)
			if !inCornerBox {
				continue
			}
			inside := false
			for _, center := range corners {
				dx := x - center.X
				dy := y - center.Y
				if dx*dx+dy*dy <= radius*radius {
					inside = true
					break
				}
			}
			if !inside {
				dst.SetNRGBA(x, y, clear)
			}
		}
	}
}

// scaleNearest integer-upscales src. Nearest neighbor keeps the output
// byte-stable across platforms.
func scaleNearest(src *image.NRGBA, factor int) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	for y := 0; y < dst.Bounds().Dy(); y++ {
		for x := 0; x < dst.Bounds().Dx(); x++ {
			dst.SetNRGBA(x, y, src.NRGBAAt(bounds.Min.X+x/factor, bounds.Min.Y+y/factor))
		}
	}
	return dst
}
