package perception

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/linefollow-vision/internal/contour"
	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// Annotator receives diagnostic marks from the analyzers. Marks never feed
// back into a decision.
type Annotator interface {
	contour.Annotator
	MarkFeature(p image.Point)
	MarkZone(r frame.Region)
}

// Overlay palette.
var (
	colorBand     = mustHex("#00C853")
	colorWindow   = mustHex("#2979FF")
	colorStrip    = mustHex("#FF9100")
	colorZone     = mustHex("#00E5FF")
	colorCentroid = mustHex("#FF1744")
	colorFeature  = mustHex("#FFEA00")
	colorLabel    = mustHex("#FFFFFF")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("bad palette color %q: %v", s, err))
	}
	return c
}

// Overlay draws layout regions and analyzer marks over a frame. It is safe
// for concurrent use, so one overlay can be shared by analyzers running in
// parallel on the same frame.
type Overlay struct {
	mu  sync.Mutex
	img *image.RGBA

	// Radius is the half size of centroid and feature crosses.
	Radius int

	// Labels adds the coordinates next to each centroid.
	Labels bool
}

// NewOverlay copies base into a new RGBA canvas.
func NewOverlay(base image.Image) *Overlay {
	bounds := base.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(img, img.Bounds(), base, bounds.Min, draw.Src)
	return &Overlay{img: img, Radius: 4, Labels: true}
}

// MarkCentroid draws a cross at a contour centroid.
func (o *Overlay) MarkCentroid(p image.Point) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cross(p, colorCentroid)
	if o.Labels {
		o.label(p.X+o.Radius+2, p.Y+o.Radius+2, fmt.Sprintf("%d,%d", p.X, p.Y))
	}
}

// MarkFeature draws a square around the marker feature point.
func (o *Overlay) MarkFeature(p image.Point) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r := o.Radius
	o.rect(image.Rect(p.X-r, p.Y-r, p.X+r+1, p.Y+r+1), colorFeature)
}

// MarkZone tints the occupied adjust zone.
func (o *Overlay) MarkZone(r frame.Region) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tint(r.Rect(), colorZone, 0.35)
}

// DrawLayout outlines the follow bands, the marker window and the validation
// strip for a frame of the overlay's size.
func (o *Overlay) DrawLayout(l Layout) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	w, h := o.img.Rect.Dx(), o.img.Rect.Dy()
	bands, err := l.Bands(w, h)
	if err != nil {
		return err
	}
	window, err := l.MarkerWindow(w, h)
	if err != nil {
		return err
	}
	strip, err := l.ValidationStrip(w, h)
	if err != nil {
		return err
	}

	for _, b := range bands {
		o.rect(b.Rect(), colorBand)
	}
	o.rect(window.Rect(), colorWindow)
	o.rect(strip.Rect(), colorStrip)
	return nil
}

// Image returns a copy of the canvas.
func (o *Overlay) Image() *image.RGBA {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := image.NewRGBA(o.img.Rect)
	copy(out.Pix, o.img.Pix)
	return out
}

// EncodePNG returns the canvas as base64 PNG.
func (o *Overlay) EncodePNG() (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, o.Image()); err != nil {
		return "", fmt.Errorf("failed to encode overlay: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (o *Overlay) set(x, y int, c color.Color) {
	if image.Pt(x, y).In(o.img.Rect) {
		o.img.Set(x, y, c)
	}
}

func (o *Overlay) cross(p image.Point, c color.Color) {
	for d := -o.Radius; d <= o.Radius; d++ {
		o.set(p.X+d, p.Y, c)
		o.set(p.X, p.Y+d, c)
	}
}

// rect draws the 1-pixel outline of r.
func (o *Overlay) rect(r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		o.set(x, r.Min.Y, c)
		o.set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o.set(r.Min.X, y, c)
		o.set(r.Max.X-1, y, c)
	}
}

// tint blends c into every pixel of r by t in [0,1].
func (o *Overlay) tint(r image.Rectangle, c colorful.Color, t float64) {
	r = r.Intersect(o.img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			base, ok := colorful.MakeColor(o.img.At(x, y))
			if !ok {
				continue
			}
			o.img.Set(x, y, base.BlendRgb(c, t).Clamped())
		}
	}
}

// 3x5 glyphs for coordinate labels.
var glyphs = map[rune][3 * 5]byte{
	'0': {1, 1, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 1, 1},
	'1': {0, 1, 0, 1, 1, 0, 0, 1, 0, 0, 1, 0, 1, 1, 1},
	'2': {1, 1, 1, 0, 0, 1, 1, 1, 1, 1, 0, 0, 1, 1, 1},
	'3': {1, 1, 1, 0, 0, 1, 1, 1, 1, 0, 0, 1, 1, 1, 1},
	'4': {1, 0, 1, 1, 0, 1, 1, 1, 1, 0, 0, 1, 0, 0, 1},
	'5': {1, 1, 1, 1, 0, 0, 1, 1, 1, 0, 0, 1, 1, 1, 1},
	'6': {1, 1, 1, 1, 0, 0, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	'7': {1, 1, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
	'8': {1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	'9': {1, 1, 1, 1, 0, 1, 1, 1, 1, 0, 0, 1, 1, 1, 1},
	',': {0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 0},
}

func (o *Overlay) label(x, y int, text string) {
	const charWidth = 4
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if ok {
			for i, on := range glyph {
				if on == 1 {
					o.set(cx+i%3, y+i/3, colorLabel)
				}
			}
		}
		cx += charWidth
	}
}
