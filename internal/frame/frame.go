package frame

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/segment"
)

var (
	// ErrRegionOutOfBounds is returned when a region extends past the frame.
	ErrRegionOutOfBounds = errors.New("region outside frame bounds")

	// ErrEmptyRegion is returned when a region has zero width or height.
	ErrEmptyRegion = errors.New("empty region")
)

// Frame is an immutable binary edge mask.
type Frame struct {
	gray *image.Gray
}

// New wraps a grayscale mask. The pixels are copied, normalized to 0/255 and
// rebased so that the frame's bounds start at (0,0).
func New(src *image.Gray) *Frame {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		srcRow := src.Pix[off : off+b.Dx()]
		dstRow := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x, v := range srcRow {
			if v != 0 {
				dstRow[x] = 255
			}
		}
	}
	return &Frame{gray: gray}
}

// FromImage binarizes an arbitrary image: pixels whose luminance reaches
// level become foreground.
func FromImage(img image.Image, level uint8) *Frame {
	return New(segment.Threshold(img, level))
}

// Blank returns an all-background frame of the given size.
func Blank(width, height int) *Frame {
	return &Frame{gray: image.NewGray(image.Rect(0, 0, width, height))}
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.gray.Rect.Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.gray.Rect.Dy() }

// Bounds returns the frame rectangle, always anchored at (0,0).
func (f *Frame) Bounds() image.Rectangle { return f.gray.Rect }

// Foreground reports whether the pixel at (x, y) is set. Coordinates outside
// the frame are background.
func (f *Frame) Foreground(x, y int) bool {
	if x < 0 || y < 0 || x >= f.Width() || y >= f.Height() {
		return false
	}
	return f.gray.Pix[y*f.gray.Stride+x] != 0
}

// Gray returns a copy of the mask.
func (f *Frame) Gray() *image.Gray {
	out := image.NewGray(f.gray.Rect)
	copy(out.Pix, f.gray.Pix)
	return out
}

// Full returns a view covering the whole frame.
func (f *Frame) Full() View {
	return View{f: f, r: Region{X0: 0, X1: f.Width(), Y0: 0, Y1: f.Height()}}
}

// Region returns a read-only view of r. The region must lie inside the frame
// and cover at least one pixel.
func (f *Frame) Region(r Region) (View, error) {
	if r.Empty() {
		return View{}, fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrEmptyRegion, r.X0, r.Y0, r.X1, r.Y1)
	}
	if r.X0 < 0 || r.Y0 < 0 || r.X1 > f.Width() || r.Y1 > f.Height() {
		return View{}, fmt.Errorf("%w: (%d,%d)-(%d,%d) in %dx%d frame",
			ErrRegionOutOfBounds, r.X0, r.Y0, r.X1, r.Y1, f.Width(), f.Height())
	}
	return View{f: f, r: r}, nil
}

// Region is a half-open rectangle in frame coordinates.
type Region struct {
	X0 int `json:"x0"`
	X1 int `json:"x1"`
	Y0 int `json:"y0"`
	Y1 int `json:"y1"`
}

// Width returns X1 - X0.
func (r Region) Width() int { return r.X1 - r.X0 }

// Height returns Y1 - Y0.
func (r Region) Height() int { return r.Y1 - r.Y0 }

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Origin returns the top-left corner.
func (r Region) Origin() image.Point { return image.Pt(r.X0, r.Y0) }

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle { return image.Rect(r.X0, r.Y0, r.X1, r.Y1) }

// View is a read-only window onto a Frame. Coordinates passed to At are local
// to the view.
type View struct {
	f *Frame
	r Region
}

// At reports whether the local pixel (x, y) is foreground. Pixels outside the
// view are background.
func (v View) At(x, y int) bool {
	if x < 0 || y < 0 || x >= v.r.Width() || y >= v.r.Height() {
		return false
	}
	return v.f.gray.Pix[(v.r.Y0+y)*v.f.gray.Stride+v.r.X0+x] != 0
}

// Width returns the view width.
func (v View) Width() int { return v.r.Width() }

// Height returns the view height.
func (v View) Height() int { return v.r.Height() }

// Origin returns the frame-global position of the view's (0,0).
func (v View) Origin() image.Point { return v.r.Origin() }

// Region returns the region the view was cut from.
func (v View) Region() Region { return v.r }

// Gray copies the view into a standalone grayscale image anchored at (0,0).
func (v View) Gray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, v.r.Width(), v.r.Height()))
	draw.Draw(out, out.Bounds(), v.f.gray, v.r.Origin(), draw.Src)
	return out
}
