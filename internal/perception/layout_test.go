package perception

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// newFrame builds a frame with the given rectangles filled.
func newFrame(width, height int, rects ...image.Rectangle) *frame.Frame {
	return frame.New(newMask(width, height, rects...))
}

func newMask(width, height int, rects ...image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// blob returns the 50x50 square whose bounding-box centre is (cx, cy).
func blob(cx, cy int) image.Rectangle {
	return image.Rect(cx-25, cy-25, cx+25, cy+25)
}

func TestLayout_Bands(t *testing.T) {
	bands, err := Layout{}.Bands(640, 480)
	require.NoError(t, err)

	assert.Equal(t, [3]frame.Region{
		{X0: 0, X1: 213, Y0: 192, Y1: 288},
		{X0: 213, X1: 426, Y0: 192, Y1: 288},
		{X0: 426, X1: 640, Y0: 192, Y1: 288},
	}, bands)

	full, err := Layout{FullHeightBands: true}.Bands(640, 480)
	require.NoError(t, err)
	for _, b := range full {
		assert.Equal(t, 0, b.Y0)
		assert.Equal(t, 480, b.Y1)
	}
}

func TestLayout_MarkerRegions(t *testing.T) {
	window, err := Layout{}.MarkerWindow(640, 480)
	require.NoError(t, err)
	assert.Equal(t, frame.Region{X0: 298, X1: 340, Y0: 192, Y1: 288}, window)

	strip, err := Layout{}.ValidationStrip(640, 480)
	require.NoError(t, err)
	assert.Equal(t, frame.Region{X0: 298, X1: 340, Y0: 384, Y1: 480}, strip)

	assert.Equal(t, window.Width(), strip.Width())
	assert.Equal(t, window.Height(), strip.Height())
}

func TestLayout_AdjustZones(t *testing.T) {
	zones, err := Layout{}.AdjustZones(640, 480)
	require.NoError(t, err)

	assert.Equal(t, [3]frame.Region{
		{X0: 548, X1: 640, Y0: 0, Y1: 480},
		{X0: 457, X1: 548, Y0: 0, Y1: 480},
		{X0: 365, X1: 457, Y0: 0, Y1: 480},
	}, zones)
}

func TestLayout_FrameTooSmall(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"bands", func() error { _, err := Layout{}.Bands(2, 480); return err }},
		{"marker window", func() error { _, err := Layout{}.MarkerWindow(10, 480); return err }},
		{"validation strip", func() error { _, err := Layout{}.ValidationStrip(14, 480); return err }},
		{"adjust zones", func() error { _, err := Layout{}.AdjustZones(3, 480); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			assert.True(t, errors.Is(err, ErrFrameTooSmall), "got %v", err)
		})
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{7, 2, 3},
		{-7, 2, -4},
		{-1, 2, -1},
		{-4, 2, -2},
		{0, 2, 0},
		{7, -2, -4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, floorDiv(tt.a, tt.b), "%d/%d", tt.a, tt.b)
	}
}

func TestLayout_NamedRegion(t *testing.T) {
	var l Layout
	tests := []struct {
		name string
		want frame.Region
	}{
		{"band_left", frame.Region{X0: 0, X1: 213, Y0: 192, Y1: 288}},
		{"band_center", frame.Region{X0: 213, X1: 426, Y0: 192, Y1: 288}},
		{"band_right", frame.Region{X0: 426, X1: 640, Y0: 192, Y1: 288}},
		{"marker_window", frame.Region{X0: 298, X1: 340, Y0: 192, Y1: 288}},
		{"validation_strip", frame.Region{X0: 298, X1: 340, Y0: 384, Y1: 480}},
		{"zone_rightmost", frame.Region{X0: 548, X1: 640, Y0: 0, Y1: 480}},
		{"zone_mid_right", frame.Region{X0: 457, X1: 548, Y0: 0, Y1: 480}},
		{"zone_left_right", frame.Region{X0: 365, X1: 457, Y0: 0, Y1: 480}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.NamedRegion(tt.name, 640, 480)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Len(t, RegionNames(), len(tests))

	_, err := l.NamedRegion("roof", 640, 480)
	assert.Error(t, err)
	_, err = l.NamedRegion("band_left", 2, 480)
	assert.True(t, errors.Is(err, ErrFrameTooSmall))
}
