package perception

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

func TestOverlay_MarksCentroids(t *testing.T) {
	f := newFrame(640, 480, blob(80, 240), blob(320, 240), blob(560, 240))
	ov := NewOverlay(f.Gray())
	lf := newFollower(t)
	lf.Extractor.Annotator = ov

	_, err := lf.FollowLine(f)
	require.NoError(t, err)

	img := ov.Image()
	want := color.RGBA{R: 0xFF, G: 0x17, B: 0x44, A: 0xFF}
	for _, p := range []image.Point{{80, 240}, {320, 240}, {560, 240}} {
		assert.Equal(t, want, img.RGBAAt(p.X, p.Y), "centroid %v", p)
	}
}

func TestOverlay_DrawLayout(t *testing.T) {
	ov := NewOverlay(frame.Blank(640, 480).Gray())

	require.NoError(t, ov.DrawLayout(Layout{}))

	img := ov.Image()
	assert.Equal(t, color.RGBA{R: 0x00, G: 0xC8, B: 0x53, A: 0xFF}, img.RGBAAt(0, 192), "band outline")
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0x91, B: 0x00, A: 0xFF}, img.RGBAAt(298, 479), "strip outline")
	assert.Equal(t, color.RGBA{A: 0xFF}, img.RGBAAt(100, 100), "untouched background")
}

func TestOverlay_DrawLayoutFrameTooSmall(t *testing.T) {
	ov := NewOverlay(frame.Blank(4, 4).Gray())

	assert.ErrorIs(t, ov.DrawLayout(Layout{}), ErrFrameTooSmall)
}

func TestOverlay_MarkZoneTints(t *testing.T) {
	ov := NewOverlay(frame.Blank(70, 10).Gray())

	ov.MarkZone(frame.Region{X0: 60, X1: 70, Y0: 0, Y1: 10})

	img := ov.Image()
	tinted := img.RGBAAt(65, 5)
	assert.Zero(t, tinted.R)
	assert.Positive(t, tinted.G)
	assert.Positive(t, tinted.B)
	assert.Equal(t, color.RGBA{A: 0xFF}, img.RGBAAt(10, 5))
}

func TestOverlay_MarkFeatureAndEncode(t *testing.T) {
	ov := NewOverlay(frame.Blank(40, 40).Gray())

	ov.MarkFeature(image.Pt(20, 20))

	img := ov.Image()
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xEA, B: 0x00, A: 0xFF}, img.RGBAAt(16, 16))

	encoded, err := ov.EncodePNG()
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(raw[:4]))
}
