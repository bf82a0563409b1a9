package perception

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// In a 640x480 frame the marker window starts at (298,192) and the
// validation strip at (298,384); both are 42x96.
var (
	windowOrigin = image.Pt(298, 192)
	stripOrigin  = image.Pt(298, 384)
)

// markerQuadrant fills the marker window from local (10,40) to its bottom
// right edge, leaving one corner inside the window.
func markerQuadrant() image.Rectangle {
	return image.Rect(10, 40, 42, 96).Add(windowOrigin)
}

// stripBlob is a 6x6 square at strip-local (x, y).
func stripBlob(x, y int) image.Rectangle {
	return image.Rect(x, y, x+6, y+6).Add(stripOrigin)
}

func testMarkerParams() MarkerParams {
	return MarkerParams{HThreshold: 15, VThreshold: 15, AreaThreshold: 10, Confirmations: 3}
}

func newDetector(t *testing.T) *MarkerDetector {
	t.Helper()
	d, err := NewMarkerDetector(Layout{}, testMarkerParams(), 0)
	require.NoError(t, err)
	return d
}

func TestStrongestCorner_Quadrant(t *testing.T) {
	f := newFrame(42, 96, image.Rect(10, 40, 42, 96))

	p, response, ok := StrongestCorner(f.Full())

	require.True(t, ok)
	assert.Positive(t, response)
	assert.InDelta(t, 10, p.X, 2)
	assert.InDelta(t, 40, p.Y, 2)
}

func TestStrongestCorner_NoCorner(t *testing.T) {
	tests := []struct {
		name  string
		rects []image.Rectangle
	}{
		{"empty", nil},
		{"full", []image.Rectangle{image.Rect(0, 0, 42, 96)}},
		{"horizontal edge", []image.Rectangle{image.Rect(0, 50, 42, 96)}},
		{"vertical edge", []image.Rectangle{image.Rect(20, 0, 42, 96)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFrame(42, 96, tt.rects...)

			_, _, ok := StrongestCorner(f.Full())

			assert.False(t, ok)
		})
	}
}

func TestHarrisResponse_EdgeIsNegativeFlatIsZero(t *testing.T) {
	f := newFrame(20, 20, image.Rect(0, 10, 20, 20))

	r := HarrisResponse(f.Full(), HarrisBlockSize, HarrisK)

	require.Len(t, r, 20)
	assert.Zero(t, r[2][5], "flat background")
	assert.Zero(t, r[17][5], "flat foreground")
	assert.Negative(t, r[10][5], "straight edge")
}

func TestMarkerDetector_ThreeMatchesDetect(t *testing.T) {
	f := newFrame(640, 480,
		markerQuadrant(),
		stripBlob(1, 39), stripBlob(9, 39), stripBlob(17, 39),
	)

	signal, obs, err := newDetector(t).Signal(f)
	require.NoError(t, err)

	assert.True(t, obs.FeatureFound)
	assert.Len(t, obs.Candidates, 3)
	assert.Equal(t, 3, obs.Matches)
	assert.Equal(t, SignalDetected, signal)
	assert.Equal(t, frame.Region{X0: 298, X1: 340, Y0: 192, Y1: 288}, obs.Window)
	assert.Equal(t, frame.Region{X0: 298, X1: 340, Y0: 384, Y1: 480}, obs.Strip)
}

func TestMarkerDetector_FeatureIsGlobal(t *testing.T) {
	f := newFrame(640, 480, markerQuadrant())

	obs, err := newDetector(t).Observe(f)
	require.NoError(t, err)

	require.True(t, obs.FeatureFound)
	assert.InDelta(t, windowOrigin.X+10, obs.Feature.X, 2)
	assert.InDelta(t, windowOrigin.Y+40, obs.Feature.Y, 2)
}

func TestMarkerDetector_MatchesAreWindowRelative(t *testing.T) {
	params := testMarkerParams()
	f := newFrame(640, 480,
		markerQuadrant(),
		stripBlob(1, 39), stripBlob(9, 39), stripBlob(17, 39),
	)

	obs, err := newDetector(t).Observe(f)
	require.NoError(t, err)
	require.True(t, obs.FeatureFound)
	require.Len(t, obs.Candidates, 3)
	assert.Equal(t, 3, obs.Matches)

	// Compared in frame coordinates the strip rows sit below the whole
	// window, so no candidate could ever be within tolerance.
	feature := image.Pt(obs.Feature.X, obs.Feature.Y)
	for _, c := range obs.Candidates {
		global := c.Centroid.Point()
		assert.Greater(t, global.Y-feature.Y, obs.Strip.Y0-obs.Window.Y1)
		assert.False(t, coincides(global, feature, params.HThreshold, params.VThreshold), "candidate at %v", global)
	}
}

func TestMarkerDetector_PartialMatchesDoNotDetect(t *testing.T) {
	f := newFrame(640, 480,
		markerQuadrant(),
		stripBlob(1, 39), stripBlob(9, 39),
	)

	signal, obs, err := newDetector(t).Signal(f)
	require.NoError(t, err)

	assert.Equal(t, 2, obs.Matches)
	assert.Equal(t, SignalNone, signal)
}

func TestMarkerDetector_FarCentroidsDoNotMatch(t *testing.T) {
	f := newFrame(640, 480,
		markerQuadrant(),
		stripBlob(1, 80), stripBlob(9, 80), stripBlob(17, 80), // well below the feature
	)

	signal, obs, err := newDetector(t).Signal(f)
	require.NoError(t, err)

	assert.Len(t, obs.Candidates, 3)
	assert.Zero(t, obs.Matches)
	assert.Equal(t, SignalNone, signal)
}

func TestMarkerDetector_NoFeatureNoSignal(t *testing.T) {
	f := newFrame(640, 480, stripBlob(1, 39), stripBlob(9, 39), stripBlob(17, 39))

	signal, obs, err := newDetector(t).Signal(f)
	require.NoError(t, err)

	assert.False(t, obs.FeatureFound)
	assert.Len(t, obs.Candidates, 3)
	assert.Zero(t, obs.Matches)
	assert.Equal(t, SignalNone, signal)
}

func TestMarkerDetector_SmallStripContoursIgnored(t *testing.T) {
	d := newDetector(t)
	d.Params.AreaThreshold = 100
	f := newFrame(640, 480,
		markerQuadrant(),
		stripBlob(1, 39), stripBlob(9, 39), stripBlob(17, 39),
	)

	obs, err := d.Observe(f)
	require.NoError(t, err)

	assert.Empty(t, obs.Candidates)
	assert.Zero(t, obs.Matches)
}

func TestMarkerDetector_FrameTooSmall(t *testing.T) {
	_, _, err := newDetector(t).Signal(frame.Blank(10, 10))

	assert.True(t, errors.Is(err, ErrFrameTooSmall))
}

func TestMarkerParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultMarkerParams().Validate())

	tests := []struct {
		name   string
		mutate func(*MarkerParams)
	}{
		{"h", func(p *MarkerParams) { p.HThreshold = 0 }},
		{"v", func(p *MarkerParams) { p.VThreshold = -1 }},
		{"area", func(p *MarkerParams) { p.AreaThreshold = 0 }},
		{"confirmations", func(p *MarkerParams) { p.Confirmations = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultMarkerParams()
			tt.mutate(&p)

			_, err := NewMarkerDetector(Layout{}, p, 0)

			assert.True(t, errors.Is(err, ErrInvalidThreshold))
		})
	}
}

func TestConfirmSignal(t *testing.T) {
	tests := []struct {
		matches, confirmations int
		want                   Signal
	}{
		{0, 3, SignalNone},
		{1, 3, SignalNone},
		{2, 3, SignalNone},
		{3, 3, SignalDetected},
		{4, 3, SignalNone},
		{6, 3, SignalDetected},
		{1, 1, SignalDetected},
		{3, 0, SignalNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfirmSignal(tt.matches, tt.confirmations), "%d/%d", tt.matches, tt.confirmations)
	}
}

func TestDebouncer(t *testing.T) {
	d, err := NewDebouncer(3, false)
	require.NoError(t, err)

	assert.Equal(t, SignalNone, d.Update(1))
	assert.Equal(t, SignalNone, d.Update(0), "a miss keeps the count")
	assert.Equal(t, SignalNone, d.Update(1))
	assert.Equal(t, 2, d.Count())
	assert.Equal(t, SignalDetected, d.Update(1))
	assert.Zero(t, d.Count(), "detection starts a new count")

	assert.Equal(t, SignalDetected, d.Update(5), "one frame can confirm")
	assert.Zero(t, d.Count(), "surplus matches are discarded")
}

func TestDebouncer_ResetOnMiss(t *testing.T) {
	d, err := NewDebouncer(3, true)
	require.NoError(t, err)

	d.Update(2)
	d.Update(0)
	assert.Zero(t, d.Count())
	assert.Equal(t, SignalNone, d.Update(2))

	d.Reset()
	assert.Zero(t, d.Count())
}

func TestNewDebouncer_RejectsZero(t *testing.T) {
	_, err := NewDebouncer(0, false)

	assert.True(t, errors.Is(err, ErrInvalidThreshold))
}
