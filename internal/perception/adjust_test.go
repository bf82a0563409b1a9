package perception

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/linefollow-vision/internal/contour"
	"github.com/ironsheep/linefollow-vision/internal/frame"
)

func newBandAdjuster(t *testing.T) *PositionAdjuster {
	t.Helper()
	a, err := NewPositionAdjuster(BandFollow, newFollower(t), newDetector(t), 500)
	require.NoError(t, err)
	return a
}

func newZonedAdjuster(t *testing.T) *PositionAdjuster {
	t.Helper()
	a, err := NewPositionAdjuster(ZonedScan, newFollower(t), nil, 100)
	require.NoError(t, err)
	return a
}

func TestAdjust_BandFollowKeepsSteering(t *testing.T) {
	f := newFrame(640, 480, blob(80, 240), blob(320, 240), blob(500, 240))

	got, err := newBandAdjuster(t).Adjust(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, BandFollow, got.Strategy)
	assert.Equal(t, SignalNone, got.Signal)
	assert.False(t, got.Centered())
	require.True(t, got.Steering.Valid)
	assert.Equal(t, TurnLeft, got.Steering.Turn)
}

func TestAdjust_BandFollowCenteredOnSignal(t *testing.T) {
	f := newFrame(640, 480,
		markerQuadrant(),
		stripBlob(1, 39), stripBlob(9, 39), stripBlob(17, 39),
	)

	got, err := newBandAdjuster(t).Adjust(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, SignalDetected, got.Signal)
	assert.Equal(t, 3, got.Marker.Matches)
	assert.True(t, got.Centered())
	assert.False(t, got.Steering.Valid, "only the centre band sees the marker")
}

func TestAdjust_BandFollowMatchesSequential(t *testing.T) {
	f := newFrame(640, 480,
		blob(80, 240), blob(320, 240), blob(560, 240),
		stripBlob(1, 39), stripBlob(9, 39),
	)
	a := newBandAdjuster(t)

	got, err := a.Adjust(context.Background(), f)
	require.NoError(t, err)

	steering, err := a.Follower.FollowLine(f)
	require.NoError(t, err)
	signal, obs, err := a.Marker.Signal(f)
	require.NoError(t, err)

	assert.Equal(t, steering, got.Steering)
	assert.Equal(t, signal, got.Signal)
	assert.Equal(t, obs, got.Marker)
}

func TestAdjust_ZonedScan(t *testing.T) {
	// 700 wide: zones are [600,700) [500,600) [400,500).
	rightmost := image.Rect(620, 30, 660, 70)
	midRight := image.Rect(520, 30, 560, 70)
	leftRight := image.Rect(420, 30, 460, 70)
	outside := image.Rect(100, 30, 140, 70)

	tests := []struct {
		name         string
		rects        []image.Rectangle
		wantZone     AdjustZone
		wantCentroid *contour.Centroid
	}{
		{"rightmost", []image.Rectangle{rightmost}, ZoneRightmost, centroid(640, 50)},
		{"mid right", []image.Rectangle{midRight}, ZoneMidRight, centroid(540, 50)},
		{"left right", []image.Rectangle{leftRight}, ZoneLeftRight, centroid(440, 50)},
		{"outermost wins", []image.Rectangle{leftRight, midRight, rightmost}, ZoneRightmost, centroid(640, 50)},
		{"centered", []image.Rectangle{outside}, ZoneCentered, nil},
		{"empty", nil, ZoneCentered, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFrame(700, 100, tt.rects...)

			got, err := newZonedAdjuster(t).Adjust(context.Background(), f)
			require.NoError(t, err)

			assert.Equal(t, ZonedScan, got.Strategy)
			assert.Equal(t, tt.wantZone, got.Zone)
			assert.Equal(t, tt.wantCentroid, got.ZoneCentroid)
			assert.Equal(t, tt.wantZone == ZoneCentered, got.Centered())
		})
	}
}

func TestAdjust_ZonedScanIgnoresSmallContours(t *testing.T) {
	f := newFrame(700, 100, image.Rect(620, 30, 625, 35))

	got, err := newZonedAdjuster(t).Adjust(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, ZoneCentered, got.Zone)
}

func TestAdjust_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFrame(640, 480, blob(80, 240), blob(320, 240), blob(560, 240))

	for _, a := range []*PositionAdjuster{newBandAdjuster(t), newZonedAdjuster(t)} {
		_, err := a.Adjust(ctx, f)
		assert.True(t, errors.Is(err, context.Canceled), "%s: got %v", a.Strategy, err)
	}
}

func TestAdjust_FrameTooSmall(t *testing.T) {
	for _, a := range []*PositionAdjuster{newBandAdjuster(t), newZonedAdjuster(t)} {
		_, err := a.Adjust(context.Background(), frame.Blank(3, 3))
		assert.True(t, errors.Is(err, ErrFrameTooSmall), "%s: got %v", a.Strategy, err)
	}
}

func TestNewPositionAdjuster_Validation(t *testing.T) {
	_, err := NewPositionAdjuster(BandFollow, nil, newDetector(t), 500)
	assert.Error(t, err)

	_, err = NewPositionAdjuster(ZonedScan, nil, nil, 0)
	assert.True(t, errors.Is(err, ErrInvalidThreshold))

	_, err = NewPositionAdjuster(AdjustStrategy(9), newFollower(t), newDetector(t), 500)
	assert.Error(t, err)
}

func TestParseAdjustStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    AdjustStrategy
		wantErr bool
	}{
		{"", BandFollow, false},
		{"band_follow", BandFollow, false},
		{"Zoned_Scan", ZonedScan, false},
		{"spiral", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAdjustStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	var s AdjustStrategy
	require.NoError(t, s.UnmarshalText([]byte("zoned_scan")))
	assert.Equal(t, ZonedScan, s)
}
