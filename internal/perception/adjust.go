package perception

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/linefollow-vision/internal/contour"
	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// AdjustStrategy selects how PositionAdjuster evaluates a frame.
type AdjustStrategy int

const (
	// BandFollow keeps steering on the follow bands until the marker signal
	// fires again.
	BandFollow AdjustStrategy = iota

	// ZonedScan looks for the line in three zones on the right of the frame.
	ZonedScan
)

var strategyNames = map[AdjustStrategy]string{
	BandFollow: "band_follow",
	ZonedScan:  "zoned_scan",
}

func (s AdjustStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AdjustStrategy(%d)", int(s))
}

// ParseAdjustStrategy converts a configuration name. The empty string selects
// BandFollow.
func ParseAdjustStrategy(name string) (AdjustStrategy, error) {
	if name == "" {
		return BandFollow, nil
	}
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown adjust strategy %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s AdjustStrategy) MarshalText() ([]byte, error) {
	if _, ok := strategyNames[s]; !ok {
		return nil, fmt.Errorf("unknown adjust strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AdjustStrategy) UnmarshalText(text []byte) error {
	parsed, err := ParseAdjustStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AdjustZone is the outcome of a zoned scan.
type AdjustZone int

const (
	ZoneNone AdjustZone = iota
	ZoneRightmost
	ZoneMidRight
	ZoneLeftRight
	ZoneCentered
)

func (z AdjustZone) String() string {
	switch z {
	case ZoneNone:
		return "none"
	case ZoneRightmost:
		return "rightmost"
	case ZoneMidRight:
		return "mid_right"
	case ZoneLeftRight:
		return "left_right"
	case ZoneCentered:
		return "centered"
	}
	return fmt.Sprintf("AdjustZone(%d)", int(z))
}

// MarshalText implements encoding.TextMarshaler.
func (z AdjustZone) MarshalText() ([]byte, error) { return []byte(z.String()), nil }

// scanZones lists the zones in scan order, matching Layout.AdjustZones.
var scanZones = [3]AdjustZone{ZoneRightmost, ZoneMidRight, ZoneLeftRight}

// AdjustResult is one frame's adjustment outcome. Zone is set by both
// strategies; BandFollow also fills Signal, Steering and Marker and leaves
// Zone at ZoneNone unless this frame alone confirms the marker. ZonedScan
// fills ZoneCentroid.
//
// A caller stepping through frames should confirm BandFollow through a
// Debouncer fed with Marker.Matches rather than rely on Centered.
type AdjustResult struct {
	Strategy AdjustStrategy `json:"strategy"`

	Signal   Signal            `json:"signal"`
	Steering SteeringDecision  `json:"steering"`
	Marker   MarkerObservation `json:"marker"`

	Zone         AdjustZone        `json:"zone"`
	ZoneCentroid *contour.Centroid `json:"zone_centroid,omitempty"`
}

// Centered reports whether the adjustment is finished.
func (r AdjustResult) Centered() bool { return r.Zone == ZoneCentered }

// PositionAdjuster re-centres the vehicle over a marker after it stopped.
type PositionAdjuster struct {
	Strategy AdjustStrategy

	// Follower and Marker serve BandFollow.
	Follower *LineFollower
	Marker   *MarkerDetector

	// Layout, Extractor and AreaThreshold serve ZonedScan.
	Layout        Layout
	Extractor     contour.Extractor
	AreaThreshold float64

	// Annotator receives zone marks during ZonedScan.
	Annotator Annotator
}

// NewPositionAdjuster checks that the strategy has what it needs.
func NewPositionAdjuster(strategy AdjustStrategy, follower *LineFollower, marker *MarkerDetector, areaThreshold float64) (*PositionAdjuster, error) {
	switch strategy {
	case BandFollow:
		if follower == nil || marker == nil {
			return nil, fmt.Errorf("band_follow adjustment needs a line follower and a marker detector")
		}
	case ZonedScan:
		if areaThreshold <= 0 {
			return nil, fmt.Errorf("%w: adjust area threshold must be > 0, got %g", ErrInvalidThreshold, areaThreshold)
		}
	default:
		return nil, fmt.Errorf("unknown adjust strategy %d", int(strategy))
	}

	a := &PositionAdjuster{Strategy: strategy, Follower: follower, Marker: marker, AreaThreshold: areaThreshold}
	if follower != nil {
		a.Layout = follower.Layout
		a.Extractor = follower.Extractor
	}
	return a, nil
}

// Adjust evaluates one frame with the configured strategy.
func (a *PositionAdjuster) Adjust(ctx context.Context, f *frame.Frame) (AdjustResult, error) {
	switch a.Strategy {
	case BandFollow:
		return a.bandFollow(ctx, f)
	case ZonedScan:
		return a.zonedScan(ctx, f)
	}
	return AdjustResult{}, fmt.Errorf("unknown adjust strategy %d", int(a.Strategy))
}

// bandFollow evaluates the marker and the follow bands concurrently. Both
// only read the frame.
func (a *PositionAdjuster) bandFollow(ctx context.Context, f *frame.Frame) (AdjustResult, error) {
	result := AdjustResult{Strategy: BandFollow}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		signal, obs, err := a.Marker.Signal(f)
		if err != nil {
			return fmt.Errorf("failed to read marker: %w", err)
		}
		result.Signal, result.Marker = signal, obs
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		steering, err := a.Follower.FollowLine(f)
		if err != nil {
			return fmt.Errorf("failed to follow line: %w", err)
		}
		result.Steering = steering
		return nil
	})
	if err := g.Wait(); err != nil {
		return AdjustResult{Strategy: BandFollow}, err
	}
	if result.Signal == SignalDetected {
		result.Zone = ZoneCentered
	}
	return result, nil
}

// zonedScan checks the zones outermost first; the first occupied zone wins
// and an empty scan means the vehicle is centred.
func (a *PositionAdjuster) zonedScan(ctx context.Context, f *frame.Frame) (AdjustResult, error) {
	result := AdjustResult{Strategy: ZonedScan, Zone: ZoneCentered}

	zones, err := a.Layout.AdjustZones(f.Width(), f.Height())
	if err != nil {
		return AdjustResult{Strategy: ZonedScan}, err
	}

	extractor := a.Extractor
	if a.Annotator != nil {
		extractor.Annotator = a.Annotator
	}
	for i, r := range zones {
		if err := ctx.Err(); err != nil {
			return AdjustResult{Strategy: ZonedScan}, err
		}
		v, err := f.Region(r)
		if err != nil {
			return AdjustResult{Strategy: ZonedScan}, fmt.Errorf("failed to slice %s zone: %w", scanZones[i], err)
		}
		c, ok := extractor.Extract(v, a.AreaThreshold)
		if !ok {
			continue
		}
		if a.Annotator != nil {
			a.Annotator.MarkZone(r)
		}
		result.Zone = scanZones[i]
		result.ZoneCentroid = &c
		return result, nil
	}
	return result, nil
}
