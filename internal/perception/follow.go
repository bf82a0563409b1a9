package perception

import (
	"fmt"

	"github.com/ironsheep/linefollow-vision/internal/contour"
	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// Turn is a steering classification. The numeric values are the direction
// codes the actuation side expects.
type Turn int

const (
	TurnLeft  Turn = -1
	Straight  Turn = 0
	TurnRight Turn = 1
)

func (t Turn) String() string {
	switch t {
	case TurnLeft:
		return "left"
	case Straight:
		return "straight"
	case TurnRight:
		return "right"
	}
	return fmt.Sprintf("Turn(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Turn) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Classify maps a steering error to a Turn. Both comparisons are strict, so
// an error of exactly ±threshold is Straight.
func Classify(steeringError, threshold int) Turn {
	switch {
	case steeringError > threshold:
		return TurnRight
	case steeringError < -threshold:
		return TurnLeft
	default:
		return Straight
	}
}

// SteeringDecision is the per-frame output of the line follower. When Valid
// is false fewer than three bands produced a centroid and every other field
// except Found and the band centroids is meaningless.
type SteeringDecision struct {
	Valid bool `json:"valid"`

	LeftY   int `json:"left_y"`
	CenterY int `json:"center_y"`
	RightY  int `json:"right_y"`
	MeanY   int `json:"mean_y"`

	// Error is the signed lateral error, see Classify.
	Error int  `json:"error"`
	Turn  Turn `json:"turn"`

	// Centroids holds the per-band result, nil where a band had none.
	Centroids [3]*contour.Centroid `json:"centroids"`

	// Found counts the bands that produced a centroid.
	Found int `json:"found"`
}

// LineFollower derives steering from the three follow bands.
type LineFollower struct {
	Layout    Layout
	Extractor contour.Extractor

	// AreaThreshold is the minimum (exclusive) contour area per band.
	AreaThreshold float64

	// ErrorThreshold is the dead band around zero error.
	ErrorThreshold int
}

// NewLineFollower validates the thresholds and returns a follower.
func NewLineFollower(layout Layout, extractor contour.Extractor, areaThreshold float64, errorThreshold int) (*LineFollower, error) {
	if err := validateFollow(areaThreshold, errorThreshold); err != nil {
		return nil, err
	}
	return &LineFollower{
		Layout:         layout,
		Extractor:      extractor,
		AreaThreshold:  areaThreshold,
		ErrorThreshold: errorThreshold,
	}, nil
}

func validateFollow(areaThreshold float64, errorThreshold int) error {
	if areaThreshold <= 0 {
		return fmt.Errorf("%w: area threshold must be > 0, got %g", ErrInvalidThreshold, areaThreshold)
	}
	if errorThreshold <= 0 {
		return fmt.Errorf("%w: error threshold must be > 0, got %d", ErrInvalidThreshold, errorThreshold)
	}
	return nil
}

// FollowLine computes the steering decision with the configured thresholds.
func (lf *LineFollower) FollowLine(f *frame.Frame) (SteeringDecision, error) {
	return lf.followLine(f, lf.AreaThreshold, lf.ErrorThreshold)
}

// FollowLineWith computes the steering decision with explicit thresholds.
func (lf *LineFollower) FollowLineWith(f *frame.Frame, areaThreshold float64, errorThreshold int) (SteeringDecision, error) {
	if err := validateFollow(areaThreshold, errorThreshold); err != nil {
		return SteeringDecision{}, err
	}
	return lf.followLine(f, areaThreshold, errorThreshold)
}

// BandCentroids returns the centroid of each follow band, nil where a band
// has no qualifying contour.
func (lf *LineFollower) BandCentroids(f *frame.Frame, areaThreshold float64) ([3]*contour.Centroid, error) {
	var out [3]*contour.Centroid

	bands, err := lf.Layout.Bands(f.Width(), f.Height())
	if err != nil {
		return out, err
	}
	for i, b := range bands {
		v, err := f.Region(b)
		if err != nil {
			return out, fmt.Errorf("failed to slice %s band: %w", Band(i), err)
		}
		if c, ok := lf.Extractor.Extract(v, areaThreshold); ok {
			out[i] = &c
		}
	}
	return out, nil
}

func (lf *LineFollower) followLine(f *frame.Frame, areaThreshold float64, errorThreshold int) (SteeringDecision, error) {
	centroids, err := lf.BandCentroids(f, areaThreshold)
	if err != nil {
		return SteeringDecision{}, err
	}

	d := SteeringDecision{Centroids: centroids}
	for _, c := range centroids {
		if c != nil {
			d.Found++
		}
	}
	if d.Found < len(centroids) {
		return d, nil
	}

	left, center, right := *centroids[BandLeft], *centroids[BandCenter], *centroids[BandRight]
	error1 := left.X - center.X
	error2 := center.X - right.X

	d.Valid = true
	d.Error = floorDiv(error1-error2, 2)
	d.Turn = Classify(d.Error, errorThreshold)
	d.LeftY, d.CenterY, d.RightY = left.Y, center.Y, right.Y
	d.MeanY = floorDiv(left.Y+center.Y+right.Y, 3)
	return d, nil
}
