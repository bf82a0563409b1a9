package perception

import (
	"fmt"
	"image"

	"github.com/ironsheep/linefollow-vision/internal/contour"
	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// Signal is the marker detector output.
type Signal int

const (
	SignalNone Signal = iota
	SignalDetected
)

func (s Signal) String() string {
	if s == SignalDetected {
		return "detected"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (s Signal) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// MarkerParams configures the marker detector.
type MarkerParams struct {
	// HThreshold bounds the vertical offset between a strip centroid and the
	// feature point (strictly less than).
	HThreshold int `json:"h_threshold" yaml:"h_threshold"`

	// VThreshold bounds the horizontal offset (strictly less than).
	VThreshold int `json:"v_threshold" yaml:"v_threshold"`

	// AreaThreshold is the minimum (exclusive) strip contour area.
	AreaThreshold float64 `json:"area_threshold" yaml:"area_threshold"`

	// Confirmations is the number of matches that make a detection.
	Confirmations int `json:"confirmations" yaml:"confirmations"`
}

// DefaultMarkerParams returns the stock marker configuration.
func DefaultMarkerParams() MarkerParams {
	return MarkerParams{HThreshold: 15, VThreshold: 15, AreaThreshold: 500, Confirmations: 3}
}

// Validate rejects non-positive thresholds.
func (p MarkerParams) Validate() error {
	if p.HThreshold <= 0 || p.VThreshold <= 0 {
		return fmt.Errorf("%w: marker h/v thresholds must be > 0, got %d/%d", ErrInvalidThreshold, p.HThreshold, p.VThreshold)
	}
	if p.AreaThreshold <= 0 {
		return fmt.Errorf("%w: marker area threshold must be > 0, got %g", ErrInvalidThreshold, p.AreaThreshold)
	}
	if p.Confirmations <= 0 {
		return fmt.Errorf("%w: marker confirmations must be > 0, got %d", ErrInvalidThreshold, p.Confirmations)
	}
	return nil
}

// MarkerObservation is everything the detector saw in one frame.
type MarkerObservation struct {
	// FeatureFound is false when the marker window has no positive corner
	// response; Matches is then zero.
	FeatureFound bool `json:"feature_found"`

	// Feature is the strongest corner in frame-global coordinates.
	Feature  contour.Centroid `json:"feature"`
	Response float64          `json:"response"`

	// Candidates are the qualifying validation-strip contours.
	Candidates []contour.Candidate `json:"candidates"`

	// Matches counts the candidates coinciding with the feature.
	Matches int `json:"matches"`

	Window frame.Region `json:"window"`
	Strip  frame.Region `json:"strip"`
}

// MarkerDetector finds the floor marker from a corner feature and its echo
// in the validation strip.
type MarkerDetector struct {
	Layout Layout
	Params MarkerParams

	// Epsilon is the contour simplification fraction, zero for the default.
	Epsilon float64

	// Annotator receives strip centroids and the feature point.
	Annotator Annotator
}

// NewMarkerDetector validates params and returns a detector.
func NewMarkerDetector(layout Layout, params MarkerParams, epsilon float64) (*MarkerDetector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &MarkerDetector{Layout: layout, Params: params, Epsilon: epsilon}, nil
}

// Observe runs the corner search and the strip match on one frame.
//
// A strip candidate matches when its position inside the validation strip is
// within the h/v tolerances of the feature's position inside the marker
// window. Feature and Candidates are reported in frame-global coordinates,
// but they are not compared that way: the strip starts below the window's
// bottom edge, so every global vertical offset exceeds the window height.
func (d *MarkerDetector) Observe(f *frame.Frame) (MarkerObservation, error) {
	var obs MarkerObservation

	window, err := d.Layout.MarkerWindow(f.Width(), f.Height())
	if err != nil {
		return obs, err
	}
	strip, err := d.Layout.ValidationStrip(f.Width(), f.Height())
	if err != nil {
		return obs, err
	}
	obs.Window, obs.Strip = window, strip

	wv, err := f.Region(window)
	if err != nil {
		return obs, fmt.Errorf("failed to slice marker window: %w", err)
	}
	sv, err := f.Region(strip)
	if err != nil {
		return obs, fmt.Errorf("failed to slice validation strip: %w", err)
	}

	feature, response, found := StrongestCorner(wv)
	if found {
		global := feature.Add(window.Origin())
		obs.FeatureFound = true
		obs.Feature = contour.Centroid{X: global.X, Y: global.Y}
		obs.Response = response
		if d.Annotator != nil {
			d.Annotator.MarkFeature(global)
		}
	}

	extractor := contour.Extractor{Selection: contour.AllMatches, Epsilon: d.Epsilon}
	if d.Annotator != nil {
		extractor.Annotator = d.Annotator
	}
	obs.Candidates = extractor.Candidates(sv, d.Params.AreaThreshold)

	if !found {
		return obs, nil
	}
	for _, c := range obs.Candidates {
		local := c.Centroid.Point().Sub(strip.Origin())
		if coincides(local, feature, d.Params.HThreshold, d.Params.VThreshold) {
			obs.Matches++
		}
	}
	return obs, nil
}

// Signal observes the frame and reports whether the marker is confirmed.
func (d *MarkerDetector) Signal(f *frame.Frame) (Signal, MarkerObservation, error) {
	obs, err := d.Observe(f)
	if err != nil {
		return SignalNone, obs, err
	}
	return ConfirmSignal(obs.Matches, d.Params.Confirmations), obs, nil
}

// ConfirmSignal reports Detected when matches is a positive multiple of
// confirmations.
func ConfirmSignal(matches, confirmations int) Signal {
	if confirmations > 0 && matches > 0 && matches%confirmations == 0 {
		return SignalDetected
	}
	return SignalNone
}

// coincides compares window-local positions: vertical offset against h,
// horizontal against v, both strict.
func coincides(a, b image.Point, h, v int) bool {
	return abs(a.Y-b.Y) < h && abs(a.X-b.X) < v
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
