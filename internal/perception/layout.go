package perception

import (
	"errors"
	"fmt"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

var (
	// ErrFrameTooSmall is returned when a frame cannot hold the fixed layout.
	ErrFrameTooSmall = errors.New("frame too small for layout")

	// ErrInvalidThreshold is returned for thresholds that must be positive.
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Band indexes the three follow bands.
type Band int

const (
	BandLeft Band = iota
	BandCenter
	BandRight
)

func (b Band) String() string {
	switch b {
	case BandLeft:
		return "left"
	case BandCenter:
		return "center"
	case BandRight:
		return "right"
	}
	return fmt.Sprintf("Band(%d)", int(b))
}

// Layout describes where the analyzers look inside a frame.
type Layout struct {
	// FullHeightBands makes the follow bands span every row instead of the
	// middle fifth.
	FullHeightBands bool `json:"full_height_bands" yaml:"full_height_bands"`
}

// Bands returns the left, center and right follow bands.
func (l Layout) Bands(width, height int) ([3]frame.Region, error) {
	y0, y1 := 2*height/5, 3*height/5
	if l.FullHeightBands {
		y0, y1 = 0, height
	}
	bands := [3]frame.Region{
		{X0: 0, X1: width / 3, Y0: y0, Y1: y1},
		{X0: width / 3, X1: 2 * width / 3, Y0: y0, Y1: y1},
		{X0: 2 * width / 3, X1: width, Y0: y0, Y1: y1},
	}
	for i, b := range bands {
		if b.Empty() {
			return bands, fmt.Errorf("%w: %s band is empty in %dx%d frame", ErrFrameTooSmall, Band(i), width, height)
		}
	}
	return bands, nil
}

// MarkerWindow returns the small central window searched for the marker's
// corner feature.
func (l Layout) MarkerWindow(width, height int) (frame.Region, error) {
	x0, y0 := 7*width/15, 2*height/5
	r := frame.Region{X0: x0, X1: x0 + width/15, Y0: y0, Y1: y0 + height/5}
	if r.Empty() {
		return r, fmt.Errorf("%w: marker window is empty in %dx%d frame", ErrFrameTooSmall, width, height)
	}
	return r, nil
}

// ValidationStrip returns the strip near the bottom of the frame used to
// confirm the marker feature.
func (l Layout) ValidationStrip(width, height int) (frame.Region, error) {
	x0 := 7 * width / 15
	r := frame.Region{X0: x0, X1: x0 + width/15, Y0: 4 * height / 5, Y1: height}
	if r.Empty() {
		return r, fmt.Errorf("%w: validation strip is empty in %dx%d frame", ErrFrameTooSmall, width, height)
	}
	return r, nil
}

// AdjustZones returns the zoned-scan strips from the outermost (rightmost)
// inward.
func (l Layout) AdjustZones(width, height int) ([3]frame.Region, error) {
	zones := [3]frame.Region{
		{X0: 6 * width / 7, X1: width, Y0: 0, Y1: height},
		{X0: 5 * width / 7, X1: 6 * width / 7, Y0: 0, Y1: height},
		{X0: 4 * width / 7, X1: 5 * width / 7, Y0: 0, Y1: height},
	}
	for _, z := range zones {
		if z.Empty() {
			return zones, fmt.Errorf("%w: adjust zone is empty in %dx%d frame", ErrFrameTooSmall, width, height)
		}
	}
	return zones, nil
}

// RegionNames lists the names accepted by NamedRegion.
func RegionNames() []string {
	return []string{
		"band_left", "band_center", "band_right",
		"marker_window", "validation_strip",
		"zone_rightmost", "zone_mid_right", "zone_left_right",
	}
}

// NamedRegion resolves one of RegionNames for a frame size.
func (l Layout) NamedRegion(name string, width, height int) (frame.Region, error) {
	switch name {
	case "band_left", "band_center", "band_right":
		bands, err := l.Bands(width, height)
		if err != nil {
			return frame.Region{}, err
		}
		switch name {
		case "band_left":
			return bands[BandLeft], nil
		case "band_center":
			return bands[BandCenter], nil
		}
		return bands[BandRight], nil
	case "marker_window":
		return l.MarkerWindow(width, height)
	case "validation_strip":
		return l.ValidationStrip(width, height)
	case "zone_rightmost", "zone_mid_right", "zone_left_right":
		zones, err := l.AdjustZones(width, height)
		if err != nil {
			return frame.Region{}, err
		}
		for i, z := range scanZones {
			if "zone_"+z.String() == name {
				return zones[i], nil
			}
		}
	}
	return frame.Region{}, fmt.Errorf("unknown region %q", name)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
