package contour

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// DefaultEpsilon is the polygon simplification tolerance as a fraction of the
// contour perimeter.
const DefaultEpsilon = 0.02

// Selection decides which qualifying contours of a region are reported.
type Selection int

const (
	// FirstMatch reports only the first qualifying contour in traversal order.
	FirstMatch Selection = iota

	// LargestArea reports the qualifying contour with the largest area. Ties
	// keep the earlier contour.
	LargestArea

	// AllMatches reports every qualifying contour in traversal order.
	AllMatches
)

var selectionNames = map[Selection]string{
	FirstMatch:  "first_match",
	LargestArea: "largest_area",
	AllMatches:  "all_matches",
}

// String returns the configuration name of the selection.
func (s Selection) String() string {
	if name, ok := selectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Selection(%d)", int(s))
}

// ParseSelection converts a configuration name to a Selection. The empty
// string selects FirstMatch.
func ParseSelection(name string) (Selection, error) {
	if name == "" {
		return FirstMatch, nil
	}
	for s, n := range selectionNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown contour selection %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Selection) MarshalText() ([]byte, error) {
	if _, ok := selectionNames[s]; !ok {
		return nil, fmt.Errorf("unknown contour selection %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Selection) UnmarshalText(text []byte) error {
	parsed, err := ParseSelection(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Centroid is a bounding-box centre in frame-global pixel coordinates.
type Centroid struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Point converts the centroid to an image.Point.
func (c Centroid) Point() image.Point { return image.Pt(c.X, c.Y) }

// Candidate is one contour that passed the area filter.
type Candidate struct {
	// Centroid is the bounding-box centre in frame-global coordinates.
	Centroid Centroid `json:"centroid"`

	// Area is the polygon area of the unsimplified border.
	Area float64 `json:"area"`

	// Box is the bounding box of the simplified polygon, frame-global.
	Box image.Rectangle `json:"box"`
}

// Annotator receives diagnostic marks for reported centroids. Implementations
// must not influence the analysis.
type Annotator interface {
	MarkCentroid(p image.Point)
}

// Extractor turns a region into qualifying contour centroids. The zero value
// uses FirstMatch selection and DefaultEpsilon.
type Extractor struct {
	// Selection picks which qualifying contours are reported.
	Selection Selection

	// Epsilon is the simplification tolerance as a fraction of the perimeter.
	// Zero means DefaultEpsilon.
	Epsilon float64

	// Annotator, when non-nil, is told about every reported centroid.
	Annotator Annotator
}

// Extract returns the centroid of the selected qualifying contour. A contour
// qualifies when its area is strictly greater than areaThreshold. The second
// result is false when nothing qualifies, which is an ordinary outcome.
func (e Extractor) Extract(v frame.View, areaThreshold float64) (Centroid, bool) {
	candidates := e.Candidates(v, areaThreshold)
	if len(candidates) == 0 {
		return Centroid{}, false
	}
	return candidates[0].Centroid, true
}

// Candidates returns the qualifying contours allowed by the selection:
// FirstMatch yields at most one, LargestArea at most one and AllMatches every
// qualifying contour in traversal order.
func (e Extractor) Candidates(v frame.View, areaThreshold float64) []Candidate {
	epsilon := e.Epsilon
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	origin := v.Origin()

	var out []Candidate
	for _, c := range FindExternal(v) {
		area := Area(c)
		if area <= areaThreshold {
			continue
		}

		approx := approxPoly(c, epsilon*ArcLength(c, true))
		box := BoundingBox(approx).Add(origin)
		center := BoxCenter(box)
		out = append(out, Candidate{
			Centroid: Centroid{X: center.X, Y: center.Y},
			Area:     area,
			Box:      box,
		})

		if e.Selection == FirstMatch {
			break
		}
	}

	if e.Selection == LargestArea && len(out) > 1 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Area > out[j].Area })
		out = out[:1]
	}

	if e.Annotator != nil {
		for _, c := range out {
			e.Annotator.MarkCentroid(c.Centroid.Point())
		}
	}
	return out
}
