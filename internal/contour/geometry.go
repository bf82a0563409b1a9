package contour

import (
	"image"
	"math"
)

// Area returns the polygon area enclosed by the contour (shoelace formula).
// Contours with fewer than three points enclose no area.
func Area(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	var sum int
	for i, p := range c {
		q := c[(i+1)%len(c)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// ArcLength returns the length of the polyline through the contour points,
// including the closing segment when closed is true.
func ArcLength(c Contour, closed bool) float64 {
	if len(c) < 2 {
		return 0
	}
	var length float64
	for i := 1; i < len(c); i++ {
		length += dist(c[i-1], c[i])
	}
	if closed {
		length += dist(c[len(c)-1], c[0])
	}
	return length
}

// ApproxPoly simplifies the contour with the Douglas-Peucker algorithm. Every
// returned vertex is one of the input points and no input point lies further
// than epsilon from the simplified polyline.
func ApproxPoly(c Contour, epsilon float64, closed bool) Contour {
	if len(c) < 3 {
		return append(Contour(nil), c...)
	}
	if !closed {
		return douglasPeucker(c, epsilon)
	}

	// Split the ring at the point furthest from the first one and simplify
	// both halves as open chains.
	far, best := 0, -1.0
	for i, p := range c {
		if d := dist(c[0], p); d > best {
			far, best = i, d
		}
	}
	if far == 0 {
		return Contour{c[0]}
	}

	first := douglasPeucker(c[:far+1], epsilon)
	ring := make(Contour, 0, len(c)-far+1)
	ring = append(ring, c[far:]...)
	ring = append(ring, c[0])
	second := douglasPeucker(ring, epsilon)

	out := make(Contour, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

func douglasPeucker(pts Contour, epsilon float64) Contour {
	if len(pts) < 3 {
		return append(Contour(nil), pts...)
	}

	start, end := pts[0], pts[len(pts)-1]
	idx, maxDist := 0, -1.0
	for i := 1; i < len(pts)-1; i++ {
		if d := segmentDistance(pts[i], start, end); d > maxDist {
			idx, maxDist = i, d
		}
	}

	if maxDist <= epsilon {
		return Contour{start, end}
	}

	left := douglasPeucker(pts[:idx+1], epsilon)
	right := douglasPeucker(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// BoundingBox returns the inclusive pixel extent of the contour as a
// rectangle whose Max is one past the last pixel.
func BoundingBox(c Contour) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// BoxCenter returns the centre of a bounding box using floor division, the
// same rounding the steering arithmetic uses.
func BoxCenter(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}

func dist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// segmentDistance is the distance from p to the line through a and b, or to a
// when a and b coincide.
func segmentDistance(p, a, b image.Point) float64 {
	if a == b {
		return dist(p, a)
	}
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	cross := dx*float64(p.Y-a.Y) - dy*float64(p.X-a.X)
	return math.Abs(cross) / math.Sqrt(dx*dx+dy*dy)
}
