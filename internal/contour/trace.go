package contour

import (
	"image"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// Contour is the ordered outer border of one foreground component, in
// view-local coordinates.
type Contour []image.Point

// neighbours in counterclockwise screen order starting east.
var neighbours = [8]image.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: -1},  // NE
	{X: 0, Y: -1},  // N
	{X: -1, Y: -1}, // NW
	{X: -1, Y: 0},  // W
	{X: -1, Y: 1},  // SW
	{X: 0, Y: 1},   // S
	{X: 1, Y: 1},   // SE
}

const dirWest = 4

// FindExternal returns the outer contours of the view in traversal order.
func FindExternal(v frame.View) []Contour {
	return findExternal(v)
}

// traceExternal is the pure Go contour finder.
func traceExternal(v frame.View) []Contour {
	width, height := v.Width(), v.Height()
	labelled := make([][]bool, height)
	for y := range labelled {
		labelled[y] = make([]bool, width)
	}
	outer := outerBackground(v)

	contours := make([]Contour, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !v.At(x, y) || labelled[y][x] {
				continue
			}
			floodFill(v, labelled, x, y)

			// (x, y) is the component's first pixel in raster order, so the
			// pixel above it is background. The component is outermost only
			// when that background connects to the view border.
			if y > 0 && !outer[y-1][x] {
				continue
			}
			contours = append(contours, followBorder(v, image.Pt(x, y)))
		}
	}
	return contours
}

// followBorder traces the outer border that starts at p0, whose west and
// north neighbours are background.
func followBorder(v frame.View, p0 image.Point) Contour {
	at := func(p image.Point) bool { return v.At(p.X, p.Y) }

	// Clockwise search from the west neighbour for the last border pixel.
	d1 := -1
	for k := 1; k <= 8; k++ {
		d := (dirWest - k + 8) % 8
		if at(p0.Add(neighbours[d])) {
			d1 = d
			break
		}
	}
	if d1 < 0 {
		return Contour{p0}
	}

	p1 := p0.Add(neighbours[d1])
	prev, cur := p1, p0
	contour := Contour{}
	for {
		back := direction(cur, prev)
		var next image.Point
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if candidate := cur.Add(neighbours[d]); at(candidate) {
				next = candidate
				break
			}
		}

		contour = append(contour, cur)
		if next == p0 && cur == p1 {
			return contour
		}
		prev, cur = cur, next
	}
}

// direction returns the neighbour index that leads from a to the adjacent b.
func direction(a, b image.Point) int {
	delta := b.Sub(a)
	for i, n := range neighbours {
		if n == delta {
			return i
		}
	}
	return 0
}

// floodFill labels the 8-connected component containing (startX, startY).
//
// Uses an explicit stack rather than recursion so large blobs cannot overflow
// the goroutine stack.
func floodFill(v frame.View, labelled [][]bool, startX, startY int) {
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= v.Width() || p.Y < 0 || p.Y >= v.Height() {
			continue
		}
		if labelled[p.Y][p.X] || !v.At(p.X, p.Y) {
			continue
		}
		labelled[p.Y][p.X] = true

		for _, n := range neighbours {
			stack = append(stack, p.Add(n))
		}
	}
}

// outerBackground marks the background pixels 4-connected to the view border.
// Foreground is 8-connected, so background has to be 4-connected for holes to
// be closed.
func outerBackground(v frame.View) [][]bool {
	width, height := v.Width(), v.Height()
	outer := make([][]bool, height)
	for y := range outer {
		outer[y] = make([]bool, width)
	}

	stack := make([]image.Point, 0, 2*(width+height))
	push := func(x, y int) {
		if x < 0 || y < 0 || x >= width || y >= height {
			return
		}
		if outer[y][x] || v.At(x, y) {
			return
		}
		outer[y][x] = true
		stack = append(stack, image.Pt(x, y))
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}
	return outer
}
