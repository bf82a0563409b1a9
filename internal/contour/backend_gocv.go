//go:build gocv

package contour

import (
	"image"
	"log"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// Backend names the contour implementation compiled into the binary.
const Backend = "gocv"

// findExternal runs OpenCV's external contour retrieval and re-sorts the
// result into raster order of each contour's first pixel, which OpenCV does
// not guarantee.
func findExternal(v frame.View) []Contour {
	mat, err := gocv.ImageGrayToMatGray(v.Gray())
	if err != nil {
		log.Printf("gocv: failed to convert view: %v", err)
		return traceExternal(v)
	}
	defer mat.Close()

	found := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer found.Close()

	contours := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, Contour(found.At(i).ToPoints()))
	}

	sort.SliceStable(contours, func(i, j int) bool {
		a, b := firstPixel(contours[i]), firstPixel(contours[j])
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return contours
}

func approxPoly(c Contour, epsilon float64) Contour {
	if len(c) < 3 {
		return ApproxPoly(c, epsilon, true)
	}
	curve := gocv.NewPointVectorFromPoints(c)
	defer curve.Close()

	approx := gocv.ApproxPolyDP(curve, epsilon, true)
	defer approx.Close()

	return Contour(approx.ToPoints())
}

// firstPixel returns the contour point that comes first in raster order.
func firstPixel(c Contour) image.Point {
	best := c[0]
	for _, p := range c[1:] {
		if p.Y < best.Y || (p.Y == best.Y && p.X < best.X) {
			best = p
		}
	}
	return best
}
