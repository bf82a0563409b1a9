//go:build !gocv

package contour

import "github.com/ironsheep/linefollow-vision/internal/frame"

// Backend names the contour implementation compiled into the binary.
const Backend = "native"

func findExternal(v frame.View) []Contour {
	return traceExternal(v)
}

func approxPoly(c Contour, epsilon float64) Contour {
	return ApproxPoly(c, epsilon, true)
}
