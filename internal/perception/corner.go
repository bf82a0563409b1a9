package perception

import (
	"image"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// Harris detector parameters used for the marker feature.
const (
	HarrisBlockSize = 2
	HarrisK         = 0.04
)

// 3x3 Sobel kernels, indexed [row][col].
var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// HarrisResponse computes the Harris corner response for every pixel of the
// view, indexed [y][x] in view-local coordinates.
//
// # Algorithm
//
//  1. Sobel 3x3 derivatives Ix, Iy over the 0/1 mask, borders replicated
//  2. Structure tensor sums Sxx, Syy, Sxy over a blockSize x blockSize
//     neighbourhood anchored like OpenCV's box filter (offsets
//     -blockSize/2 .. blockSize-blockSize/2-1)
//  3. R = det(M) - k * trace(M)^2
//
// Flat regions score zero, straight edges score negative and corners score
// positive.
func HarrisResponse(v frame.View, blockSize int, k float64) [][]float64 {
	w, h := v.Width(), v.Height()
	if blockSize < 1 {
		blockSize = 1
	}

	px := func(x, y int) float64 {
		if v.At(clamp(x, 0, w-1), clamp(y, 0, h-1)) {
			return 1
		}
		return 0
	}

	ixx := make([]float64, w*h)
	iyy := make([]float64, w*h)
	ixy := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := px(x+kx, y+ky)
					gx += p * sobelX[ky+1][kx+1]
					gy += p * sobelY[ky+1][kx+1]
				}
			}
			i := y*w + x
			ixx[i] = gx * gx
			iyy[i] = gy * gy
			ixy[i] = gx * gy
		}
	}

	lo := -(blockSize / 2)
	hi := blockSize - blockSize/2 - 1

	response := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			var sxx, syy, sxy float64
			for dy := lo; dy <= hi; dy++ {
				yy := clamp(y+dy, 0, h-1)
				for dx := lo; dx <= hi; dx++ {
					i := yy*w + clamp(x+dx, 0, w-1)
					sxx += ixx[i]
					syy += iyy[i]
					sxy += ixy[i]
				}
			}
			det := sxx*syy - sxy*sxy
			trace := sxx + syy
			row[x] = det - k*trace*trace
		}
		response[y] = row
	}
	return response
}

// StrongestCorner returns the view-local pixel with the largest positive
// Harris response. Ties keep the first pixel in raster order. The boolean is
// false when no pixel has a positive response.
func StrongestCorner(v frame.View) (image.Point, float64, bool) {
	response := HarrisResponse(v, HarrisBlockSize, HarrisK)

	var (
		best  image.Point
		score float64
		found bool
	)
	for y, row := range response {
		for x, r := range row {
			if r > score {
				best, score, found = image.Pt(x, y), r, true
			}
		}
	}
	return best, score, found
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
