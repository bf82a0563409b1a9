package frame

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// PreprocessOptions controls how a colour camera frame becomes an edge mask.
type PreprocessOptions struct {
	// BlurSigma is the Gaussian blur sigma applied before edge detection.
	// Zero disables the blur.
	BlurSigma float64 `json:"blur_sigma" yaml:"blur_sigma"`

	// CannyLow is the weak-edge threshold (0-255).
	CannyLow int `json:"canny_low" yaml:"canny_low"`

	// CannyHigh is the strong-edge threshold (0-255).
	CannyHigh int `json:"canny_high" yaml:"canny_high"`
}

// DefaultPreprocessOptions mirrors the camera pipeline the vehicle was tuned
// with: sigma 1 blur followed by Canny(50, 50).
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{BlurSigma: 1, CannyLow: 50, CannyHigh: 50}
}

// Validate checks the option ranges.
func (o PreprocessOptions) Validate() error {
	if o.BlurSigma < 0 {
		return fmt.Errorf("blur sigma must be >= 0, got %g", o.BlurSigma)
	}
	if o.CannyLow < 0 || o.CannyLow > 255 || o.CannyHigh < 0 || o.CannyHigh > 255 {
		return fmt.Errorf("canny thresholds must be in 0-255, got %d/%d", o.CannyLow, o.CannyHigh)
	}
	if o.CannyLow > o.CannyHigh {
		return fmt.Errorf("canny low threshold %d exceeds high threshold %d", o.CannyLow, o.CannyHigh)
	}
	return nil
}

// Preprocess converts a camera frame into a binary edge mask.
//
// # Algorithm
//
//  1. Grayscale conversion (imaging.Grayscale)
//  2. Gaussian blur with opts.BlurSigma (imaging.Blur)
//  3. Canny edge detection, see EdgeMask
func Preprocess(img image.Image, opts PreprocessOptions) (*Frame, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preprocess options: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("failed to preprocess: %w", ErrEmptyRegion)
	}

	gray := imaging.Grayscale(img)
	if opts.BlurSigma > 0 {
		gray = imaging.Blur(gray, opts.BlurSigma)
	}
	return New(EdgeMask(gray, opts.CannyLow, opts.CannyHigh)), nil
}

// EdgeMask performs Canny-style edge detection and returns a mask where edge
// pixels are 255. The input is expected to be blurred already.
//
// # Algorithm
//
//  1. Luminance using ITU-R BT.601 weights, scaled to 0-1
//  2. Sobel gradients, magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  3. Non-maximum suppression along the quantized gradient direction
//  4. Hysteresis: pixels at or above high are seeds, pixels at or above low
//     are kept when 8-connected to a seed through other kept pixels
//
// Border pixels are never edges.
func EdgeMask(img image.Image, low, high int) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			lum[y*width+x] = (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)) / 255.0
		}
	}

	at := func(x, y int) float64 {
		return lum[clamp(y, 0, height-1)*width+clamp(x, 0, width-1)]
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[i-width], magnitude[i+width]
			default:
				n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
			}
			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	lowThresh := float64(low) / 255.0
	highThresh := float64(high) / 255.0
	result := image.NewGray(image.Rect(0, 0, width, height))

	stack := make([]int, 0, 64)
	for i, v := range suppressed {
		if v > 0 && v >= highThresh && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == 0 && suppressed[n] > 0 && suppressed[n] >= lowThresh {
						result.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
