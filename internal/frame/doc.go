// Package frame provides the binary edge-mask frames consumed by the
// perception core, together with the rectangular views the analyzers slice
// them into.
//
// A Frame is an immutable H×W single-channel mask. A pixel is foreground when
// its value is non-zero; all constructors normalize foreground pixels to 255
// and background pixels to 0. Frames are never mutated after construction, so
// a single Frame may be read by several analyzers concurrently.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
//   - X increases rightward, Y increases downward
//   - Regions are half-open: (X0,Y0) inclusive, (X1,Y1) exclusive
//   - View coordinates are local to the view; add View.Origin() to obtain
//     frame-global coordinates
//
// # Producing Masks
//
// Masks usually come from a colour camera frame run through Preprocess:
//
//  1. Grayscale conversion
//  2. Gaussian blur (sigma 1 by default)
//  3. Canny edge detection with hysteresis thresholds (50/50 by default)
//
// Images that are already binary masks can be wrapped with FromImage, which
// thresholds at a fixed level.
//
// # Error Handling
//
// Slicing a frame with a region that leaves the frame or has zero area is a
// programming error and is reported with ErrRegionOutOfBounds or
// ErrEmptyRegion rather than silently clipped.
package frame
