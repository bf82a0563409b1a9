// Package contour extracts outer contours from binary frame views and reduces
// them to bounding-box centroids.
//
// This is the leaf analyzer of the perception core: every band, window and
// zone the vehicle looks at is handed to an Extractor, which answers "where is
// the qualifying blob in this region, if any".
//
// # Pipeline
//
//  1. Component labelling: 8-connected foreground components (flood fill)
//  2. External filtering: components lying inside a hole of another component
//     are skipped, only outermost borders are reported
//  3. Border following: each outer border is traced into an ordered Contour
//  4. Area filter: the polygon (shoelace) area of the border must exceed the
//     caller's threshold
//  5. Simplification: Douglas-Peucker with tolerance = 2% of the perimeter,
//     which keeps the bounding box stable against jagged edges
//  6. Centroid: centre of the axis-aligned bounding box, translated to
//     frame-global coordinates
//
// # Traversal Order
//
// Contours are reported in raster order of each component's top-left-most
// pixel (scan rows top to bottom, each row left to right). FirstMatch
// selection relies on this order.
//
// # Backends
//
// The default build uses the pure Go implementation. Building with the gocv
// tag routes contour finding and polygon simplification through OpenCV via
// gocv.io/x/gocv; results are re-sorted into the same traversal order.
//
// # Areas and Boxes
//
// Areas follow the polygon through pixel centres, so a filled N×N square has
// area (N-1)². Bounding boxes are inclusive pixel extents: a blob covering
// columns 55..104 has X=55 and width 50, giving a centre column of 80.
package contour
