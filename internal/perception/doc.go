// Package perception implements the decision analyzers of the line-following
// vehicle: steering from three lateral bands, marker detection, and the
// position adjustment scan run after the vehicle stops at a marker.
//
// All analyzers are pure functions of one frame plus their configuration.
// They never block, never log and never talk to hardware; the pilot package
// owns timing, debouncing state across frames and the actuation sink.
//
// # Layout
//
// Every region is a fixed fraction of the frame size, computed with integer
// floor division:
//
//	follow bands     rows [2H/5, 3H/5), columns [0, W/3) [W/3, 2W/3) [2W/3, W)
//	marker window    rows [2H/5, 3H/5), columns [7W/15, 7W/15 + W/15)
//	validation strip rows [4H/5, H),    same columns as the marker window
//	adjust zones     all rows, columns [6W/7, W) [5W/7, 6W/7) [4W/7, 5W/7)
//
// Layout.FullHeightBands switches the follow bands to all rows. A frame so
// small that any region would be empty is rejected with ErrFrameTooSmall.
//
// # Steering
//
// FollowLine extracts one centroid per band. With all three present:
//
//	error1 = left.x - center.x
//	error2 = center.x - right.x
//	error  = floor((error1 - error2) / 2)
//
// which is the offset of the centre band's centroid from the midpoint of the
// outer two, zero for a symmetric layout. error > threshold turns right,
// error < -threshold turns left, anything else (including exactly ±threshold)
// goes straight. Fewer than three centroids yields an invalid decision that
// callers must not treat as zero error.
//
// # Marker
//
// The marker detector takes the strongest Harris corner in the marker window
// as the feature point and counts validation-strip contours whose centroid
// coincides with it. Both windows have the same size, so coincidence is
// measured relative to each window's origin. Signal reports Detected when the
// match count is a positive multiple of the required confirmations; Debouncer
// carries the count across frames for callers that need multi-frame
// confirmation.
//
// # Adjustment
//
// PositionAdjuster runs one of two strategies:
//   - BandFollow: marker signal and band steering evaluated concurrently on
//     the same frame; a fresh marker signal means the vehicle is centred
//   - ZonedScan: the right side of the frame is split into three zones and
//     the outermost occupied zone tells how far to creep
package perception
