// Package server implements the MCP (Model Context Protocol) server for the
// line-follower perception tools.
//
// The server exposes the same analyzers the vehicle runs, so a recorded frame
// can be inspected one decision at a time: where the line sits in each band,
// which way the follower would turn, whether the stop marker fires, and how
// the adjuster would re-centre.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frame Information:
//   - frame_load: Load a frame and get metadata
//   - frame_edge_mask: Blur and Canny a camera frame, return the mask
//   - frame_region: Crop a named layout region
//
// Line Following:
//   - frame_band_centroids: Per-band line centroid
//   - frame_follow_line: Steering decision
//
// Marker Detection:
//   - frame_marker_signal: Corner feature, strip matches and signal
//
// Position Adjustment:
//   - frame_adjust_position: One adjustment step
//
// Visualization:
//   - frame_overlay: Layout and decisions drawn over the frame
//
// Every tool takes a path and a mode ("mask" or "edges"). Thresholds that are
// omitted come from the configuration the server was created with.
//
// # Frame Caching
//
// Converted frames are cached by path and mode for the lifetime of the
// process, see frame.Cache.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments or thresholds, -32000 for other failures
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
