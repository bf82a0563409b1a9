package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/linefollow-vision/internal/contour"
	"github.com/ironsheep/linefollow-vision/internal/frame"
	"github.com/ironsheep/linefollow-vision/internal/perception"
)

// errInvalidArgs marks argument problems, reported as JSON-RPC -32602.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "frame_follow_line").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and out-of-range thresholds return a JSON-RPC error with
// code -32602; any other tool failure uses -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	if s.Debug {
		log.Printf("Tool call: %s %s", params.Name, params.Arguments)
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errInvalidArgs) || errors.Is(err, perception.ErrInvalidThreshold) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Falls back to the server configuration for omitted thresholds
//  3. Loads the frame from the cache
//  4. Calls the matching perception function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Frame Information
	case "frame_load":
		return s.handleFrameLoad(args)
	case "frame_edge_mask":
		return s.handleFrameEdgeMask(args)
	case "frame_region":
		return s.handleFrameRegion(args)

	// Line Following
	case "frame_band_centroids":
		return s.handleFrameBandCentroids(args)
	case "frame_follow_line":
		return s.handleFrameFollowLine(args)

	// Marker Detection
	case "frame_marker_signal":
		return s.handleFrameMarkerSignal(args)

	// Position Adjustment
	case "frame_adjust_position":
		return s.handleFrameAdjustPosition(args)

	// Visualization
	case "frame_overlay":
		return s.handleFrameOverlay(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, tagging failures as invalid params.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing arguments", errInvalidArgs)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// frameArgs are the arguments every frame tool accepts.
type frameArgs struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

func (a frameArgs) mode() (frame.Mode, error) {
	if a.Path == "" {
		return "", fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	mode, err := frame.ParseMode(a.Mode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return mode, nil
}

func (s *Server) loadFrame(a frameArgs) (*frame.Frame, error) {
	mode, err := a.mode()
	if err != nil {
		return nil, err
	}
	return s.cache.Load(a.Path, mode)
}

// === Frame Information Handlers ===

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := a.mode()
	if err != nil {
		return nil, err
	}
	return frame.LoadInfo(s.cache, a.Path, mode)
}

type frameEdgeMaskArgs struct {
	Path      string   `json:"path"`
	BlurSigma *float64 `json:"blur_sigma"`
	CannyLow  *int     `json:"canny_low"`
	CannyHigh *int     `json:"canny_high"`
}

// EdgeMaskResult is the preprocessed frame.
type EdgeMaskResult struct {
	Width            int                     `json:"width"`
	Height           int                     `json:"height"`
	ForegroundPixels int                     `json:"foreground_pixels"`
	Options          frame.PreprocessOptions `json:"options"`
	ImageBase64      string                  `json:"image_base64"`
	MimeType         string                  `json:"mime_type"`
}

func (s *Server) handleFrameEdgeMask(args json.RawMessage) (interface{}, error) {
	var a frameEdgeMaskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}

	opts := s.cfg.Preprocess
	custom := a.BlurSigma != nil || a.CannyLow != nil || a.CannyHigh != nil
	if a.BlurSigma != nil {
		opts.BlurSigma = *a.BlurSigma
	}
	if a.CannyLow != nil {
		opts.CannyLow = *a.CannyLow
	}
	if a.CannyHigh != nil {
		opts.CannyHigh = *a.CannyHigh
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	var f *frame.Frame
	if custom {
		img, err := imgio.Open(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open frame: %w", err)
		}
		if f, err = frame.Preprocess(img, opts); err != nil {
			return nil, err
		}
	} else {
		var err error
		if f, err = s.cache.Load(a.Path, frame.ModeEdges); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Gray()); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}

	count := 0
	for _, p := range f.Gray().Pix {
		if p != 0 {
			count++
		}
	}

	return &EdgeMaskResult{
		Width:            f.Width(),
		Height:           f.Height(),
		ForegroundPixels: count,
		Options:          opts,
		ImageBase64:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:         "image/png",
	}, nil
}

type frameRegionArgs struct {
	frameArgs
	Region string  `json:"region"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleFrameRegion(args json.RawMessage) (interface{}, error) {
	var a frameRegionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("%w: scale must be > 0, got %g", errInvalidArgs, a.Scale)
	}
	f, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	r, err := s.analyzers.Follower.Layout.NamedRegion(a.Region, f.Width(), f.Height())
	if err != nil {
		if errors.Is(err, perception.ErrFrameTooSmall) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return f.Crop(r, a.Scale)
}

// === Line Following Handlers ===

type frameBandCentroidsArgs struct {
	frameArgs
	AreaThreshold *float64 `json:"area_threshold"`
}

// BandCentroidsResult lists the per-band centroids.
type BandCentroidsResult struct {
	Bands         [3]frame.Region      `json:"bands"`
	Centroids     [3]*contour.Centroid `json:"centroids"`
	AreaThreshold float64              `json:"area_threshold"`
}

func (s *Server) handleFrameBandCentroids(args json.RawMessage) (interface{}, error) {
	var a frameBandCentroidsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	follower := s.analyzers.Follower
	area := follower.AreaThreshold
	if a.AreaThreshold != nil {
		area = *a.AreaThreshold
	}
	if area <= 0 {
		return nil, fmt.Errorf("%w: area threshold must be > 0, got %g", errInvalidArgs, area)
	}

	f, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	bands, err := follower.Layout.Bands(f.Width(), f.Height())
	if err != nil {
		return nil, err
	}
	centroids, err := follower.BandCentroids(f, area)
	if err != nil {
		return nil, err
	}
	return &BandCentroidsResult{Bands: bands, Centroids: centroids, AreaThreshold: area}, nil
}

type frameFollowLineArgs struct {
	frameArgs
	AreaThreshold  *float64 `json:"area_threshold"`
	ErrorThreshold *int     `json:"error_threshold"`
}

func (s *Server) handleFrameFollowLine(args json.RawMessage) (interface{}, error) {
	var a frameFollowLineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	follower := s.analyzers.Follower
	area, errThreshold := follower.AreaThreshold, follower.ErrorThreshold
	if a.AreaThreshold != nil {
		area = *a.AreaThreshold
	}
	if a.ErrorThreshold != nil {
		errThreshold = *a.ErrorThreshold
	}

	f, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	return follower.FollowLineWith(f, area, errThreshold)
}

// === Marker Detection Handlers ===

type frameMarkerSignalArgs struct {
	frameArgs
	HThreshold    *int     `json:"h_threshold"`
	VThreshold    *int     `json:"v_threshold"`
	AreaThreshold *float64 `json:"area_threshold"`
	Confirmations *int     `json:"confirmations"`
}

// MarkerSignalResult pairs the per-frame signal with what the detector saw.
type MarkerSignalResult struct {
	Signal      perception.Signal            `json:"signal"`
	Params      perception.MarkerParams      `json:"params"`
	Observation perception.MarkerObservation `json:"observation"`
}

func (s *Server) handleFrameMarkerSignal(args json.RawMessage) (interface{}, error) {
	var a frameMarkerSignalArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	detector := *s.analyzers.Marker
	if a.HThreshold != nil {
		detector.Params.HThreshold = *a.HThreshold
	}
	if a.VThreshold != nil {
		detector.Params.VThreshold = *a.VThreshold
	}
	if a.AreaThreshold != nil {
		detector.Params.AreaThreshold = *a.AreaThreshold
	}
	if a.Confirmations != nil {
		detector.Params.Confirmations = *a.Confirmations
	}
	if err := detector.Params.Validate(); err != nil {
		return nil, err
	}

	f, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	signal, obs, err := detector.Signal(f)
	if err != nil {
		return nil, err
	}
	return &MarkerSignalResult{Signal: signal, Params: detector.Params, Observation: obs}, nil
}

// === Position Adjustment Handlers ===

type frameAdjustPositionArgs struct {
	frameArgs
	Strategy      string   `json:"strategy"`
	AreaThreshold *float64 `json:"area_threshold"`
}

func (s *Server) adjusterFor(a frameAdjustPositionArgs) (*perception.PositionAdjuster, error) {
	base := s.analyzers.Adjuster
	strategy := base.Strategy
	if a.Strategy != "" {
		parsed, err := perception.ParseAdjustStrategy(a.Strategy)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		strategy = parsed
	}
	area := s.cfg.Adjust.AreaThreshold
	if a.AreaThreshold != nil {
		area = *a.AreaThreshold
	}
	return perception.NewPositionAdjuster(strategy, s.analyzers.Follower, s.analyzers.Marker, area)
}

func (s *Server) handleFrameAdjustPosition(args json.RawMessage) (interface{}, error) {
	var a frameAdjustPositionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	adjuster, err := s.adjusterFor(a)
	if err != nil {
		return nil, err
	}

	f, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	return adjuster.Adjust(context.Background(), f)
}

// === Visualization Handlers ===

type frameOverlayArgs struct {
	frameArgs
	Adjust bool  `json:"adjust"`
	Labels *bool `json:"labels"`
}

// OverlayResult is the annotated frame plus the decisions drawn on it.
type OverlayResult struct {
	Width       int                          `json:"width"`
	Height      int                          `json:"height"`
	Steering    perception.SteeringDecision  `json:"steering"`
	Marker      perception.MarkerObservation `json:"marker"`
	Adjust      *perception.AdjustResult     `json:"adjust,omitempty"`
	ImageBase64 string                       `json:"image_base64"`
	MimeType    string                       `json:"mime_type"`
}

func (s *Server) handleFrameOverlay(args json.RawMessage) (interface{}, error) {
	var a frameOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	f, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}

	ov := perception.NewOverlay(f.Gray())
	if a.Labels != nil {
		ov.Labels = *a.Labels
	}
	follower := *s.analyzers.Follower
	if err := ov.DrawLayout(follower.Layout); err != nil {
		return nil, err
	}

	follower.Extractor.Annotator = ov
	marker := *s.analyzers.Marker
	marker.Annotator = ov

	result := &OverlayResult{Width: f.Width(), Height: f.Height(), MimeType: "image/png"}
	if result.Steering, err = follower.FollowLine(f); err != nil {
		return nil, err
	}
	if result.Marker, err = marker.Observe(f); err != nil {
		return nil, err
	}

	if a.Adjust {
		adjuster := *s.analyzers.Adjuster
		if adjuster.Strategy == perception.ZonedScan {
			adjuster.Extractor.Annotator = ov
			adjuster.Annotator = ov
		}
		res, err := adjuster.Adjust(context.Background(), f)
		if err != nil {
			return nil, err
		}
		result.Adjust = &res
	}

	if result.ImageBase64, err = ov.EncodePNG(); err != nil {
		return nil, err
	}
	return result, nil
}
