package server

import "github.com/ironsheep/linefollow-vision/internal/perception"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the frame image file",
	}
}

func modeProperty(def string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"mask", "edges"},
		"description": "How the file becomes a binary frame: 'mask' thresholds an already-binary image, 'edges' runs blur and Canny on a camera frame",
		"default":     def,
	}
}

func numberProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frame Information
		{
			Name:        "frame_load",
			Description: "Load a frame image and return its dimensions, format and foreground pixel count. The converted frame is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"mode": modeProperty("mask"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_edge_mask",
			Description: "Run the camera preprocessing (grayscale, Gaussian blur, Canny) and return the binary edge mask as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"blur_sigma": numberProperty("Gaussian blur sigma; 0 disables the blur. Defaults to the configured value"),
					"canny_low":  integerProperty("Weak-edge threshold (0-255). Defaults to the configured value"),
					"canny_high": integerProperty("Strong-edge threshold (0-255). Defaults to the configured value"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_region",
			Description: "Crop one analysis region of the frame (a follow band, the marker window, the validation strip or an adjust zone) and return it as base64-encoded PNG. Use this to zoom into what an analyzer sees.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"mode": modeProperty("mask"),
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        perception.RegionNames(),
						"description": "Named layout region to extract",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 4.0 to enlarge the marker window). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "region"},
			},
		},

		// Line Following
		{
			Name:        "frame_band_centroids",
			Description: "Find the line centroid in each of the three vertical bands (left, center, right). A band without a qualifying contour reports null.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty(),
					"mode":           modeProperty("mask"),
					"area_threshold": numberProperty("Minimum contour area in pixels. Defaults to the configured follow threshold"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_follow_line",
			Description: "Compute the steering decision for a frame: band centroids, mean line row, steering error and turn (left, straight, right).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":            pathProperty(),
					"mode":            modeProperty("mask"),
					"area_threshold":  numberProperty("Minimum contour area in pixels"),
					"error_threshold": integerProperty("Dead band of the steering error in pixels"),
				},
				"required": []string{"path"},
			},
		},

		// Marker Detection
		{
			Name:        "frame_marker_signal",
			Description: "Look for a stop marker: the strongest Harris corner in the marker window and the validation-strip contours that coincide with it. Returns the observation and the per-frame signal.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty(),
					"mode":           modeProperty("mask"),
					"h_threshold":    integerProperty("Horizontal coincidence tolerance in pixels"),
					"v_threshold":    integerProperty("Vertical coincidence tolerance in pixels"),
					"area_threshold": numberProperty("Minimum validation contour area in pixels"),
					"confirmations":  integerProperty("Matches required for a detection"),
				},
				"required": []string{"path"},
			},
		},

		// Position Adjustment
		{
			Name:        "frame_adjust_position",
			Description: "Run one position adjustment step over a marker, returning the steering, the occupied zone and whether the vehicle is centered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"mode": modeProperty("mask"),
					"strategy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"band_follow", "zoned_scan"},
						"description": "Adjustment strategy. Defaults to the configured strategy",
					},
					"area_threshold": numberProperty("Minimum zone contour area in pixels (zoned_scan)"),
				},
				"required": []string{"path"},
			},
		},

		// Visualization
		{
			Name:        "frame_overlay",
			Description: "Draw the analysis over the frame (bands, marker window, validation strip, centroids, corner feature and optionally the adjust zone) and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"mode": modeProperty("mask"),
					"adjust": map[string]interface{}{
						"type":        "boolean",
						"description": "Also run the position adjuster and tint the occupied zone",
						"default":     false,
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Print centroid coordinates next to each mark",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
