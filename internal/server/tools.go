package server

import "github.com/ironsheep/filterlab/internal/params"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the " + what + " image file (PNG, JPEG, GIF, BMP, TIFF or WebP)",
	}
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// sliderProperties describes the fourteen slider keys accepted by
// photo_set_adjustments.
func sliderProperties() map[string]interface{} {
	props := make(map[string]interface{})
	for _, sl := range params.All() {
		props[sl.Key()] = map[string]interface{}{
			"type":    "integer",
			"minimum": -100,
			"maximum": 100,
		}
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Loading
		{
			Name:        "photo_load_reference",
			Description: "Load the reference photo (the look to match). Returns its metadata and measured statistics. Discards any previous suggestion.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("reference"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_load_mine",
			Description: "Load the photo to be edited. Returns its metadata and measured statistics. Resets all sliders to zero.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("editable"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_statistics",
			Description: "Return the measured statistics (mean luminance, contrast, saturation, highlight and shadow means, color temperature, tint) of a loaded photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"role": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"reference", "mine"},
						"description": "Which loaded photo to describe",
					},
				},
				"required": []string{"role"},
			},
		},

		// Analysis
		{
			Name:        "photo_analyze",
			Description: "Compare the loaded reference and mine photos and suggest slider values that move mine toward the reference. The suggestion becomes the current adjustment set.",
			InputSchema: noArgs(),
		},
		{
			Name:        "photo_compare",
			Description: "Stateless comparison of two photo files. Returns statistics, deltas and suggested sliders without changing the session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reference_path": pathProperty("reference"),
					"mine_path":      pathProperty("editable"),
				},
				"required": []string{"reference_path", "mine_path"},
			},
		},

		// Adjustments
		{
			Name:        "photo_set_adjustments",
			Description: "Set slider values (each -100..100, out-of-range values are clamped). Sliders not named keep their current value unless replace is true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"adjustments": map[string]interface{}{
						"type":                 "object",
						"properties":           sliderProperties(),
						"additionalProperties": false,
					},
					"replace": map[string]interface{}{
						"type":        "boolean",
						"description": "Start from all-zero sliders instead of the current ones. Default false",
						"default":     false,
					},
				},
				"required": []string{"adjustments"},
			},
		},
		{
			Name:        "photo_get_adjustments",
			Description: "Return the current slider values and, when available, the last suggestion.",
			InputSchema: noArgs(),
		},
		{
			Name:        "photo_reset_adjustments",
			Description: "Reset the sliders, either to zero or back to the last suggestion.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"to": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"neutral", "suggested"},
						"description": "Target values. Default neutral",
						"default":     "neutral",
					},
				},
			},
		},
		{
			Name:        "photo_report",
			Description: "Describe the current sliders as fourteen human-readable lines, in the order a phone photo editor lists them.",
			InputSchema: noArgs(),
		},

		// Rendering
		{
			Name:        "photo_preview",
			Description: "Render the current sliders over the working-size copy of mine and return it as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png"},
						"description": "Output format. Default jpeg",
					},
				},
			},
		},
		{
			Name:        "photo_export",
			Description: "Render the current sliders over the full-resolution copy of mine. Writes to path when given, otherwise returns base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Output file; the extension selects the format",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png"},
						"description": "Output format. With path it must match the file extension; without, it defaults to the configured export format",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"minimum":     1,
						"maximum":     100,
						"description": "JPEG quality. Defaults to the configured export quality",
					},
				},
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
