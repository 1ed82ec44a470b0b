package server

import (
	"testing"

	"github.com/ironsheep/filterlab/internal/params"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"photo_load_reference",
		"photo_load_mine",
		"photo_statistics",
		"photo_analyze",
		"photo_compare",
		"photo_set_adjustments",
		"photo_get_adjustments",
		"photo_reset_adjustments",
		"photo_report",
		"photo_preview",
		"photo_export",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"]; !ok {
				t.Error("InputSchema missing 'properties' field")
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	want := map[string][]string{
		"photo_load_reference":  {"path"},
		"photo_load_mine":       {"path"},
		"photo_statistics":      {"role"},
		"photo_compare":         {"reference_path", "mine_path"},
		"photo_set_adjustments": {"adjustments"},
	}

	for _, tool := range GetToolDefinitions() {
		fields, ok := want[tool.Name]
		if !ok {
			continue
		}
		required, _ := tool.InputSchema["required"].([]string)
		if len(required) != len(fields) {
			t.Errorf("%s required = %v, want %v", tool.Name, required, fields)
			continue
		}
		for i := range fields {
			if required[i] != fields[i] {
				t.Errorf("%s required = %v, want %v", tool.Name, required, fields)
			}
		}
	}
}

func TestSliderProperties_CoversEverySlider(t *testing.T) {
	props := sliderProperties()
	for _, sl := range params.All() {
		if _, ok := props[sl.Key()]; !ok {
			t.Errorf("slider %s missing from schema", sl.Key())
		}
	}
	if len(props) != len(params.All()) {
		t.Errorf("schema has %d sliders, want %d", len(props), len(params.All()))
	}
}
