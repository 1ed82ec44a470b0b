package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/filterlab/internal/config"
	"github.com/ironsheep/filterlab/internal/imaging"
	"github.com/ironsheep/filterlab/internal/params"
	"github.com/ironsheep/filterlab/internal/report"
	"github.com/ironsheep/filterlab/internal/session"
	"github.com/ironsheep/filterlab/internal/stats"
)

// createTestImageFile creates a solid-color PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return f.Name()
}

// callTool runs tools/call and returns the raw response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	p := map[string]interface{}{"name": name}
	if args != nil {
		p["arguments"] = args
	}
	paramsJSON, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// callToolOK runs a tool, fails on error, and decodes the text payload into v.
func callToolOK(t *testing.T, s *Server, name string, args, v interface{}) {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s failed: %s (%v)", name, resp.Error.Message, resp.Error.Data)
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if v == nil {
		return
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
}

func expectCode(t *testing.T, resp *MCPResponse, code int) {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected error code %d, got result %v", code, resp.Result)
	}
	if resp.Error.Code != code {
		t.Errorf("code = %d (%v), want %d", resp.Error.Code, resp.Error.Data, code)
	}
}

func loadPair(t *testing.T, s *Server) {
	t.Helper()
	ref := createTestImageFile(t, 30, 20, color.NRGBA{200, 180, 150, 255})
	mine := createTestImageFile(t, 30, 20, color.NRGBA{90, 100, 120, 255})
	callToolOK(t, s, "photo_load_reference", map[string]string{"path": ref}, nil)
	callToolOK(t, s, "photo_load_mine", map[string]string{"path": mine}, nil)
}

func TestHandleToolsCall_LoadReference(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 100, 80, color.NRGBA{255, 0, 0, 255})

	var res LoadResult
	callToolOK(t, s, "photo_load_reference", map[string]string{"path": path}, &res)

	if res.Role != session.Reference {
		t.Errorf("Role = %q", res.Role)
	}
	if res.Info.Width != 100 || res.Info.Height != 80 || res.Info.Format != "png" {
		t.Errorf("Info = %+v", res.Info)
	}
	if res.Statistics.Pixels != 8000 {
		t.Errorf("Pixels = %d, want 8000", res.Statistics.Pixels)
	}
	if res.Statistics.ColorTemperature != 255 {
		t.Errorf("ColorTemperature = %v, want 255", res.Statistics.ColorTemperature)
	}
}

func TestHandleToolsCall_LoadErrors(t *testing.T) {
	s := newTestServer()

	expectCode(t, callTool(t, s, "photo_load_mine", map[string]string{}), -32602)
	expectCode(t, callTool(t, s, "photo_load_mine", map[string]string{"path": "/nonexistent.png"}), -32000)
	expectCode(t, callTool(t, s, "photo_load_mine", map[string]string{"path": "/x.png", "bogus": "1"}), -32602)

	heic := filepath.Join(t.TempDir(), "phone.heic")
	if err := os.WriteFile(heic, []byte("ftypheic"), 0o644); err != nil {
		t.Fatal(err)
	}
	resp := callTool(t, s, "photo_load_reference", map[string]string{"path": heic})
	expectCode(t, resp, -32000)
	if !strings.Contains(resp.Error.Data.(string), "HEIC") {
		t.Errorf("HEIC error should say so: %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_LoadTransparent(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, 4, 4, color.NRGBA{0, 0, 0, 0})

	resp := callTool(t, s, "photo_load_mine", map[string]string{"path": path})
	expectCode(t, resp, -32000)
	if !strings.Contains(resp.Error.Data.(string), "mine image") {
		t.Errorf("error should name the role: %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_Statistics(t *testing.T) {
	s := newTestServer()
	expectCode(t, callTool(t, s, "photo_statistics", map[string]string{"role": "mine"}), -32000)
	expectCode(t, callTool(t, s, "photo_statistics", map[string]string{"role": "theirs"}), -32602)

	loadPair(t, s)
	var st stats.Statistics
	callToolOK(t, s, "photo_statistics", map[string]string{"role": "reference"}, &st)
	if st.Width != 30 || st.Height != 20 {
		t.Errorf("statistics size = %dx%d", st.Width, st.Height)
	}
}

func TestHandleToolsCall_AnalyzeFlow(t *testing.T) {
	s := newTestServer()
	expectCode(t, callTool(t, s, "photo_analyze", nil), -32000)

	loadPair(t, s)

	var sg session.Suggestion
	callToolOK(t, s, "photo_analyze", nil, &sg)
	if sg.Params.Exposure <= 0 || sg.Params.Warmth <= 0 {
		t.Errorf("expected brighter and warmer suggestion, got %+v", sg.Params)
	}
	if len(sg.Report) != 14 {
		t.Errorf("report has %d lines", len(sg.Report))
	}

	var adj AdjustmentsResult
	callToolOK(t, s, "photo_get_adjustments", nil, &adj)
	if adj.Adjustments != sg.Params {
		t.Error("analyze should make the suggestion current")
	}
	if adj.Suggested == nil {
		t.Error("get_adjustments should include the suggestion")
	}
}

func TestHandleToolsCall_Compare(t *testing.T) {
	s := newTestServer()
	ref := createTestImageFile(t, 10, 10, color.NRGBA{150, 150, 150, 255})
	mine := createTestImageFile(t, 10, 10, color.NRGBA{100, 100, 100, 255})

	var sg session.Suggestion
	callToolOK(t, s, "photo_compare", map[string]string{"reference_path": ref, "mine_path": mine}, &sg)
	if sg.Difference.Luminance <= 49 || sg.Difference.Luminance >= 51 {
		t.Errorf("luminance delta = %v, want ~50", sg.Difference.Luminance)
	}

	if st := s.Session().Status(); st.Reference != nil || st.Mine != nil {
		t.Error("photo_compare should not touch the shared session")
	}

	expectCode(t, callTool(t, s, "photo_compare", map[string]string{"reference_path": ref}), -32602)
}

func TestHandleToolsCall_SetAdjustments(t *testing.T) {
	s := newTestServer()

	var res AdjustmentsResult
	callToolOK(t, s, "photo_set_adjustments", map[string]interface{}{
		"adjustments": map[string]int{"exposure": 20, "blackPoint": -500},
	}, &res)
	if res.Adjustments.Exposure != 20 || res.Adjustments.BlackPoint != -100 {
		t.Errorf("adjustments = %+v", res.Adjustments)
	}

	callToolOK(t, s, "photo_set_adjustments", map[string]interface{}{
		"adjustments": map[string]int{"tint": 5},
	}, &res)
	if res.Adjustments.Exposure != 20 || res.Adjustments.Tint != 5 {
		t.Errorf("merge lost values: %+v", res.Adjustments)
	}

	callToolOK(t, s, "photo_set_adjustments", map[string]interface{}{
		"adjustments": map[string]int{"clarity": 1},
		"replace":     true,
	}, &res)
	if res.Adjustments != (params.Params{Clarity: 1}) {
		t.Errorf("replace kept old values: %+v", res.Adjustments)
	}

	expectCode(t, callTool(t, s, "photo_set_adjustments", map[string]interface{}{
		"adjustments": map[string]int{"sharpness": 1},
	}), -32602)
}

func TestHandleToolsCall_Reset(t *testing.T) {
	s := newTestServer()
	expectCode(t, callTool(t, s, "photo_reset_adjustments", map[string]string{"to": "suggested"}), -32000)
	expectCode(t, callTool(t, s, "photo_reset_adjustments", map[string]string{"to": "sideways"}), -32602)

	loadPair(t, s)
	var sg session.Suggestion
	callToolOK(t, s, "photo_analyze", nil, &sg)

	var res AdjustmentsResult
	callToolOK(t, s, "photo_reset_adjustments", nil, &res)
	if !res.Adjustments.IsNeutral() || !s.Session().Adjustments().IsNeutral() {
		t.Error("default reset should zero the sliders")
	}

	callToolOK(t, s, "photo_reset_adjustments", map[string]string{"to": "suggested"}, &res)
	if res.Adjustments != sg.Params {
		t.Error("reset to suggested did not restore suggestion")
	}
}

func TestHandleToolsCall_Report(t *testing.T) {
	s := newTestServer()
	s.Session().SetAdjustments(params.Params{Shadows: -12})

	var res ReportResult
	callToolOK(t, s, "photo_report", nil, &res)
	if got := strings.Count(res.Text, "\n") + 1; got != 14 {
		t.Errorf("report text has %d lines, want 14", got)
	}
	if res.Text != report.Format(params.Params{Shadows: -12}) {
		t.Error("report text differs from report.Format")
	}
	if res.Lines[3].Value != -12 || res.Lines[3].Direction != "decrease 12" {
		t.Errorf("shadows line = %+v", res.Lines[3])
	}
}

func TestHandleToolsCall_PreviewAndExport(t *testing.T) {
	s := newTestServer()
	expectCode(t, callTool(t, s, "photo_preview", nil), -32000)

	loadPair(t, s)

	var enc imaging.EncodedImage
	callToolOK(t, s, "photo_preview", map[string]string{"format": "png"}, &enc)
	if enc.MimeType != "image/png" || enc.Width != 30 || enc.ImageBase64 == "" {
		t.Errorf("preview = %+v", enc)
	}
	expectCode(t, callTool(t, s, "photo_preview", map[string]string{"format": "gif"}), -32602)

	callToolOK(t, s, "photo_export", nil, &enc)
	if enc.MimeType != "image/jpeg" || enc.Height != 20 {
		t.Errorf("export = %+v", enc)
	}

	out := filepath.Join(t.TempDir(), "edited.png")
	var res ExportResult
	callToolOK(t, s, "photo_export", map[string]interface{}{"path": out}, &res)
	if res.Path != out || res.Width != 30 {
		t.Errorf("export result = %+v", res)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer()
	expectCode(t, callTool(t, s, "photo_sharpen", nil), -32602)
}

func TestHandleToolsCall_BadParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"just a string"`),
	})
	expectCode(t, resp, -32602)
}

func TestMergeSliders(t *testing.T) {
	base := params.Params{Exposure: 10, Warmth: 3}

	got, err := mergeSliders(base, map[string]int{"warmth": -4}, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Exposure != 10 || got.Warmth != -4 {
		t.Errorf("merge = %+v", got)
	}

	got, err = mergeSliders(base, nil, true)
	if err != nil || !got.IsNeutral() {
		t.Errorf("replace with no values = %+v, %v", got, err)
	}

	if _, err := mergeSliders(base, map[string]int{"Exposure": 1}, false); err == nil {
		t.Error("slider keys are case sensitive")
	}
}

func TestHandleToolsCall_LoadReleasesReplacedPhotos(t *testing.T) {
	s := newTestServer()

	for i := 0; i < 3; i++ {
		path := createTestImageFile(t, 8, 8, color.NRGBA{uint8(40 * i), 90, 90, 255})
		callToolOK(t, s, "photo_load_mine", map[string]string{"path": path}, nil)
		if n := s.cache.Len(); n != 1 {
			t.Fatalf("after load %d cache holds %d photos, want 1", i, n)
		}
	}

	ref := createTestImageFile(t, 8, 8, color.NRGBA{200, 200, 200, 255})
	callToolOK(t, s, "photo_load_reference", map[string]string{"path": ref}, nil)
	if n := s.cache.Len(); n != 2 {
		t.Errorf("cache holds %d photos with both roles loaded, want 2", n)
	}

	// Reloading the same path keeps it cached.
	callToolOK(t, s, "photo_load_reference", map[string]string{"path": ref}, nil)
	if n := s.cache.Len(); n != 2 {
		t.Errorf("cache holds %d photos after reload, want 2", n)
	}

	transparent := createTestImageFile(t, 2, 2, color.NRGBA{})
	expectCode(t, callTool(t, s, "photo_load_mine", map[string]string{"path": transparent}), -32000)
	if n := s.cache.Len(); n != 2 {
		t.Errorf("failed load left %d photos cached, want 2", n)
	}
}

func TestHandleToolsCall_CompareReleasesPhotos(t *testing.T) {
	s := newTestServer()
	a := createTestImageFile(t, 6, 6, color.NRGBA{150, 140, 130, 255})
	b := createTestImageFile(t, 6, 6, color.NRGBA{100, 110, 120, 255})

	callToolOK(t, s, "photo_compare", map[string]string{"reference_path": a, "mine_path": b}, nil)
	if n := s.cache.Len(); n != 0 {
		t.Errorf("photo_compare left %d photos cached, want 0", n)
	}

	callToolOK(t, s, "photo_load_mine", map[string]string{"path": b}, nil)
	callToolOK(t, s, "photo_compare", map[string]string{"reference_path": a, "mine_path": b}, nil)
	if n := s.cache.Len(); n != 1 {
		t.Errorf("photo_compare should keep the loaded mine only, cache holds %d", n)
	}
}

func TestHandleToolsCall_ExportFormatMustMatchPath(t *testing.T) {
	s := newTestServer()
	loadPair(t, s)
	dir := t.TempDir()

	jpg := filepath.Join(dir, "x.jpg")
	expectCode(t, callTool(t, s, "photo_export", map[string]interface{}{"path": jpg, "format": "png"}), -32602)
	if _, err := os.Stat(jpg); !os.IsNotExist(err) {
		t.Error("mismatched export should not write a file")
	}

	expectCode(t, callTool(t, s, "photo_export", map[string]interface{}{"path": filepath.Join(dir, "x.raw")}), -32602)

	out := filepath.Join(dir, "x.png")
	callToolOK(t, s, "photo_export", map[string]interface{}{"path": out, "format": "png"}, nil)
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Errorf("x.png starts with % x, want PNG signature", raw[:4])
	}

	// The configured format only applies to base64 output.
	cfg := config.Default()
	cfg.ExportFormat = "png"
	s2 := New(cfg, "test")
	loadPair(t, s2)
	jpgOut := filepath.Join(dir, "y.jpg")
	callToolOK(t, s2, "photo_export", map[string]interface{}{"path": jpgOut}, nil)
	raw, err = os.ReadFile(jpgOut)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte{0xFF, 0xD8}) {
		t.Errorf("y.jpg starts with % x, want JPEG SOI", raw[:2])
	}

	var enc imaging.EncodedImage
	callToolOK(t, s2, "photo_export", nil, &enc)
	if enc.MimeType != "image/png" {
		t.Errorf("base64 export mime = %q, want configured png", enc.MimeType)
	}
}
