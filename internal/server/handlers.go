package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ironsheep/filterlab/internal/imaging"
	"github.com/ironsheep/filterlab/internal/params"
	"github.com/ironsheep/filterlab/internal/report"
	"github.com/ironsheep/filterlab/internal/session"
	"github.com/ironsheep/filterlab/internal/stats"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "photo_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// argError marks a failure caused by malformed tool arguments.
type argError struct {
	err error
}

func (e *argError) Error() string { return "invalid arguments: " + e.err.Error() }
func (e *argError) Unwrap() error { return e.err }

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602; every other tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var p ToolCallParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(p.Name, p.Arguments)
	if err != nil {
		if s.cfg.Debug() {
			log.Printf("Tool %s failed: %v", p.Name, err)
		}
		var ae *argError
		if errors.As(err, &ae) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Loading
	case "photo_load_reference":
		return s.handleLoad(args, session.Reference)
	case "photo_load_mine":
		return s.handleLoad(args, session.Mine)
	case "photo_statistics":
		return s.handleStatistics(args)

	// Analysis
	case "photo_analyze":
		return s.session.Analyze()
	case "photo_compare":
		return s.handleCompare(args)

	// Adjustments
	case "photo_set_adjustments":
		return s.handleSetAdjustments(args)
	case "photo_get_adjustments":
		return s.handleGetAdjustments()
	case "photo_reset_adjustments":
		return s.handleResetAdjustments(args)
	case "photo_report":
		return s.handleReport(), nil

	// Rendering
	case "photo_preview":
		return s.handlePreview(args)
	case "photo_export":
		return s.handleExport(args)

	default:
		return nil, &argError{fmt.Errorf("unknown tool: %s", name)}
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating a missing object as empty.
// Unknown fields are rejected so typos in slider names surface.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 || string(args) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &argError{err}
	}
	return nil
}

// === Loading Handlers ===

type loadArgs struct {
	Path string `json:"path"`
}

// LoadResult describes a photo after it has been measured.
type LoadResult struct {
	Role       session.Role      `json:"role"`
	Info       imaging.ImageInfo `json:"info"`
	Statistics stats.Statistics  `json:"statistics"`
}

func (s *Server) handleLoad(args json.RawMessage, role session.Role) (interface{}, error) {
	var a loadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, &argError{errors.New("path is required")}
	}

	photo, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	load := s.session.LoadMine
	if role == session.Reference {
		load = s.session.LoadReference
	}
	st, err := load(photo)
	if err != nil {
		s.pin("", "")
		return nil, err
	}
	s.pin(role, a.Path)

	return &LoadResult{Role: role, Info: photo.Info, Statistics: st}, nil
}

type statisticsArgs struct {
	Role string `json:"role"`
}

func (s *Server) handleStatistics(args json.RawMessage) (interface{}, error) {
	var a statisticsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	role, err := session.ParseRole(a.Role)
	if err != nil {
		return nil, &argError{err}
	}
	return s.session.Statistics(role)
}

// === Analysis Handlers ===

type compareArgs struct {
	ReferencePath string `json:"reference_path"`
	MinePath      string `json:"mine_path"`
}

func (s *Server) handleCompare(args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ReferencePath == "" || a.MinePath == "" {
		return nil, &argError{errors.New("reference_path and mine_path are required")}
	}

	defer s.pin("", "")

	ref, err := s.cache.Load(a.ReferencePath)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	mine, err := s.cache.Load(a.MinePath)
	if err != nil {
		return nil, fmt.Errorf("mine: %w", err)
	}

	// A scratch session keeps the shared one untouched.
	scratch := session.New(sessionOptions(s.cfg))
	if _, err := scratch.LoadReference(ref); err != nil {
		return nil, err
	}
	if _, err := scratch.LoadMine(mine); err != nil {
		return nil, err
	}
	return scratch.Analyze()
}

// === Adjustment Handlers ===

type setAdjustmentsArgs struct {
	Adjustments map[string]int `json:"adjustments"`
	Replace     bool           `json:"replace"`
}

// AdjustmentsResult reports the sliders in effect.
type AdjustmentsResult struct {
	Adjustments params.Params       `json:"adjustments"`
	Suggested   *session.Suggestion `json:"suggested,omitempty"`
}

func (s *Server) handleSetAdjustments(args json.RawMessage) (interface{}, error) {
	var a setAdjustmentsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	p, err := mergeSliders(s.session.Adjustments(), a.Adjustments, a.Replace)
	if err != nil {
		return nil, &argError{err}
	}
	return &AdjustmentsResult{Adjustments: s.session.SetAdjustments(p)}, nil
}

// mergeSliders applies named slider values on top of base, or on top of zero
// when replace is set.
func mergeSliders(base params.Params, values map[string]int, replace bool) (params.Params, error) {
	if replace {
		base = params.Params{}
	}
	for key, v := range values {
		sl, ok := params.Lookup(key)
		if !ok {
			return params.Params{}, fmt.Errorf("unknown slider %q", key)
		}
		base.Set(sl, v)
	}
	return base, nil
}

func (s *Server) handleGetAdjustments() (interface{}, error) {
	res := &AdjustmentsResult{Adjustments: s.session.Adjustments()}
	if sg, ok := s.session.Suggested(); ok {
		res.Suggested = &sg
	}
	return res, nil
}

type resetArgs struct {
	To string `json:"to"`
}

func (s *Server) handleResetAdjustments(args json.RawMessage) (interface{}, error) {
	var a resetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	switch strings.ToLower(a.To) {
	case "", "neutral":
		s.session.ResetAdjustments()
		return &AdjustmentsResult{Adjustments: params.Params{}}, nil
	case "suggested":
		p, err := s.session.ResetToSuggested()
		if err != nil {
			return nil, err
		}
		return &AdjustmentsResult{Adjustments: p}, nil
	default:
		return nil, &argError{fmt.Errorf("unknown reset target %q (want neutral or suggested)", a.To)}
	}
}

// ReportResult carries the slider report as text and as structured rows.
type ReportResult struct {
	Text  string        `json:"text"`
	Lines []report.Line `json:"lines"`
}

func (s *Server) handleReport() *ReportResult {
	p := s.session.Adjustments()
	return &ReportResult{
		Text:  report.Format(p),
		Lines: report.Lines(p),
	}
}

// === Rendering Handlers ===

type previewArgs struct {
	Format string `json:"format"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if _, _, err := imaging.ParseFormat(a.Format); err != nil {
		return nil, &argError{err}
	}

	img, err := s.session.Preview()
	if err != nil {
		return nil, err
	}
	return imaging.EncodeBase64(img, a.Format, s.cfg.ExportQuality)
}

type exportArgs struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

// ExportResult describes a file written by photo_export.
type ExportResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleExport(args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Quality == 0 {
		a.Quality = s.cfg.ExportQuality
	}

	// Files take their encoder from the extension; an explicit format must
	// agree with it. Base64 output falls back to the configured format.
	if a.Path != "" {
		if _, err := imaging.SaveFormat(a.Path, a.Format); err != nil {
			return nil, &argError{err}
		}
	} else {
		if a.Format == "" {
			a.Format = s.cfg.ExportFormat
		}
		if _, _, err := imaging.ParseFormat(a.Format); err != nil {
			return nil, &argError{err}
		}
	}

	img, err := s.session.Export()
	if err != nil {
		return nil, err
	}

	if a.Path == "" {
		return imaging.EncodeBase64(img, a.Format, a.Quality)
	}
	if err := imaging.Save(img, a.Path, a.Format, a.Quality); err != nil {
		return nil, err
	}
	return &ExportResult{Path: a.Path, Width: img.Rect.Dx(), Height: img.Rect.Dy()}, nil
}
