// Package server implements the MCP (Model Context Protocol) server for the
// photo filter lab.
//
// This package provides a JSON-RPC 2.0 server that lets an MCP client load a
// reference photo and a photo to edit, obtain suggested editor sliders that
// move one toward the other, tweak those sliders and render the result.
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
// Loading:
//   - photo_load_reference: Load and measure the reference photo
//   - photo_load_mine: Load and measure the photo to edit
//   - photo_statistics: Measured statistics of either photo
//
// Analysis:
//   - photo_analyze: Suggest sliders from the loaded pair
//   - photo_compare: One-shot comparison of two files
//
// Adjustments:
//   - photo_set_adjustments, photo_get_adjustments, photo_reset_adjustments
//   - photo_report: Fourteen-line slider description
//
// Rendering:
//   - photo_preview: Working-size render as base64
//   - photo_export: Full-resolution render to a file or base64
//
// # State
//
// One session is shared by every tool call. Decoded files are cached by path
// for the lifetime of the process, so reloading a photo is cheap.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32601: unknown method
//   - -32602: malformed or missing tool arguments, unknown tool
//   - -32000: tool execution failure (unreadable file, photo without
//     visible pixels, analyze before both photos are loaded, ...)
//
// The data field carries the Go error string.
//
// # Usage
//
//	srv := server.New(cfg, version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
