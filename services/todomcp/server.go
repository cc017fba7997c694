// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

// Server answers MCP requests over newline-delimited JSON-RPC 2.0.
//
// # Description
//
// Holds the todo store and the tool catalog. One Server handles one
// client connection: the process is started per client with stdin and
// stdout as the transport, so no concurrency control is needed inside
// the request loop.
//
// # Limitations
//
//   - Requests are processed strictly in order; a slow tool call delays
//     everything behind it.
type Server struct {
	store       todostore.Store
	registry    *toolRegistry
	initialized bool
}

// NewServer creates a Server and verifies that the registry and the
// handler table name exactly the same tools.
//
// # Inputs
//
//   - store: Todo record storage. Must not be nil.
//   - registry: Parsed tool catalog from loadToolRegistry.
//
// # Outputs
//
//   - *Server: Ready to Run.
//   - error: Non-nil when a registry entry has no handler or a handler
//     has no registry entry.
func NewServer(store todostore.Store, registry *toolRegistry) (*Server, error) {
	for _, tool := range registry.entries {
		if _, ok := toolHandlers[tool.Name]; !ok {
			return nil, fmt.Errorf("registry tool %q has no handler", tool.Name)
		}
	}
	for name := range toolHandlers {
		if _, ok := registry.byName[name]; !ok {
			return nil, fmt.Errorf("handler %q is missing from the registry", name)
		}
	}
	return &Server{store: store, registry: registry}, nil
}

// Run processes requests from input until EOF, writing one response line
// per request to output.
//
// # Description
//
// Each line is one JSON-RPC message. Unparseable lines get a parse-error
// response with a null id; notifications are consumed without a response;
// everything else is dispatched by method. Run returns on EOF or when the
// transport itself fails (unwritable output, over-long line).
//
// # Inputs
//
//   - input: Request stream, one JSON object per line.
//   - output: Response stream. Must receive nothing but protocol frames,
//     which is why logging goes to stderr.
//
// # Outputs
//
//   - error: Non-nil on transport failure. A clean EOF returns nil.
func (s *Server) Run(input io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(input)
	// Tool results can carry a whole todo list; allow lines well past the
	// bufio default.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	encoder := json.NewEncoder(output)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			if writeErr := writeError(encoder, json.RawMessage("null"), codeParseError, "parse error: "+err.Error()); writeErr != nil {
				return fmt.Errorf("writing parse error response: %w", writeErr)
			}
			continue
		}

		if req.JSONRPC != "2.0" {
			if !req.isNotification() {
				if writeErr := writeError(encoder, req.ID, codeInvalidRequest, "unsupported JSON-RPC version"); writeErr != nil {
					return fmt.Errorf("writing version error response: %w", writeErr)
				}
			}
			continue
		}

		if req.isNotification() {
			slog.Debug("notification received", "method", req.Method)
			continue
		}

		if err := s.dispatch(encoder, &req); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// dispatch routes one request to its method handler.
func (s *Server) dispatch(encoder *json.Encoder, req *request) error {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(encoder, req)
	case "ping":
		return writeResult(encoder, req.ID, map[string]any{})
	case "tools/list":
		if !s.initialized {
			return writeError(encoder, req.ID, codeInvalidRequest, "server not initialized (call initialize first)")
		}
		return writeResult(encoder, req.ID, toolsListResult{Tools: s.registry.describe()})
	case "tools/call":
		if !s.initialized {
			return writeError(encoder, req.ID, codeInvalidRequest, "server not initialized (call initialize first)")
		}
		return s.handleToolsCall(encoder, req)
	default:
		return writeError(encoder, req.ID, codeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *Server) handleInitialize(encoder *json.Encoder, req *request) error {
	if len(req.Params) == 0 {
		return writeError(encoder, req.ID, codeInvalidParams, "params required for initialize")
	}

	var params initializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return writeError(encoder, req.ID, codeInvalidParams, "invalid initialize params: "+err.Error())
	}

	// The server answers with its own protocol version; the client decides
	// whether to continue. No version is rejected here.
	s.initialized = true
	slog.Info("client initialized", "client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version, "requested_protocol", params.ProtocolVersion)

	return writeResult(encoder, req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: serverCapabilities{
			Tools: &toolCapability{},
		},
		ServerInfo: serverInfo{
			Name:    "todo-mcp",
			Version: serverVersion,
		},
	})
}

func (s *Server) handleToolsCall(encoder *json.Encoder, req *request) error {
	if len(req.Params) == 0 {
		return writeError(encoder, req.ID, codeInvalidParams, "params required for tools/call")
	}

	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return writeError(encoder, req.ID, codeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	handler, ok := toolHandlers[params.Name]
	if !ok {
		return writeError(encoder, req.ID, codeInvalidParams, "unknown tool: "+params.Name)
	}

	slog.Debug("tool call", "tool", params.Name)

	value, runErr := handler(s.store, params.Arguments)
	if runErr != nil {
		slog.Warn("tool call failed", "tool", params.Name, "error", runErr)
		return writeResult(encoder, req.ID, toolsCallResult{
			Content: []contentBlock{{Type: "text", Text: runErr.Error()}},
			IsError: true,
		})
	}

	data, err := json.Marshal(value)
	if err != nil {
		return writeError(encoder, req.ID, codeInternalError, "serializing tool result: "+err.Error())
	}

	result := toolsCallResult{
		Content: []contentBlock{{Type: "text", Text: string(data)}},
	}
	// Object results additionally travel as structuredContent; arrays,
	// booleans, and null stay text-only.
	if len(data) > 0 && data[0] == '{' {
		result.StructuredContent = data
	}

	return writeResult(encoder, req.ID, result)
}

// writeResult sends a JSON-RPC 2.0 success response.
func writeResult(encoder *json.Encoder, id json.RawMessage, result any) error {
	return encoder.Encode(response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// writeError sends a JSON-RPC 2.0 error response.
func writeError(encoder *json.Encoder, id json.RawMessage, code int, message string) error {
	return encoder.Encode(response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}
