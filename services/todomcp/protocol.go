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

import "encoding/json"

// protocolVersion is the MCP protocol version this server implements. The
// server always answers initialize with its own version; the client decides
// whether it can work with it.
const protocolVersion = "2025-06-18"

// serverVersion is reported in the initialize response.
const serverVersion = "1.0.0"

// =============================================================================
// JSON-RPC 2.0 FRAMING
// =============================================================================

// JSON-RPC 2.0 standard error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// request is a JSON-RPC 2.0 request or notification. A notification has no
// ID and receives no response.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *request) isNotification() bool {
	return len(r.ID) == 0
}

// response is a JSON-RPC 2.0 response. Exactly one of Result or Error is set.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// MCP MESSAGE TYPES
// =============================================================================

// initializeParams is the client's initialize request.
type initializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    any        `json:"capabilities"`
	ClientInfo      clientInfo `json:"clientInfo"`
}

// clientInfo identifies the connecting MCP client.
type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// initializeResult is the server's initialize response.
type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      serverInfo         `json:"serverInfo"`
}

// serverCapabilities declares what this server supports. The presence of
// Tools signals tool support.
type serverCapabilities struct {
	Tools *toolCapability `json:"tools,omitempty"`
}

// toolCapability carries tool-related capability flags. ListChanged declares
// whether the server sends notifications/tools/list_changed; this server's
// tool set is fixed at startup, so it never does.
type toolCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// serverInfo identifies this server to the client.
type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// toolsListResult is the result of tools/list.
type toolsListResult struct {
	Tools []toolDescription `json:"tools"`
}

// toolDescription describes one tool in the tools/list response.
type toolDescription struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema map[string]any   `json:"inputSchema"`
	Annotations *toolAnnotations `json:"annotations,omitempty"`
}

// toolAnnotations are behavioral hints. Nil fields mean the MCP defaults
// apply: readOnly=false, destructive=true, idempotent=false.
type toolAnnotations struct {
	ReadOnlyHint    *bool `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool `json:"idempotentHint,omitempty"`
}

// toolsCallParams is the client's tools/call request.
type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// toolsCallResult is the tools/call response. The serialized result always
// appears as a text content block; StructuredContent additionally carries
// the typed JSON when the result is an object.
type toolsCallResult struct {
	Content           []contentBlock  `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}

// contentBlock is a text content block inside a tool result.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
