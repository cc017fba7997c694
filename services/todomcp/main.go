// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// The todomcp command exposes todo operations as MCP tools over stdio.
//
// MCP clients (Claude Desktop, IDE agents) start this binary and speak
// newline-delimited JSON-RPC 2.0 on stdin/stdout. The server works on the
// same data file as the todo API, so tool calls and HTTP requests see one
// collection.
//
// Environment:
//
//	TASKS_DATA_FILE      data file path (default todo_data.json)
//	TASKS_SEED_FILE      seed template path (default todo_data.sample.json)
//	TASKS_STRICT_PARSE   treat a corrupt data file as an error
//	TASKS_TOOL_REGISTRY  external tool registry override
package main

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/AleutianAI/AleutianTasks/pkg/logging"
	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

func main() {
	// stdout carries the protocol; every log line goes to stderr.
	logger := logging.New(logging.Config{JSON: true})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	dataFile := os.Getenv("TASKS_DATA_FILE")
	if dataFile == "" {
		dataFile = "todo_data.json"
	}
	seedFile := os.Getenv("TASKS_SEED_FILE")
	if seedFile == "" {
		seedFile = "todo_data.sample.json"
	}
	opts := []todostore.Option{todostore.WithSeedFile(seedFile)}
	if strict := os.Getenv("TASKS_STRICT_PARSE"); strict == "1" || strings.EqualFold(strict, "true") {
		opts = append(opts, todostore.WithStrictParse())
	}
	store := todostore.NewFileStore(dataFile, opts...)

	registry, err := loadToolRegistry()
	if err != nil {
		log.Fatalf("failed to load tool registry: %v", err)
	}

	server, err := NewServer(store, registry)
	if err != nil {
		log.Fatalf("failed to build MCP server: %v", err)
	}

	slog.Info("todo MCP server listening on stdio",
		"store", store.Path(), "tools", registry.count())

	if err := server.Run(os.Stdin, os.Stdout); err != nil {
		log.Fatalf("MCP server terminated: %v", err)
	}
}
