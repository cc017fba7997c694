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
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// maxRegistrySize is the maximum allowed registry file size (1MB).
	maxRegistrySize = 1024 * 1024

	// registryPathEnv names an external registry file that overrides the
	// embedded default.
	registryPathEnv = "TASKS_TOOL_REGISTRY"
)

// =============================================================================
// EMBEDDED DEFAULT REGISTRY
// =============================================================================

//go:embed tool_registry.yaml
var defaultRegistryYAML []byte

// =============================================================================
// TYPES
// =============================================================================

// registryFile is the root structure of tool_registry.yaml.
type registryFile struct {
	Tools []registryTool `yaml:"tools"`
}

// registryTool is one tool entry in the registry. InputSchema holds the
// JSON Schema exactly as written in the YAML; it is served verbatim in
// tools/list and passed to LLM-facing tool definitions.
type registryTool struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Annotations *registryAnnotations `yaml:"annotations,omitempty"`
	InputSchema map[string]any       `yaml:"input_schema"`
}

// registryAnnotations are the behavioral hints declared in the YAML.
// Unset fields leave the MCP defaults in force.
type registryAnnotations struct {
	ReadOnly    *bool `yaml:"read_only"`
	Destructive *bool `yaml:"destructive"`
	Idempotent  *bool `yaml:"idempotent"`
}

// toolRegistry is the parsed tool catalog. Entries keep their YAML
// declaration order so tools/list output is stable.
type toolRegistry struct {
	entries []registryTool
	byName  map[string]*registryTool
}

// =============================================================================
// LOADING
// =============================================================================

// loadToolRegistry loads the tool catalog.
//
// # Description
//
// Reads the external registry file named by TASKS_TOOL_REGISTRY when that
// is set and readable, and falls back to the embedded default otherwise.
// The external path failing is a warning, not an error: a server with the
// built-in catalog beats no server.
//
// # Outputs
//
//   - *toolRegistry: The parsed catalog. Never nil on success.
//   - error: Non-nil when the chosen YAML does not parse or fails
//     validation.
//
// # Limitations
//
//   - The registry is read once at startup. Changing the file while the
//     server runs has no effect.
func loadToolRegistry() (*toolRegistry, error) {
	data := defaultRegistryYAML
	source := "embedded"

	if path := os.Getenv(registryPathEnv); path != "" {
		external, err := readExternalRegistry(path)
		if err != nil {
			slog.Warn("external tool registry not available, using embedded default",
				"path", path, "error", err)
		} else {
			data = external
			source = path
		}
	}

	registry, err := parseToolRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("parsing tool registry (%s): %w", source, err)
	}

	slog.Info("tool registry loaded", "tools", len(registry.entries), "source", source)
	return registry, nil
}

// readExternalRegistry reads an override registry file with a size check.
func readExternalRegistry(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > maxRegistrySize {
		return nil, fmt.Errorf("registry file too large: %d bytes (max %d)", info.Size(), maxRegistrySize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// parseToolRegistry parses and validates registry YAML.
func parseToolRegistry(data []byte) (*toolRegistry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}
	if len(file.Tools) == 0 {
		return nil, fmt.Errorf("registry declares no tools")
	}

	registry := &toolRegistry{
		entries: file.Tools,
		byName:  make(map[string]*registryTool, len(file.Tools)),
	}
	for i := range registry.entries {
		tool := &registry.entries[i]
		if tool.Name == "" {
			return nil, fmt.Errorf("tool at index %d has empty name", i)
		}
		if _, dup := registry.byName[tool.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name: %s", tool.Name)
		}
		if tool.InputSchema == nil {
			return nil, fmt.Errorf("tool %s has no input_schema", tool.Name)
		}
		registry.byName[tool.Name] = tool
	}

	return registry, nil
}

// =============================================================================
// REGISTRY METHODS
// =============================================================================

// count returns the number of registered tools.
func (r *toolRegistry) count() int {
	return len(r.entries)
}

// describe converts the catalog into tools/list wire descriptions.
func (r *toolRegistry) describe() []toolDescription {
	descriptions := make([]toolDescription, 0, len(r.entries))
	for _, tool := range r.entries {
		descriptions = append(descriptions, toolDescription{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
			Annotations: tool.Annotations.wire(),
		})
	}
	return descriptions
}

// wire converts YAML annotations to their MCP hint encoding. A nil
// receiver (no annotations block) yields nil, letting clients apply the
// protocol defaults.
func (a *registryAnnotations) wire() *toolAnnotations {
	if a == nil {
		return nil
	}
	return &toolAnnotations{
		ReadOnlyHint:    a.ReadOnly,
		DestructiveHint: a.Destructive,
		IdempotentHint:  a.Idempotent,
	}
}
