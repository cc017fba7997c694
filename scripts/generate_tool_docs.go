// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_tool_docs generates a markdown reference from the MCP tool registry.
//
// Usage:
//
//	go run scripts/generate_tool_docs.go > docs/tool_reference.md
//
// The generated documentation includes:
//   - Full tool inventory with behavioral hints
//   - Per-tool parameter tables derived from the input schemas
//   - Summary statistics
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// registryPath is where the MCP server keeps its embedded tool catalog.
const registryPath = "services/todomcp/tool_registry.yaml"

// ToolRegistryYAML is the root structure for YAML deserialization.
type ToolRegistryYAML struct {
	Tools []ToolEntryYAML `yaml:"tools"`
}

// ToolEntryYAML represents a single tool entry in the YAML file.
type ToolEntryYAML struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Annotations *ToolHintsYAML `yaml:"annotations,omitempty"`
	InputSchema map[string]any `yaml:"input_schema"`
}

// ToolHintsYAML represents the behavioral hints for a tool.
type ToolHintsYAML struct {
	ReadOnly    *bool `yaml:"read_only"`
	Destructive *bool `yaml:"destructive"`
	Idempotent  *bool `yaml:"idempotent"`
}

// ToolParameter is one parameter extracted from a tool's input schema.
type ToolParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

func main() {
	// Read the YAML file
	data, err := os.ReadFile(registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading tool_registry.yaml: %v\n", err)
		os.Exit(1)
	}

	var registry ToolRegistryYAML
	if err := yaml.Unmarshal(data, &registry); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing YAML: %v\n", err)
		os.Exit(1)
	}

	generateMarkdown(registry.Tools)
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(tools []ToolEntryYAML) {
	fmt.Println("# MCP Tool Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Println("This document lists every tool the todo MCP server exposes over `tools/list`.")
	fmt.Printf("The catalog lives in `%s` and is embedded into the server binary at build time.\n", registryPath)
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	// Statistics
	readOnly := 0
	destructive := 0
	for _, tool := range tools {
		if tool.Annotations != nil && boolValue(tool.Annotations.ReadOnly) {
			readOnly++
		}
		if tool.Annotations != nil && boolValue(tool.Annotations.Destructive) {
			destructive++
		}
	}

	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Metric | Count |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| Total Tools | %d |\n", len(tools))
	fmt.Printf("| Read-Only Tools | %d |\n", readOnly)
	fmt.Printf("| Destructive Tools | %d |\n", destructive)
	fmt.Println()

	// Quick reference table (all tools)
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Quick Reference")
	fmt.Println()
	fmt.Println("| Tool | Description | Required Arguments | Read-Only |")
	fmt.Println("|------|-------------|--------------------|-----------|")

	for _, tool := range tools {
		required := requiredNames(tool.InputSchema)
		requiredStr := "none"
		if len(required) > 0 {
			requiredStr = "`" + strings.Join(required, "`, `") + "`"
		}

		readOnlyStr := "No"
		if tool.Annotations != nil && boolValue(tool.Annotations.ReadOnly) {
			readOnlyStr = "Yes"
		}

		fmt.Printf("| `%s` | %s | %s | %s |\n",
			tool.Name,
			tool.Description,
			requiredStr,
			readOnlyStr,
		)
	}
	fmt.Println()

	// Detailed sections per tool
	fmt.Println("---")
	fmt.Println()
	for _, tool := range tools {
		printToolDetails(tool)
	}

	// Footer
	fmt.Println("---")
	fmt.Println()
	fmt.Printf("*This document is auto-generated from `%s`.*\n", registryPath)
	fmt.Println()
	fmt.Println("*To regenerate: `go run scripts/generate_tool_docs.go > docs/tool_reference.md`*")
}

// printToolDetails prints detailed information for a single tool.
func printToolDetails(tool ToolEntryYAML) {
	fmt.Printf("## `%s`\n", tool.Name)
	fmt.Println()
	fmt.Println(tool.Description)
	fmt.Println()

	// Behavioral hints
	if tool.Annotations != nil {
		fmt.Println("**Hints:**")
		fmt.Println()
		printHint("Read-only", tool.Annotations.ReadOnly)
		printHint("Destructive", tool.Annotations.Destructive)
		printHint("Idempotent", tool.Annotations.Idempotent)
		fmt.Println()
	}

	// Parameters
	params := extractParameters(tool.InputSchema)
	if len(params) == 0 {
		fmt.Println("**Parameters:** none")
		fmt.Println()
		return
	}

	fmt.Println("| Parameter | Type | Required | Description |")
	fmt.Println("|-----------|------|----------|-------------|")
	for _, p := range params {
		requiredStr := "No"
		if p.Required {
			requiredStr = "Yes"
		}
		fmt.Printf("| `%s` | %s | %s | %s |\n", p.Name, p.Type, requiredStr, p.Description)
	}
	fmt.Println()
}

// printHint prints one behavioral hint when it is declared.
func printHint(label string, value *bool) {
	if value == nil {
		return
	}
	fmt.Printf("- %s: %v\n", label, *value)
}

// extractParameters walks an input schema and returns its parameters,
// required ones first, alphabetical within each group.
func extractParameters(schema map[string]any) []ToolParameter {
	properties, ok := schema["properties"].(map[string]any)
	if !ok || len(properties) == 0 {
		return nil
	}
	required := make(map[string]bool)
	for _, name := range requiredNames(schema) {
		required[name] = true
	}

	params := make([]ToolParameter, 0, len(properties))
	for name, raw := range properties {
		param := ToolParameter{Name: name, Required: required[name]}
		if prop, ok := raw.(map[string]any); ok {
			param.Type, _ = prop["type"].(string)
			param.Description, _ = prop["description"].(string)
		}
		params = append(params, param)
	}

	sort.Slice(params, func(i, j int) bool {
		if params[i].Required != params[j].Required {
			return params[i].Required
		}
		return params[i].Name < params[j].Name
	})

	return params
}

// requiredNames returns the schema's required property names in order.
func requiredNames(schema map[string]any) []string {
	raw, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(raw))
	for _, entry := range raw {
		if name, ok := entry.(string); ok {
			names = append(names, name)
		}
	}
	return names
}

// boolValue dereferences an optional bool, treating nil as false.
func boolValue(b *bool) bool {
	return b != nil && *b
}
