// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the todo API.
//
// This file contains the create and update request bodies. Responses use
// todostore.Record directly, which already carries the wire-format JSON
// tags.
package datatypes

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianTasks/pkg/validation"
	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

// =============================================================================
// Field Bounds
// =============================================================================

const (
	// MaxTitleLen is the maximum title length in runes.
	MaxTitleLen = validation.TitleMaxLen

	// MaxDescriptionLen is the maximum description length in runes.
	MaxDescriptionLen = validation.DescriptionMaxLen
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// todoValidate is the validator instance for todo datatypes.
// Initialized in init() with custom validators.
var todoValidate *validator.Validate

func init() {
	todoValidate = validator.New()

	// Reject titles that are nothing but whitespace. The min/max tags
	// count runes, so "   " would otherwise pass as a 3-rune title.
	_ = todoValidate.RegisterValidation("notblank", validateNotBlank)
}

// validateNotBlank reports whether the field contains at least one
// non-whitespace character.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// =============================================================================
// Request Types
// =============================================================================

// TodoCreate represents the body of a create request.
//
// # Description
//
// TodoCreate carries the caller-supplied fields for a new todo. The server
// generates the ID and timestamps; clients cannot set them. This is used
// for the POST /v1/todos endpoint.
//
// # Fields
//
//   - Title: Required. 1-100 runes, at least one non-whitespace character.
//   - Description: Optional. Up to 500 runes.
//   - Completed: Optional. Defaults to false.
//   - DueDate: Optional. A date or datetime string; see ParseDueDate for
//     accepted layouts. Omit or null for no due date.
//
// # Validation
//
// Uses go-playground/validator:
//   - Title: required, notblank, max=100
//   - Description: max=500
//
// # Examples
//
//	req := TodoCreate{
//	    Title:       "Buy milk",
//	    Description: "Two cartons",
//	    DueDate:     ptr("2026-01-15"),
//	}
//
// # Limitations
//
//   - DueDate is validated at parse time, not by struct tags, so Validate()
//     alone does not catch malformed dates. Call ParseDueDate as well.
type TodoCreate struct {
	Title       string  `json:"title" validate:"required,notblank,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"due_date,omitempty"`
}

// Validate validates the TodoCreate fields.
//
// # Outputs
//
//   - error: Non-nil if validation failed, with details about which field
func (r *TodoCreate) Validate() error {
	return todoValidate.Struct(r)
}

// ParseDueDate parses the optional due date string.
//
// # Outputs
//
//   - *time.Time: The parsed due date, or nil when the field was omitted
//   - error: Non-nil if the string does not match an accepted layout
func (r *TodoCreate) ParseDueDate() (*time.Time, error) {
	if r.DueDate == nil {
		return nil, nil
	}
	return validation.ParseOptionalDueDate(*r.DueDate)
}

// TodoUpdate represents the body of a partial update request.
//
// # Description
//
// Every field is a pointer: nil means "leave unchanged" and a non-nil
// value replaces the stored one. An empty body is accepted and still
// advances the todo's updated_at timestamp. This is used for the
// PUT /v1/todos/:id endpoint.
//
// # Fields
//
//   - Title: Optional replacement title. Same bounds as TodoCreate.
//   - Description: Optional replacement description.
//   - Completed: Optional replacement completion flag.
//   - DueDate: Optional replacement due date string.
//
// # Validation
//
// Uses go-playground/validator with omitempty so absent fields skip
// their checks.
type TodoUpdate struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Completed   *bool   `json:"completed"`
	DueDate     *string `json:"due_date"`
}

// Validate validates the TodoUpdate fields.
func (r *TodoUpdate) Validate() error {
	return todoValidate.Struct(r)
}

// ToPatch converts the request into a store patch.
//
// # Outputs
//
//   - todostore.Patch: Patch with the provided fields set
//   - error: Non-nil if DueDate was provided but does not parse
func (r *TodoUpdate) ToPatch() (todostore.Patch, error) {
	patch := todostore.Patch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
	if r.DueDate != nil {
		due, err := validation.ParseOptionalDueDate(*r.DueDate)
		if err != nil {
			return todostore.Patch{}, err
		}
		patch.DueDate = due
	}
	return patch, nil
}
