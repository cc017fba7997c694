// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation shared by the todo surfaces.
//
// The HTTP API, the tool server, and the CLI all accept the same field
// bounds and the same due-date spellings; keeping the rules here means the
// three transports cannot drift apart.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TitleMaxLen is the maximum title length in characters.
	TitleMaxLen = 100

	// DescriptionMaxLen is the maximum description length in characters.
	DescriptionMaxLen = 500
)

// dueDateLayouts are the accepted due-date spellings, tried in order.
// Layouts without a zone are interpreted in the machine's local time.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ValidateTitle checks the title bounds: non-empty, at most TitleMaxLen
// characters.
//
// Example:
//
//	if err := validation.ValidateTitle(req.Title); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if n := utf8.RuneCountInString(title); n > TitleMaxLen {
		return fmt.Errorf("title is %d characters, maximum is %d", n, TitleMaxLen)
	}
	return nil
}

// ValidateDescription checks the description bound of DescriptionMaxLen
// characters. Empty is valid.
func ValidateDescription(desc string) error {
	if n := utf8.RuneCountInString(desc); n > DescriptionMaxLen {
		return fmt.Errorf("description is %d characters, maximum is %d", n, DescriptionMaxLen)
	}
	return nil
}

// ParseDueDate parses a due date in any accepted spelling.
//
// Accepted forms, tried in order:
//   - RFC 3339 ("2026-01-15T09:00:00Z", "2026-01-15T09:00:00+02:00")
//   - date and time without zone ("2026-01-15T09:00:00", "2026-01-15T09:00")
//   - bare date ("2026-01-15")
//
// Forms without a zone are taken as local time; a bare date means midnight.
//
// Example:
//
//	due, err := validation.ParseDueDate("2026-01-15")
//	if err != nil {
//	    return fmt.Errorf("bad due date: %w", err)
//	}
func ParseDueDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("due date cannot be empty")
	}

	for _, layout := range dueDateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, trimmed)
		} else {
			t, err = time.ParseInLocation(layout, trimmed, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf(
		"unrecognized due date %q (accepted: RFC 3339, YYYY-MM-DDTHH:MM[:SS], YYYY-MM-DD)", s)
}

// ParseOptionalDueDate parses a due date when present. An empty string is
// "no due date" and returns nil.
func ParseOptionalDueDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDueDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
