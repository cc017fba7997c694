// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"
	"time"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"simple", "Buy milk", false},
		{"single char", "x", false},
		{"max length", strings.Repeat("a", TitleMaxLen), false},
		{"unicode counted as runes", strings.Repeat("ü", TitleMaxLen), false},

		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", TitleMaxLen+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name    string
		desc    string
		wantErr bool
	}{
		{"empty is valid", "", false},
		{"normal", "pick up two cartons", false},
		{"max length", strings.Repeat("d", DescriptionMaxLen), false},
		{"too long", strings.Repeat("d", DescriptionMaxLen+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescription(tt.desc)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDescription error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"rfc3339 utc", "2026-01-15T09:00:00Z", false},
		{"rfc3339 offset", "2026-01-15T09:00:00+02:00", false},
		{"naive datetime", "2026-01-15T09:00:00", false},
		{"naive minutes", "2026-01-15T09:00", false},
		{"bare date", "2026-01-15", false},
		{"padded", "  2026-01-15  ", false},

		{"empty", "", true},
		{"garbage", "next tuesday", true},
		{"wrong order", "15-01-2026", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDueDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDueDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.IsZero() {
				t.Errorf("ParseDueDate(%q) returned zero time without error", tt.input)
			}
		})
	}
}

func TestParseDueDate_Values(t *testing.T) {
	got, err := ParseDueDate("2026-01-15T09:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = ParseDueDate("2026-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = time.Date(2026, 1, 15, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("bare date: got %v, want local midnight %v", got, want)
	}
}

func TestParseOptionalDueDate(t *testing.T) {
	got, err := ParseOptionalDueDate("")
	if err != nil {
		t.Fatalf("empty input must not error, got %v", err)
	}
	if got != nil {
		t.Errorf("empty input must mean no due date, got %v", got)
	}

	got, err = ParseOptionalDueDate("2026-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a parsed due date")
	}
}
