// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package todostore

import (
	"math"
	"time"
)

// Record is a single todo item.
//
// # Description
//
// Represents one todo with identity, content fields, and timestamps.
// Records are created and mutated only through a Store; no other component
// holds a writable reference to the backing collection.
//
// # Invariants
//
//   - ID is unique across all live records and never reassigned or reused.
//   - CreatedAt <= UpdatedAt at all times.
//   - UpdatedAt changes on every successful create or update.
//
// # Examples
//
//	rec, err := store.Create("Buy milk", "2% from the corner store", false, nil)
//	if err != nil {
//	    log.Fatalf("create failed: %v", err)
//	}
//	fmt.Println(rec.ID, rec.Title)
//
// # Limitations
//
//   - DueDate carries no recurrence or reminder semantics.
//
// # Assumptions
//
//   - Callers validated Title/Description bounds before creating.
type Record struct {
	// ID is the opaque unique identifier, generated at creation, immutable.
	ID string `json:"id"`

	// Title is the short non-empty summary of the item.
	Title string `json:"title"`

	// Description is the longer free-form body. Defaults to empty.
	Description string `json:"description"`

	// Completed marks the item done. Defaults to false.
	Completed bool `json:"completed"`

	// DueDate is the optional target time. Omitted from the file when nil.
	DueDate *time.Time `json:"due_date,omitempty"`

	// CreatedAt is set once when the record is created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is set on every successful create or update.
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch describes a partial update to a Record.
//
// # Description
//
// Only non-nil fields are applied; nil fields leave the record untouched.
// An all-nil Patch is legal and still advances UpdatedAt, matching the
// update contract.
//
// # Examples
//
//	done := true
//	rec, ok, err := store.Update(id, todostore.Patch{Completed: &done})
//
// # Limitations
//
//   - A nil DueDate cannot clear an existing due date; absence and
//     "leave unchanged" are the same signal.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
}

// apply copies the non-nil patch fields onto the record.
func (r *Record) apply(p Patch) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Completed != nil {
		r.Completed = *p.Completed
	}
	if p.DueDate != nil {
		r.DueDate = p.DueDate
	}
}

// Stats summarizes completion progress across a set of records.
type Stats struct {
	// TotalCount is the number of records.
	TotalCount int `json:"total_count"`

	// CompletedCount is the number of records with Completed set.
	CompletedCount int `json:"completed_count"`

	// IncompleteCount is TotalCount minus CompletedCount.
	IncompleteCount int `json:"incomplete_count"`

	// CompletionPercentage is CompletedCount/TotalCount as a percentage,
	// rounded to two decimal places. Zero when there are no records.
	CompletionPercentage float64 `json:"completion_percentage"`

	// HasTodos reports whether any records exist.
	HasTodos bool `json:"has_todos"`
}

// ComputeStats derives Stats from a slice of records.
//
// # Description
//
// Pure function over a List result. Both the HTTP stats endpoint and the
// tool server report the same shape, so the computation lives here rather
// than in either transport.
//
// # Inputs
//
//   - todos: Records to summarize. May be empty or nil.
//
// # Outputs
//
//   - Stats: Counts and completion percentage.
//
// # Examples
//
//	todos, _ := store.List()
//	stats := todostore.ComputeStats(todos)
//	fmt.Printf("%d of %d done\n", stats.CompletedCount, stats.TotalCount)
func ComputeStats(todos []Record) Stats {
	total := len(todos)
	completed := 0
	for _, t := range todos {
		if t.Completed {
			completed++
		}
	}

	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
		pct = math.Round(pct*100) / 100
	}

	return Stats{
		TotalCount:           total,
		CompletedCount:       completed,
		IncompleteCount:      total - completed,
		CompletionPercentage: pct,
		HasTodos:             total > 0,
	}
}
