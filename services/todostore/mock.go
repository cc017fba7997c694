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
	"sync"
	"time"
)

// MockStore is a test double for Store.
//
// # Description
//
// Allows tests to script results and errors without touching the
// filesystem, and records the calls it receives for verification.
//
// # Examples
//
//	mock := &todostore.MockStore{
//	    ListResult: []todostore.Record{{ID: "a", Title: "one"}},
//	}
//	handler := HandleListTodos(mock)
//
// # Limitations
//
//   - Does not replay the persistence protocol; use a FileStore on a
//     temporary directory to exercise file behavior.
//
// # Assumptions
//
//   - Used only in tests.
type MockStore struct {
	ListResult   []Record
	ListErr      error
	GetResult    Record
	GetFound     bool
	GetErr       error
	CreateResult Record
	CreateErr    error
	UpdateResult Record
	UpdateFound  bool
	UpdateErr    error
	DeleteResult bool
	DeleteErr    error

	// Calls records each operation name in invocation order.
	Calls []string

	// CreatedTitles records the title of every Create call.
	CreatedTitles []string

	// UpdatedIDs records the id of every Update call.
	UpdatedIDs []string

	// DeletedIDs records the id of every Delete call.
	DeletedIDs []string

	mu sync.Mutex
}

// List returns the configured records.
func (m *MockStore) List() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "List")
	return m.ListResult, m.ListErr
}

// Get returns the configured record and found flag.
func (m *MockStore) Get(id string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Get")
	return m.GetResult, m.GetFound, m.GetErr
}

// Create records the title and returns the configured record.
func (m *MockStore) Create(title, description string, completed bool, dueDate *time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Create")
	m.CreatedTitles = append(m.CreatedTitles, title)
	return m.CreateResult, m.CreateErr
}

// Update records the id and returns the configured record and found flag.
func (m *MockStore) Update(id string, patch Patch) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Update")
	m.UpdatedIDs = append(m.UpdatedIDs, id)
	return m.UpdateResult, m.UpdateFound, m.UpdateErr
}

// Delete records the id and returns the configured result.
func (m *MockStore) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Delete")
	m.DeletedIDs = append(m.DeletedIDs, id)
	return m.DeleteResult, m.DeleteErr
}
