// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package todostore provides the file-backed record store for Aleutian Tasks.

The store owns every todo record and persists the whole collection as one
human-readable JSON file: a flat mapping from record id to the record object.
There is no query engine, no cache held between calls, and no migration
machinery. Consumers (the HTTP API and the tool server) hold a *FileStore
and call its operations; the CLI and web UI go through the HTTP API instead.

# Persistence Model

Every operation runs a single load-modify-save cycle under one exclusive
lock: acquire the lock, read the entire file into memory, apply the mutation
if any, rewrite the entire file when the collection changed, release the
lock. Operations are therefore atomic with respect to each other within the
process. The file is replaced wholesale on every mutation; there is no
incremental append, and crash-during-write can tear the file. The lock is
in-process only and does not coordinate across processes.

# Initialization

When the primary file is absent and a seed file is configured and readable,
the seed's contents become the initial state and are written to the primary
path. When no usable seed exists, the store begins empty and writes an empty
mapping. A primary file that fails to parse is treated as empty and
overwritten, unless strict parsing is enabled.
*/
package todostore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrCorruptFile is returned by operations when the backing file cannot be
// parsed and the store was built with WithStrictParse.
var ErrCorruptFile = errors.New("todo data file is corrupt")

// =============================================================================
// INTERFACE DEFINITIONS
// =============================================================================

// Store is the contract for todo record storage.
//
// # Description
//
// Five synchronous operations over the record collection. Absence of a
// record is signaled by a false boolean, never by an error; error values
// carry only I/O failures.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use from multiple goroutines.
//
// # Examples
//
//	store := todostore.NewFileStore("todo_data.json")
//	rec, err := store.Create("Buy milk", "", false, nil)
//	got, ok, err := store.Get(rec.ID)
//
// # Limitations
//
//   - No filtering or pagination; List always returns everything.
//   - No cancellation: callers block until the store lock is free.
type Store interface {
	// List returns every record, oldest first.
	List() ([]Record, error)

	// Get returns the record with the given id. The boolean is false when
	// no such record exists; that is not an error.
	Get(id string) (Record, bool, error)

	// Create inserts a new record with a fresh unique id and
	// CreatedAt == UpdatedAt == now. No field validation happens here;
	// callers validate before reaching the store.
	Create(title, description string, completed bool, dueDate *time.Time) (Record, error)

	// Update applies the non-nil fields of the patch to the record with the
	// given id and advances UpdatedAt, regardless of which fields changed.
	// When the id is absent the store performs no write and returns false.
	Update(id string, patch Patch) (Record, bool, error)

	// Delete removes the record with the given id. Returns true when a
	// record was removed, false (and no write) when the id was absent.
	Delete(id string) (bool, error)
}

// =============================================================================
// STRUCT DEFINITIONS
// =============================================================================

// FileStore implements Store on a single JSON file guarded by one mutex.
//
// # Description
//
// The canonical Store implementation. Holds the primary file path, an
// optional seed path used once at initialization, and the exclusive lock
// serializing every load-modify-save cycle.
//
// # Thread Safety
//
// Safe for concurrent use. At most one cycle executes at a time.
//
// # Examples
//
//	store := todostore.NewFileStore(
//	    "data/todo_data.json",
//	    todostore.WithSeedFile("data/todo_data.sample.json"),
//	)
//
// # Limitations
//
//   - Every operation re-reads and, on mutation, rewrites the whole file.
//     Suitable for small collections only.
type FileStore struct {
	path     string
	seedPath string
	strict   bool

	mu  sync.Mutex
	now func() time.Time
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithSeedFile sets a template file whose contents initialize the store the
// first time the primary file is found absent.
func WithSeedFile(path string) Option {
	return func(s *FileStore) {
		s.seedPath = path
	}
}

// WithStrictParse makes a corrupt primary file a returned error instead of
// silently resetting the store to empty.
func WithStrictParse() Option {
	return func(s *FileStore) {
		s.strict = true
	}
}

// =============================================================================
// CONSTRUCTOR FUNCTIONS
// =============================================================================

// NewFileStore creates a store over the given primary file path.
//
// # Description
//
// The file is not touched until the first operation; initialization (seed
// copy or empty-file creation) happens lazily inside the first
// load-modify-save cycle.
//
// # Inputs
//
//   - path: Primary JSON file path. Parent directories are created on save.
//   - opts: Optional seed file and parse policy.
//
// # Outputs
//
//   - *FileStore: Ready-to-use store.
//
// # Examples
//
//	store := todostore.NewFileStore("todo_data.json",
//	    todostore.WithSeedFile("todo_data.sample.json"))
//
// # Assumptions
//
//   - path is writable by the process.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// FileStore METHODS
// =============================================================================

// List returns every record, oldest first.
//
// The file holds a map, so iteration order alone would shuffle on every
// call. Sorting by creation time (id as tie break) keeps list output
// stable for clients that render it.
func (s *FileStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(todos))
	for _, rec := range todos {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns the record with the given id, or false when absent.
func (s *FileStore) Get(id string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.loadLocked()
	if err != nil {
		return Record{}, false, err
	}

	rec, ok := todos[id]
	return rec, ok, nil
}

// Create inserts a new record and persists the collection.
//
// # Description
//
// Generates a fresh UUID, stamps CreatedAt and UpdatedAt with the same
// instant, inserts the record, and rewrites the file, all under the lock.
//
// # Inputs
//
//   - title: Record title. Not validated here.
//   - description: Record body. Empty is fine.
//   - completed: Initial completion state.
//   - dueDate: Optional target time; nil means none.
//
// # Outputs
//
//   - Record: The stored record including generated id and timestamps.
//   - error: I/O failure loading or persisting the collection.
func (s *FileStore) Create(title, description string, completed bool, dueDate *time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.loadLocked()
	if err != nil {
		return Record{}, err
	}

	now := s.now()
	rec := Record{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Completed:   completed,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	todos[rec.ID] = rec

	if err := s.saveLocked(todos); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update applies a partial patch to an existing record.
//
// # Description
//
// Absent id: returns false without writing. Present: copies the non-nil
// patch fields onto the record, advances UpdatedAt even when the patch is
// empty, and rewrites the file.
//
// # Inputs
//
//   - id: Record identifier.
//   - patch: Fields to change; nil fields are left untouched.
//
// # Outputs
//
//   - Record: The updated record when found.
//   - bool: False when the id is absent.
//   - error: I/O failure loading or persisting the collection.
func (s *FileStore) Update(id string, patch Patch) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.loadLocked()
	if err != nil {
		return Record{}, false, err
	}

	rec, ok := todos[id]
	if !ok {
		return Record{}, false, nil
	}

	rec.apply(patch)
	rec.UpdatedAt = s.now()
	todos[id] = rec

	if err := s.saveLocked(todos); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Delete removes a record by id.
//
// # Description
//
// Returns true and rewrites the file when the record existed; returns false
// and performs no write when it did not.
func (s *FileStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.loadLocked()
	if err != nil {
		return false, err
	}

	if _, ok := todos[id]; !ok {
		return false, nil
	}
	delete(todos, id)

	if err := s.saveLocked(todos); err != nil {
		return false, err
	}
	return true, nil
}

// Path returns the primary file path the store persists to.
func (s *FileStore) Path() string {
	return s.path
}

// =============================================================================
// INTERNAL: load/save cycle
// =============================================================================

// loadLocked reads the whole collection from disk. Caller holds s.mu.
//
// Initialization and corrupt-file recovery both happen here so that every
// operation observes the same policy: a missing primary file is built from
// the seed or as an empty mapping, and an unparsable primary file is reset
// to empty (unless strict parsing is on) before the operation proceeds.
func (s *FileStore) loadLocked() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.initLocked()
		}
		return nil, fmt.Errorf("failed to read todo data file: %w", err)
	}

	todos := make(map[string]Record)
	if err := json.Unmarshal(data, &todos); err != nil {
		if s.strict {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		slog.Warn("Todo data file is corrupt, resetting to empty",
			"path", s.path, "error", err)
		empty := make(map[string]Record)
		if err := s.saveLocked(empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	return todos, nil
}

// initLocked builds the initial state for a missing primary file.
// Caller holds s.mu.
func (s *FileStore) initLocked() (map[string]Record, error) {
	if s.seedPath != "" {
		if todos, ok := s.loadSeed(); ok {
			if err := s.saveLocked(todos); err != nil {
				return nil, err
			}
			slog.Info("Initialized todo data file from seed",
				"path", s.path, "seed", s.seedPath, "records", len(todos))
			return todos, nil
		}
	}

	empty := make(map[string]Record)
	if err := s.saveLocked(empty); err != nil {
		return nil, err
	}
	return empty, nil
}

// loadSeed parses the seed file. A missing or malformed seed is not an
// error; it just means the store starts empty.
func (s *FileStore) loadSeed() (map[string]Record, bool) {
	data, err := os.ReadFile(s.seedPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to read seed file, starting empty",
				"seed", s.seedPath, "error", err)
		}
		return nil, false
	}

	todos := make(map[string]Record)
	if err := json.Unmarshal(data, &todos); err != nil {
		slog.Warn("Seed file is not valid JSON, starting empty",
			"seed", s.seedPath, "error", err)
		return nil, false
	}
	return todos, true
}

// saveLocked rewrites the whole collection to disk. Caller holds s.mu.
func (s *FileStore) saveLocked(todos map[string]Record) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create todo data directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode todo data: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write todo data file: %w", err)
	}
	return nil
}
