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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianTasks/services/llm"
	badger "github.com/dgraph-io/badger/v4"
)

// =============================================================================
// Chat Session Model
// =============================================================================

// sessionKeyPrefix namespaces chat sessions within the store.
const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned when a session ID has no stored state.
var ErrSessionNotFound = errors.New("session not found")

// ChatSession is the persisted state of one assistant conversation.
//
// # Description
//
// ChatSession captures everything needed to resume a conversation:
// the full message transcript (including tool calls and tool results)
// plus identity and timing metadata. Sessions are stored locally so
// resuming works without any server-side state.
//
// Timestamps are Unix milliseconds to keep the stored form compact and
// timezone-free.
type ChatSession struct {
	ID        string        `json:"id"`
	CreatedAt int64         `json:"created_at"`
	UpdatedAt int64         `json:"updated_at"`
	Backend   string        `json:"backend"`
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
}

// Summary returns the first user message, truncated for list display.
// Tool-result messages share the user role but carry no text, so they
// never become the summary.
func (s *ChatSession) Summary() string {
	for _, m := range s.Messages {
		if m.Role == llm.RoleUser && m.Content != "" {
			return truncateSummary(m.Content, 60)
		}
	}
	return "(empty session)"
}

// TurnCount returns the number of user messages in the transcript.
func (s *ChatSession) TurnCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == llm.RoleUser && m.Content != "" {
			n++
		}
	}
	return n
}

func truncateSummary(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// =============================================================================
// Session Store
// =============================================================================

// SessionStore persists chat sessions in a local BadgerDB.
//
// # Description
//
// SessionStore gives the chat command durable local history. Each
// session is one JSON value under a "session:" prefixed key, so a
// prefix scan enumerates all sessions without a secondary index.
//
// The store holds an exclusive lock on its directory while open.
// Callers MUST call Close() when done, typically via defer.
//
// # Examples
//
//	store, err := OpenSessionStore(sessionDBDir())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	session, err := store.Load(id)
//
// # Limitations
//
//   - One process at a time. A second open of the same directory fails
//     until the first store is closed.
//
// Thread Safety: Safe for concurrent use.
type SessionStore struct {
	db *badger.DB
}

// OpenSessionStore opens the session database in dir, creating the
// directory if it does not exist.
func OpenSessionStore(dir string) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create session directory %s: %w", dir, err)
	}
	// Badger's own logging is noise in a CLI; keep it quiet.
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// OpenInMemorySessionStore opens a throwaway store with no disk
// persistence. Useful for testing.
func OpenInMemorySessionStore() (*SessionStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory session database: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// Save writes the session, stamping UpdatedAt and, on first save,
// CreatedAt.
func (st *SessionStore) Save(session *ChatSession) error {
	if session.ID == "" {
		return errors.New("session ID must not be empty")
	}

	now := time.Now().UnixMilli()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}

	return st.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(session.ID), data)
	})
}

// Load returns the session with the given ID, or ErrSessionNotFound.
func (st *SessionStore) Load(id string) (*ChatSession, error) {
	var session ChatSession
	err := st.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &session, nil
}

// List returns all saved sessions, most recently updated first.
func (st *SessionStore) List() ([]*ChatSession, error) {
	var sessions []*ChatSession
	err := st.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var s ChatSession
				if err := json.Unmarshal(val, &s); err != nil {
					return err
				}
				sessions = append(sessions, &s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt > sessions[j].UpdatedAt
	})
	return sessions, nil
}

// Delete removes the session with the given ID, or returns
// ErrSessionNotFound if it was never saved.
func (st *SessionStore) Delete(id string) error {
	err := st.db.Update(func(txn *badger.Txn) error {
		// Badger's Delete is a no-op for missing keys; probe first so
		// the caller can distinguish.
		if _, err := txn.Get(sessionKey(id)); err != nil {
			return err
		}
		return txn.Delete(sessionKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Close releases the database lock. Required before another process
// can open the same directory.
func (st *SessionStore) Close() error {
	return st.db.Close()
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}
