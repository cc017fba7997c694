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
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_EmitsOnMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo_data.json")
	store := NewFileStore(path)

	// Materialize the file before watching so the mutation below is a write,
	// not the initial create.
	_, err := store.List()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx, 20*time.Millisecond)
	require.NoError(t, err)

	_, err = store.Create("watched", "", false, nil)
	require.NoError(t, err)

	select {
	case ch, ok := <-changes:
		require.True(t, ok, "channel closed before any change arrived")
		assert.Equal(t, path, ch.Path)
		assert.False(t, ch.Time.IsZero())
	case <-time.After(3 * time.Second):
		t.Fatal("no change observed within 3s of a store mutation")
	}
}

func TestWatch_CoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo_data.json")
	store := NewFileStore(path)
	_, err := store.List()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx, 150*time.Millisecond)
	require.NoError(t, err)

	// Several rewrites inside one debounce window.
	for i := 0; i < 5; i++ {
		_, err = store.Create("burst", "", false, nil)
		require.NoError(t, err)
	}

	// Count debounced events for one second after the burst. Writes may
	// straddle a window boundary, so up to two events are acceptable; one
	// per write is not.
	count := 0
	deadline := time.After(time.Second)
	for done := false; !done; {
		select {
		case _, ok := <-changes:
			require.True(t, ok)
			count++
		case <-deadline:
			done = true
		}
	}
	assert.GreaterOrEqual(t, count, 1, "burst produced no debounced event")
	assert.LessOrEqual(t, count, 2, "burst was not coalesced")
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo_data.json")
	store := NewFileStore(path)
	_, err := store.List()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := store.Watch(ctx, 20*time.Millisecond)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok, "channel must close after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}
