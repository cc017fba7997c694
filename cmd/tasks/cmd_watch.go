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
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/AleutianTasks/pkg/ux"
	"github.com/AleutianAI/AleutianTasks/services/todostore"
	"github.com/spf13/cobra"
)

func runWatchCommand(cmd *cobra.Command, args []string) {
	path := dataFilePath()
	store := todostore.NewFileStore(path)

	// Set up graceful shutdown with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	changes, err := store.Watch(ctx, watchDebounce)
	if err != nil {
		log.Fatalf("Failed to watch %s: %v", path, err)
	}

	ux.Info("Watching " + path + " (Ctrl+C to stop)")
	for change := range changes {
		fmt.Printf("%s  %s  %s\n", change.Time.Format(time.RFC3339), change.Op, change.Path)
	}
}
