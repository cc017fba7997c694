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
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runChatCommand(cmd *cobra.Command, args []string) {
	resumeID, _ := cmd.Flags().GetString("session")

	runner, err := NewAssistantChatRunner(AssistantChatRunnerConfig{
		Backend:   chatBackend,
		APIURL:    apiBaseURL(),
		SessionID: resumeID,
	})
	if err != nil {
		log.Fatalf("Chat setup failed: %v", err)
	}
	defer runner.Close()

	// Set up graceful shutdown with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Run the chat loop
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Chat error: %v", err)
	}
}
