// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command todoui serves the todo web pages.
//
// The pages render server side from embedded html/template files and
// talk to the todo API over HTTP. The only part of this binary that
// touches the data file is the change watcher powering live refresh:
// when the file is rewritten by any process, every open page gets a
// websocket nudge and reloads.
//
// Environment:
//
//	TASKS_UI_PORT    port to listen on (default 12311)
//	TASKS_API_URL    todo API base URL (default http://localhost:12310)
//	TASKS_DATA_FILE  todo data file to watch for live refresh
//	                 (default todo_data.json)
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

//go:embed templates/*.html
var templateFS embed.FS

// formatDatetime renders timestamps the way the pages show them. It
// accepts the types the templates actually pass: time.Time values,
// optional *time.Time fields, and raw strings.
func formatDatetime(value interface{}) string {
	const layout = "2006-01-02 15:04:05"
	switch v := value.(type) {
	case time.Time:
		return v.Format(layout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(layout)
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Format(layout)
		}
		return v
	default:
		return fmt.Sprint(value)
	}
}

// setupRoutes parses the embedded templates and attaches every page
// route plus the websocket endpoint to the router.
func setupRoutes(router *gin.Engine, server *uiServer, hub *refreshHub) error {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"datetime": formatDatetime,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/", server.handleIndex)
	router.GET("/todo/new", server.handleNewForm)
	router.POST("/todo/new", server.handleCreate)
	router.GET("/todo/:id", server.handleView)
	router.GET("/todo/:id/edit", server.handleEditForm)
	router.POST("/todo/:id/edit", server.handleEdit)
	router.POST("/todo/:id/delete", server.handleDelete)
	router.POST("/todo/:id/toggle", server.handleToggle)
	router.GET("/ws", hub.handleSocket())

	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("TASKS_UI_PORT")
	if port == "" {
		port = "12311"
	}
	dataFile := os.Getenv("TASKS_DATA_FILE")
	if dataFile == "" {
		dataFile = "todo_data.json"
	}

	server := &uiServer{api: todoclient.New(os.Getenv("TASKS_API_URL"))}
	hub := newRefreshHub()

	router := gin.Default()
	if err := setupRoutes(router, server, hub); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	// Live refresh: watch the shared data file and nudge open pages.
	changes, err := todostore.NewFileStore(dataFile).Watch(ctx, 0)
	if err != nil {
		slog.Warn("live refresh disabled, cannot watch data file",
			"path", dataFile, "error", err)
	} else {
		slog.Info("watching todo data file for live refresh", "path", dataFile)
		group.Go(func() error {
			hub.run(ctx, changes)
			return nil
		})
	}

	srv := &http.Server{Addr: ":" + port, Handler: router}
	group.Go(func() error {
		slog.Info("Starting the todo UI server", "port", port, "api", server.api.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down the todo UI server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Todo UI server failed: %v", err)
	}
}
