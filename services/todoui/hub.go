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
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// refreshHub tracks connected browsers and pushes a reload hint whenever
// the todo data file changes on disk. The page script listens for
// {"action": "refresh"} and reloads itself, so edits made through the
// API, the CLI, or the MCP server show up without a manual refresh.
type refreshHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newRefreshHub() *refreshHub {
	return &refreshHub{clients: make(map[*websocket.Conn]bool)}
}

func (h *refreshHub) add(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ws] = true
}

func (h *refreshHub) remove(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ws)
}

// broadcast sends v to every connected client. Clients whose write fails
// are dropped immediately; their read loops notice the close and exit.
func (h *refreshHub) broadcast(v interface{}) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for ws := range h.clients {
		conns = append(conns, ws)
	}
	h.mu.Unlock()

	for _, ws := range conns {
		if err := ws.WriteJSON(v); err != nil {
			slog.Warn("Failed to write WebSocket JSON", "error", err)
			h.remove(ws)
			ws.Close()
		}
	}
}

// handleSocket upgrades the connection and parks it in the hub until the
// browser goes away. Browsers never send anything meaningful on this
// socket; the read loop exists only to notice the disconnect.
func (h *refreshHub) handleSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		h.add(ws)
		defer h.remove(ws)
		slog.Info("Websocket client connected")

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				slog.Info("Websocket client disconnected", "error", err.Error())
				return
			}
		}
	}
}

// run forwards data file changes to connected clients until ctx ends or
// the change channel closes.
func (h *refreshHub) run(ctx context.Context, changes <-chan todostore.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			slog.Info("Todo data changed, notifying clients", "op", change.Op.String())
			h.broadcast(map[string]interface{}{"action": "refresh"})
		}
	}
}
