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
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
)

// flashCookie carries one status banner across a redirect.
const flashCookie = "todo_flash"

// flashMessage is a one-shot banner rendered at the top of the next page.
// Category is "success" or "error" and doubles as the CSS class.
type flashMessage struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// pageData is what every template renders from.
type pageData struct {
	Title string
	Todos []todoclient.Todo
	Todo  *todoclient.Todo
	Flash *flashMessage
}

// uiServer renders the pages and forwards every mutation to the todo API.
// The UI holds no state of its own.
type uiServer struct {
	api *todoclient.Client
}

// setFlash stores the banner in a short-lived cookie so it survives the
// redirect that follows a mutation.
func setFlash(c *gin.Context, category, message string) {
	payload, err := json.Marshal(flashMessage{Message: message, Category: category})
	if err != nil {
		return
	}
	value := base64.URLEncoding.EncodeToString(payload)
	c.SetCookie(flashCookie, value, 60, "/", "", false, true)
}

// takeFlash reads and clears the pending banner, if any.
func takeFlash(c *gin.Context) *flashMessage {
	value, err := c.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	payload, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flash flashMessage
	if err := json.Unmarshal(payload, &flash); err != nil {
		return nil
	}
	return &flash
}

// apiFlash phrases an API failure the way the pages report it: a decoded
// server error keeps the server's message, anything else is a connection
// problem.
func apiFlash(err error) *flashMessage {
	var apiErr *todoclient.APIError
	if errors.As(err, &apiErr) {
		return &flashMessage{Message: "Error: " + apiErr.Message, Category: "error"}
	}
	return &flashMessage{Message: "API Connection Error: " + err.Error(), Category: "error"}
}

// flashRedirect stores the banner and sends the browser back to the list.
func flashRedirect(c *gin.Context, flash *flashMessage) {
	setFlash(c, flash.Category, flash.Message)
	c.Redirect(http.StatusFound, "/")
}

// render fills in any pending cookie banner and renders the named page.
// Handlers that fail mid-request pass their banner directly instead.
func (s *uiServer) render(c *gin.Context, status int, name string, data pageData) {
	if data.Flash == nil {
		data.Flash = takeFlash(c)
	}
	c.HTML(status, name, data)
}

func (s *uiServer) handleIndex(c *gin.Context) {
	todos, err := s.api.List(c.Request.Context())
	if err != nil {
		slog.Warn("failed to list todos", "error", err)
		s.render(c, http.StatusOK, "index.html", pageData{Title: "Todos", Flash: apiFlash(err)})
		return
	}
	s.render(c, http.StatusOK, "index.html", pageData{Title: "Todos", Todos: todos})
}

func (s *uiServer) handleNewForm(c *gin.Context) {
	s.render(c, http.StatusOK, "new.html", pageData{Title: "New Todo"})
}

func (s *uiServer) handleCreate(c *gin.Context) {
	params := todoclient.CreateParams{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Completed:   c.PostForm("completed") == "on",
	}

	if _, err := s.api.Create(c.Request.Context(), params); err != nil {
		slog.Warn("failed to create todo", "error", err)
		s.render(c, http.StatusOK, "new.html", pageData{Title: "New Todo", Flash: apiFlash(err)})
		return
	}

	setFlash(c, "success", "Todo created successfully!")
	c.Redirect(http.StatusFound, "/")
}

func (s *uiServer) handleView(c *gin.Context) {
	id := c.Param("id")
	todo, err := s.api.Get(c.Request.Context(), id)
	if err != nil {
		slog.Warn("failed to fetch todo", "id", id, "error", err)
		flashRedirect(c, apiFlash(err))
		return
	}
	s.render(c, http.StatusOK, "view.html", pageData{Title: todo.Title, Todo: &todo})
}

func (s *uiServer) handleEditForm(c *gin.Context) {
	id := c.Param("id")
	todo, err := s.api.Get(c.Request.Context(), id)
	if err != nil {
		slog.Warn("failed to fetch todo for edit", "id", id, "error", err)
		flashRedirect(c, apiFlash(err))
		return
	}
	s.render(c, http.StatusOK, "edit.html", pageData{Title: "Edit Todo", Todo: &todo})
}

func (s *uiServer) handleEdit(c *gin.Context) {
	id := c.Param("id")
	title := c.PostForm("title")
	description := c.PostForm("description")
	completed := c.PostForm("completed") == "on"
	params := todoclient.UpdateParams{
		Title:       &title,
		Description: &description,
		Completed:   &completed,
	}

	if _, err := s.api.Update(c.Request.Context(), id, params); err != nil {
		slog.Warn("failed to update todo", "id", id, "error", err)
		// Show the form again with the current server state.
		todo, getErr := s.api.Get(c.Request.Context(), id)
		if getErr != nil {
			flashRedirect(c, apiFlash(getErr))
			return
		}
		s.render(c, http.StatusOK, "edit.html", pageData{Title: "Edit Todo", Todo: &todo, Flash: apiFlash(err)})
		return
	}

	setFlash(c, "success", "Todo updated successfully!")
	c.Redirect(http.StatusFound, "/")
}

func (s *uiServer) handleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := s.api.Delete(c.Request.Context(), id); err != nil {
		slog.Warn("failed to delete todo", "id", id, "error", err)
		flashRedirect(c, apiFlash(err))
		return
	}
	flashRedirect(c, &flashMessage{Message: "Todo deleted successfully!", Category: "success"})
}

// handleToggle flips the completed flag by reading the current state and
// writing back the inverse.
func (s *uiServer) handleToggle(c *gin.Context) {
	id := c.Param("id")
	todo, err := s.api.Get(c.Request.Context(), id)
	if err != nil {
		slog.Warn("failed to fetch todo for toggle", "id", id, "error", err)
		flashRedirect(c, apiFlash(err))
		return
	}

	completed := !todo.Completed
	if _, err := s.api.Update(c.Request.Context(), id, todoclient.UpdateParams{Completed: &completed}); err != nil {
		slog.Warn("failed to toggle todo", "id", id, "error", err)
		flashRedirect(c, apiFlash(err))
		return
	}

	status := "active"
	if completed {
		status = "completed"
	}
	flashRedirect(c, &flashMessage{Message: "Todo marked as " + status + "!", Category: "success"})
}
