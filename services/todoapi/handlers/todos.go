// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianTasks/services/todoapi/datatypes"
	"github.com/AleutianAI/AleutianTasks/services/todoapi/observability"
	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

var todoTracer = otel.Tracer("aleutian.todoapi.handlers")

// Welcome handles GET / with a short service banner.
func Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Todo API"})
}

// HealthCheck handles GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ListTodos(store todostore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		todos, err := store.List()
		if err != nil {
			slog.Error("failed to list todos", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read todos"})
			return
		}
		c.JSON(http.StatusOK, todos)
	}
}

func GetTodo(store todostore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		todo, found, err := store.Get(id)
		if err != nil {
			slog.Error("failed to read todo", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read todos"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(id)})
			return
		}
		c.JSON(http.StatusOK, todo)
	}
}

func CreateTodo(store todostore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := todoTracer.Start(c.Request.Context(), "CreateTodo")
		defer span.End()

		var req datatypes.TodoCreate
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			recordOperation(observability.OperationCreate, observability.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			recordOperation(observability.OperationCreate, observability.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dueDate, err := req.ParseDueDate()
		if err != nil {
			recordOperation(observability.OperationCreate, observability.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		todo, err := store.Create(req.Title, req.Description, req.Completed, dueDate)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("failed to create todo", "error", err)
			recordOperation(observability.OperationCreate, observability.OutcomeError)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save todo"})
			return
		}

		slog.Info("created todo", "id", todo.ID, "title", todo.Title)
		recordOperation(observability.OperationCreate, observability.OutcomeOK)
		recordInventory(store)
		c.JSON(http.StatusCreated, todo)
	}
}

func UpdateTodo(store todostore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := todoTracer.Start(c.Request.Context(), "UpdateTodo")
		defer span.End()

		id := c.Param("id")
		var req datatypes.TodoUpdate
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			recordOperation(observability.OperationUpdate, observability.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			recordOperation(observability.OperationUpdate, observability.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch, err := req.ToPatch()
		if err != nil {
			recordOperation(observability.OperationUpdate, observability.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		todo, found, err := store.Update(id, patch)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("failed to update todo", "id", id, "error", err)
			recordOperation(observability.OperationUpdate, observability.OutcomeError)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save todo"})
			return
		}
		if !found {
			recordOperation(observability.OperationUpdate, observability.OutcomeNotFound)
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(id)})
			return
		}

		slog.Info("updated todo", "id", id)
		recordOperation(observability.OperationUpdate, observability.OutcomeOK)
		recordInventory(store)
		c.JSON(http.StatusOK, todo)
	}
}

func DeleteTodo(store todostore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := todoTracer.Start(c.Request.Context(), "DeleteTodo")
		defer span.End()

		id := c.Param("id")
		deleted, err := store.Delete(id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("failed to delete todo", "id", id, "error", err)
			recordOperation(observability.OperationDelete, observability.OutcomeError)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save todo"})
			return
		}
		if !deleted {
			recordOperation(observability.OperationDelete, observability.OutcomeNotFound)
			c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(id)})
			return
		}

		slog.Info("deleted todo", "id", id)
		recordOperation(observability.OperationDelete, observability.OutcomeOK)
		recordInventory(store)
		c.Status(http.StatusNoContent)
	}
}

// GetTodoStats handles GET /v1/todos/stats with aggregate counts.
func GetTodoStats(store todostore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		todos, err := store.List()
		if err != nil {
			slog.Error("failed to compute todo stats", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read todos"})
			return
		}
		stats := todostore.ComputeStats(todos)
		if m := observability.DefaultMetrics; m != nil {
			m.SetInventory(stats.TotalCount, stats.CompletedCount)
		}
		c.JSON(http.StatusOK, stats)
	}
}

// notFoundMessage is the shared 404 text so every surface reports
// missing todos the same way.
func notFoundMessage(id string) string {
	return fmt.Sprintf("Todo with ID %s not found", id)
}

// recordOperation increments the operation counter when metrics are up.
func recordOperation(op observability.Operation, outcome observability.Outcome) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordOperation(op, outcome)
	}
}

// recordInventory refreshes the inventory gauges after a mutation.
func recordInventory(store todostore.Store) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	todos, err := store.List()
	if err != nil {
		return
	}
	stats := todostore.ComputeStats(todos)
	m.SetInventory(stats.TotalCount, stats.CompletedCount)
}
