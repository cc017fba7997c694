// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianTasks/services/todoapi/handlers"
	"github.com/AleutianAI/AleutianTasks/services/todoapi/middleware"
	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

func SetupRoutes(router *gin.Engine, store todostore.Store) {
	router.Use(middleware.Metrics())
	router.Use(middleware.RateLimiter(middleware.RateLimiterConfig{}))

	router.GET("/", handlers.Welcome)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		todos := v1.Group("/todos")
		{
			todos.GET("", handlers.ListTodos(store))
			todos.POST("", handlers.CreateTodo(store))
			// Static segment must not shadow the :id parameter; gin
			// routes /todos/stats here and /todos/<uuid> below.
			todos.GET("/stats", handlers.GetTodoStats(store))
			todos.GET("/:id", handlers.GetTodo(store))
			todos.PUT("/:id", handlers.UpdateTodo(store))
			todos.DELETE("/:id", handlers.DeleteTodo(store))
		}
	}
}
