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
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianTasks/services/todoapi/observability"
	"github.com/AleutianAI/AleutianTasks/services/todoapi/routes"
	"github.com/AleutianAI/AleutianTasks/services/todostore"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("todo-api-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// seedSampleTodos writes two starter todos into an empty store so that a
// fresh install has something to show. Stores that already hold data,
// including seed-file data, are left alone.
func seedSampleTodos(store todostore.Store) {
	todos, err := store.List()
	if err != nil {
		slog.Warn("skipping sample seed, store not readable", "error", err)
		return
	}
	if len(todos) > 0 {
		return
	}

	samples := []struct {
		title       string
		description string
		completed   bool
	}{
		{"Explore the todo API", "Walk through each endpoint with curl or the tasks CLI", true},
		{"Connect a client", "Point the web UI or the MCP server at this API", false},
	}
	for _, s := range samples {
		if _, err := store.Create(s.title, s.description, s.completed, nil); err != nil {
			slog.Error("failed to seed sample todo", "title", s.title, "error", err)
			return
		}
	}
	slog.Info("seeded sample todos", "count", len(samples))
}

func main() {
	port := os.Getenv("TASKS_API_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	dataFile := os.Getenv("TASKS_DATA_FILE")
	if dataFile == "" {
		dataFile = "todo_data.json"
	}
	seedFile := os.Getenv("TASKS_SEED_FILE")
	if seedFile == "" {
		seedFile = "todo_data.sample.json"
	}
	opts := []todostore.Option{todostore.WithSeedFile(seedFile)}
	if strict := os.Getenv("TASKS_STRICT_PARSE"); strict == "1" || strings.EqualFold(strict, "true") {
		opts = append(opts, todostore.WithStrictParse())
	}
	store := todostore.NewFileStore(dataFile, opts...)
	slog.Info("opened todo store", "path", store.Path())

	seedSampleTodos(store)

	router := gin.Default()
	router.Use(otelgin.Middleware("todo-api-service"))

	routes.SetupRoutes(router, store)

	log.Println("Starting the todo API server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
