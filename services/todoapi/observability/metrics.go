// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the todo API.
//
// # Description
//
// This package implements Prometheus metrics for monitoring todo CRUD
// operations. Metrics include:
//   - Request counters (by endpoint, HTTP status class)
//   - Operation counters (by operation, outcome)
//   - Request latency histograms
//   - Inventory gauges (stored todos, completed todos)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for todo API metrics
const todoSubsystem = "todo_api"

// TodoMetrics holds all Prometheus metrics for the todo API.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring request traffic
// and the stored todo inventory. Initialize once at startup via InitMetrics().
//
// # Fields
//
//   - RequestsTotal: Counter of HTTP requests by endpoint and status
//   - RequestDurationSeconds: Histogram of request latency by endpoint
//   - OperationsTotal: Counter of store operations by operation and outcome
//   - TodosStored: Gauge of todos currently in the store
//   - TodosCompleted: Gauge of completed todos currently in the store
//
// # Thread Safety
//
// All operations are thread-safe.
type TodoMetrics struct {
	// RequestsTotal counts HTTP requests by endpoint and status.
	// Labels: endpoint (list, get, create, ...), status (2xx, 4xx, 5xx)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures request latency.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// OperationsTotal counts store operations by outcome.
	// Labels: operation (create, update, delete), outcome (ok, not_found, invalid, error)
	OperationsTotal *prometheus.CounterVec

	// TodosStored tracks the number of todos currently in the store.
	TodosStored prometheus.Gauge

	// TodosCompleted tracks the number of completed todos in the store.
	TodosCompleted prometheus.Gauge
}

// DefaultMetrics is the singleton instance of TodoMetrics.
// Initialized by InitMetrics(). Handlers nil-check it so that tests
// can run without registering anything.
var DefaultMetrics *TodoMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics against the default
// registry. Should be called once at application startup.
//
// # Outputs
//
//   - *TodoMetrics: The initialized metrics instance.
//
// # Examples
//
//	func main() {
//	    observability.InitMetrics()
//	    // ... start server ...
//	}
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *TodoMetrics {
	DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// NewMetrics creates a TodoMetrics registered against reg.
//
// Tests pass prometheus.NewRegistry() so repeated construction does not
// collide with the default registry.
func NewMetrics(reg prometheus.Registerer) *TodoMetrics {
	factory := promauto.With(reg)

	return &TodoMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: todoSubsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by endpoint and status class",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: todoSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Request latency in seconds by endpoint",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"endpoint"},
		),

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: todoSubsystem,
				Name:      "operations_total",
				Help:      "Total store operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		TodosStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: todoSubsystem,
				Name:      "todos_stored",
				Help:      "Number of todos currently in the store",
			},
		),

		TodosCompleted: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: todoSubsystem,
				Name:      "todos_completed",
				Help:      "Number of completed todos currently in the store",
			},
		),
	}
}

// =============================================================================
// Label Values
// =============================================================================

// Operation represents a store operation for metrics labeling.
type Operation string

const (
	// OperationCreate is a todo creation.
	OperationCreate Operation = "create"

	// OperationUpdate is a partial todo update.
	OperationUpdate Operation = "update"

	// OperationDelete is a todo deletion.
	OperationDelete Operation = "delete"
)

// Outcome represents a categorized operation result for metrics.
type Outcome string

const (
	// OutcomeOK indicates the operation succeeded.
	OutcomeOK Outcome = "ok"

	// OutcomeNotFound indicates the target todo did not exist.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeInvalid indicates request validation failed.
	OutcomeInvalid Outcome = "invalid"

	// OutcomeError indicates a store failure.
	OutcomeError Outcome = "error"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordOperation records a completed store operation.
//
// # Inputs
//
//   - op: The operation performed.
//   - outcome: The categorized result.
func (m *TodoMetrics) RecordOperation(op Operation, outcome Outcome) {
	m.OperationsTotal.WithLabelValues(string(op), string(outcome)).Inc()
}

// RecordRequest records a completed HTTP request.
//
// # Inputs
//
//   - endpoint: Logical endpoint name (list, get, create, ...).
//   - statusClass: HTTP status class ("2xx", "4xx", "5xx").
//   - seconds: Request duration in seconds.
func (m *TodoMetrics) RecordRequest(endpoint, statusClass string, seconds float64) {
	m.RequestsTotal.WithLabelValues(endpoint, statusClass).Inc()
	m.RequestDurationSeconds.WithLabelValues(endpoint).Observe(seconds)
}

// SetInventory updates the stored and completed todo gauges.
//
// Handlers call this after successful mutations so the gauges track the
// file contents without a background scrape of the store.
//
// # Inputs
//
//   - total: Number of todos in the store.
//   - completed: Number of completed todos in the store.
func (m *TodoMetrics) SetInventory(total, completed int) {
	m.TodosStored.Set(float64(total))
	m.TodosCompleted.Set(float64(completed))
}
