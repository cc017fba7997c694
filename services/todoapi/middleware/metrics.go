// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianTasks/services/todoapi/observability"
)

// Metrics creates a Gin middleware that records request counts and latency.
//
// The endpoint label is the matched route pattern (e.g. "/v1/todos/:id"),
// keeping metric cardinality bounded regardless of how many IDs exist.
// Requests that match no route are labeled "unmatched". Does nothing when
// observability.InitMetrics has not been called, so tests run clean.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m := observability.DefaultMetrics
		if m == nil {
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordRequest(endpoint, statusClass(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// statusClass buckets an HTTP status code into its class label.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
