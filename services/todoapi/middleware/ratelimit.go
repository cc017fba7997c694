// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the todo API.
//
// This package contains per-client rate limiting. The store serializes
// every operation behind one mutex, so a single flooding client can
// starve every other caller; the limiter keeps one client from owning
// the lock.
//
// # Rate Limiting Flow
//
//	Request
//	   │
//	   ▼
//	RateLimiter
//	   │
//	   ├─► Look up token bucket for ClientIP
//	   │
//	   ├─► bucket.Allow() ?
//	   │
//	   ├─► no: 429 {"error": "rate limit exceeded"}
//	   │
//	   └─► yes: Handler
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// =============================================================================
// Configuration
// =============================================================================

const (
	// DefaultRequestsPerSecond is the sustained per-client request rate.
	DefaultRequestsPerSecond = 20

	// DefaultBurst is the per-client burst allowance.
	DefaultBurst = 40

	// staleAfter is how long an idle client's bucket is kept.
	staleAfter = 3 * time.Minute

	// pruneThreshold is the tracked-client count that triggers a prune.
	pruneThreshold = 1024
)

// RateLimiterConfig configures the per-client rate limiter.
//
// A zero value uses DefaultRequestsPerSecond and DefaultBurst.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained request rate per client.
	RequestsPerSecond float64

	// Burst is the number of requests a client may send at once.
	Burst int
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// clientBucket pairs a token bucket with its last use for pruning.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter creates a Gin middleware that rate limits by client IP.
//
// # Description
//
// Each client IP gets its own token bucket (golang.org/x/time/rate).
// Requests that exceed the bucket are rejected with 429 and a Retry-After
// header. Idle buckets are pruned once the tracked-client count passes a
// threshold, so the map does not grow without bound.
//
// # Inputs
//
//   - cfg: Limiter configuration. Zero values take the package defaults.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin
//
// # Examples
//
//	router.Use(middleware.RateLimiter(middleware.RateLimiterConfig{}))
//
// # Limitations
//
//   - Keyed by ClientIP, so clients behind one NAT share a bucket.
//   - State is per-process; running several replicas multiplies the
//     effective limit.
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func RateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}

	var mu sync.Mutex
	buckets := make(map[string]*clientBucket)

	return func(c *gin.Context) {
		key := c.ClientIP()
		now := time.Now()

		mu.Lock()
		bucket, ok := buckets[key]
		if !ok {
			if len(buckets) >= pruneThreshold {
				pruneStale(buckets, now)
			}
			bucket = &clientBucket{
				limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			}
			buckets[key] = bucket
		}
		bucket.lastSeen = now
		allowed := bucket.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// pruneStale drops buckets idle longer than staleAfter.
// Caller must hold the bucket map lock.
func pruneStale(buckets map[string]*clientBucket, now time.Time) {
	for key, bucket := range buckets {
		if now.Sub(bucket.lastSeen) > staleAfter {
			delete(buckets, key)
		}
	}
}
