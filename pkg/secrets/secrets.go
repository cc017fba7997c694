// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package secrets loads API credentials and holds them in locked memory.
//
// Keys are resolved from the environment first and from container secret
// files second, then sealed in a memguard enclave so the plaintext is not
// swappable and is wiped on shutdown. Callers get at the value only through
// Expose, which decrypts into a locked buffer for the duration of a callback.
package secrets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/awnumar/memguard"
	"golang.org/x/sys/unix"
)

// =============================================================================
// Constants
// =============================================================================

// MinMlockLimitKB is the minimum mlock limit required in kilobytes.
//
// API keys are tiny, but memguard pads every allocation to page boundaries
// and adds guard pages, so a handful of sealed keys still needs real locked
// memory. 64 KB matches the most conservative default kernel limit.
const MinMlockLimitKB = 64

// =============================================================================
// Package Variables
// =============================================================================

var (
	// ErrNotFound is returned when a credential is absent from both the
	// environment and the secret file.
	ErrNotFound = errors.New("credential not found")

	// initOnce ensures memguard initialization happens only once.
	initOnce sync.Once

	// mlockSufficient is set during initialization to indicate if locked memory is available.
	mlockSufficient bool

	// mlockLimitKB stores the current mlock limit for logging.
	mlockLimitKB int64
)

// =============================================================================
// Structs
// =============================================================================

// Key is a sealed credential.
//
// # Description
//
// Key wraps a memguard enclave holding one credential. The plaintext exists
// only inside Expose. When the system cannot lock memory and the operator
// has set ALEUTIAN_INSECURE_MEMORY=true, the value is kept in ordinary heap
// memory instead and a warning is logged at load time.
//
// # Thread Safety
//
// Safe for concurrent use.
//
// # Limitations
//
//   - A Key cannot be reused after Destroy()
type Key struct {
	source string

	mu        sync.Mutex
	enclave   *memguard.Enclave
	insecure  []byte
	destroyed bool
}

// =============================================================================
// Loading
// =============================================================================

// Load resolves a credential and seals it.
//
// # Description
//
// Looks up envVar first; when that is empty after trimming, reads secretFile
// (the conventional Podman/Docker location is /run/secrets/<name>). Values
// are trimmed of surrounding whitespace so trailing newlines in secret files
// do not end up inside request headers.
//
// # Inputs
//
//   - envVar: Environment variable to consult first (e.g. ANTHROPIC_API_KEY)
//   - secretFile: Path of a secret file to fall back to; "" disables the fallback
//
// # Outputs
//
//   - *Key: Sealed credential ready for Expose
//   - error: ErrNotFound when neither source yields a value; a policy error
//     when locked memory is unavailable and no insecure override is set
//
// # Examples
//
//	key, err := secrets.Load("ANTHROPIC_API_KEY", "/run/secrets/anthropic_api_key")
//	if err != nil {
//	    return err
//	}
//	defer key.Destroy()
//
// # Limitations
//
//   - Explicitly empty env vars are treated as unset
//
// # Assumptions
//
//   - secretFile, when present, is readable by the current user
func Load(envVar, secretFile string) (*Key, error) {
	initMemguard()

	value := strings.TrimSpace(os.Getenv(envVar))
	source := "env:" + envVar

	if value == "" && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err == nil {
			value = strings.TrimSpace(string(content))
			source = "file:" + secretFile
			slog.Info("Read credential from secret file", "path", secretFile)
		}
	}

	if value == "" {
		return nil, fmt.Errorf("%w: %s is not set and %s is not readable",
			ErrNotFound, envVar, secretFile)
	}

	return seal(value, source)
}

// seal wraps a plaintext value in an enclave, honoring the insecure override.
func seal(value, source string) (*Key, error) {
	if !mlockSufficient {
		if os.Getenv("ALEUTIAN_INSECURE_MEMORY") != "true" {
			return nil, fmt.Errorf(
				"mlock limit insufficient: have %d KB, need %d KB. "+
					"Raise the limit or set ALEUTIAN_INSECURE_MEMORY=true",
				mlockLimitKB, MinMlockLimitKB,
			)
		}
		slog.Warn("SECURITY: holding credential in unlocked memory",
			"source", source,
			"mlock_limit_kb", mlockLimitKB,
			"required_kb", MinMlockLimitKB,
		)
		return &Key{source: source, insecure: []byte(value)}, nil
	}

	// NewEnclave wipes the byte slice it is given, so the only surviving
	// plaintext after this call is the string the caller passed in.
	return &Key{source: source, enclave: memguard.NewEnclave([]byte(value))}, nil
}

// =============================================================================
// Key Methods
// =============================================================================

// Expose decrypts the credential for the duration of a callback.
//
// # Description
//
// Opens the enclave into a fresh locked buffer, hands the plaintext to fn,
// and destroys the buffer when fn returns. The string passed to fn is backed
// by locked memory and is invalid once Expose returns.
//
// # Inputs
//
//   - fn: Callback receiving the plaintext; must not retain it
//
// # Outputs
//
//   - error: fn's error, or a failure opening the enclave
//
// # Examples
//
//	err := key.Expose(func(v string) error {
//	    req.Header.Set("x-api-key", v)
//	    return nil
//	})
//
// # Limitations
//
//   - Copies fn makes of the value (headers, request bodies) are the
//     caller's responsibility
//
// # Assumptions
//
//   - None
func (k *Key) Expose(fn func(value string) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return fmt.Errorf("credential already destroyed")
	}

	if k.enclave == nil {
		return fn(string(k.insecure))
	}

	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("failed to open sealed credential: %w", err)
	}
	defer buf.Destroy()

	return fn(buf.String())
}

// Source reports where the credential was loaded from ("env:NAME" or
// "file:/path"). Safe to log.
func (k *Key) Source() string {
	return k.source
}

// Destroy wipes the credential. Safe to call multiple times.
func (k *Key) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return
	}

	for i := range k.insecure {
		k.insecure[i] = 0
	}
	k.insecure = nil
	k.enclave = nil
	k.destroyed = true
}

// =============================================================================
// Package Initialization Functions
// =============================================================================

// initMemguard initializes memguard and checks mlock limits once.
func initMemguard() {
	initOnce.Do(func() {
		memguard.CatchInterrupt()
		mlockSufficient, mlockLimitKB = checkMlockLimit()
		if !mlockSufficient {
			slog.Warn("mlock limit insufficient for sealed credentials",
				"current_limit_kb", mlockLimitKB,
				"required_kb", MinMlockLimitKB,
			)
		}
	})
}

// checkMlockLimit queries the kernel for the mlock resource limit.
//
// # Outputs
//
//   - bool: True if the limit covers MinMlockLimitKB
//   - int64: Current limit in kilobytes (-1 if unlimited)
//
// # Limitations
//
//   - Only works on Unix-like systems
func checkMlockLimit() (bool, int64) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlimit); err != nil {
		slog.Warn("Could not determine mlock limit", "error", err)
		return true, -1
	}

	if rlimit.Cur == unix.RLIM_INFINITY {
		return true, -1
	}

	limitKB := int64(rlimit.Cur / 1024)
	return limitKB >= MinMlockLimitKB, limitKB
}

// =============================================================================
// Utility Functions
// =============================================================================

// MlockAvailable returns whether locked memory is available on this system.
//
// # Outputs
//
//   - bool: True if sealed credentials use locked memory
//   - int64: Current mlock limit in KB (-1 if unlimited)
func MlockAvailable() (bool, int64) {
	initMemguard()
	return mlockSufficient, mlockLimitKB
}

// Purge wipes all memguard-allocated memory. Call during graceful shutdown.
func Purge() {
	memguard.Purge()
}
