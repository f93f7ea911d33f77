// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

// Package executil runs the external analysis tools as subprocesses with
// a context-aware, timeout-enforcing wrapper around os/exec.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Config holds the configuration for a command execution.
type Config struct {
	// Command is the name or path of the command to execute.
	Command string
	// Args are the command-line arguments.
	Args []string
	// WorkDir is the working directory for the command.
	WorkDir string
	// Env specifies additional environment variables in "KEY=value" form.
	// If nil, the command inherits the parent process environment.
	Env []string
	// Timeout is the maximum execution duration. Zero means no timeout.
	Timeout time.Duration
}

// Result holds the outcome of a command execution.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Run executes a command with the given configuration.
//
// A non-zero exit code is not treated as an error: the Result is
// returned with the exit code populated, and the caller decides how to
// handle it. Only actual execution failures (binary not found, timeout,
// cancellation) return an error.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required")
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("command %s timed out after %v", cfg.Command, cfg.Timeout)
		}
		if ctx.Err() == context.Canceled {
			return result, fmt.Errorf("command %s canceled", cfg.Command)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("unable to run %s: %w", cfg.Command, err)
	}

	return result, nil
}
