// Copyright (C) 2025 Grepmarx Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the FSF, either version 3 of the License, or (at your option) any later version.
// See the LICENSE file in the root of this repository for full license text or
// visit: <https://www.gnu.org/licenses/gpl-3.0.html>.

package executil

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	type testCase struct {
		name       string
		cfg        Config
		wantErr    bool
		wantExit   int
		wantStdout string
	}

	tests := []testCase{
		{
			name:       "captures stdout",
			cfg:        Config{Command: "echo", Args: []string{"hello"}},
			wantStdout: "hello",
		},
		{
			name:     "non-zero exit is not an error",
			cfg:      Config{Command: "false"},
			wantExit: 1,
		},
		{
			name:    "missing binary is an error",
			cfg:     Config{Command: "grepmarx-no-such-binary"},
			wantErr: true,
		},
		{
			name:    "missing command is an error",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name:    "timeout kills the process",
			cfg:     Config{Command: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if result.ExitCode != tt.wantExit {
				t.Errorf("Run() exit code = %d, want %d", result.ExitCode, tt.wantExit)
			}
			if tt.wantStdout != "" && strings.TrimSpace(string(result.Stdout)) != tt.wantStdout {
				t.Errorf("Run() stdout = %q, want %q", result.Stdout, tt.wantStdout)
			}
		})
	}
}

func TestRun_Workdir(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), Config{Command: "pwd", WorkDir: dir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(string(result.Stdout)); !strings.HasSuffix(got, dir[strings.LastIndex(dir, "/"):]) {
		t.Errorf("Run() in workdir %q ran in %q", dir, got)
	}
}
