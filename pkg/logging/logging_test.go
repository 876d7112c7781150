// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{" error ", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger_JSONAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "autocd", "v1.2.3", "info", false)
	logger.Info("created", "kind", "Service")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}

	for k, want := range map[string]string{
		"module":  "autocd",
		"version": "v1.2.3",
		"msg":     "created",
		"kind":    "Service",
	} {
		if entry[k] != want {
			t.Errorf("expected %s=%q, got %v", k, want, entry[k])
		}
	}
	if _, ok := entry["source"]; ok {
		t.Error("source should only be attached at debug level")
	}
}

func TestNewLogger_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "autocd", "dev", "debug", false)
	logger.Debug("probe")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line: %v", err)
	}
	if _, ok := entry["source"]; !ok {
		t.Error("expected source attribute at debug level")
	}
}

func TestNewLogger_LevelFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	var buf bytes.Buffer
	logger := newLogger(&buf, "autocd", "dev", "", true)
	if logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled when LOG_LEVEL=error")
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled when LOG_LEVEL=error")
	}
}
