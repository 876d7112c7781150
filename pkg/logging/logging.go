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
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvLogLevel names the environment variable holding the default log level.
	EnvLogLevel = "LOG_LEVEL"

	moduleKey  = "module"
	versionKey = "version"
)

// ParseLevel converts a level name into a slog.Level.
// Unknown or empty values map to slog.LevelInfo.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelFromEnv returns the level configured through LOG_LEVEL.
func levelFromEnv() string {
	return os.Getenv(EnvLogLevel)
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}
}

// NewStructuredLogger returns a JSON logger writing to stderr with module and version attributes.
// An empty level falls back to LOG_LEVEL.
func NewStructuredLogger(module, version, level string) *slog.Logger {
	return newLogger(os.Stderr, module, version, level, false)
}

// NewTextLogger returns a human-readable logger writing to stderr.
func NewTextLogger(module, version, level string) *slog.Logger {
	return newLogger(os.Stderr, module, version, level, true)
}

func newLogger(w io.Writer, module, version, level string, text bool) *slog.Logger {
	if level == "" {
		level = levelFromEnv()
	}
	opts := handlerOptions(ParseLevel(level))

	var h slog.Handler
	if text {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String(moduleKey, module),
		slog.String(versionKey, version),
	)
}

// SetDefaultStructuredLogger installs a JSON logger as the slog default using LOG_LEVEL.
func SetDefaultStructuredLogger(module, version string) {
	SetDefaultStructuredLoggerWithLevel(module, version, "")
}

// SetDefaultStructuredLoggerWithLevel installs a JSON logger as the slog default.
func SetDefaultStructuredLoggerWithLevel(module, version, level string) {
	slog.SetDefault(NewStructuredLogger(module, version, level))
}

// SetDefaultTextLoggerWithLevel installs a text logger as the slog default.
func SetDefaultTextLoggerWithLevel(module, version, level string) {
	slog.SetDefault(NewTextLogger(module, version, level))
}

// NewLogLogger adapts the default slog handler to a standard library *log.Logger.
// Used for libraries that only accept a *log.Logger.
func NewLogLogger(lvl slog.Level, addSource bool) *log.Logger {
	h := slog.Default().Handler()
	if addSource {
		return slog.NewLogLogger(h, lvl)
	}
	l := slog.NewLogLogger(h, lvl)
	l.SetFlags(0)
	return l
}
