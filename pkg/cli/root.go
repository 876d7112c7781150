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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	cderrors "github.com/NVIDIA/autocd/pkg/errors"
	"github.com/NVIDIA/autocd/pkg/logging"
)

const name = "autocd"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the CLI with the process arguments and exits non-zero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().Run(ctx, os.Args)
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, err)
	slog.Error("autocd failed", "error", err, "code", cderrors.CodeOf(err))
	code := exitCode(ctx, err)
	cancel()
	os.Exit(code)
}

func exitCode(ctx context.Context, err error) int {
	if ctx.Err() != nil || cderrors.HasCode(err, cderrors.ErrCodeTimeout) {
		return 2
	}
	return 1
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Continuous deployment of containerized services to Kubernetes",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		DefaultCommand:        "deploy",
		Flags:                 globalFlags(),
		Before:                initLogger,
		Commands: []*cli.Command{
			deployCmd(),
			removeCmd(),
			renderCmd(),
		},
	}
}

// initLogger configures slog before any command runs so --log-level and
// --log-text take effect. Every line of the run carries its run id.
func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := cmd.String(flagLogLevel)
	if cmd.Bool(flagLogText) {
		logging.SetDefaultTextLoggerWithLevel(name, version, level)
	} else {
		logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	}

	runID := uuid.NewString()
	slog.SetDefault(slog.Default().With("run", runID))
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date)

	return withRunID(ctx, runID), nil
}

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func runIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}
