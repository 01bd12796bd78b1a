// Copyright 2026 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Entry point of the application.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/abcxyz/pkg/logging"

	"github.com/abcxyz/ci-notify/pkg/cli"
	"github.com/abcxyz/ci-notify/pkg/notifier"
)

// exitDeliveryFailed is the exit code used when every delivery attempt failed.
// Configuration and runtime errors exit 1.
const exitDeliveryFailed = 255

func main() {
	ctx, done := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer done()

	logger := logging.NewFromEnv("")
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx); err != nil {
		done()
		logger.ErrorContext(ctx, "process exited with error", "error", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the result of realMain to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, notifier.ErrDeliveryFailed):
		return exitDeliveryFailed
	default:
		return 1
	}
}

// realMain runs the CLI, typically as the last step of a CI job.
func realMain(ctx context.Context) error {
	return cli.Run(ctx, os.Args[1:]) //nolint:wrapcheck // Want passthrough
}
