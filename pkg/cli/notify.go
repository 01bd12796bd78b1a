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

package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abcxyz/pkg/cli"
	"github.com/abcxyz/pkg/logging"
	"github.com/sethvargo/go-envconfig"
	"google.golang.org/api/option"

	"github.com/abcxyz/ci-notify/pkg/notifier"
	"github.com/abcxyz/ci-notify/pkg/secrets"
	"github.com/abcxyz/ci-notify/pkg/version"
)

var _ cli.Command = (*NotifyCommand)(nil)

// NotifyCommand posts the outcome of the current CI job to a webhook. The job
// is described by the GITHUB_REPOSITORY, GITHUB_SHA, GITHUB_WORKFLOW and
// ACTION_STATUS variables; the destination by WEBHOOK_URL and WEBHOOK_AUTH.
type NotifyCommand struct {
	cli.BaseCommand

	cfg *notifier.Config

	// testFlagSetOpts is only used for testing.
	testFlagSetOpts []cli.Option

	// testLookuper is only used for testing.
	testLookuper envconfig.Lookuper

	// testHTTPClient is only used for testing.
	testHTTPClient *http.Client

	// testSecretAccessor is only used for testing.
	testSecretAccessor secrets.Accessor
}

func (c *NotifyCommand) Desc() string {
	return `Notify a webhook of the outcome of a CI job`
}

func (c *NotifyCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

  Notify a webhook of the outcome of a CI job.

  The following environment variables are required:

      GITHUB_REPOSITORY  repository identifier
      GITHUB_SHA         commit hash
      GITHUB_WORKFLOW    workflow name
      ACTION_STATUS      CI status string
      WEBHOOK_URL        destination URL
      WEBHOOK_AUTH       value of the Auth header

  The command exits 0 once the webhook answers 200 OK and 255 when every
  attempt failed.
`
}

func (c *NotifyCommand) Flags() *cli.FlagSet {
	c.cfg = &notifier.Config{}
	set := cli.NewFlagSet(c.testFlagSetOpts...)
	return c.cfg.ToFlags(set)
}

func (c *NotifyCommand) Run(ctx context.Context, args []string) error {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	args = f.Args()
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}

	logger := logging.FromContext(ctx)
	logger.DebugContext(ctx, "running notify",
		"name", version.Name,
		"commit", version.Commit,
		"version", version.Version)

	lu := c.testLookuper
	if lu == nil {
		lu = envconfig.OsLookuper()
	}
	if err := c.cfg.LoadEnvWith(ctx, lu); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.DebugContext(ctx, "loaded configuration",
		"webhook_url", c.cfg.WebhookURL,
		"timeout", c.cfg.Timeout,
		"attempts", c.cfg.Attempts,
		"auth_from_secret_manager", c.cfg.AuthFromSecretManager)

	co := &notifier.ClientOptions{
		SecretManagerClientOpts: secretManagerClientOpts(c.cfg),
		Stdout:                  c.Stdout(),
		HTTPClientOverride:      c.testHTTPClient,
		SecretAccessorOverride:  c.testSecretAccessor,
	}
	if err := notifier.Notify(ctx, c.cfg, co); err != nil {
		return fmt.Errorf("notify failed: %w", err)
	}
	return nil
}

// secretManagerClientOpts returns the client options used when the webhook
// auth is read from Secret Manager.
func secretManagerClientOpts(cfg *notifier.Config) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.SecretManagerQuotaProject != "" {
		opts = append(opts, option.WithQuotaProject(cfg.SecretManagerQuotaProject))
	}
	return opts
}
