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

package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abcxyz/pkg/cfgloader"
	"github.com/abcxyz/pkg/cli"
	"github.com/sethvargo/go-envconfig"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultAttempts = 3
)

// Config defines the inputs of a single notification. The CI fields are read
// from the environment exactly as the runner provides them. A variable that is
// set to the empty string is accepted; a variable that is not set at all is an
// error.
type Config struct {
	Repository  string `env:"GITHUB_REPOSITORY,required"`
	Commit      string `env:"GITHUB_SHA,required"`
	Workflow    string `env:"GITHUB_WORKFLOW,required"`
	Status      string `env:"ACTION_STATUS,required"`
	WebhookURL  string `env:"WEBHOOK_URL,required"`
	WebhookAuth string `env:"WEBHOOK_AUTH,required"`

	// Tuning options, bound through ToFlags.
	Timeout                   time.Duration
	Attempts                  int
	AuthFromSecretManager     bool
	SecretManagerQuotaProject string
}

// Validate validates the notifier config after load.
func (cfg *Config) Validate() error {
	var merr error

	if cfg.Timeout <= 0 {
		merr = errors.Join(merr, fmt.Errorf("WEBHOOK_TIMEOUT must be positive"))
	}

	if cfg.Attempts < 1 {
		merr = errors.Join(merr, fmt.Errorf("WEBHOOK_ATTEMPTS must be at least 1"))
	}

	return merr
}

// ToFlags binds the tuning options to the given [cli.FlagSet] and returns it.
func (cfg *Config) ToFlags(set *cli.FlagSet) *cli.FlagSet {
	f := set.NewSection("DELIVERY OPTIONS")

	f.DurationVar(&cli.DurationVar{
		Name:    "timeout",
		Target:  &cfg.Timeout,
		EnvVar:  "WEBHOOK_TIMEOUT",
		Default: defaultTimeout,
		Usage:   `The timeout for a single delivery attempt.`,
	})

	f.IntVar(&cli.IntVar{
		Name:    "attempts",
		Target:  &cfg.Attempts,
		EnvVar:  "WEBHOOK_ATTEMPTS",
		Default: defaultAttempts,
		Usage:   `The total number of delivery attempts before giving up.`,
	})

	f.BoolVar(&cli.BoolVar{
		Name:    "auth-from-secret-manager",
		Target:  &cfg.AuthFromSecretManager,
		EnvVar:  "WEBHOOK_AUTH_FROM_SECRET_MANAGER",
		Default: false,
		Usage: `Treat WEBHOOK_AUTH as a Secret Manager secret version ` +
			`(projects/*/secrets/*/versions/*) and send its payload instead.`,
	})

	f.StringVar(&cli.StringVar{
		Name:   "secret-manager-quota-project",
		Target: &cfg.SecretManagerQuotaProject,
		EnvVar: "SECRET_MANAGER_QUOTA_PROJECT",
		Usage:  `Google Cloud project billed for Secret Manager reads.`,
	})

	return set
}

// LoadEnvWith reads the CI variables from lu into cfg and validates the
// result. Tuning options already set on cfg are preserved.
func (cfg *Config) LoadEnvWith(ctx context.Context, lu envconfig.Lookuper) error {
	if err := cfgloader.Load(ctx, cfg, cfgloader.WithLookuper(lu)); err != nil {
		return fmt.Errorf("failed to parse notifier config: %w", err)
	}
	return cfg.Validate()
}
