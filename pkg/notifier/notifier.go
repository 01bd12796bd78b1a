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

// Package notifier posts the outcome of a CI job to a webhook.
package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/abcxyz/pkg/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/option"

	"github.com/abcxyz/ci-notify/pkg/secrets"
	"github.com/abcxyz/ci-notify/pkg/version"
)

const (
	mb = 1 << 20

	successMessage = "success"
	failureMessage = "Failed to connect to webhook."
)

// ErrDeliveryFailed is returned when every delivery attempt failed.
var ErrDeliveryFailed = errors.New("failed to connect to webhook")

// StatusError is an attempt failure caused by a response other than 200 OK.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("The request failed (%d)", e.StatusCode) //nolint:stylecheck // Printed verbatim on the console.
}

// ClientOptions encapsulate client config options as well as dependency
// implementation overrides.
type ClientOptions struct {
	SecretManagerClientOpts []option.ClientOption
	HTTPClientOverride      *http.Client     // used for unit testing
	SecretAccessorOverride  secrets.Accessor // used for unit testing
	// Stdout receives the console status lines. If nil, os.Stdout is used.
	Stdout io.Writer
}

// Notify posts the notification described by cfg to the webhook. It makes up
// to cfg.Attempts attempts with no delay between them and returns nil as soon
// as one of them receives a 200 response. When all attempts fail the returned
// error wraps ErrDeliveryFailed.
func Notify(ctx context.Context, cfg *Config, co *ClientOptions) error {
	logger := logging.FromContext(ctx)
	if co == nil {
		co = &ClientOptions{}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	stdout := co.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	token, err := webhookToken(ctx, cfg, co)
	if err != nil {
		return err
	}

	body, err := NewPayload(cfg).Encode()
	if err != nil {
		return err
	}

	// Reject a destination that can never form a request before attempting.
	if _, err := newRequest(ctx, cfg.WebhookURL, token, body); err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}

	client := co.HTTPClientOverride
	if client == nil {
		client = &http.Client{}
	}

	deliveryID := uuid.New().String()
	logger.InfoContext(ctx, "delivering notification",
		"delivery_id", deliveryID,
		"repo", cfg.Repository,
		"commit", cfg.Commit,
		"workflow", cfg.Workflow,
		"status", cfg.Status,
		"attempts", cfg.Attempts)

	var attempt int
	backoff := retry.WithMaxRetries(uint64(cfg.Attempts-1), immediately())
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		i := attempt
		attempt++

		if err := deliver(ctx, client, cfg.Timeout, cfg.WebhookURL, token, body); err != nil {
			fmt.Fprintf(stdout, "%d failed with exception: %s\n", i, err)
			logger.WarnContext(ctx, "delivery attempt failed",
				"delivery_id", deliveryID,
				"attempt", i,
				"error", err)
			return retry.RetryableError(err)
		}

		logger.InfoContext(ctx, "delivery attempt succeeded",
			"delivery_id", deliveryID,
			"attempt", i)
		return nil
	}); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("delivery interrupted after %d attempts: %w", attempt, ctxErr)
		}

		fmt.Fprintln(stdout, failureMessage)
		logger.ErrorContext(ctx, "all delivery attempts failed",
			"delivery_id", deliveryID,
			"attempts", attempt,
			"error", err)
		return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, attempt, err)
	}

	fmt.Fprintln(stdout, successMessage)
	return nil
}

// immediately is a backoff that retries without waiting. Callers bound it
// with retry.WithMaxRetries.
func immediately() retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		return 0, false
	})
}

func webhookToken(ctx context.Context, cfg *Config, co *ClientOptions) (string, error) {
	if !cfg.AuthFromSecretManager {
		return cfg.WebhookAuth, nil
	}

	if co.SecretAccessorOverride != nil {
		token, err := secrets.AccessSecret(ctx, co.SecretAccessorOverride, cfg.WebhookAuth)
		if err != nil {
			return "", fmt.Errorf("failed to resolve webhook auth: %w", err)
		}
		return token, nil
	}

	token, err := secrets.GetSecret(ctx, cfg.WebhookAuth, co.SecretManagerClientOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to resolve webhook auth: %w", err)
	}
	return token, nil
}

func newRequest(ctx context.Context, url, token string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err //nolint:wrapcheck // Want passthrough
	}
	if req.URL.Scheme == "" || req.URL.Host == "" {
		return nil, fmt.Errorf("unknown url type: %q", url)
	}

	req.Header.Set("Auth", token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent)
	return req, nil
}

// deliver performs a single attempt bounded by timeout.
func deliver(ctx context.Context, client *http.Client, timeout time.Duration, url, token string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := newRequest(ctx, url, token, body)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err //nolint:wrapcheck // Want passthrough
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused by the next attempt.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, mb))

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
