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

package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/abcxyz/ci-notify/pkg/notifier"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "success",
			want: 0,
		},
		{
			name: "delivery_failed",
			err:  notifier.ErrDeliveryFailed,
			want: 255,
		},
		{
			name: "delivery_failed_wrapped",
			err: fmt.Errorf("notify failed: %w",
				fmt.Errorf("%w after 3 attempts: %w", notifier.ErrDeliveryFailed, &notifier.StatusError{StatusCode: 500})),
			want: 255,
		},
		{
			name: "missing_environment",
			err:  fmt.Errorf("invalid configuration: %w", errors.New("GITHUB_SHA: missing required value")),
			want: 1,
		},
		{
			name: "canceled",
			err:  fmt.Errorf("notify failed: delivery interrupted after 1 attempts: %w", context.Canceled),
			want: 1,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got, want := exitCode(tc.err), tc.want; got != want {
				t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, want)
			}
		})
	}
}
