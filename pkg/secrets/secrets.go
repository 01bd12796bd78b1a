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

// Package secrets reads secret payloads from Google Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"hash/crc32"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// Accessor is the subset of the Secret Manager client used to read secret
// versions. *secretmanager.Client satisfies it.
type Accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

var _ Accessor = (*secretmanager.Client)(nil)

// GetSecret reads a secret from Secret Manager and validates that it was not
// corrupted during retrieval. The secretResourceName should be in the format:
// 'projects/*/secrets/*/versions/*'.
func GetSecret(ctx context.Context, secretResourceName string, opts ...option.ClientOption) (string, error) {
	sm, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create secret manager client: %w", err)
	}
	secret, err := AccessSecret(ctx, sm, secretResourceName)
	if err != nil {
		sm.Close()
		return "", fmt.Errorf("failed to retrieve secret: %w", err)
	}
	if err := sm.Close(); err != nil {
		return "", fmt.Errorf("failed to close secret manager client: %w", err)
	}
	return secret, nil
}

// AccessSecret reads a secret from Secret Manager using the given client and
// validates that it was not corrupted during retrieval.
func AccessSecret(ctx context.Context, client Accessor, secretResourceName string) (string, error) {
	req := secretmanagerpb.AccessSecretVersionRequest{
		Name: secretResourceName,
	}
	result, err := client.AccessSecretVersion(ctx, &req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %q: %w", secretResourceName, err)
	}
	if result.GetPayload() == nil {
		return "", fmt.Errorf("secret version %q has no payload", secretResourceName)
	}

	data := result.GetPayload().GetData()
	if want := result.GetPayload().DataCrc32C; want != nil {
		crc32c := crc32.MakeTable(crc32.Castagnoli)
		if got := int64(crc32.Checksum(data, crc32c)); got != *want {
			return "", fmt.Errorf("secret version %q is corrupted: checksum mismatch", secretResourceName)
		}
	}
	return string(data), nil
}
