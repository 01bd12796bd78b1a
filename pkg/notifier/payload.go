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
	"encoding/json"
	"fmt"
)

// Payload is the JSON body posted to the webhook. Field values are copied
// verbatim from the CI environment.
type Payload struct {
	Repo     string `json:"repo"`
	Commit   string `json:"commit"`
	Workflow string `json:"workflow"`
	Status   string `json:"status"`
}

// NewPayload builds the payload for cfg.
func NewPayload(cfg *Config) *Payload {
	return &Payload{
		Repo:     cfg.Repository,
		Commit:   cfg.Commit,
		Workflow: cfg.Workflow,
		Status:   cfg.Status,
	}
}

// Encode serializes the payload to UTF-8 JSON.
func (p *Payload) Encode() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return b, nil
}
