// Copyright 2025 The ubl-auth Authors
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

package mock

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danvoulez/ubl-auth/internal/format"
)

// TokenConfig holds options for generating a signed test token.
type TokenConfig struct {
	Subject   string
	Issuer    string
	Audience  any // string or []string, written to aud as-is
	Scope     string
	Kid       string
	ExpiresIn time.Duration
	// Alg overrides the header alg. Defaults to EdDSA; set to something else
	// only to produce deliberately bad tokens for tests.
	Alg string
	// Claims are merged into the payload last and may override defaults.
	Claims map[string]any
	Key    ed25519.PrivateKey
}

// GenerateToken creates a signed test token. Defaults: iat = now,
// exp = now + ExpiresIn, and a fresh uuid jti.
func GenerateToken(cfg TokenConfig) (string, error) {
	if cfg.Key == nil {
		return "", fmt.Errorf("no signing key")
	}

	now := time.Now()
	payload := map[string]any{
		"sub": cfg.Subject,
		"iat": now.Unix(),
		"exp": now.Add(cfg.ExpiresIn).Unix(),
		"jti": uuid.NewString(),
	}
	if cfg.Issuer != "" {
		payload["iss"] = cfg.Issuer
	}
	if cfg.Audience != nil {
		payload["aud"] = cfg.Audience
	}
	if cfg.Scope != "" {
		payload["scope"] = cfg.Scope
	}
	for name, value := range cfg.Claims {
		payload[name] = value
	}

	alg := cfg.Alg
	if alg == "" {
		alg = "EdDSA"
	}
	header := map[string]any{
		"alg": alg,
		"typ": "JWT",
	}
	if cfg.Kid != "" {
		header["kid"] = cfg.Kid
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("marshaling header: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	sigInput := format.EncodeBase64URL(headerJSON) + "." + format.EncodeBase64URL(payloadJSON)
	sig := ed25519.Sign(cfg.Key, []byte(sigInput))

	return sigInput + "." + format.EncodeBase64URL(sig), nil
}
