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

package cmd

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danvoulez/ubl-auth/internal/keys"
	"github.com/danvoulez/ubl-auth/internal/mock"
)

var (
	issueSubject  string
	issueIssuer   string
	issueAudience []string
	issueScope    string
	issueKid      string
	issueExpires  time.Duration
	issueClaims   string
	issueKeyPath  string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Generate a signed test token",
	Long:  "Generate a signed EdDSA test token for development and testing. Uses an ephemeral Ed25519 key by default; the matching JWKs are printed to stderr so the token can be verified.",
	RunE:  runIssue,
}

func init() {
	issueCmd.Flags().StringVar(&issueSubject, "sub", "did:example:alice", "Subject (must be a DID for the token to verify)")
	issueCmd.Flags().StringVar(&issueIssuer, "iss", "https://issuer.example", "Issuer URL")
	issueCmd.Flags().StringSliceVar(&issueAudience, "aud", nil, "Audience(s); repeat or comma-separate for multiple")
	issueCmd.Flags().StringVar(&issueScope, "scope", "", "Space-separated scope claim")
	issueCmd.Flags().StringVar(&issueKid, "kid", "kid-1", "Key ID for the token header and JWK")
	issueCmd.Flags().DurationVar(&issueExpires, "exp", 24*time.Hour, "Expiration duration (e.g. 24h, 30m)")
	issueCmd.Flags().StringVar(&issueClaims, "claims", "", "Extra claims as JSON string or @filepath")
	issueCmd.Flags().StringVar(&issueKeyPath, "key", "", "Private key file (PEM or JWK); ephemeral Ed25519 if omitted")
	rootCmd.AddCommand(issueCmd)
}

func runIssue(cmd *cobra.Command, args []string) error {
	key, generated, err := loadOrGenerateIssueKey()
	if err != nil {
		return err
	}

	claims, err := parseClaimsOverrides(issueClaims)
	if err != nil {
		return err
	}

	cfg := mock.TokenConfig{
		Subject:   issueSubject,
		Issuer:    issueIssuer,
		Scope:     issueScope,
		Kid:       issueKid,
		ExpiresIn: issueExpires,
		Claims:    claims,
		Key:       key,
	}
	switch len(issueAudience) {
	case 0:
	case 1:
		cfg.Audience = issueAudience[0]
	default:
		cfg.Audience = issueAudience
	}

	tok, err := mock.GenerateToken(cfg)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(tok)

	if generated {
		pub := key.Public().(ed25519.PublicKey)
		fmt.Fprintln(os.Stderr, "public JWK:  "+mock.PublicKeyJWKJSON(pub, issueKid))
		fmt.Fprintln(os.Stderr, "private JWK: "+mock.PrivateKeyJWK(key, issueKid))
	}
	return nil
}

func loadOrGenerateIssueKey() (ed25519.PrivateKey, bool, error) {
	if issueKeyPath != "" {
		key, err := keys.LoadPrivateKey(issueKeyPath)
		if err != nil {
			return nil, false, fmt.Errorf("loading key: %w", err)
		}
		return key, false, nil
	}
	_, key, err := mock.GenerateKey()
	if err != nil {
		return nil, false, fmt.Errorf("generating key: %w", err)
	}
	return key, true, nil
}

func parseClaimsOverrides(input string) (map[string]any, error) {
	if input == "" {
		return nil, nil
	}
	raw := input
	if strings.HasPrefix(input, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(input, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading claims file: %w", err)
		}
		raw = string(data)
	}
	var claims map[string]any
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return nil, fmt.Errorf("parsing claims JSON: %w", err)
	}
	return claims, nil
}
