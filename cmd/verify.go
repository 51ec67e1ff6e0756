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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danvoulez/ubl-auth/internal/format"
	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/keys"
	"github.com/danvoulez/ubl-auth/internal/output"
	"github.com/danvoulez/ubl-auth/internal/verify"
)

var (
	verifyJWKSURI  string
	verifyKeyFile  string
	verifyIssuer   string
	verifyAudience string
	verifyLeeway   time.Duration
	verifyCacheTTL time.Duration
)

var verifyCmd = &cobra.Command{
	Use:   "verify [input]",
	Short: "Verify a token's signature and claims",
	Long: `Decode and fully verify a token:

  - alg must be EdDSA (checked before any network access)
  - Ed25519 signature against a key from --jwks or --key
  - exp / nbf / iat with leeway (default 300s)
  - issuer and audience, when --iss / --aud are given
  - subject must be a DID

Exactly one of --jwks or --key is required. The command exits non-zero
when verification fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyJWKSURI, "jwks", "", "JWKS endpoint URI to resolve the verification key from")
	verifyCmd.Flags().StringVar(&verifyKeyFile, "key", "", "Public key file (PEM or JWK)")
	verifyCmd.Flags().StringVar(&verifyIssuer, "iss", "", "Require this exact issuer")
	verifyCmd.Flags().StringVar(&verifyAudience, "aud", "", "Require this audience to be present")
	verifyCmd.Flags().DurationVar(&verifyLeeway, "leeway", verify.DefaultLeeway, "Clock-skew leeway for exp/nbf/iat")
	verifyCmd.Flags().DurationVar(&verifyCacheTTL, "jwks-ttl", jwks.DefaultTTL, "How long fetched JWKS documents stay fresh")
	rootCmd.AddCommand(verifyCmd)
}

// verifyOptions translates the command flags into verification options.
func verifyOptions() verify.Options {
	opts := verify.DefaultOptions().WithLeeway(verifyLeeway)
	if verifyIssuer != "" {
		opts = opts.WithIssuer(verifyIssuer)
	}
	if verifyAudience != "" {
		opts = opts.WithAudience(verifyAudience)
	}
	return opts
}

func runVerify(cmd *cobra.Command, args []string) error {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}

	raw, err := format.ReadInput(input)
	if err != nil {
		return err
	}

	if (verifyJWKSURI == "") == (verifyKeyFile == "") {
		return fmt.Errorf("exactly one of --jwks or --key is required")
	}

	printOpts := outputOptions()
	opts := verifyOptions()

	var claims *verify.VerifiedClaims
	if verifyKeyFile != "" {
		key, err := keys.LoadPublicKey(verifyKeyFile)
		if err != nil {
			return fmt.Errorf("loading key: %w", err)
		}
		claims, err = verify.New(nil).VerifyWithKey(raw, key, opts)
		if err != nil {
			output.PrintVerifyError(err, printOpts)
			return err
		}
	} else {
		cache := jwks.NewCache(jwks.NewHTTPFetcher(), jwks.WithTTL(verifyCacheTTL))
		claims, err = verify.New(cache).Verify(cmd.Context(), raw, verifyJWKSURI, opts)
		if err != nil {
			output.PrintVerifyError(err, printOpts)
			return err
		}
	}

	output.PrintVerified(claims, printOpts)
	return nil
}
