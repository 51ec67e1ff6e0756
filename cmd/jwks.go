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

	"github.com/spf13/cobra"

	"github.com/danvoulez/ubl-auth/internal/format"
	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/output"
)

var jwksCmd = &cobra.Command{
	Use:   "jwks [input]",
	Short: "Fetch and inspect a JWKS document",
	Long:  "Fetches (or reads) a JWKS document and lists its keys, marking which ones are usable for Ed25519 verification. Input can be a URL, file path, raw JSON, or piped via stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJWKS,
}

func init() {
	rootCmd.AddCommand(jwksCmd)
}

func runJWKS(cmd *cobra.Command, args []string) error {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}

	raw, err := format.ReadInput(input)
	if err != nil {
		return err
	}

	doc, err := jwks.ParseDocument([]byte(raw))
	if err != nil {
		return fmt.Errorf("parsing JWKS: %w", err)
	}

	output.PrintJWKS(doc, outputOptions())
	return nil
}
