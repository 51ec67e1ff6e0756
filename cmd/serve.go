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
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/danvoulez/ubl-auth/internal/keys"
	"github.com/danvoulez/ubl-auth/internal/mock"
)

var (
	servePort    int
	serveKid     string
	serveKeyPath string
)

var serveJWKSCmd = &cobra.Command{
	Use:   "serve-jwks",
	Short: "Serve a JWKS document over HTTP for local testing",
	Long:  "Starts a local HTTP server exposing a JWKS document at /.well-known/jwks.json (and /). By default an ephemeral Ed25519 key is generated and its private JWK printed, so issued tokens can be verified against the served document.",
	RunE:  runServeJWKS,
}

func init() {
	serveJWKSCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveJWKSCmd.Flags().StringVar(&serveKid, "kid", "kid-1", "Key ID for the served JWK")
	serveJWKSCmd.Flags().StringVar(&serveKeyPath, "key", "", "Private key file (PEM or JWK); ephemeral Ed25519 if omitted")
	rootCmd.AddCommand(serveJWKSCmd)
}

func runServeJWKS(cmd *cobra.Command, args []string) error {
	var pub ed25519.PublicKey
	if serveKeyPath != "" {
		key, err := keys.LoadPrivateKey(serveKeyPath)
		if err != nil {
			return fmt.Errorf("loading key: %w", err)
		}
		pub = key.Public().(ed25519.PublicKey)
	} else {
		generatedPub, key, err := mock.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		pub = generatedPub
		fmt.Println("private JWK: " + mock.PrivateKeyJWK(key, serveKid))
	}

	doc := mock.Document([]ed25519.PublicKey{pub}, []string{serveKid})
	handler := mock.JWKSHandler(doc)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/.well-known/jwks.json", handler)

	fmt.Printf("Serving JWKS at http://localhost:%d/.well-known/jwks.json\n", servePort)
	return http.ListenAndServe(fmt.Sprintf(":%d", servePort), mux)
}
