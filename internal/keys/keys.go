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

// Package keys loads Ed25519 public keys supplied out of band, for
// verification without a JWKS endpoint.
package keys

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/danvoulez/ubl-auth/internal/format"
	"github.com/danvoulez/ubl-auth/internal/jwks"
)

// LoadPublicKey loads an Ed25519 public key from a PEM or JWK JSON file.
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return ParsePublicKey(data)
}

// ParsePublicKey parses an Ed25519 public key from PEM or JWK bytes.
func ParsePublicKey(data []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block != nil {
		return parsePEMBlock(block)
	}
	return parseJWK(data)
}

func parsePEMBlock(block *pem.Block) (ed25519.PublicKey, error) {
	var pub any
	var err error

	switch block.Type {
	case "CERTIFICATE":
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, certErr
		}
		pub = cert.PublicKey
	default:
		pub, err = x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("unsupported PEM block type %q: %w", block.Type, err)
		}
	}

	edKey, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is %T, want Ed25519", pub)
	}
	return edKey, nil
}

func parseJWK(data []byte) (ed25519.PublicKey, error) {
	var jwk jwks.JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("not a valid PEM or JWK: %w", err)
	}
	return jwk.PublicKey()
}

// LoadPrivateKey loads an Ed25519 private key from a PEM (PKCS#8) or
// OKP JWK file containing a "d" parameter.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey parses an Ed25519 private key from PEM or JWK bytes.
func ParsePrivateKey(data []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block != nil {
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("unsupported PEM block type %q: %w", block.Type, err)
		}
		edKey, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is %T, want Ed25519", priv)
		}
		return edKey, nil
	}
	return parsePrivateJWK(data)
}

func parsePrivateJWK(data []byte) (ed25519.PrivateKey, error) {
	var jwk struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
		D   string `json:"d"`
	}
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("not a valid PEM or JWK: %w", err)
	}
	if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
		return nil, fmt.Errorf("key is %s/%s, want OKP/Ed25519", jwk.Kty, jwk.Crv)
	}
	if jwk.D == "" {
		return nil, fmt.Errorf("JWK has no private component")
	}
	seed, err := format.DecodeBase64URL(jwk.D)
	if err != nil {
		return nil, fmt.Errorf("decoding d: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("d is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
