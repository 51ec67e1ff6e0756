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

// Package mock generates ephemeral Ed25519 keys, signed test tokens, and
// JWKS documents for development and testing.
package mock

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/danvoulez/ubl-auth/internal/format"
	"github.com/danvoulez/ubl-auth/internal/jwks"
)

// GenerateKey creates an ephemeral Ed25519 keypair.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// PublicKeyJWK returns the JWK form of an Ed25519 public key.
func PublicKeyJWK(pub ed25519.PublicKey, kid string) jwks.JWK {
	return jwks.JWK{
		Kid: kid,
		Kty: "OKP",
		Crv: "Ed25519",
		X:   format.EncodeBase64URL(pub),
	}
}

// PublicKeyJWKJSON returns the indented JSON JWK representation of an Ed25519
// public key.
func PublicKeyJWKJSON(pub ed25519.PublicKey, kid string) string {
	b, err := json.MarshalIndent(PublicKeyJWK(pub, kid), "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err)
	}
	return string(b)
}

// PrivateKeyJWK returns the indented JSON JWK representation of an Ed25519
// private key (includes d).
func PrivateKeyJWK(priv ed25519.PrivateKey, kid string) string {
	pub := priv.Public().(ed25519.PublicKey)
	jwk := map[string]string{
		"kid": kid,
		"kty": "OKP",
		"crv": "Ed25519",
		"x":   format.EncodeBase64URL(pub),
		"d":   format.EncodeBase64URL(priv.Seed()),
	}
	b, err := json.MarshalIndent(jwk, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err)
	}
	return string(b)
}

// Document builds a JWKS document from Ed25519 public keys, keyed kid-1,
// kid-2, ... unless kids are supplied.
func Document(pubs []ed25519.PublicKey, kids []string) *jwks.Document {
	doc := &jwks.Document{Keys: []jwks.JWK{}}
	for i, pub := range pubs {
		kid := fmt.Sprintf("kid-%d", i+1)
		if i < len(kids) && kids[i] != "" {
			kid = kids[i]
		}
		doc.Keys = append(doc.Keys, PublicKeyJWK(pub, kid))
	}
	return doc
}
