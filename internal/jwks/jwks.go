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

// Package jwks resolves Ed25519 signing keys from remote JWKS documents,
// with a TTL-bound in-memory cache.
package jwks

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danvoulez/ubl-auth/internal/format"
)

var (
	// ErrFetch is returned when the JWKS document cannot be retrieved and no
	// previously fetched document is available.
	ErrFetch = errors.New("jwks fetch failed")
	// ErrParse is returned when fetched bytes are not a valid JWKS document
	// or a matched key carries malformed key material.
	ErrParse = errors.New("jwks parse failed")
	// ErrUnknownKeyID is returned when no usable Ed25519 key matches the
	// requested key id.
	ErrUnknownKeyID = errors.New("no matching key for kid")
)

// JWK is a single key from a JWKS document. Only OKP/Ed25519 keys are usable
// for verification; other key types are carried but ignored during resolution.
type JWK struct {
	Kid string `json:"kid,omitempty"`
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
}

// IsEd25519 reports whether the key is an Ed25519 verification key.
func (k JWK) IsEd25519() bool {
	return k.Kty == "OKP" && k.Crv == "Ed25519"
}

// PublicKey decodes the key material into an Ed25519 public key.
func (k JWK) PublicKey() (ed25519.PublicKey, error) {
	if !k.IsEd25519() {
		return nil, fmt.Errorf("%w: key %q is %s/%s, not OKP/Ed25519", ErrParse, k.Kid, k.Kty, k.Crv)
	}
	raw, err := format.DecodeBase64URL(k.X)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding x of key %q: %v", ErrParse, k.Kid, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: key %q has %d-byte public key, want %d", ErrParse, k.Kid, len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// Document is a parsed JWKS document. Immutable once constructed.
type Document struct {
	Keys []JWK `json:"keys"`
}

// ParseDocument parses fetched JWKS bytes.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.Keys == nil {
		return nil, fmt.Errorf("%w: document has no keys field", ErrParse)
	}
	return &doc, nil
}

// Ed25519Keys returns the usable Ed25519 verification keys of the document.
func (d *Document) Ed25519Keys() []JWK {
	var out []JWK
	for _, k := range d.Keys {
		if k.IsEd25519() {
			out = append(out, k)
		}
	}
	return out
}

// Key selects the Ed25519 key matching kid and decodes its public key.
// With an empty kid, the document must contain exactly one usable Ed25519 key.
func (d *Document) Key(kid string) (ed25519.PublicKey, error) {
	candidates := d.Ed25519Keys()

	if kid == "" {
		if len(candidates) != 1 {
			return nil, fmt.Errorf("%w: token has no kid and document has %d Ed25519 keys", ErrUnknownKeyID, len(candidates))
		}
		return candidates[0].PublicKey()
	}

	for _, k := range candidates {
		if k.Kid == kid {
			return k.PublicKey()
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKeyID, kid)
}
