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

// Package verify checks EdDSA-signed identity tokens for DID subjects.
//
// The check order is load-bearing: the algorithm is pinned before any key is
// resolved (an unsupported alg never triggers a network fetch), and the
// signature is verified before any claim content is trusted.
package verify

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/token"
)

// VerifiedClaims is a claims set that passed every check: signature, time
// window, issuer/audience policy, and DID subject shape. Verification is
// all-or-nothing; no partially checked claims value is ever exposed.
type VerifiedClaims = token.Claims

// Verifier sequences decoding, key resolution, signature verification, and
// claims validation into the single verification contract.
type Verifier struct {
	cache *jwks.Cache
}

// New creates a Verifier resolving keys through cache.
func New(cache *jwks.Cache) *Verifier {
	return &Verifier{cache: cache}
}

// Verify checks token raw against the JWKS at jwksURI under the policy in
// opts. It returns the claims only if every check passes.
func (v *Verifier) Verify(ctx context.Context, raw, jwksURI string, opts Options) (*VerifiedClaims, error) {
	tok, err := token.Decode(raw)
	if err != nil {
		return nil, err
	}

	// Pin the algorithm before touching the key resolver, so a confused or
	// hostile alg value cannot cause a network fetch.
	if tok.Header.Alg != AlgEdDSA {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedAlgorithm, tok.Header.Alg)
	}

	key, err := v.cache.Resolve(ctx, jwksURI, tok.Header.Kid)
	if err != nil {
		return nil, err
	}

	return verifyDecoded(tok, key, opts)
}

// VerifyWithKey checks token raw against a caller-supplied public key,
// bypassing JWKS resolution. Used when the key is known out of band.
func (v *Verifier) VerifyWithKey(raw string, key ed25519.PublicKey, opts Options) (*VerifiedClaims, error) {
	tok, err := token.Decode(raw)
	if err != nil {
		return nil, err
	}
	if tok.Header.Alg != AlgEdDSA {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedAlgorithm, tok.Header.Alg)
	}
	return verifyDecoded(tok, key, opts)
}

func verifyDecoded(tok *token.Token, key ed25519.PublicKey, opts Options) (*VerifiedClaims, error) {
	if err := verifySignature(tok.SigningInput, tok.Signature, key); err != nil {
		return nil, err
	}
	// Only now is the payload trustworthy enough to evaluate.
	if err := validateClaims(tok.Header, tok.Claims, opts); err != nil {
		return nil, err
	}
	claims := tok.Claims
	return &claims, nil
}

// verifySignature performs Ed25519 verification of sig over signingInput.
func verifySignature(signingInput, sig []byte, key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key is %d bytes, want %d", ErrInvalidSignature, len(key), ed25519.PublicKeySize)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes, want %d", ErrInvalidSignature, len(sig), ed25519.SignatureSize)
	}
	if !ed25519.Verify(key, signingInput, sig) {
		return ErrInvalidSignature
	}
	return nil
}
