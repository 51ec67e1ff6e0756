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

package verify

import (
	"errors"

	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/token"
)

// Verification failures are distinct, non-overlapping terminal outcomes.
// Every error returned by Verify matches exactly one of these via errors.Is,
// so callers can treat e.g. ErrExpired (routine) differently from
// ErrInvalidSignature (potential attack).
var (
	ErrUnsupportedAlgorithm = errors.New("alg not allowed (expected EdDSA)")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrExpired              = errors.New("token expired")
	ErrNotYetValid          = errors.New("token not yet valid")
	ErrIssuedInFuture       = errors.New("token issued in the future")
	ErrIssuerMismatch       = errors.New("issuer mismatch")
	ErrAudienceMismatch     = errors.New("audience mismatch")
	ErrInvalidSubject       = errors.New("subject is not a DID")

	// Re-exported from the decoder and key resolver so the whole taxonomy is
	// reachable from one package.
	ErrMalformedToken = token.ErrMalformed
	ErrUnknownKeyID   = jwks.ErrUnknownKeyID
	ErrJWKSFetch      = jwks.ErrFetch
	ErrJWKSParse      = jwks.ErrParse
)
