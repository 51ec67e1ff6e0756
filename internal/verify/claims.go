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
	"fmt"
	"strings"

	"github.com/danvoulez/ubl-auth/internal/token"
)

// AlgEdDSA is the only signing algorithm this verifier accepts.
const AlgEdDSA = "EdDSA"

// didPrefix is the shape every verified subject must have.
const didPrefix = "did:"

// validateClaims runs the policy checks on an already signature-verified
// claims set. All time comparisons use the single now value so the checks
// cannot drift against each other. First failure terminates validation.
func validateClaims(hdr token.Header, claims token.Claims, opts Options) error {
	if hdr.Alg != AlgEdDSA {
		return fmt.Errorf("%w: got %q", ErrUnsupportedAlgorithm, hdr.Alg)
	}

	now := opts.now().Unix()
	leeway := int64(opts.Leeway.Seconds())

	if claims.Exp != nil && now > *claims.Exp+leeway {
		return fmt.Errorf("%w: exp %d, now %d (leeway %ds)", ErrExpired, *claims.Exp, now, leeway)
	}
	if claims.Nbf != nil && now < *claims.Nbf-leeway {
		return fmt.Errorf("%w: nbf %d, now %d (leeway %ds)", ErrNotYetValid, *claims.Nbf, now, leeway)
	}
	if claims.Iat != nil && *claims.Iat-leeway > now {
		return fmt.Errorf("%w: iat %d, now %d (leeway %ds)", ErrIssuedInFuture, *claims.Iat, now, leeway)
	}

	if opts.Issuer != "" && claims.Iss != opts.Issuer {
		return fmt.Errorf("%w: got %q, want %q", ErrIssuerMismatch, claims.Iss, opts.Issuer)
	}
	if opts.Audience != "" && !claims.Aud.Contains(opts.Audience) {
		return fmt.Errorf("%w: %q not in %v", ErrAudienceMismatch, opts.Audience, claims.Aud)
	}

	if !strings.HasPrefix(claims.Sub, didPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidSubject, claims.Sub)
	}

	return nil
}
