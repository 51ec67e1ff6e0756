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

package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danvoulez/ubl-auth/internal/format"
)

// ErrMalformed is returned when a token cannot be split, decoded, or parsed
// into header and payload.
var ErrMalformed = errors.New("malformed token")

// Decode splits a compact token into its three segments, decodes them, and
// parses header and payload. It performs no verification of any kind: the
// result carries the exact signing input and signature bytes for the caller
// to verify before trusting a single claim.
func Decode(raw string) (*Token, error) {
	raw = strings.TrimSpace(raw)

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments separated by '.', got %d", ErrMalformed, len(parts))
	}

	headerBytes, err := format.DecodeBase64URL(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding header segment: %v", ErrMalformed, err)
	}
	payloadBytes, err := format.DecodeBase64URL(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding payload segment: %v", ErrMalformed, err)
	}
	sig, err := format.DecodeBase64URL(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding signature segment: %v", ErrMalformed, err)
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("%w: parsing header: %v", ErrMalformed, err)
	}
	if header.Alg == "" {
		return nil, fmt.Errorf("%w: header has no alg", ErrMalformed)
	}

	var claims Claims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, fmt.Errorf("%w: parsing payload: %v", ErrMalformed, err)
	}

	return &Token{
		Raw:          raw,
		Header:       header,
		Claims:       claims,
		SigningInput: []byte(parts[0] + "." + parts[1]),
		Signature:    sig,
	}, nil
}
