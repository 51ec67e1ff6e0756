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

// Header is the decoded JOSE header of a compact token.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid,omitempty"`
	Typ string `json:"typ,omitempty"`
}

// Token represents a decoded (but not yet verified) compact token.
type Token struct {
	Raw    string
	Header Header
	Claims Claims
	// SigningInput is the byte sequence the signature covers:
	// base64url(header) || "." || base64url(payload), exactly as transmitted.
	SigningInput []byte
	Signature    []byte
}
