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

package format

import (
	"encoding/json"
	"strings"
)

type InputFormat string

const (
	FormatJWT     InputFormat = "jwt"
	FormatJWKS    InputFormat = "jwks"
	FormatUnknown InputFormat = "unknown"
)

// Detect auto-detects the format from raw input.
//
// Detection order:
//  1. JSON object with a "keys" array → JWKS document
//  2. Three dot-separated non-empty segments → compact JWT
func Detect(input string) InputFormat {
	input = strings.TrimSpace(input)
	if input == "" {
		return FormatUnknown
	}

	if strings.HasPrefix(input, "{") {
		var m map[string]json.RawMessage
		if err := json.Unmarshal([]byte(input), &m); err != nil {
			return FormatUnknown
		}
		if _, ok := m["keys"]; ok {
			return FormatJWKS
		}
		return FormatUnknown
	}

	parts := strings.Split(input, ".")
	if len(parts) == 3 && len(parts[0]) > 0 && len(parts[1]) > 0 {
		return FormatJWT
	}

	return FormatUnknown
}
