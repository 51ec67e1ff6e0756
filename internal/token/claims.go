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
	"fmt"
)

// Audience is the aud claim: a single string or an array of strings on the wire,
// always a set of strings in memory.
type Audience []string

// UnmarshalJSON accepts both the single-string and array forms of aud.
func (a *Audience) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*a = Audience{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("aud must be a string or array of strings")
	}
	*a = Audience(many)
	return nil
}

// MarshalJSON preserves the single-string wire form for one-element audiences.
func (a Audience) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Contains reports whether the audience set includes aud.
func (a Audience) Contains(aud string) bool {
	for _, v := range a {
		if v == aud {
			return true
		}
	}
	return false
}

// Claims is the decoded token payload. Recognized registered claims get typed
// fields; every other payload key passes through untouched in Extra.
type Claims struct {
	Sub   string
	Iss   string
	Aud   Audience
	Exp   *int64
	Nbf   *int64
	Iat   *int64
	Jti   string
	Scope string
	Extra map[string]any
}

// recognized payload keys, lifted into typed fields during unmarshaling
var registeredClaims = map[string]bool{
	"sub": true, "iss": true, "aud": true,
	"exp": true, "nbf": true, "iat": true,
	"jti": true, "scope": true,
}

// UnmarshalJSON decodes the payload object, splitting recognized claims from
// pass-through extras.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	if raw, ok := m["sub"]; ok {
		if err := json.Unmarshal(raw, &c.Sub); err != nil {
			return fmt.Errorf("sub: %w", err)
		}
	}
	if raw, ok := m["iss"]; ok {
		if err := json.Unmarshal(raw, &c.Iss); err != nil {
			return fmt.Errorf("iss: %w", err)
		}
	}
	if raw, ok := m["aud"]; ok {
		if err := json.Unmarshal(raw, &c.Aud); err != nil {
			return fmt.Errorf("aud: %w", err)
		}
	}
	if raw, ok := m["jti"]; ok {
		if err := json.Unmarshal(raw, &c.Jti); err != nil {
			return fmt.Errorf("jti: %w", err)
		}
	}
	if raw, ok := m["scope"]; ok {
		if err := json.Unmarshal(raw, &c.Scope); err != nil {
			return fmt.Errorf("scope: %w", err)
		}
	}
	for _, ts := range []struct {
		key  string
		dest **int64
	}{
		{"exp", &c.Exp},
		{"nbf", &c.Nbf},
		{"iat", &c.Iat},
	} {
		raw, ok := m[ts.key]
		if !ok {
			continue
		}
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s: %w", ts.key, err)
		}
		*ts.dest = &v
	}

	for key, raw := range m {
		if registeredClaims[key] {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[key] = v
	}

	return nil
}

// MarshalJSON re-merges typed claims and extras into a single payload object.
func (c Claims) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Extra)+8)
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.Sub != "" {
		m["sub"] = c.Sub
	}
	if c.Iss != "" {
		m["iss"] = c.Iss
	}
	if len(c.Aud) > 0 {
		m["aud"] = c.Aud
	}
	if c.Exp != nil {
		m["exp"] = *c.Exp
	}
	if c.Nbf != nil {
		m["nbf"] = *c.Nbf
	}
	if c.Iat != nil {
		m["iat"] = *c.Iat
	}
	if c.Jti != "" {
		m["jti"] = c.Jti
	}
	if c.Scope != "" {
		m["scope"] = c.Scope
	}
	return json.Marshal(m)
}
