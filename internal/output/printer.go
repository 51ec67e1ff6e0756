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

package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/token"
)

// Options controls terminal output.
type Options struct {
	JSON    bool
	NoColor bool
	Verbose bool
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	valueColor   = color.New(color.FgWhite)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)

	// timeNow is the function used to get the current time. Override in tests.
	timeNow = time.Now
)

// relativeTime returns a human-readable relative duration string for t.
// Future times return "in X units", past times return "X units ago".
func relativeTime(t time.Time) string {
	now := timeNow()
	d := t.Sub(now)
	if d < 0 {
		d = -d
		return formatDuration(d) + " ago"
	}
	return "in " + formatDuration(d)
}

func formatDuration(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= 60*day:
		months := int(d / (30 * day))
		if months == 1 {
			return "1 month"
		}
		return fmt.Sprintf("%d months", months)
	case d >= 2*day:
		days := int(d / day)
		return fmt.Sprintf("%d days", days)
	case d >= day:
		return "1 day"
	case d >= 2*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d >= time.Hour:
		return "1 hour"
	case d >= 2*time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	default:
		return "1 minute"
	}
}

// BuildTokenJSON returns the JSON-serializable map for a decoded token.
func BuildTokenJSON(tok *token.Token) map[string]any {
	return map[string]any{
		"format":  "jwt",
		"header":  headerMap(tok.Header),
		"payload": payloadMap(tok.Claims),
	}
}

// PrintToken prints a decoded (unverified) token to the terminal.
func PrintToken(tok *token.Token, opts Options) {
	if opts.JSON {
		PrintJSON(BuildTokenJSON(tok))
		return
	}

	headerColor.Println("Identity Token")
	headerColor.Println(strings.Repeat("─", 50))

	printSection("Header")
	printMap(headerMap(tok.Header), 1)

	printSection("Payload")
	printMap(payloadMap(tok.Claims), 1)

	printTimeClaims(tok.Claims)

	fmt.Println()
}

// printTimeClaims renders exp/nbf/iat with relative times.
func printTimeClaims(claims token.Claims) {
	if claims.Exp == nil && claims.Nbf == nil && claims.Iat == nil {
		return
	}
	printSection("Validity")
	if claims.Iat != nil {
		t := time.Unix(*claims.Iat, 0)
		printKV("Issued", fmt.Sprintf("%s (%s)", t.Format(time.RFC3339), relativeTime(t)), 1)
	}
	if claims.Nbf != nil {
		t := time.Unix(*claims.Nbf, 0)
		printKV("Not Before", fmt.Sprintf("%s (%s)", t.Format(time.RFC3339), relativeTime(t)), 1)
	}
	if claims.Exp != nil {
		t := time.Unix(*claims.Exp, 0)
		printKV("Expires", fmt.Sprintf("%s (%s)", t.Format(time.RFC3339), relativeTime(t)), 1)
		if timeNow().After(t) {
			warnColor.Println("  ⚠ Token is expired")
		}
	}
}

// PrintVerified prints a successful verification result.
func PrintVerified(claims *token.Claims, opts Options) {
	if opts.JSON {
		PrintJSON(map[string]any{
			"valid":  true,
			"claims": payloadMap(*claims),
		})
		return
	}

	successColor.Println("✓ Token verified")

	printSection("Claims")
	printMap(payloadMap(*claims), 1)
	fmt.Println()
}

// PrintVerifyError prints a failed verification result.
func PrintVerifyError(err error, opts Options) {
	if opts.JSON {
		PrintJSON(map[string]any{
			"valid": false,
			"error": err.Error(),
		})
		return
	}
	errorColor.Printf("✗ %v\n", err)
}

// BuildJWKSJSON returns the JSON-serializable map for a JWKS document.
func BuildJWKSJSON(doc *jwks.Document) map[string]any {
	usable := 0
	keys := make([]map[string]any, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		entry := map[string]any{
			"kid": k.Kid,
			"kty": k.Kty,
		}
		if k.Crv != "" {
			entry["crv"] = k.Crv
		}
		if k.Use != "" {
			entry["use"] = k.Use
		}
		entry["ed25519"] = k.IsEd25519()
		if k.IsEd25519() {
			usable++
		}
		keys = append(keys, entry)
	}
	return map[string]any{
		"format":      "jwks",
		"keys":        keys,
		"ed25519Keys": usable,
	}
}

// PrintJWKS prints a JWKS document summary to the terminal.
func PrintJWKS(doc *jwks.Document, opts Options) {
	if opts.JSON {
		PrintJSON(BuildJWKSJSON(doc))
		return
	}

	headerColor.Println("JWKS Document")
	headerColor.Println(strings.Repeat("─", 50))

	printSection(fmt.Sprintf("Keys (%d)", len(doc.Keys)))
	for i, k := range doc.Keys {
		dimColor.Printf("  [%d] ", i+1)
		kid := k.Kid
		if kid == "" {
			kid = "(no kid)"
		}
		labelColor.Printf("%s ", kid)
		if k.IsEd25519() {
			if _, err := k.PublicKey(); err != nil {
				errorColor.Printf("%s/%s — malformed key material\n", k.Kty, k.Crv)
				continue
			}
			successColor.Printf("%s/%s — usable for verification\n", k.Kty, k.Crv)
		} else {
			crv := k.Crv
			if crv == "" {
				crv = k.Alg
			}
			dimColor.Printf("%s/%s — ignored (not Ed25519)\n", k.Kty, crv)
		}
	}
	fmt.Println()
}

func headerMap(h token.Header) map[string]any {
	m := map[string]any{"alg": h.Alg}
	if h.Kid != "" {
		m["kid"] = h.Kid
	}
	if h.Typ != "" {
		m["typ"] = h.Typ
	}
	return m
}

// payloadMap round-trips claims through JSON to get a displayable map with
// extras merged back in.
func payloadMap(claims token.Claims) map[string]any {
	b, err := json.Marshal(claims)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{"error": err.Error()}
	}
	return m
}

func printSection(title string) {
	fmt.Println()
	headerColor.Printf("┌ %s\n", title)
}

func printKV(key, value string, indent int) {
	prefix := strings.Repeat("  ", indent)
	labelColor.Printf("%s%s: ", prefix, key)
	valueColor.Println(value)
}

func printMap(m map[string]any, indent int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	prefix := strings.Repeat("  ", indent)
	for _, k := range keys {
		labelColor.Printf("%s%s: ", prefix, k)
		fmt.Println(formatValue(m[k]))
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case nil:
		return "null"
	case []byte:
		return fmt.Sprintf("(%d bytes)", len(val))
	case map[string]any:
		b, _ := json.MarshalIndent(val, "    ", "  ")
		return string(b)
	case []any:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
