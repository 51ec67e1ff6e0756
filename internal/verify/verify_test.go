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
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danvoulez/ubl-auth/internal/format"
	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/mock"
)

const testJWKSURI = "https://id.example/.well-known/jwks.json"

var testNow = time.Unix(1700000000, 0)

func fixedClock() time.Time { return testNow }

// env wires a verifier to a counting in-memory JWKS fetcher with one key.
type env struct {
	verifier *Verifier
	pub      ed25519.PublicKey
	priv     ed25519.PrivateKey
	fetches  atomic.Int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	pub, priv, err := mock.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	e := &env{pub: pub, priv: priv}
	doc := mock.Document([]ed25519.PublicKey{pub}, []string{"k1"})
	fetcher := jwks.FetcherFunc(func(ctx context.Context, uri string) ([]byte, error) {
		e.fetches.Add(1)
		return json.Marshal(doc)
	})
	e.verifier = New(jwks.NewCache(fetcher))
	return e
}

// issue signs a token with the env key under kid k1 unless cfg says otherwise.
func (e *env) issue(t *testing.T, cfg mock.TokenConfig) string {
	t.Helper()
	if cfg.Key == nil {
		cfg.Key = e.priv
	}
	if cfg.Kid == "" {
		cfg.Kid = "k1"
	}
	if cfg.Subject == "" {
		cfg.Subject = "did:key:z6MkTest"
	}
	// Pin time claims to the fixed test clock so the issuer's wall-clock
	// defaults never interfere.
	if cfg.Claims == nil {
		cfg.Claims = map[string]any{}
	}
	if _, ok := cfg.Claims["iat"]; !ok {
		cfg.Claims["iat"] = testNow.Unix()
	}
	if _, ok := cfg.Claims["exp"]; !ok {
		cfg.Claims["exp"] = testNow.Unix() + 3600
	}
	raw, err := mock.GenerateToken(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func baseOpts() Options {
	return DefaultOptions().WithClock(fixedClock)
}

// timeClaims pins exp/nbf/iat to offsets from the fixed test clock.
func timeClaims(expOff, nbfOff, iatOff int64) map[string]any {
	return map[string]any{
		"exp": testNow.Unix() + expOff,
		"nbf": testNow.Unix() + nbfOff,
		"iat": testNow.Unix() + iatOff,
	}
}

func TestVerify_Valid(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{
		Issuer:   "https://id.ubl.agency",
		Audience: "demo",
		Scope:    "read",
		Claims:   timeClaims(3600, -5, 0),
	})

	claims, err := e.verifier.Verify(context.Background(), raw, testJWKSURI,
		baseOpts().WithIssuer("https://id.ubl.agency").WithAudience("demo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Sub != "did:key:z6MkTest" {
		t.Errorf("Sub = %q, want did:key:z6MkTest", claims.Sub)
	}
	if claims.Scope != "read" {
		t.Errorf("Scope = %q, want read", claims.Scope)
	}
	if claims.Jti == "" {
		t.Error("expected a jti claim")
	}
}

func TestVerify_ExtraClaimsSurvive(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{
		Claims: map[string]any{
			"exp":    testNow.Unix() + 3600,
			"handle": "alice.example",
		},
	})

	claims, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Extra["handle"] != "alice.example" {
		t.Errorf("Extra[handle] = %v, want alice.example", claims.Extra["handle"])
	}
}

func TestVerify_BitFlippedSignature(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{Claims: timeClaims(3600, -5, 0)})

	parts := strings.Split(raw, ".")
	sig, err := format.DecodeBase64URL(parts[2])
	if err != nil {
		t.Fatal(err)
	}

	// Flip one bit at a time across the signature.
	for _, pos := range []int{0, 7, 31, 63} {
		flipped := make([]byte, len(sig))
		copy(flipped, sig)
		flipped[pos] ^= 0x01

		bad := parts[0] + "." + parts[1] + "." + format.EncodeBase64URL(flipped)
		_, err := e.verifier.Verify(context.Background(), bad, testJWKSURI, baseOpts())
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("bit flip at byte %d: error = %v, want ErrInvalidSignature", pos, err)
		}
	}
}

func TestVerify_TruncatedSignature(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{Claims: timeClaims(3600, -5, 0)})

	parts := strings.Split(raw, ".")
	sig, _ := format.DecodeBase64URL(parts[2])
	bad := parts[0] + "." + parts[1] + "." + format.EncodeBase64URL(sig[:32])

	_, err := e.verifier.Verify(context.Background(), bad, testJWKSURI, baseOpts())
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	e := newEnv(t)
	_, otherPriv, err := mock.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	// Signed by a key the JWKS does not hold, under the known kid.
	raw := e.issue(t, mock.TokenConfig{Key: otherPriv, Claims: timeClaims(3600, -5, 0)})

	_, err = e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_SignatureCheckedBeforeClaims(t *testing.T) {
	e := newEnv(t)
	_, otherPriv, err := mock.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	// Forged AND expired: the failure must be the signature, never a claims
	// verdict computed from an unverified payload.
	raw := e.issue(t, mock.TokenConfig{Key: otherPriv, Claims: timeClaims(-9999, -99999, -99999)})

	_, err = e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature (not a claims error)", err)
	}
	if errors.Is(err, ErrExpired) {
		t.Error("expired verdict leaked from an unverified payload")
	}
}

func TestVerify_UnsupportedAlgorithmNeverFetches(t *testing.T) {
	e := newEnv(t)
	for _, alg := range []string{"none", "HS256", "RS256", "ES256", "eddsa"} {
		raw := e.issue(t, mock.TokenConfig{Alg: alg, Claims: timeClaims(3600, -5, 0)})

		_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
		if !errors.Is(err, ErrUnsupportedAlgorithm) {
			t.Errorf("alg %q: error = %v, want ErrUnsupportedAlgorithm", alg, err)
		}
	}
	if got := e.fetches.Load(); got != 0 {
		t.Errorf("JWKS fetches = %d, want 0 for rejected algorithms", got)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name    string
		expOff  int64
		wantErr error
	}{
		{"301s past leeway", -301, ErrExpired},
		{"exactly at leeway", -300, nil},
		{"299s inside leeway", -299, nil},
		{"far future", 3600, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := e.issue(t, mock.TokenConfig{Claims: map[string]any{"exp": testNow.Unix() + tt.expOff}})
			_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_NotBeforeBoundary(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name    string
		nbfOff  int64
		wantErr error
	}{
		{"301s before window", 301, ErrNotYetValid},
		{"exactly at leeway", 300, nil},
		{"299s inside leeway", 299, nil},
		{"past nbf", -10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := e.issue(t, mock.TokenConfig{Claims: map[string]any{
				"exp": testNow.Unix() + 3600,
				"nbf": testNow.Unix() + tt.nbfOff,
			}})
			_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_IssuedInFuture(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name    string
		iatOff  int64
		wantErr error
	}{
		{"301s in the future", 301, ErrIssuedInFuture},
		{"299s in the future", 299, nil},
		{"now", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := e.issue(t, mock.TokenConfig{Claims: map[string]any{
				"exp": testNow.Unix() + 3600,
				"iat": testNow.Unix() + tt.iatOff,
			}})
			_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_CustomLeeway(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{Claims: map[string]any{"exp": testNow.Unix() - 20}})

	if _, err := e.verifier.Verify(context.Background(), raw, testJWKSURI,
		baseOpts().WithLeeway(10*time.Second)); !errors.Is(err, ErrExpired) {
		t.Errorf("leeway 10s: error = %v, want ErrExpired", err)
	}
	if _, err := e.verifier.Verify(context.Background(), raw, testJWKSURI,
		baseOpts().WithLeeway(30*time.Second)); err != nil {
		t.Errorf("leeway 30s: unexpected error: %v", err)
	}
}

func TestVerify_IssuerPolicy(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{
		Issuer: "https://other",
		Claims: timeClaims(3600, -5, 0),
	})

	// Opted in: exact match required.
	_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI,
		baseOpts().WithIssuer("https://id.example"))
	if !errors.Is(err, ErrIssuerMismatch) {
		t.Errorf("error = %v, want ErrIssuerMismatch", err)
	}

	// Not opted in: the same token passes.
	if _, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts()); err != nil {
		t.Errorf("issuer check must be opt-in, got %v", err)
	}
}

func TestVerify_AudiencePolicy(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name    string
		aud     any
		want    string
		wantErr error
	}{
		{"single match", "demo", "demo", nil},
		{"single mismatch", "demo", "other", ErrAudienceMismatch},
		{"set member", []string{"a", "demo", "b"}, "demo", nil},
		{"set non-member", []string{"a", "b"}, "demo", ErrAudienceMismatch},
		{"absent aud", nil, "demo", ErrAudienceMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := e.issue(t, mock.TokenConfig{Audience: tt.aud, Claims: timeClaims(3600, -5, 0)})
			_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI,
				baseOpts().WithAudience(tt.want))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_InvalidSubject(t *testing.T) {
	e := newEnv(t)
	for _, sub := range []string{"alice", "", "DID:key:z1", "urn:uuid:x"} {
		raw := e.issue(t, mock.TokenConfig{
			Subject: sub,
			Claims:  timeClaims(3600, -5, 0),
		})
		// issue() fills empty subjects; force the empty case explicitly
		if sub == "" {
			raw = e.issue(t, mock.TokenConfig{Subject: "placeholder", Claims: map[string]any{
				"exp": testNow.Unix() + 3600,
				"sub": "",
			}})
		}

		_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
		if !errors.Is(err, ErrInvalidSubject) {
			t.Errorf("sub %q: error = %v, want ErrInvalidSubject", sub, err)
		}
	}
}

func TestVerify_UnknownKid(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{Kid: "k2", Claims: timeClaims(3600, -5, 0)})

	_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
	if !errors.Is(err, ErrUnknownKeyID) {
		t.Errorf("error = %v, want ErrUnknownKeyID", err)
	}
}

func TestVerify_NoKidSingleKeyDocument(t *testing.T) {
	e := newEnv(t)
	raw, err := mock.GenerateToken(mock.TokenConfig{
		Subject: "did:web:example.com",
		Key:     e.priv,
		Claims:  timeClaims(3600, -5, 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	claims, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Sub != "did:web:example.com" {
		t.Errorf("Sub = %q, want did:web:example.com", claims.Sub)
	}
}

func TestVerify_Malformed(t *testing.T) {
	e := newEnv(t)
	for _, raw := range []string{"", "abc", "a.b", "a.b.c.d", "!!!.x.y"} {
		_, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts())
		if !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Verify(%q) error = %v, want ErrMalformedToken", raw, err)
		}
	}
	if got := e.fetches.Load(); got != 0 {
		t.Errorf("JWKS fetches = %d, want 0 for malformed tokens", got)
	}
}

func TestVerify_CachedAcrossCalls(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{Claims: timeClaims(3600, -5, 0)})

	for i := 0; i < 5; i++ {
		if _, err := e.verifier.Verify(context.Background(), raw, testJWKSURI, baseOpts()); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.fetches.Load(); got != 1 {
		t.Errorf("JWKS fetches = %d, want 1 across repeated verifications", got)
	}
}

func TestVerifyWithKey(t *testing.T) {
	e := newEnv(t)
	raw := e.issue(t, mock.TokenConfig{Claims: timeClaims(3600, -5, 0)})

	claims, err := e.verifier.VerifyWithKey(raw, e.pub, baseOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Sub != "did:key:z6MkTest" {
		t.Errorf("Sub = %q, want did:key:z6MkTest", claims.Sub)
	}
	if got := e.fetches.Load(); got != 0 {
		t.Errorf("JWKS fetches = %d, want 0 for local-key verification", got)
	}
}

func TestVerifyWithKey_WrongKey(t *testing.T) {
	e := newEnv(t)
	otherPub, _, err := mock.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	raw := e.issue(t, mock.TokenConfig{Claims: timeClaims(3600, -5, 0)})

	if _, err := e.verifier.VerifyWithKey(raw, otherPub, baseOpts()); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature", err)
	}
}
