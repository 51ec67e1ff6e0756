package output

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/danvoulez/ubl-auth/internal/jwks"
	"github.com/danvoulez/ubl-auth/internal/token"
)

// captureOutput captures all terminal output (both fmt and color) during fn execution.
func captureOutput(fn func()) string {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	r, w, _ := os.Pipe()

	oldStdout := os.Stdout
	oldOutput := color.Output
	os.Stdout = w
	color.Output = w

	fn()

	w.Close()
	os.Stdout = oldStdout
	color.Output = oldOutput

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func int64p(v int64) *int64 { return &v }

func TestPrintToken(t *testing.T) {
	tok := &token.Token{
		Header: token.Header{Alg: "EdDSA", Kid: "k1"},
		Claims: token.Claims{
			Sub:   "did:key:z6MkTest",
			Iss:   "https://id.ubl.agency",
			Exp:   int64p(time.Now().Add(time.Hour).Unix()),
			Extra: map[string]any{"handle": "alice.example"},
		},
	}

	out := captureOutput(func() {
		PrintToken(tok, Options{})
	})

	if !strings.Contains(out, "alg: EdDSA") {
		t.Error("expected header alg in output")
	}
	if !strings.Contains(out, "sub: did:key:z6MkTest") {
		t.Error("expected sub claim in output")
	}
	if !strings.Contains(out, "handle: alice.example") {
		t.Error("expected extra claim in output")
	}
	if !strings.Contains(out, "Expires") {
		t.Error("expected validity section in output")
	}
	if strings.Contains(out, "expired") {
		t.Error("future-dated token must not be flagged expired")
	}
}

func TestPrintToken_ExpiredWarning(t *testing.T) {
	tok := &token.Token{
		Header: token.Header{Alg: "EdDSA"},
		Claims: token.Claims{
			Sub: "did:key:z1",
			Exp: int64p(time.Now().Add(-time.Hour).Unix()),
		},
	}

	out := captureOutput(func() {
		PrintToken(tok, Options{})
	})
	if !strings.Contains(out, "expired") {
		t.Error("expected expired warning")
	}
}

func TestPrintJWKS(t *testing.T) {
	doc := &jwks.Document{Keys: []jwks.JWK{
		{Kid: "k1", Kty: "OKP", Crv: "Ed25519", X: "A" + strings.Repeat("B", 42)},
		{Kid: "rsa-1", Kty: "RSA", Alg: "RS256"},
	}}

	out := captureOutput(func() {
		PrintJWKS(doc, Options{})
	})
	if !strings.Contains(out, "Keys (2)") {
		t.Error("expected key count header")
	}
	if !strings.Contains(out, "ignored (not Ed25519)") {
		t.Error("expected RSA key to be marked ignored")
	}
}

func TestPrintVerifyError_JSON(t *testing.T) {
	out := captureOutput(func() {
		PrintVerifyError(io.EOF, Options{JSON: true})
	})
	if !strings.Contains(out, `"valid": false`) {
		t.Errorf("expected valid:false in JSON output, got %q", out)
	}
}

func TestRelativeTime(t *testing.T) {
	orig := timeNow
	defer func() { timeNow = orig }()
	now := time.Unix(1700000000, 0)
	timeNow = func() time.Time { return now }

	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(30 * time.Second), "in 1 minute"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(48 * time.Hour), "in 2 days"},
	}
	for _, tt := range tests {
		if got := relativeTime(tt.t); got != tt.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"text", "text"},
		{float64(42), "42"},
		{float64(1.5), "1.5"},
		{true, "true"},
		{nil, "null"},
		{[]any{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
