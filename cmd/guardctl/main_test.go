package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cfgYAML = `
trust:
  trusted_proxies: ["10.0.0.0/8"]
csrf:
  allowed_origins: ["https://app.example.com"]
signing:
  current: { id: k1, secret: "0123456789abcdef0123456789abcdef" }
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfgYAML), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestGenSecret(t *testing.T) {
	out, err := run(t, "", "gen-secret", "--bytes", "48")
	require.NoError(t, err)
	assert.Len(t, out, 64)
}

func TestGenSecret_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k2.secret")
	_, err := run(t, "", "gen-secret", "--write", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(string(b)), 44)

	_, err = run(t, "", "gen-secret", "--write", path)
	assert.Error(t, err)
	_, err = run(t, "", "gen-secret", "--write", path, "--force")
	assert.NoError(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	tok, err := run(t, "", "sign", "--claim", "sid=s-1", "--ttl", "1h")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok, "k1."))

	out, err := run(t, "", "--out", "json", "verify", tok)
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["valid"])
	assert.Equal(t, "k1", res["kid"])

	// un token de cookie no pasa como csrf
	out, err = run(t, "", "verify", "--format", "csrf", tok)
	assert.ErrorAs(t, err, new(errRejected))
	assert.Contains(t, out, "valid=false")
}

func TestSign_BadClaim(t *testing.T) {
	_, err := run(t, "", "sign", "--claim", "novalue")
	assert.Error(t, err)
	_, err = run(t, "", "sign", "--format", "jwt")
	assert.Error(t, err)
}

func TestResolveIP(t *testing.T) {
	out, err := run(t, "", "resolve-ip", "--peer", "10.1.2.3", "--xff", "203.0.113.9, 10.0.0.2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "203.0.113.9 "))

	out, err = run(t, "", "resolve-ip", "--peer", "198.51.100.1", "--xff", "203.0.113.9")
	require.NoError(t, err)
	assert.Contains(t, out, "198.51.100.1")
	assert.Contains(t, out, "reason=untrusted-source")
}

func TestCheckOrigin(t *testing.T) {
	out, err := run(t, "", "check-origin", "--origin", "https://app.example.com", "--referer", "https://app.example.com/x")
	require.NoError(t, err)
	assert.Contains(t, out, "accepted=true")

	out, err = run(t, "", "check-origin", "--origin", "https://evil.com", "--referer", "https://evil.com/")
	assert.ErrorAs(t, err, new(errRejected))
	assert.Contains(t, out, "reason=origin-mismatch")
}

func TestCheckRotation(t *testing.T) {
	out, err := run(t, `{"before":{"refresh_token":"r1","access_token":"x"},"after":{"refresh_token":"r2","access_token":"y"}}`, "check-rotation")
	require.NoError(t, err)
	assert.Contains(t, out, "satisfied=true")

	_, err = run(t, `{"before":{"refresh_token":"r1"},"after":{"refresh_token":"r1"}}`, "check-rotation")
	assert.ErrorAs(t, err, new(errRejected))

	_, err = run(t, `not json`, "check-rotation")
	assert.Error(t, err)
}

func TestOutFormatValidated(t *testing.T) {
	_, err := run(t, "", "--out", "xml", "gen-secret")
	assert.Error(t, err)
}
