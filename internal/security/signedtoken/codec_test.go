package signedtoken

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func secret(b byte) []byte { return bytes.Repeat([]byte{b}, 32) }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRing() KeyRing {
	return KeyRing{Current: Key{ID: "k2", Secret: secret(2)}, Previous: &Key{ID: "k1", Secret: secret(1)}}
}

func mustCodec(t *testing.T, ring KeyRing, opts ...Option) *Codec {
	t.Helper()
	c, err := New(ring, append([]Option{WithClock(fixedClock(t0))}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestSignVerify_RoundTripCookie(t *testing.T) {
	c := mustCodec(t, newRing())
	payloads := []map[string]any{
		{},
		{"sub": "user-1"},
		{"sub": "user-1", "tenant": "acme", "admin": true, "scopes": []any{"a", "b"}},
		{"n": float64(1), "ratio": 2.5, "nested": map[string]any{"k": float64(3), "l": []any{float64(4)}}},
	}
	for _, p := range payloads {
		tok, err := c.Sign(FormatCookie, p)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(tok, "k2."))
		assert.Len(t, strings.Split(tok, "."), 3)

		res := c.Verify(FormatCookie, tok)
		require.True(t, res.Valid, "reason=%s", res.Reason)
		assert.Equal(t, "k2", res.KeyID)

		want := map[string]any{"iat": float64(t0.Unix()), "kid": "k2"}
		for k, v := range p {
			want[k] = v
		}
		assert.Equal(t, want, res.Payload)
		assert.Equal(t, t0, res.IssuedAt())
	}
}

func TestVerify_NumericClaimsAsFloat64(t *testing.T) {
	c := mustCodec(t, newRing())
	tok, err := c.Sign(FormatCookie, map[string]any{"n": 1, "s": "x"}, ExpiresIn(time.Hour))
	require.NoError(t, err)

	res := c.Verify(FormatCookie, tok)
	require.True(t, res.Valid)
	n, ok := res.Payload["n"].(float64)
	require.True(t, ok, "got %T", res.Payload["n"])
	assert.Equal(t, float64(1), n)

	// mismo resultado que un round trip por encoding/json
	var want map[string]any
	b, _ := json.Marshal(map[string]any{"n": 1, "s": "x", "iat": t0.Unix(), "exp": t0.Add(time.Hour).Unix(), "kid": "k2"})
	require.NoError(t, json.Unmarshal(b, &want))
	assert.Equal(t, want, res.Payload)

	exp, ok := res.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Hour), exp)
}

func TestSignVerify_RoundTripCSRF(t *testing.T) {
	c := mustCodec(t, newRing())
	tok, err := c.Sign(FormatCSRF, map[string]any{"nonce": "n-1"}, ExpiresIn(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok, DefaultVersion+":"))

	res := c.Verify(FormatCSRF, tok)
	require.True(t, res.Valid)
	assert.Equal(t, "n-1", res.String("nonce"))
	exp, ok := res.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, t0.Add(30*time.Minute), exp)

	// los formatos no son intercambiables
	assert.False(t, c.Verify(FormatCookie, tok).Valid)
}

func TestVerify_SignatureCoversExactBytes(t *testing.T) {
	c := mustCodec(t, newRing())
	tok, err := c.Sign(FormatCookie, map[string]any{"sub": "a"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	// mismo JSON semántico con espacios extra => firma distinta
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	pretty, err := json.MarshalIndent(m, "", " ")
	require.NoError(t, err)
	forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(pretty) + "." + parts[2]

	res := c.Verify(FormatCookie, forged)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonBadSignature, res.Reason)
}

func TestVerify_Reasons(t *testing.T) {
	c := mustCodec(t, newRing())
	good, err := c.Sign(FormatCookie, map[string]any{"sub": "a"})
	require.NoError(t, err)
	parts := strings.Split(good, ".")

	b64 := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	cases := []struct {
		name  string
		token string
		want  Reason
	}{
		{"empty", "", ReasonMalformed},
		{"two segments", parts[0] + "." + parts[1], ReasonMalformed},
		{"four segments", good + ".x", ReasonMalformed},
		{"bad base64", parts[0] + ".!!!." + parts[2], ReasonMalformed},
		{"not json", parts[0] + "." + b64("nope") + "." + parts[2], ReasonMalformed},
		{"json array", parts[0] + "." + b64("[1,2]") + "." + parts[2], ReasonMalformed},
		{"missing iat", "k2." + b64(`{"kid":"k2"}`) + "." + parts[2], ReasonMalformed},
		{"kid mismatch", "k1." + parts[1] + "." + parts[2], ReasonKeyIDMismatch},
		{"kid missing", "k2." + b64(`{"iat":1}`) + "." + parts[2], ReasonKeyIDMismatch},
		{"bad hex", parts[0] + "." + parts[1] + ".zz", ReasonMalformed},
		{"bad sig", parts[0] + "." + parts[1] + "." + hex.EncodeToString(make([]byte, 32)), ReasonBadSignature},
		{"too long", strings.Repeat("a", MaxTokenLen+1), ReasonMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := c.Verify(FormatCookie, tc.token)
			assert.False(t, res.Valid)
			assert.Equal(t, tc.want, res.Reason)
			assert.Nil(t, res.Payload)
		})
	}
}

func TestVerify_PaddedPayloadAccepted(t *testing.T) {
	c := mustCodec(t, newRing())
	tok, err := c.Sign(FormatCookie, map[string]any{"sub": "ab"})
	require.NoError(t, err)
	parts := strings.Split(tok, ".")
	body, _ := base64.RawURLEncoding.DecodeString(parts[1])
	padded := parts[0] + "." + base64.URLEncoding.EncodeToString(body) + "." + parts[2]
	assert.True(t, c.Verify(FormatCookie, padded).Valid)
}

func TestVerify_Expiry(t *testing.T) {
	now := t0
	c, err := New(newRing(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	tok, err := c.Sign(FormatCookie, map[string]any{"sub": "a"}, ExpiresIn(time.Minute))
	require.NoError(t, err)

	now = t0.Add(time.Minute)
	assert.True(t, c.Verify(FormatCookie, tok).Valid, "exactly at exp is still valid")

	now = t0.Add(time.Minute + time.Second)
	res := c.Verify(FormatCookie, tok)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonExpired, res.Reason)

	abs, err := c.Sign(FormatCookie, nil, ExpiresAt(t0.Add(-time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, ReasonExpired, c.Verify(FormatCookie, abs).Reason)
}

func TestVerify_KeyRotation(t *testing.T) {
	oldRing := KeyRing{Current: Key{ID: "k1", Secret: secret(1)}}
	oldCodec := mustCodec(t, oldRing)
	before, err := oldCodec.Sign(FormatCookie, map[string]any{"sub": "a"})
	require.NoError(t, err)

	rotated := oldRing.Rotate(Key{ID: "k2", Secret: secret(2)})
	require.NotNil(t, rotated.Previous)
	assert.Equal(t, "k1", rotated.Previous.ID)
	assert.Nil(t, oldRing.Previous, "Rotate must not mutate the receiver")

	newCodec := mustCodec(t, rotated)
	after, err := newCodec.Sign(FormatCookie, map[string]any{"sub": "a"})
	require.NoError(t, err)

	res := newCodec.Verify(FormatCookie, before)
	require.True(t, res.Valid)
	assert.Equal(t, "k1", res.KeyID)

	res = newCodec.Verify(FormatCookie, after)
	require.True(t, res.Valid)
	assert.Equal(t, "k2", res.KeyID)

	foreign := mustCodec(t, KeyRing{Current: Key{ID: "k2", Secret: secret(9)}})
	forged, err := foreign.Sign(FormatCookie, map[string]any{"sub": "a"})
	require.NoError(t, err)
	res = newCodec.Verify(FormatCookie, forged)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonBadSignature, res.Reason)

	// segunda rotación: k1 deja de ser aceptada
	twice := mustCodec(t, rotated.Rotate(Key{ID: "k3", Secret: secret(3)}))
	assert.Equal(t, ReasonBadSignature, twice.Verify(FormatCookie, before).Reason)
	assert.True(t, twice.Verify(FormatCookie, after).Valid)
}

func TestVerify_CSRFUnknownVersion(t *testing.T) {
	v2 := mustCodec(t, newRing(), WithVersion("v2"))
	tok, err := v2.Sign(FormatCSRF, nil)
	require.NoError(t, err)

	v1 := mustCodec(t, newRing())
	assert.Equal(t, ReasonMalformed, v1.Verify(FormatCSRF, tok).Reason)
}

func TestSign_InjectedClaimsWin(t *testing.T) {
	c := mustCodec(t, newRing())
	tok, err := c.Sign(FormatCookie, map[string]any{"kid": "k1", "iat": 1})
	require.NoError(t, err)
	res := c.Verify(FormatCookie, tok)
	require.True(t, res.Valid)
	assert.Equal(t, "k2", res.String("kid"))
	assert.Equal(t, t0, res.IssuedAt())
}

func TestContractFunctions(t *testing.T) {
	ring := newRing()
	tok, err := Sign(map[string]any{"sub": "x"}, ring)
	require.NoError(t, err)
	assert.True(t, Verify(tok, ring).Valid)

	res := Verify(tok, KeyRing{})
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonBadSignature, res.Reason)

	_, err = Sign(nil, KeyRing{})
	assert.ErrorIs(t, err, ErrNoCurrentKey)
}

func TestReason_Code(t *testing.T) {
	assert.Equal(t, "ok", ReasonNone.Code().String())
	assert.Equal(t, "malformed-input", ReasonMalformed.Code().String())
	assert.Equal(t, "expired", ReasonExpired.Code().String())
	assert.Equal(t, "bad-signature", ReasonBadSignature.Code().String())
	assert.Equal(t, "key-id-mismatch", ReasonKeyIDMismatch.Code().String())
}
