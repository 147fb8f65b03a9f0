package helpers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

func testCodec(t *testing.T, now func() time.Time) *signedtoken.Codec {
	t.Helper()
	c, err := signedtoken.New(signedtoken.KeyRing{
		Current: signedtoken.Key{ID: "k1", Secret: bytes.Repeat([]byte{3}, 32)},
	}, signedtoken.WithClock(now))
	require.NoError(t, err)
	return c
}

func TestBuildCookie(t *testing.T) {
	ck := BuildCookie("hj_ctx", "v", "example.com", "strict", true, time.Hour)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, 3600, ck.MaxAge)
	assert.Equal(t, "example.com", ck.Domain)

	none := BuildCookie("x", "v", "", "None", false, 0)
	assert.True(t, none.Secure)
	assert.Equal(t, 0, none.MaxAge)

	del := BuildDeletionCookie("x", "", "lax", false)
	assert.Equal(t, -1, del.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite("weird"))
}

func TestSignedCookie_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	codec := testCodec(t, func() time.Time { return now })
	cfg := CookieConfig{Name: "hj_ctx", SameSite: "lax", TTL: time.Hour}

	rec := httptest.NewRecorder()
	tok, err := SetSignedCookie(rec, codec, cfg, map[string]any{"sid": "s-1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok, "k1."))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	res := ReadSignedCookie(req, codec, "hj_ctx")
	require.True(t, res.Valid)
	assert.Equal(t, "s-1", res.String("sid"))

	now = now.Add(2 * time.Hour)
	res = ReadSignedCookie(req, codec, "hj_ctx")
	assert.Equal(t, signedtoken.ReasonExpired, res.Reason)

	res = ReadSignedCookie(httptest.NewRequest(http.MethodGet, "/", nil), codec, "hj_ctx")
	assert.Equal(t, signedtoken.ReasonMalformed, res.Reason)
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		A string `json:"a"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"x","extra":1}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	assert.Nil(t, ReadJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "x", dst.A)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":`))
	req.Header.Set("Content-Type", "application/json")
	appErr := ReadJSON(httptest.NewRecorder(), req, &dst)
	require.NotNil(t, appErr)
	assert.Equal(t, "INVALID_JSON", appErr.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`a=b`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NotNil(t, ReadJSON(httptest.NewRecorder(), req, &dst))

	big := `{"a":"` + strings.Repeat("x", maxJSONBody) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	appErr = ReadJSON(httptest.NewRecorder(), req, &dst)
	require.NotNil(t, appErr)
	assert.Equal(t, "BODY_TOO_LARGE", appErr.Code)
}

func TestSetSignedCookie_TooLarge(t *testing.T) {
	codec := testCodec(t, time.Now)
	rec := httptest.NewRecorder()
	_, err := SetSignedCookie(rec, codec, CookieConfig{Name: "c"}, map[string]any{"blob": strings.Repeat("x", signedtoken.MaxTokenLen)})
	assert.ErrorIs(t, err, ErrCookieTooLarge)
	assert.Empty(t, rec.Result().Cookies())
}
