package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-guard/internal/rate"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/csrf"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/peer"
	"github.com/dropDatabas3/hellojohn-guard/internal/security/signedtoken"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func newResolver(t *testing.T, cidrs ...string) *peer.Resolver {
	t.Helper()
	ranges, err := peer.ParseRanges(cidrs...)
	require.NoError(t, err)
	res, err := peer.NewResolver(peer.Config{Ranges: ranges})
	require.NoError(t, err)
	return res
}

func newCSRF(t *testing.T, allowed ...string) *csrf.Validator {
	t.Helper()
	codec, err := signedtoken.New(signedtoken.KeyRing{
		Current: signedtoken.Key{ID: "k1", Secret: bytes.Repeat([]byte{7}, 32)},
	})
	require.NoError(t, err)
	v, err := csrf.NewValidator(csrf.Config{AllowedOrigins: allowed}, codec)
	require.NoError(t, err)
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code, body.Detail
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler, mw("A"), mw("B"), mw("C"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)

	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestWithClientIP(t *testing.T) {
	resolver := newResolver(t, "10.0.0.0/8")
	var got peer.Resolution
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ResolutionFrom(r.Context())
	}), WithClientIP(resolver))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.5", got.IP)
	assert.True(t, got.FromHeader)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.9:5555"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "198.51.100.9", got.IP)
	assert.False(t, got.PeerTrusted)

	assert.Equal(t, "", ClientIPFrom(context.Background()))
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), WithRequestID(), WithRecover())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/csrf", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotContains(t, rec.Body.String(), "boom")

	abort := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}), WithRecover())
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestChain_SkipsDisabled(t *testing.T) {
	assert.Nil(t, WithRateLimit(RateLimitConfig{}))

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler, mark("A"), WithRateLimit(RateLimitConfig{}), nil, mark("B"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A", "B"}, order)

	assert.Len(t, Stack(mark("A"), nil, WithRateLimit(RateLimitConfig{}), WithNoStore()), 2)
}

func TestWithSecurityHeaders_HSTSOnlyFromTrustedProxy(t *testing.T) {
	h := Chain(okHandler, WithClientIP(newResolver(t, "10.0.0.0/8")), WithSecurityHeaders(), WithNoStore())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.9:1"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req.RemoteAddr = "10.0.0.2:1"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestWithCORS(t *testing.T) {
	v := newCSRF(t, "https://app.example.com")
	h := Chain(okHandler, WithCORS(v.OriginAllowed))

	req := httptest.NewRequest(http.MethodOptions, "/v2/csrf", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type stubLimiter struct {
	res  rate.Result
	err  error
	keys []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (rate.Result, error) {
	s.keys = append(s.keys, key)
	return s.res, s.err
}

func TestWithRateLimit(t *testing.T) {
	resolver := newResolver(t, "10.0.0.0/8")

	t.Run("denied", func(t *testing.T) {
		lim := &stubLimiter{res: rate.Result{Allowed: false, RetryAfter: 1500 * time.Millisecond, WindowTTL: time.Second}}
		h := Chain(okHandler, WithClientIP(resolver), WithRateLimit(RateLimitConfig{Limiter: lim}))

		req := httptest.NewRequest(http.MethodPost, "/v2/session/cookie", nil)
		req.RemoteAddr = "10.0.0.1:1"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("Retry-After"))
		assert.Equal(t, []string{"203.0.113.7|/v2/session/cookie"}, lim.keys)
	})

	t.Run("spoofed header from untrusted peer is not the key", func(t *testing.T) {
		lim := &stubLimiter{res: rate.Result{Allowed: true, Remaining: 3}}
		h := Chain(okHandler, WithClientIP(resolver), WithRateLimit(RateLimitConfig{Limiter: lim}))

		req := httptest.NewRequest(http.MethodGet, "/v2/client-ip", nil)
		req.RemoteAddr = "198.51.100.1:1"
		req.Header.Set("X-Forwarded-For", "1.2.3.4")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"198.51.100.1|/v2/client-ip"}, lim.keys)
	})

	t.Run("backend error fails open", func(t *testing.T) {
		lim := &stubLimiter{err: errors.New("redis down")}
		h := Chain(okHandler, WithRateLimit(RateLimitConfig{Limiter: lim}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("whitelist", func(t *testing.T) {
		lim := &stubLimiter{res: rate.Result{Allowed: false}}
		h := Chain(okHandler, WithRateLimit(RateLimitConfig{Limiter: lim, Whitelist: []string{"/healthz"}}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, lim.keys)
	})
}

func TestWithCSRF(t *testing.T) {
	v := newCSRF(t, "https://app.example.com")
	tok, _, err := v.IssueToken()
	require.NoError(t, err)
	h := Chain(okHandler, WithCSRF(CSRFConfig{Validator: v}))

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// safe method
	assert.Equal(t, http.StatusOK, do(httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	// headers ok
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Referer", "https://app.example.com/login")
	assert.Equal(t, http.StatusOK, do(req).Code)

	// foreign origin
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "https://evil.com")
	req.Header.Set("Referer", "https://evil.com/x")
	rec := do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	code, detail := errorCode(t, rec)
	assert.Equal(t, "CSRF_REJECTED", code)
	assert.Equal(t, "origin-mismatch", detail)

	// sin headers, token en header
	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("X-CSRF-Token", tok)
	assert.Equal(t, http.StatusOK, do(req).Code)

	// sin headers, token en form
	form := url.Values{"csrf_token": {tok}}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusOK, do(req).Code)

	// sin headers ni token
	rec = do(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, detail = errorCode(t, rec)
	assert.Equal(t, "malformed-input", detail)

	// bearer salta el check
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("Origin", "https://evil.com")
	assert.Equal(t, http.StatusOK, do(req).Code)

	// token adulterado: sigue siendo un rechazo CSRF, no un 401
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-CSRF-Token", tok[:len(tok)-1]+"0")
	if strings.HasSuffix(tok, "0") {
		req.Header.Set("X-CSRF-Token", tok[:len(tok)-1]+"1")
	}
	rec = do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	code, detail = errorCode(t, rec)
	assert.Equal(t, "CSRF_REJECTED", code)
	assert.Equal(t, "bad-signature", detail)

	// sin validator => rechaza
	rec = httptest.NewRecorder()
	Chain(okHandler, WithCSRF(CSRFConfig{})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWithLoggingAndMetrics_Status(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), WithRequestID(), WithMetrics(), WithLogging())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
