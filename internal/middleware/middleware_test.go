package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/coffee-shop-api/internal/auth"
	"github.com/iliyamo/coffee-shop-api/internal/config"
)

type fakeVerifier map[string]*auth.Payload

func (f fakeVerifier) Verify(token string) (*auth.Payload, error) {
	if p, ok := f[token]; ok {
		return p, nil
	}
	return nil, &auth.Error{Code: auth.CodeInvalidSignature, Description: "bad", Status: http.StatusUnauthorized}
}

func guarded(t *testing.T, perm string) *echo.Echo {
	t.Helper()
	e := echo.New()
	v := fakeVerifier{
		"reader": {Subject: "u1", Permissions: []string{"get:drinks-detail"}},
	}
	e.GET("/secret", func(c echo.Context) error {
		return c.String(http.StatusOK, PayloadFrom(c).Subject)
	}, RequireAuth(v), RequirePermission(perm))
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var ae *auth.Error
		if errors.As(err, &ae) {
			_ = c.String(ae.Status, ae.Code)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	return e
}

func do(e *echo.Echo, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_And_Permission(t *testing.T) {
	t.Parallel()
	e := guarded(t, "get:drinks-detail")

	rec := do(e, "Bearer reader")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Body.String())

	rec = do(e, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, auth.CodeHeaderMissing, rec.Body.String())

	rec = do(e, "Token reader")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, auth.CodeInvalidHeader, rec.Body.String())

	rec = do(e, "Bearer forged")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, auth.CodeInvalidSignature, rec.Body.String())
}

func TestRequirePermission_Forbidden(t *testing.T) {
	t.Parallel()
	e := guarded(t, "delete:drinks")

	rec := do(e, "Bearer reader")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, auth.CodeUnauthorized, rec.Body.String())
}

func TestPayloadFrom_Unauthenticated(t *testing.T) {
	t.Parallel()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Nil(t, PayloadFrom(c))
	require.Equal(t, "anon", subject(c))
}

func TestDisabledRedisFeaturesPassThrough(t *testing.T) {
	t.Parallel()
	log := zaptest.NewLogger(t)
	e := echo.New()
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, log)
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log), rc.Middleware())
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, rc.InvalidateOnWrite())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Cache"))
	require.NoError(t, rc.Invalidate(t.Context()))
}

func TestPayloadCodec(t *testing.T) {
	t.Parallel()
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	require.Equal(t, `{"success":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	require.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	require.False(t, ok)
}

func TestCaptureWriter_Limit(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, err := cw.Write([]byte("abcdef"))
	require.NoError(t, err)
	require.Equal(t, "abcd", cw.buf.String())
	require.Equal(t, "abcdef", rec.Body.String())
}

func TestParseBucketResult(t *testing.T) {
	t.Parallel()
	res, ok := parseBucketResult([]any{int64(0), int64(0), int64(1500)})
	require.True(t, ok)
	require.False(t, res.allowed)
	require.Equal(t, 1500*time.Millisecond, res.retry)

	res, ok = parseBucketResult([]any{int64(1), "7", int64(0)})
	require.True(t, ok)
	require.True(t, res.allowed)
	require.EqualValues(t, 7, res.remaining)

	_, ok = parseBucketResult("nope")
	require.False(t, ok)
}

func TestRateKey(t *testing.T) {
	t.Parallel()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/drinks", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/drinks")

	require.Equal(t, "rl:ip:10.0.0.1:route:GET /drinks", rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
	require.Equal(t, "rl:user:anon", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}

func TestRequestLogger_HandlesErrorsOnce(t *testing.T) {
	t.Parallel()
	e := echo.New()
	calls := 0
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		calls++
		_ = c.String(http.StatusTeapot, err.Error())
	}
	e.Use(RequestLogger(zaptest.NewLogger(t)), Recover(zaptest.NewLogger(t)))
	e.GET("/fail", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/panic", func(c echo.Context) error { panic("oh no") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 1, calls)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 2, calls)
}

func TestMetrics_WritesPrometheusText(t *testing.T) {
	t.Parallel()
	observe(http.MethodGet, "/drinks", http.StatusOK, time.Millisecond)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/metrics", nil), rec)
	require.NoError(t, Metrics(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/drinks",status="200"}`))
}
