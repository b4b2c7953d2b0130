package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	testReqID    = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testClientID = "loan-origination"
)

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb redis.UniversalClient, cfg Config, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(Idempotency(rdb, cfg, nil))
	e.POST("/encumbrances", handler)
	e.GET("/encumbrances", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func validHeaders() map[string]string {
	return map[string]string{
		"Ax-Request-Id": testReqID,
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
		"Ax-Client-Id":  testClientID,
	}
}

// countingHandler answers 201 and counts how often it actually ran.
func countingHandler(n *atomic.Int32) echo.HandlerFunc {
	return func(c echo.Context) error {
		n.Add(1)
		return c.JSON(http.StatusCreated, map[string]any{"ok": true, "call": n.Load()})
	}
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	e := setupEcho(rdb, Config{}, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/encumbrances", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, Config{}, countingHandler(&calls))

	cases := []struct {
		name   string
		mutate func(h map[string]string)
	}{
		{"missing Ax-Request-Id", func(h map[string]string) { delete(h, "Ax-Request-Id") }},
		{"invalid Ax-Request-Id", func(h map[string]string) { h["Ax-Request-Id"] = "NOT-VALID" }},
		{"invalid Ax-Request-At", func(h map[string]string) { h["Ax-Request-At"] = "not-a-time" }},
		{"skewed Ax-Request-At", func(h map[string]string) {
			h["Ax-Request-At"] = time.Now().UTC().Add(-11 * time.Minute).Format(time.RFC3339)
		}},
		{"missing Ax-Client-Id", func(h map[string]string) { delete(h, "Ax-Client-Id") }},
		{"invalid Ax-Client-Id", func(h map[string]string) { h["Ax-Client-Id"] = "has spaces in it" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := validHeaders()
			tc.mutate(h)
			rec := doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]int{"x": 1}), h)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}
		})
	}
	if calls.Load() != 0 {
		t.Fatalf("handler must not run on rejected requests, ran %d times", calls.Load())
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, Config{TTL: 2 * time.Minute}, countingHandler(&calls))

	h := validHeaders()
	rec1 := doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]any{"amount": "5000"}), h)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]any{"amount": "5000"}), h)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get("Ax-Idempotent-Replay") != "true" {
		t.Fatalf("replay header missing")
	}
	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times, want 1", calls.Load())
	}

	ttl := mr.TTL(buildKey(http.MethodPost, "/encumbrances", testClientID, testReqID))
	if ttl <= time.Minute || ttl > 2*time.Minute {
		t.Fatalf("final TTL = %v", ttl)
	}
}

func Test_DifferentClients_AreIndependent(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, Config{}, countingHandler(&calls))

	h := validHeaders()
	doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]int{"x": 1}), h)
	h["Ax-Client-Id"] = "servicing"
	doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]int{"x": 1}), h)
	if calls.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2", calls.Load())
	}
}

func Test_ServerError_ReleasesLock(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, Config{}, func(c echo.Context) error {
		if calls.Add(1) == 1 {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "store down"})
		}
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	})

	h := validHeaders()
	if rec := doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]int{"x": 1}), h); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("first => want 503, got %d", rec.Code)
	}
	if mr.Exists(buildKey(http.MethodPost, "/encumbrances", testClientID, testReqID)) {
		t.Fatalf("lock should be released after a 5xx")
	}
	if rec := doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]int{"x": 1}), h); rec.Code != http.StatusCreated {
		t.Fatalf("retry => want 201, got %d", rec.Code)
	}
}

func Test_ClientError_IsReplayed(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, Config{}, func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusConflict, map[string]string{"error": "terminal"})
	})

	h := validHeaders()
	doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]int{"x": 1}), h)
	rec := doReq(t, e, http.MethodPost, "/encumbrances", mkJSONBody(t, map[string]int{"x": 1}), h)
	if rec.Code != http.StatusConflict || calls.Load() != 1 {
		t.Fatalf("want replayed 409 after one call, got %d after %d calls", rec.Code, calls.Load())
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	var calls atomic.Int32
	e := setupEcho(rdb, Config{}, countingHandler(&calls))

	body := []byte(`{"x":1}`)
	key := buildKey(http.MethodPost, "/encumbrances", testClientID, testReqID)
	entry := idempEntry{
		InProgress:  true,
		BodySHA256:  bodyHash(body),
		RequestID:   testReqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry, time.Minute); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/encumbrances", bytes.NewReader(body), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if calls.Load() != 0 {
		t.Fatalf("handler must not run while another attempt is in progress")
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	e := setupEcho(rdb, Config{}, countingHandler(new(atomic.Int32)))

	key := buildKey(http.MethodPost, "/encumbrances", testClientID, testReqID)
	final := idempEntry{
		Code:        http.StatusCreated,
		Body:        []byte(`{"ok":true}`),
		BodySHA256:  bodyHash([]byte(`{"x":1}`)),
		RequestID:   testReqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := saveFinal(context.Background(), rdb, key, final, 5*time.Minute); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	rec := doReq(t, e, http.MethodPost, "/encumbrances", bytes.NewReader([]byte(`{"x":2}`)), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer rdb.Close()
	e := setupEcho(rdb, Config{StoreTimeout: 500 * time.Millisecond}, countingHandler(new(atomic.Int32)))

	rec := doReq(t, e, http.MethodPost, "/encumbrances", bytes.NewReader([]byte(`{}`)), validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}
