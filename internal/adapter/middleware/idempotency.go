package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idemp:collateral:"

// Config tunes the idempotency middleware. Zero fields take the defaults.
type Config struct {
	// TTL keeps a finished response available for replay.
	TTL time.Duration
	// LockTTL bounds how long an in-progress marker survives a crashed handler.
	LockTTL time.Duration
	// MaxSkew is the allowed distance between Ax-Request-At and server time.
	MaxSkew time.Duration
	// StoreTimeout bounds each Redis round trip.
	StoreTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 60 * time.Second
	}
	if c.MaxSkew <= 0 {
		c.MaxSkew = 10 * time.Minute
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 2 * time.Second
	}
	return c
}

var idempotencyOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "collateral",
	Subsystem: "idempotency",
	Name:      "requests_total",
	Help:      "Mutating requests seen by the idempotency middleware, by outcome.",
}, []string{"outcome"})

// ---- Data types ----
type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

func reject(c echo.Context, code int, msg string) error {
	idempotencyOutcomes.WithLabelValues("rejected").Inc()
	return c.JSON(code, map[string]string{"error": msg})
}

// Idempotency replays the stored response of a mutating request retried
// with the same Ax-Client-Id and Ax-Request-Id. The key is method + route +
// client + request id. 5xx responses are not stored, so the caller may
// retry them.
func Idempotency(rdb redis.UniversalClient, cfg Config, log *slog.Logger) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			method := req.Method

			switch method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get("Ax-Request-Id"))
			if reqID == "" {
				return reject(c, http.StatusBadRequest, "missing Ax-Request-Id")
			}
			if !validReqID(reqID) {
				return reject(c, http.StatusBadRequest, "invalid Ax-Request-Id format")
			}

			reqAt, err := parseRequestAt(req.Header.Get("Ax-Request-At"))
			if err != nil {
				return reject(c, http.StatusBadRequest, err.Error())
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-cfg.MaxSkew)) || reqAt.After(now.Add(cfg.MaxSkew)) {
				return reject(c, http.StatusBadRequest, "Ax-Request-At too skewed")
			}

			clientID := strings.TrimSpace(req.Header.Get("Ax-Client-Id"))
			if clientID == "" {
				return reject(c, http.StatusBadRequest, "missing Ax-Client-Id")
			}
			if !reClientID.MatchString(clientID) {
				return reject(c, http.StatusBadRequest, "invalid Ax-Client-Id")
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := buildKey(method, c.Path(), clientID, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), cfg.StoreTimeout)
			defer cancel()

			entry := idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   now,
			}
			ok, err := provisionalSet(ctx, rdb, key, entry, cfg.LockTTL)
			if err != nil {
				idempotencyOutcomes.WithLabelValues("store_error").Inc()
				log.ErrorContext(ctx, "idempotency store unavailable", slog.String("key", key), slog.Any("error", err))
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !ok {
				cur, errLoad := loadEntry(ctx, rdb, key)
				if errLoad != nil {
					log.WarnContext(ctx, "idempotency entry unreadable", slog.String("key", key), slog.Any("error", errLoad))
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					idempotencyOutcomes.WithLabelValues("body_mismatch").Inc()
					return c.JSON(http.StatusConflict, map[string]string{"error": "Ax-Request-Id reused with different body"})
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					idempotencyOutcomes.WithLabelValues("replayed").Inc()
					c.Response().Header().Set("Ax-Idempotent-Replay", "true")
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				idempotencyOutcomes.WithLabelValues("in_progress").Inc()
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may be gone by now
			saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(req.Context()), cfg.StoreTimeout)
			defer saveCancel()
			if rec.code >= http.StatusInternalServerError {
				idempotencyOutcomes.WithLabelValues("released").Inc()
				if err := release(saveCtx, rdb, key); err != nil {
					log.WarnContext(saveCtx, "idempotency lock not released", slog.String("key", key), slog.Any("error", err))
				}
				return nil
			}
			final := idempEntry{
				Code:        rec.code,
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			if err := saveFinal(saveCtx, rdb, key, final, cfg.TTL); err != nil {
				log.WarnContext(saveCtx, "idempotency response not stored", slog.String("key", key), slog.Any("error", err))
				return nil
			}
			idempotencyOutcomes.WithLabelValues("stored").Inc()
			return nil
		}
	}
}
