package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// How long a reservation lives if the handler never finishes.
	reservationTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second

	// HeaderReplayed marks a response served from the idempotency store.
	HeaderReplayed = "Ax-Idempotent-Replay"
)

// Outcomes reported to the IdempotencyRecorder.
const (
	OutcomeStored       = "stored"
	OutcomeReplayed     = "replayed"
	OutcomeBodyMismatch = "body_mismatch"
	OutcomeInProgress   = "in_progress"
	OutcomeReleased     = "released"
	OutcomeUnavailable  = "unavailable"
)

type IdempotencyRecorder interface {
	RecordIdempotency(outcome string)
}

type IdempotencyConfig struct {
	Store    *redis.Client
	TTL      time.Duration // how long a finished response can be replayed
	Log      logrus.FieldLogger
	Recorder IdempotencyRecorder // optional
}

// storedResponse is what a request id resolves to: a reservation while the
// handler runs, then the response it produced.
type storedResponse struct {
	InProgress  bool      `json:"in_progress"`
	Status      int       `json:"status"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// respRecorder tees the handler's response so it can be stored after the fact.
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

// Idempotency makes a mutating document request safe to retry. The key is
// method + concrete path + Ax-User-Id + Ax-Request-Id, so the same request id
// sent to two documents never replays the wrong decision. Server errors are
// not stored: the reservation is dropped and the client may retry.
func Idempotency(cfg IdempotencyConfig) echo.MiddlewareFunc {
	record := func(outcome string) {
		if cfg.Recorder != nil {
			cfg.Recorder.RecordIdempotency(outcome)
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			h, msg := readIdempotencyHeaders(req, nowUTC())
			if msg != "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			digest := bodyDigest(body)

			key := buildKey(req.Method, req.URL.Path, h.userID, h.requestID)
			log := cfg.Log.WithField("key", key)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			ok, err := reserve(ctx, cfg.Store, key, storedResponse{
				InProgress:  true,
				BodySHA256:  digest,
				RequestID:   h.requestID,
				RequestAtMS: h.requestAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			if err != nil {
				record(OutcomeUnavailable)
				log.WithError(err).Warn("idempotency store unavailable")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !ok {
				cur, errLoad := load(ctx, cfg.Store, key)
				if errLoad != nil {
					log.WithError(errLoad).Warn("idempotency entry load failed")
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != digest {
					record(OutcomeBodyMismatch)
					return c.JSON(http.StatusConflict, map[string]string{"error": "Ax-Request-Id reused with different body"})
				}
				if !cur.InProgress && cur.Status != 0 {
					record(OutcomeReplayed)
					ct := cur.ContentType
					if ct == "" {
						ct = echo.MIMEApplicationJSON
					}
					c.Response().Header().Set(HeaderReplayed, "true")
					return c.Blob(cur.Status, ct, cur.Body)
				}
				record(OutcomeInProgress)
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the handler is done; a cancelled client must not lose the entry
			storeCtx, cancelStore := context.WithTimeout(context.WithoutCancel(req.Context()), storeTimeout)
			defer cancelStore()

			if rec.code >= http.StatusInternalServerError {
				record(OutcomeReleased)
				if err := release(storeCtx, cfg.Store, key); err != nil {
					log.WithError(err).Warn("idempotency reservation not released")
				}
				return nil
			}
			final := storedResponse{
				Status:      rec.code,
				ContentType: rec.Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
				BodySHA256:  digest,
				RequestID:   h.requestID,
				RequestAtMS: h.requestAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			if err := store(storeCtx, cfg.Store, key, final, cfg.TTL); err != nil {
				log.WithError(err).Warn("idempotency entry not stored")
				return nil
			}
			record(OutcomeStored)
			return nil
		}
	}
}
