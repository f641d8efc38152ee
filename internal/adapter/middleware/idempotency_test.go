package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

type outcomeCounter map[string]int

func (o outcomeCounter) RecordIdempotency(outcome string) { o[outcome]++ }

type idempFixture struct {
	e     *echo.Echo
	rdb   *redis.Client
	calls *atomic.Int32
	seen  outcomeCounter
}

// newIdempFixture mounts handler on the document routes behind the guard and
// counts how often it actually runs.
func newIdempFixture(t *testing.T, rdb *redis.Client, handler echo.HandlerFunc) *idempFixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	f := &idempFixture{e: echo.New(), rdb: rdb, calls: &atomic.Int32{}, seen: outcomeCounter{}}
	f.e.HideBanner = true
	counted := func(c echo.Context) error {
		f.calls.Add(1)
		return handler(c)
	}
	guard := Idempotency(IdempotencyConfig{Store: rdb, TTL: 2 * time.Minute, Log: log, Recorder: f.seen})
	f.e.POST("/api/v1/documents", counted, guard)
	f.e.POST("/api/v1/documents/:reference_no/decision", counted, guard)
	f.e.GET("/api/v1/inbox", counted, guard)
	return f
}

func headers() map[string]string {
	return map[string]string{
		"Ax-Request-Id": testReqID,
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
		"Ax-User-Id":    testUserID,
	}
}

func (f *idempFixture) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func created(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]string{"reference_no": "REQ-20240115-001"})
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	_, rdb := newMiniRedis(t)
	f := newIdempFixture(t, rdb, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"documents": []string{}})
	})
	if rec := f.do(http.MethodGet, "/api/v1/inbox", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_MissingHeaderNeverReachesHandler(t *testing.T) {
	_, rdb := newMiniRedis(t)
	f := newIdempFixture(t, rdb, created)

	h := headers()
	delete(h, "Ax-Request-Id")
	rec := f.do(http.MethodPost, "/api/v1/documents", `{"type":"requisition"}`, h)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("handler ran %d times", f.calls.Load())
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	_, rdb := newMiniRedis(t)
	f := newIdempFixture(t, rdb, created)
	body := `{"type":"requisition","amount":"5000000.00"}`

	rec1 := f.do(http.MethodPost, "/api/v1/documents", body, headers())
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}
	if rec1.Header().Get(HeaderReplayed) != "" {
		t.Fatalf("first response must not be marked as replay")
	}

	rec2 := f.do(http.MethodPost, "/api/v1/documents", body, headers())
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replay must carry %s", HeaderReplayed)
	}
	if got := rec2.Header().Get(echo.HeaderContentType); got != echo.MIMEApplicationJSON {
		t.Fatalf("replay content type = %q", got)
	}
	if f.calls.Load() != 1 {
		t.Fatalf("handler should run once, ran %d", f.calls.Load())
	}
	if f.seen[OutcomeStored] != 1 || f.seen[OutcomeReplayed] != 1 {
		t.Fatalf("outcomes = %v", f.seen)
	}
}

func Test_ReplayOfRejectedDecision(t *testing.T) {
	_, rdb := newMiniRedis(t)
	f := newIdempFixture(t, rdb, func(c echo.Context) error {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "actor is not the current approver for this document"})
	})
	body := `{"decision":"approve"}`

	first := f.do(http.MethodPost, decidePath, body, headers())
	second := f.do(http.MethodPost, decidePath, body, headers())
	if first.Code != http.StatusForbidden || second.Code != http.StatusForbidden {
		t.Fatalf("want 403 twice, got %d then %d", first.Code, second.Code)
	}
	if f.calls.Load() != 1 {
		t.Fatalf("4xx outcomes are final; handler ran %d times", f.calls.Load())
	}
}

func Test_SameRequestIDOnAnotherDocumentRunsAgain(t *testing.T) {
	_, rdb := newMiniRedis(t)
	f := newIdempFixture(t, rdb, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"reference_no": c.Param("reference_no")})
	})
	body := `{"decision":"approve"}`

	a := f.do(http.MethodPost, "/api/v1/documents/PR-20240115-001/decision", body, headers())
	b := f.do(http.MethodPost, "/api/v1/documents/PR-20240115-002/decision", body, headers())
	if a.Code != http.StatusOK || b.Code != http.StatusOK {
		t.Fatalf("want 200 twice, got %d and %d", a.Code, b.Code)
	}
	if a.Body.String() == b.Body.String() {
		t.Fatalf("second document got the first document's response: %s", b.Body.String())
	}
	if f.calls.Load() != 2 {
		t.Fatalf("handler should run per document, ran %d", f.calls.Load())
	}
}

func Test_ServerErrorReleasesReservation(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var fail atomic.Bool
	fail.Store(true)
	f := newIdempFixture(t, rdb, func(c echo.Context) error {
		if fail.Load() {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
		}
		return c.JSON(http.StatusOK, map[string]string{"final_status": "approved"})
	})
	body := `{"decision":"approve"}`

	if rec := f.do(http.MethodPost, decidePath, body, headers()); rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	key := buildKey(http.MethodPost, decidePath, testUserID, testReqID)
	if n := rdb.Exists(context.Background(), key).Val(); n != 0 {
		t.Fatalf("reservation should be released after a 500")
	}

	fail.Store(false)
	rec := f.do(http.MethodPost, decidePath, body, headers())
	if rec.Code != http.StatusOK {
		t.Fatalf("retry => want 200, got %d", rec.Code)
	}
	if f.calls.Load() != 2 || f.seen[OutcomeReleased] != 1 || f.seen[OutcomeStored] != 1 {
		t.Fatalf("calls=%d outcomes=%v", f.calls.Load(), f.seen)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	_, rdb := newMiniRedis(t)
	f := newIdempFixture(t, rdb, created)
	body := `{"decision":"approve"}`

	key := buildKey(http.MethodPost, decidePath, testUserID, testReqID)
	ok, err := reserve(context.Background(), rdb, key, storedResponse{
		InProgress:  true,
		BodySHA256:  bodyDigest([]byte(body)),
		RequestID:   testReqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil || !ok {
		t.Fatalf("seed reservation failed, ok=%v err=%v", ok, err)
	}

	rec := f.do(http.MethodPost, decidePath, body, headers())
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.calls.Load() != 0 || f.seen[OutcomeInProgress] != 1 {
		t.Fatalf("calls=%d outcomes=%v", f.calls.Load(), f.seen)
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	_, rdb := newMiniRedis(t)
	f := newIdempFixture(t, rdb, created)

	key := buildKey(http.MethodPost, decidePath, testUserID, testReqID)
	final := storedResponse{
		Status:     http.StatusOK,
		Body:       []byte(`{"final_status":"approved"}`),
		BodySHA256: bodyDigest([]byte(`{"decision":"approve"}`)),
		RequestID:  testReqID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store(context.Background(), rdb, key, final, 5*time.Minute); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	rec := f.do(http.MethodPost, decidePath, `{"decision":"decline","reason_id":3}`, headers())
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
	if f.seen[OutcomeBodyMismatch] != 1 {
		t.Fatalf("outcomes = %v", f.seen)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// nothing listens on port 1, so SETNX fails fast
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })
	f := newIdempFixture(t, rdb, created)

	rec := f.do(http.MethodPost, "/api/v1/documents", `{}`, headers())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
	if f.calls.Load() != 0 || f.seen[OutcomeUnavailable] != 1 {
		t.Fatalf("calls=%d outcomes=%v", f.calls.Load(), f.seen)
	}
}
