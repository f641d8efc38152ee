package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

const (
	testReqID  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testUserID = "emp-1042@corp"
	decidePath = "/api/v1/documents/PR-20240115-001/decision"
)

func Test_bodyDigest(t *testing.T) {
	data := []byte(`{"decision":"approve"}`)
	sum := sha256.Sum256(data)
	if got, want := bodyDigest(data), hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("bodyDigest mismatch: got %s want %s", got, want)
	}
}

func Test_buildKey(t *testing.T) {
	k := buildKey("POST", decidePath, testUserID, testReqID)
	want := "idemp:procurement:post:" + decidePath + ":" + testUserID + ":" + testReqID
	if k != want {
		t.Fatalf("buildKey = %q, want %q", k, want)
	}
	// the concrete document is part of the key
	other := buildKey("POST", "/api/v1/documents/PR-20240115-002/decision", testUserID, testReqID)
	if other == k {
		t.Fatalf("keys for different documents must differ")
	}
}

func Test_validRequestID(t *testing.T) {
	valid := []string{
		"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		strings.Repeat("a", 32),
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88",
	}
	for _, s := range valid {
		if !validRequestID(s) {
			t.Errorf("validRequestID should accept %q", s)
		}
	}
	invalid := []string{
		"",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",   // 31 chars
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880", // 33 chars
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
		"3f9a6a1b-3d54-9fbe-8b3a-6b3e8d6b2c88", // version 9
	}
	for _, s := range invalid {
		if validRequestID(s) {
			t.Errorf("validRequestID should reject %q", s)
		}
	}
}

func Test_parseRequestAt(t *testing.T) {
	sec := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"epoch seconds", strconv.FormatInt(sec.Unix(), 10), sec},
		{"epoch millis", strconv.FormatInt(sec.UnixMilli()+250, 10), sec.Add(250 * time.Millisecond)},
		{"rfc3339 offset", "2024-01-15T15:30:00+07:00", sec},
		{"rfc3339 zulu", "2024-01-15T08:30:00Z", sec},
		{"rfc3339 nano", "2024-01-15T08:30:00.5Z", sec.Add(500 * time.Millisecond)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseRequestAt(tc.raw)
			if err != nil {
				t.Fatalf("parseRequestAt(%q): %v", tc.raw, err)
			}
			if !got.Equal(tc.want) || got.Location() != time.UTC {
				t.Fatalf("parseRequestAt(%q) = %v, want %v UTC", tc.raw, got, tc.want)
			}
		})
	}

	for _, raw := range []string{"", "  ", "2024-01-15 08:30:00", "2024-01-15T08:30:00", "yesterday"} {
		if _, err := parseRequestAt(raw); err == nil {
			t.Errorf("parseRequestAt(%q) should fail", raw)
		}
	}
}

func Test_readIdempotencyHeaders(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	good := map[string]string{
		"Ax-Request-Id": testReqID,
		"Ax-Request-At": now.Format(time.RFC3339),
		"Ax-User-Id":    testUserID,
	}
	with := func(k, v string) map[string]string {
		out := map[string]string{}
		for kk, vv := range good {
			out[kk] = vv
		}
		if v == "" {
			delete(out, k)
		} else {
			out[k] = v
		}
		return out
	}
	cases := []struct {
		name string
		hdr  map[string]string
		msg  string
	}{
		{"ok", good, ""},
		{"missing request id", with("Ax-Request-Id", ""), "missing Ax-Request-Id"},
		{"bad request id", with("Ax-Request-Id", "NOT-VALID"), "invalid Ax-Request-Id format"},
		{"missing request at", with("Ax-Request-At", ""), "missing Ax-Request-At"},
		{"skewed", with("Ax-Request-At", now.Add(-maxClockSkew-time.Minute).Format(time.RFC3339)), "Ax-Request-At too skewed"},
		{"missing user", with("Ax-User-Id", ""), "missing Ax-User-Id"},
		{"bad user", with("Ax-User-Id", "not a user id"), "invalid Ax-User-Id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, decidePath, nil)
			for k, v := range tc.hdr {
				req.Header.Set(k, v)
			}
			h, msg := readIdempotencyHeaders(req, now)
			if msg != tc.msg {
				t.Fatalf("msg = %q, want %q", msg, tc.msg)
			}
			if tc.msg == "" && (h.requestID != testReqID || h.userID != testUserID || !h.requestAt.Equal(now)) {
				t.Fatalf("parsed headers = %+v", h)
			}
		})
	}
}

func Test_reserve_load_release(t *testing.T) {
	_, rdb := newMiniRedis(t)
	ctx := context.Background()
	key := buildKey(http.MethodPost, decidePath, testUserID, testReqID)
	r := storedResponse{
		InProgress:  true,
		BodySHA256:  bodyDigest([]byte(`{"decision":"approve"}`)),
		RequestID:   testReqID,
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   nowUTC(),
	}

	ok, err := reserve(ctx, rdb, key, r)
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl <= 0 || ttl > reservationTTL {
		t.Fatalf("reservation TTL not set correctly: %v", ttl)
	}
	if ok, err = reserve(ctx, rdb, key, r); err != nil || ok {
		t.Fatalf("second reserve should lose: ok=%v err=%v", ok, err)
	}

	got, err := load(ctx, rdb, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.InProgress || got.RequestID != r.RequestID || got.BodySHA256 != r.BodySHA256 {
		t.Fatalf("loaded reservation mismatch: %+v vs %+v", got, r)
	}

	if err := release(ctx, rdb, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, err = reserve(ctx, rdb, key, r); err != nil || !ok {
		t.Fatalf("reserve after release: ok=%v err=%v", ok, err)
	}
}

func Test_store_load_TTL(t *testing.T) {
	_, rdb := newMiniRedis(t)
	ctx := context.Background()
	key := buildKey(http.MethodPost, "/api/v1/documents", testUserID, testReqID)
	final := storedResponse{
		Status:      http.StatusCreated,
		ContentType: "application/json",
		Body:        []byte(`{"reference_no":"REQ-20240115-001"}`),
		BodySHA256:  bodyDigest([]byte(`{"type":"requisition"}`)),
		RequestID:   testReqID,
		CreatedAt:   nowUTC(),
	}

	ttlWant := 5 * time.Second
	if err := store(ctx, rdb, key, final, ttlWant); err != nil {
		t.Fatalf("store: %v", err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl <= 0 || ttl > ttlWant {
		t.Fatalf("final TTL out of range: got %v want <= %v", ttl, ttlWant)
	}

	got, err := load(ctx, rdb, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.InProgress || got.Status != http.StatusCreated || got.ContentType != "application/json" ||
		string(got.Body) != string(final.Body) {
		t.Fatalf("final entry mismatch: %+v", got)
	}
}

func Test_load_CorruptEntry(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	key := buildKey(http.MethodPost, decidePath, testUserID, testReqID)
	if err := mr.Set(key, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := load(context.Background(), rdb, key); err == nil {
		t.Fatalf("expected decode error")
	}
}
