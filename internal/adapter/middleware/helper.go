package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idemp:procurement:"

func bodyDigest(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

func buildKey(method, path, userID, requestID string) string {
	return keyPrefix + strings.ToLower(method) + ":" + path + ":" + userID + ":" + requestID
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

	// user ids come from the identity provider: emails, employee codes, uuids
	reUserID = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)
)

func validRequestID(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

type idempotencyHeaders struct {
	requestID string
	requestAt time.Time
	userID    string
}

// readIdempotencyHeaders returns the parsed headers, or the 400 message for
// the first one that is missing or malformed.
func readIdempotencyHeaders(req *http.Request, now time.Time) (idempotencyHeaders, string) {
	var h idempotencyHeaders

	h.requestID = strings.TrimSpace(req.Header.Get("Ax-Request-Id"))
	if h.requestID == "" {
		return h, "missing Ax-Request-Id"
	}
	if !validRequestID(h.requestID) {
		return h, "invalid Ax-Request-Id format"
	}

	at, err := parseRequestAt(req.Header.Get("Ax-Request-At"))
	if err != nil {
		return h, err.Error()
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return h, "Ax-Request-At too skewed"
	}
	h.requestAt = at

	h.userID = strings.TrimSpace(req.Header.Get("Ax-User-Id"))
	if h.userID == "" {
		return h, "missing Ax-User-Id"
	}
	if !reUserID.MatchString(h.userID) {
		return h, "invalid Ax-User-Id"
	}
	return h, ""
}

// parseRequestAt accepts:
//   - epoch seconds (e.g., "1736123456")
//   - epoch milliseconds (e.g., "1736123456789")
//   - RFC3339 / RFC3339Nano **with timezone** (e.g., "2025-09-05T10:00:00+07:00" or "...Z")
//
// Naive local timestamps **without** timezone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing Ax-Request-At")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 { // ms
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("Ax-Request-At must be epoch (s/ms) or RFC3339 with timezone")
}

// ---- Redis helpers ----

func reserve(ctx context.Context, rdb *redis.Client, key string, r storedResponse) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, reservationTTL).Result()
}

func load(ctx context.Context, rdb *redis.Client, key string) (storedResponse, error) {
	var r storedResponse
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(v, &r); err != nil {
		return storedResponse{}, err
	}
	return r, nil
}

func store(ctx context.Context, rdb *redis.Client, key string, r storedResponse, ttl time.Duration) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}

func release(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}
