package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// IdempotencyHeader names the request header carrying the client key.
const IdempotencyHeader = "Idempotency-Key"

// Idem provides an Idempotency-Key middleware backed by Redis. The first
// completed response for a key is stored and replayed to later requests;
// concurrent duplicates are rejected while the first is still running.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func hashKey(r *http.Request, key string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + key))
	return hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		hashed := hashKey(r, header)
		respKey := "idem:resp:" + hashed
		lockKey := "idem:lock:" + hashed

		if raw, err := i.R.Get(ctx, respKey).Bytes(); err == nil {
			var stored storedResponse
			if json.Unmarshal(raw, &stored) == nil {
				w.Header().Set("Idempotent-Replay", "true")
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}
		} else if !errors.Is(err, redis.Nil) {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}

		ok, err := i.R.SetNX(ctx, lockKey, "locked", i.ttl()).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_IN_PROGRESS", "a request with this idempotency key is still running", nil)
			return
		}

		rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			// detach from the request so storage survives client disconnects
			bg := context.WithoutCancel(ctx)
			if rec.status < http.StatusInternalServerError {
				payload, _ := json.Marshal(storedResponse{
					Status:      rec.status,
					ContentType: rec.Header().Get("Content-Type"),
					Body:        rec.body.Bytes(),
				})
				if err := i.R.Set(bg, respKey, payload, i.ttl()).Err(); err != nil {
					zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency store write")
				}
			}
			_ = i.R.Del(bg, lockKey).Err()
		}()
		next.ServeHTTP(rec, r)
	})
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}
