package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Sh4cK-18/travel-bus/pkg/response"
)

const (
	// IdempotencyKeyHeader is the header clients send to deduplicate retries
	IdempotencyKeyHeader = "X-Idempotency-Key"

	idempotencyKeyPrefix = "idempotency:"
)

// IdempotencyStatus represents the lifecycle of an idempotency record
type IdempotencyStatus string

const (
	StatusProcessing IdempotencyStatus = "processing"
	StatusCompleted  IdempotencyStatus = "completed"
)

// IdempotencyRecord stores the outcome of an idempotent request
type IdempotencyRecord struct {
	Key          string            `json:"key"`
	Status       IdempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// RedisStore is the subset of Redis operations the middleware needs
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store RedisStore
	// CompletedTTL is how long a completed record is replayed (default 24h)
	CompletedTTL time.Duration
	// ProcessingTTL bounds how long an in-flight record blocks duplicates (default 60s)
	ProcessingTTL time.Duration
}

// bodyRecorder captures the response so it can be replayed for duplicates
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns a middleware that deduplicates mutating requests by the
// X-Idempotency-Key header. The first request claims the key with SetNX; a
// duplicate arriving while the original is in flight gets 409, and a duplicate
// arriving after completion gets the recorded response replayed.
func Idempotency(cfg *IdempotencyConfig) gin.HandlerFunc {
	completedTTL := 24 * time.Hour
	processingTTL := 60 * time.Second
	if cfg.CompletedTTL > 0 {
		completedTTL = cfg.CompletedTTL
	}
	if cfg.ProcessingTTL > 0 {
		processingTTL = cfg.ProcessingTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := idempotencyKeyPrefix + key
		reqHash := hashRequest(c)

		record := IdempotencyRecord{
			Key:         key,
			Status:      StatusProcessing,
			RequestHash: reqHash,
			CreatedAt:   time.Now().UTC(),
		}
		payload, _ := json.Marshal(record)

		claimed, err := cfg.Store.SetNX(ctx, redisKey, payload, processingTTL).Result()
		if err != nil {
			// Redis being down must not block the request path.
			c.Next()
			return
		}

		if !claimed {
			existing, err := cfg.Store.Get(ctx, redisKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					c.Next()
					return
				}
				c.Next()
				return
			}

			var prev IdempotencyRecord
			if err := json.Unmarshal([]byte(existing), &prev); err != nil {
				c.Next()
				return
			}

			if prev.RequestHash != reqHash {
				response.Conflict(c, "IDEMPOTENCY_KEY_REUSED", "idempotency key reused with a different request")
				c.Abort()
				return
			}

			if prev.Status == StatusProcessing {
				response.Conflict(c, "REQUEST_IN_PROGRESS", "an identical request is still being processed")
				c.Abort()
				return
			}

			c.Data(prev.ResponseCode, "application/json", []byte(prev.ResponseBody))
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			// Server-side failures should be retryable with the same key.
			_ = cfg.Store.Del(ctx, redisKey).Err()
			return
		}

		record.Status = StatusCompleted
		record.ResponseCode = status
		record.ResponseBody = recorder.body.String()
		completed, _ := json.Marshal(record)
		_ = cfg.Store.Set(ctx, redisKey, completed, completedTTL).Err()
	}
}

// hashRequest fingerprints method, path and body so a reused key with a
// different payload is rejected instead of replayed
func hashRequest(c *gin.Context) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))

	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err == nil {
			h.Write(body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
