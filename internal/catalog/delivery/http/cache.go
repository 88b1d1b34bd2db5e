package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopfloor/product-catalog/pkg/logger"
)

const cacheVersionKey = "catalog:cache:version"

// ResponseCache caches successful GET responses in Redis, keyed by the
// request's query signature. Invalidation bumps a namespace version instead
// of scanning keys, so every mutation instantly detaches all cached pages.
// A nil ResponseCache disables caching.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache backed by the given Redis client
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl}
}

func (c *ResponseCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *ResponseCache) key(ctx context.Context, r *http.Request) string {
	version, err := c.client.Get(ctx, cacheVersionKey).Result()
	if err != nil {
		version = "0"
	}
	sum := sha256.Sum256([]byte(r.Method + ":" + r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("catalog:cache:v%s:%s", version, hex.EncodeToString(sum[:]))
}

// Middleware serves cached GET responses and stores fresh 200 responses
func (c *ResponseCache) Middleware(next http.HandlerFunc) http.HandlerFunc {
	if !c.enabled() {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := c.key(ctx, r)

		if cached, err := c.client.Get(ctx, key).Bytes(); err == nil && len(cached) > 0 {
			logger.Debug(ctx).Str("path", r.URL.Path).Msg("Cache hit")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			w.Write(cached)
			return
		}

		recorder := &cachingWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK {
			if err := c.client.Set(ctx, key, recorder.body.Bytes(), c.ttl).Err(); err != nil {
				logger.Warn(ctx).Err(err).Str("path", r.URL.Path).Msg("Failed to cache response")
			}
		}
	}
}

// Invalidate detaches every cached response by bumping the version counter
func (c *ResponseCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if err := c.client.Incr(ctx, cacheVersionKey).Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate response cache")
	}
}

// cachingWriter captures the response body and status while writing through
type cachingWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (w *cachingWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
