package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"intent-service/internal/common/logger"
	"intent-service/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// CachedEmbedder memoises vectors in Redis. Redis is an optimisation only:
// any cache failure is logged and the request goes to the backend.
type CachedEmbedder struct {
	next   Embedder
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewCachedEmbedder(next Embedder, rdb redis.Cmdable, ttl time.Duration, prefix string, log logger.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.ForComponent(log, "embedding-cache"),
	}
}

func (c *CachedEmbedder) Name() string { return c.next.Name() }
func (c *CachedEmbedder) Dim() int     { return c.next.Dim() }

// Key is prefix + hex(sha256(model NUL text)). The raw text never reaches Redis.
func (c *CachedEmbedder) Key(text string) string {
	sum := sha256.Sum256([]byte(c.next.Name() + "\x00" + text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.Key(text)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if vec, ok := decodeVector(raw, c.Dim()); ok {
			metrics.EmbeddingCache.WithLabelValues(metrics.CacheHit).Inc()
			return vec, nil
		}
		metrics.EmbeddingCache.WithLabelValues(metrics.CacheMiss).Inc()
	case errors.Is(err, redis.Nil):
		metrics.EmbeddingCache.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.EmbeddingCache.WithLabelValues(metrics.CacheError).Inc()
		c.logger.Warn("cache lookup failed", map[string]interface{}{"error": err})
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, vec)
	return vec, nil
}

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.Key(t)
	}

	out := make([][]float32, len(texts))
	var missing []int

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.EmbeddingCache.WithLabelValues(metrics.CacheError).Add(float64(len(texts)))
		c.logger.Warn("cache batch lookup failed", map[string]interface{}{"error": err})
		vals = make([]interface{}, len(texts))
	}

	for i, v := range vals {
		if s, ok := v.(string); ok {
			if vec, ok := decodeVector([]byte(s), c.Dim()); ok {
				out[i] = vec
				metrics.EmbeddingCache.WithLabelValues(metrics.CacheHit).Inc()
				continue
			}
		}
		if err == nil {
			metrics.EmbeddingCache.WithLabelValues(metrics.CacheMiss).Inc()
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	toEmbed := make([]string, len(missing))
	for j, i := range missing {
		toEmbed[j] = texts[i]
	}
	vecs, err := c.next.EmbedBatch(ctx, toEmbed)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrUnavailable, len(vecs), len(missing))
	}
	for j, i := range missing {
		out[i] = vecs[j]
		c.store(ctx, keys[i], vecs[j])
	}
	return out, nil
}

func (c *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	if err := c.rdb.Set(ctx, key, encodeVector(vec), c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", map[string]interface{}{"error": err})
	}
}

// encodeVector packs vec as little-endian float32.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// decodeVector rejects payloads that do not hold exactly dim floats.
func decodeVector(raw []byte, dim int) ([]float32, bool) {
	if len(raw) == 0 || len(raw)%4 != 0 || (dim > 0 && len(raw) != 4*dim) {
		return nil, false
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, true
}
