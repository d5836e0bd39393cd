// Package cache memoizes embeddings in a key-value store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/generator"
	"go.uber.org/zap"
)

// DefaultTTL is how long cached embeddings live when no TTL is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Store is the key-value backend of the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// BatchStore is implemented by stores that read and write many keys in one
// round trip. EmbedBatch uses it when available.
type BatchStore interface {
	GetMany(ctx context.Context, keys []string) ([][]byte, error)
	SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) error
}

// CachedEmbedder decorates an Embedder with a read-through cache. Store
// failures are logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	next      generator.Embedder
	store     Store
	namespace string
	ttl       time.Duration
	log       *zap.Logger
}

// NewCachedEmbedder wraps next. Namespace separates vectors of different
// models sharing one store.
func NewCachedEmbedder(next generator.Embedder, store Store, namespace string, ttl time.Duration, log *zap.Logger) *CachedEmbedder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedEmbedder{next: next, store: store, namespace: namespace, ttl: ttl, log: log}
}

// Embed returns the cached vector for text or computes and stores it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, v)
	return v, nil
}

// EmbedBatch serves hits from the cache and embeds only the misses, in one
// call to the wrapped embedder.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.key(text)
	}
	out := c.lookupMany(ctx, keys)

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if out[i] == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	computed, err := c.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(computed), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = computed[j]
	}
	c.saveMany(ctx, keys, missIdx, out)
	return out, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.namespace + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("embedding cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	v, err := decodeVector(data)
	if err != nil {
		c.log.Warn("embedding cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return v, true
}

// lookupMany returns one vector per key, nil for misses.
func (c *CachedEmbedder) lookupMany(ctx context.Context, keys []string) [][]float32 {
	out := make([][]float32, len(keys))
	batch, ok := c.store.(BatchStore)
	if !ok {
		for i, key := range keys {
			if v, hit := c.lookup(ctx, key); hit {
				out[i] = v
			}
		}
		return out
	}

	data, err := batch.GetMany(ctx, keys)
	if err != nil || len(data) != len(keys) {
		c.log.Warn("embedding cache read failed", zap.Int("keys", len(keys)), zap.Error(err))
		return out
	}
	for i, d := range data {
		if d == nil {
			continue
		}
		v, err := decodeVector(d)
		if err != nil {
			c.log.Warn("embedding cache entry is corrupt", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		out[i] = v
	}
	return out
}

func (c *CachedEmbedder) saveMany(ctx context.Context, keys []string, idx []int, vectors [][]float32) {
	batch, ok := c.store.(BatchStore)
	if !ok {
		for _, i := range idx {
			c.save(ctx, keys[i], vectors[i])
		}
		return
	}

	values := make(map[string][]byte, len(idx))
	for _, i := range idx {
		values[keys[i]] = encodeVector(vectors[i])
	}
	if err := batch.SetMany(ctx, values, c.ttl); err != nil {
		c.log.Warn("embedding cache write failed", zap.Int("keys", len(values)), zap.Error(err))
	}
}

func (c *CachedEmbedder) save(ctx context.Context, key string, v []float32) {
	if err := c.store.Set(ctx, key, encodeVector(v), c.ttl); err != nil {
		c.log.Warn("embedding cache write failed", zap.Error(err))
	}
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding of %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
