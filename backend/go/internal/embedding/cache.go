package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Orbit/backend/go/pkg/lru"

	"github.com/go-redis/redis/v8"
)

// Cache 存储已计算过的向量。Get 未命中时返回 (nil, false, nil)。
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error
}

// RedisCache 是基于 go-redis 的 Cache 实现，向量以 JSON 编码存储。
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache 创建 RedisCache，所有键都带有 prefix 前缀。
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode cached vector: %w", err)
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// CachedEmbedding 在任意 Embedding 之前加一层缓存。缓存读写失败只会退化为直接调用模型。
type CachedEmbedding struct {
	inner Embedding
	cache Cache
	model string
	ttl   time.Duration
}

// NewCachedEmbedding 创建带缓存的 Embedding。model 参与缓存键计算，切换模型不会命中旧向量。
func NewCachedEmbedding(inner Embedding, cache Cache, model string, ttl time.Duration) *CachedEmbedding {
	return &CachedEmbedding{inner: inner, cache: cache, model: model, ttl: ttl}
}

func (c *CachedEmbedding) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed 优先读取缓存，未命中时调用模型并回写。
func (c *CachedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if v, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, v, c.ttl)
	return v, nil
}

// EmbedBatch 只把未命中的文本交给模型，结果顺序与输入一致。
func (c *CachedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = c.key(text)
		if v, ok, err := c.cache.Get(ctx, keys[i]); err == nil && ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missTexts), len(vectors))
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		_ = c.cache.Set(ctx, keys[i], vectors[j], c.ttl)
	}
	return out, nil
}

// MemoryCache 是进程内的 LRU Cache，在未启用 Redis 时使用。
type MemoryCache struct {
	lru *lru.Cache[string, []float32]
}

// NewMemoryCache 创建最多保存 capacity 个向量的 MemoryCache。
func NewMemoryCache(capacity int) (*MemoryCache, error) {
	c, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: c}, nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, vector []float32, ttl time.Duration) error {
	c.lru.Put(key, vector, ttl)
	return nil
}
