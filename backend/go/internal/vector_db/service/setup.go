package service

import (
	"context"
	"errors"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/internal/database/milvus"
	"Orbit/backend/go/internal/database/redis"
	"Orbit/backend/go/internal/embedding"
	"Orbit/backend/go/internal/vector_db/store"
	"Orbit/backend/go/internal/vector_db/vectorstore"
	"Orbit/backend/go/pkg/logger"

	"gorm.io/gorm"
)

const embeddingCachePrefix = "orbit:embedding:"

// Setup 根据配置连接 Milvus、创建 embedding 模型并组装 Service。
// 任何一步失败都不会中止进程，而是返回一个降级的 Service。
func Setup(ctx context.Context, cfg *config.AppConfig, db *gorm.DB, log *logger.Logger) *Service {
	emb, err := embedding.NewEmdModel(ctx, cfg.Embedding)
	if err != nil {
		log.WithErr(err, "init_error").Warn("Embedding model unavailable, vector store disabled")
		return NewUnavailable(err, log)
	}
	emb = withCache(ctx, cfg, emb, log)

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.WithErr(err, "init_error").Warn("Milvus unavailable, vector store disabled")
		return NewUnavailable(err, log)
	}
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		log.WithErr(err, "init_error").Warn("Milvus collection unavailable, vector store disabled")
		return NewUnavailable(err, log)
	}
	vs, err := vectorstore.NewMilvusStore(milvusClient, log)
	if err != nil {
		return NewUnavailable(err, log)
	}

	log.Info("Vector store initialized")
	return New(vs, emb, store.NewSourceStore(db), cfg.Embedding.BatchSize, log)
}

// withCache 优先使用 Redis 缓存向量，Redis 未启用或不可用时退回进程内 LRU。
func withCache(ctx context.Context, cfg *config.AppConfig, emb embedding.Embedding, log *logger.Logger) embedding.Embedding {
	ttl := config.Duration(cfg.Embedding.CacheTTL, 0)
	if ttl <= 0 {
		return emb
	}
	rdb, err := redis.GetClient(ctx, &cfg.Databases.Redis)
	if err == nil {
		return embedding.NewCachedEmbedding(emb, embedding.NewRedisCache(rdb, embeddingCachePrefix), cfg.Embedding.Model, ttl)
	}
	if !errors.Is(err, redis.ErrDisabled) {
		log.WithErr(err, "init_error").Warn("Redis unavailable, falling back to in-memory embedding cache")
	}
	cache, err := embedding.NewMemoryCache(cfg.Embedding.CacheSize)
	if err != nil {
		log.WithErr(err, "init_error").Warn("Embedding cache disabled")
		return emb
	}
	return embedding.NewCachedEmbedding(emb, cache, cfg.Embedding.Model, ttl)
}
