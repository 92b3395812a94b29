package embedding

import (
	"context"
	"fmt"

	"Orbit/backend/go/internal/config"
)

// NewEmdModel 根据配置创建 Embedding 模型实例。
//
// 参数:
//
//	cfg: embedding 配置，Provider 取值为 "openai"、"gemini"、"huggingface" 或 "ollama"。
//
// 返回值:
//
//	Embedding: 新创建的模型实例。
//	error: 提供商不支持或模型初始化失败时返回错误。
func NewEmdModel(ctx context.Context, cfg config.EmbeddingConfig) (Embedding, error) {
	switch Provider(cfg.Provider) {
	case Gemini:
		return NewGoogleModel(ctx, cfg.APIKey, cfg.Model)
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embedding requires an API key")
		}
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case HuggingFace:
		return NewHuggingFaceModel(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case Ollama:
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// EmbedInBatches 将 texts 按 batchSize 分批调用 EmbedBatch，并校验返回数量。
func EmbedInBatches(ctx context.Context, e Embedding, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed batch [%d:%d]: got %d vectors", start, end, len(vectors))
		}
		out = append(out, vectors...)
	}
	return out, nil
}
