package embedding

import "context"

// Embedding 定义了所有 embedding 模型需要实现的接口。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量，返回结果与输入一一对应。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider 表示 embedding 服务的提供商。
type Provider string

const (
	OpenAI      Provider = "openai"
	Gemini      Provider = "gemini"
	Ollama      Provider = "ollama"
	HuggingFace Provider = "huggingface"
)
