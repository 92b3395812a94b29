package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Orbit/backend/go/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingModel struct {
	calls  int
	inputs [][]string
}

func (m *countingModel) vector(text string) []float32 {
	return []float32{float32(len(text)), 1}
}

func (m *countingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	m.inputs = append(m.inputs, []string{text})
	return m.vector(text), nil
}

func (m *countingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.inputs = append(m.inputs, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "emb:"), mr
}

func TestCachedEmbeddingHitsOnSecondCall(t *testing.T) {
	cache, mr := newRedisCache(t)
	inner := &countingModel{}
	e := NewCachedEmbedding(inner, cache, "ada", time.Hour)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "hello")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "hello")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, mr.Keys(), 1)
	assert.True(t, mr.TTL(mr.Keys()[0]) > 0)
}

func TestCachedEmbeddingBatchOnlySendsMisses(t *testing.T) {
	cache, _ := newRedisCache(t)
	inner := &countingModel{}
	e := NewCachedEmbedding(inner, cache, "ada", 0)
	ctx := context.Background()

	_, err := e.Embed(ctx, "b")
	require.NoError(t, err)

	out, err := e.EmbedBatch(ctx, []string{"a", "b", "ccc"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float32{1, 1}, out[0])
	assert.Equal(t, []float32{1, 1}, out[1])
	assert.Equal(t, []float32{3, 1}, out[2])
	assert.Equal(t, []string{"a", "ccc"}, inner.inputs[len(inner.inputs)-1])
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	a := NewCachedEmbedding(nil, nil, "m1", 0)
	b := NewCachedEmbedding(nil, nil, "m2", 0)
	assert.NotEqual(t, a.key("text"), b.key("text"))
}

func TestEmbedInBatches(t *testing.T) {
	inner := &countingModel{}
	out, err := EmbedInBatches(context.Background(), inner, []string{"a", "bb", "ccc", "dddd", "e"}, 2)
	require.NoError(t, err)
	assert.Len(t, out, 5)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []float32{4, 1}, out[3])
}

func TestHuggingFaceModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/minilm", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		var body struct {
			Inputs []string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		out := make([][]float32, len(body.Inputs))
		for i := range out {
			out[i] = []float32{0.5, float32(i)}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	m := NewHuggingFaceModel("hf-key", "minilm", srv.URL+"/models/")
	v, err := m.EmbedBatch(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0}, {0.5, 1}}, v)
}

func TestHuggingFaceModelStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewHuggingFaceModel("", "minilm", srv.URL+"/")
	_, err := m.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNewEmdModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewEmdModel(context.Background(), config.EmbeddingConfig{Provider: "cohere"})
	assert.Error(t, err)

	_, err = NewEmdModel(context.Background(), config.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err)

	m, err := NewEmdModel(context.Background(), config.EmbeddingConfig{Provider: "ollama", Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaModel{}, m)
}

func TestCachedEmbeddingWithMemoryCache(t *testing.T) {
	cache, err := NewMemoryCache(8)
	require.NoError(t, err)
	inner := &countingModel{}
	e := NewCachedEmbedding(inner, cache, "ada", time.Hour)
	ctx := context.Background()

	_, err = e.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = e.Embed(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	_, ok, err := cache.Get(ctx, e.key("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewMemoryCacheRejectsZeroCapacity(t *testing.T) {
	_, err := NewMemoryCache(0)
	assert.Error(t, err)
}
