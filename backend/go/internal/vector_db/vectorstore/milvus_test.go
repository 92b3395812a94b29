package vectorstore

import (
	"context"
	"encoding/json"
	"testing"

	"Orbit/backend/go/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMilvus overrides the two calls MilvusStore makes; everything else panics via the nil embedded interface.
type fakeMilvus struct {
	client.Client

	inserted []entity.Column
	expr     string
	topK     int
	results  []client.SearchResult
}

func (f *fakeMilvus) Insert(ctx context.Context, coll, partition string, cols ...entity.Column) (entity.Column, error) {
	f.inserted = cols
	return nil, nil
}

func (f *fakeMilvus) Search(ctx context.Context, coll string, partitions []string, expr string, output []string,
	vectors []entity.Vector, vectorField string, metric entity.MetricType, topK int, sp entity.SearchParam,
	opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	f.expr = expr
	f.topK = topK
	return f.results, nil
}

func newStore(f *fakeMilvus) *MilvusStore {
	sp, _ := entity.NewIndexHNSWSearchParam(64)
	return &MilvusStore{
		log:         logger.Discard(),
		client:      f,
		collection:  "knowledge_documents",
		vectorField: "embedding",
		dim:         2,
		metric:      entity.COSINE,
		searchParam: sp,
	}
}

func TestBuildFilterExpression(t *testing.T) {
	expr, err := buildFilterExpression(nil)
	require.NoError(t, err)
	assert.Empty(t, expr)

	expr, err = buildFilterExpression(map[string]string{MetaUserID: "7", MetaDocumentType: "user"})
	require.NoError(t, err)
	assert.Equal(t, `document_type == "user" and user_id == "7"`, expr)

	expr, err = buildFilterExpression(map[string]string{MetaUserID: `7" or "1"=="1`})
	require.NoError(t, err)
	assert.Equal(t, `user_id == "7\" or \"1\"==\"1"`, expr)

	_, err = buildFilterExpression(map[string]string{"username": "ada"})
	assert.Error(t, err)
}

func TestAddBuildsColumns(t *testing.T) {
	f := &fakeMilvus{}
	s := newStore(f)

	err := s.Add(context.Background(), []Document{{
		Text:      "Username: ada",
		Embedding: []float32{0.1, 0.2},
		Metadata:  map[string]interface{}{MetaUserID: "7", MetaDocumentType: DocumentTypeUser},
	}})
	require.NoError(t, err)
	require.Len(t, f.inserted, 6)

	byName := map[string]entity.Column{}
	for _, c := range f.inserted {
		byName[c.Name()] = c
	}
	assert.NotEmpty(t, byName[FieldID].(*entity.ColumnVarChar).Data()[0])
	assert.Equal(t, []string{"7"}, byName[FieldUserID].(*entity.ColumnVarChar).Data())
	assert.Equal(t, []string{"user"}, byName[FieldDocumentType].(*entity.ColumnVarChar).Data())
	assert.JSONEq(t, `{"userId":"7","documentType":"user"}`, string(byName[FieldMetadata].(*entity.ColumnJSONBytes).Data()[0]))
}

func TestAddTruncatesLongContent(t *testing.T) {
	f := &fakeMilvus{}
	s := newStore(f)
	s.contentMax = 8

	err := s.Add(context.Background(), []Document{
		{Text: "short", Embedding: []float32{0.1, 0.2}},
		{Text: "héllo wörld", Embedding: []float32{0.1, 0.2}},
	})
	require.NoError(t, err)

	var contents []string
	for _, c := range f.inserted {
		if c.Name() == FieldContent {
			contents = c.(*entity.ColumnVarChar).Data()
		}
	}
	assert.Equal(t, []string{"short", "héllo w"}, contents)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "abc", truncateUTF8("abc", 0))
	assert.Equal(t, "ab", truncateUTF8("abc", 2))
	assert.Equal(t, "a", truncateUTF8("aé", 2))
	assert.Equal(t, "aé", truncateUTF8("aé", 3))
}

func TestAddRejectsWrongDimension(t *testing.T) {
	s := newStore(&fakeMilvus{})
	err := s.Add(context.Background(), []Document{{Embedding: []float32{1, 2, 3}}})
	assert.Error(t, err)
}

func TestQueryDecodesResults(t *testing.T) {
	meta, _ := json.Marshal(map[string]interface{}{"id": "12", "title": "Bio"})
	f := &fakeMilvus{results: []client.SearchResult{{
		ResultCount: 2,
		Scores:      []float32{0.9, 0.4},
		Fields: []entity.Column{
			entity.NewColumnVarChar(FieldID, []string{"a", "b"}),
			entity.NewColumnVarChar(FieldContent, []string{"first", "second"}),
			entity.NewColumnJSONBytes(FieldMetadata, [][]byte{meta, nil}),
		},
	}}}
	s := newStore(f)

	docs, err := s.Query(context.Background(), []float32{1, 0}, 5, map[string]string{MetaUserID: "3"})
	require.NoError(t, err)
	assert.Equal(t, `user_id == "3"`, f.expr)
	assert.Equal(t, 5, f.topK)
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].Text)
	assert.Equal(t, "Bio", docs[0].Metadata["title"])
	assert.InDelta(t, 0.9, docs[0].Score, 1e-6)
	assert.Empty(t, docs[1].Metadata)
}

func TestHigherIsBetterFollowsMetric(t *testing.T) {
	s := newStore(&fakeMilvus{})
	for metric, want := range map[entity.MetricType]bool{
		entity.COSINE:  true,
		entity.IP:      true,
		entity.L2:      false,
		entity.HAMMING: false,
	} {
		s.metric = metric
		assert.Equal(t, want, s.HigherIsBetter(), string(metric))
		assert.Equal(t, want, HigherIsBetter(s), string(metric))
	}
}
