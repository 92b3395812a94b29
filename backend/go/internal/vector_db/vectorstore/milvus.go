package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"Orbit/backend/go/internal/database/milvus"
	"Orbit/backend/go/pkg/logger"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Scalar fields of the Milvus collection.
const (
	FieldID           = "id"
	FieldContent      = "content"
	FieldUserID       = "user_id"
	FieldDocumentType = "document_type"
	FieldMetadata     = "metadata"
)

var filterColumns = map[string]string{
	MetaUserID:       FieldUserID,
	MetaDocumentType: FieldDocumentType,
}

// MilvusStore implements VectorStore on top of the shared Milvus client.
type MilvusStore struct {
	log         *logger.Logger
	client      client.Client
	collection  string
	vectorField string
	dim         int
	contentMax  int // content 列的最大字节数，0 表示不截断
	metric      entity.MetricType
	searchParam entity.SearchParam
}

// NewMilvusStore creates a MilvusStore for the collection configured on milvusClient.
func NewMilvusStore(milvusClient *milvus.MilvusClient, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	sp, err := milvusClient.SearchParam()
	if err != nil {
		return nil, err
	}
	return &MilvusStore{
		log:         log,
		client:      milvusClient.Client,
		collection:  milvusClient.Config.Schema.CollectionName,
		vectorField: milvusClient.Config.Schema.VectorField,
		dim:         milvusClient.Dim(),
		contentMax:  milvusClient.MaxLength(FieldContent),
		metric:      milvusClient.MetricType(),
		searchParam: sp,
	}, nil
}

// Add inserts docs as one batch. Metadata is stored as a JSON column; userId and
// documentType are also copied into scalar columns for filtering.
func (s *MilvusStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	contents := make([]string, len(docs))
	userIDs := make([]string, len(docs))
	docTypes := make([]string, len(docs))
	metadata := make([][]byte, len(docs))
	embeddings := make([][]float32, len(docs))

	for i, doc := range docs {
		if len(doc.Embedding) != s.dim {
			return fmt.Errorf("document %d: embedding has %d dimensions, collection expects %d", i, len(doc.Embedding), s.dim)
		}
		ids[i] = doc.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		}
		contents[i] = truncateUTF8(doc.Text, s.contentMax)
		userIDs[i] = metaString(doc.Metadata, MetaUserID)
		docTypes[i] = metaString(doc.Metadata, MetaDocumentType)
		raw, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("document %d: encode metadata: %w", i, err)
		}
		metadata[i] = raw
		embeddings[i] = doc.Embedding
	}

	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldContent, contents),
		entity.NewColumnVarChar(FieldUserID, userIDs),
		entity.NewColumnVarChar(FieldDocumentType, docTypes),
		entity.NewColumnJSONBytes(FieldMetadata, metadata),
		entity.NewColumnFloatVector(s.vectorField, s.dim, embeddings),
	)
	if err != nil {
		s.log.WithErr(err, "milvus_error").Error("Failed to insert documents into Milvus")
		return fmt.Errorf("failed to insert data into Milvus: %w", err)
	}
	s.log.WithPayload(map[string]interface{}{"collection": s.collection, "count": len(docs)}).
		Debug("Inserted documents into Milvus")
	return nil
}

// Query runs a vector search with an optional scalar filter.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]ScoredDocument, error) {
	expr, err := buildFilterExpression(filters)
	if err != nil {
		return nil, err
	}

	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, expr,
		[]string{FieldID, FieldContent, FieldMetadata},
		[]entity.Vector{entity.FloatVector(embedding)},
		s.vectorField, s.metric, topK, s.searchParam,
	)
	if err != nil {
		s.log.WithErr(err, "milvus_error").WithField("filter", expr).Error("Failed to search in Milvus")
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	results := []ScoredDocument{}
	for _, res := range searchResults {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := findColumn(FieldID).(*entity.ColumnVarChar)
		if !ok {
			s.log.Warn("Search result is missing the id field, skipping")
			continue
		}
		var contents []string
		if col, ok := findColumn(FieldContent).(*entity.ColumnVarChar); ok {
			contents = col.Data()
		}
		var metas [][]byte
		if col, ok := findColumn(FieldMetadata).(*entity.ColumnJSONBytes); ok {
			metas = col.Data()
		}

		ids := idCol.Data()
		for i := 0; i < res.ResultCount && i < len(ids); i++ {
			doc := ScoredDocument{Document: Document{ID: ids[i], Metadata: map[string]interface{}{}}}
			if i < len(res.Scores) {
				doc.Score = res.Scores[i]
			}
			if i < len(contents) {
				doc.Text = contents[i]
			}
			if i < len(metas) && len(metas[i]) > 0 {
				if err := json.Unmarshal(metas[i], &doc.Metadata); err != nil {
					s.log.WithErr(err, "milvus_error").WithField("id", ids[i]).Warn("Invalid metadata in search result")
				}
			}
			results = append(results, doc)
		}
	}
	return results, nil
}

// HigherIsBetter is false for distance metrics (L2, HAMMING, JACCARD), where the
// smallest score is the closest match.
func (s *MilvusStore) HigherIsBetter() bool {
	switch s.metric {
	case entity.L2, entity.HAMMING, entity.JACCARD:
		return false
	default:
		return true
	}
}

// buildFilterExpression turns filters into a Milvus boolean expression.
// Keys are sorted so the expression is stable; values are quoted and escaped.
func buildFilterExpression(filters map[string]string) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	for _, k := range keys {
		column, ok := filterColumns[k]
		if !ok {
			return "", fmt.Errorf("unsupported filter key %q", k)
		}
		conditions = append(conditions, fmt.Sprintf(`%s == "%s"`, column, escape(filters[k])))
	}
	return strings.Join(conditions, " and "), nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune. n <= 0 keeps s.
func truncateUTF8(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

func metaString(meta map[string]interface{}, key string) string {
	switch v := meta[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

var (
	_ VectorStore = (*MilvusStore)(nil)
	_ Ranker      = (*MilvusStore)(nil)
)
