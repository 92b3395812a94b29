// Package vectorstore stores embedded documents and runs similarity search over them.
package vectorstore

import "context"

// Document types stored in the collection.
const (
	DocumentTypeUser           = "user"
	DocumentTypeKnowledgeEntry = "knowledge_base_entry"
)

// Metadata keys promoted to scalar columns so they can be filtered on.
const (
	MetaUserID       = "userId"
	MetaDocumentType = "documentType"
)

// Document is a piece of text, its embedding and arbitrary metadata.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]interface{}
}

// ScoredDocument is a search hit. Whether a higher Score is more similar depends on
// the metric; see Ranker.
type ScoredDocument struct {
	Document
	Score float32
}

// VectorStore is the storage backend for embedded documents.
type VectorStore interface {
	// Add inserts docs. Documents without an ID get a generated one.
	Add(ctx context.Context, docs []Document) error
	// Query returns up to topK documents closest to embedding, restricted by filters.
	// Only MetaUserID and MetaDocumentType can be used as filter keys.
	Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]ScoredDocument, error)
}

// Ranker is implemented by stores whose score direction depends on configuration.
// Stores that do not implement it are assumed to rank higher scores first.
type Ranker interface {
	HigherIsBetter() bool
}

// HigherIsBetter reports the score direction of vs.
func HigherIsBetter(vs VectorStore) bool {
	if r, ok := vs.(Ranker); ok {
		return r.HigherIsBetter()
	}
	return true
}
