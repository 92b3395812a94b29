package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"Orbit/backend/go/internal/embedding"
	"Orbit/backend/go/internal/vector_db/store"
	"Orbit/backend/go/internal/vector_db/vectorstore"
	"Orbit/backend/go/pkg/logger"
)

// DefaultQueryLimit is used when a query asks for zero or fewer results.
const DefaultQueryLimit = 5

var (
	// ErrNotInitialized is returned by every method when the vector store could not be set up.
	ErrNotInitialized = errors.New("vector store not initialized")
	// ErrUnknownIndexKind is returned by BulkIndexAll for kinds other than users and knowledge.
	ErrUnknownIndexKind = errors.New("unknown index kind")
)

// Bulk index kinds.
const (
	KindUsers     = "users"
	KindKnowledge = "knowledge"
)

// SourceStore reads the rows that get indexed.
type SourceStore interface {
	ListUsers(ctx context.Context) ([]store.UserRow, error)
	ListEntriesWithUsername(ctx context.Context) ([]store.EntryWithUsername, error)
}

// KnowledgeDocument is a knowledge base entry to be embedded.
type KnowledgeDocument struct {
	ID             uint     `json:"id" binding:"required"`
	UserID         uint     `json:"userId" binding:"required"`
	Username       string   `json:"username"`
	Title          string   `json:"title" binding:"required"`
	Content        string   `json:"content" binding:"required"`
	SourcePlatform string   `json:"sourcePlatform" binding:"required"`
	SourceType     string   `json:"sourceType" binding:"required"`
	Summary        string   `json:"summary,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Topics         []string `json:"topics,omitempty"`
}

// BulkIndexResult is returned by the bulk index operations.
type BulkIndexResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// QueryResult is a single semantic search hit.
type QueryResult struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float32                `json:"score"`
}

// Service embeds users and knowledge entries into the vector store and queries them.
type Service struct {
	store     vectorstore.VectorStore
	embedder  embedding.Embedding
	source    SourceStore
	batchSize int
	log       *logger.Logger
	cause     error
}

// New creates a ready Service.
func New(vs vectorstore.VectorStore, embedder embedding.Embedding, source SourceStore, batchSize int, log *logger.Logger) *Service {
	return &Service{store: vs, embedder: embedder, source: source, batchSize: batchSize, log: log}
}

// NewUnavailable creates a Service whose every method fails with ErrNotInitialized.
// cause is the reason initialization failed and is included in returned errors.
func NewUnavailable(cause error, log *logger.Logger) *Service {
	if cause == nil {
		cause = errors.New("unknown cause")
	}
	return &Service{cause: cause, log: log}
}

// Ready reports whether the service can serve requests.
func (s *Service) Ready() error {
	if s.cause != nil {
		return fmt.Errorf("%w: %v", ErrNotInitialized, s.cause)
	}
	return nil
}

// KnowledgeText is the text embedded for a knowledge entry: title and content,
// plus a summary line when a summary is present.
func KnowledgeText(title, content, summary string) string {
	text := title + "\n\n" + content
	if summary != "" {
		text += "\n\nSummary: " + summary
	}
	return text
}

func knowledgeMetadata(id, userID uint, username, title, platform, sourceType string, keywords, topics interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":                         strconv.FormatUint(uint64(id), 10),
		vectorstore.MetaUserID:       strconv.FormatUint(uint64(userID), 10),
		"username":                   username,
		"title":                      title,
		"sourcePlatform":             platform,
		"sourceType":                 sourceType,
		"keywords":                   keywords,
		"topics":                     topics,
		vectorstore.MetaDocumentType: vectorstore.DocumentTypeKnowledgeEntry,
	}
}

func userMetadata(id uint, createdAt time.Time) map[string]interface{} {
	return map[string]interface{}{
		vectorstore.MetaUserID:       strconv.FormatUint(uint64(id), 10),
		"createdAt":                  createdAt.UTC().Format(time.RFC3339),
		vectorstore.MetaDocumentType: vectorstore.DocumentTypeUser,
	}
}

// StoreKnowledgeBaseEntry embeds a single knowledge entry and appends it to the store.
func (s *Service) StoreKnowledgeBaseEntry(ctx context.Context, doc KnowledgeDocument) error {
	if err := s.Ready(); err != nil {
		return err
	}
	text := KnowledgeText(doc.Title, doc.Content, doc.Summary)
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to store knowledge base entry: embed: %w", err)
	}
	err = s.store.Add(ctx, []vectorstore.Document{{
		Text:      text,
		Embedding: vector,
		Metadata: knowledgeMetadata(doc.ID, doc.UserID, doc.Username, doc.Title,
			doc.SourcePlatform, doc.SourceType, doc.Keywords, doc.Topics),
	}})
	if err != nil {
		return fmt.Errorf("failed to store knowledge base entry: %w", err)
	}
	s.log.WithPayload(map[string]interface{}{"entry_id": doc.ID, "user_id": doc.UserID}).
		Info("Stored knowledge base entry in vector store")
	return nil
}

// IndexUser embeds a single user document.
func (s *Service) IndexUser(ctx context.Context, user store.UserRow) error {
	if err := s.Ready(); err != nil {
		return err
	}
	text := "Username: " + user.Username
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to index user %d: %w", user.ID, err)
	}
	return s.store.Add(ctx, []vectorstore.Document{{
		Text:      text,
		Embedding: vector,
		Metadata:  userMetadata(user.ID, user.CreatedAt),
	}})
}

// IndexAllUsers embeds every user. Re-running appends duplicates.
func (s *Service) IndexAllUsers(ctx context.Context) (*BulkIndexResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to index users: %w", err)
	}
	if len(users) == 0 {
		s.log.Info("No users found to index")
		return &BulkIndexResult{Success: true, Message: "No users found to index", Count: 0}, nil
	}

	docs := make([]vectorstore.Document, len(users))
	for i, u := range users {
		docs[i] = vectorstore.Document{Text: "Username: " + u.Username, Metadata: userMetadata(u.ID, u.CreatedAt)}
	}
	if err := s.embedAndAdd(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to index users: %w", err)
	}

	msg := fmt.Sprintf("Indexed %d users into the vector database", len(users))
	s.log.Info(msg)
	return &BulkIndexResult{Success: true, Message: msg, Count: len(users)}, nil
}

// IndexAllKnowledgeBaseEntries embeds every knowledge entry that has an owning user.
func (s *Service) IndexAllKnowledgeBaseEntries(ctx context.Context) (*BulkIndexResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	entries, err := s.source.ListEntriesWithUsername(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to index knowledge base entries: %w", err)
	}
	if len(entries) == 0 {
		s.log.Info("No knowledge base entries found to index")
		return &BulkIndexResult{Success: true, Message: "No knowledge base entries found to index", Count: 0}, nil
	}

	docs := make([]vectorstore.Document, len(entries))
	for i, e := range entries {
		summary := ""
		if e.Summary != nil {
			summary = *e.Summary
		}
		docs[i] = vectorstore.Document{
			Text: KnowledgeText(e.Title, e.Content, summary),
			Metadata: knowledgeMetadata(e.ID, e.UserID, e.Username, e.Title, e.SourcePlatform, e.SourceType,
				rawJSON(e.Keywords), rawJSON(e.Topics)),
		}
	}
	if err := s.embedAndAdd(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to index knowledge base entries: %w", err)
	}

	msg := fmt.Sprintf("Indexed %d knowledge base entries into the vector database", len(entries))
	s.log.Info(msg)
	return &BulkIndexResult{Success: true, Message: msg, Count: len(entries)}, nil
}

// BulkIndexAll dispatches to IndexAllUsers or IndexAllKnowledgeBaseEntries.
func (s *Service) BulkIndexAll(ctx context.Context, kind string) (*BulkIndexResult, error) {
	switch kind {
	case KindUsers:
		return s.IndexAllUsers(ctx)
	case KindKnowledge:
		return s.IndexAllKnowledgeBaseEntries(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndexKind, kind)
	}
}

// QueryKnowledge embeds text and returns the closest documents, best first according
// to the store's metric.
// When userID is set only that user's documents are searched.
func (s *Service) QueryKnowledge(ctx context.Context, text string, userID *uint, limit int) ([]QueryResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: embed: %w", err)
	}

	var filters map[string]string
	if userID != nil {
		filters = map[string]string{vectorstore.MetaUserID: strconv.FormatUint(uint64(*userID), 10)}
	}
	docs, err := s.store.Query(ctx, vector, limit, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}

	higher := vectorstore.HigherIsBetter(s.store)
	sort.SliceStable(docs, func(i, j int) bool {
		if higher {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].Score < docs[j].Score
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	results := make([]QueryResult, len(docs))
	for i, d := range docs {
		meta := d.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		results[i] = QueryResult{Text: d.Text, Metadata: meta, Score: d.Score}
	}
	return results, nil
}

func (s *Service) embedAndAdd(ctx context.Context, docs []vectorstore.Document) error {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := embedding.EmbedInBatches(ctx, s.embedder, texts, s.batchSize)
	if err != nil {
		return err
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}
	return s.store.Add(ctx, docs)
}

func rawJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	return v
}
