package service

import (
	"context"
	"encoding/json"
	"fmt"

	"Orbit/backend/go/internal/models"
	vectorservice "Orbit/backend/go/internal/vector_db/service"
	"Orbit/backend/go/pkg/logger"

	"gorm.io/datatypes"
)

// EntryStore 是知识库条目的持久化接口。
type EntryStore interface {
	Create(ctx context.Context, entry *models.KnowledgeBaseEntry) error
	ListByUser(ctx context.Context, userID uint) ([]models.KnowledgeBaseEntry, error)
	GetByID(ctx context.Context, id uint) (*models.KnowledgeBaseEntry, error)
	UsernameByID(ctx context.Context, userID uint) (string, error)
}

// VectorIndex 是向量库写入与检索接口。
type VectorIndex interface {
	StoreKnowledgeBaseEntry(ctx context.Context, doc vectorservice.KnowledgeDocument) error
	QueryKnowledge(ctx context.Context, text string, userID *uint, limit int) ([]vectorservice.QueryResult, error)
}

// CreateEntryInput 是创建知识库条目的输入，可选字段为空时存为 NULL。
type CreateEntryInput struct {
	UserID          uint     `json:"userId" binding:"required"`
	Title           string   `json:"title" binding:"required"`
	Content         string   `json:"content" binding:"required"`
	SourcePlatform  string   `json:"sourcePlatform" binding:"required"`
	SourceType      string   `json:"sourceType" binding:"required"`
	SourceID        string   `json:"sourceId,omitempty"`
	SourceURL       string   `json:"sourceUrl,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	Sentiment       string   `json:"sentiment,omitempty"`
	Topics          []string `json:"topics,omitempty"`
	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`
}

// CreateEntryResult 是创建成功后的返回值。
type CreateEntryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

// Service 组合了关系库与向量库，提供知识库的增查与语义检索。
type Service struct {
	store  EntryStore
	vector VectorIndex
	log    *logger.Logger
}

// NewService 创建一个新的 Service 实例。
func NewService(store EntryStore, vector VectorIndex, log *logger.Logger) *Service {
	return &Service{store: store, vector: vector, log: log}
}

// CreateEntry 先确认用户存在，再写入关系库和向量库。
// 两次写入之间没有事务，向量写入失败时关系库中的行仍然保留。
func (s *Service) CreateEntry(ctx context.Context, in CreateEntryInput) (*CreateEntryResult, error) {
	username, err := s.store.UsernameByID(ctx, in.UserID)
	if err != nil {
		return nil, s.createFailed(err)
	}

	entry := &models.KnowledgeBaseEntry{
		UserID:          in.UserID,
		Title:           in.Title,
		Content:         in.Content,
		SourcePlatform:  in.SourcePlatform,
		SourceType:      in.SourceType,
		SourceID:        nullable(in.SourceID),
		SourceURL:       nullable(in.SourceURL),
		Summary:         nullable(in.Summary),
		Keywords:        jsonList(in.Keywords),
		Sentiment:       nullable(in.Sentiment),
		Topics:          jsonList(in.Topics),
		ConfidenceScore: in.ConfidenceScore,
		IsProcessed:     true,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, s.createFailed(err)
	}

	err = s.vector.StoreKnowledgeBaseEntry(ctx, vectorservice.KnowledgeDocument{
		ID:             entry.ID,
		UserID:         in.UserID,
		Username:       username,
		Title:          in.Title,
		Content:        in.Content,
		SourcePlatform: in.SourcePlatform,
		SourceType:     in.SourceType,
		Summary:        in.Summary,
		Keywords:       in.Keywords,
		Topics:         in.Topics,
	})
	if err != nil {
		return nil, s.createFailed(err)
	}

	s.log.WithUser(fmt.Sprint(in.UserID)).WithField("entry_id", entry.ID).
		Info("Created and indexed knowledge base entry")
	return &CreateEntryResult{
		Success: true,
		Message: "Knowledge base entry created and indexed successfully",
		ID:      entry.ID,
	}, nil
}

// GetEntries 返回用户的全部条目。
func (s *Service) GetEntries(ctx context.Context, userID uint) ([]models.KnowledgeBaseEntry, error) {
	entries, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.log.WithErr(err, "knowledge_base").Error("Error getting knowledge base entries")
		return nil, fmt.Errorf("failed to get knowledge base entries: %w", err)
	}
	return entries, nil
}

// GetEntry 返回单个条目，不存在时错误包装 store.ErrEntryNotFound。
func (s *Service) GetEntry(ctx context.Context, id uint) (*models.KnowledgeBaseEntry, error) {
	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge base entry: %w", err)
	}
	return entry, nil
}

// QueryKnowledge 在向量库中检索与 query 相似的内容。
func (s *Service) QueryKnowledge(ctx context.Context, query string, userID *uint, limit int) ([]vectorservice.QueryResult, error) {
	results, err := s.vector.QueryKnowledge(ctx, query, userID, limit)
	if err != nil {
		s.log.WithErr(err, "knowledge_base").Error("Error querying knowledge")
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}
	return results, nil
}

func (s *Service) createFailed(err error) error {
	s.log.WithErr(err, "knowledge_base").Error("Error creating knowledge base entry")
	return fmt.Errorf("failed to create knowledge base entry: %w", err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonList(v []string) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
