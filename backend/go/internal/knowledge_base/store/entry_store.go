package store

import (
	"context"
	"errors"
	"fmt"

	"Orbit/backend/go/internal/models"

	"gorm.io/gorm"
)

// ErrEntryNotFound 表示知识库条目不存在。
var ErrEntryNotFound = errors.New("knowledge base entry not found")

// ErrUserNotFound 表示条目所属用户不存在。
var ErrUserNotFound = errors.New("user not found")

// EntryStore 负责 knowledge_base_entry 表的读写。
type EntryStore struct {
	DB *gorm.DB
}

// NewEntryStore 创建一个 EntryStore。
func NewEntryStore(db *gorm.DB) *EntryStore {
	return &EntryStore{DB: db}
}

// Create 插入一条知识库条目，成功后 entry.ID 被回填。
func (s *EntryStore) Create(ctx context.Context, entry *models.KnowledgeBaseEntry) error {
	if err := s.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("插入知识库条目失败: %w", err)
	}
	return nil
}

// ListByUser 返回用户的全部条目，按插入顺序排列。
func (s *EntryStore) ListByUser(ctx context.Context, userID uint) ([]models.KnowledgeBaseEntry, error) {
	entries := []models.KnowledgeBaseEntry{}
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("查询用户 %d 的知识库条目失败: %w", userID, err)
	}
	return entries, nil
}

// GetByID 通过 ID 查找条目，不存在时返回 ErrEntryNotFound。
func (s *EntryStore) GetByID(ctx context.Context, id uint) (*models.KnowledgeBaseEntry, error) {
	var entry models.KnowledgeBaseEntry
	if err := s.DB.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrEntryNotFound, id)
		}
		return nil, fmt.Errorf("查询知识库条目 %d 失败: %w", id, err)
	}
	return &entry, nil
}

// UsernameByID 返回用户的用户名。
func (s *EntryStore) UsernameByID(ctx context.Context, userID uint) (string, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Select("id", "username").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		return "", fmt.Errorf("查询用户 %d 失败: %w", userID, err)
	}
	return user.Username, nil
}
