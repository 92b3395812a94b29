package store

import (
	"context"
	"fmt"
	"time"

	"Orbit/backend/go/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EntryWithUsername 是知识条目与其所属用户名的联表结果。
type EntryWithUsername struct {
	ID             uint
	UserID         uint
	Username       string
	Title          string
	Content        string
	SourcePlatform string
	SourceType     string
	Summary        *string
	Keywords       datatypes.JSON
	Topics         datatypes.JSON
}

// UserRow 是建立用户向量所需的字段。
type UserRow struct {
	ID        uint
	Username  string
	CreatedAt time.Time
}

// SourceStore 读取需要写入向量库的关系数据。
type SourceStore struct {
	DB *gorm.DB
}

// NewSourceStore 创建一个 SourceStore。
func NewSourceStore(db *gorm.DB) *SourceStore {
	return &SourceStore{DB: db}
}

// ListUsers 返回全部用户。
func (s *SourceStore) ListUsers(ctx context.Context) ([]UserRow, error) {
	var rows []UserRow
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Select("id", "username", "created_at").
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return rows, nil
}

// ListEntriesWithUsername 返回全部知识条目，并联表带出用户名。
func (s *SourceStore) ListEntriesWithUsername(ctx context.Context) ([]EntryWithUsername, error) {
	var rows []EntryWithUsername
	err := s.DB.WithContext(ctx).Table("knowledge_base_entry").
		Select("knowledge_base_entry.id, knowledge_base_entry.user_id, users.username, " +
			"knowledge_base_entry.title, knowledge_base_entry.content, knowledge_base_entry.source_platform, " +
			"knowledge_base_entry.source_type, knowledge_base_entry.summary, " +
			"knowledge_base_entry.keywords, knowledge_base_entry.topics").
		Joins("JOIN users ON users.id = knowledge_base_entry.user_id").
		Order("knowledge_base_entry.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询知识条目失败: %w", err)
	}
	return rows, nil
}
