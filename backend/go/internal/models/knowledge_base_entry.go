package models

import (
	"time"

	"gorm.io/datatypes"
)

// KnowledgeBaseEntry 是持久化后的知识条目，对应 knowledge_base_entry 表。
// 同一来源重复抓取会产生重复行，表上不设唯一约束。
type KnowledgeBaseEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID         uint    `gorm:"not null;index" json:"user_id"`
	Title          string  `gorm:"type:varchar(255);not null" json:"title"`
	Content        string  `gorm:"type:text;not null" json:"content"`
	SourcePlatform string  `gorm:"type:varchar(64);not null;index" json:"source_platform"`
	SourceType     string  `gorm:"type:varchar(64);not null" json:"source_type"`
	SourceID       *string `gorm:"type:varchar(255)" json:"source_id"`
	SourceURL      *string `gorm:"type:varchar(512)" json:"source_url"`

	Summary         *string        `gorm:"type:text" json:"summary"`
	Keywords        datatypes.JSON `json:"keywords"`
	Sentiment       *string        `gorm:"type:varchar(32)" json:"sentiment"`
	Topics          datatypes.JSON `json:"topics"`
	ConfidenceScore *float64       `json:"confidence_score"`

	IsProcessed     bool    `gorm:"not null;default:false" json:"is_processed"`
	ProcessingError *string `gorm:"type:text" json:"processing_error"`
}

// TableName 指定 KnowledgeBaseEntry 模型对应的表名。
func (KnowledgeBaseEntry) TableName() string {
	return "knowledge_base_entry"
}

// KnowledgeEntry 是知识提取器的输出，尚未持久化。
type KnowledgeEntry struct {
	UserID    uint                   `json:"userId"`
	Platform  string                 `json:"platform"`
	DataType  string                 `json:"dataType"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"createdAt"`
}

// 知识条目的数据类型。
const (
	DataTypeProfile    = "profile"
	DataTypePost       = "post"
	DataTypeExperience = "experience"
	DataTypeEducation  = "education"
)

// EngagementMetrics 汇总了用户在各平台上的互动数据。
type EngagementMetrics struct {
	TotalFollowers int64   `json:"totalFollowers"`
	TotalPosts     int     `json:"totalPosts"`
	AverageLikes   float64 `json:"averageLikes"`
}

// UserInsights 是从聚合数据实时推导的用户画像，不落库。
type UserInsights struct {
	UserID              uint              `json:"userId"`
	ProfessionalSummary string            `json:"professionalSummary"`
	Interests           []string          `json:"interests"`
	Skills              []string          `json:"skills"`
	Companies           []string          `json:"companies"`
	Education           []string          `json:"education"`
	RecentActivity      []string          `json:"recentActivity"`
	EngagementMetrics   EngagementMetrics `json:"engagementMetrics"`
}
