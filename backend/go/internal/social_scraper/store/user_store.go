package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Orbit/backend/go/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrUserNotFound 表示用户不存在。
var ErrUserNotFound = errors.New("user not found")

// UserStore 负责用户、联系人以及社交数据聚合结果的读写。
type UserStore struct {
	DB  *gorm.DB
	now func() time.Time
}

// NewUserStore 创建一个 UserStore。
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{DB: db, now: time.Now}
}

// FindByID 通过 ID 查找用户，不存在时返回 ErrUserNotFound。
func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("查询用户 %d 失败: %w", id, err)
	}
	return &user, nil
}

// GetContacts 返回用户的全部联系人，按联系关系建立的先后排序。
func (s *UserStore) GetContacts(ctx context.Context, userID uint) ([]models.User, error) {
	var contacts []models.User
	err := s.DB.WithContext(ctx).
		Joins("JOIN user_contacts ON user_contacts.contact_id = users.id").
		Where("user_contacts.user_id = ?", userID).
		Order("user_contacts.id").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户 %d 的联系人失败: %w", userID, err)
	}
	return contacts, nil
}

// CheckContactExists 判断 contactID 是否在 userID 的联系人列表中。
func (s *UserStore) CheckContactExists(ctx context.Context, userID, contactID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.UserContact{}).
		Where("user_id = ? AND contact_id = ?", userID, contactID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询联系人关系失败: %w", err)
	}
	return count > 0, nil
}

// UpdateSocialMediaURLs 只更新 urls 中非 nil 的字段，并返回更新后的用户。
func (s *UserStore) UpdateSocialMediaURLs(ctx context.Context, userID uint, urls models.SocialMediaURLs) (*models.User, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cols := urls.Columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(user).Updates(cols).Error; err != nil {
			return nil, fmt.Errorf("更新用户 %d 的社交链接失败: %w", userID, err)
		}
	}
	return s.FindByID(ctx, userID)
}

// UpdateSocialMediaData 覆盖写入聚合数据并刷新 last_scraped_at。并发写入时以最后一次为准。
func (s *UserStore) UpdateSocialMediaData(ctx context.Context, userID uint, data *models.SocialMediaData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化社交数据失败: %w", err)
	}
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"social_media_data": datatypes.JSON(raw),
		"last_scraped_at":   s.now(),
	})
	if res.Error != nil {
		return fmt.Errorf("更新用户 %d 的社交数据失败: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return nil
}
