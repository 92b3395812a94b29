package models

import (
	"time"

	"gorm.io/datatypes"
)

// User 是平台用户。六个社交平台链接均可为空，SocialMediaData 保存最近一次抓取的聚合结果。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Username string `gorm:"type:varchar(191);uniqueIndex;not null" json:"username"`
	Password string `gorm:"type:varchar(255);not null" json:"-"`

	LinkedInURL  *string `gorm:"column:linkedin_url;type:varchar(512)" json:"linkedin_url"`
	InstagramURL *string `gorm:"column:instagram_url;type:varchar(512)" json:"instagram_url"`
	TikTokURL    *string `gorm:"column:tiktok_url;type:varchar(512)" json:"tiktok_url"`
	FacebookURL  *string `gorm:"column:facebook_url;type:varchar(512)" json:"facebook_url"`
	TwitterURL   *string `gorm:"column:twitter_url;type:varchar(512)" json:"twitter_url"`
	YouTubeURL   *string `gorm:"column:youtube_url;type:varchar(512)" json:"youtube_url"`

	SocialMediaData datatypes.JSON `gorm:"column:social_media_data" json:"social_media_data,omitempty"`
	LastScrapedAt   *time.Time     `gorm:"column:last_scraped_at" json:"last_scraped_at"`
}

// TableName 指定 User 模型对应的表名。
func (User) TableName() string {
	return "users"
}

// ProfileURL 返回用户在指定平台上的主页链接，未配置时返回空字符串。
func (u *User) ProfileURL(p Platform) string {
	var v *string
	switch p {
	case PlatformLinkedIn:
		v = u.LinkedInURL
	case PlatformInstagram:
		v = u.InstagramURL
	case PlatformTikTok:
		v = u.TikTokURL
	case PlatformFacebook:
		v = u.FacebookURL
	case PlatformTwitter:
		v = u.TwitterURL
	case PlatformYouTube:
		v = u.YouTubeURL
	}
	if v == nil {
		return ""
	}
	return *v
}

// UserContact 记录用户与其联系人（同样是 User）之间的关系。
type UserContact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_contact" json:"user_id"`
	ContactID uint      `gorm:"not null;index;uniqueIndex:idx_user_contact" json:"contact_id"`
}

// TableName 指定 UserContact 模型对应的表名。
func (UserContact) TableName() string {
	return "user_contacts"
}

// SocialMediaURLs 是更新社交链接时的局部更新载荷，nil 字段保持不变。
type SocialMediaURLs struct {
	LinkedInURL  *string `json:"linkedin_url,omitempty"`
	FacebookURL  *string `json:"facebook_url,omitempty"`
	InstagramURL *string `json:"instagram_url,omitempty"`
	TwitterURL   *string `json:"twitter_url,omitempty"`
	YouTubeURL   *string `json:"youtube_url,omitempty"`
	TikTokURL    *string `json:"tiktok_url,omitempty"`
}

// Columns 将非 nil 字段转换为 gorm Updates 使用的列映射。
func (u SocialMediaURLs) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	set := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	set("linkedin_url", u.LinkedInURL)
	set("facebook_url", u.FacebookURL)
	set("instagram_url", u.InstagramURL)
	set("twitter_url", u.TwitterURL)
	set("youtube_url", u.YouTubeURL)
	set("tiktok_url", u.TikTokURL)
	return cols
}
