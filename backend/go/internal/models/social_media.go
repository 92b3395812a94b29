package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Platform 表示受支持的社交平台。
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformYouTube   Platform = "youtube"
)

// Platforms 按抓取顺序列出所有平台。
var Platforms = []Platform{
	PlatformLinkedIn,
	PlatformInstagram,
	PlatformTikTok,
	PlatformFacebook,
	PlatformTwitter,
	PlatformYouTube,
}

// Count 是一个宽松的计数类型：接受 JSON 数字、数字字符串（可带千分位逗号）和 null。
// 无法解析的字符串按 0 处理。
type Count int64

// UnmarshalJSON 实现 json.Unmarshaler。
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*c = 0
			return nil
		}
		*c = Count(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("count: %w", err)
	}
	*c = Count(f)
	return nil
}

// LinkedInExperience 是领英履历中的一段工作经历。
type LinkedInExperience struct {
	Company   string `json:"company,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Location  string `json:"location,omitempty"`
	URL       string `json:"url,omitempty"`
}

// LinkedInEducation 是领英上的一段教育经历，Title 为学校名称。
type LinkedInEducation struct {
	Title     string `json:"title,omitempty"`
	Degree    string `json:"degree,omitempty"`
	StartYear string `json:"start_year,omitempty"`
	EndYear   string `json:"end_year,omitempty"`
	URL       string `json:"url,omitempty"`
}

// LinkedInActivity 是领英动态流中的一条记录。
type LinkedInActivity struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Interaction string `json:"interaction,omitempty"`
	Link        string `json:"link,omitempty"`
}

// LinkedInProfile 是 BrightData 返回的领英个人主页数据中本服务使用到的部分。
type LinkedInProfile struct {
	LinkedInID         string               `json:"linkedin_id,omitempty"`
	URL                string               `json:"url"`
	InputURL           string               `json:"input_url,omitempty"`
	Name               string               `json:"name"`
	FirstName          string               `json:"first_name,omitempty"`
	LastName           string               `json:"last_name,omitempty"`
	Position           string               `json:"position,omitempty"`
	About              string               `json:"about,omitempty"`
	City               string               `json:"city,omitempty"`
	CountryCode        string               `json:"country_code,omitempty"`
	CurrentCompanyName string               `json:"current_company_name,omitempty"`
	Followers          Count                `json:"followers"`
	Connections        Count                `json:"connections"`
	Avatar             string               `json:"avatar,omitempty"`
	Experience         []LinkedInExperience `json:"experience,omitempty"`
	Education          []LinkedInEducation  `json:"education,omitempty"`
	Activity           []LinkedInActivity   `json:"activity,omitempty"`
}

// InstagramProfile 是 Instagram 主页数据。
type InstagramProfile struct {
	Username   string `json:"username"`
	FullName   string `json:"full_name,omitempty"`
	Biography  string `json:"biography,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Followers  Count  `json:"followers"`
	Following  Count  `json:"following,omitempty"`
	PostsCount Count  `json:"posts_count"`
	IsVerified bool   `json:"is_verified"`
}

// TikTokProfile 是 TikTok 主页数据。
type TikTokProfile struct {
	Username   string `json:"username"`
	Nickname   string `json:"nickname,omitempty"`
	ProfileURL string `json:"url,omitempty"`
	Followers  Count  `json:"followers"`
	PostsCount Count  `json:"posts_count"`
	IsVerified bool   `json:"is_verified"`
}

// Post 是一条帖子。领英与 Instagram 的帖子数据集共用这一结构。
type Post struct {
	PostID      string   `json:"post_id,omitempty"`
	URL         string   `json:"url,omitempty"`
	UserPosted  string   `json:"user_posted,omitempty"`
	Description string   `json:"description,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	NumComments Count    `json:"num_comments"`
	Likes       Count    `json:"likes"`
	DatePosted  string   `json:"date_posted,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	Videos      []string `json:"videos,omitempty"`
}

// GenericProfile 用于结构未知的平台（Facebook、Twitter、YouTube），原样保存。
type GenericProfile map[string]interface{}

// SocialMediaData 是一次抓取运行得到的用户聚合数据，整体写入 users.social_media_data。
type SocialMediaData struct {
	LinkedIn       *LinkedInProfile  `json:"linkedin,omitempty"`
	LinkedInPosts  []Post            `json:"linkedin_posts,omitempty"`
	Instagram      *InstagramProfile `json:"instagram,omitempty"`
	InstagramPosts []Post            `json:"instagram_posts,omitempty"`
	TikTok         *TikTokProfile    `json:"tiktok,omitempty"`
	Facebook       GenericProfile    `json:"facebook,omitempty"`
	Twitter        GenericProfile    `json:"twitter,omitempty"`
	YouTube        GenericProfile    `json:"youtube,omitempty"`
	ScrapedAt      string            `json:"scraped_at"`
}

// SetProfile 将已通过校验的主页原始数据解码为对应平台的类型化结构。
func (d *SocialMediaData) SetProfile(p Platform, raw json.RawMessage) error {
	var err error
	switch p {
	case PlatformLinkedIn:
		var v LinkedInProfile
		if err = json.Unmarshal(raw, &v); err == nil {
			d.LinkedIn = &v
		}
	case PlatformInstagram:
		var v InstagramProfile
		if err = json.Unmarshal(raw, &v); err == nil {
			d.Instagram = &v
		}
	case PlatformTikTok:
		var v TikTokProfile
		if err = json.Unmarshal(raw, &v); err == nil {
			d.TikTok = &v
		}
	case PlatformFacebook, PlatformTwitter, PlatformYouTube:
		var v GenericProfile
		if err = json.Unmarshal(raw, &v); err == nil {
			switch p {
			case PlatformFacebook:
				d.Facebook = v
			case PlatformTwitter:
				d.Twitter = v
			default:
				d.YouTube = v
			}
		}
	default:
		return fmt.Errorf("unsupported platform %q", p)
	}
	if err != nil {
		return fmt.Errorf("decode %s profile: %w", p, err)
	}
	return nil
}

// SetPosts 解码帖子列表。只有领英和 Instagram 有帖子数据集。
func (d *SocialMediaData) SetPosts(p Platform, raw json.RawMessage) error {
	posts := []Post{}
	if err := json.Unmarshal(raw, &posts); err != nil {
		return fmt.Errorf("decode %s posts: %w", p, err)
	}
	switch p {
	case PlatformLinkedIn:
		d.LinkedInPosts = posts
	case PlatformInstagram:
		d.InstagramPosts = posts
	default:
		return fmt.Errorf("platform %q has no posts dataset", p)
	}
	return nil
}
