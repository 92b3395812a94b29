package brightdata

import "Orbit/backend/go/internal/models"

// Target 是一个 BrightData 数据集抓取目标，取值同时也是配置中 datasets 的键。
type Target string

const (
	LinkedInProfile  Target = "linkedin_profile"
	LinkedInPosts    Target = "linkedin_posts"
	InstagramProfile Target = "instagram_profile"
	InstagramPosts   Target = "instagram_posts"
	TikTokProfile    Target = "tiktok_profile"
	FacebookProfile  Target = "facebook_profile"
	TwitterProfile   Target = "twitter_profile"
	YouTubeProfile   Target = "youtube_profile"
)

type targetInfo struct {
	label    string
	noData   string
	result   string
	platform models.Platform
	posts    bool
	// extra 是追加到 trigger URL 上的查询参数。
	extra [][2]string
}

var targets = map[Target]targetInfo{
	LinkedInProfile: {
		label:    "LinkedIn Profile",
		noData:   "No data returned from LinkedIn scraping",
		result:   "linkedin",
		platform: models.PlatformLinkedIn,
	},
	LinkedInPosts: {
		label:    "LinkedIn Posts",
		noData:   "No data returned from LinkedIn posts scraping",
		result:   "linkedin_posts",
		platform: models.PlatformLinkedIn,
		posts:    true,
		extra:    [][2]string{{"type", "discover_new"}, {"discover_by", "profile_url"}},
	},
	InstagramProfile: {
		label:    "Instagram Profile",
		noData:   "No data returned from Instagram profile scraping",
		result:   "instagram",
		platform: models.PlatformInstagram,
	},
	InstagramPosts: {
		label:    "Instagram Posts",
		noData:   "No data returned from Instagram posts scraping",
		result:   "instagram_posts",
		platform: models.PlatformInstagram,
		posts:    true,
		extra:    [][2]string{{"type", "discover_new"}, {"discover_by", "url"}},
	},
	TikTokProfile: {
		label:    "TikTok Profile",
		noData:   "No data returned from TikTok scraping",
		result:   "tiktok",
		platform: models.PlatformTikTok,
	},
	FacebookProfile: {
		label:    "Facebook Profile",
		noData:   "No data returned from Facebook scraping",
		result:   "facebook",
		platform: models.PlatformFacebook,
	},
	TwitterProfile: {
		label:    "Twitter Profile",
		noData:   "No data returned from Twitter scraping",
		result:   "twitter",
		platform: models.PlatformTwitter,
	},
	YouTubeProfile: {
		label:    "YouTube Profile",
		noData:   "No data returned from YouTube scraping",
		result:   "youtube",
		platform: models.PlatformYouTube,
	},
}

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	_, ok := targets[t]
	return ok
}

// Label is the human-readable name used in scrape reports, e.g. "LinkedIn Posts".
func (t Target) Label() string {
	if info, ok := targets[t]; ok {
		return info.label
	}
	return string(t)
}

// Platform returns the platform the target belongs to.
func (t Target) Platform() models.Platform {
	return targets[t].platform
}

// IsPosts reports whether the target returns a posts collection rather than a single profile.
func (t Target) IsPosts() bool {
	return targets[t].posts
}

// ResultPlatform is the platform tag carried by ScrapeResult, e.g. "instagram_posts".
func (t Target) ResultPlatform() string {
	if info, ok := targets[t]; ok {
		return info.result
	}
	return string(t)
}

// ProfileTarget returns the profile target for p.
func ProfileTarget(p models.Platform) Target {
	return Target(string(p) + "_profile")
}

// PostsTarget returns the posts target for p. Only LinkedIn and Instagram have one.
func PostsTarget(p models.Platform) (Target, bool) {
	switch p {
	case models.PlatformLinkedIn:
		return LinkedInPosts, true
	case models.PlatformInstagram:
		return InstagramPosts, true
	default:
		return "", false
	}
}
