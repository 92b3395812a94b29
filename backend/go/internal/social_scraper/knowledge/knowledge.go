// Package knowledge turns aggregated social media payloads into knowledge entries and user insights.
package knowledge

import (
	"fmt"
	"time"

	"Orbit/backend/go/internal/models"
)

const recentActivityLimit = 5

// BuildKnowledgeBase flattens data into knowledge entries in a fixed order:
// LinkedIn profile, experience, education, LinkedIn posts, Instagram profile,
// Instagram posts, then TikTok profile. Every entry is stamped with now.
func BuildKnowledgeBase(data *models.SocialMediaData, userID uint, now time.Time) []models.KnowledgeEntry {
	entries := []models.KnowledgeEntry{}
	if data == nil {
		return entries
	}
	add := func(platform models.Platform, dataType, content string, metadata map[string]interface{}) {
		entries = append(entries, models.KnowledgeEntry{
			UserID:    userID,
			Platform:  string(platform),
			DataType:  dataType,
			Content:   content,
			Metadata:  metadata,
			CreatedAt: now,
		})
	}

	if li := data.LinkedIn; li != nil {
		add(models.PlatformLinkedIn, models.DataTypeProfile,
			fmt.Sprintf("Name: %s, Position: %s, Location: %s", li.Name, li.Position, li.City),
			map[string]interface{}{
				"followers":   int64(li.Followers),
				"connections": int64(li.Connections),
				"country":     li.CountryCode,
			})
		for i, exp := range li.Experience {
			add(models.PlatformLinkedIn, models.DataTypeExperience,
				fmt.Sprintf("%s at %s - %s", exp.Title, exp.Company, exp.Duration),
				map[string]interface{}{
					"company":  exp.Company,
					"title":    exp.Title,
					"duration": exp.Duration,
					"location": exp.Location,
					"index":    i,
				})
		}
		for i, edu := range li.Education {
			add(models.PlatformLinkedIn, models.DataTypeEducation,
				fmt.Sprintf("%s from %s (%s-%s)", edu.Degree, edu.Title, edu.StartYear, edu.EndYear),
				map[string]interface{}{
					"institution": edu.Title,
					"degree":      edu.Degree,
					"startYear":   edu.StartYear,
					"endYear":     edu.EndYear,
					"index":       i,
				})
		}
	}

	for i, post := range data.LinkedInPosts {
		add(models.PlatformLinkedIn, models.DataTypePost, orDefault(post.Description, "LinkedIn post"),
			map[string]interface{}{
				"likes":      int64(post.Likes),
				"comments":   int64(post.NumComments),
				"datePosted": post.DatePosted,
				"index":      i,
			})
	}

	if ig := data.Instagram; ig != nil {
		add(models.PlatformInstagram, models.DataTypeProfile,
			"Instagram profile: "+orDefault(ig.Username, "Unknown"),
			map[string]interface{}{
				"followers": int64(ig.Followers),
				"posts":     int64(ig.PostsCount),
				"verified":  ig.IsVerified,
			})
	}

	for i, post := range data.InstagramPosts {
		add(models.PlatformInstagram, models.DataTypePost, orDefault(post.Description, "Instagram post"),
			map[string]interface{}{
				"likes":       int64(post.Likes),
				"comments":    int64(post.NumComments),
				"hashtags":    post.Hashtags,
				"datePosted":  post.DatePosted,
				"contentType": post.ContentType,
				"index":       i,
			})
	}

	if tt := data.TikTok; tt != nil {
		add(models.PlatformTikTok, models.DataTypeProfile,
			"TikTok profile: "+orDefault(tt.Username, "Unknown"),
			map[string]interface{}{
				"followers": int64(tt.Followers),
				"posts":     int64(tt.PostsCount),
				"verified":  tt.IsVerified,
			})
	}

	return entries
}

// GenerateUserInsights derives a profile summary from LinkedIn and Instagram posts data.
// List fields are de-duplicated keeping first occurrence and are never nil.
func GenerateUserInsights(data *models.SocialMediaData, userID uint) models.UserInsights {
	insights := models.UserInsights{
		UserID:         userID,
		Interests:      []string{},
		Skills:         []string{},
		Companies:      []string{},
		Education:      []string{},
		RecentActivity: []string{},
	}
	if data == nil {
		return insights
	}

	if li := data.LinkedIn; li != nil {
		insights.ProfessionalSummary = li.About
		for _, exp := range li.Experience {
			if exp.Company != "" {
				insights.Companies = append(insights.Companies, exp.Company)
			}
			if exp.Title != "" {
				insights.Skills = append(insights.Skills, exp.Title)
			}
		}
		for _, edu := range li.Education {
			if edu.Title != "" {
				insights.Education = append(insights.Education, edu.Title)
			}
		}
		activity := li.Activity
		if len(activity) > recentActivityLimit {
			activity = activity[:recentActivityLimit]
		}
		for _, a := range activity {
			if a.Title != "" {
				insights.RecentActivity = append(insights.RecentActivity, a.Title)
			}
		}
		insights.EngagementMetrics.TotalFollowers += int64(li.Followers)
	}

	if posts := data.InstagramPosts; posts != nil {
		var totalLikes int64
		for _, post := range posts {
			insights.Interests = append(insights.Interests, post.Hashtags...)
			totalLikes += int64(post.Likes)
		}
		insights.EngagementMetrics.TotalPosts += len(posts)
		if len(posts) > 0 {
			insights.EngagementMetrics.AverageLikes = float64(totalLikes) / float64(len(posts))
		}
	}

	insights.Interests = dedup(insights.Interests)
	insights.Skills = dedup(insights.Skills)
	insights.Companies = dedup(insights.Companies)
	insights.Education = dedup(insights.Education)
	return insights
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
