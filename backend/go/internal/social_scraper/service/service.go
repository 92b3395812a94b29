package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	kbservice "Orbit/backend/go/internal/knowledge_base/service"
	"Orbit/backend/go/internal/models"
	"Orbit/backend/go/internal/social_scraper/brightdata"
	"Orbit/backend/go/internal/social_scraper/knowledge"
	"Orbit/backend/go/internal/social_scraper/publisher"
	"Orbit/backend/go/internal/social_scraper/validator"
	"Orbit/backend/go/pkg/logger"
)

// isoMillis 与前端约定的时间格式（UTC，毫秒精度）。
const isoMillis = "2006-01-02T15:04:05.000Z"

const validationFailed = "Data validation failed"

var (
	// ErrContactNotLinked 表示 contactID 不在用户的联系人列表中。
	ErrContactNotLinked = errors.New("contact is not in user's contact list")
	// ErrNoLinkedInURL 表示用户未配置领英链接。
	ErrNoLinkedInURL = errors.New("user has no LinkedIn URL")
)

// UserRepository 是用户与联系人的持久化接口。
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	GetContacts(ctx context.Context, userID uint) ([]models.User, error)
	CheckContactExists(ctx context.Context, userID, contactID uint) (bool, error)
	UpdateSocialMediaURLs(ctx context.Context, userID uint, urls models.SocialMediaURLs) (*models.User, error)
	UpdateSocialMediaData(ctx context.Context, userID uint, data *models.SocialMediaData) error
}

// Scraper 抓取单个平台目标。
type Scraper interface {
	ScrapePlatform(ctx context.Context, profileURL string, target brightdata.Target) (json.RawMessage, error)
}

// EntryWriter 持久化并索引一条知识库条目。
type EntryWriter interface {
	CreateEntry(ctx context.Context, in kbservice.CreateEntryInput) (*kbservice.CreateEntryResult, error)
}

// EventPublisher 发布抓取完成事件。
type EventPublisher interface {
	Publish(ctx context.Context, event publisher.ScrapeCompletedEvent) error
}

// PlatformFailure 记录一个失败的抓取目标。
type PlatformFailure struct {
	Platform string `json:"platform"`
	Error    string `json:"error"`
}

// ScrapingResults 汇总一次运行中各目标的成败。
type ScrapingResults struct {
	Successful []string          `json:"successful"`
	Failed     []PlatformFailure `json:"failed"`
}

// Insights 包含已持久化的条目与实时推导的用户画像。
type Insights struct {
	KnowledgeBase []*kbservice.CreateEntryResult `json:"knowledgeBase"`
	UserInsights  models.UserInsights            `json:"userInsights"`
}

// ScrapeReport 是单用户抓取运行的结果。
type ScrapeReport struct {
	Message         string                  `json:"message"`
	Data            *models.SocialMediaData `json:"data"`
	Insights        Insights                `json:"insights"`
	ScrapingResults ScrapingResults         `json:"scrapingResults"`
}

// ContactResult 是批量抓取中单个联系人的结果。
type ContactResult struct {
	ContactID       uint                    `json:"contactId"`
	Username        string                  `json:"username"`
	Success         bool                    `json:"success"`
	Data            *models.SocialMediaData `json:"data,omitempty"`
	Insights        *Insights               `json:"insights,omitempty"`
	ScrapingResults *ScrapingResults        `json:"scrapingResults,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

// BulkScrapeReport 是批量联系人抓取的结果。
type BulkScrapeReport struct {
	Message string          `json:"message"`
	Results []ContactResult `json:"results"`
}

// URLUpdateResult 是更新社交链接的结果。
type URLUpdateResult struct {
	Message string       `json:"message"`
	Data    *models.User `json:"data"`
}

// KnowledgeBaseData 是从已保存的聚合数据重建的知识库视图。
type KnowledgeBaseData struct {
	KnowledgeBase []models.KnowledgeEntry `json:"knowledgeBase"`
	UserInsights  models.UserInsights     `json:"userInsights"`
	LastScraped   *string                 `json:"lastScraped"`
}

// KnowledgeBaseView 是 GetKnowledgeBase 的返回值，用户从未抓取过时 Data 为 nil。
type KnowledgeBaseView struct {
	Message string             `json:"message"`
	Data    *KnowledgeBaseData `json:"data"`
}

// DebugResult 是领英调试抓取的结果，不会落库。
type DebugResult struct {
	URL             string          `json:"url"`
	Valid           bool            `json:"valid"`
	ValidationError string          `json:"validationError,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// Service 编排抓取、校验、知识提取、持久化与事件发布。
type Service struct {
	users     UserRepository
	scraper   Scraper
	entries   EntryWriter
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewService 创建一个新的 Service 实例。
func NewService(users UserRepository, scraper Scraper, entries EntryWriter, pub EventPublisher, log *logger.Logger) *Service {
	if pub == nil {
		pub = publisher.NoopPublisher{}
	}
	return &Service{
		users:     users,
		scraper:   scraper,
		entries:   entries,
		publisher: pub,
		log:       log,
		now:       time.Now,
	}
}

// ScrapeUserProfiles 按固定顺序抓取用户配置的所有平台，并将结果写入知识库与用户聚合数据。
// 用户不存在是唯一会中止运行的错误；单个平台失败只记录在 ScrapingResults 中。
func (s *Service) ScrapeUserProfiles(ctx context.Context, userID uint) (*ScrapeReport, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithUser(strconv.FormatUint(uint64(userID), 10))

	now := s.now()
	data := &models.SocialMediaData{ScrapedAt: now.UTC().Format(isoMillis)}
	results := ScrapingResults{Successful: []string{}, Failed: []PlatformFailure{}}

	for _, p := range models.Platforms {
		profileURL := user.ProfileURL(p)
		if profileURL == "" {
			continue
		}
		target := brightdata.ProfileTarget(p)
		log.Info(fmt.Sprintf("Scraping %s for user %d", target.Label(), userID))

		raw, err := s.scraper.ScrapePlatform(ctx, profileURL, target)
		if err != nil {
			results.fail(target.Label(), err.Error())
			continue
		}
		if err := acceptProfile(data, p, raw); err != nil {
			log.WithErr(err, "validation_error").Warn(fmt.Sprintf("%s rejected", target.Label()))
			results.fail(target.Label(), validationFailed)
		} else {
			results.Successful = append(results.Successful, target.Label())
		}

		// 只要主页抓取本身成功就继续抓帖子，即使主页校验未通过。
		if postsTarget, ok := brightdata.PostsTarget(p); ok {
			s.scrapePosts(ctx, log, data, &results, p, postsTarget, profileURL)
		}
	}

	entries := knowledge.BuildKnowledgeBase(data, userID, now)
	insights := knowledge.GenerateUserInsights(data, userID)

	persisted := make([]*kbservice.CreateEntryResult, 0, len(entries))
	for _, entry := range entries {
		res, err := s.entries.CreateEntry(ctx, entryInput(entry))
		if err != nil {
			log.WithErr(err, "persist_error").
				Error(fmt.Sprintf("Failed to persist knowledge base entry for user %d", userID))
			continue
		}
		persisted = append(persisted, res)
	}

	if err := s.users.UpdateSocialMediaData(ctx, userID, data); err != nil {
		return nil, fmt.Errorf("failed to update social media data for user %d: %w", userID, err)
	}

	event := publisher.ScrapeCompletedEvent{
		UserID:     userID,
		Successful: results.Successful,
		Failed:     results.failedLabels(),
		EntryCount: len(persisted),
		ScrapedAt:  data.ScrapedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithErr(err, "publish_error").Warn("Failed to publish scrape completed event")
	}

	msg := statusMessage(userID, results)
	log.Info(msg)
	return &ScrapeReport{
		Message:         msg,
		Data:            data,
		Insights:        Insights{KnowledgeBase: persisted, UserInsights: insights},
		ScrapingResults: results,
	}, nil
}

func (s *Service) scrapePosts(ctx context.Context, log *logger.Logger, data *models.SocialMediaData,
	results *ScrapingResults, p models.Platform, target brightdata.Target, profileURL string) {
	raw, err := s.scraper.ScrapePlatform(ctx, profileURL, target)
	if err != nil {
		results.fail(target.Label(), err.Error())
		return
	}
	if err := validator.CheckPosts(raw, p); err != nil {
		log.WithErr(err, "validation_error").Warn(fmt.Sprintf("%s rejected", target.Label()))
		results.fail(target.Label(), validationFailed)
		return
	}
	if err := data.SetPosts(p, raw); err != nil {
		log.WithErr(err, "validation_error").Warn(fmt.Sprintf("%s rejected", target.Label()))
		results.fail(target.Label(), validationFailed)
		return
	}
	results.Successful = append(results.Successful, target.Label())
}

// ScrapeContactProfiles 校验联系关系后对联系人执行单用户抓取。
func (s *Service) ScrapeContactProfiles(ctx context.Context, userID, contactID uint) (*ScrapeReport, error) {
	if _, err := s.users.FindByID(ctx, contactID); err != nil {
		return nil, err
	}
	linked, err := s.users.CheckContactExists(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, fmt.Errorf("%w: contact %d, user %d", ErrContactNotLinked, contactID, userID)
	}
	return s.ScrapeUserProfiles(ctx, contactID)
}

// ScrapeAllContacts 依次抓取用户的所有联系人，单个联系人失败不影响其余联系人。
func (s *Service) ScrapeAllContacts(ctx context.Context, userID uint) (*BulkScrapeReport, error) {
	contacts, err := s.users.GetContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithUser(strconv.FormatUint(uint64(userID), 10))
	total := len(contacts)
	log.Info(fmt.Sprintf("Starting bulk scraping for %d contacts of user %d", total, userID))

	results := make([]ContactResult, 0, total)
	succeeded := 0
	for i, contact := range contacts {
		progress := fmt.Sprintf("%d/%d", i+1, total)
		pct := int(math.Round(float64(i+1) / float64(total) * 100))
		log.Info(fmt.Sprintf("Processing contact %s (%d%%): %s", progress, pct, contact.Username))

		report, err := s.ScrapeUserProfiles(ctx, contact.ID)
		if err != nil {
			log.WithErr(err, "scrape_error").Error(fmt.Sprintf("Failed to scrape contact %s (%s)", contact.Username, progress))
			results = append(results, ContactResult{
				ContactID: contact.ID,
				Username:  contact.Username,
				Error:     err.Error(),
			})
			continue
		}
		succeeded++
		log.Info(fmt.Sprintf("Successfully scraped contact %s (%s)", contact.Username, progress))
		results = append(results, ContactResult{
			ContactID:       contact.ID,
			Username:        contact.Username,
			Success:         true,
			Data:            report.Data,
			Insights:        &report.Insights,
			ScrapingResults: &report.ScrapingResults,
		})
	}

	msg := fmt.Sprintf("Bulk scraping completed for user %d. Total contacts: %d, Successful: %d, Failed: %d",
		userID, total, succeeded, total-succeeded)
	log.Info(msg)
	return &BulkScrapeReport{Message: msg, Results: results}, nil
}

// UpdateSocialMediaURLs 局部更新用户的社交链接。
func (s *Service) UpdateSocialMediaURLs(ctx context.Context, userID uint, urls models.SocialMediaURLs) (*URLUpdateResult, error) {
	user, err := s.users.UpdateSocialMediaURLs(ctx, userID, urls)
	if err != nil {
		return nil, err
	}
	return &URLUpdateResult{Message: fmt.Sprintf("Updated social media URLs for user %d", userID), Data: user}, nil
}

// GetKnowledgeBase 从用户最近一次保存的聚合数据重建知识库与画像，结果不落库。
func (s *Service) GetKnowledgeBase(ctx context.Context, userID uint) (*KnowledgeBaseView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(string(user.SocialMediaData))
	if raw == "" || raw == "null" {
		return &KnowledgeBaseView{Message: fmt.Sprintf("No social media data found for user %d", userID)}, nil
	}

	var data models.SocialMediaData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode social media data for user %d: %w", userID, err)
	}
	view := &KnowledgeBaseData{
		KnowledgeBase: knowledge.BuildKnowledgeBase(&data, userID, s.now()),
		UserInsights:  knowledge.GenerateUserInsights(&data, userID),
	}
	if user.LastScrapedAt != nil {
		ts := user.LastScrapedAt.UTC().Format(isoMillis)
		view.LastScraped = &ts
	}
	return &KnowledgeBaseView{Message: fmt.Sprintf("Retrieved knowledge base for user %d", userID), Data: view}, nil
}

// DebugLinkedIn 只抓取领英主页并返回校验结果，不写入任何数据。
func (s *Service) DebugLinkedIn(ctx context.Context, userID uint) (*DebugResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profileURL := user.ProfileURL(models.PlatformLinkedIn)
	if profileURL == "" {
		return nil, fmt.Errorf("%w: user %d", ErrNoLinkedInURL, userID)
	}
	raw, err := s.scraper.ScrapePlatform(ctx, profileURL, brightdata.LinkedInProfile)
	if err != nil {
		return nil, err
	}
	res := &DebugResult{URL: profileURL, Valid: true, Data: raw}
	if err := validator.Check(raw, models.PlatformLinkedIn); err != nil {
		res.Valid = false
		res.ValidationError = err.Error()
	}
	return res, nil
}

func acceptProfile(data *models.SocialMediaData, p models.Platform, raw json.RawMessage) error {
	if err := validator.Check(raw, p); err != nil {
		return err
	}
	return data.SetProfile(p, raw)
}

func (r *ScrapingResults) fail(label, msg string) {
	r.Failed = append(r.Failed, PlatformFailure{Platform: label, Error: msg})
}

func (r *ScrapingResults) failedLabels() []string {
	labels := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		labels[i] = f.Platform
	}
	return labels
}

func statusMessage(userID uint, r ScrapingResults) string {
	attempted := len(r.Successful) + len(r.Failed)
	msg := fmt.Sprintf("Scraping completed for user %d. Successful: %d/%d platforms. ", userID, len(r.Successful), attempted)
	if len(r.Failed) > 0 {
		msg += fmt.Sprintf("Failed platforms: %s.", strings.Join(r.failedLabels(), ", "))
	}
	return msg
}

func entryInput(e models.KnowledgeEntry) kbservice.CreateEntryInput {
	in := kbservice.CreateEntryInput{
		UserID:         e.UserID,
		Title:          fmt.Sprintf("%s - %s", e.Platform, e.DataType),
		Content:        e.Content,
		SourcePlatform: e.Platform,
		SourceType:     e.DataType,
	}
	if v, ok := e.Metadata["summary"].(string); ok {
		in.Summary = v
	}
	in.Keywords = metaStrings(e.Metadata["keywords"])
	in.Topics = metaStrings(e.Metadata["topics"])
	switch v := e.Metadata["confidence"].(type) {
	case float64:
		in.ConfidenceScore = &v
	case float32:
		f := float64(v)
		in.ConfidenceScore = &f
	}
	return in
}

func metaStrings(v interface{}) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
