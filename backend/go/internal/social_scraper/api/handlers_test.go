package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	kbservice "Orbit/backend/go/internal/knowledge_base/service"
	"Orbit/backend/go/internal/models"
	"Orbit/backend/go/internal/social_scraper/brightdata"
	"Orbit/backend/go/internal/social_scraper/service"
	"Orbit/backend/go/internal/social_scraper/store"
	"Orbit/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubScraper struct{}

func (stubScraper) ScrapePlatform(ctx context.Context, profileURL string, target brightdata.Target) (json.RawMessage, error) {
	switch target {
	case brightdata.LinkedInProfile:
		return json.RawMessage(`{"name":"Ada","url":"` + profileURL + `"}`), nil
	case brightdata.LinkedInPosts:
		return json.RawMessage(`[]`), nil
	}
	return nil, &brightdata.NoDataError{Target: target}
}

type stubEntries struct{}

func (stubEntries) CreateEntry(ctx context.Context, in kbservice.CreateEntryInput) (*kbservice.CreateEntryResult, error) {
	return &kbservice.CreateEntryResult{Success: true, Message: "ok", ID: 1}, nil
}

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserContact{}))

	url := "https://linkedin.com/in/ada"
	require.NoError(t, db.Create(&models.User{Username: "ada", Password: "x", LinkedInURL: &url}).Error)
	require.NoError(t, db.Create(&models.User{Username: "bob", Password: "x"}).Error)
	require.NoError(t, db.Create(&models.UserContact{UserID: 1, ContactID: 2}).Error)

	svc := service.NewService(store.NewUserStore(db), stubScraper{}, stubEntries{}, nil, logger.Discard())
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewHandler(svc, logger.Discard()))
	return r, db
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScrapeThenReadKnowledgeBase(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/social-scraper/scrape/1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report service.ScrapeReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, []string{"LinkedIn Profile", "LinkedIn Posts"}, report.ScrapingResults.Successful)

	w = do(r, http.MethodGet, "/social-scraper/knowledge-base/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view service.KnowledgeBaseView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Retrieved knowledge base for user 1", view.Message)
	require.NotNil(t, view.Data)
	assert.NotNil(t, view.Data.LastScraped)
	assert.NotEmpty(t, view.Data.KnowledgeBase)
}

func TestStatusMapping(t *testing.T) {
	r, _ := newRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/social-scraper/scrape/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/social-scraper/scrape/42", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/social-scraper/scrape-contact/2/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/social-scraper/knowledge-base/42", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/social-scraper/scrape-contact/1/x", "").Code)
}

func TestScrapeContactAndAll(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/social-scraper/scrape-contact/1/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Scraping completed for user 2")

	w = do(r, http.MethodPost, "/social-scraper/scrape-all-contacts/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var bulk service.BulkScrapeReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bulk))
	assert.Equal(t, "Bulk scraping completed for user 1. Total contacts: 1, Successful: 1, Failed: 0", bulk.Message)
	require.Len(t, bulk.Results, 1)
	assert.Equal(t, "bob", bulk.Results[0].Username)
}

func TestUpdateURLs(t *testing.T) {
	r, db := newRouter(t)

	w := do(r, http.MethodPost, "/social-scraper/update-urls/2", `{"tiktok_url":"https://tiktok.com/@bob"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Updated social media URLs for user 2")

	var u models.User
	require.NoError(t, db.First(&u, 2).Error)
	require.NotNil(t, u.TikTokURL)
	assert.Equal(t, "https://tiktok.com/@bob", *u.TikTokURL)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/social-scraper/update-urls/2", `{"tiktok_url":5}`).Code)
}

func TestDebugLinkedIn(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/social-scraper/debug-linkedin/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ok struct {
		Success bool                `json:"success"`
		Debug   bool                `json:"debug"`
		Data    service.DebugResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.True(t, ok.Success)
	assert.True(t, ok.Debug)
	assert.True(t, ok.Data.Valid)

	w = do(r, http.MethodPost, "/social-scraper/debug-linkedin/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "user has no LinkedIn URL")
}
