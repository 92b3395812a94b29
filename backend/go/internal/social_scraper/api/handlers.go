package api

import (
	"errors"
	"net/http"
	"strconv"

	"Orbit/backend/go/internal/models"
	"Orbit/backend/go/internal/social_scraper/service"
	"Orbit/backend/go/internal/social_scraper/store"
	"Orbit/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler 封装社交抓取 endpoint 的处理函数。
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// ScrapeProfiles 抓取指定用户的所有社交主页。
func (h *Handler) ScrapeProfiles(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	report, err := h.service.ScrapeUserProfiles(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ScrapeContactProfiles 抓取用户某个联系人的社交主页。
func (h *Handler) ScrapeContactProfiles(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	contactID, ok := parseID(c, "contactId")
	if !ok {
		return
	}
	report, err := h.service.ScrapeContactProfiles(c.Request.Context(), userID, contactID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ScrapeAllContacts 依次抓取用户的全部联系人。
func (h *Handler) ScrapeAllContacts(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	report, err := h.service.ScrapeAllContacts(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateSocialMediaURLs 局部更新用户的社交链接。
func (h *Handler) UpdateSocialMediaURLs(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	var req models.SocialMediaURLs
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.service.UpdateSocialMediaURLs(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetKnowledgeBase 返回由已保存聚合数据重建的知识库。
func (h *Handler) GetKnowledgeBase(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	view, err := h.service.GetKnowledgeBase(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DebugLinkedIn 只抓取领英主页，用于排查 BrightData 集成问题。错误放在响应体中返回。
func (h *Handler) DebugLinkedIn(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	res, err := h.service.DebugLinkedIn(c.Request.Context(), userID)
	if err != nil {
		h.log.WithErr(err, "debug_error").Warn("LinkedIn debug scrape failed")
		c.JSON(http.StatusOK, gin.H{"success": false, "debug": true, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "debug": true, "data": res})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrUserNotFound) || errors.Is(err, service.ErrContactNotLinked) {
		status = http.StatusNotFound
	} else {
		h.log.WithErr(err, "social_scraper").Error("social scraper request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
