package api

import (
	"errors"
	"net/http"
	"strconv"

	"Orbit/backend/go/internal/knowledge_base/service"
	"Orbit/backend/go/internal/knowledge_base/store"
	vectorservice "Orbit/backend/go/internal/vector_db/service"

	"github.com/gin-gonic/gin"
)

// Handler 封装知识库 endpoint 的处理函数。
type Handler struct {
	service *service.Service
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// QueryRequest 定义了知识检索请求的 JSON 结构。
type QueryRequest struct {
	Query  string `json:"query" binding:"required"`
	UserID *uint  `json:"userId"`
	Limit  int    `json:"limit"`
}

// CreateEntry 创建知识库条目并写入向量库。
func (h *Handler) CreateEntry(c *gin.Context) {
	var req service.CreateEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.service.CreateEntry(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetEntries 返回某个用户的全部条目。
func (h *Handler) GetEntries(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	entries, err := h.service.GetEntries(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetEntry 返回单个条目。
func (h *Handler) GetEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.service.GetEntry(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Query 执行语义检索。
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := h.service.QueryKnowledge(c.Request.Context(), req.Query, req.UserID, req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrEntryNotFound), errors.Is(err, store.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, vectorservice.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
