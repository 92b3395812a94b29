package api

import (
	"errors"
	"net/http"

	"Orbit/backend/go/internal/vector_db/service"
	"Orbit/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler 封装向量库相关 endpoint 的处理函数。
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// QueryRequest 定义了语义检索请求的 JSON 结构。
type QueryRequest struct {
	Query  string `json:"query" binding:"required"`
	UserID *uint  `json:"userId"`
	Limit  int    `json:"limit"`
}

// IndexUsers 将所有用户写入向量库。
func (h *Handler) IndexUsers(c *gin.Context) {
	res, err := h.service.IndexAllUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// IndexKnowledge 将所有知识库条目写入向量库。
func (h *Handler) IndexKnowledge(c *gin.Context) {
	res, err := h.service.IndexAllKnowledgeBaseEntries(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StoreKnowledge 写入单个知识库条目。
func (h *Handler) StoreKnowledge(c *gin.Context) {
	var req service.KnowledgeDocument
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.StoreKnowledgeBaseEntry(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Knowledge base entry stored successfully"})
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
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, service.ErrNotInitialized) {
		status = http.StatusServiceUnavailable
	}
	_ = c.Error(err)
	h.log.WithErr(err, "vector_db").Error("vector db request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}
