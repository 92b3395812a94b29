package api

import "github.com/gin-gonic/gin"

// RegisterRoutes 在 /vector-db 下注册所有向量库路由。
func RegisterRoutes(router gin.IRouter, h *Handler) {
	vdb := router.Group("/vector-db")
	{
		vdb.POST("/index-users", h.IndexUsers)
		vdb.POST("/index-knowledge", h.IndexKnowledge)
		vdb.POST("/store-knowledge", h.StoreKnowledge)
		vdb.POST("/query", h.Query)
	}
}
