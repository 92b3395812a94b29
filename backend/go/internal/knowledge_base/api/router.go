package api

import "github.com/gin-gonic/gin"

// RegisterRoutes 在 /knowledge-base 下注册知识库路由。
// /query 与 /user/:userId 为静态前缀，与 /:id 不冲突。
func RegisterRoutes(router gin.IRouter, h *Handler) {
	kb := router.Group("/knowledge-base")
	{
		kb.POST("", h.CreateEntry)
		kb.POST("/query", h.Query)
		kb.GET("/user/:userId", h.GetEntries)
		kb.GET("/:id", h.GetEntry)
	}
}
