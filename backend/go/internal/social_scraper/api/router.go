package api

import "github.com/gin-gonic/gin"

// RegisterRoutes 在 /social-scraper 下注册抓取相关路由。
func RegisterRoutes(router gin.IRouter, h *Handler) {
	ss := router.Group("/social-scraper")
	{
		ss.POST("/scrape/:userId", h.ScrapeProfiles)
		ss.POST("/scrape-contact/:userId/:contactId", h.ScrapeContactProfiles)
		ss.POST("/scrape-all-contacts/:userId", h.ScrapeAllContacts)
		ss.POST("/update-urls/:userId", h.UpdateSocialMediaURLs)
		ss.GET("/knowledge-base/:userId", h.GetKnowledgeBase)
		ss.POST("/debug-linkedin/:userId", h.DebugLinkedIn)
	}
}
