package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册业务路由，鉴权中间件由调用方传入
func RegisterRoutes(
	router *gin.Engine,
	urlHandler *ShortLinkHandler,
	authHandler *AuthHandler,
	authMiddleware, adminMiddleware gin.HandlerFunc,
) {
	router.GET("/health", urlHandler.HealthCheck)

	// 客户端使用的几组路径
	for _, path := range []string{"/shortUrl/post", "/createUrl", "/api/shorten"} {
		router.POST(path, urlHandler.CreateShortLink)
	}
	for _, path := range []string{"/shortUrl/get", "/redirect"} {
		router.POST(path, urlHandler.ResolveShortLink)
	}

	router.POST("/auth/login", authHandler.Login)

	router.GET("/urls", authMiddleware, adminMiddleware, urlHandler.GetAllLinks)

	admin := router.Group("/api")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/urls", urlHandler.GetAllLinks)
		admin.DELETE("/urls/:code", urlHandler.DeleteLink)
		admin.GET("/stats", urlHandler.GetStats)
	}

	router.GET("/:code", urlHandler.RedirectToOriginal)
}
