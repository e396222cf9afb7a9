package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortlink-service/internal/service"
)

// maxPageSize 显式分页时每页的上限
const maxPageSize = 1000

// ShortLinkHandler 短链接相关接口
type ShortLinkHandler struct {
	shortener *service.Shortener
	resolver  *service.Resolver
	baseURL   string
	logger    *zap.SugaredLogger
}

// NewShortLinkHandler 创建处理器实例，baseURL 不带末尾的 /
func NewShortLinkHandler(shortener *service.Shortener, resolver *service.Resolver, baseURL string, logger *zap.SugaredLogger) *ShortLinkHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ShortLinkHandler{
		shortener: shortener,
		resolver:  resolver,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger.Named("handler"),
	}
}

type CreateShortLinkRequest struct {
	OriginalURL string `json:"original_url" example:"https://example.com/very/long/path"`
}

type CreateShortLinkResponse struct {
	ShortenURL string `json:"shortenUrl" example:"https://dev4url.cc/c7Xa2Q"`
	ShortCode  string `json:"short_code" example:"c7Xa2Q"`
}

// ResolveShortLinkRequest 兼容 ShortenUrl 写法，JSON 字段名匹配不区分大小写
type ResolveShortLinkRequest struct {
	ShortenURL string `json:"shortenUrl" example:"c7Xa2Q"`
}

type ResolveShortLinkResponse struct {
	OriginalURL string `json:"original_url" example:"https://example.com/very/long/path"`
}

type LinkResponse struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	ShortenURL  string    `json:"shortenUrl"`
	CreatedAt   time.Time `json:"created_at"`
}

type StatsResponse struct {
	TotalLinks int64 `json:"total_links"`
}

// HealthCheck godoc
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *ShortLinkHandler) HealthCheck(c *gin.Context) {
	if err := h.resolver.Ready(c.Request.Context()); err != nil {
		h.logger.Warnw("健康检查失败", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "timestamp": time.Now()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// CreateShortLink godoc
// @Summary 创建短链接
// @Description 为一个长 URL 创建一个新的短链接
// @Tags ShortLink
// @Accept  json
// @Produce  json
// @Param   url  body   CreateShortLinkRequest  true  "长链接 URL"
// @Success 201 {object} CreateShortLinkResponse
// @Failure 400 {object} ErrorResponse "链接不合法、指向本站或不安全"
// @Failure 429 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /shortUrl/post [post]
func (h *ShortLinkHandler) CreateShortLink(c *gin.Context) {
	var req CreateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	m, err := h.shortener.Create(c.Request.Context(), req.OriginalURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateShortLinkResponse{
		ShortenURL: h.shortURL(m.ShortCode),
		ShortCode:  m.ShortCode,
	})
}

// ResolveShortLink godoc
// @Summary 查询原始链接
// @Description 接受短码或完整短链接，返回原始链接
// @Tags ShortLink
// @Accept  json
// @Produce  json
// @Param   body  body   ResolveShortLinkRequest  true  "短链接"
// @Success 200 {object} ResolveShortLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /shortUrl/get [post]
func (h *ShortLinkHandler) ResolveShortLink(c *gin.Context) {
	var req ResolveShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	code := extractCode(req.ShortenURL)
	if code == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "shortenUrl is required")
		return
	}

	originalURL, err := h.resolver.Resolve(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResolveShortLinkResponse{OriginalURL: originalURL})
}

// RedirectToOriginal godoc
// @Summary 短链接跳转
// @Tags ShortLink
// @Param code path string true "短码"
// @Success 302
// @Failure 404 {object} ErrorResponse
// @Router /{code} [get]
func (h *ShortLinkHandler) RedirectToOriginal(c *gin.Context) {
	originalURL, err := h.resolver.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, originalURL)
}

// GetAllLinks godoc
// @Summary 获取全部短链接
// @Description 不带 limit 时返回全部映射；带 limit 时按页返回，总数见 X-Total-Count
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Param offset query int false "偏移量"
// @Param limit query int false "每页数量，最大 1000，省略时返回全部"
// @Success 200 {array} LinkResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /urls [get]
func (h *ShortLinkHandler) GetAllLinks(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	// limit 为 0 表示不分页
	limit := 0
	if raw, ok := c.GetQuery("limit"); ok {
		limit, _ = strconv.Atoi(raw)
		if limit <= 0 || limit > maxPageSize {
			limit = maxPageSize
		}
	}

	mappings, total, err := h.resolver.List(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	links := make([]LinkResponse, 0, len(mappings))
	for _, m := range mappings {
		links = append(links, LinkResponse{
			ShortCode:   m.ShortCode,
			OriginalURL: m.OriginalURL,
			ShortenURL:  h.shortURL(m.ShortCode),
			CreatedAt:   m.CreatedAt,
		})
	}
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, links)
}

// GetStats godoc
// @Summary 统计信息
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /api/stats [get]
func (h *ShortLinkHandler) GetStats(c *gin.Context) {
	stats, err := h.resolver.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{TotalLinks: stats.TotalLinks})
}

// DeleteLink godoc
// @Summary 删除短链接
// @Tags Admin
// @Security ApiKeyAuth
// @Param code path string true "短码"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/urls/{code} [delete]
func (h *ShortLinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")
	if err := h.resolver.Delete(c.Request.Context(), code); err != nil {
		respondError(c, err)
		return
	}
	h.logger.Infow("管理员删除短链接", "code", code, "username", c.GetString("username"))
	c.JSON(http.StatusOK, gin.H{"message": "short link deleted"})
}

func (h *ShortLinkHandler) shortURL(code string) string {
	return h.baseURL + "/" + code
}

// extractCode 支持直接传短码，也支持完整的短链接
func extractCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		raw = u.Path
	}
	return strings.Trim(raw, "/")
}
