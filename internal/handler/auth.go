package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortlink-service/internal/store"
	auth "shortlink-service/pkg/jwt"
)

// AuthHandler 管理后台登录
type AuthHandler struct {
	users      *store.UserStore
	jwtManager *auth.TokenManager
	logger     *zap.SugaredLogger
}

// NewAuthHandler 创建一个新的 AuthHandler
func NewAuthHandler(users *store.UserStore, jwtManager *auth.TokenManager, logger *zap.SugaredLogger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AuthHandler{users: users, jwtManager: jwtManager, logger: logger.Named("auth")}
}

// LoginRequest 定义了登录请求的结构体
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin"`
}

// AuthResponse 定义了认证成功后的响应
type AuthResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// Login godoc
// @Summary 管理员登录
// @Description 使用用户名和密码获取 JWT 令牌
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param   account  body   LoginRequest  true  "登录凭据"
// @Success 200 {object} AuthResponse "成功响应"
// @Failure 400 {object} ErrorResponse "请求无效"
// @Failure 401 {object} ErrorResponse "认证失败"
// @Failure 403 {object} ErrorResponse "非管理员或账号已停用"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "username and password are required")
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid username or password")
			return
		}
		respondError(c, err)
		return
	}

	if !user.CheckPassword(req.Password) {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid username or password")
		return
	}
	if !user.IsActive {
		writeError(c, http.StatusForbidden, "FORBIDDEN", "account disabled")
		return
	}
	// 目前只有管理接口需要登录
	if !user.IsAdmin() {
		writeError(c, http.StatusForbidden, "FORBIDDEN", "admin role required")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		h.logger.Errorf("生成令牌失败: %v", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	if err := h.users.TouchLogin(c.Request.Context(), user); err != nil {
		h.logger.Warnf("更新登录时间失败: %v", err)
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}
