package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"artfolio/internal/api/middleware"
	"artfolio/internal/auth"
	"artfolio/internal/repository"
)

const (
	refreshTokenCookieName         = "refresh_token"
	refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"
	loginFailKeyPrefix             = "lock:login:fail:"
	loginLockKeyPrefix             = "lock:login:"
)

// AuthHandler 处理艺术家登录、刷新、退出与改密。
type AuthHandler struct {
	repo               repository.Repository
	authService        *auth.AuthService
	redis              redisKV
	logger             *slog.Logger
	loginLockThreshold int
	loginLockTTL       time.Duration
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(repo repository.Repository, authService *auth.AuthService, redisClient redisKV, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		repo:               repo,
		authService:        authService,
		redis:              redisClient,
		logger:             logger,
		loginLockThreshold: 5,
		loginLockTTL:       15 * time.Minute,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ArtistID     uint   `json:"artist_id"`
}

// Login 校验邮箱与密码并返回 TokenPair。连续失败会临时锁定该邮箱。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	if ttl, _ := h.redis.TTL(ctx, loginLockKeyPrefix+email).Result(); ttl > 0 {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "account temporarily locked"})
		return
	}

	artist, err := h.repo.GetArtistByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("login failed: artist not found")
			h.incrementLoginFail(ctx, email)
			Unauthorized(c)
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if !h.authService.CheckPasswordHash(req.Password, artist.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("artist_id", uint64(artist.ID)))
		h.incrementLoginFail(ctx, email)
		Unauthorized(c)
		return
	}

	_ = h.redis.Del(ctx, loginFailKeyPrefix+email).Err()

	tokenPair, err := h.authService.GenerateTokenPair(artist.ID)
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, artist.ID, tokenPair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 校验刷新令牌并颁发新的 TokenPair，旧令牌随即作废。
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, ok := h.checkRefreshToken(c, refreshToken)
	if !ok {
		return
	}

	if _, err := h.repo.GetArtist(ctx, claims.ArtistID); err != nil {
		logger.Info("refresh artist not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(claims.ArtistID)
	if err != nil {
		logger.Error("refresh generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.revokeRefreshToken(ctx, claims.ID, claims.ExpiresAt); err != nil {
		logger.Error("refresh revoke old token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, claims.ArtistID, tokenPair)
}

// Logout 将刷新令牌加入黑名单。
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		BadRequest(c, "refresh token missing")
		return
	}

	claims, ok := h.checkRefreshToken(c, refreshToken)
	if !ok {
		return
	}

	if err := h.revokeRefreshToken(c.Request.Context(), claims.ID, claims.ExpiresAt); err != nil {
		h.loggerFromContext(c).Error("logout revoke token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Status(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=72"`
}

// ChangePassword 校验当前密码后更新为新密码。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		BadRequest(c, err.Error())
		return
	}

	artistID, ok := artistIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.Uint64("artist_id", uint64(artistID)))

	artist, err := h.repo.GetArtist(ctx, artistID)
	if err != nil {
		Unauthorized(c)
		return
	}
	if !h.authService.CheckPasswordHash(req.CurrentPassword, artist.PasswordHash) {
		logger.Info("change password: current password mismatch")
		Unauthorized(c)
		return
	}
	if req.NewPassword == req.CurrentPassword {
		BadRequest(c, "new password must be different from current password")
		return
	}

	hashed, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change password: hash failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	artist.PasswordHash = hashed
	if err := h.repo.UpdateArtist(ctx, artist); err != nil {
		logger.Error("change password: update failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(artist.ID)
	if err != nil {
		Internal(c, "internal error")
		return
	}
	logger.Info("password changed")
	h.replyWithTokenPair(c, artist.ID, tokenPair)
}

// checkRefreshToken 校验类型、jti 与黑名单。失败时已写好响应。
func (h *AuthHandler) checkRefreshToken(c *gin.Context, raw string) (*auth.TokenClaims, bool) {
	logger := h.loggerFromContext(c)

	claims, err := h.authService.ValidateRefreshToken(raw)
	if err != nil {
		logger.Info("refresh token invalid", slog.Any("error", err))
		Unauthorized(c)
		return nil, false
	}
	if claims.ID == "" {
		logger.Info("refresh token missing jti")
		Unauthorized(c)
		return nil, false
	}

	err = h.redis.Get(c.Request.Context(), refreshTokenBlacklistKeyPrefix+claims.ID).Err()
	switch {
	case err == nil:
		logger.Info("refresh token revoked", slog.String("jti", claims.ID))
		Unauthorized(c)
		return nil, false
	case !errors.Is(err, redis.Nil):
		logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}
	return claims, true
}

func (h *AuthHandler) replyWithTokenPair(c *gin.Context, artistID uint, tokenPair auth.TokenPair) {
	maxAge := int(h.authService.RefreshTokenTTL().Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Hour.Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    tokenPair.RefreshToken,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    tokenPair.ExpiresIn,
		ArtistID:     artistID,
	})
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) revokeRefreshToken(ctx context.Context, jti string, expiresAt *jwt.NumericDate) error {
	ttl := h.authService.RefreshTokenTTL()
	if expiresAt != nil {
		ttl = time.Until(expiresAt.Time)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return h.redis.Set(ctx, refreshTokenBlacklistKeyPrefix+jti, "revoked", ttl).Err()
}

func (h *AuthHandler) incrementLoginFail(ctx context.Context, email string) {
	count, err := incrWithTTL(ctx, h.redis, loginFailKeyPrefix+email, h.loginLockTTL)
	if err != nil {
		return
	}
	if count >= int64(h.loginLockThreshold) {
		_ = h.redis.Set(ctx, loginLockKeyPrefix+email, "1", h.loginLockTTL).Err()
	}
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func isHTTPSRequest(c *gin.Context) bool {
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
