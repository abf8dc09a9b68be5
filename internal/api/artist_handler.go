package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"artfolio/internal/api/middleware"
	"artfolio/internal/auth"
	"artfolio/internal/database"
	"artfolio/internal/portfolio"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
)

const multipartMemory = 32 << 20

// ArtistHandler 负责艺术家注册、资料维护与作品媒体上传。
type ArtistHandler struct {
	repo          repository.Repository
	authService   *auth.AuthService
	store         storage.Store
	uploads       *uploader
	maxMediaFiles int
	logger        *slog.Logger
}

// NewArtistHandler 构造 ArtistHandler。clamdAddr 为空时跳过病毒扫描。
func NewArtistHandler(
	repo repository.Repository,
	authService *auth.AuthService,
	store storage.Store,
	clamdAddr string,
	maxFileBytes int64,
	maxMediaFiles int,
	logger *slog.Logger,
) *ArtistHandler {
	return &ArtistHandler{
		repo:          repo,
		authService:   authService,
		store:         store,
		uploads:       &uploader{store: store, scanner: newClamdScanner(clamdAddr), maxBytes: maxFileBytes},
		maxMediaFiles: maxMediaFiles,
		logger:        logger,
	}
}

type artistResponse struct {
	ID              uint              `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone,omitempty"`
	Category        string            `json:"category,omitempty"`
	ExperienceLevel string            `json:"experience_level,omitempty"`
	City            string            `json:"city,omitempty"`
	Country         string            `json:"country,omitempty"`
	Bio             string            `json:"bio,omitempty"`
	Skills          []string          `json:"skills"`
	SocialLinks     map[string]string `json:"social_links,omitempty"`
	ProfileImageURL string            `json:"profile_image_url,omitempty"`
	Media           []mediaItem       `json:"media"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type mediaItem struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url,omitempty"`
}

type registerResponse struct {
	Artist artistResponse `json:"artist"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Register 处理 multipart 注册：资料字段 + 头像 + 作品媒体。
func (h *ArtistHandler) Register(c *gin.Context) {
	log := h.loggerFromContext(c)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		BadRequest(c, "invalid multipart form")
		return
	}

	artist, password, err := artistFromForm(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	profile, media, err := h.formFiles(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	hash, err := h.authService.HashPassword(password)
	if err != nil {
		log.Error("hash password failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	artist.PasswordHash = hash

	ctx := c.Request.Context()
	if err := h.repo.CreateArtist(ctx, artist); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			log.Error("create artist failed", slog.Any("error", err))
		}
		respondRepoError(c, err, "artist")
		return
	}
	log = log.With(slog.Uint64("artist_id", uint64(artist.ID)))

	if profile != nil || len(media) > 0 {
		if err := h.attachFiles(ctx, artist, profile, media); err != nil {
			h.rollbackRegistration(ctx, log, artist.ID)
			if isClientUploadError(err) {
				BadRequest(c, err.Error())
				return
			}
			log.Error("store registration files failed", slog.Any("error", err))
			Internal(c, "failed to store files")
			return
		}
	}

	tokens, err := h.authService.GenerateTokenPair(artist.ID)
	if err != nil {
		log.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	log.Info("artist registered", slog.Int("media_count", len(media)))
	c.JSON(http.StatusCreated, registerResponse{
		Artist: h.newArtistResponse(ctx, artist),
		Tokens: tokens,
	})
}

// ListArtists 分页列出艺术家，可按 category 过滤。
func (h *ArtistHandler) ListArtists(c *gin.Context) {
	ctx := c.Request.Context()
	artists, err := h.repo.ListArtists(ctx, listOptions(c))
	if err != nil {
		h.loggerFromContext(c).Error("list artists failed", slog.Any("error", err))
		Internal(c, "failed to list artists")
		return
	}
	items := make([]artistResponse, 0, len(artists))
	for i := range artists {
		items = append(items, h.newArtistResponse(ctx, &artists[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetArtist 返回单个艺术家资料。
func (h *ArtistHandler) GetArtist(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid artist id")
		return
	}
	artist, err := h.repo.GetArtist(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err, "artist")
		return
	}
	c.JSON(http.StatusOK, h.newArtistResponse(c.Request.Context(), artist))
}

// ListArtistPortfolios 列出艺术家的全部作品集。
func (h *ArtistHandler) ListArtistPortfolios(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid artist id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.repo.GetArtist(ctx, id); err != nil {
		respondRepoError(c, err, "artist")
		return
	}
	list, err := h.repo.ListPortfolios(ctx, id)
	if err != nil {
		Internal(c, "failed to list portfolios")
		return
	}
	items := make([]portfolioResponse, 0, len(list))
	for i := range list {
		items = append(items, newPortfolioResponse(ctx, h.store, &list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type updateArtistRequest struct {
	Name            *string           `json:"name" binding:"omitempty,min=1,max=128"`
	Email           *string           `json:"email" binding:"omitempty,email"`
	Phone           *string           `json:"phone"`
	Category        *string           `json:"category"`
	ExperienceLevel *string           `json:"experience_level"`
	City            *string           `json:"city"`
	Country         *string           `json:"country"`
	Bio             *string           `json:"bio"`
	Skills          *string           `json:"skills"`
	SocialLinks     map[string]string `json:"social_links"`
}

// UpdateArtist 局部更新本人资料。
func (h *ArtistHandler) UpdateArtist(c *gin.Context) {
	artist, ok := h.ownedArtist(c)
	if !ok {
		return
	}

	var req updateArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	assign(&artist.Name, req.Name)
	assign(&artist.Email, req.Email)
	assign(&artist.Phone, req.Phone)
	assign(&artist.Category, req.Category)
	assign(&artist.ExperienceLevel, req.ExperienceLevel)
	assign(&artist.City, req.City)
	assign(&artist.Country, req.Country)
	assign(&artist.Bio, req.Bio)
	if req.Skills != nil {
		artist.Skills = strings.Join(portfolio.SplitSkills(*req.Skills), ", ")
	}
	if req.SocialLinks != nil {
		links, err := encodeSocialLinks(req.SocialLinks)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		artist.SocialLinks = links
	}

	ctx := c.Request.Context()
	if err := h.repo.UpdateArtist(ctx, artist); err != nil {
		respondRepoError(c, err, "artist")
		return
	}
	c.JSON(http.StatusOK, h.newArtistResponse(ctx, artist))
}

// DeleteArtist 删除本人账号、作品集、生成记录与全部对象。
func (h *ArtistHandler) DeleteArtist(c *gin.Context) {
	artist, ok := h.ownedArtist(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	log := h.loggerFromContext(c).With(slog.Uint64("artist_id", uint64(artist.ID)))

	portfolios, err := h.repo.ListPortfolios(ctx, artist.ID)
	if err != nil {
		Internal(c, "failed to list portfolios")
		return
	}
	if err := h.repo.DeleteArtist(ctx, artist.ID); err != nil {
		respondRepoError(c, err, "artist")
		return
	}

	// 对象清理失败只记录日志，数据库记录已删除。
	prefixes := []string{fmt.Sprintf("artists/%d", artist.ID)}
	for _, p := range portfolios {
		prefixes = append(prefixes, portfolioPrefixes(p.ID)...)
	}
	for _, prefix := range prefixes {
		if err := h.store.DeletePrefix(ctx, prefix); err != nil {
			log.Warn("delete artist objects failed", slog.String("prefix", prefix), slog.Any("error", err))
		}
	}

	log.Info("artist deleted", slog.Int("portfolios", len(portfolios)))
	c.Status(http.StatusNoContent)
}

// UploadMedia 为本人追加作品媒体文件。
func (h *ArtistHandler) UploadMedia(c *gin.Context) {
	artist, ok := h.ownedArtist(c)
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		BadRequest(c, "invalid multipart form")
		return
	}

	_, media, err := h.formFiles(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	if len(media) == 0 {
		BadRequest(c, "missing media files")
		return
	}
	existing := decodeMediaKeys(artist.MediaKeys)
	if h.maxMediaFiles > 0 && len(existing)+len(media) > h.maxMediaFiles {
		Forbidden(c, "media limit reached")
		return
	}

	ctx := c.Request.Context()
	if err := h.attachFiles(ctx, artist, nil, media); err != nil {
		if isClientUploadError(err) {
			BadRequest(c, err.Error())
			return
		}
		h.loggerFromContext(c).Error("store media failed", slog.Any("error", err))
		Internal(c, "failed to store files")
		return
	}

	c.JSON(http.StatusCreated, h.newArtistResponse(ctx, artist))
}

// DeleteMedia 删除本人的一个媒体对象。
func (h *ArtistHandler) DeleteMedia(c *gin.Context) {
	artist, ok := h.ownedArtist(c)
	if !ok {
		return
	}
	key := strings.TrimSpace(c.Query("key"))
	if !isValidArtistObjectKey(artist.ID, key) {
		BadRequest(c, "invalid media key")
		return
	}

	keys := decodeMediaKeys(artist.MediaKeys)
	if !lo.Contains(keys, key) {
		NotFound(c, "media not found")
		return
	}

	ctx := c.Request.Context()
	artist.MediaKeys = encodeMediaKeys(lo.Without(keys, key))
	if err := h.repo.UpdateArtist(ctx, artist); err != nil {
		respondRepoError(c, err, "artist")
		return
	}
	if err := h.store.Delete(ctx, key); err != nil {
		h.loggerFromContext(c).Warn("delete media object failed", slog.String("key", key), slog.Any("error", err))
	}
	c.Status(http.StatusNoContent)
}

// ownedArtist 解析 :id 并确认与令牌中的艺术家一致。失败时已写好响应。
func (h *ArtistHandler) ownedArtist(c *gin.Context) (*database.Artist, bool) {
	callerID, ok := artistIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid artist id")
		return nil, false
	}
	if id != callerID {
		Forbidden(c, "access denied")
		return nil, false
	}
	artist, err := h.repo.GetArtist(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err, "artist")
		return nil, false
	}
	return artist, true
}

func (h *ArtistHandler) formFiles(c *gin.Context) (*multipart.FileHeader, []*multipart.FileHeader, error) {
	form := c.Request.MultipartForm
	if form == nil {
		return nil, nil, nil
	}
	var profile *multipart.FileHeader
	if files := form.File["profile_image"]; len(files) > 0 {
		if len(files) > 1 {
			return nil, nil, errors.New("only one profile_image allowed")
		}
		profile = files[0]
	}
	media := form.File["media"]
	if h.maxMediaFiles > 0 && len(media) > h.maxMediaFiles {
		return nil, nil, fmt.Errorf("at most %d media files", h.maxMediaFiles)
	}
	return profile, media, nil
}

// attachFiles 上传文件并把对象 key 写回艺术家记录。
func (h *ArtistHandler) attachFiles(ctx context.Context, artist *database.Artist, profile *multipart.FileHeader, media []*multipart.FileHeader) error {
	if profile != nil {
		key, err := h.uploads.save(ctx, profile, imageExtensions, func(ext string) string {
			return artistProfileKey(artist.ID, ext)
		})
		if err != nil {
			return err
		}
		old := artist.ProfileImageKey
		artist.ProfileImageKey = key
		if old != "" {
			_ = h.store.Delete(ctx, old)
		}
	}

	keys := decodeMediaKeys(artist.MediaKeys)
	for _, fh := range media {
		key, err := h.uploads.save(ctx, fh, mediaExtensions, func(ext string) string {
			return artistMediaKey(artist.ID, ext)
		})
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	artist.MediaKeys = encodeMediaKeys(keys)

	return h.repo.UpdateArtist(ctx, artist)
}

func (h *ArtistHandler) rollbackRegistration(ctx context.Context, log *slog.Logger, artistID uint) {
	if err := h.repo.DeleteArtist(ctx, artistID); err != nil {
		log.Error("rollback registration failed", slog.Any("error", err))
	}
	if err := h.store.DeletePrefix(ctx, fmt.Sprintf("artists/%d", artistID)); err != nil {
		log.Warn("rollback registration objects failed", slog.Any("error", err))
	}
}

func (h *ArtistHandler) newArtistResponse(ctx context.Context, a *database.Artist) artistResponse {
	resp := artistResponse{
		ID:              a.ID,
		Name:            a.Name,
		Email:           a.Email,
		Phone:           a.Phone,
		Category:        a.Category,
		ExperienceLevel: a.ExperienceLevel,
		City:            a.City,
		Country:         a.Country,
		Bio:             a.Bio,
		Skills:          append([]string{}, portfolio.SplitSkills(a.Skills)...),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Media:           []mediaItem{},
	}
	var links map[string]string
	if len(a.SocialLinks) > 0 && json.Unmarshal(a.SocialLinks, &links) == nil {
		resp.SocialLinks = links
	}
	if a.ProfileImageKey != "" {
		resp.ProfileImageURL, _ = h.store.URL(ctx, a.ProfileImageKey)
	}
	for _, key := range decodeMediaKeys(a.MediaKeys) {
		u, _ := h.store.URL(ctx, key)
		resp.Media = append(resp.Media, mediaItem{ObjectKey: key, URL: u})
	}
	return resp
}

func (h *ArtistHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// artistFromForm 读取并校验注册表单字段。
func artistFromForm(c *gin.Context) (*database.Artist, string, error) {
	field := func(name string) string { return strings.TrimSpace(c.PostForm(name)) }

	name := field("name")
	if name == "" {
		return nil, "", errors.New("name is required")
	}
	email := field("email")
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, "", errors.New("valid email is required")
	}
	password := c.PostForm("password")
	if err := auth.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	links := make(map[string]string)
	for _, platform := range portfolio.KnownPlatforms {
		if v := field(platform); v != "" {
			links[platform] = v
		}
	}
	encoded, err := encodeSocialLinks(links)
	if err != nil {
		return nil, "", err
	}

	return &database.Artist{
		Name:            name,
		Email:           email,
		Phone:           field("phone"),
		Category:        field("category"),
		ExperienceLevel: field("experience_level"),
		City:            field("city"),
		Country:         field("country"),
		Bio:             field("bio"),
		Skills:          strings.Join(portfolio.SplitSkills(c.PostForm("skills")), ", "),
		SocialLinks:     encoded,
	}, password, nil
}

func encodeSocialLinks(links map[string]string) (datatypes.JSON, error) {
	cleaned := lo.OmitBy(links, func(_ string, v string) bool { return strings.TrimSpace(v) == "" })
	for platform, raw := range cleaned {
		if !safeLink(raw) {
			return nil, fmt.Errorf("invalid %s link", platform)
		}
		cleaned[platform] = strings.TrimSpace(raw)
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func safeLink(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func decodeMediaKeys(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil
	}
	return keys
}

func encodeMediaKeys(keys []string) datatypes.JSON {
	if len(keys) == 0 {
		return nil
	}
	b, _ := json.Marshal(keys)
	return datatypes.JSON(b)
}
