package handler

import (
	"net/http"
	"strings"

	"radar/internal/middleware"
	"radar/internal/service"
	"radar/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxAvatarBytes = 5 << 20

type AvatarHandler struct {
	users  *service.UserService
	cloud  cloudinary.Uploader
	folder string
	log    *zap.Logger
}

// NewAvatarHandler accepts a nil uploader; uploads then answer 503.
func NewAvatarHandler(users *service.UserService, cloud cloudinary.Uploader, folder string, log *zap.Logger) *AvatarHandler {
	return &AvatarHandler{users: users, cloud: cloud, folder: folder, log: log}
}

// Upload stores an image as the user's avatar. Expects multipart fields "file" and "user_id".
func (h *AvatarHandler) Upload(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar uploads are not configured"})
		return
	}
	userID := middleware.UserID(c, c.PostForm("user_id"))
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file required")
		return
	}
	if file.Size > maxAvatarBytes {
		badRequest(c, "file too large")
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		badRequest(c, "file must be an image")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.users.GetUser(ctx, userID); err != nil {
		writeError(c, h.log, err)
		return
	}

	f, err := file.Open()
	if err != nil {
		badRequest(c, "could not read file")
		return
	}
	defer f.Close()

	publicID := "avatar_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	url, err := h.cloud.UploadImage(ctx, f, h.folder+"/"+userID, publicID)
	if err != nil {
		h.log.Error("avatar upload failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed, please retry"})
		return
	}
	u, err := h.users.SetAvatar(ctx, userID, url)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
