package handler

import (
	"net/http"

	"radar/internal/middleware"
	"radar/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PrivacyHandler struct {
	privacy *service.PrivacyService
	log     *zap.Logger
}

func NewPrivacyHandler(privacy *service.PrivacyService, log *zap.Logger) *PrivacyHandler {
	return &PrivacyHandler{privacy: privacy, log: log}
}

// Get returns the user's settings, creating the defaults on first read.
func (h *PrivacyHandler) Get(c *gin.Context) {
	p, _, err := h.privacy.GetOrCreateDefaults(c.Request.Context(), middleware.UserID(c, c.Query("user_id")))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"privacy_settings": p})
}

// Put applies a partial update; omitted fields keep their value.
func (h *PrivacyHandler) Put(c *gin.Context) {
	var req struct {
		UserID            string  `json:"user_id"`
		Visibility        *string `json:"visibility"`
		ShowDistance      *bool   `json:"show_distance"`
		ShowLastSeen      *bool   `json:"show_last_seen"`
		AllowNearbySearch *bool   `json:"allow_nearby_search"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.privacy.Update(c.Request.Context(), middleware.UserID(c, req.UserID), service.PrivacyPatch{
		Visibility:        req.Visibility,
		ShowDistance:      req.ShowDistance,
		ShowLastSeen:      req.ShowLastSeen,
		AllowNearbySearch: req.AllowNearbySearch,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"privacy_settings": p})
}
