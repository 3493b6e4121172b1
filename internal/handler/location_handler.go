package handler

import (
	"net/http"
	"time"

	"radar/internal/middleware"
	"radar/internal/models"
	"radar/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LocationHandler struct {
	locations *service.LocationService
	log       *zap.Logger
}

func NewLocationHandler(locations *service.LocationService, log *zap.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, log: log}
}

type locationResponse struct {
	UserID    string          `json:"user_id"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Accuracy  *float64        `json:"accuracy,omitempty"`
	IsActive  bool            `json:"is_active"`
	LastSeen  time.Time       `json:"last_seen"`
	User      *models.Summary `json:"user,omitempty"`
}

func toLocationResponse(loc *models.UserLocation) locationResponse {
	r := locationResponse{
		UserID:    loc.UserID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Accuracy:  loc.Accuracy,
		IsActive:  loc.IsActive,
		LastSeen:  loc.LastSeen,
	}
	if loc.User != nil {
		s := loc.User.Summary()
		r.User = &s
	}
	return r
}

// Upsert records the caller's current position.
func (h *LocationHandler) Upsert(c *gin.Context) {
	var req struct {
		UserID    string   `json:"user_id"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Accuracy  *float64 `json:"accuracy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	loc, err := h.locations.ReportLocation(c.Request.Context(), service.ReportInput{
		UserID:    middleware.UserID(c, req.UserID),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": toLocationResponse(loc)})
}

func (h *LocationHandler) Get(c *gin.Context) {
	loc, err := h.locations.GetLocation(c.Request.Context(), middleware.UserID(c, c.Query("user_id")))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": toLocationResponse(loc)})
}
