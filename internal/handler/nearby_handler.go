package handler

import (
	"net/http"
	"strconv"

	"radar/internal/domain"
	"radar/internal/middleware"
	"radar/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NearbyHandler struct {
	nearby *service.NearbyService
	log    *zap.Logger
}

func NewNearbyHandler(nearby *service.NearbyService, log *zap.Logger) *NearbyHandler {
	return &NearbyHandler{nearby: nearby, log: log}
}

// Find lists visible users around lat/lng. Query: lat, lng, radius (meters), limit, user_id.
func (h *NearbyHandler) Find(c *gin.Context) {
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" || lngStr == "" {
		badRequest(c, "lat and lng are required")
		return
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		badRequest(c, "lat and lng must be numbers")
		return
	}
	q := domain.NearbyQuery{
		ViewerID:  middleware.UserID(c, c.Query("user_id")),
		Latitude:  lat,
		Longitude: lng,
	}
	if s := c.Query("radius"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || r <= 0 {
			badRequest(c, "radius must be a positive number of meters")
			return
		}
		q.RadiusMeters = r
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		q.Limit = n
	}

	users, err := h.nearby.FindNearby(c.Request.Context(), q)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
