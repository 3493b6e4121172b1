package handler

import (
	"net/http"

	"radar/config"
	"radar/internal/auth"
	"radar/internal/middleware"
	"radar/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	users  *service.UserService
	jwtCfg *config.JWTConfig
	log    *zap.Logger
}

func NewUserHandler(users *service.UserService, jwtCfg *config.JWTConfig, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, jwtCfg: jwtCfg, log: log}
}

// Create registers a user with default privacy settings and returns a device token.
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := h.users.CreateUser(c.Request.Context(), service.CreateUserInput{Name: req.Name, Email: req.Email, Avatar: req.Avatar})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	token, err := auth.GenerateDeviceToken(h.jwtCfg, u.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u, "token": token})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.users.GetUser(c.Request.Context(), middleware.UserID(c, c.Query("user_id")))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
