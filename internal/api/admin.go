package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nekoinbox/backend/internal/auth"
	"github.com/nekoinbox/backend/internal/models"
	"github.com/nekoinbox/backend/internal/repository"
	"go.uber.org/zap"
)

// AdminHandler carries the moderation surface: login issues the admin
// token; reply, tag and delete sit behind the AdminAuth middleware.
type AdminHandler struct {
	repo          repository.MessageRepository
	adminPassword string
	jwtSecret     string
	tokenLifetime time.Duration
	logger        *zap.Logger
}

func NewAdminHandler(
	repo repository.MessageRepository,
	adminPassword, jwtSecret string,
	tokenLifetime time.Duration,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		repo:          repo,
		adminPassword: adminPassword,
		jwtSecret:     jwtSecret,
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "password is required"})
		return
	}

	if !auth.CheckAdminPassword(h.adminPassword, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid password"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, h.tokenLifetime)
	if err != nil {
		h.logger.Error("failed to issue admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

type replyRequest struct {
	MessageID    string `json:"messageId" binding:"required"`
	ReplyContent string `json:"replyContent" binding:"required"`
}

// Reply handles POST /api/reply.
func (h *AdminHandler) Reply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId and replyContent are required"})
		return
	}

	reply, err := h.repo.AddReply(c.Request.Context(), req.MessageID, req.ReplyContent)
	if err != nil {
		respondNotFoundOr500(c, h.logger, err, "add reply")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply})
}

type tagRequest struct {
	MessageID string `json:"messageId" binding:"required"`
	Tag       string `json:"tag" binding:"required"`
}

// Tag handles POST /api/tag.
func (h *AdminHandler) Tag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId and tag are required"})
		return
	}

	tag := models.Tag(req.Tag)
	if !models.ValidTag(tag) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tag"})
		return
	}

	msg, err := h.repo.SetTag(c.Request.Context(), req.MessageID, tag)
	if err != nil {
		respondNotFoundOr500(c, h.logger, err, "set tag")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

type deleteRequest struct {
	MessageID string `json:"messageId" binding:"required"`
}

// Delete handles DELETE /api/messages.
func (h *AdminHandler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), req.MessageID); err != nil {
		respondNotFoundOr500(c, h.logger, err, "delete message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
