package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekoinbox/backend/internal/middleware"
	"github.com/nekoinbox/backend/internal/models"
	"github.com/nekoinbox/backend/internal/repository"
	"go.uber.org/zap"
)

// MessageHandler serves the public feed and the bot submission
// endpoint.
type MessageHandler struct {
	repo     repository.MessageRepository
	apiToken string
	logger   *zap.Logger
}

func NewMessageHandler(repo repository.MessageRepository, apiToken string, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{repo: repo, apiToken: apiToken, logger: logger}
}

// List handles GET /api/messages?page&limit&search&filterByTag&sortBy.
//
// Defaults: page=1, limit=10, sortBy=likes, filterByTag=all. Page and
// limit are floored at 1 and limit capped at 100. A page past the end
// is not an error; it returns an empty page with correct totals.
func (h *MessageHandler) List(c *gin.Context) {
	params := models.ListParams{
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 10),
		SortBy:      models.SortOrder(c.DefaultQuery("sortBy", string(models.SortByLikes))),
		FilterByTag: c.DefaultQuery("filterByTag", models.FilterAll),
		SearchTerm:  strings.ToLower(strings.TrimSpace(c.Query("search"))),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 1
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	switch params.SortBy {
	case models.SortByLikes, models.SortByDate, models.SortByReplies:
	default:
		params.SortBy = models.SortByLikes
	}

	list, err := h.repo.List(c.Request.Context(), params)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create handles POST /api/messages, the bot integration's submit
// endpoint, guarded by a static shared-secret bearer credential.
func (h *MessageHandler) Create(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok || h.apiToken == "" || token != h.apiToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API token"})
		return
	}

	var sub models.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	msg, err := h.repo.Create(c.Request.Context(), sub)
	if err != nil {
		h.logger.Error("failed to create message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create message"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
}

func queryInt(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// respondNotFoundOr500 maps a repository error onto the API contract:
// ErrNotFound is the caller's mistake; anything else is ours and
// surfaces only as a generic diagnostic.
func respondNotFoundOr500(c *gin.Context, logger *zap.Logger, err error, action string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	logger.Error("failed to "+action, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
}
