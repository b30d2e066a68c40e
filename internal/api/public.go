package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekoinbox/backend/internal/models"
	"github.com/nekoinbox/backend/internal/notify"
	"github.com/nekoinbox/backend/internal/repository"
	"github.com/nekoinbox/backend/internal/verify"
	"go.uber.org/zap"
)

// PublicHandler serves the anonymous write actions (vote, report) and
// the public frontend config. Votes and reports are gated by the
// human-verification challenge, not by any account: repeat votes from
// the same person are the client's bookkeeping, not enforced here.
type PublicHandler struct {
	repo     repository.MessageRepository
	verifier verify.Verifier
	notifier notify.Notifier
	siteKey  string
	logger   *zap.Logger
}

func NewPublicHandler(
	repo repository.MessageRepository,
	verifier verify.Verifier,
	notifier notify.Notifier,
	siteKey string,
	logger *zap.Logger,
) *PublicHandler {
	return &PublicHandler{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		siteKey:  siteKey,
		logger:   logger,
	}
}

type voteRequest struct {
	MessageID string `json:"messageId" binding:"required"`
	VoteType  string `json:"voteType" binding:"required"`
	// The web frontend posts the widget's field name verbatim; other
	// clients use the friendlier alias. Either works.
	VerificationToken string `json:"verificationToken"`
	TurnstileResponse string `json:"cf-turnstile-response"`
}

func (r *voteRequest) challengeToken() string {
	if r.VerificationToken != "" {
		return r.VerificationToken
	}
	return r.TurnstileResponse
}

// Vote handles POST /api/vote.
func (h *PublicHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId and voteType are required"})
		return
	}

	if !h.verifier.Verify(c.Request.Context(), req.challengeToken(), c.ClientIP()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}

	vote := models.VoteType(req.VoteType)
	if !models.ValidVoteType(vote) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voteType must be like or dislike"})
		return
	}

	msg, err := h.repo.Vote(c.Request.Context(), req.MessageID, vote)
	if err != nil {
		respondNotFoundOr500(c, h.logger, err, "record vote")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

type reportRequest struct {
	MessageID         string `json:"messageId" binding:"required"`
	VerificationToken string `json:"verificationToken"`
	TurnstileResponse string `json:"cf-turnstile-response"`
}

func (r *reportRequest) challengeToken() string {
	if r.VerificationToken != "" {
		return r.VerificationToken
	}
	return r.TurnstileResponse
}

// Report handles POST /api/report. The counter increment is the
// operation; the admin notification is best effort and can only be
// observed in the logs.
func (h *PublicHandler) Report(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
		return
	}

	if !h.verifier.Verify(c.Request.Context(), req.challengeToken(), c.ClientIP()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}

	msg, err := h.repo.Report(c.Request.Context(), req.MessageID)
	if err != nil {
		respondNotFoundOr500(c, h.logger, err, "record report")
		return
	}

	if err := h.notifier.ReportFiled(msg); err != nil {
		h.logger.Warn("report notification not sent",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// Config handles GET /api/config: the non-secret values the frontend
// needs before it can render (currently just the challenge site key).
func (h *PublicHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"turnstileSiteKey": h.siteKey})
}
