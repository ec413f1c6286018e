package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/middleware"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 200
)

// InboxReader reads a user's recent notifications.
type InboxReader interface {
	Inbox(ctx context.Context, userID string, limit int) ([]notify.Notification, error)
}

// RestProfileHandler handles REST requests about the caller's own profile.
type RestProfileHandler struct {
	scoringService services.IScoringService
	inbox          InboxReader
}

// NewRestProfileHandler creates a new RestProfileHandler.
func NewRestProfileHandler(scoringService services.IScoringService, inbox InboxReader) *RestProfileHandler {
	return &RestProfileHandler{scoringService: scoringService, inbox: inbox}
}

// RefreshTrustScore handles POST /v1/profile/trust-score
func (h *RestProfileHandler) RefreshTrustScore(c *gin.Context) {
	score, err := h.scoringService.RefreshTrustScore(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trust_score": score})
}

// Notifications handles GET /v1/notifications
func (h *RestProfileHandler) Notifications(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultInboxLimit)))
	if err != nil || limit <= 0 || limit > maxInboxLimit {
		limit = defaultInboxLimit
	}

	items, err := h.inbox.Inbox(c.Request.Context(), middleware.CallerID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}
