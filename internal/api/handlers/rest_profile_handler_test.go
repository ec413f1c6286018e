package handlers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/handlers"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
)

func profileEngine(caller string, scoring *MockScoringService, inbox *MockInbox) *gin.Engine {
	h := handlers.NewRestProfileHandler(scoring, inbox)
	r := newEngine(caller)
	r.POST("/v1/profile/trust-score", h.RefreshTrustScore)
	r.GET("/v1/notifications", h.Notifications)
	return r
}

func TestRestProfileHandler_RefreshTrustScore(t *testing.T) {
	scoring := new(MockScoringService)
	scoring.On("RefreshTrustScore", mock.Anything, tenantID).Return(70, nil)

	w := doJSON(profileEngine(tenantID, scoring, nil), "POST", "/v1/profile/trust-score", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(70), decodeBody(t, w)["trust_score"])
}

func TestRestProfileHandler_RefreshTrustScore_NoProfile(t *testing.T) {
	scoring := new(MockScoringService)
	scoring.On("RefreshTrustScore", mock.Anything, tenantID).Return(0, store.ErrNotFound)

	w := doJSON(profileEngine(tenantID, scoring, nil), "POST", "/v1/profile/trust-score", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestProfileHandler_Notifications(t *testing.T) {
	inbox := new(MockInbox)
	items := []notify.Notification{{
		RecipientID: ownerID,
		Kind:        notify.ApplicationSubmitted,
		Payload:     notify.Payload{"application_id": "APP001"},
		CreatedAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}}
	inbox.On("Inbox", mock.Anything, ownerID, 10).Return(items, nil)

	w := doJSON(profileEngine(ownerID, nil, inbox), "GET", "/v1/notifications?limit=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := decodeBody(t, w)["data"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, data, 1)
	inbox.AssertExpectations(t)
}

func TestRestProfileHandler_Notifications_LimitFallsBackToDefault(t *testing.T) {
	inbox := new(MockInbox)
	inbox.On("Inbox", mock.Anything, ownerID, 50).Return([]notify.Notification{}, nil).Twice()

	r := profileEngine(ownerID, nil, inbox)
	assert.Equal(t, http.StatusOK, doJSON(r, "GET", "/v1/notifications?limit=abc", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, "GET", "/v1/notifications?limit=100000", nil).Code)
	inbox.AssertExpectations(t)
}

func TestRestProfileHandler_Notifications_RedisDown(t *testing.T) {
	inbox := new(MockInbox)
	inbox.On("Inbox", mock.Anything, ownerID, 50).Return(nil, errors.New("dial tcp: connection refused"))

	w := doJSON(profileEngine(ownerID, nil, inbox), "GET", "/v1/notifications", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
