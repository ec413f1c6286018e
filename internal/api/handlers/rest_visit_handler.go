package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/middleware"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
)

// RestVisitHandler handles REST requests for property visits.
type RestVisitHandler struct {
	visitService services.IVisitService
}

// NewRestVisitHandler creates a new RestVisitHandler.
func NewRestVisitHandler(visitService services.IVisitService) *RestVisitHandler {
	return &RestVisitHandler{visitService: visitService}
}

type cancelVisitRequest struct {
	Reason string `json:"reason"`
}

// Schedule handles POST /v1/visits
func (h *RestVisitHandler) Schedule(c *gin.Context) {
	var in services.ScheduleVisitInput
	if !bindBody(c, &in) {
		return
	}
	visit, err := h.visitService.Schedule(c.Request.Context(), middleware.CallerID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, visit)
}

// AvailableSlots handles GET /v1/properties/:id/visit-slots?date=YYYY-MM-DD
func (h *RestVisitHandler) AvailableSlots(c *gin.Context) {
	date := c.Query("date")
	slots, err := h.visitService.AvailableSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

// Get handles GET /v1/visits/:id
func (h *RestVisitHandler) Get(c *gin.Context) {
	visit, err := h.visitService.Get(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

// Confirm handles POST /v1/visits/:id/confirm
func (h *RestVisitHandler) Confirm(c *gin.Context) {
	visit, err := h.visitService.Confirm(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

// Cancel handles POST /v1/visits/:id/cancel
func (h *RestVisitHandler) Cancel(c *gin.Context) {
	var req cancelVisitRequest
	if !bindOptionalBody(c, &req) {
		return
	}
	visit, err := h.visitService.Cancel(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

// Complete handles POST /v1/visits/:id/complete
func (h *RestVisitHandler) Complete(c *gin.Context) {
	var in services.CompleteVisitInput
	if !bindOptionalBody(c, &in) {
		return
	}
	visit, err := h.visitService.Complete(c.Request.Context(), middleware.CallerID(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}
