package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/middleware"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
)

// RestApplicationHandler handles REST requests for rental applications.
type RestApplicationHandler struct {
	applicationService services.IApplicationService
}

// NewRestApplicationHandler creates a new RestApplicationHandler.
func NewRestApplicationHandler(applicationService services.IApplicationService) *RestApplicationHandler {
	return &RestApplicationHandler{applicationService: applicationService}
}

type decisionRequest struct {
	Verdict models.Verdict `json:"verdict"`
}

// Submit handles POST /v1/applications
func (h *RestApplicationHandler) Submit(c *gin.Context) {
	var in services.SubmitApplicationInput
	if !bindBody(c, &in) {
		return
	}
	app, err := h.applicationService.Submit(c.Request.Context(), middleware.CallerID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// Decide handles POST /v1/applications/:id/decision
func (h *RestApplicationHandler) Decide(c *gin.Context) {
	var req decisionRequest
	if !bindBody(c, &req) {
		return
	}
	app, err := h.applicationService.Decide(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.Verdict)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Get handles GET /v1/applications/:id
func (h *RestApplicationHandler) Get(c *gin.Context) {
	app, err := h.applicationService.Get(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ListMine handles GET /v1/applications
func (h *RestApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.applicationService.ListForApplicant(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps})
}

// ListForProperty handles GET /v1/properties/:id/applications
func (h *RestApplicationHandler) ListForProperty(c *gin.Context) {
	apps, err := h.applicationService.ListForProperty(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps})
}
