package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/middleware"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
)

// RestPaymentHandler handles REST requests for contract payments.
type RestPaymentHandler struct {
	paymentService services.IPaymentService
}

// NewRestPaymentHandler creates a new RestPaymentHandler.
func NewRestPaymentHandler(paymentService services.IPaymentService) *RestPaymentHandler {
	return &RestPaymentHandler{paymentService: paymentService}
}

// Initiate handles POST /v1/payments
func (h *RestPaymentHandler) Initiate(c *gin.Context) {
	var in services.InitiatePaymentInput
	if !bindBody(c, &in) {
		return
	}
	payment, err := h.paymentService.Initiate(c.Request.Context(), middleware.CallerID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// Get handles GET /v1/payments/:id
func (h *RestPaymentHandler) Get(c *gin.Context) {
	payment, err := h.paymentService.Get(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Cancel handles POST /v1/payments/:id/cancel
func (h *RestPaymentHandler) Cancel(c *gin.Context) {
	payment, err := h.paymentService.Cancel(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ListForContract handles GET /v1/contracts/:id/payments
func (h *RestPaymentHandler) ListForContract(c *gin.Context) {
	payments, err := h.paymentService.ListForContract(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments})
}
