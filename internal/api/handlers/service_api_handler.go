package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// JsonApiRequest defines the expected structure for service API requests.
type JsonApiRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// JsonApiResponse defines the structure for service API responses.
type JsonApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ApiError carries a failed method's message and HTTP status.
type ApiError struct {
	Message string
	Status  int
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewApiError(message string) *ApiError {
	return &ApiError{Message: message, Status: http.StatusBadRequest}
}

func apiErrorFrom(err error) *ApiError {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.Logger.WithError(err).Error("Service API method failed")
		return &ApiError{Message: "Internal server error", Status: status}
	}
	return &ApiError{Message: err.Error(), Status: status}
}

type apiMethodFunc func(c *gin.Context, args json.RawMessage) (interface{}, *ApiError)

// ServiceApiHandler serves the internal service port: payment provider
// callbacks, maintenance sweeps and process control.
type ServiceApiHandler struct {
	paymentService  services.IPaymentService
	contractService services.IContractService
	inbox           InboxReader
	shutdownChan    chan<- struct{}
	methods         map[string]apiMethodFunc
}

// NewServiceApiHandler creates a new ServiceApiHandler.
func NewServiceApiHandler(
	paymentService services.IPaymentService,
	contractService services.IContractService,
	inbox InboxReader,
	shutdownChan chan<- struct{},
) *ServiceApiHandler {
	h := &ServiceApiHandler{
		paymentService:  paymentService,
		contractService: contractService,
		inbox:           inbox,
		shutdownChan:    shutdownChan,
	}
	h.methods = map[string]apiMethodFunc{
		"shutdown":        h.shutdown,
		"beginPayment":    h.beginPayment,
		"settlePayment":   h.settlePayment,
		"expireContracts": h.expireContracts,
		"getInbox":        h.getInbox,
	}
	return h
}

// HandleRequest is the entry point for POST /api on the service port.
func (h *ServiceApiHandler) HandleRequest(c *gin.Context) {
	var req JsonApiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, JsonApiResponse{Success: false, Error: "Invalid request format"})
		return
	}

	handlerFunc, ok := h.methods[req.Method]
	if !ok {
		c.JSON(http.StatusNotFound, JsonApiResponse{Success: false, Error: fmt.Sprintf("Unknown service method: %s", req.Method)})
		return
	}

	result, apiErr := handlerFunc(c, req.Arguments)
	if apiErr != nil {
		c.JSON(apiErr.Status, JsonApiResponse{Success: false, Error: apiErr.Message})
		return
	}
	c.JSON(http.StatusOK, JsonApiResponse{Success: true, Data: result})
}

// parseArgs decodes a positional JSON array of exactly len(dst) string arguments.
func parseArgs(args json.RawMessage, dst ...*string) *ApiError {
	var values []string
	if len(args) > 0 {
		if err := json.Unmarshal(args, &values); err != nil {
			return NewApiError("Invalid arguments: expected JSON array of strings")
		}
	}
	if len(values) != len(dst) {
		return NewApiError(fmt.Sprintf("Invalid arguments: expected %d, got %d", len(dst), len(values)))
	}
	for i, v := range values {
		*dst[i] = v
	}
	return nil
}

func (h *ServiceApiHandler) shutdown(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	utils.Logger.Info("Received shutdown command via Service API")
	select {
	case h.shutdownChan <- struct{}{}:
		utils.Logger.Info("Shutdown signal sent")
	default:
		utils.Logger.Warn("Shutdown channel already signaled or blocked")
	}
	return "Shutdown initiated", nil
}

// beginPayment: ["paymentID"]
func (h *ServiceApiHandler) beginPayment(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var paymentID string
	apiErr := parseArgs(args, &paymentID)
	if apiErr != nil {
		return nil, apiErr
	}
	if paymentID, apiErr = normalizePaymentID(paymentID); apiErr != nil {
		return nil, apiErr
	}
	payment, err := h.paymentService.BeginProcessing(c.Request.Context(), paymentID)
	if err != nil {
		return nil, apiErrorFrom(err)
	}
	return payment, nil
}

// settlePayment: ["paymentID", "complete"|"failed"]
func (h *ServiceApiHandler) settlePayment(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var paymentID, outcome string
	apiErr := parseArgs(args, &paymentID, &outcome)
	if apiErr != nil {
		return nil, apiErr
	}
	if paymentID, apiErr = normalizePaymentID(paymentID); apiErr != nil {
		return nil, apiErr
	}
	payment, err := h.paymentService.Settle(c.Request.Context(), paymentID, models.PaymentStatus(outcome))
	if err != nil {
		return nil, apiErrorFrom(err)
	}
	return payment, nil
}

func (h *ServiceApiHandler) expireContracts(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	expired, err := h.contractService.ExpireDue(c.Request.Context())
	if err != nil {
		return nil, apiErrorFrom(err)
	}
	return gin.H{"expired": expired}, nil
}

// getInbox: ["userID"]
func (h *ServiceApiHandler) getInbox(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var userID string
	if apiErr := parseArgs(args, &userID); apiErr != nil {
		return nil, apiErr
	}
	items, err := h.inbox.Inbox(c.Request.Context(), userID, maxInboxLimit)
	if err != nil {
		return nil, apiErrorFrom(err)
	}
	return items, nil
}

// normalizePaymentID accepts provider-echoed ids in any case, with separators.
func normalizePaymentID(raw string) (string, *ApiError) {
	id, err := utils.NormalizeID(raw)
	if err != nil {
		return "", NewApiError("Invalid payment id: " + err.Error())
	}
	return id, nil
}
