package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/handlers"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
)

type serviceFixture struct {
	payments  *MockPaymentService
	contracts *MockContractService
	inbox     *MockInbox
	shutdown  chan struct{}
	engine    *gin.Engine
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		payments:  new(MockPaymentService),
		contracts: new(MockContractService),
		inbox:     new(MockInbox),
		shutdown:  make(chan struct{}, 1),
	}
	h := handlers.NewServiceApiHandler(f.payments, f.contracts, f.inbox, f.shutdown)
	gin.SetMode(gin.TestMode)
	f.engine = gin.New()
	f.engine.POST("/api", h.HandleRequest)
	return f
}

func TestServiceApiHandler_BeginPayment(t *testing.T) {
	f := newServiceFixture()
	payment := &models.Payment{Base: models.Base{ID: "PAY0000001"}, Status: models.PaymentProcessing, ProviderReference: "ref-1"}
	f.payments.On("BeginProcessing", mock.Anything, "PAY0000001").Return(payment, nil)

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "beginPayment", "arguments": []string{"pay-000-0001"}})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "processing", body["data"].(map[string]interface{})["status"])
}

func TestServiceApiHandler_SettlePayment(t *testing.T) {
	f := newServiceFixture()
	payment := &models.Payment{Base: models.Base{ID: "PAY0000001"}, Status: models.PaymentComplete}
	f.payments.On("Settle", mock.Anything, "PAY0000001", models.PaymentComplete).Return(payment, nil)

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "settlePayment", "arguments": []string{"PAY0000001", "complete"}})

	assert.Equal(t, http.StatusOK, w.Code)
	f.payments.AssertExpectations(t)
}

func TestServiceApiHandler_SettlePayment_InvalidTransition(t *testing.T) {
	f := newServiceFixture()
	f.payments.On("Settle", mock.Anything, "PAY0000001", models.PaymentFailed).
		Return(nil, &services.InvalidTransitionError{Entity: "payment", From: "complete", To: "failed"})

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "settlePayment", "arguments": []string{"PAY0000001", "failed"}})

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "cannot move from complete to failed")
}

func TestServiceApiHandler_InvalidPaymentID(t *testing.T) {
	f := newServiceFixture()

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "beginPayment", "arguments": []string{"PAY001"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "Invalid payment id")
	f.payments.AssertNotCalled(t, "BeginProcessing", mock.Anything, mock.Anything)
}

func TestServiceApiHandler_WrongArgumentCount(t *testing.T) {
	f := newServiceFixture()

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "settlePayment", "arguments": []string{"PAY0000001"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.payments.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceApiHandler_ExpireContracts(t *testing.T) {
	f := newServiceFixture()
	f.contracts.On("ExpireDue", mock.Anything).Return(3, nil)

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "expireContracts"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeBody(t, w)["data"].(map[string]interface{})["expired"])
}

func TestServiceApiHandler_GetInbox(t *testing.T) {
	f := newServiceFixture()
	f.inbox.On("Inbox", mock.Anything, tenantID, 200).
		Return([]notify.Notification{{RecipientID: tenantID, Kind: notify.ContractSigned}}, nil)

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "getInbox", "arguments": []string{tenantID}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1)
}

func TestServiceApiHandler_Shutdown(t *testing.T) {
	f := newServiceFixture()

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "shutdown"})

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case <-f.shutdown:
	default:
		t.Fatal("shutdown signal was not sent")
	}
}

func TestServiceApiHandler_UnknownMethod(t *testing.T) {
	f := newServiceFixture()

	w := doJSON(f.engine, "POST", "/api", map[string]any{"method": "dropDatabase"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "Unknown service method")
}
