package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/handlers"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
)

func applicationEngine(caller string, svc *MockApplicationService) *gin.Engine {
	h := handlers.NewRestApplicationHandler(svc)
	r := newEngine(caller)
	r.POST("/v1/applications", h.Submit)
	r.GET("/v1/applications", h.ListMine)
	r.GET("/v1/applications/:id", h.Get)
	r.POST("/v1/applications/:id/decision", h.Decide)
	r.GET("/v1/properties/:id/applications", h.ListForProperty)
	return r
}

func TestRestApplicationHandler_Submit_Success(t *testing.T) {
	svc := new(MockApplicationService)
	in := services.SubmitApplicationInput{PropertyID: "PROP01", CoverLetter: "I would like to rent this apartment for my family."}
	app := &models.RentalApplication{Base: models.Base{ID: "APP001"}, PropertyID: "PROP01", ApplicantID: tenantID, Status: models.ApplicationPending}
	svc.On("Submit", mock.Anything, tenantID, in).Return(app, nil)

	w := doJSON(applicationEngine(tenantID, svc), "POST", "/v1/applications", in)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "APP001", body["id"])
	assert.Equal(t, "pending", body["status"])
	svc.AssertExpectations(t)
}

func TestRestApplicationHandler_Submit_MalformedBody(t *testing.T) {
	svc := new(MockApplicationService)

	w := doJSON(applicationEngine(tenantID, svc), "POST", "/v1/applications", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestRestApplicationHandler_Submit_ValidationError(t *testing.T) {
	svc := new(MockApplicationService)
	svc.On("Submit", mock.Anything, tenantID, mock.Anything).
		Return(nil, &services.ValidationError{Field: "cover_letter", Reason: "must be at least 50 characters"})

	w := doJSON(applicationEngine(tenantID, svc), "POST", "/v1/applications", map[string]string{"property_id": "PROP01"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "cover_letter", body["field"])
}

func TestRestApplicationHandler_Decide(t *testing.T) {
	svc := new(MockApplicationService)
	app := &models.RentalApplication{Base: models.Base{ID: "APP001"}, Status: models.ApplicationAccepted}
	svc.On("Decide", mock.Anything, ownerID, "APP001", models.VerdictAccept).Return(app, nil)

	w := doJSON(applicationEngine(ownerID, svc), "POST", "/v1/applications/APP001/decision", map[string]string{"verdict": "accept"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accepted", decodeBody(t, w)["status"])
	svc.AssertExpectations(t)
}

func TestRestApplicationHandler_Decide_Forbidden(t *testing.T) {
	svc := new(MockApplicationService)
	svc.On("Decide", mock.Anything, tenantID, "APP001", models.VerdictReject).
		Return(nil, &services.ForbiddenError{Reason: "only the property owner may decide"})

	w := doJSON(applicationEngine(tenantID, svc), "POST", "/v1/applications/APP001/decision", map[string]string{"verdict": "reject"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRestApplicationHandler_Get_NotFound(t *testing.T) {
	svc := new(MockApplicationService)
	svc.On("Get", mock.Anything, tenantID, "MISSING").Return(nil, store.ErrNotFound)

	w := doJSON(applicationEngine(tenantID, svc), "GET", "/v1/applications/MISSING", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestApplicationHandler_ListForProperty(t *testing.T) {
	svc := new(MockApplicationService)
	apps := []*models.RentalApplication{
		{Base: models.Base{ID: "APP002"}, ApplicationScore: 90},
		{Base: models.Base{ID: "APP001"}, ApplicationScore: 40},
	}
	svc.On("ListForProperty", mock.Anything, ownerID, "PROP01").Return(apps, nil)

	w := doJSON(applicationEngine(ownerID, svc), "GET", "/v1/properties/PROP01/applications", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := decodeBody(t, w)["data"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, data, 2)
	assert.Equal(t, "APP002", data[0].(map[string]interface{})["id"])
}

func TestRestApplicationHandler_ListMine_InternalError(t *testing.T) {
	svc := new(MockApplicationService)
	svc.On("ListForApplicant", mock.Anything, tenantID).Return(nil, errors.New("connection reset"))

	w := doJSON(applicationEngine(tenantID, svc), "GET", "/v1/applications", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, w)["error"])
}
