package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api/middleware"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/storage"
)

// RestContractHandler handles REST requests for lease contracts.
type RestContractHandler struct {
	contractService services.IContractService
	archive         storage.IContractArchive
}

// NewRestContractHandler creates a new RestContractHandler.
func NewRestContractHandler(contractService services.IContractService, archive storage.IContractArchive) *RestContractHandler {
	return &RestContractHandler{contractService: contractService, archive: archive}
}

type signRequest struct {
	Signer string `json:"signer"`
}

// Instantiate handles POST /v1/contracts
func (h *RestContractHandler) Instantiate(c *gin.Context) {
	var in services.InstantiateContractInput
	if !bindBody(c, &in) {
		return
	}
	contract, err := h.contractService.Instantiate(c.Request.Context(), middleware.CallerID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

// Get handles GET /v1/contracts/:id
func (h *RestContractHandler) Get(c *gin.Context) {
	contract, err := h.contractService.Get(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// ListMine handles GET /v1/contracts
func (h *RestContractHandler) ListMine(c *gin.Context) {
	contracts, err := h.contractService.ListForUser(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contracts})
}

// Issue handles POST /v1/contracts/:id/issue
func (h *RestContractHandler) Issue(c *gin.Context) {
	h.respond(c, h.contractService.Issue)
}

// Cancel handles POST /v1/contracts/:id/cancel
func (h *RestContractHandler) Cancel(c *gin.Context) {
	h.respond(c, h.contractService.Cancel)
}

// Terminate handles POST /v1/contracts/:id/terminate
func (h *RestContractHandler) Terminate(c *gin.Context) {
	h.respond(c, h.contractService.Terminate)
}

// Sign handles POST /v1/contracts/:id/sign
func (h *RestContractHandler) Sign(c *gin.Context) {
	var req signRequest
	if !bindBody(c, &req) {
		return
	}
	signer, err := models.ParseSigner(req.Signer)
	if err != nil {
		respondError(c, &services.ValidationError{Field: "signer", Reason: "must be one of: owner, tenant"})
		return
	}
	contract, err := h.contractService.RecordSignature(c.Request.Context(), middleware.CallerID(c), c.Param("id"), signer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// ArchiveURL handles GET /v1/contracts/:id/archive-url
// Only parties of a contract signed by both sides get a link, once the
// snapshot has been written.
func (h *RestContractHandler) ArchiveURL(c *gin.Context) {
	ctx := c.Request.Context()
	contract, err := h.contractService.Get(ctx, middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if contract.TenantSignedAt == nil || contract.OwnerSignedAt == nil {
		respondError(c, &services.PreconditionError{Reason: "contract has not been signed by both parties"})
		return
	}

	archived, err := h.archive.ContractArchived(ctx, contract.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !archived {
		respondError(c, &services.PreconditionError{Reason: "contract archive is not ready yet"})
		return
	}

	url, err := h.archive.PresignedContractURL(ctx, contract.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *RestContractHandler) respond(c *gin.Context, op func(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error)) {
	contract, err := op(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}
