package models

import (
	"fmt"
	"time"
)

// ContractStatus is the closed set of lease contract states.
type ContractStatus string

const (
	ContractDraft             ContractStatus = "draft"
	ContractAwaitingSignature ContractStatus = "awaiting_signature"
	ContractPartiallySigned   ContractStatus = "partially_signed"
	ContractActive            ContractStatus = "active"
	ContractExpired           ContractStatus = "expired"
	ContractTerminated        ContractStatus = "terminated"
	ContractCancelled         ContractStatus = "cancelled"
)

// A draft may be signed directly; the first signature issues it implicitly.
var contractTransitions = transitionTable[ContractStatus]{
	ContractDraft:             {ContractAwaitingSignature, ContractPartiallySigned, ContractCancelled},
	ContractAwaitingSignature: {ContractPartiallySigned, ContractCancelled},
	ContractPartiallySigned:   {ContractActive, ContractCancelled},
	ContractActive:            {ContractExpired, ContractTerminated},
}

func ParseContractStatus(s string) (ContractStatus, error) {
	switch st := ContractStatus(s); st {
	case ContractDraft, ContractAwaitingSignature, ContractPartiallySigned, ContractActive,
		ContractExpired, ContractTerminated, ContractCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid contract status: %q", s)
}

func (s ContractStatus) CanTransition(to ContractStatus) bool {
	return contractTransitions.allows(s, to)
}

func (s ContractStatus) IsTerminal() bool {
	return len(contractTransitions[s]) == 0
}

// OpenContractStatuses are the statuses that block a second contract for the same application.
var OpenContractStatuses = []ContractStatus{
	ContractDraft, ContractAwaitingSignature, ContractPartiallySigned, ContractActive,
}

// Signer identifies which party signs.
type Signer string

const (
	SignerOwner  Signer = "owner"
	SignerTenant Signer = "tenant"
)

func ParseSigner(s string) (Signer, error) {
	switch sg := Signer(s); sg {
	case SignerOwner, SignerTenant:
		return sg, nil
	}
	return "", fmt.Errorf("invalid signer: %q", s)
}

// LeaseContract is instantiated from an accepted application.
// Rent and deposit are copied from the property at creation.
type LeaseContract struct {
	Base           `bson:",inline"`
	Timestamps     `bson:",inline"`
	ApplicationID  string         `bson:"application_id" json:"application_id"`
	PropertyID     string         `bson:"property_id" json:"property_id"`
	OwnerID        string         `bson:"owner_id" json:"owner_id"`
	TenantID       string         `bson:"tenant_id" json:"tenant_id"`
	MonthlyRent    int64          `bson:"monthly_rent" json:"monthly_rent"`
	DepositAmount  int64          `bson:"deposit_amount" json:"deposit_amount"`
	StartDate      time.Time      `bson:"start_date" json:"start_date"`
	EndDate        time.Time      `bson:"end_date" json:"end_date"`
	OwnerSignedAt  *time.Time     `bson:"owner_signed_at,omitempty" json:"owner_signed_at,omitempty"`
	TenantSignedAt *time.Time     `bson:"tenant_signed_at,omitempty" json:"tenant_signed_at,omitempty"`
	Status         ContractStatus `bson:"status" json:"status"`
}

// SignatureStatus derives the status from the signature timestamps.
// Both set means active, exactly one means partially signed.
func (c *LeaseContract) SignatureStatus() ContractStatus {
	switch {
	case c.OwnerSignedAt != nil && c.TenantSignedAt != nil:
		return ContractActive
	case c.OwnerSignedAt != nil || c.TenantSignedAt != nil:
		return ContractPartiallySigned
	}
	return c.Status
}

// IsParty reports whether userID is the owner or the tenant.
func (c *LeaseContract) IsParty(userID string) bool {
	return userID == c.OwnerID || userID == c.TenantID
}
