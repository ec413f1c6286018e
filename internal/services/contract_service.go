package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// IContractService defines the interface for lease contract operations.
type IContractService interface {
	Instantiate(ctx context.Context, actorID string, in InstantiateContractInput) (*models.LeaseContract, error)
	Issue(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error)
	RecordSignature(ctx context.Context, actorID, contractID string, signer models.Signer) (*models.LeaseContract, error)
	Cancel(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error)
	Terminate(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error)
	Expire(ctx context.Context, contractID string) (*models.LeaseContract, error)
	ExpireDue(ctx context.Context) (int, error)
	Get(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error)
	ListForUser(ctx context.Context, actorID string) ([]*models.LeaseContract, error)
}

// ContractArchiver keeps a durable copy of a contract once it is active.
type ContractArchiver interface {
	ArchiveContract(ctx context.Context, contractID string) error
}

// InstantiateContractInput names the accepted application and the lease period.
type InstantiateContractInput struct {
	ApplicationID string    `json:"application_id" validate:"required"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

const contractEntity = "contract"

type contractService struct {
	lifecycle
	archiver ContractArchiver
}

// NewContractService creates a new ContractService. archiver may be nil.
func NewContractService(repos *store.Repositories, cfg *config.Config, notifier notify.Dispatcher, archiver ContractArchiver) IContractService {
	return &contractService{lifecycle: newLifecycle(repos, cfg, notifier), archiver: archiver}
}

// Instantiate drafts a contract from an accepted application. Rent and
// deposit are copied from the property. The application is never modified,
// so a failure here leaves it accepted and the call can be repeated.
func (s *contractService) Instantiate(ctx context.Context, actorID string, in InstantiateContractInput) (*models.LeaseContract, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	app, err := s.repos.Applications.Get(ctx, in.ApplicationID)
	if err != nil {
		return nil, readErr(applicationEntity, in.ApplicationID, err)
	}
	property, err := s.property(ctx, app.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != actorID {
		return nil, &ForbiddenError{Reason: "only the property owner can draw up a contract"}
	}
	if app.Status != models.ApplicationAccepted {
		return nil, &PreconditionError{Reason: "application must be accepted, it is " + string(app.Status)}
	}

	open, err := s.repos.Contracts.Find(ctx, store.Where("application_id", app.ID).
		In("status", store.Strings(models.OpenContractStatuses)...))
	if err != nil {
		return nil, readErr(contractEntity, "for application "+app.ID, err)
	}
	if len(open) > 0 {
		return nil, &ConflictError{Entity: contractEntity, Reason: "a contract for this application already exists"}
	}

	now := s.now()
	contract := &models.LeaseContract{
		Timestamps:    models.Timestamps{CreatedAt: now, UpdatedAt: now},
		ApplicationID: app.ID,
		PropertyID:    property.ID,
		OwnerID:       property.OwnerID,
		TenantID:      app.ApplicantID,
		MonthlyRent:   property.MonthlyRent,
		DepositAmount: property.DepositAmount,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		Status:        models.ContractDraft,
	}
	if _, err := s.repos.Contracts.Insert(ctx, contract); err != nil {
		return nil, writeErr(contractEntity, contract.ID, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"contract_id":    contract.ID,
		"application_id": app.ID,
	}).Info("Contract drafted")

	s.notifier.Notify(ctx, contract.TenantID, notify.ContractCreated, contractPayload(contract))
	return contract, nil
}

// Issue sends a draft to the parties for signature.
func (s *contractService) Issue(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	contract, err := s.transition(ctx, contractID, models.ContractAwaitingSignature, func(c *models.LeaseContract) error {
		if c.OwnerID != actorID {
			return &ForbiddenError{Reason: "only the owner can issue a contract"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, contract.TenantID, notify.ContractIssued, contractPayload(contract))
	return contract, nil
}

// RecordSignature sets the signer's timestamp and derives the status from
// the signatures present. Signing twice as the same party is a no-op.
func (s *contractService) RecordSignature(ctx context.Context, actorID, contractID string, signer models.Signer) (*models.LeaseContract, error) {
	if _, err := models.ParseSigner(string(signer)); err != nil {
		return nil, &ValidationError{Field: "signer", Reason: "must be one of: owner, tenant"}
	}

	var contract *models.LeaseContract
	var changed bool
	err := s.withConflictRetry(func() error {
		var err error
		changed = false
		contract, err = s.load(ctx, contractID)
		if err != nil {
			return err
		}
		if err := authorizeSigner(contract, actorID, signer); err != nil {
			return err
		}
		if contract.Status.IsTerminal() {
			return invalidTransition(contractEntity, contract.Status, models.ContractActive)
		}

		signedAt := &contract.OwnerSignedAt
		field := "owner_signed_at"
		if signer == models.SignerTenant {
			signedAt = &contract.TenantSignedAt
			field = "tenant_signed_at"
		}
		if *signedAt != nil {
			return nil
		}

		now := s.now()
		from := contract.Status
		*signedAt = &now
		target := contract.SignatureStatus()
		if !from.CanTransition(target) {
			return invalidTransition(contractEntity, from, target)
		}

		patch := s.stamped(store.Patch{field: now, "status": target})
		if err := s.repos.Contracts.ConditionalUpdate(ctx, contract.ID, string(from), patch); err != nil {
			return writeErr(contractEntity, contract.ID, err)
		}
		contract.Status = target
		contract.UpdatedAt = patch["updated_at"].(time.Time)
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return contract, nil
	}

	utils.Logger.WithFields(logrus.Fields{
		"contract_id": contract.ID,
		"signer":      signer,
		"status":      contract.Status,
	}).Info("Contract signed")

	if contract.Status != models.ContractActive {
		s.notifier.Notify(ctx, counterpart(actorID, contract.OwnerID, contract.TenantID), notify.ContractSigned, contractPayload(contract))
		return contract, nil
	}

	s.notifier.Notify(ctx, contract.OwnerID, notify.ContractActivated, contractPayload(contract))
	s.notifier.Notify(ctx, contract.TenantID, notify.ContractActivated, contractPayload(contract))
	if s.archiver != nil {
		if err := s.archiver.ArchiveContract(ctx, contract.ID); err != nil {
			utils.Logger.WithError(err).WithField("contract_id", contract.ID).Error("Failed to schedule contract archive")
		}
	}
	return contract, nil
}

// Cancel abandons a contract that is not active yet.
func (s *contractService) Cancel(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	contract, err := s.transition(ctx, contractID, models.ContractCancelled, partyOnly(actorID))
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, counterpart(actorID, contract.OwnerID, contract.TenantID), notify.ContractCancelled, contractPayload(contract))
	return contract, nil
}

// Terminate ends an active contract early.
func (s *contractService) Terminate(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	contract, err := s.transition(ctx, contractID, models.ContractTerminated, partyOnly(actorID))
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, counterpart(actorID, contract.OwnerID, contract.TenantID), notify.ContractTerminated, contractPayload(contract))
	return contract, nil
}

// Expire closes an active contract whose end date has passed.
func (s *contractService) Expire(ctx context.Context, contractID string) (*models.LeaseContract, error) {
	contract, err := s.transition(ctx, contractID, models.ContractExpired, func(c *models.LeaseContract) error {
		if s.now().Before(c.EndDate) {
			return &PreconditionError{Reason: "contract end date has not passed"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, contract.OwnerID, notify.ContractExpired, contractPayload(contract))
	s.notifier.Notify(ctx, contract.TenantID, notify.ContractExpired, contractPayload(contract))
	return contract, nil
}

// ExpireDue expires every active contract whose end date has passed and
// returns how many were expired. Contracts changed concurrently are skipped.
func (s *contractService) ExpireDue(ctx context.Context) (int, error) {
	active, err := s.repos.Contracts.Find(ctx, store.Where("status", models.ContractActive))
	if err != nil {
		return 0, readErr(contractEntity, "active", err)
	}

	now := s.now()
	expired := 0
	for _, c := range active {
		if now.Before(c.EndDate) {
			continue
		}
		if _, err := s.Expire(ctx, c.ID); err != nil {
			var ite *InvalidTransitionError
			var pe *PreconditionError
			if errors.As(err, &ite) || errors.As(err, &pe) || IsConcurrentModification(err) {
				utils.Logger.WithError(err).WithField("contract_id", c.ID).Warn("Skipping contract during expiry sweep")
				continue
			}
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		utils.Logger.Infof("Contract expiry sweep expired %d contracts", expired)
	}
	return expired, nil
}

func (s *contractService) Get(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	contract, err := s.load(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := partyOnly(actorID)(contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// ListForUser returns the contracts where the caller is owner or tenant, newest first.
func (s *contractService) ListForUser(ctx context.Context, actorID string) ([]*models.LeaseContract, error) {
	asOwner, err := s.repos.Contracts.Find(ctx, store.Where("owner_id", actorID))
	if err != nil {
		return nil, readErr(contractEntity, "for owner "+actorID, err)
	}
	asTenant, err := s.repos.Contracts.Find(ctx, store.Where("tenant_id", actorID))
	if err != nil {
		return nil, readErr(contractEntity, "for tenant "+actorID, err)
	}
	all := append(asOwner, asTenant...)
	sortNewestFirst(all, func(c *models.LeaseContract) time.Time { return c.CreatedAt })
	return all, nil
}

type contractGuard func(c *models.LeaseContract) error

func partyOnly(actorID string) contractGuard {
	return func(c *models.LeaseContract) error {
		if !c.IsParty(actorID) {
			return &ForbiddenError{Reason: "only the owner or the tenant can act on a contract"}
		}
		return nil
	}
}

func authorizeSigner(c *models.LeaseContract, actorID string, signer models.Signer) error {
	expected := c.OwnerID
	if signer == models.SignerTenant {
		expected = c.TenantID
	}
	if actorID != expected {
		return &ForbiddenError{Reason: "caller cannot sign as " + string(signer)}
	}
	return nil
}

func (s *contractService) transition(ctx context.Context, contractID string, target models.ContractStatus, guard contractGuard) (*models.LeaseContract, error) {
	var contract *models.LeaseContract
	err := s.withConflictRetry(func() error {
		var err error
		contract, err = s.load(ctx, contractID)
		if err != nil {
			return err
		}
		if err := guard(contract); err != nil {
			return err
		}
		if !contract.Status.CanTransition(target) {
			return invalidTransition(contractEntity, contract.Status, target)
		}
		patch := s.stamped(store.Patch{"status": target})
		if err := s.repos.Contracts.ConditionalUpdate(ctx, contract.ID, string(contract.Status), patch); err != nil {
			return writeErr(contractEntity, contract.ID, err)
		}
		contract.Status = target
		contract.UpdatedAt = patch["updated_at"].(time.Time)
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Logger.WithField("contract_id", contract.ID).Infof("Contract %s", target)
	return contract, nil
}

func (s *contractService) load(ctx context.Context, id string) (*models.LeaseContract, error) {
	contract, err := s.repos.Contracts.Get(ctx, id)
	if err != nil {
		return nil, readErr(contractEntity, id, err)
	}
	return contract, nil
}

func contractPayload(c *models.LeaseContract) notify.Payload {
	return notify.Payload{
		"contract_id": c.ID,
		"property_id": c.PropertyID,
		"status":      c.Status,
	}
}
