package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// IPaymentService defines the interface for payment operations.
// BeginProcessing and Settle are driven by the payment provider, not by a party.
type IPaymentService interface {
	Initiate(ctx context.Context, actorID string, in InitiatePaymentInput) (*models.Payment, error)
	BeginProcessing(ctx context.Context, paymentID string) (*models.Payment, error)
	Settle(ctx context.Context, paymentID string, outcome models.PaymentStatus) (*models.Payment, error)
	Cancel(ctx context.Context, actorID, paymentID string) (*models.Payment, error)
	Get(ctx context.Context, actorID, paymentID string) (*models.Payment, error)
	ListForContract(ctx context.Context, actorID, contractID string) ([]*models.Payment, error)
}

// InitiatePaymentInput is the payer's request. MobileMoney is required
// exactly when PaymentMethod is mobile_money.
type InitiatePaymentInput struct {
	ContractID     string              `json:"contract_id" validate:"required"`
	PaymentType    string              `json:"payment_type" validate:"required,oneof=rent deposit charges agency_fee"`
	PaymentMethod  string              `json:"payment_method" validate:"required,oneof=mobile_money bank_card bank_transfer cash"`
	Amount         int64               `json:"amount" validate:"gt=0"`
	OverrideAmount bool                `json:"override_amount"`
	MobileMoney    *MobileMoneyDetails `json:"mobile_money"`
}

// MobileMoneyDetails identifies the payer's mobile money wallet.
type MobileMoneyDetails struct {
	Provider string `json:"provider" validate:"required,oneof=orange_money mtn_momo moov_money wave"`
	Number   string `json:"number" validate:"required,mobile_money_number"`
}

const paymentEntity = "payment"

type paymentService struct {
	lifecycle
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(repos *store.Repositories, cfg *config.Config, notifier notify.Dispatcher) IPaymentService {
	return &paymentService{lifecycle: newLifecycle(repos, cfg, notifier)}
}

// Initiate records a pending payment from the caller to the other party of an active contract.
func (s *paymentService) Initiate(ctx context.Context, actorID string, in InitiatePaymentInput) (*models.Payment, error) {
	in.ContractID = strings.TrimSpace(in.ContractID)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	method := models.PaymentMethod(in.PaymentMethod)
	switch {
	case method == models.MethodMobileMoney && in.MobileMoney == nil:
		return nil, &ValidationError{Field: "mobile_money", Reason: "is required for mobile_money payments"}
	case method != models.MethodMobileMoney && in.MobileMoney != nil:
		return nil, &ValidationError{Field: "mobile_money", Reason: "is only allowed for mobile_money payments"}
	}

	contract, err := s.repos.Contracts.Get(ctx, in.ContractID)
	if err != nil {
		return nil, readErr(contractEntity, in.ContractID, err)
	}
	if !contract.IsParty(actorID) {
		return nil, &ForbiddenError{Reason: "only the owner or the tenant can pay under a contract"}
	}
	if contract.Status != models.ContractActive {
		return nil, &PreconditionError{Reason: "contract must be active, it is " + string(contract.Status)}
	}

	paymentType := models.PaymentType(in.PaymentType)
	if paymentType == models.PaymentRent && in.Amount != contract.MonthlyRent && !in.OverrideAmount {
		return nil, &ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("amount mismatch: rent must equal the contract's monthly rent of %d", contract.MonthlyRent),
		}
	}

	now := s.now()
	payment := &models.Payment{
		Timestamps:       models.Timestamps{CreatedAt: now, UpdatedAt: now},
		PayerID:          actorID,
		ReceiverID:       counterpart(actorID, contract.TenantID, contract.OwnerID),
		PropertyID:       contract.PropertyID,
		ContractID:       contract.ID,
		Amount:           in.Amount,
		AmountOverridden: paymentType == models.PaymentRent && in.Amount != contract.MonthlyRent,
		PaymentType:      paymentType,
		PaymentMethod:    method,
		Status:           models.PaymentPending,
	}
	if in.MobileMoney != nil {
		number, err := NormalizeMobileMoneyNumber(in.MobileMoney.Number)
		if err != nil {
			return nil, &ValidationError{Field: "mobile_money.number", Reason: mobileNumberReason}
		}
		payment.MobileMoneyProvider = models.MobileMoneyProvider(in.MobileMoney.Provider)
		payment.MobileMoneyNumber = number
	}

	if _, err := s.repos.Payments.Insert(ctx, payment); err != nil {
		return nil, writeErr(paymentEntity, payment.ID, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"payment_id":  payment.ID,
		"contract_id": payment.ContractID,
		"type":        payment.PaymentType,
		"method":      payment.PaymentMethod,
	}).Info("Payment initiated")

	s.notifier.Notify(ctx, payment.ReceiverID, notify.PaymentInitiated, paymentPayload(payment))
	return payment, nil
}

// BeginProcessing hands a pending payment to the provider. Mobile money
// payments get a provider reference to track the transfer.
func (s *paymentService) BeginProcessing(ctx context.Context, paymentID string) (*models.Payment, error) {
	reference := ""
	payment, err := s.transition(ctx, paymentID, models.PaymentProcessing, func(p *models.Payment) (store.Patch, error) {
		if p.PaymentMethod != models.MethodMobileMoney {
			return store.Patch{}, nil
		}
		reference = uuid.NewString()
		return store.Patch{"provider_reference": reference}, nil
	})
	if err != nil {
		return nil, err
	}
	if reference != "" {
		payment.ProviderReference = reference
	}
	s.notifier.Notify(ctx, payment.PayerID, notify.PaymentProcessing, paymentPayload(payment))
	return payment, nil
}

// Settle records the provider's final outcome. Only methods that skip
// processing may settle straight from pending.
func (s *paymentService) Settle(ctx context.Context, paymentID string, outcome models.PaymentStatus) (*models.Payment, error) {
	if outcome != models.PaymentComplete && outcome != models.PaymentFailed {
		return nil, &ValidationError{Field: "outcome", Reason: "must be one of: complete, failed"}
	}

	settledAt := s.now()
	payment, err := s.transition(ctx, paymentID, outcome, func(p *models.Payment) (store.Patch, error) {
		if p.Status == models.PaymentPending && !p.PaymentMethod.SkipsProcessing() {
			return nil, invalidTransition(paymentEntity, p.Status, outcome)
		}
		return store.Patch{"settled_at": settledAt}, nil
	})
	if err != nil {
		return nil, err
	}
	payment.SettledAt = &settledAt

	kind := notify.PaymentCompleted
	if outcome == models.PaymentFailed {
		kind = notify.PaymentFailed
	}
	s.notifier.Notify(ctx, payment.PayerID, kind, paymentPayload(payment))
	if outcome == models.PaymentComplete {
		s.notifier.Notify(ctx, payment.ReceiverID, kind, paymentPayload(payment))
	}
	return payment, nil
}

// Cancel withdraws a payment before processing has begun. Only the payer can cancel.
func (s *paymentService) Cancel(ctx context.Context, actorID, paymentID string) (*models.Payment, error) {
	payment, err := s.transition(ctx, paymentID, models.PaymentCancelled, func(p *models.Payment) (store.Patch, error) {
		if p.PayerID != actorID {
			return nil, &ForbiddenError{Reason: "only the payer can cancel a payment"}
		}
		return store.Patch{}, nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, payment.ReceiverID, notify.PaymentCancelled, paymentPayload(payment))
	return payment, nil
}

func (s *paymentService) Get(ctx context.Context, actorID, paymentID string) (*models.Payment, error) {
	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if actorID != payment.PayerID && actorID != payment.ReceiverID {
		return nil, &ForbiddenError{Reason: "only the payer or the receiver can view a payment"}
	}
	return payment, nil
}

// ListForContract returns the contract's payments, newest first.
func (s *paymentService) ListForContract(ctx context.Context, actorID, contractID string) ([]*models.Payment, error) {
	contract, err := s.repos.Contracts.Get(ctx, contractID)
	if err != nil {
		return nil, readErr(contractEntity, contractID, err)
	}
	if !contract.IsParty(actorID) {
		return nil, &ForbiddenError{Reason: "only the owner or the tenant can list contract payments"}
	}
	payments, err := s.repos.Payments.Find(ctx, store.Where("contract_id", contractID))
	if err != nil {
		return nil, readErr(paymentEntity, "for contract "+contractID, err)
	}
	sortNewestFirst(payments, func(p *models.Payment) time.Time { return p.CreatedAt })
	return payments, nil
}

// paymentStep validates the loaded payment and returns extra fields to write.
type paymentStep func(p *models.Payment) (store.Patch, error)

func (s *paymentService) transition(ctx context.Context, paymentID string, target models.PaymentStatus, step paymentStep) (*models.Payment, error) {
	var payment *models.Payment
	err := s.withConflictRetry(func() error {
		var err error
		payment, err = s.load(ctx, paymentID)
		if err != nil {
			return err
		}
		extra, err := step(payment)
		if err != nil {
			return err
		}
		if !payment.Status.CanTransition(target) {
			return invalidTransition(paymentEntity, payment.Status, target)
		}
		patch := s.stamped(store.Patch{"status": target})
		for k, v := range extra {
			patch[k] = v
		}
		if err := s.repos.Payments.ConditionalUpdate(ctx, payment.ID, string(payment.Status), patch); err != nil {
			return writeErr(paymentEntity, payment.ID, err)
		}
		payment.Status = target
		payment.UpdatedAt = patch["updated_at"].(time.Time)
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Logger.WithField("payment_id", payment.ID).Infof("Payment %s", target)
	return payment, nil
}

func (s *paymentService) load(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repos.Payments.Get(ctx, id)
	if err != nil {
		return nil, readErr(paymentEntity, id, err)
	}
	return payment, nil
}

func paymentPayload(p *models.Payment) notify.Payload {
	return notify.Payload{
		"payment_id":  p.ID,
		"contract_id": p.ContractID,
		"amount":      p.Amount,
		"type":        p.PaymentType,
		"status":      p.Status,
	}
}
