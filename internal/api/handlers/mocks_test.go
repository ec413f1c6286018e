package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
)

// --- Mocks ---

// MockApplicationService
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) application(args mock.Arguments) (*models.RentalApplication, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RentalApplication), args.Error(1)
}

func (m *MockApplicationService) Submit(ctx context.Context, actorID string, in services.SubmitApplicationInput) (*models.RentalApplication, error) {
	return m.application(m.Called(ctx, actorID, in))
}
func (m *MockApplicationService) Decide(ctx context.Context, actorID, applicationID string, verdict models.Verdict) (*models.RentalApplication, error) {
	return m.application(m.Called(ctx, actorID, applicationID, verdict))
}
func (m *MockApplicationService) Get(ctx context.Context, actorID, applicationID string) (*models.RentalApplication, error) {
	return m.application(m.Called(ctx, actorID, applicationID))
}
func (m *MockApplicationService) ListForProperty(ctx context.Context, actorID, propertyID string) ([]*models.RentalApplication, error) {
	args := m.Called(ctx, actorID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RentalApplication), args.Error(1)
}
func (m *MockApplicationService) ListForApplicant(ctx context.Context, actorID string) ([]*models.RentalApplication, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RentalApplication), args.Error(1)
}

// MockVisitService
type MockVisitService struct {
	mock.Mock
}

func (m *MockVisitService) visit(args mock.Arguments) (*models.VisitRequest, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VisitRequest), args.Error(1)
}

func (m *MockVisitService) Schedule(ctx context.Context, actorID string, in services.ScheduleVisitInput) (*models.VisitRequest, error) {
	return m.visit(m.Called(ctx, actorID, in))
}
func (m *MockVisitService) AvailableSlots(ctx context.Context, propertyID, date string) ([]string, error) {
	args := m.Called(ctx, propertyID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockVisitService) Confirm(ctx context.Context, actorID, visitID string) (*models.VisitRequest, error) {
	return m.visit(m.Called(ctx, actorID, visitID))
}
func (m *MockVisitService) Cancel(ctx context.Context, actorID, visitID, reason string) (*models.VisitRequest, error) {
	return m.visit(m.Called(ctx, actorID, visitID, reason))
}
func (m *MockVisitService) Complete(ctx context.Context, actorID, visitID string, in services.CompleteVisitInput) (*models.VisitRequest, error) {
	return m.visit(m.Called(ctx, actorID, visitID, in))
}
func (m *MockVisitService) Get(ctx context.Context, actorID, visitID string) (*models.VisitRequest, error) {
	return m.visit(m.Called(ctx, actorID, visitID))
}

// MockContractService
type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) contract(args mock.Arguments) (*models.LeaseContract, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaseContract), args.Error(1)
}

func (m *MockContractService) Instantiate(ctx context.Context, actorID string, in services.InstantiateContractInput) (*models.LeaseContract, error) {
	return m.contract(m.Called(ctx, actorID, in))
}
func (m *MockContractService) Issue(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	return m.contract(m.Called(ctx, actorID, contractID))
}
func (m *MockContractService) RecordSignature(ctx context.Context, actorID, contractID string, signer models.Signer) (*models.LeaseContract, error) {
	return m.contract(m.Called(ctx, actorID, contractID, signer))
}
func (m *MockContractService) Cancel(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	return m.contract(m.Called(ctx, actorID, contractID))
}
func (m *MockContractService) Terminate(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	return m.contract(m.Called(ctx, actorID, contractID))
}
func (m *MockContractService) Expire(ctx context.Context, contractID string) (*models.LeaseContract, error) {
	return m.contract(m.Called(ctx, contractID))
}
func (m *MockContractService) ExpireDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *MockContractService) Get(ctx context.Context, actorID, contractID string) (*models.LeaseContract, error) {
	return m.contract(m.Called(ctx, actorID, contractID))
}
func (m *MockContractService) ListForUser(ctx context.Context, actorID string) ([]*models.LeaseContract, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaseContract), args.Error(1)
}

// MockPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) payment(args mock.Arguments) (*models.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) Initiate(ctx context.Context, actorID string, in services.InitiatePaymentInput) (*models.Payment, error) {
	return m.payment(m.Called(ctx, actorID, in))
}
func (m *MockPaymentService) BeginProcessing(ctx context.Context, paymentID string) (*models.Payment, error) {
	return m.payment(m.Called(ctx, paymentID))
}
func (m *MockPaymentService) Settle(ctx context.Context, paymentID string, outcome models.PaymentStatus) (*models.Payment, error) {
	return m.payment(m.Called(ctx, paymentID, outcome))
}
func (m *MockPaymentService) Cancel(ctx context.Context, actorID, paymentID string) (*models.Payment, error) {
	return m.payment(m.Called(ctx, actorID, paymentID))
}
func (m *MockPaymentService) Get(ctx context.Context, actorID, paymentID string) (*models.Payment, error) {
	return m.payment(m.Called(ctx, actorID, paymentID))
}
func (m *MockPaymentService) ListForContract(ctx context.Context, actorID, contractID string) ([]*models.Payment, error) {
	args := m.Called(ctx, actorID, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

// MockScoringService
type MockScoringService struct {
	mock.Mock
}

func (m *MockScoringService) RefreshTrustScore(ctx context.Context, applicantID string) (int, error) {
	args := m.Called(ctx, applicantID)
	return args.Int(0), args.Error(1)
}

// MockContractArchive
type MockContractArchive struct {
	mock.Mock
}

func (m *MockContractArchive) PutContract(ctx context.Context, contract *models.LeaseContract) (string, error) {
	args := m.Called(ctx, contract)
	return args.String(0), args.Error(1)
}
func (m *MockContractArchive) ContractArchived(ctx context.Context, contractID string) (bool, error) {
	args := m.Called(ctx, contractID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractArchive) PresignedContractURL(ctx context.Context, contractID string) (string, error) {
	args := m.Called(ctx, contractID)
	return args.String(0), args.Error(1)
}

// MockInbox
type MockInbox struct {
	mock.Mock
}

func (m *MockInbox) Inbox(ctx context.Context, userID string, limit int) ([]notify.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notify.Notification), args.Error(1)
}
