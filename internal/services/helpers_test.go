package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
)

const (
	ownerID  = "owner-1"
	tenantID = "tenant-1"
	otherID  = "stranger-1"
)

var (
	shortLetter = strings.Repeat("a", 40)
	coverLetter = "I work nearby and would love to rent this flat for two years"
)

type sentNotification struct {
	Recipient string
	Kind      notify.Kind
	Payload   notify.Payload
}

// recordingDispatcher keeps every notification in memory.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (d *recordingDispatcher) Notify(ctx context.Context, recipientID string, kind notify.Kind, payload notify.Payload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentNotification{Recipient: recipientID, Kind: kind, Payload: payload})
}

func (d *recordingDispatcher) kindsFor(recipientID string) []notify.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	var kinds []notify.Kind
	for _, n := range d.sent {
		if n.Recipient == recipientID {
			kinds = append(kinds, n.Kind)
		}
	}
	return kinds
}

// MockArchiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) ArchiveContract(ctx context.Context, contractID string) error {
	args := m.Called(ctx, contractID)
	return args.Error(0)
}

type fixture struct {
	ctx   context.Context
	repos *store.Repositories
	cfg   *config.Config
	notes *recordingDispatcher
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.ConflictMaxRetries = 2
	return &fixture{
		ctx:   context.Background(),
		repos: store.NewMemoryRepositories(),
		cfg:   cfg,
		notes: &recordingDispatcher{},
		now:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) clock() time.Time { return f.now }

// tickingClock advances by one second on every read.
func (f *fixture) tickingClock() func() time.Time {
	var mu sync.Mutex
	next := f.now
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		next = next.Add(time.Second)
		return next
	}
}

func (f *fixture) applications() *applicationService {
	s := NewApplicationService(f.repos, f.cfg, f.notes).(*applicationService)
	s.now = f.clock
	return s
}

func (f *fixture) visits(t *testing.T) *visitService {
	t.Helper()
	svc, err := NewVisitService(f.repos, f.cfg, f.notes)
	require.NoError(t, err)
	s := svc.(*visitService)
	s.now = f.clock
	return s
}

func (f *fixture) contracts(archiver ContractArchiver) *contractService {
	s := NewContractService(f.repos, f.cfg, f.notes, archiver).(*contractService)
	s.now = f.clock
	return s
}

func (f *fixture) payments() *paymentService {
	s := NewPaymentService(f.repos, f.cfg, f.notes).(*paymentService)
	s.now = f.clock
	return s
}

func (f *fixture) addProperty(t *testing.T, rent, deposit int64) *models.Property {
	t.Helper()
	p := &models.Property{
		OwnerID:       ownerID,
		Title:         "Two-bedroom flat, Cocody",
		MonthlyRent:   rent,
		DepositAmount: deposit,
		Availability:  models.AvailabilityAvailable,
	}
	_, err := f.repos.Properties.Insert(f.ctx, p)
	require.NoError(t, err)
	return p
}

func (f *fixture) addProfile(t *testing.T, p *models.ApplicantProfile) {
	t.Helper()
	_, err := f.repos.Profiles.Insert(f.ctx, p)
	require.NoError(t, err)
}

func (f *fixture) addApplication(t *testing.T, propertyID string, status models.ApplicationStatus) *models.RentalApplication {
	t.Helper()
	app := &models.RentalApplication{
		Timestamps:  models.Timestamps{CreatedAt: f.now, UpdatedAt: f.now},
		PropertyID:  propertyID,
		ApplicantID: tenantID,
		CoverLetter: coverLetter,
		Status:      status,
	}
	_, err := f.repos.Applications.Insert(f.ctx, app)
	require.NoError(t, err)
	return app
}

func (f *fixture) addContract(t *testing.T, property *models.Property, status models.ContractStatus) *models.LeaseContract {
	t.Helper()
	c := &models.LeaseContract{
		Timestamps:    models.Timestamps{CreatedAt: f.now, UpdatedAt: f.now},
		ApplicationID: "app-" + string(status),
		PropertyID:    property.ID,
		OwnerID:       property.OwnerID,
		TenantID:      tenantID,
		MonthlyRent:   property.MonthlyRent,
		DepositAmount: property.DepositAmount,
		StartDate:     f.now,
		EndDate:       f.now.AddDate(1, 0, 0),
		Status:        status,
	}
	if status == models.ContractActive {
		signed := f.now
		c.OwnerSignedAt = &signed
		c.TenantSignedAt = &signed
	}
	_, err := f.repos.Contracts.Insert(f.ctx, c)
	require.NoError(t, err)
	return c
}

// staleApplications simulates a concurrent writer: before the first
// conditional update it moves the application to interferingStatus.
type staleApplications struct {
	store.Repository[models.RentalApplication]
	interferingStatus models.ApplicationStatus
	once              sync.Once
}

func (r *staleApplications) ConditionalUpdate(ctx context.Context, id, expectedStatus string, patch store.Patch) error {
	r.once.Do(func() {
		_ = r.Repository.ConditionalUpdate(ctx, id, expectedStatus, store.Patch{"status": r.interferingStatus})
	})
	return r.Repository.ConditionalUpdate(ctx, id, expectedStatus, patch)
}

// alwaysStaleVisits rejects every conditional update.
type alwaysStaleVisits struct {
	store.Repository[models.VisitRequest]
	mu    sync.Mutex
	calls int
}

func (r *alwaysStaleVisits) ConditionalUpdate(ctx context.Context, id, expectedStatus string, patch store.Patch) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return store.ErrStatusMismatch
}

// flakyApplications fails the first conditional update without writing.
type flakyApplications struct {
	store.Repository[models.RentalApplication]
	once sync.Once
}

func (r *flakyApplications) ConditionalUpdate(ctx context.Context, id, expectedStatus string, patch store.Patch) error {
	failed := false
	r.once.Do(func() { failed = true })
	if failed {
		return errors.New("connection reset by peer")
	}
	return r.Repository.ConditionalUpdate(ctx, id, expectedStatus, patch)
}
