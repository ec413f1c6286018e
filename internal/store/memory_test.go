package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
)

func newVisit(propertyID, date, slot string, status models.VisitStatus) *models.VisitRequest {
	now := time.Now().UTC()
	return &models.VisitRequest{
		Timestamps:  models.Timestamps{CreatedAt: now, UpdatedAt: now},
		PropertyID:  propertyID,
		RequesterID: "requester",
		VisitType:   models.VisitPhysical,
		VisitDate:   date,
		VisitTime:   slot,
		Status:      status,
	}
}

func TestMemory_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory[models.VisitRequest](VisitSlotIndex)

	id, err := repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitPending))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, models.VisitPending, got.Status)
	assert.Equal(t, "10:00", got.VisitTime)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_UniqueIndexRespectsStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory[models.VisitRequest](VisitSlotIndex)

	first, err := repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitPending))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitPending))
	assert.ErrorIs(t, err, ErrDuplicate)

	// A different slot on the same day is fine.
	_, err = repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:30", models.VisitPending))
	require.NoError(t, err)

	require.NoError(t, repo.ConditionalUpdate(ctx, first, string(models.VisitPending), Patch{"status": models.VisitCancelled}))

	_, err = repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitPending))
	assert.NoError(t, err, "a cancelled visit no longer holds the slot")
}

func TestMemory_ConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory[models.VisitRequest]()

	id, err := repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitPending))
	require.NoError(t, err)

	err = repo.ConditionalUpdate(ctx, id, string(models.VisitConfirmed), Patch{"status": models.VisitCompleted})
	assert.ErrorIs(t, err, ErrStatusMismatch)

	rating := 4
	err = repo.ConditionalUpdate(ctx, id, string(models.VisitPending), Patch{"status": models.VisitConfirmed, "rating": &rating})
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.VisitConfirmed, got.Status)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4, *got.Rating)

	err = repo.ConditionalUpdate(ctx, "missing", "pending", Patch{"status": "confirmed"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Find(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory[models.VisitRequest]()

	_, _ = repo.Insert(ctx, newVisit("p1", "2026-11-02", "09:00", models.VisitPending))
	_, _ = repo.Insert(ctx, newVisit("p1", "2026-11-02", "09:30", models.VisitCancelled))
	_, _ = repo.Insert(ctx, newVisit("p1", "2026-11-03", "09:00", models.VisitConfirmed))
	_, _ = repo.Insert(ctx, newVisit("p2", "2026-11-02", "09:00", models.VisitPending))

	all, err := repo.Find(ctx, Where("property_id", "p1"))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	open, err := repo.Find(ctx, Where("property_id", "p1").
		And("visit_date", "2026-11-02").
		In("status", Strings(models.SlotHoldingVisitStatuses)...))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "09:00", open[0].VisitTime)

	typed, err := repo.Find(ctx, Where("status", models.VisitConfirmed))
	require.NoError(t, err)
	assert.Len(t, typed, 1)
}

func TestMemory_UpdateWithoutStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory[models.ApplicantProfile]()

	profile := &models.ApplicantProfile{Employer: "ACME"}
	profile.ID = "applicant-1"
	_, err := repo.Insert(ctx, profile)
	require.NoError(t, err)

	score := 42
	require.NoError(t, repo.Update(ctx, "applicant-1", Patch{"trust_score": &score}))

	got, err := repo.Get(ctx, "applicant-1")
	require.NoError(t, err)
	require.NotNil(t, got.TrustScore)
	assert.Equal(t, 42, *got.TrustScore)
	assert.Equal(t, "ACME", got.Employer)

	_, err = repo.Insert(ctx, &models.ApplicantProfile{Base: models.Base{ID: "applicant-1"}})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemory_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewMemory[models.Payment]()
	_, err := repo.Insert(ctx, &models.Payment{})
	assert.ErrorIs(t, err, context.Canceled)
}
