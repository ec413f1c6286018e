package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

func TestMongo_VisitSlotIndex(t *testing.T) {
	database := utils.SetupTestDB(t, "testdb_store_visits", VisitsCollection)
	ctx := context.Background()

	repo := NewMongo[models.VisitRequest](database, VisitsCollection, VisitSlotIndex)
	require.NoError(t, repo.EnsureIndexes(ctx))

	first, err := repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitPending))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitConfirmed))
	assert.ErrorIs(t, err, ErrDuplicate)

	err = repo.ConditionalUpdate(ctx, first, string(models.VisitConfirmed), Patch{"status": models.VisitCancelled})
	assert.ErrorIs(t, err, ErrStatusMismatch)

	require.NoError(t, repo.ConditionalUpdate(ctx, first, string(models.VisitPending), Patch{"status": models.VisitCancelled}))

	_, err = repo.Insert(ctx, newVisit("p1", "2026-11-02", "10:00", models.VisitPending))
	assert.NoError(t, err)

	found, err := repo.Find(ctx, Where("property_id", "p1").In("status", Strings(models.SlotHoldingVisitStatuses)...))
	require.NoError(t, err)
	assert.Len(t, found, 1)

	err = repo.ConditionalUpdate(ctx, "missing", "pending", Patch{"status": "cancelled"})
	assert.ErrorIs(t, err, ErrNotFound)
}
