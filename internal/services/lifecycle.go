package services

import (
	"context"
	"sort"
	"time"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/db"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
)

// lifecycle holds what every lifecycle service shares.
type lifecycle struct {
	repos    *store.Repositories
	cfg      *config.Config
	notifier notify.Dispatcher
	now      func() time.Time
}

func newLifecycle(repos *store.Repositories, cfg *config.Config, notifier notify.Dispatcher) lifecycle {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return lifecycle{
		repos:    repos,
		cfg:      cfg,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// withConflictRetry re-runs a read-validate-write step while it loses the
// compare-and-swap to a concurrent writer.
func (l *lifecycle) withConflictRetry(op db.Operation) error {
	return db.WithRetries(op, l.cfg.ConflictMaxRetries, IsConcurrentModification)
}

func (l *lifecycle) property(ctx context.Context, id string) (*models.Property, error) {
	p, err := l.repos.Properties.Get(ctx, id)
	if err != nil {
		return nil, readErr("property", id, err)
	}
	return p, nil
}

// stamped adds updated_at to a patch.
func (l *lifecycle) stamped(patch store.Patch) store.Patch {
	patch["updated_at"] = l.now()
	return patch
}

func sortNewestFirst[T any](items []*T, createdAt func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
