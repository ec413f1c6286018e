package models

import (
	"time"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// Entity is implemented by every document kept in a repository.
type Entity interface {
	GetID() string
	SetID(id string)
	GenIDIfEmpty()
}

// Base carries the repository-assigned identity.
type Base struct {
	ID string `bson:"_id" json:"id"`
}

func (m *Base) GetID() string { return m.ID }

func (m *Base) SetID(id string) { m.ID = id }

func (m *Base) GenIDIfEmpty() {
	if m.ID == "" {
		m.ID = utils.NewID()
	}
}

// Timestamps are maintained by the services on every write.
type Timestamps struct {
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// transitionTable maps a status to the statuses reachable from it in one step.
type transitionTable[S comparable] map[S][]S

func (t transitionTable[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}
