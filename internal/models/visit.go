package models

import "fmt"

// VisitStatus is the closed set of visit request states.
type VisitStatus string

const (
	VisitPending   VisitStatus = "pending"
	VisitConfirmed VisitStatus = "confirmed"
	VisitCancelled VisitStatus = "cancelled"
	VisitCompleted VisitStatus = "completed"
)

var visitTransitions = transitionTable[VisitStatus]{
	VisitPending:   {VisitConfirmed, VisitCancelled},
	VisitConfirmed: {VisitCompleted, VisitCancelled},
}

func ParseVisitStatus(s string) (VisitStatus, error) {
	switch st := VisitStatus(s); st {
	case VisitPending, VisitConfirmed, VisitCancelled, VisitCompleted:
		return st, nil
	}
	return "", fmt.Errorf("invalid visit status: %q", s)
}

func (s VisitStatus) CanTransition(to VisitStatus) bool {
	return visitTransitions.allows(s, to)
}

func (s VisitStatus) IsTerminal() bool {
	return len(visitTransitions[s]) == 0
}

// SlotHoldingVisitStatuses are the statuses that keep a time slot occupied.
// A completed visit keeps its slot so the record stays unique.
var SlotHoldingVisitStatuses = []VisitStatus{VisitPending, VisitConfirmed, VisitCompleted}

// VisitType is how the visit takes place.
type VisitType string

const (
	VisitPhysical VisitType = "physical"
	VisitVirtual  VisitType = "virtual"
)

func ParseVisitType(s string) (VisitType, error) {
	switch vt := VisitType(s); vt {
	case VisitPhysical, VisitVirtual:
		return vt, nil
	}
	return "", fmt.Errorf("invalid visit type: %q", s)
}

// VisitRequest is a requested property visit in one slot of the daily template.
type VisitRequest struct {
	Base               `bson:",inline"`
	Timestamps         `bson:",inline"`
	PropertyID         string      `bson:"property_id" json:"property_id"`
	RequesterID        string      `bson:"requester_id" json:"requester_id"`
	VisitType          VisitType   `bson:"visit_type" json:"visit_type"`
	VisitDate          string      `bson:"visit_date" json:"visit_date"` // YYYY-MM-DD
	VisitTime          string      `bson:"visit_time" json:"visit_time"` // HH:MM
	Status             VisitStatus `bson:"status" json:"status"`
	Feedback           string      `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Rating             *int        `bson:"rating,omitempty" json:"rating,omitempty"`
	CancellationReason string      `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
}
