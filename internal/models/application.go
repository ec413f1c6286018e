package models

import (
	"fmt"
	"time"
)

// ApplicationStatus is the closed set of rental application states.
type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
)

var applicationTransitions = transitionTable[ApplicationStatus]{
	ApplicationSubmitted: {ApplicationPending},
	ApplicationPending:   {ApplicationAccepted, ApplicationRejected},
}

// ParseApplicationStatus validates a stored or client-supplied status.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch st := ApplicationStatus(s); st {
	case ApplicationSubmitted, ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return st, nil
	}
	return "", fmt.Errorf("invalid application status: %q", s)
}

func (s ApplicationStatus) CanTransition(to ApplicationStatus) bool {
	return applicationTransitions.allows(s, to)
}

func (s ApplicationStatus) IsTerminal() bool {
	return len(applicationTransitions[s]) == 0
}

// ActiveApplicationStatuses are the statuses covered by the one-application-per-pair rule.
var ActiveApplicationStatuses = []ApplicationStatus{ApplicationSubmitted, ApplicationPending, ApplicationAccepted}

// RentalApplication is an applicant's request to rent a property.
type RentalApplication struct {
	Base             `bson:",inline"`
	Timestamps       `bson:",inline"`
	PropertyID       string            `bson:"property_id" json:"property_id"`
	ApplicantID      string            `bson:"applicant_id" json:"applicant_id"`
	CoverLetter      string            `bson:"cover_letter" json:"cover_letter"`
	ApplicationScore int               `bson:"application_score" json:"application_score"`
	Status           ApplicationStatus `bson:"status" json:"status"`
	DecidedAt        *time.Time        `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
}

// Verdict is the owner's decision on a pending application.
type Verdict string

const (
	VerdictAccept Verdict = "accept"
	VerdictReject Verdict = "reject"
)

// Status returns the application status a verdict leads to.
func (v Verdict) Status() (ApplicationStatus, error) {
	switch v {
	case VerdictAccept:
		return ApplicationAccepted, nil
	case VerdictReject:
		return ApplicationRejected, nil
	}
	return "", fmt.Errorf("invalid verdict: %q", string(v))
}
