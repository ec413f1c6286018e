// Package notify carries lifecycle notifications from the services to the
// delivery sinks. Services only see Dispatcher; delivery is asynchronous.
package notify

import (
	"context"
	"time"
)

// Kind names a lifecycle event a party is told about.
type Kind string

const (
	ApplicationSubmitted Kind = "application.submitted"
	ApplicationAccepted  Kind = "application.accepted"
	ApplicationRejected  Kind = "application.rejected"

	VisitRequested Kind = "visit.requested"
	VisitConfirmed Kind = "visit.confirmed"
	VisitCancelled Kind = "visit.cancelled"
	VisitCompleted Kind = "visit.completed"

	ContractCreated    Kind = "contract.created"
	ContractIssued     Kind = "contract.issued"
	ContractSigned     Kind = "contract.signed"
	ContractActivated  Kind = "contract.activated"
	ContractCancelled  Kind = "contract.cancelled"
	ContractTerminated Kind = "contract.terminated"
	ContractExpired    Kind = "contract.expired"

	PaymentInitiated  Kind = "payment.initiated"
	PaymentProcessing Kind = "payment.processing"
	PaymentCompleted  Kind = "payment.completed"
	PaymentFailed     Kind = "payment.failed"
	PaymentCancelled  Kind = "payment.cancelled"
)

// Payload is the event detail shown to the recipient.
type Payload map[string]any

// Dispatcher is fire-and-forget: implementations log failures instead of
// returning them so a notification problem never fails a transition.
type Dispatcher interface {
	Notify(ctx context.Context, recipientID string, kind Kind, payload Payload)
}

// Notification is what a Sink delivers.
type Notification struct {
	RecipientID string    `json:"recipient_id"`
	Kind        Kind      `json:"kind"`
	Payload     Payload   `json:"payload,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Noop discards every notification.
type Noop struct{}

func (Noop) Notify(context.Context, string, Kind, Payload) {}
