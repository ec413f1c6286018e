package services

import (
	"errors"
	"fmt"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
)

// ValidationError reports caller input that breaks a rule on one field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports that the request collides with existing state,
// such as a second active application or an already booked visit slot.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// InvalidTransitionError reports a status change not allowed by the entity's transition table.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

// PreconditionError reports that a related entity is not in the state the operation requires.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// ConcurrentModificationError reports that the stored status changed between read and write.
type ConcurrentModificationError struct {
	Entity string
	ID     string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}

// ForbiddenError reports that the caller is not a party allowed to perform the operation.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

// IsConcurrentModification is the retry predicate for lifecycle transitions.
func IsConcurrentModification(err error) bool {
	var cme *ConcurrentModificationError
	return errors.As(err, &cme)
}

func invalidTransition[S ~string](entity string, from, to S) error {
	return &InvalidTransitionError{Entity: entity, From: string(from), To: string(to)}
}

// writeErr translates repository write errors into lifecycle errors.
func writeErr(entity, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrStatusMismatch):
		return &ConcurrentModificationError{Entity: entity, ID: id}
	case errors.Is(err, store.ErrDuplicate):
		return &ConflictError{Entity: entity, Reason: "an equivalent record already exists"}
	}
	return fmt.Errorf("failed to write %s %s: %w", entity, id, err)
}

// readErr wraps repository read errors, keeping store.ErrNotFound detectable.
func readErr(entity, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
