package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// IVisitService defines the interface for visit scheduling operations.
type IVisitService interface {
	Schedule(ctx context.Context, actorID string, in ScheduleVisitInput) (*models.VisitRequest, error)
	AvailableSlots(ctx context.Context, propertyID, date string) ([]string, error)
	Confirm(ctx context.Context, actorID, visitID string) (*models.VisitRequest, error)
	Cancel(ctx context.Context, actorID, visitID, reason string) (*models.VisitRequest, error)
	Complete(ctx context.Context, actorID, visitID string, in CompleteVisitInput) (*models.VisitRequest, error)
	Get(ctx context.Context, actorID, visitID string) (*models.VisitRequest, error)
}

// ScheduleVisitInput is a request for one slot of the daily template.
type ScheduleVisitInput struct {
	PropertyID string `json:"property_id" validate:"required"`
	VisitDate  string `json:"visit_date" validate:"required,datetime=2006-01-02"`
	VisitTime  string `json:"visit_time" validate:"required"`
	VisitType  string `json:"visit_type" validate:"required,oneof=physical virtual"`
}

// CompleteVisitInput optionally carries the requester's feedback.
type CompleteVisitInput struct {
	Feedback string `json:"feedback" validate:"max=2000"`
	Rating   *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

type cancelVisitInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

const visitEntity = "visit"

type visitService struct {
	lifecycle
	slots slotTemplate
}

// NewVisitService creates a new VisitService. It fails if the configured
// visit day does not produce a slot template.
func NewVisitService(repos *store.Repositories, cfg *config.Config, notifier notify.Dispatcher) (IVisitService, error) {
	slots, err := DailySlots(cfg.VisitDayStart, cfg.VisitDayEnd, time.Duration(cfg.VisitSlotMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}
	return &visitService{lifecycle: newLifecycle(repos, cfg, notifier), slots: slots}, nil
}

// Schedule books a slot. The unique index on (property, date, time) over
// slot-holding statuses makes the availability check and the insert atomic.
func (s *visitService) Schedule(ctx context.Context, actorID string, in ScheduleVisitInput) (*models.VisitRequest, error) {
	in.PropertyID = strings.TrimSpace(in.PropertyID)
	in.VisitDate = strings.TrimSpace(in.VisitDate)
	in.VisitTime = strings.TrimSpace(in.VisitTime)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !s.slots.contains(in.VisitTime) {
		return nil, &ValidationError{Field: "visit_time", Reason: "must be one of the daily visit slots"}
	}
	if in.VisitDate < s.now().Format(dateLayout) {
		return nil, &ValidationError{Field: "visit_date", Reason: "must not be in the past"}
	}

	property, err := s.property(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsAvailable() {
		return nil, &PreconditionError{Reason: "property is not available for visits"}
	}
	if property.OwnerID == actorID {
		return nil, &ForbiddenError{Reason: "owners cannot request a visit of their own property"}
	}

	occupied, err := s.occupied(ctx, property.ID, in.VisitDate)
	if err != nil {
		return nil, err
	}
	if occupied[in.VisitTime] {
		return nil, slotTaken()
	}

	now := s.now()
	visit := &models.VisitRequest{
		Timestamps:  models.Timestamps{CreatedAt: now, UpdatedAt: now},
		PropertyID:  property.ID,
		RequesterID: actorID,
		VisitType:   models.VisitType(in.VisitType),
		VisitDate:   in.VisitDate,
		VisitTime:   in.VisitTime,
		Status:      models.VisitPending,
	}
	if _, err := s.repos.Visits.Insert(ctx, visit); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, slotTaken()
		}
		return nil, writeErr(visitEntity, visit.ID, err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"visit_id":    visit.ID,
		"property_id": visit.PropertyID,
		"slot":        visit.VisitDate + " " + visit.VisitTime,
	}).Info("Visit requested")

	s.notifier.Notify(ctx, property.OwnerID, notify.VisitRequested, visitPayload(visit))
	return visit, nil
}

// AvailableSlots is the daily template minus the slots already held on date.
func (s *visitService) AvailableSlots(ctx context.Context, propertyID, date string) ([]string, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, &ValidationError{Field: "visit_date", Reason: "must use the layout " + dateLayout}
	}
	if _, err := s.property(ctx, propertyID); err != nil {
		return nil, err
	}
	occupied, err := s.occupied(ctx, propertyID, date)
	if err != nil {
		return nil, err
	}
	free := make([]string, 0, len(s.slots))
	for _, slot := range s.slots {
		if !occupied[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}

func (s *visitService) Confirm(ctx context.Context, actorID, visitID string) (*models.VisitRequest, error) {
	visit, _, err := s.transition(ctx, actorID, visitID, models.VisitConfirmed, store.Patch{},
		func(v *models.VisitRequest, p *models.Property) error {
			if p.OwnerID != actorID {
				return &ForbiddenError{Reason: "only the property owner can confirm a visit"}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, visit.RequesterID, notify.VisitConfirmed, visitPayload(visit))
	return visit, nil
}

// Cancel frees the slot. Either the requester or the owner may cancel.
func (s *visitService) Cancel(ctx context.Context, actorID, visitID, reason string) (*models.VisitRequest, error) {
	reason = strings.TrimSpace(reason)
	if err := validateInput(cancelVisitInput{Reason: reason}); err != nil {
		return nil, err
	}
	patch := store.Patch{}
	if reason != "" {
		patch["cancellation_reason"] = reason
	}
	visit, property, err := s.transition(ctx, actorID, visitID, models.VisitCancelled, patch, requesterOrOwner(actorID))
	if err != nil {
		return nil, err
	}
	visit.CancellationReason = reason

	payload := visitPayload(visit)
	if reason != "" {
		payload["reason"] = reason
	}
	s.notifier.Notify(ctx, counterpart(actorID, visit.RequesterID, property.OwnerID), notify.VisitCancelled, payload)
	return visit, nil
}

// Complete closes a confirmed visit. Only the requester may attach feedback and a rating.
func (s *visitService) Complete(ctx context.Context, actorID, visitID string, in CompleteVisitInput) (*models.VisitRequest, error) {
	in.Feedback = strings.TrimSpace(in.Feedback)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	patch := store.Patch{}
	if in.Feedback != "" {
		patch["feedback"] = in.Feedback
	}
	if in.Rating != nil {
		patch["rating"] = *in.Rating
	}

	visit, property, err := s.transition(ctx, actorID, visitID, models.VisitCompleted, patch,
		func(v *models.VisitRequest, p *models.Property) error {
			if err := requesterOrOwner(actorID)(v, p); err != nil {
				return err
			}
			if len(patch) > 0 && actorID != v.RequesterID {
				return &ForbiddenError{Reason: "only the requester can leave visit feedback"}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	if in.Feedback != "" {
		visit.Feedback = in.Feedback
	}
	if in.Rating != nil {
		visit.Rating = in.Rating
	}

	s.notifier.Notify(ctx, counterpart(actorID, visit.RequesterID, property.OwnerID), notify.VisitCompleted, visitPayload(visit))
	return visit, nil
}

func (s *visitService) Get(ctx context.Context, actorID, visitID string) (*models.VisitRequest, error) {
	visit, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if visit.RequesterID == actorID {
		return visit, nil
	}
	property, err := s.property(ctx, visit.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := requesterOrOwner(actorID)(visit, property); err != nil {
		return nil, err
	}
	return visit, nil
}

type visitGuard func(v *models.VisitRequest, p *models.Property) error

func requesterOrOwner(actorID string) visitGuard {
	return func(v *models.VisitRequest, p *models.Property) error {
		if actorID != v.RequesterID && actorID != p.OwnerID {
			return &ForbiddenError{Reason: "only the requester or the property owner can act on a visit"}
		}
		return nil
	}
}

// transition re-reads the visit, checks the guard and the transition table,
// then writes with a compare-and-swap on the status it read.
func (s *visitService) transition(ctx context.Context, actorID, visitID string, target models.VisitStatus, patch store.Patch, guard visitGuard) (*models.VisitRequest, *models.Property, error) {
	var visit *models.VisitRequest
	var property *models.Property
	err := s.withConflictRetry(func() error {
		var err error
		visit, err = s.load(ctx, visitID)
		if err != nil {
			return err
		}
		property, err = s.property(ctx, visit.PropertyID)
		if err != nil {
			return err
		}
		if err := guard(visit, property); err != nil {
			return err
		}
		if !visit.Status.CanTransition(target) {
			return invalidTransition(visitEntity, visit.Status, target)
		}

		write := s.stamped(store.Patch{"status": target})
		for k, v := range patch {
			write[k] = v
		}
		if err := s.repos.Visits.ConditionalUpdate(ctx, visit.ID, string(visit.Status), write); err != nil {
			return writeErr(visitEntity, visit.ID, err)
		}
		visit.Status = target
		visit.UpdatedAt = write["updated_at"].(time.Time)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	utils.Logger.WithFields(logrus.Fields{"visit_id": visit.ID, "actor": actorID}).Infof("Visit %s", target)
	return visit, property, nil
}

func (s *visitService) load(ctx context.Context, id string) (*models.VisitRequest, error) {
	visit, err := s.repos.Visits.Get(ctx, id)
	if err != nil {
		return nil, readErr(visitEntity, id, err)
	}
	return visit, nil
}

// occupied returns the slots held on date.
func (s *visitService) occupied(ctx context.Context, propertyID, date string) (map[string]bool, error) {
	visits, err := s.repos.Visits.Find(ctx, store.Where("property_id", propertyID).
		And("visit_date", date).
		In("status", store.Strings(models.SlotHoldingVisitStatuses)...))
	if err != nil {
		return nil, readErr(visitEntity, "for property "+propertyID, err)
	}
	occupied := make(map[string]bool, len(visits))
	for _, v := range visits {
		occupied[v.VisitTime] = true
	}
	return occupied, nil
}

func slotTaken() error {
	return &ConflictError{Entity: visitEntity, Reason: "the time slot is already booked"}
}

func visitPayload(v *models.VisitRequest) notify.Payload {
	return notify.Payload{
		"visit_id":    v.ID,
		"property_id": v.PropertyID,
		"visit_date":  v.VisitDate,
		"visit_time":  v.VisitTime,
		"status":      v.Status,
	}
}

// counterpart returns the party that did not act.
func counterpart(actorID, a, b string) string {
	if actorID == a {
		return b
	}
	return a
}
