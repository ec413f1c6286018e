package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// IApplicationService defines the interface for rental application operations.
// Every operation takes the id of the calling user explicitly.
type IApplicationService interface {
	Submit(ctx context.Context, actorID string, in SubmitApplicationInput) (*models.RentalApplication, error)
	Decide(ctx context.Context, actorID, applicationID string, verdict models.Verdict) (*models.RentalApplication, error)
	Get(ctx context.Context, actorID, applicationID string) (*models.RentalApplication, error)
	ListForProperty(ctx context.Context, actorID, propertyID string) ([]*models.RentalApplication, error)
	ListForApplicant(ctx context.Context, actorID string) ([]*models.RentalApplication, error)
}

// SubmitApplicationInput is the applicant's request.
type SubmitApplicationInput struct {
	PropertyID  string `json:"property_id" validate:"required"`
	CoverLetter string `json:"cover_letter" validate:"min=50"`
}

const applicationEntity = "application"

type applicationService struct {
	lifecycle
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(repos *store.Repositories, cfg *config.Config, notifier notify.Dispatcher) IApplicationService {
	return &applicationService{lifecycle: newLifecycle(repos, cfg, notifier)}
}

// Submit scores the applicant, records the application as submitted and
// immediately moves it to pending for the owner's review.
func (s *applicationService) Submit(ctx context.Context, actorID string, in SubmitApplicationInput) (*models.RentalApplication, error) {
	in.PropertyID = strings.TrimSpace(in.PropertyID)
	in.CoverLetter = strings.TrimSpace(in.CoverLetter)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	property, err := s.property(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsAvailable() {
		return nil, &PreconditionError{Reason: "property is not available for rent"}
	}
	if property.OwnerID == actorID {
		return nil, &ForbiddenError{Reason: "owners cannot apply to their own property"}
	}

	existing, err := s.repos.Applications.Find(ctx, store.Where("property_id", property.ID).
		And("applicant_id", actorID).
		In("status", store.Strings(models.ActiveApplicationStatuses)...))
	if err != nil {
		return nil, readErr(applicationEntity, "for property "+property.ID, err)
	}
	if len(existing) > 0 {
		// A record left in submitted by an interrupted Submit is finished
		// rather than reported as a duplicate.
		stalled := existing[0]
		if len(existing) > 1 || stalled.Status != models.ApplicationSubmitted {
			return nil, applicationAlreadyOpen()
		}
		advanced, err := s.finishSubmission(ctx, stalled)
		if err != nil {
			return nil, err
		}
		if !advanced {
			return nil, applicationAlreadyOpen()
		}
		utils.Logger.WithField("application_id", stalled.ID).Warn("Resumed interrupted application submission")
		s.announce(ctx, property, stalled)
		return stalled, nil
	}

	score, err := profileScore(ctx, s.repos, actorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	app := &models.RentalApplication{
		Timestamps:       models.Timestamps{CreatedAt: now, UpdatedAt: now},
		PropertyID:       property.ID,
		ApplicantID:      actorID,
		CoverLetter:      in.CoverLetter,
		ApplicationScore: score,
		Status:           models.ApplicationSubmitted,
	}
	if _, err := s.repos.Applications.Insert(ctx, app); err != nil {
		return nil, writeErr(applicationEntity, app.ID, err)
	}

	advanced, err := s.finishSubmission(ctx, app)
	if err != nil {
		return nil, err
	}
	if advanced {
		s.announce(ctx, property, app)
	}
	return app, nil
}

// finishSubmission moves a submitted application to pending and reports
// whether this call made the move. It re-reads the record on each attempt
// and leaves an application that has already moved on untouched.
func (s *applicationService) finishSubmission(ctx context.Context, app *models.RentalApplication) (bool, error) {
	advanced := false
	err := s.withConflictRetry(func() error {
		current, err := s.load(ctx, app.ID)
		if err != nil {
			return err
		}
		if current.Status == models.ApplicationSubmitted {
			if err := s.transition(ctx, current, models.ApplicationPending, store.Patch{}); err != nil {
				return err
			}
			advanced = true
		}
		*app = *current
		return nil
	})
	return advanced, err
}

func (s *applicationService) announce(ctx context.Context, property *models.Property, app *models.RentalApplication) {
	utils.Logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"property_id":    app.PropertyID,
		"score":          app.ApplicationScore,
	}).Info("Application submitted")

	s.notifier.Notify(ctx, property.OwnerID, notify.ApplicationSubmitted, notify.Payload{
		"application_id": app.ID,
		"property_id":    app.PropertyID,
		"applicant_id":   app.ApplicantID,
		"score":          app.ApplicationScore,
	})
}

// Decide records the owner's verdict on a pending application. It does not create a contract.
func (s *applicationService) Decide(ctx context.Context, actorID, applicationID string, verdict models.Verdict) (*models.RentalApplication, error) {
	target, err := verdict.Status()
	if err != nil {
		return nil, &ValidationError{Field: "verdict", Reason: "must be one of: accept, reject"}
	}

	var app *models.RentalApplication
	var property *models.Property
	err = s.withConflictRetry(func() error {
		app, err = s.load(ctx, applicationID)
		if err != nil {
			return err
		}
		property, err = s.property(ctx, app.PropertyID)
		if err != nil {
			return err
		}
		if property.OwnerID != actorID {
			return &ForbiddenError{Reason: "only the property owner can decide on an application"}
		}
		now := s.now()
		if err := s.transition(ctx, app, target, store.Patch{"decided_at": now}); err != nil {
			return err
		}
		app.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := notify.ApplicationAccepted
	if target == models.ApplicationRejected {
		kind = notify.ApplicationRejected
	}
	payload := notify.Payload{"application_id": app.ID, "property_id": app.PropertyID}
	s.notifier.Notify(ctx, app.ApplicantID, kind, payload)
	s.notifier.Notify(ctx, property.OwnerID, kind, payload)

	utils.Logger.WithField("application_id", app.ID).Infof("Application %s", target)
	return app, nil
}

func (s *applicationService) Get(ctx context.Context, actorID, applicationID string) (*models.RentalApplication, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID == actorID {
		return app, nil
	}
	property, err := s.property(ctx, app.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != actorID {
		return nil, &ForbiddenError{Reason: "only the applicant or the property owner can view an application"}
	}
	return app, nil
}

// ListForProperty returns the property's applications, best score first.
func (s *applicationService) ListForProperty(ctx context.Context, actorID, propertyID string) ([]*models.RentalApplication, error) {
	property, err := s.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != actorID {
		return nil, &ForbiddenError{Reason: "only the property owner can list its applications"}
	}
	apps, err := s.repos.Applications.Find(ctx, store.Where("property_id", propertyID))
	if err != nil {
		return nil, readErr(applicationEntity, "for property "+propertyID, err)
	}
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].ApplicationScore != apps[j].ApplicationScore {
			return apps[i].ApplicationScore > apps[j].ApplicationScore
		}
		return apps[i].CreatedAt.Before(apps[j].CreatedAt)
	})
	return apps, nil
}

// ListForApplicant returns the caller's own applications, newest first.
func (s *applicationService) ListForApplicant(ctx context.Context, actorID string) ([]*models.RentalApplication, error) {
	apps, err := s.repos.Applications.Find(ctx, store.Where("applicant_id", actorID))
	if err != nil {
		return nil, readErr(applicationEntity, "for applicant "+actorID, err)
	}
	sortNewestFirst(apps, func(a *models.RentalApplication) time.Time { return a.CreatedAt })
	return apps, nil
}

func (s *applicationService) load(ctx context.Context, id string) (*models.RentalApplication, error) {
	app, err := s.repos.Applications.Get(ctx, id)
	if err != nil {
		return nil, readErr(applicationEntity, id, err)
	}
	return app, nil
}

// transition performs the compare-and-swap from app.Status to target and
// updates app in place on success.
func (s *applicationService) transition(ctx context.Context, app *models.RentalApplication, target models.ApplicationStatus, patch store.Patch) error {
	if !app.Status.CanTransition(target) {
		return invalidTransition(applicationEntity, app.Status, target)
	}
	patch["status"] = target
	patch = s.stamped(patch)
	if err := s.repos.Applications.ConditionalUpdate(ctx, app.ID, string(app.Status), patch); err != nil {
		return writeErr(applicationEntity, app.ID, err)
	}
	app.Status = target
	app.UpdatedAt = patch["updated_at"].(time.Time)
	return nil
}

func applicationAlreadyOpen() error {
	return &ConflictError{Entity: applicationEntity, Reason: "an application for this property is already open"}
}
