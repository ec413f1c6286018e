package services

import (
	"context"
	"strings"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// Score weights. They sum to MaxScore.
const (
	WeightVerified          = 30
	WeightIdentityVerified  = 20
	WeightInsuranceVerified = 10
	WeightIncome            = 20
	WeightEmployer          = 10
	WeightOccupation        = 10

	MaxScore = 100
)

// ComputeScore rates an applicant profile in [0, MaxScore]. A nil profile scores 0.
func ComputeScore(p *models.ApplicantProfile) int {
	if p == nil {
		return 0
	}
	score := 0
	if p.IsVerified {
		score += WeightVerified
	}
	if p.IdentityVerified {
		score += WeightIdentityVerified
	}
	if p.InsuranceVerified {
		score += WeightInsuranceVerified
	}
	if p.MonthlyIncome > 0 {
		score += WeightIncome
	}
	if strings.TrimSpace(p.Employer) != "" {
		score += WeightEmployer
	}
	if strings.TrimSpace(p.Occupation) != "" {
		score += WeightOccupation
	}
	return min(max(score, 0), MaxScore)
}

// IScoringService defines the interface for trust score maintenance.
type IScoringService interface {
	RefreshTrustScore(ctx context.Context, applicantID string) (int, error)
}

type scoringService struct {
	lifecycle
}

// NewScoringService creates a new ScoringService.
func NewScoringService(repos *store.Repositories, cfg *config.Config) IScoringService {
	return &scoringService{lifecycle: newLifecycle(repos, cfg, nil)}
}

// RefreshTrustScore recomputes the applicant's score and stores it on the profile.
func (s *scoringService) RefreshTrustScore(ctx context.Context, applicantID string) (int, error) {
	profile, err := s.repos.Profiles.Get(ctx, applicantID)
	if err != nil {
		return 0, readErr("applicant profile", applicantID, err)
	}

	score := ComputeScore(profile)
	now := s.now()
	if err := s.repos.Profiles.Update(ctx, applicantID, store.Patch{"trust_score": score, "scored_at": now}); err != nil {
		return 0, writeErr("applicant profile", applicantID, err)
	}

	utils.Logger.WithField("applicant_id", applicantID).Debugf("Trust score refreshed: %d", score)
	return score, nil
}

// profileScore scores the applicant at submission. A missing profile scores 0.
func profileScore(ctx context.Context, repos *store.Repositories, applicantID string) (int, error) {
	profile, err := repos.Profiles.Get(ctx, applicantID)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, readErr("applicant profile", applicantID, err)
	}
	return ComputeScore(profile), nil
}
