package models

import "time"

// ApplicantProfile is keyed by the applicant's user id.
// The lifecycle core only writes TrustScore.
type ApplicantProfile struct {
	Base              `bson:",inline"`
	IsVerified        bool       `bson:"is_verified" json:"is_verified"`
	IdentityVerified  bool       `bson:"identity_verified" json:"identity_verified"`
	InsuranceVerified bool       `bson:"insurance_verified" json:"insurance_verified"`
	Occupation        string     `bson:"occupation,omitempty" json:"occupation,omitempty"`
	Employer          string     `bson:"employer,omitempty" json:"employer,omitempty"`
	MonthlyIncome     int64      `bson:"monthly_income,omitempty" json:"monthly_income,omitempty"`
	TrustScore        *int       `bson:"trust_score,omitempty" json:"trust_score,omitempty"`
	ScoredAt          *time.Time `bson:"scored_at,omitempty" json:"scored_at,omitempty"`
}
