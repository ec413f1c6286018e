package models

// Availability of a property for new applications and visits.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

// Property is created by the listing flow and only read by the lifecycle core.
type Property struct {
	Base          `bson:",inline"`
	OwnerID       string       `bson:"owner_id" json:"owner_id"`
	Title         string       `bson:"title,omitempty" json:"title,omitempty"`
	MonthlyRent   int64        `bson:"monthly_rent" json:"monthly_rent"`
	DepositAmount int64        `bson:"deposit_amount" json:"deposit_amount"`
	Availability  Availability `bson:"availability" json:"availability"`
}

func (p *Property) IsAvailable() bool {
	return p.Availability == AvailabilityAvailable
}
