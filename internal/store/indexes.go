package store

import "github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"

const (
	PropertiesCollection   = "properties"
	ProfilesCollection     = "applicant_profiles"
	ApplicationsCollection = "rental_applications"
	VisitsCollection       = "visit_requests"
	ContractsCollection    = "lease_contracts"
	PaymentsCollection     = "payments"
)

// ApplicationPairIndex allows one non-rejected application per property and applicant.
var ApplicationPairIndex = UniqueIndex{
	Name:     "application_pair_unique",
	Fields:   []string{"property_id", "applicant_id"},
	StatusIn: Strings(models.ActiveApplicationStatuses),
}

// VisitSlotIndex allows one slot-holding visit per property, date and time.
var VisitSlotIndex = UniqueIndex{
	Name:     "visit_slot_unique",
	Fields:   []string{"property_id", "visit_date", "visit_time"},
	StatusIn: Strings(models.SlotHoldingVisitStatuses),
}

// ContractApplicationIndex allows one open contract per application.
var ContractApplicationIndex = UniqueIndex{
	Name:     "contract_application_unique",
	Fields:   []string{"application_id"},
	StatusIn: Strings(models.OpenContractStatuses),
}

// Repositories bundles the repositories the lifecycle services need.
type Repositories struct {
	Properties   Repository[models.Property]
	Profiles     Repository[models.ApplicantProfile]
	Applications Repository[models.RentalApplication]
	Visits       Repository[models.VisitRequest]
	Contracts    Repository[models.LeaseContract]
	Payments     Repository[models.Payment]
}

// NewMemoryRepositories returns empty in-memory repositories with the
// same unique indexes as the MongoDB ones.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Properties:   NewMemory[models.Property](),
		Profiles:     NewMemory[models.ApplicantProfile](),
		Applications: NewMemory[models.RentalApplication](ApplicationPairIndex),
		Visits:       NewMemory[models.VisitRequest](VisitSlotIndex),
		Contracts:    NewMemory[models.LeaseContract](ContractApplicationIndex),
		Payments:     NewMemory[models.Payment](),
	}
}
