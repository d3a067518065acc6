package pricing

import (
	"time"

	"github.com/google/uuid"
)

// RegistrantInput carries the attributes a form participant supplies.
type RegistrantInput struct {
	Name            string
	BirthDate       *time.Time
	PeriodID        string
	AccommodationID string
	EventOptionID   string
}

// Registrant is a participant in the reservation. Seq is assigned once at
// creation and orders first-registered, first-served decisions.
type Registrant struct {
	ID              uuid.UUID
	Seq             uint64
	Name            string
	BirthDate       *time.Time
	PeriodID        string
	AccommodationID string
	EventOptionID   string
}

// Age returns the registrant's age at the instant, or false when no birth date is known.
func (r Registrant) Age(at time.Time) (int, bool) {
	if r.BirthDate == nil || r.BirthDate.IsZero() {
		return 0, false
	}
	return AgeOn(*r.BirthDate, at), true
}

func (r *Registrant) apply(in RegistrantInput) {
	r.Name = in.Name
	r.BirthDate = nil
	if in.BirthDate != nil {
		birth := *in.BirthDate
		r.BirthDate = &birth
	}
	r.PeriodID = in.PeriodID
	r.AccommodationID = in.AccommodationID
	r.EventOptionID = in.EventOptionID
}
