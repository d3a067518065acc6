package intake

import (
	"time"

	"github.com/shopspring/decimal"
)

// Submission is the registration summary delivered to the intake webhook.
type Submission struct {
	RegistrationID string            `json:"registration_id"`
	Event          EventInfo         `json:"event"`
	Contact        map[string]string `json:"contact,omitempty"`
	Participants   []Participant     `json:"participants"`
	Pricing        Pricing           `json:"pricing"`
	SubmittedAt    time.Time         `json:"timestamp"`
}

type EventInfo struct {
	Slug  string `json:"id"`
	Name  string `json:"name"`
	Venue string `json:"venue,omitempty"`
}

// Participant carries one registrant with its priced lines.
type Participant struct {
	Name            string            `json:"name"`
	BirthDate       string            `json:"birth_date,omitempty"`
	Age             *int              `json:"age,omitempty"`
	PeriodID        string            `json:"period_id,omitempty"`
	AccommodationID string            `json:"accommodation_id,omitempty"`
	EventOptionID   string            `json:"event_option_id,omitempty"`
	Lodging         decimal.Decimal   `json:"lodging"`
	Event           decimal.Decimal   `json:"event"`
	Total           decimal.Decimal   `json:"total"`
	Fields          map[string]string `json:"fields,omitempty"`
}

// Pricing mirrors the quote totals in major currency units.
type Pricing struct {
	Currency        string          `json:"currency"`
	LodgingTotal    decimal.Decimal `json:"lodging_total"`
	EventTotal      decimal.Decimal `json:"event_total"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	GatewayFee      decimal.Decimal `json:"gateway_fee"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	CouponDiscount  decimal.Decimal `json:"coupon_discount"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	PaymentDiscount decimal.Decimal `json:"payment_discount"`
	Total           decimal.Decimal `json:"total"`
}

// Result is the parsed intake acknowledgement.
type Result struct {
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}
