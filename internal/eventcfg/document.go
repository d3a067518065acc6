package eventcfg

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Form types understood by the pricing engine.
const (
	FormLodging      = "lodging"
	FormEvent        = "event"
	FormLodgingEvent = "lodging_event"
)

// Coupon discount kinds and scopes.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"

	ScopeTotal   = "total"
	ScopeLodging = "lodging"
	ScopeEvent   = "event"
)

// Document is the validated configuration of a single event registration form.
// It is immutable once returned by Parse.
type Document struct {
	Event     *Event     `json:"event" validate:"required"`
	Branding  *Branding  `json:"branding" validate:"required"`
	Details   *Details   `json:"details" validate:"required"`
	Offerings *Offerings `json:"offerings" validate:"required"`
	Form      *Form      `json:"form" validate:"required"`
	SEO       *SEO       `json:"seo,omitempty"`
	Terms     *Terms     `json:"terms,omitempty"`
	AgeRules  AgeRules   `json:"age_rules"`
	Coupons   Coupons    `json:"coupons"`
	Payment   Payment    `json:"payment"`
}

// Event holds identity and registration window settings.
type Event struct {
	Slug              string `json:"slug,omitempty"`
	Name              string `json:"name" validate:"required"`
	RegistrationsOpen bool   `json:"registrations_open"`
	OpensAt           *Time  `json:"registration_opens_at,omitempty"`
	ClosesAt          *Time  `json:"registration_closes_at,omitempty"`
	Currency          string `json:"currency,omitempty"`
}

type Branding struct {
	BannerURL string `json:"banner_url,omitempty"`
	Logos     []Logo `json:"logos,omitempty" validate:"dive"`
	Colors    Colors `json:"colors"`
}

type Logo struct {
	URL string `json:"url" validate:"required"`
	Alt string `json:"alt,omitempty"`
}

type Colors struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Accent    string `json:"accent,omitempty"`
}

type Details struct {
	Description string `json:"description,omitempty"`
	Venue       string `json:"venue,omitempty"`
	StartsAt    *Time  `json:"starts_at,omitempty"`
	EndsAt      *Time  `json:"ends_at,omitempty"`
}

type SEO struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	OGImage     string `json:"og_image,omitempty"`
}

type Terms struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Form describes the registration form layout.
type Form struct {
	Type   string  `json:"type" validate:"required,oneof=lodging event lodging_event"`
	Fields []Field `json:"fields,omitempty" validate:"dive"`
}

// Field is a custom form field collected per participant.
type Field struct {
	Name     string   `json:"name" validate:"required"`
	Label    string   `json:"label,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// Offerings is the lodging and event-option catalog.
type Offerings struct {
	Periods        []Period        `json:"periods,omitempty" validate:"dive"`
	Accommodations []Accommodation `json:"accommodations,omitempty" validate:"dive"`
	EventOptions   []EventOption   `json:"event_options,omitempty" validate:"dive"`
}

// Period is a stay period; Rates overrides the accommodation nightly rate.
type Period struct {
	ID           string                     `json:"id" validate:"required"`
	Name         string                     `json:"name,omitempty"`
	Nights       int                        `json:"nights" validate:"gte=0"`
	Rates        map[string]decimal.Decimal `json:"rates,omitempty"`
	EventOptions []EventOption              `json:"event_options,omitempty" validate:"dive"`
}

type Accommodation struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name,omitempty"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
}

type EventOption struct {
	ID    string          `json:"id" validate:"required"`
	Name  string          `json:"name,omitempty"`
	Price decimal.Decimal `json:"price"`
	Free  bool            `json:"free,omitempty"`
}

// AgeRules holds the ordered per-category rule lists. Lists are evaluated in
// stored order and the first matching band wins.
type AgeRules struct {
	Enabled bool      `json:"enabled"`
	Lodging []AgeRule `json:"lodging,omitempty" validate:"dive"`
	Event   []AgeRule `json:"event,omitempty" validate:"dive"`
}

// AgeRule is a closed age band. A nil MaxAge leaves the band unbounded.
type AgeRule struct {
	MinAge         int             `json:"min_age" validate:"gte=0"`
	MaxAge         *int            `json:"max_age,omitempty"`
	PercentOfAdult decimal.Decimal `json:"percent_of_adult"`
	FreeQuota      *int            `json:"free_quota_per_reservation,omitempty"`
	ExcessFallback *Fallback       `json:"excess_fallback,omitempty"`
	Description    string          `json:"description,omitempty"`
}

// Fallback is the pricing applied to free candidates beyond the quota.
type Fallback struct {
	PercentOfAdult decimal.Decimal `json:"percent_of_adult"`
	Description    string          `json:"description,omitempty"`
}

// Contains reports whether age falls inside the band.
func (r AgeRule) Contains(age int) bool {
	if age < r.MinAge {
		return false
	}
	return r.MaxAge == nil || age <= *r.MaxAge
}

type Coupons struct {
	Enabled bool     `json:"enabled"`
	Coupons []Coupon `json:"coupons,omitempty" validate:"dive"`
}

type Coupon struct {
	Code          string          `json:"code" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Active        bool            `json:"active"`
	ValidFrom     *Time           `json:"valid_from,omitempty"`
	ValidUntil    *Time           `json:"valid_until,omitempty"`
	DiscountType  string          `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Scope         string          `json:"scope,omitempty" validate:"omitempty,oneof=total lodging event"`
}

type Payment struct {
	Enabled bool            `json:"enabled"`
	Methods []PaymentMethod `json:"methods,omitempty" validate:"dive"`
}

// PaymentMethod carries independent surcharge and discount percentages
// expressed as fractions (0.03 == 3%).
type PaymentMethod struct {
	ID                string          `json:"id" validate:"required"`
	Name              string          `json:"name,omitempty"`
	GatewayFeePercent decimal.Decimal `json:"gateway_fee_percent"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
}

// Currency returns the configured ISO currency, defaulting to BRL.
func (d *Document) Currency() string {
	if d == nil || d.Event == nil || strings.TrimSpace(d.Event.Currency) == "" {
		return "BRL"
	}
	return strings.ToUpper(strings.TrimSpace(d.Event.Currency))
}

// FormType returns the form type or an empty string when unset.
func (d *Document) FormType() string {
	if d == nil || d.Form == nil {
		return ""
	}
	return d.Form.Type
}

// Period looks up a stay period by id.
func (o *Offerings) Period(id string) (Period, bool) {
	if o == nil || id == "" {
		return Period{}, false
	}
	for _, p := range o.Periods {
		if p.ID == id {
			return p, true
		}
	}
	return Period{}, false
}

// Accommodation looks up an accommodation by id.
func (o *Offerings) Accommodation(id string) (Accommodation, bool) {
	if o == nil || id == "" {
		return Accommodation{}, false
	}
	for _, a := range o.Accommodations {
		if a.ID == id {
			return a, true
		}
	}
	return Accommodation{}, false
}

// EventOption looks up a flat event option by id.
func (o *Offerings) EventOption(id string) (EventOption, bool) {
	if o == nil {
		return EventOption{}, false
	}
	return findOption(o.EventOptions, id)
}

// NightlyRate returns the rate for acc within the period, honouring overrides.
func (p Period) NightlyRate(acc Accommodation) decimal.Decimal {
	if rate, ok := p.Rates[acc.ID]; ok {
		return rate
	}
	return acc.NightlyRate
}

// EventOption looks up an option nested under the period.
func (p Period) EventOption(id string) (EventOption, bool) {
	return findOption(p.EventOptions, id)
}

// Method looks up a payment method by id.
func (p Payment) Method(id string) (PaymentMethod, bool) {
	if id == "" {
		return PaymentMethod{}, false
	}
	for _, m := range p.Methods {
		if m.ID == id {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// IsFree reports whether the option never carries a charge.
func (o EventOption) IsFree() bool {
	return o.Free || !o.Price.IsPositive()
}

func findOption(options []EventOption, id string) (EventOption, bool) {
	if id == "" {
		return EventOption{}, false
	}
	for _, opt := range options {
		if opt.ID == id {
			return opt, true
		}
	}
	return EventOption{}, false
}

// Time accepts RFC3339 timestamps or plain dates (midnight UTC).
type Time struct {
	time.Time
	DateOnly bool
}

const dateLayout = "2006-01-02"

func (t *Time) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	t.DateOnly = false
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	t.DateOnly = true
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	if t.DateOnly {
		return []byte(`"` + t.Format(dateLayout) + `"`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// At returns the wrapped instant, or nil when unset.
func (t *Time) At() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// Until returns the last instant covered when t closes a window. A plain
// date covers the whole day.
func (t *Time) Until() *time.Time {
	at := t.At()
	if at == nil || !t.DateOnly {
		return at
	}
	end := at.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return &end
}
