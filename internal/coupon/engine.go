package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

var (
	// ErrDisabled is returned when the event does not accept coupons.
	ErrDisabled = errors.New("coupon: coupons disabled")
	// ErrNotFound is returned when no active coupon matches the code.
	ErrNotFound = errors.New("coupon: not found")
	// ErrNotYetValid is returned before the coupon's validity window opens.
	ErrNotYetValid = errors.New("coupon: not yet valid")
	// ErrExpired is returned after the coupon's validity window closed.
	ErrExpired = errors.New("coupon: expired")
)

// Kind is the discount type of a coupon.
type Kind string

const (
	KindPercentage Kind = eventcfg.DiscountPercentage
	KindFixed      Kind = eventcfg.DiscountFixed
)

// Scope selects the subtotal a coupon discounts.
type Scope string

const (
	ScopeTotal   Scope = eventcfg.ScopeTotal
	ScopeLodging Scope = eventcfg.ScopeLodging
	ScopeEvent   Scope = eventcfg.ScopeEvent
)

// Rule captures the runtime constraints of a coupon. Rate is used by
// percentage coupons, Amount (minor units) by fixed ones.
type Rule struct {
	Code        string
	Description string
	Kind        Kind
	Rate        decimal.Decimal
	Amount      int64
	Scope       Scope
	Active      bool
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// Subtotals are the bases a coupon may be scoped to.
type Subtotals struct {
	Lodging int64
	Event   int64
}

// Catalog is the set of coupons an event accepts.
type Catalog struct {
	Enabled bool
	Rules   []Rule
}

// CatalogFromConfig converts the configuration section into a Catalog.
func CatalogFromConfig(c eventcfg.Coupons) Catalog {
	out := Catalog{Enabled: c.Enabled, Rules: make([]Rule, 0, len(c.Coupons))}
	for _, cp := range c.Coupons {
		out.Rules = append(out.Rules, RuleFromConfig(cp))
	}
	return out
}

// RuleFromConfig converts a configured coupon into a Rule.
func RuleFromConfig(c eventcfg.Coupon) Rule {
	rule := Rule{
		Code:        strings.TrimSpace(c.Code),
		Description: c.Description,
		Kind:        Kind(strings.ToLower(c.DiscountType)),
		Scope:       Scope(strings.ToLower(c.Scope)),
		Active:      c.Active,
		ValidFrom:   c.ValidFrom.At(),
		ValidUntil:  c.ValidUntil.Until(),
	}
	if rule.Scope == "" {
		rule.Scope = ScopeTotal
	}
	if rule.Kind == KindFixed {
		rule.Amount = c.DiscountValue.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	} else {
		rule.Rate = c.DiscountValue
	}
	return rule
}

// Lookup finds the active coupon matching code case-insensitively and
// validates it at the provided instant.
func (c Catalog) Lookup(code string, at time.Time) (Rule, error) {
	if !c.Enabled {
		return Rule{}, ErrDisabled
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Rule{}, ErrNotFound
	}
	for _, r := range c.Rules {
		if r.Active && strings.EqualFold(r.Code, code) {
			if err := r.Validate(at); err != nil {
				return Rule{}, err
			}
			return r, nil
		}
	}
	return Rule{}, ErrNotFound
}

// Validate ensures the rule can be applied at the provided instant.
func (r Rule) Validate(at time.Time) error {
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return ErrNotYetValid
	}
	if r.ValidUntil != nil && at.After(*r.ValidUntil) {
		return ErrExpired
	}
	return nil
}

// ScopedBase returns the subtotal the rule's scope discounts.
func ScopedBase(s Subtotals, scope Scope) int64 {
	switch scope {
	case ScopeLodging:
		return s.Lodging
	case ScopeEvent:
		return s.Event
	default:
		return s.Lodging + s.Event
	}
}

// Compute determines the discount on base, rounded half-up to the cent and
// never exceeding base.
func Compute(base int64, r Rule) int64 {
	if base <= 0 {
		return 0
	}
	var discount int64
	switch r.Kind {
	case KindPercentage:
		discount = decimal.NewFromInt(base).Mul(r.Rate).Round(0).IntPart()
	case KindFixed:
		discount = r.Amount
	}
	if discount > base {
		discount = base
	}
	if discount < 0 {
		return 0
	}
	return discount
}
