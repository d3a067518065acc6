package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/event-registration/internal/coupon"
	"github.com/noah-isme/event-registration/internal/eventcfg"
)

var (
	// ErrUnknownPaymentMethod is returned when selecting a method absent from the configuration.
	ErrUnknownPaymentMethod = errors.New("pricing: unknown payment method")
	// ErrPaymentDisabled is returned when selecting a method while payments are disabled.
	ErrPaymentDisabled = errors.New("pricing: payment disabled")
	// ErrUnknownRegistrant is returned when updating or removing an id not in the session.
	ErrUnknownRegistrant = errors.New("pricing: unknown registrant")
)

// Quote aggregates computed pricing components for a session.
type Quote struct {
	Registrants     []RegistrantPrice `json:"registrants"`
	LodgingTotal    Money             `json:"lodging_total"`
	EventTotal      Money             `json:"event_total"`
	Subtotal        Money             `json:"subtotal"`
	GatewayFee      Money             `json:"gateway_fee"`
	CouponDiscount  Money             `json:"coupon_discount"`
	PaymentDiscount Money             `json:"payment_discount"`
	Total           Money             `json:"total"`
	Currency        string            `json:"currency"`
	Coupon          *coupon.Result    `json:"coupon,omitempty"`
	PaymentMethod   string            `json:"payment_method,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for ages and coupon validity.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine is a caller-owned pricing session over one immutable configuration.
// It holds only the registrant list, the applied coupon and the selected
// payment method. It is not safe for concurrent use.
type Engine struct {
	doc     *eventcfg.Document
	coupons coupon.Catalog
	now     func() time.Time
	logger  zerolog.Logger

	nextSeq     uint64
	registrants []Registrant
	coupon      *coupon.Rule
	method      *eventcfg.PaymentMethod
}

// NewEngine constructs a session for doc, which must already be validated.
func NewEngine(doc *eventcfg.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:     doc,
		coupons: coupon.CatalogFromConfig(doc.Coupons),
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Document returns the configuration the engine prices against.
func (e *Engine) Document() *eventcfg.Document { return e.doc }

// AddRegistrant appends a registrant, assigning the next sequence number.
func (e *Engine) AddRegistrant(in RegistrantInput) Registrant {
	e.nextSeq++
	r := Registrant{ID: uuid.New(), Seq: e.nextSeq}
	r.apply(in)
	e.registrants = append(e.registrants, r)
	return r
}

// UpdateRegistrant replaces a registrant's attributes, keeping its identity and sequence.
func (e *Engine) UpdateRegistrant(id uuid.UUID, in RegistrantInput) (Registrant, error) {
	for i := range e.registrants {
		if e.registrants[i].ID == id {
			e.registrants[i].apply(in)
			return e.registrants[i], nil
		}
	}
	return Registrant{}, fmt.Errorf("%w: %s", ErrUnknownRegistrant, id)
}

// RemoveRegistrant drops a registrant from the session.
func (e *Engine) RemoveRegistrant(id uuid.UUID) error {
	for i := range e.registrants {
		if e.registrants[i].ID == id {
			e.registrants = append(e.registrants[:i:i], e.registrants[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRegistrant, id)
}

// SetRegistrants replaces the whole registrant list. Sequence numbers issued
// afterwards continue above the highest one supplied.
func (e *Engine) SetRegistrants(list []Registrant) {
	e.registrants = make([]Registrant, len(list))
	copy(e.registrants, list)
	for _, r := range list {
		if r.Seq > e.nextSeq {
			e.nextSeq = r.Seq
		}
	}
}

// Registrants returns a copy of the current registrant list.
func (e *Engine) Registrants() []Registrant {
	out := make([]Registrant, len(e.registrants))
	copy(out, e.registrants)
	return out
}

// ApplyCoupon validates code at the engine clock and makes it the session
// coupon. A rejected code leaves the session without any coupon.
func (e *Engine) ApplyCoupon(code string) (coupon.Result, error) {
	rule, err := e.coupons.Lookup(code, e.now())
	if err != nil {
		e.coupon = nil
		e.logger.Debug().Str("code", code).Err(err).Msg("coupon rejected")
		return coupon.Rejected(code, err), err
	}
	e.coupon = &rule
	totals := Aggregate(e.snapshot())
	return coupon.Accepted(rule, e.couponDiscount(totals)), nil
}

// ClearCoupon removes the session coupon.
func (e *Engine) ClearCoupon() { e.coupon = nil }

// SelectPaymentMethod makes id the session payment method; an empty id clears it.
func (e *Engine) SelectPaymentMethod(id string) error {
	if id == "" {
		e.method = nil
		return nil
	}
	if !e.doc.Payment.Enabled {
		return ErrPaymentDisabled
	}
	m, ok := e.doc.Payment.Method(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPaymentMethod, id)
	}
	e.method = &m
	return nil
}

// Quote recomputes every figure from the current session state.
func (e *Engine) Quote() Quote {
	totals := Aggregate(e.snapshot())
	q := Quote{
		Registrants:  totals.Registrants,
		LodgingTotal: totals.Lodging,
		EventTotal:   totals.Event,
		Subtotal:     totals.Subtotal(),
		GatewayFee:   totals.Fees,
		Currency:     e.doc.Currency(),
	}
	if e.coupon != nil {
		q.CouponDiscount = e.couponDiscount(totals)
		res := coupon.Accepted(*e.coupon, q.CouponDiscount)
		q.Coupon = &res
	}
	if e.method != nil {
		q.PaymentMethod = e.method.ID
		q.PaymentDiscount = PaymentDiscount(q.Subtotal-q.CouponDiscount, e.method)
	}
	q.Total = FinalTotal(q.Subtotal, q.CouponDiscount, q.PaymentDiscount)

	e.logger.Debug().
		Int("registrants", len(q.Registrants)).
		Int64("subtotal", q.Subtotal).
		Int64("coupon_discount", q.CouponDiscount).
		Int64("payment_discount", q.PaymentDiscount).
		Int64("total", q.Total).
		Msg("quote computed")
	return q
}

func (e *Engine) couponDiscount(t Totals) Money {
	if e.coupon == nil {
		return 0
	}
	base := coupon.ScopedBase(coupon.Subtotals{Lodging: t.Lodging, Event: t.Event}, e.coupon.Scope)
	return coupon.Compute(base, *e.coupon)
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		Doc:         e.doc,
		Registrants: e.registrants,
		Method:      e.method,
		At:          e.now(),
	}
}
