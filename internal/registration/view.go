package registration

import (
	"github.com/noah-isme/event-registration/internal/coupon"
	"github.com/noah-isme/event-registration/internal/eventcfg"
	"github.com/noah-isme/event-registration/internal/pricing"
)

// QuoteResponse is a priced quote plus display strings. Coupon carries the
// rejection message when a supplied code was not applied.
type QuoteResponse struct {
	pricing.Quote
	Coupon  *coupon.Result `json:"coupon,omitempty"`
	Display Display        `json:"display"`
}

// Display holds formatted totals for rendering.
type Display struct {
	LodgingTotal    string `json:"lodging_total"`
	EventTotal      string `json:"event_total"`
	Subtotal        string `json:"subtotal"`
	GatewayFee      string `json:"gateway_fee"`
	CouponDiscount  string `json:"coupon_discount"`
	PaymentDiscount string `json:"payment_discount"`
	Total           string `json:"total"`
}

func newQuoteResponse(q pricing.Quote, couponRes *coupon.Result) QuoteResponse {
	format := func(m pricing.Money) string { return pricing.Format(m, q.Currency) }
	return QuoteResponse{
		Quote:  q,
		Coupon: couponRes,
		Display: Display{
			LodgingTotal:    format(q.LodgingTotal),
			EventTotal:      format(q.EventTotal),
			Subtotal:        format(q.Subtotal),
			GatewayFee:      format(q.GatewayFee),
			CouponDiscount:  format(q.CouponDiscount),
			PaymentDiscount: format(q.PaymentDiscount),
			Total:           format(q.Total),
		},
	}
}

// RegisterResponse acknowledges an accepted registration.
type RegisterResponse struct {
	RegistrationID string        `json:"registration_id"`
	Message        string        `json:"message"`
	PaymentLink    string        `json:"payment_link,omitempty"`
	Quote          QuoteResponse `json:"quote"`
}

// EventView is the public projection of an event document. Coupon codes are
// never exposed.
type EventView struct {
	Slug           string              `json:"slug"`
	Event          *eventcfg.Event     `json:"event"`
	Branding       *eventcfg.Branding  `json:"branding"`
	Details        *eventcfg.Details   `json:"details"`
	SEO            *eventcfg.SEO       `json:"seo,omitempty"`
	Terms          *eventcfg.Terms     `json:"terms,omitempty"`
	Form           *eventcfg.Form      `json:"form"`
	Offerings      *eventcfg.Offerings `json:"offerings"`
	AgeRules       eventcfg.AgeRules   `json:"age_rules"`
	CouponsEnabled bool                `json:"coupons_enabled"`
	Payment        eventcfg.Payment    `json:"payment"`
	Currency       string              `json:"currency"`
}

func newEventView(doc *eventcfg.Document) EventView {
	return EventView{
		Slug:           doc.Event.Slug,
		Event:          doc.Event,
		Branding:       doc.Branding,
		Details:        doc.Details,
		SEO:            doc.SEO,
		Terms:          doc.Terms,
		Form:           doc.Form,
		Offerings:      doc.Offerings,
		AgeRules:       doc.AgeRules,
		CouponsEnabled: doc.Coupons.Enabled,
		Payment:        doc.Payment,
		Currency:       doc.Currency(),
	}
}
