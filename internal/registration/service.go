package registration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/event-registration/internal/common"
	"github.com/noah-isme/event-registration/internal/coupon"
	"github.com/noah-isme/event-registration/internal/eventcfg"
	"github.com/noah-isme/event-registration/internal/intake"
	"github.com/noah-isme/event-registration/internal/obs"
	"github.com/noah-isme/event-registration/internal/pricing"
	"github.com/noah-isme/event-registration/internal/resilience"
)

// ConfigSource loads validated event documents by slug.
type ConfigSource interface {
	Load(ctx context.Context, slug string) (*eventcfg.Document, error)
}

// Submitter delivers accepted registrations downstream.
type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission) (intake.Result, error)
}

// registrationNamespace seeds deterministic registration ids derived from
// client idempotency keys.
var registrationNamespace = uuid.MustParse("6f1c1d6e-8b0e-4c8a-9a57-3e0f4f7d2a10")

// Service prices and submits registrations. Every call builds its own
// pricing engine, so a Service is safe for concurrent use.
type Service struct {
	Events ConfigSource
	Intake Submitter
	Now    func() time.Time
	Logger zerolog.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Event returns the public view of an event.
func (s *Service) Event(ctx context.Context, slug string) (EventView, error) {
	doc, err := s.load(ctx, slug)
	if err != nil {
		return EventView{}, err
	}
	return newEventView(doc), nil
}

// Quote prices the participants. A rejected coupon is reported in the
// response and does not fail the quote.
func (s *Service) Quote(ctx context.Context, slug string, req QuoteRequest) (QuoteResponse, error) {
	if err := validateRequest(req); err != nil {
		return QuoteResponse{}, err
	}
	doc, err := s.load(ctx, slug)
	if err != nil {
		return QuoteResponse{}, err
	}
	ctx, span := otel.Tracer("event-registration/pricing").Start(ctx, "registration.quote")
	defer span.End()
	span.SetAttributes(attribute.String("event.slug", doc.Event.Slug), attribute.Int("registration.participants", len(req.Participants)))

	engine, err := s.engine(ctx, doc, req.Participants, req.PaymentMethod)
	if err != nil {
		obs.ObserveQuote(doc.FormType(), "error")
		return QuoteResponse{}, err
	}
	var couponRes *coupon.Result
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		res, cerr := engine.ApplyCoupon(code)
		obs.ObserveCoupon(couponOutcome(cerr))
		if cerr != nil {
			couponRes = &res
		}
	}
	q := engine.Quote()
	if couponRes == nil {
		couponRes = q.Coupon
	}
	obs.ObserveQuote(doc.FormType(), "ok")
	return newQuoteResponse(q, couponRes), nil
}

// ValidateCoupon checks code against the event and reports the discount it
// would grant on the given participants.
func (s *Service) ValidateCoupon(ctx context.Context, slug string, req CouponRequest) (coupon.Result, error) {
	if err := validateRequest(req); err != nil {
		return coupon.Result{}, err
	}
	doc, err := s.load(ctx, slug)
	if err != nil {
		return coupon.Result{}, err
	}
	engine, err := s.engine(ctx, doc, req.Participants, req.PaymentMethod)
	if err != nil {
		return coupon.Result{}, err
	}
	res, cerr := engine.ApplyCoupon(strings.TrimSpace(req.Code))
	obs.ObserveCoupon(couponOutcome(cerr))
	return res, nil
}

// Register checks the registration window, prices the participants and
// submits the summary to intake. idempotencyKey, when set, makes the
// registration id deterministic so retried submissions collapse downstream.
func (s *Service) Register(ctx context.Context, slug string, req RegisterRequest, idempotencyKey string) (RegisterResponse, error) {
	if err := validateRequest(req); err != nil {
		obs.ObserveRegistration("invalid")
		return RegisterResponse{}, err
	}
	doc, err := s.load(ctx, slug)
	if err != nil {
		obs.ObserveRegistration("error")
		return RegisterResponse{}, err
	}
	if err := doc.CheckWindow(s.now()); err != nil {
		obs.ObserveRegistration("closed")
		return RegisterResponse{}, mapError(err)
	}
	if err := checkSelections(doc, req.Participants); err != nil {
		obs.ObserveRegistration("invalid")
		return RegisterResponse{}, err
	}
	if err := checkRequiredFields(doc, req); err != nil {
		obs.ObserveRegistration("invalid")
		return RegisterResponse{}, err
	}

	engine, err := s.engine(ctx, doc, req.Participants, req.PaymentMethod)
	if err != nil {
		obs.ObserveRegistration("invalid")
		return RegisterResponse{}, err
	}
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		res, cerr := engine.ApplyCoupon(code)
		obs.ObserveCoupon(couponOutcome(cerr))
		if cerr != nil {
			obs.ObserveRegistration("invalid")
			return RegisterResponse{}, common.NewAppError("COUPON_INVALID", res.Message, http.StatusUnprocessableEntity, cerr).WithDetails(res)
		}
	}
	quote := newQuoteResponse(engine.Quote(), nil)
	quote.Coupon = quote.Quote.Coupon

	id := registrationID(doc.Event.Slug, idempotencyKey)
	sub := buildSubmission(doc, id, req, quote.Quote, s.now())
	if s.Intake == nil {
		obs.ObserveRegistration("error")
		return RegisterResponse{}, common.NewAppError("INTAKE_UNAVAILABLE", "registration intake not configured", http.StatusServiceUnavailable, intake.ErrNotConfigured)
	}
	ack, err := s.Intake.Submit(ctx, sub)
	if err != nil {
		obs.ObserveRegistration("intake_failed")
		return RegisterResponse{}, mapError(err)
	}
	obs.ObserveRegistration("ok")
	s.logger(ctx).Info().
		Str("event", doc.Event.Slug).
		Str("registration_id", id).
		Int("participants", len(req.Participants)).
		Int64("total", quote.Total).
		Msg("registration submitted")
	return RegisterResponse{
		RegistrationID: id,
		Message:        ack.Message,
		PaymentLink:    ack.Link,
		Quote:          quote,
	}, nil
}

func (s *Service) load(ctx context.Context, slug string) (*eventcfg.Document, error) {
	if s.Events == nil {
		return nil, common.NewAppError("INTERNAL", "event source not configured", http.StatusInternalServerError, nil)
	}
	doc, err := s.Events.Load(ctx, slug)
	if err != nil {
		if !errors.Is(err, eventcfg.ErrEventNotFound) && !errors.Is(err, eventcfg.ErrInvalidSlug) {
			s.logger(ctx).Error().Err(err).Str("event", slug).Msg("load event config")
		}
		return nil, mapError(err)
	}
	return doc, nil
}

func (s *Service) engine(ctx context.Context, doc *eventcfg.Document, participants []Participant, method string) (*pricing.Engine, error) {
	engine := pricing.NewEngine(doc, pricing.WithClock(s.now), pricing.WithLogger(*s.logger(ctx)))
	for i, p := range participants {
		in, err := p.toInput()
		if err != nil {
			return nil, common.NewAppError("VALIDATION_FAILED", "invalid request", http.StatusUnprocessableEntity, err).
				WithDetails(map[string]string{fmt.Sprintf("participants[%d].birth_date", i): "datetime"})
		}
		engine.AddRegistrant(in)
	}
	if err := engine.SelectPaymentMethod(strings.TrimSpace(method)); err != nil {
		return nil, mapError(err)
	}
	return engine, nil
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}

// checkSelections rejects participants whose selections the form requires
// but the catalog does not define.
func checkSelections(doc *eventcfg.Document, participants []Participant) error {
	details := map[string]string{}
	formType := doc.FormType()
	wantsLodging := formType == eventcfg.FormLodging || formType == eventcfg.FormLodgingEvent
	wantsEvent := formType == eventcfg.FormEvent || formType == eventcfg.FormLodgingEvent
	for i, p := range participants {
		prefix := fmt.Sprintf("participants[%d].", i)
		if wantsLodging {
			if _, ok := doc.Offerings.Period(strings.TrimSpace(p.PeriodID)); !ok {
				details[prefix+"period_id"] = "unknown"
			}
			if _, ok := doc.Offerings.Accommodation(strings.TrimSpace(p.AccommodationID)); !ok {
				details[prefix+"accommodation_id"] = "unknown"
			}
		}
		if wantsEvent {
			if _, ok := pricing.EventOptionFor(doc, strings.TrimSpace(p.PeriodID), strings.TrimSpace(p.EventOptionID)); !ok {
				details[prefix+"event_option_id"] = "unknown"
			}
		}
	}
	if len(details) > 0 {
		return common.NewAppError("INVALID_SELECTION", "participants reference unknown offerings", http.StatusUnprocessableEntity, nil).WithDetails(details)
	}
	return nil
}

// checkRequiredFields ensures every required custom form field is answered,
// per participant or once in the contact block.
func checkRequiredFields(doc *eventcfg.Document, req RegisterRequest) error {
	if doc.Form == nil {
		return nil
	}
	missing := map[string]string{}
	for _, field := range doc.Form.Fields {
		if !field.Required {
			continue
		}
		if strings.TrimSpace(req.Contact[field.Name]) != "" {
			continue
		}
		for i, p := range req.Participants {
			if strings.TrimSpace(p.Fields[field.Name]) == "" {
				missing[fmt.Sprintf("participants[%d].fields.%s", i, field.Name)] = "required"
			}
		}
	}
	if len(missing) > 0 {
		return common.NewAppError("VALIDATION_FAILED", "required form fields are missing", http.StatusUnprocessableEntity, nil).WithDetails(missing)
	}
	return nil
}

func registrationID(slug, idempotencyKey string) string {
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(registrationNamespace, []byte(slug+":"+key)).String()
}

func buildSubmission(doc *eventcfg.Document, id string, req RegisterRequest, q pricing.Quote, at time.Time) intake.Submission {
	sub := intake.Submission{
		RegistrationID: id,
		Event: intake.EventInfo{
			Slug: doc.Event.Slug,
			Name: doc.Event.Name,
		},
		Contact:     req.Contact,
		SubmittedAt: at.UTC(),
		Pricing: intake.Pricing{
			Currency:        q.Currency,
			LodgingTotal:    pricing.ToDecimal(q.LodgingTotal),
			EventTotal:      pricing.ToDecimal(q.EventTotal),
			Subtotal:        pricing.ToDecimal(q.Subtotal),
			GatewayFee:      pricing.ToDecimal(q.GatewayFee),
			CouponDiscount:  pricing.ToDecimal(q.CouponDiscount),
			PaymentMethod:   q.PaymentMethod,
			PaymentDiscount: pricing.ToDecimal(q.PaymentDiscount),
			Total:           pricing.ToDecimal(q.Total),
		},
	}
	if doc.Details != nil {
		sub.Event.Venue = doc.Details.Venue
	}
	if q.Coupon != nil {
		sub.Pricing.CouponCode = q.Coupon.Code
	}
	// Quote rows follow insertion order, which matches the request order.
	for i, p := range req.Participants {
		part := intake.Participant{
			Name:            strings.TrimSpace(p.Name),
			BirthDate:       strings.TrimSpace(p.BirthDate),
			PeriodID:        p.PeriodID,
			AccommodationID: p.AccommodationID,
			EventOptionID:   p.EventOptionID,
			Fields:          p.Fields,
		}
		if i < len(q.Registrants) {
			row := q.Registrants[i]
			part.Age = row.Age
			part.Lodging = pricing.ToDecimal(row.Lodging.Value)
			part.Event = pricing.ToDecimal(row.Event.Value)
			part.Total = pricing.ToDecimal(row.Total)
		}
		sub.Participants = append(sub.Participants, part)
	}
	return sub
}

func couponOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, coupon.ErrNotFound):
		return "not_found"
	case errors.Is(err, coupon.ErrExpired):
		return "expired"
	case errors.Is(err, coupon.ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, coupon.ErrDisabled):
		return "disabled"
	default:
		return "error"
	}
}

// mapError translates domain errors into HTTP-facing AppErrors.
func mapError(err error) error {
	if err == nil || common.IsAppError(err) {
		return err
	}
	var missing *eventcfg.MissingFieldError
	switch {
	case errors.Is(err, eventcfg.ErrEventNotFound), errors.Is(err, eventcfg.ErrInvalidSlug):
		return common.NewAppError("EVENT_NOT_FOUND", "event not found", http.StatusNotFound, err)
	case errors.As(err, &missing):
		fields := append([]string(nil), missing.Fields...)
		sort.Strings(fields)
		return common.NewAppError("EVENT_CONFIG_INVALID", "event configuration is incomplete", http.StatusInternalServerError, err).
			WithDetails(map[string]any{"missing": fields})
	case errors.Is(err, eventcfg.ErrConfigInvalid):
		return common.NewAppError("EVENT_CONFIG_INVALID", "event configuration is invalid", http.StatusInternalServerError, err)
	case errors.Is(err, eventcfg.ErrRegistrationNotOpen):
		return common.NewAppError("REGISTRATIONS_NOT_OPEN", "registrations are not open yet", http.StatusConflict, err)
	case errors.Is(err, eventcfg.ErrRegistrationClosed):
		return common.NewAppError("REGISTRATIONS_CLOSED", "registrations are closed", http.StatusConflict, err)
	case errors.Is(err, pricing.ErrUnknownPaymentMethod):
		return common.NewAppError("UNKNOWN_PAYMENT_METHOD", "unknown payment method", http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrPaymentDisabled):
		return common.NewAppError("PAYMENT_DISABLED", "payment methods are not enabled for this event", http.StatusUnprocessableEntity, err)
	case errors.Is(err, intake.ErrSubmissionInProgress):
		return common.NewAppError("SUBMISSION_IN_PROGRESS", "this registration is already being submitted", http.StatusConflict, err)
	case errors.Is(err, resilience.ErrOpenCircuit), errors.Is(err, intake.ErrNotConfigured):
		return common.NewAppError("INTAKE_UNAVAILABLE", "registration intake is temporarily unavailable", http.StatusServiceUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.NewAppError("INTAKE_TIMEOUT", "registration intake timed out", http.StatusGatewayTimeout, err)
	case errors.Is(err, intake.ErrRejected), errors.Is(err, intake.ErrInvalidSubmission):
		return common.NewAppError("INTAKE_FAILED", "registration could not be submitted", http.StatusBadGateway, err)
	default:
		var statusErr *resilience.StatusError
		if errors.As(err, &statusErr) {
			return common.NewAppError("INTAKE_FAILED", "registration could not be submitted", http.StatusBadGateway, err)
		}
		return err
	}
}
