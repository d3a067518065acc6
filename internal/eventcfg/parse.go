package eventcfg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	// ErrConfigMissingField is returned when a required section or field is absent.
	ErrConfigMissingField = errors.New("event config: missing required field")
	// ErrConfigInvalid is returned when a field is present but malformed.
	ErrConfigInvalid = errors.New("event config: invalid")
	// ErrRegistrationClosed indicates registrations are disabled or the window has ended.
	ErrRegistrationClosed = errors.New("registrations closed")
	// ErrRegistrationNotOpen indicates the registration window has not started yet.
	ErrRegistrationNotOpen = errors.New("registrations not open yet")
)

// MissingFieldError lists every required field absent from a document.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfigMissingField.Error(), strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Unwrap() error { return ErrConfigMissingField }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func documentValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Parse decodes and validates an event configuration document. Required
// sections are checked exhaustively so callers fail before any pricing call.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrConfigInvalid, err)
	}
	absent := missingAmounts(data)
	if err := documentValidator().Struct(&doc); err != nil {
		return nil, translateValidation(err, absent)
	}
	if len(absent) > 0 {
		return nil, &MissingFieldError{Fields: absent}
	}
	if err := doc.checkAmounts(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func translateValidation(err error, absent []string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	missing := append([]string(nil), absent...)
	var invalid []string
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		if fe.Tag() == "required" {
			missing = append(missing, field)
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s)", field, fe.Tag()))
	}
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(invalid, ", "))
}

type rawObject = map[string]json.RawMessage

// amountFields mirrors the document paths whose amounts have no usable zero
// default. A decimal that is absent decodes to zero, so presence is checked
// against the raw payload.
type amountFields struct {
	Offerings struct {
		Periods []struct {
			EventOptions []rawObject `json:"event_options"`
		} `json:"periods"`
		Accommodations []rawObject `json:"accommodations"`
		EventOptions   []rawObject `json:"event_options"`
	} `json:"offerings"`
	AgeRules struct {
		Lodging []rawObject `json:"lodging"`
		Event   []rawObject `json:"event"`
	} `json:"age_rules"`
	Coupons struct {
		Coupons []rawObject `json:"coupons"`
	} `json:"coupons"`
}

func present(obj rawObject, key string) bool {
	v, ok := obj[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// missingAmounts lists required amount fields absent from data. Options
// flagged free may omit their price.
func missingAmounts(data []byte) []string {
	var raw amountFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	var missing []string
	need := func(obj rawObject, path, key string) {
		if !present(obj, key) {
			missing = append(missing, path+"."+key)
		}
	}
	options := func(prefix string, opts []rawObject) {
		for i, o := range opts {
			if bytes.Equal(bytes.TrimSpace(o["free"]), []byte("true")) {
				continue
			}
			need(o, fmt.Sprintf("%s[%d]", prefix, i), "price")
		}
	}
	rules := func(category string, list []rawObject) {
		for i, r := range list {
			path := fmt.Sprintf("age_rules.%s[%d]", category, i)
			need(r, path, "percent_of_adult")
			if !present(r, "excess_fallback") {
				continue
			}
			var fb rawObject
			if err := json.Unmarshal(r["excess_fallback"], &fb); err == nil {
				need(fb, path+".excess_fallback", "percent_of_adult")
			}
		}
	}

	for i, p := range raw.Offerings.Periods {
		options(fmt.Sprintf("offerings.periods[%d].event_options", i), p.EventOptions)
	}
	for i, a := range raw.Offerings.Accommodations {
		need(a, fmt.Sprintf("offerings.accommodations[%d]", i), "nightly_rate")
	}
	options("offerings.event_options", raw.Offerings.EventOptions)
	rules("lodging", raw.AgeRules.Lodging)
	rules("event", raw.AgeRules.Event)
	for i, c := range raw.Coupons.Coupons {
		need(c, fmt.Sprintf("coupons.coupons[%d]", i), "discount_value")
	}
	return missing
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func (d *Document) checkAmounts() error {
	var problems []string
	check := func(field string, v decimal.Decimal) {
		if v.IsNegative() {
			problems = append(problems, field+" must not be negative")
		}
	}
	checkRules := func(category string, rules []AgeRule) {
		for i, r := range rules {
			prefix := fmt.Sprintf("age_rules.%s[%d]", category, i)
			check(prefix+".percent_of_adult", r.PercentOfAdult)
			if r.MaxAge != nil && *r.MaxAge < r.MinAge {
				problems = append(problems, prefix+".max_age must not be below min_age")
			}
			if r.FreeQuota != nil && *r.FreeQuota < 1 {
				problems = append(problems, prefix+".free_quota_per_reservation must be at least 1")
			}
			if r.ExcessFallback != nil {
				check(prefix+".excess_fallback.percent_of_adult", r.ExcessFallback.PercentOfAdult)
			}
		}
	}
	checkRules("lodging", d.AgeRules.Lodging)
	checkRules("event", d.AgeRules.Event)

	for i, a := range d.Offerings.Accommodations {
		check(fmt.Sprintf("offerings.accommodations[%d].nightly_rate", i), a.NightlyRate)
	}
	for i, p := range d.Offerings.Periods {
		for acc, rate := range p.Rates {
			check(fmt.Sprintf("offerings.periods[%d].rates.%s", i, acc), rate)
		}
		for j, o := range p.EventOptions {
			check(fmt.Sprintf("offerings.periods[%d].event_options[%d].price", i, j), o.Price)
		}
	}
	for i, o := range d.Offerings.EventOptions {
		check(fmt.Sprintf("offerings.event_options[%d].price", i), o.Price)
	}
	one := decimal.NewFromInt(1)
	for i, c := range d.Coupons.Coupons {
		field := fmt.Sprintf("coupons.coupons[%d].discount_value", i)
		check(field, c.DiscountValue)
		if c.DiscountType == DiscountPercentage && c.DiscountValue.GreaterThan(one) {
			problems = append(problems, field+" must be within [0,1] for percentage coupons")
		}
	}
	for i, m := range d.Payment.Methods {
		check(fmt.Sprintf("payment.methods[%d].gateway_fee_percent", i), m.GatewayFeePercent)
		check(fmt.Sprintf("payment.methods[%d].discount_percent", i), m.DiscountPercent)
		if m.DiscountPercent.GreaterThan(one) {
			problems = append(problems, fmt.Sprintf("payment.methods[%d].discount_percent must be within [0,1]", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// CheckWindow verifies registrations are open at now.
func (d *Document) CheckWindow(now time.Time) error {
	if d == nil || d.Event == nil {
		return &MissingFieldError{Fields: []string{"event"}}
	}
	if !d.Event.RegistrationsOpen {
		return ErrRegistrationClosed
	}
	if opens := d.Event.OpensAt.At(); opens != nil && now.Before(*opens) {
		return ErrRegistrationNotOpen
	}
	if closes := d.Event.ClosesAt.Until(); closes != nil && now.After(*closes) {
		return ErrRegistrationClosed
	}
	return nil
}
