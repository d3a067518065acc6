package registration

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/event-registration/internal/common"
	"github.com/noah-isme/event-registration/internal/pricing"
)

const birthDateLayout = "2006-01-02"

// Participant is one registrant as submitted by the form.
type Participant struct {
	Name            string            `json:"name" validate:"required,max=200"`
	BirthDate       string            `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PeriodID        string            `json:"period_id,omitempty" validate:"max=128"`
	AccommodationID string            `json:"accommodation_id,omitempty" validate:"max=128"`
	EventOptionID   string            `json:"event_option_id,omitempty" validate:"max=128"`
	Fields          map[string]string `json:"fields,omitempty"`
}

// QuoteRequest is the body of the quote endpoint.
type QuoteRequest struct {
	Participants  []Participant `json:"participants" validate:"required,min=1,max=50,dive"`
	CouponCode    string        `json:"coupon_code,omitempty" validate:"max=64"`
	PaymentMethod string        `json:"payment_method,omitempty" validate:"max=64"`
}

// CouponRequest is the body of the coupon validation endpoint. Participants
// are optional; without them the discount is computed on an empty reservation.
type CouponRequest struct {
	Code          string        `json:"code" validate:"required,max=64"`
	Participants  []Participant `json:"participants,omitempty" validate:"max=50,dive"`
	PaymentMethod string        `json:"payment_method,omitempty" validate:"max=64"`
}

// RegisterRequest is the body of the registration endpoint.
type RegisterRequest struct {
	Participants  []Participant     `json:"participants" validate:"required,min=1,max=50,dive"`
	CouponCode    string            `json:"coupon_code,omitempty" validate:"max=64"`
	PaymentMethod string            `json:"payment_method,omitempty" validate:"max=64"`
	Contact       map[string]string `json:"contact,omitempty"`
}

func (r RegisterRequest) quote() QuoteRequest {
	return QuoteRequest{Participants: r.Participants, CouponCode: r.CouponCode, PaymentMethod: r.PaymentMethod}
}

var (
	requestOnce     sync.Once
	requestValidate *validator.Validate
)

func requestValidator() *validator.Validate {
	requestOnce.Do(func() {
		requestValidate = validator.New(validator.WithRequiredStructEnabled())
		requestValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return requestValidate
}

// validateRequest runs struct validation and reports failures as a 422 with
// one entry per offending field.
func validateRequest(v any) error {
	err := requestValidator().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return common.NewAppError("VALIDATION_FAILED", "invalid request", http.StatusUnprocessableEntity, err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		details[field] = fe.Tag()
	}
	return common.NewAppError("VALIDATION_FAILED", "invalid request", http.StatusUnprocessableEntity, err).WithDetails(details)
}

// toInput converts a validated participant into an engine input.
func (p Participant) toInput() (pricing.RegistrantInput, error) {
	in := pricing.RegistrantInput{
		Name:            strings.TrimSpace(p.Name),
		PeriodID:        strings.TrimSpace(p.PeriodID),
		AccommodationID: strings.TrimSpace(p.AccommodationID),
		EventOptionID:   strings.TrimSpace(p.EventOptionID),
	}
	if raw := strings.TrimSpace(p.BirthDate); raw != "" {
		birth, err := time.Parse(birthDateLayout, raw)
		if err != nil {
			return in, fmt.Errorf("birth_date: %w", err)
		}
		in.BirthDate = &birth
	}
	return in, nil
}
