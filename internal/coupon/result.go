package coupon

import "errors"

// Result describes the outcome of applying a coupon code.
type Result struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Scope       Scope  `json:"scope,omitempty"`
	Valid       bool   `json:"valid"`
	Discount    int64  `json:"discount"`
	Message     string `json:"message"`
}

// Rejected builds the result for a coupon that failed validation.
func Rejected(code string, err error) Result {
	return Result{Code: code, Valid: false, Message: Message(err)}
}

// Accepted builds the result for a validated coupon and its discount.
func Accepted(r Rule, discount int64) Result {
	return Result{
		Code:        r.Code,
		Description: r.Description,
		Scope:       r.Scope,
		Valid:       true,
		Discount:    discount,
		Message:     "Coupon applied",
	}
}

// Message returns a human-readable explanation for a coupon error.
func Message(err error) string {
	switch {
	case err == nil:
		return "Coupon applied"
	case errors.Is(err, ErrDisabled):
		return "Coupons are not accepted for this event"
	case errors.Is(err, ErrNotFound):
		return "Invalid coupon code"
	case errors.Is(err, ErrNotYetValid):
		return "This coupon is not valid yet"
	case errors.Is(err, ErrExpired):
		return "This coupon has expired"
	default:
		return "Coupon could not be applied"
	}
}
