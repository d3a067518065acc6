package pricing

import "github.com/noah-isme/event-registration/internal/eventcfg"

// ApplyGatewayFee surcharges value by the method's gateway fee. Without a
// method or fee the value passes through unchanged.
func ApplyGatewayFee(value Money, method *eventcfg.PaymentMethod) Money {
	if method == nil || value <= 0 || !method.GatewayFeePercent.IsPositive() {
		return value
	}
	return ApplyRate(value, one.Add(method.GatewayFeePercent))
}

// PaymentDiscount returns the method's discount on base, never exceeding base.
func PaymentDiscount(base Money, method *eventcfg.PaymentMethod) Money {
	if method == nil || base <= 0 || !method.DiscountPercent.IsPositive() {
		return 0
	}
	discount := ApplyRate(base, method.DiscountPercent)
	if discount > base {
		discount = base
	}
	return discount
}

// FinalTotal subtracts the discounts from subtotal, clamped at zero.
func FinalTotal(subtotal, couponDiscount, paymentDiscount Money) Money {
	total := subtotal - couponDiscount - paymentDiscount
	if total < 0 {
		return 0
	}
	return total
}
