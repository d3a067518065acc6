package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

func TestComputePercent(t *testing.T) {
	rule := Rule{Kind: KindPercentage, Rate: decimal.RequireFromString("0.10")}
	require.Equal(t, int64(3000), Compute(30000, rule))
}

func TestComputeRoundsHalfUp(t *testing.T) {
	rule := Rule{Kind: KindPercentage, Rate: decimal.RequireFromString("0.15")}
	// 0.15 * 0.10 = 0.015 -> 0.02
	require.Equal(t, int64(2), Compute(10, rule))
}

func TestComputeNeverExceedsBase(t *testing.T) {
	fixed := Rule{Kind: KindFixed, Amount: 50000}
	require.Equal(t, int64(12345), Compute(12345, fixed))
	require.Equal(t, int64(0), Compute(0, fixed))

	full := Rule{Kind: KindPercentage, Rate: decimal.NewFromInt(1)}
	for _, base := range []int64{1, 99, 10000, 123457} {
		require.LessOrEqual(t, Compute(base, full), base)
	}
}

func TestDateOnlyValidUntilCoversLastDay(t *testing.T) {
	var until eventcfg.Time
	require.NoError(t, until.UnmarshalJSON([]byte(`"2026-12-31"`)))
	rule := RuleFromConfig(eventcfg.Coupon{Code: "NYE", Active: true, ValidUntil: &until, DiscountType: "fixed", DiscountValue: decimal.NewFromInt(10)})

	require.NoError(t, rule.Validate(time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC)))
	require.ErrorIs(t, rule.Validate(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)), ErrExpired)

	var stamped eventcfg.Time
	require.NoError(t, stamped.UnmarshalJSON([]byte(`"2026-12-31T00:00:00Z"`)))
	rule.ValidUntil = stamped.Until()
	require.ErrorIs(t, rule.Validate(time.Date(2026, time.December, 31, 12, 0, 0, 0, time.UTC)), ErrExpired)
}

func TestScopedBase(t *testing.T) {
	s := Subtotals{Lodging: 20000, Event: 10000}
	require.Equal(t, int64(20000), ScopedBase(s, ScopeLodging))
	require.Equal(t, int64(10000), ScopedBase(s, ScopeEvent))
	require.Equal(t, int64(30000), ScopedBase(s, ScopeTotal))
	require.Equal(t, int64(30000), ScopedBase(s, ""))
}

func TestCatalogLookup(t *testing.T) {
	from := eventcfg.Time{Time: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}
	until := eventcfg.Time{Time: time.Date(2026, time.June, 30, 23, 59, 59, 0, time.UTC)}
	catalog := CatalogFromConfig(eventcfg.Coupons{
		Enabled: true,
		Coupons: []eventcfg.Coupon{
			{Code: "Early", Active: true, ValidFrom: &from, ValidUntil: &until, DiscountType: "percentage", DiscountValue: decimal.RequireFromString("0.2")},
			{Code: "OFF", Active: false, DiscountType: "fixed", DiscountValue: decimal.NewFromInt(50)},
			{Code: "FLAT", Active: true, DiscountType: "fixed", DiscountValue: decimal.RequireFromString("25.50"), Scope: "lodging"},
		},
	})

	inWindow := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	rule, err := catalog.Lookup("early", inWindow)
	require.NoError(t, err)
	require.Equal(t, ScopeTotal, rule.Scope)

	_, err = catalog.Lookup("EARLY", time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrNotYetValid)

	_, err = catalog.Lookup("EARLY", time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrExpired)

	_, err = catalog.Lookup("off", inWindow)
	require.ErrorIs(t, err, ErrNotFound, "inactive coupons are invisible")

	_, err = catalog.Lookup("  ", inWindow)
	require.ErrorIs(t, err, ErrNotFound)

	flat, err := catalog.Lookup("flat", inWindow)
	require.NoError(t, err)
	require.Equal(t, int64(2550), flat.Amount)
	require.Equal(t, ScopeLodging, flat.Scope)

	catalog.Enabled = false
	_, err = catalog.Lookup("FLAT", inWindow)
	require.ErrorIs(t, err, ErrDisabled)
}

func TestMessage(t *testing.T) {
	require.Equal(t, "This coupon has expired", Message(ErrExpired))
	require.Equal(t, "Invalid coupon code", Rejected("x", ErrNotFound).Message)
	require.True(t, Accepted(Rule{Code: "A"}, 10).Valid)
}
