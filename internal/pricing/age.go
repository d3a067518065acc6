package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

// Category selects which age-rule list applies.
type Category string

const (
	CategoryLodging Category = "lodging"
	CategoryEvent   Category = "event"
)

const fullPriceDescription = "Full price"

// Resolution is the outcome of matching an age against a category's rules.
// Index is the position of the matched rule, or -1 for the default rule.
type Resolution struct {
	Rule  eventcfg.AgeRule
	Index int
}

// FreeCandidate reports whether the matched rule grants free admission up to a quota.
func (r Resolution) FreeCandidate() bool {
	return r.Index >= 0 && r.Rule.PercentOfAdult.IsZero() && r.Rule.FreeQuota != nil && *r.Rule.FreeQuota >= 1
}

// Quota returns the matched rule's free quota, or 0.
func (r Resolution) Quota() int {
	if !r.FreeCandidate() {
		return 0
	}
	return *r.Rule.FreeQuota
}

func defaultResolution() Resolution {
	return Resolution{
		Rule:  eventcfg.AgeRule{PercentOfAdult: decimal.NewFromInt(1), Description: fullPriceDescription},
		Index: -1,
	}
}

// AgeOn returns completed years between birth and at. A birth date in the
// future yields 0.
func AgeOn(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ResolveRule scans the category's rules in stored order and returns the first
// band containing age. Disabled rules or no match yield the full-price default.
func ResolveRule(rules eventcfg.AgeRules, category Category, age int) Resolution {
	if !rules.Enabled {
		return defaultResolution()
	}
	for i, rule := range rulesFor(rules, category) {
		if rule.Contains(age) {
			return Resolution{Rule: rule, Index: i}
		}
	}
	return defaultResolution()
}

func rulesFor(rules eventcfg.AgeRules, category Category) []eventcfg.AgeRule {
	switch category {
	case CategoryLodging:
		return rules.Lodging
	case CategoryEvent:
		return rules.Event
	default:
		return nil
	}
}
