package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

// lodgingBase returns nightly rate × nights for the registrant's selection.
// Missing selections or catalog entries report false.
func lodgingBase(doc *eventcfg.Document, r Registrant) (Money, bool) {
	if doc == nil || doc.Offerings == nil || r.PeriodID == "" || r.AccommodationID == "" {
		return 0, false
	}
	period, ok := doc.Offerings.Period(r.PeriodID)
	if !ok {
		return 0, false
	}
	acc, ok := doc.Offerings.Accommodation(r.AccommodationID)
	if !ok {
		return 0, false
	}
	rate := period.NightlyRate(acc)
	return FromDecimal(rate.Mul(decimal.NewFromInt(int64(period.Nights)))), true
}

// eventOption resolves the registrant's event option. For lodging_event forms
// the option is looked up under the chosen period first.
func eventOption(doc *eventcfg.Document, r Registrant) (eventcfg.EventOption, bool) {
	if doc == nil || doc.Offerings == nil || r.EventOptionID == "" {
		return eventcfg.EventOption{}, false
	}
	if doc.FormType() == eventcfg.FormLodgingEvent {
		if period, ok := doc.Offerings.Period(r.PeriodID); ok && len(period.EventOptions) > 0 {
			return period.EventOption(r.EventOptionID)
		}
	}
	return doc.Offerings.EventOption(r.EventOptionID)
}

// chargeable reports whether the registrant has a priced line in the category,
// which is what makes them compete for that category's free slots.
func chargeable(doc *eventcfg.Document, r Registrant, category Category) bool {
	switch category {
	case CategoryLodging:
		_, ok := lodgingBase(doc, r)
		return ok
	case CategoryEvent:
		opt, ok := eventOption(doc, r)
		return ok && !opt.IsFree()
	default:
		return false
	}
}

// EventOptionFor resolves optionID exactly as pricing does for a registrant
// who chose periodID.
func EventOptionFor(doc *eventcfg.Document, periodID, optionID string) (eventcfg.EventOption, bool) {
	return eventOption(doc, Registrant{PeriodID: periodID, EventOptionID: optionID})
}
