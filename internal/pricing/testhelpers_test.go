package pricing_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

var fixedNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func intPtr(v int) *int { return &v }

func birth(years int) *time.Time {
	t := fixedNow.AddDate(-years, 0, -1)
	return &t
}

// lodgingDoc is a lodging form with one two-night period at 100/night.
func lodgingDoc() *eventcfg.Document {
	return &eventcfg.Document{
		Event:    &eventcfg.Event{Slug: "retiro", Name: "Retiro", RegistrationsOpen: true, Currency: "BRL"},
		Branding: &eventcfg.Branding{},
		Details:  &eventcfg.Details{},
		Form:     &eventcfg.Form{Type: eventcfg.FormLodgingEvent},
		Offerings: &eventcfg.Offerings{
			Periods: []eventcfg.Period{
				{ID: "weekend", Name: "Weekend", Nights: 2},
				{
					ID: "full", Name: "Full week", Nights: 5,
					Rates: map[string]decimal.Decimal{"suite": dec("90")},
					EventOptions: []eventcfg.EventOption{
						{ID: "camp", Name: "Camp", Price: dec("80")},
					},
				},
			},
			Accommodations: []eventcfg.Accommodation{
				{ID: "room", Name: "Room", NightlyRate: dec("100")},
				{ID: "suite", Name: "Suite", NightlyRate: dec("150")},
			},
			EventOptions: []eventcfg.EventOption{
				{ID: "conference", Name: "Conference", Price: dec("100")},
				{ID: "online", Name: "Online", Free: true},
			},
		},
	}
}

func withChildRules(doc *eventcfg.Document, fallback *eventcfg.Fallback) *eventcfg.Document {
	doc.AgeRules = eventcfg.AgeRules{
		Enabled: true,
		Lodging: []eventcfg.AgeRule{
			{MinAge: 0, MaxAge: intPtr(5), PercentOfAdult: decimal.Zero, FreeQuota: intPtr(1), ExcessFallback: fallback, Description: "Child up to 5"},
			{MinAge: 6, MaxAge: intPtr(12), PercentOfAdult: dec("0.5"), Description: "Child 6-12"},
			{MinAge: 13, PercentOfAdult: dec("1"), Description: "Adult"},
		},
		Event: []eventcfg.AgeRule{
			{MinAge: 0, MaxAge: intPtr(5), PercentOfAdult: decimal.Zero, Description: "Child up to 5"},
			{MinAge: 6, PercentOfAdult: dec("1"), Description: "Adult"},
		},
	}
	return doc
}
