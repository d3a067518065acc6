package pricing_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-registration/internal/eventcfg"
	"github.com/noah-isme/event-registration/internal/pricing"
)

func childRegistrant(seq uint64, age int) pricing.Registrant {
	return pricing.Registrant{
		ID:              uuid.New(),
		Seq:             seq,
		Name:            "child",
		BirthDate:       birth(age),
		PeriodID:        "weekend",
		AccommodationID: "room",
	}
}

func TestAllocateFirstRegisteredFirstServed(t *testing.T) {
	doc := withChildRules(lodgingDoc(), nil)
	older := childRegistrant(1, 4)
	younger := childRegistrant(2, 3)

	// Container order must not matter, only Seq.
	alloc := pricing.Allocate(doc, []pricing.Registrant{younger, older}, pricing.CategoryLodging, fixedNow)
	require.Equal(t, pricing.SlotFree, alloc.Slot(older.ID))
	require.Equal(t, pricing.SlotExcess, alloc.Slot(younger.ID))
}

func TestAllocateIsIdempotent(t *testing.T) {
	doc := withChildRules(lodgingDoc(), nil)
	list := []pricing.Registrant{childRegistrant(3, 2), childRegistrant(1, 5), childRegistrant(2, 1)}

	first := pricing.Allocate(doc, list, pricing.CategoryLodging, fixedNow)
	second := pricing.Allocate(doc, list, pricing.CategoryLodging, fixedNow)
	require.Equal(t, first, second)
	require.Equal(t, pricing.SlotFree, first.Slot(list[1].ID))
}

func TestAllocateGroupsPerMatchingRule(t *testing.T) {
	doc := lodgingDoc()
	doc.AgeRules = eventcfg.AgeRules{
		Enabled: true,
		Lodging: []eventcfg.AgeRule{
			{MinAge: 0, MaxAge: intPtr(2), PercentOfAdult: dec("0"), FreeQuota: intPtr(1)},
			{MinAge: 3, MaxAge: intPtr(5), PercentOfAdult: dec("0"), FreeQuota: intPtr(1)},
		},
	}
	baby := childRegistrant(1, 1)
	toddler := childRegistrant(2, 4)
	secondToddler := childRegistrant(3, 5)

	alloc := pricing.Allocate(doc, []pricing.Registrant{baby, toddler, secondToddler}, pricing.CategoryLodging, fixedNow)
	require.Equal(t, pricing.SlotFree, alloc.Slot(baby.ID))
	require.Equal(t, pricing.SlotFree, alloc.Slot(toddler.ID))
	require.Equal(t, pricing.SlotExcess, alloc.Slot(secondToddler.ID))
}

func TestAllocateSkipsRegistrantsWithoutChargeableLine(t *testing.T) {
	doc := withChildRules(lodgingDoc(), nil)
	noLodging := childRegistrant(1, 3)
	noLodging.PeriodID = ""
	noBirth := childRegistrant(2, 3)
	noBirth.BirthDate = nil
	lodger := childRegistrant(3, 3)

	alloc := pricing.Allocate(doc, []pricing.Registrant{noLodging, noBirth, lodger}, pricing.CategoryLodging, fixedNow)
	require.Equal(t, pricing.SlotNone, alloc.Slot(noLodging.ID))
	require.Equal(t, pricing.SlotNone, alloc.Slot(noBirth.ID))
	require.Equal(t, pricing.SlotFree, alloc.Slot(lodger.ID))
}

func TestAllocateDisabledRules(t *testing.T) {
	doc := withChildRules(lodgingDoc(), nil)
	doc.AgeRules.Enabled = false
	alloc := pricing.Allocate(doc, []pricing.Registrant{childRegistrant(1, 3)}, pricing.CategoryLodging, fixedNow)
	require.Empty(t, alloc)
}
