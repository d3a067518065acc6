package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

// Classification labels how a line item was priced.
type Classification string

const (
	ClassNone       Classification = "none"
	ClassFull       Classification = "full"
	ClassDiscounted Classification = "discounted"
	ClassFree       Classification = "free"
	ClassExcess     Classification = "excess"
)

// LineItem is one priced component (lodging or event) of a registrant.
// Value already includes Fee.
type LineItem struct {
	Base           Money           `json:"base"`
	Rate           decimal.Decimal `json:"rate"`
	Fee            Money           `json:"fee"`
	Value          Money           `json:"value"`
	Classification Classification  `json:"classification"`
	Description    string          `json:"description,omitempty"`
}

// RegistrantPrice is the per-registrant breakdown.
type RegistrantPrice struct {
	RegistrantID uuid.UUID `json:"registrant_id"`
	Seq          uint64    `json:"seq"`
	Name         string    `json:"name"`
	Age          *int      `json:"age"`
	Lodging      LineItem  `json:"lodging"`
	Event        LineItem  `json:"event"`
	Total        Money     `json:"total"`
}

// Snapshot is everything a pricing pass reads. It is never mutated.
type Snapshot struct {
	Doc         *eventcfg.Document
	Registrants []Registrant
	Method      *eventcfg.PaymentMethod
	At          time.Time
}

type pricer struct {
	snap    Snapshot
	lodging Allocation
	event   Allocation
}

func newPricer(s Snapshot) pricer {
	return pricer{
		snap:    s,
		lodging: Allocate(s.Doc, s.Registrants, CategoryLodging, s.At),
		event:   Allocate(s.Doc, s.Registrants, CategoryEvent, s.At),
	}
}

// PriceRegistrant computes a single registrant's lodging and event values.
// Free-quota standing is derived from the whole snapshot.
func PriceRegistrant(s Snapshot, r Registrant) RegistrantPrice {
	return newPricer(s).price(r)
}

func (p pricer) price(r Registrant) RegistrantPrice {
	out := RegistrantPrice{
		RegistrantID: r.ID,
		Seq:          r.Seq,
		Name:         r.Name,
		Lodging:      LineItem{Rate: decimal.Zero, Classification: ClassNone},
		Event:        LineItem{Rate: decimal.Zero, Classification: ClassNone},
	}
	if age, ok := r.Age(p.snap.At); ok {
		out.Age = &age
	}

	if base, ok := lodgingBase(p.snap.Doc, r); ok {
		out.Lodging = p.line(CategoryLodging, base, r, p.lodging.Slot(r.ID))
	}
	if opt, ok := eventOption(p.snap.Doc, r); ok {
		if opt.IsFree() {
			out.Event = LineItem{Rate: decimal.Zero, Classification: ClassFree, Description: opt.Name}
		} else {
			out.Event = p.line(CategoryEvent, FromDecimal(opt.Price), r, p.event.Slot(r.ID))
		}
	}
	out.Total = out.Lodging.Value + out.Event.Value
	return out
}

func (p pricer) line(category Category, base Money, r Registrant, slot Slot) LineItem {
	item := LineItem{Base: base, Rate: one, Classification: ClassFull, Description: fullPriceDescription}
	age, known := r.Age(p.snap.At)
	if known && p.snap.Doc.AgeRules.Enabled {
		res := ResolveRule(p.snap.Doc.AgeRules, category, age)
		switch {
		case res.FreeCandidate() && slot == SlotFree:
			item.Rate = decimal.Zero
			item.Classification = ClassFree
			item.Description = res.Rule.Description
		case res.FreeCandidate() && slot == SlotExcess:
			item.Classification = ClassExcess
			if fb := res.Rule.ExcessFallback; fb != nil {
				item.Rate = fb.PercentOfAdult
				item.Description = fb.Description
			} else {
				item.Description = fullPriceDescription
			}
		default:
			item.Rate = res.Rule.PercentOfAdult
			item.Description = res.Rule.Description
			switch {
			case item.Rate.IsZero():
				item.Classification = ClassFree
			case item.Rate.LessThan(one):
				item.Classification = ClassDiscounted
			}
		}
	}
	value := ApplyRate(base, item.Rate)
	item.Value = ApplyGatewayFee(value, p.snap.Method)
	item.Fee = item.Value - value
	return item
}
