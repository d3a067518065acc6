package pricing

// Totals sums line items across every registrant of a snapshot.
type Totals struct {
	Registrants []RegistrantPrice `json:"registrants"`
	Lodging     Money             `json:"lodging_total"`
	Event       Money             `json:"event_total"`
	Fees        Money             `json:"gateway_fee"`
}

// Subtotal is lodging plus event totals, gateway fee included.
func (t Totals) Subtotal() Money {
	return t.Lodging + t.Event
}

// Aggregate prices every registrant afresh and sums the results. Nothing is
// cached between calls.
func Aggregate(s Snapshot) Totals {
	p := newPricer(s)
	out := Totals{Registrants: make([]RegistrantPrice, 0, len(s.Registrants))}
	for _, r := range s.Registrants {
		priced := p.price(r)
		out.Registrants = append(out.Registrants, priced)
		out.Lodging += priced.Lodging.Value
		out.Event += priced.Event.Value
		out.Fees += priced.Lodging.Fee + priced.Event.Fee
	}
	return out
}
