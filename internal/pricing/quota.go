package pricing

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

// Slot is a registrant's standing with respect to a free quota.
type Slot int

const (
	// SlotNone means the registrant does not match a free-candidate rule.
	SlotNone Slot = iota
	// SlotFree means the registrant occupies one of the rule's free slots.
	SlotFree
	// SlotExcess means the rule's quota was exhausted by earlier registrants.
	SlotExcess
)

func (s Slot) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotExcess:
		return "excess"
	default:
		return "none"
	}
}

// Allocation maps registrant IDs to their slot for a single category.
// Registrants absent from the map hold SlotNone.
type Allocation map[uuid.UUID]Slot

// Slot returns the registrant's slot.
func (a Allocation) Slot(id uuid.UUID) Slot {
	if a == nil {
		return SlotNone
	}
	return a[id]
}

type candidate struct {
	id  uuid.UUID
	seq uint64
}

// Allocate decides which registrants occupy the limited free slots of a
// category. Candidates are grouped by the rule they matched and ranked by
// ascending Seq within each group; rank below the rule's quota is free.
// The result depends only on its inputs, so repeated calls agree.
func Allocate(doc *eventcfg.Document, registrants []Registrant, category Category, at time.Time) Allocation {
	alloc := Allocation{}
	if doc == nil || !doc.AgeRules.Enabled {
		return alloc
	}
	groups := map[int][]candidate{}
	quotas := map[int]int{}
	for _, r := range registrants {
		age, ok := r.Age(at)
		if !ok || !chargeable(doc, r, category) {
			continue
		}
		res := ResolveRule(doc.AgeRules, category, age)
		if !res.FreeCandidate() {
			continue
		}
		groups[res.Index] = append(groups[res.Index], candidate{id: r.ID, seq: r.Seq})
		quotas[res.Index] = res.Quota()
	}
	for idx, members := range groups {
		sort.SliceStable(members, func(i, j int) bool { return members[i].seq < members[j].seq })
		for rank, c := range members {
			if rank < quotas[idx] {
				alloc[c.id] = SlotFree
			} else {
				alloc[c.id] = SlotExcess
			}
		}
	}
	return alloc
}
