package models

// ItemShare represents one item's share for one person.
type ItemShare struct {
	Name       string  `json:"name"`
	Share      float64 `json:"share"`      // This person's share of the item price
	SplitCount int     `json:"splitCount"` // Number of people sharing the item
}

// Breakdown represents the calculated share of a bill for one person or for
// the unassigned pool.
type Breakdown struct {
	// Subtotal is the sum of this person's item shares (pre-tax, pre-tip).
	Subtotal float64 `json:"subtotal"`

	// Tax is the proportional share of receipt tax.
	// Calculated as: tax × (subtotal / overall_subtotal)
	Tax float64 `json:"tax"`

	// Tip is the proportional share of the tip, computed like Tax.
	Tip float64 `json:"tip"`

	// Total is subtotal + tip, plus tax unless item prices already include it.
	Total float64 `json:"total"`

	// Items are the items this person shares, in receipt order.
	// Always empty for the unassigned pool.
	Items []ItemShare `json:"items"`
}

// PersonBreakdown is a Breakdown labelled with the person it belongs to.
type PersonBreakdown struct {
	Person string `json:"person"`
	Breakdown
}

// Allocation is the output of one allocation run.
type Allocation struct {
	// People holds one breakdown per registered person, in registry order.
	People []PersonBreakdown `json:"people"`

	// Unassigned is nil unless some item has nobody assigned.
	Unassigned *Breakdown `json:"unassigned,omitempty"`

	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
	Total    float64 `json:"total"`

	// ItemsIncludeTax is copied from the receipt.
	ItemsIncludeTax bool `json:"itemsIncludeTax"`
}

// Person returns the breakdown for the named person.
func (a *Allocation) Person(name string) (*Breakdown, bool) {
	for i := range a.People {
		if a.People[i].Person == name {
			return &a.People[i].Breakdown, true
		}
	}
	return nil, false
}

// SharedBreakdown is one person's breakdown bundled with the receipt metadata
// needed to render it standalone. It is what a share token carries.
type SharedBreakdown struct {
	Person          string      `json:"person"`
	Restaurant      string      `json:"restaurant,omitempty"`
	Date            string      `json:"date,omitempty"`
	Currency        string      `json:"currency"`
	Items           []ItemShare `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	Tip             float64     `json:"tip"`
	Total           float64     `json:"total"`
	ItemsIncludeTax bool        `json:"itemsIncludeTax"`
}
