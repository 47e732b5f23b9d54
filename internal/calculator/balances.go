package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/models"
)

// Settle rounds every breakdown total of an allocation to whole cents.
//
// Rounding each total independently can make the parts disagree with the
// rounded bill total by a cent or two. Settle uses a largest-remainder policy
// instead:
//   - every total is floored to cents
//   - the cents still missing to reach the rounded sum of the breakdown totals
//     are handed out one at a time, largest fractional remainder first
//   - ties go to the entry that comes first (registry order, unassigned last)
//
// The unassigned pool, if present, is returned last with an empty Person.
func Settle(alloc *models.Allocation) []models.Settlement {
	type entry struct {
		person    string
		cents     decimal.Decimal
		remainder decimal.Decimal
	}

	var entries []entry
	exactSum := decimal.Zero
	add := func(person string, total float64) {
		exact := decimal.NewFromFloat(total).Shift(2)
		exactSum = exactSum.Add(exact)
		floor := exact.Floor()
		entries = append(entries, entry{
			person:    person,
			cents:     floor,
			remainder: exact.Sub(floor),
		})
	}
	for _, p := range alloc.People {
		add(p.Person, p.Total)
	}
	if alloc.Unassigned != nil {
		add("", alloc.Unassigned.Total)
	}
	if len(entries) == 0 {
		return nil
	}

	// Settlement only moves rounding cents. With a zero subtotal the receipt's
	// tax and tip belong to nobody, so they are not in the breakdowns either.
	target := exactSum.Round(0)
	floored := decimal.Zero
	for _, e := range entries {
		floored = floored.Add(e.cents)
	}
	missing := target.Sub(floored).IntPart()

	// Order by remainder, largest first; stable keeps earlier entries ahead on ties
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return entries[order[a]].remainder.GreaterThan(entries[order[b]].remainder)
	})

	one := decimal.NewFromInt(1)
	for i := int64(0); missing > 0; i++ {
		e := &entries[order[i%int64(len(order))]]
		e.cents = e.cents.Add(one)
		missing--
	}
	// Float noise can leave the floors a cent above the target; take it back
	// from the smallest remainders
	for i := int64(0); missing < 0 && i < int64(len(order)); i++ {
		e := &entries[order[int64(len(order))-1-i]]
		if e.cents.IsPositive() {
			e.cents = e.cents.Sub(one)
			missing++
		}
	}

	settlements := make([]models.Settlement, len(entries))
	for i, e := range entries {
		settlements[i] = models.Settlement{
			Person: e.person,
			Amount: e.cents.Shift(-2),
		}
	}
	return settlements
}

// Transfers lists what everybody owes the person who paid the bill.
// The payer's own share and the unassigned pool are not transfers; people
// owing nothing are skipped.
func Transfers(settlements []models.Settlement, payer string) []models.Transfer {
	var transfers []models.Transfer
	for _, s := range settlements {
		if s.Person == "" || s.Person == payer || !s.Amount.IsPositive() {
			continue
		}
		transfers = append(transfers, models.Transfer{
			From:   s.Person,
			To:     payer,
			Amount: s.Amount,
		})
	}
	return transfers
}
