package calculator

import (
	"github.com/mmynk/tabsplit/internal/models"
)

// Allocate computes how much each person owes including proportional tax and tip.
//
// Based on the algorithm:
//   - share = item_price / split_count, for every assigned item
//   - person_tax = tax × (person_subtotal / overall_subtotal), same for tip
//   - person_total = person_subtotal + person_tax (unless items include tax) + person_tip
//
// Items nobody is assigned to accumulate into the unassigned pool, which is
// apportioned with the same formula. Nothing is rounded here. A nil receipt
// yields an empty allocation.
//
// Allocate is a pure function: the same inputs always produce bit-identical
// output because every sum is accumulated in receipt order.
func Allocate(receipt *models.Receipt, assignments []models.Assignment, people []string, tip models.TipConfiguration) *models.Allocation {
	if receipt == nil {
		return &models.Allocation{}
	}

	// Index assignments by item; the first assignment for an item wins
	assigned := make(map[string][]string, len(assignments))
	for _, a := range assignments {
		if _, exists := assigned[a.ItemID]; !exists {
			assigned[a.ItemID] = a.People
		}
	}

	// Initialize breakdowns for every registered person
	splits := make([]models.PersonBreakdown, 0, len(people))
	index := make(map[string]int, len(people))
	for _, p := range people {
		if _, exists := index[p]; exists {
			continue
		}
		index[p] = len(splits)
		splits = append(splits, models.PersonBreakdown{
			Person:    p,
			Breakdown: models.Breakdown{Items: []models.ItemShare{}},
		})
	}

	overallSubtotal := receipt.Subtotal()
	taxAmount := receipt.Tax
	tipAmount := TipAmount(tip, overallSubtotal)

	var unassignedSubtotal float64
	for _, item := range receipt.Items {
		itemPeople := assigned[item.ID]
		if len(itemPeople) == 0 {
			unassignedSubtotal += item.Price
			continue
		}

		// Split item among assigned people
		splitCount := len(itemPeople)
		share := item.Price / float64(splitCount)
		for _, person := range itemPeople {
			i, exists := index[person]
			if !exists {
				// Keep the money accounted for even if the registry missed someone
				i = len(splits)
				index[person] = i
				splits = append(splits, models.PersonBreakdown{
					Person:    person,
					Breakdown: models.Breakdown{Items: []models.ItemShare{}},
				})
			}
			splits[i].Subtotal += share
			splits[i].Items = append(splits[i].Items, models.ItemShare{
				Name:       item.Name,
				Share:      share,
				SplitCount: splitCount,
			})
		}
	}

	// Apply proportional tax and tip and calculate totals
	for i := range splits {
		apportion(&splits[i].Breakdown, overallSubtotal, taxAmount, tipAmount, receipt.ItemsIncludeTax)
	}

	alloc := &models.Allocation{
		People:          splits,
		Subtotal:        overallSubtotal,
		Tax:             taxAmount,
		Tip:             tipAmount,
		Total:           overallSubtotal + taxIncluded(taxAmount, receipt.ItemsIncludeTax) + tipAmount,
		ItemsIncludeTax: receipt.ItemsIncludeTax,
	}

	if unassignedSubtotal > 0 {
		unassigned := &models.Breakdown{
			Subtotal: unassignedSubtotal,
			Items:    []models.ItemShare{},
		}
		apportion(unassigned, overallSubtotal, taxAmount, tipAmount, receipt.ItemsIncludeTax)
		alloc.Unassigned = unassigned
	}

	return alloc
}

// apportion fills in tax, tip and total from the breakdown's subtotal.
func apportion(b *models.Breakdown, overallSubtotal, taxAmount, tipAmount float64, itemsIncludeTax bool) {
	if overallSubtotal > 0 {
		proportion := b.Subtotal / overallSubtotal
		b.Tax = taxAmount * proportion
		b.Tip = tipAmount * proportion
	}
	b.Total = b.Subtotal + taxIncluded(b.Tax, itemsIncludeTax) + b.Tip
}

// taxIncluded returns the part of tax that is added on top of item prices.
func taxIncluded(tax float64, itemsIncludeTax bool) float64 {
	if itemsIncludeTax {
		return 0
	}
	return tax
}
