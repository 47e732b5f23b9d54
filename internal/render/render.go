// Package render formats receipts, allocations and shared breakdowns as plain
// text. Amounts are rounded to cents here and nowhere else.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/models"
)

var currencySymbols = map[string]string{
	"EUR": "€", "USD": "$", "GBP": "£", "JPY": "¥", "AUD": "A$", "CAD": "C$",
	"CHF": "Fr", "CNY": "¥", "INR": "₹", "KRW": "₩", "BRL": "R$", "MXN": "$",
}

var splitWords = map[int]string{
	2: "two", 3: "three", 4: "four", 5: "five", 6: "six", 7: "seven", 8: "eight",
}

// CurrencySymbol maps a currency code to its symbol. Unknown codes and bare
// symbols are returned as is; an empty code renders as "$".
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return sym
	}
	if code == "" {
		return "$"
	}
	return code
}

// SplitLabel describes how many people share an item.
func SplitLabel(count int) string {
	if word, ok := splitWords[count]; ok {
		return "split between " + word
	}
	return fmt.Sprintf("split between %d", count)
}

// Money formats an amount with two decimals, rounding half away from zero.
func Money(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0.00"
	}
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Amount formats an amount prefixed with the currency symbol.
func Amount(currency string, amount float64) string {
	return CurrencySymbol(currency) + " " + Money(amount)
}

// ShareMessage renders the text sent along with a share link.
func ShareMessage(rec models.SharedBreakdown) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hey %s! Here's your share%s:\n\n", rec.Person, restaurantSuffix(rec.Restaurant))
	for i, item := range rec.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  %s%s: %s", item.Name, splitSuffix(item.SplitCount), Amount(rec.Currency, item.Share))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  Subtotal: %s\n", Amount(rec.Currency, rec.Subtotal))
	fmt.Fprintf(&b, "  Tax: %s\n", Amount(rec.Currency, rec.Tax))
	fmt.Fprintf(&b, "  Tip: %s\n", Amount(rec.Currency, rec.Tip))
	b.WriteString("  ──────────────\n")
	fmt.Fprintf(&b, "  TOTAL: %s", Amount(rec.Currency, rec.Total))
	return b.String()
}

// ShareTitle is the title used when sharing a breakdown.
func ShareTitle(rec models.SharedBreakdown) string {
	return rec.Person + "'s bill" + restaurantSuffix(rec.Restaurant)
}

// Shared writes the read-only view of a shared breakdown.
func Shared(w io.Writer, rec models.SharedBreakdown) {
	title := "RECEIPT"
	if rec.Restaurant != "" {
		title = strings.ToUpper(rec.Restaurant)
	}
	fmt.Fprintln(w, title)
	if rec.Date != "" {
		fmt.Fprintln(w, rec.Date)
	}
	fmt.Fprintf(w, "FOR %s\n\n", strings.ToUpper(rec.Person))

	for _, item := range rec.Items {
		fmt.Fprintf(w, "  %-30s %12s\n", item.Name+splitSuffix(item.SplitCount), Amount(rec.Currency, item.Share))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-30s %12s\n", "SUBTOTAL", Amount(rec.Currency, rec.Subtotal))
	taxLabel := "TAX"
	if rec.ItemsIncludeTax {
		taxLabel = "TAX (INCLUDED)"
	}
	fmt.Fprintf(w, "  %-30s %12s\n", taxLabel, Amount(rec.Currency, rec.Tax))
	if rec.Tip > 0 {
		tipLabel := "TIP"
		if rec.Subtotal > 0 {
			rate := decimal.NewFromFloat(rec.Tip).Div(decimal.NewFromFloat(rec.Subtotal)).Shift(2).Round(0)
			tipLabel = "TIP (" + rate.String() + "%)"
		}
		fmt.Fprintf(w, "  %-30s %12s\n", tipLabel, Amount(rec.Currency, rec.Tip))
	}
	fmt.Fprintf(w, "  %-30s %12s\n", "TOTAL", Amount(rec.Currency, rec.Total))
}

// Receipt writes the receipt items with their current assignments.
func Receipt(w io.Writer, receipt *models.Receipt, assignments []models.Assignment) {
	if receipt.RestaurantName != "" {
		fmt.Fprintln(w, strings.ToUpper(receipt.RestaurantName))
	}
	if receipt.Date != "" {
		fmt.Fprintln(w, receipt.Date)
	}
	people := make(map[string][]string, len(assignments))
	for _, a := range assignments {
		people[a.ItemID] = a.People
	}
	for i, item := range receipt.Items {
		who := "unassigned"
		if p := people[item.ID]; len(p) > 0 {
			who = strings.Join(p, ", ")
		}
		fmt.Fprintf(w, "  %2d. %-28s %12s  [%s]\n", i+1, item.Name, Amount(receipt.Currency, item.Price), who)
	}
}

// Allocation writes every breakdown and the bill totals.
func Allocation(w io.Writer, currency string, alloc *models.Allocation) {
	for _, p := range alloc.People {
		fmt.Fprintf(w, "%s\n", p.Person)
		breakdown(w, currency, alloc.ItemsIncludeTax, p.Breakdown)
	}
	if alloc.Unassigned != nil {
		fmt.Fprintln(w, "Unassigned")
		breakdown(w, currency, alloc.ItemsIncludeTax, *alloc.Unassigned)
	}
	fmt.Fprintf(w, "SUBTOTAL %s  TAX %s  TIP %s  TOTAL %s\n",
		Amount(currency, alloc.Subtotal), Amount(currency, alloc.Tax),
		Amount(currency, alloc.Tip), Amount(currency, alloc.Total))
}

func breakdown(w io.Writer, currency string, itemsIncludeTax bool, b models.Breakdown) {
	for _, item := range b.Items {
		fmt.Fprintf(w, "    %-30s %12s\n", item.Name+splitSuffix(item.SplitCount), Amount(currency, item.Share))
	}
	tax := Amount(currency, b.Tax)
	if itemsIncludeTax {
		tax += " (incl.)"
	}
	fmt.Fprintf(w, "    subtotal %s  tax %s  tip %s  total %s\n",
		Amount(currency, b.Subtotal), tax, Amount(currency, b.Tip), Amount(currency, b.Total))
}

func restaurantSuffix(restaurant string) string {
	if restaurant == "" {
		return ""
	}
	return " at " + restaurant
}

func splitSuffix(count int) string {
	if count <= 1 {
		return ""
	}
	return " (" + SplitLabel(count) + ")"
}
