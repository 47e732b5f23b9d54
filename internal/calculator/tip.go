package calculator

import (
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/tabsplit/internal/models"
)

// TipAmount resolves a tip configuration against the overall subtotal.
// Percentage mode yields subtotal × rate/100; amount mode yields the parsed
// amount. Unusable input degrades to 0, it never fails.
func TipAmount(tip models.TipConfiguration, overallSubtotal float64) float64 {
	switch tip.Mode {
	case models.TipAmount:
		return ParseAmount(tip.AmountValue)
	default:
		if !finite(tip.PercentageValue) {
			return 0
		}
		return overallSubtotal * (tip.PercentageValue / 100)
	}
}

// ParseAmount parses user-entered money. Empty, non-numeric, non-finite and
// negative input all count as 0. A decimal comma is accepted.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) || v < 0 {
		return 0
	}
	return v
}

// TipFromReceipt returns the tip configuration to start from after a scan:
// the receipt's printed tip expressed as a percentage of the subtotal.
func TipFromReceipt(receipt *models.Receipt) models.TipConfiguration {
	tip := models.TipConfiguration{Mode: models.TipPercentage}
	if receipt == nil {
		return tip
	}
	if subtotal := receipt.Subtotal(); subtotal > 0 {
		tip.PercentageValue = (receipt.Tip / subtotal) * 100
	}
	return tip
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
