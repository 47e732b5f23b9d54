package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/tabsplit/internal/models"
)

// fallbackCurrency is used when the model cannot tell the currency.
const fallbackCurrency = "€"

// number accepts a JSON number or a numeric string ("12,50", "$3.00").
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		n.value, n.set = v, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a number, got %s", data)
	}
	s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "$€£¥₹₩ "))
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", s)
	}
	n.value, n.set = v, true
	return nil
}

type rawItem struct {
	Name  *string `json:"name"`
	Price number  `json:"price"`
}

type rawReceipt struct {
	RestaurantName  *string   `json:"restaurantName"`
	Date            *string   `json:"date"`
	Items           []rawItem `json:"items"`
	Tax             number    `json:"tax"`
	Tip             number    `json:"tip"`
	Total           number    `json:"total"`
	Currency        *string   `json:"currency"`
	ItemsIncludeTax *bool     `json:"itemsIncludeTax"`
}

type rawUpdate struct {
	ItemName *string  `json:"itemName"`
	People   []string `json:"people"`
	Action   string   `json:"action"`
}

type rawCommand struct {
	Assignments *[]rawUpdate `json:"assignments"`
	NewPeople   []string     `json:"newPeople"`
	Response    *string      `json:"response"`
}

// extractJSON strips markdown fences and any prose around the outermost
// JSON object.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return "", fmt.Errorf("%w: unterminated JSON object", ErrMalformedResponse)
	}
	return text[start : end+1], nil
}

// parseReceiptJSON validates model output against the receipt schema.
// Items, total and itemsIncludeTax are required; tip and tax default to 0
// and currency to "€". Items get ids "item-<index>" in extraction order.
func parseReceiptJSON(text string) (*models.Receipt, error) {
	text, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var raw rawReceipt
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(raw.Items) == 0 {
		return nil, ErrNoItems
	}
	if !raw.Total.set {
		return nil, fmt.Errorf("%w: missing total", ErrMalformedResponse)
	}
	if raw.ItemsIncludeTax == nil {
		return nil, fmt.Errorf("%w: missing itemsIncludeTax", ErrMalformedResponse)
	}

	receipt := &models.Receipt{
		RestaurantName:  trimmed(raw.RestaurantName),
		Date:            trimmed(raw.Date),
		Items:           make([]models.ReceiptItem, 0, len(raw.Items)),
		Tax:             raw.Tax.value,
		Tip:             raw.Tip.value,
		Total:           raw.Total.value,
		Currency:        trimmed(raw.Currency),
		ItemsIncludeTax: *raw.ItemsIncludeTax,
	}
	if receipt.Currency == "" {
		receipt.Currency = fallbackCurrency
	}

	for i, item := range raw.Items {
		if item.Name == nil {
			return nil, fmt.Errorf("%w: item %d has no name", ErrMalformedResponse, i)
		}
		if !item.Price.set {
			return nil, fmt.Errorf("%w: item %d has no price", ErrMalformedResponse, i)
		}
		receipt.Items = append(receipt.Items, models.ReceiptItem{
			ID:    fmt.Sprintf("item-%d", i),
			Name:  strings.TrimSpace(*item.Name),
			Price: item.Price.value,
		})
	}

	for name, v := range map[string]float64{"tax": receipt.Tax, "tip": receipt.Tip, "total": receipt.Total} {
		if !nonNegative(v) {
			return nil, fmt.Errorf("%w: invalid %s %v", ErrMalformedResponse, name, v)
		}
	}
	for _, item := range receipt.Items {
		if !nonNegative(item.Price) {
			return nil, fmt.Errorf("%w: invalid price %v for %q", ErrMalformedResponse, item.Price, item.Name)
		}
	}

	return receipt, nil
}

// parseCommandJSON validates model output against the command schema.
// Updates without an item name or with an unknown action are dropped.
func parseCommandJSON(text string) (*models.CommandResult, error) {
	text, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var raw rawCommand
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Assignments == nil {
		return nil, fmt.Errorf("%w: missing assignments", ErrMalformedResponse)
	}

	result := &models.CommandResult{
		Assignments: make([]models.AssignmentUpdate, 0, len(*raw.Assignments)),
		NewPeople:   nonEmpty(raw.NewPeople),
		Response:    trimmed(raw.Response),
	}
	for _, u := range *raw.Assignments {
		action := models.CommandAction(strings.ToLower(strings.TrimSpace(u.Action)))
		switch action {
		case models.ActionAdd, models.ActionRemove, models.ActionSet:
		default:
			continue
		}
		if name := trimmed(u.ItemName); name != "" {
			result.Assignments = append(result.Assignments, models.AssignmentUpdate{
				ItemName: name,
				People:   nonEmpty(u.People),
				Action:   action,
			})
		}
	}
	return result, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
