package models

// Receipt represents a scanned bill.
// It is created once from extraction and never mutated; a rescan replaces it
// wholesale.
type Receipt struct {
	// RestaurantName is the merchant printed on the receipt, if any.
	RestaurantName string `json:"restaurantName,omitempty"`

	// Date is the human-readable date printed on the receipt, if any.
	Date string `json:"date,omitempty"`

	// Items are the line items in receipt order.
	Items []ReceiptItem `json:"items"`

	// Tax is the tax amount printed on the receipt.
	Tax float64 `json:"tax"`

	// Tip is the tip printed on the receipt (0 when absent).
	Tip float64 `json:"tip"`

	// Total is the final amount printed on the receipt.
	// The engine does not use it; calculated totals come from the items.
	Total float64 `json:"total"`

	// Currency is an ISO code ("EUR") or a bare symbol ("€").
	Currency string `json:"currency"`

	// ItemsIncludeTax is true when item prices already embed tax.
	// Tax is then reported per person but never added to a total.
	ItemsIncludeTax bool `json:"itemsIncludeTax"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	// ID is unique within a receipt ("item-0", "item-1", ...).
	ID string `json:"id"`

	// Name is the item description (e.g., "Margherita", "House red").
	Name string `json:"name"`

	// Price is the non-negative price of the line.
	Price float64 `json:"price"`
}

// Subtotal returns the sum of all item prices in receipt order.
func (r *Receipt) Subtotal() float64 {
	var subtotal float64
	for _, item := range r.Items {
		subtotal += item.Price
	}
	return subtotal
}

// Item looks up an item by ID.
func (r *Receipt) Item(id string) (ReceiptItem, bool) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ReceiptItem{}, false
}

// Assignment is the set of people sharing one receipt item.
// An Assignment with no people marks the item as unassigned.
type Assignment struct {
	ItemID string   `json:"itemId"`
	People []string `json:"people"`
}

// TipMode selects how the tip is entered.
type TipMode string

const (
	TipPercentage TipMode = "percentage"
	TipAmount     TipMode = "amount"
)

// TipConfiguration describes the tip applied on top of the receipt.
// Only the value matching Mode is used.
type TipConfiguration struct {
	Mode TipMode `json:"mode"`

	// PercentageValue is a percent of the overall subtotal (typically 0-40, not clamped).
	PercentageValue float64 `json:"percentageValue"`

	// AmountValue is the raw user input for a fixed tip. Non-numeric or
	// negative input counts as 0.
	AmountValue string `json:"amountValue"`
}
