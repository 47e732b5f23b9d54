package scanning

import (
	"encoding/json"
	"fmt"

	"github.com/mmynk/tabsplit/internal/models"
)

const systemPrompt = "You are an expert at reading restaurant bills and receipts. You carefully read all text in images and extract accurate information."

// receiptPrompt is shared by all providers.
const receiptPrompt = `Parse this receipt into a structured JSON format. Extract the restaurant name, the date, every line item with its price, the tax amount, the tip (if present), the total and the currency.

IMPORTANT: Determine if the line item prices already include tax. If they do, set "itemsIncludeTax" to true, set "tax" to the amount shown and make "total" the actual final amount on the bill. If the tax is listed separately and NOT included in item prices, set "itemsIncludeTax" to false and make "total" the sum of items + tax + tip. If the tip is not explicitly listed, set it to 0.

Return ONLY valid JSON in this exact format:
{
  "restaurantName": "Name",
  "date": "as printed on the receipt",
  "items": [{"name": "Item", "price": 0.00}],
  "tax": 0.00,
  "tip": 0.00,
  "total": 0.00,
  "currency": "EUR",
  "itemsIncludeTax": false
}

Important:
- Prices and amounts must be numbers, not strings
- List every item line separately, with its total price for the line
- "currency" is the ISO code (EUR, USD, GBP, ...) when you can tell
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// commandPrompt builds the prompt for interpreting an assignment command.
func commandPrompt(message string, snapshot models.CommandSnapshot) (string, error) {
	items, err := json.Marshal(snapshot.Items)
	if err != nil {
		return "", fmt.Errorf("marshaling items: %w", err)
	}
	people, err := json.Marshal(snapshot.People)
	if err != nil {
		return "", fmt.Errorf("marshaling people: %w", err)
	}
	assignments, err := json.Marshal(snapshot.Assignments)
	if err != nil {
		return "", fmt.Errorf("marshaling assignments: %w", err)
	}

	return fmt.Sprintf(`Current Items: %s
Current People: %s
Current Assignments: %s

User Command: %q

Instructions:
1. Identify which items the user is talking about. Match item names loosely and answer with the exact name from Current Items.
2. Identify which people are being assigned to those items.
3. If a new person is mentioned, add them to "newPeople".
4. Return a list of assignment updates. "set" replaces the people of an item, "add" and "remove" change them.
5. Write a short confirmation of what you did in "response".

Return ONLY valid JSON in this exact format:
{
  "assignments": [{"itemName": "Item", "people": ["Name"], "action": "add"}],
  "newPeople": ["Name"],
  "response": "Done!"
}`, items, people, assignments, message), nil
}
