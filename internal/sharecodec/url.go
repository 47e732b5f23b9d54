package sharecodec

import (
	"net/url"
	"slices"
	"strings"

	"github.com/mmynk/tabsplit/internal/models"
)

// QueryParam is the query parameter that carries a share token.
const QueryParam = "share"

// fallbackCurrency is used when the receipt has no currency.
const fallbackCurrency = "$"

// NewRecord bundles a person's breakdown with the receipt metadata a
// recipient needs to read it. A nil receipt yields a record with the fallback
// currency and itemsIncludeTax false.
func NewRecord(receipt *models.Receipt, person string, b models.Breakdown) models.SharedBreakdown {
	rec := models.SharedBreakdown{
		Person:   person,
		Currency: fallbackCurrency,
		Items:    slices.Clone(b.Items),
		Subtotal: b.Subtotal,
		Tax:      b.Tax,
		Tip:      b.Tip,
		Total:    b.Total,
	}
	if rec.Items == nil {
		rec.Items = []models.ItemShare{}
	}
	if receipt != nil {
		rec.Restaurant = receipt.RestaurantName
		rec.Date = receipt.Date
		rec.ItemsIncludeTax = receipt.ItemsIncludeTax
		if receipt.Currency != "" {
			rec.Currency = receipt.Currency
		}
	}
	return rec
}

// URL builds <origin><path>?share=<token>. The token needs no escaping.
func URL(origin, path, token string) string {
	origin = strings.TrimSuffix(origin, "/")
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path + "?" + QueryParam + "=" + token
}

// TokenFromURL extracts the share token from a URL or a bare query string.
// It reports false when there is no share parameter.
func TokenFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	query := raw
	if u, err := url.Parse(raw); err == nil && (u.Scheme != "" || strings.Contains(raw, "?")) {
		query = u.RawQuery
	}
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return "", false
	}
	token := values.Get(QueryParam)
	return token, token != ""
}

// Parse extracts and decodes the token in a share URL. Any failure means
// there is no shared receipt to show.
func Parse(raw string) (*models.SharedBreakdown, error) {
	token, ok := TokenFromURL(raw)
	if !ok {
		return nil, ErrMalformedToken
	}
	return Decode(token)
}
