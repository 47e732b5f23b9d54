// Package sharecodec turns one person's breakdown into a compact, URL-safe
// token and back.
//
// A token is the base64url encoding (no padding) of a JSON object with short
// keys:
//
//	p   person            st  subtotal
//	r   restaurant        tx  tax
//	d   date              tp  tip
//	c   currency          tt  total
//	i   items             it  itemsIncludeTax
//	i[].n name   i[].s share   i[].x splitCount
//
// Numbers use Go's shortest round-trip float formatting, so every float64
// survives Encode/Decode bit for bit.
package sharecodec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/tabsplit/internal/models"
)

var (
	// ErrMalformedToken is returned for tokens that are not a complete, valid encoding.
	ErrMalformedToken = errors.New("malformed share token")

	// ErrInvalidRecord is returned when a record cannot be encoded.
	ErrInvalidRecord = errors.New("invalid share record")
)

var encoding = base64.RawURLEncoding.Strict()

var (
	recordKeys = keySet("p", "r", "d", "c", "i", "st", "tx", "tp", "tt", "it")
	itemKeys   = keySet("n", "s", "x")
)

func keySet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

type wireItem struct {
	Name       *string  `json:"n"`
	Share      *float64 `json:"s"`
	SplitCount *int     `json:"x"`
}

type wireRecord struct {
	Person          *string    `json:"p"`
	Restaurant      string     `json:"r,omitempty"`
	Date            string     `json:"d,omitempty"`
	Currency        *string    `json:"c"`
	Items           []wireItem `json:"i"`
	Subtotal        *float64   `json:"st"`
	Tax             *float64   `json:"tx"`
	Tip             *float64   `json:"tp"`
	Total           *float64   `json:"tt"`
	ItemsIncludeTax *bool      `json:"it"`
}

// Encode serializes a shared breakdown into a token containing only
// [A-Za-z0-9_-]. Strings must be valid UTF-8.
func Encode(rec models.SharedBreakdown) (string, error) {
	for _, s := range []string{rec.Person, rec.Restaurant, rec.Date, rec.Currency} {
		if !utf8.ValidString(s) {
			return "", fmt.Errorf("%w: invalid UTF-8 in %q", ErrInvalidRecord, s)
		}
	}
	wire := wireRecord{
		Person:          &rec.Person,
		Restaurant:      rec.Restaurant,
		Date:            rec.Date,
		Currency:        &rec.Currency,
		Items:           make([]wireItem, len(rec.Items)),
		Subtotal:        &rec.Subtotal,
		Tax:             &rec.Tax,
		Tip:             &rec.Tip,
		Total:           &rec.Total,
		ItemsIncludeTax: &rec.ItemsIncludeTax,
	}
	for i := range rec.Items {
		item := &rec.Items[i]
		if item.SplitCount < 1 {
			return "", fmt.Errorf("%w: item %q has split count %d", ErrInvalidRecord, item.Name, item.SplitCount)
		}
		if !utf8.ValidString(item.Name) {
			return "", fmt.Errorf("%w: invalid UTF-8 in item %q", ErrInvalidRecord, item.Name)
		}
		wire.Items[i] = wireItem{Name: &item.Name, Share: &item.Share, SplitCount: &item.SplitCount}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wire); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return encoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Decode parses a token produced by Encode. Padding is optional and the
// standard base64 alphabet is accepted too. Any token that does not decode to
// a complete record fails with ErrMalformedToken; a partial record is never
// returned.
func Decode(token string) (*models.SharedBreakdown, error) {
	token = strings.TrimSpace(token)
	token = strings.NewReplacer("+", "-", "/", "_").Replace(token)
	token = strings.TrimRight(token, "=")
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedToken)
	}

	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if err := checkKeys(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var wire wireRecord
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedToken)
	}

	return wire.expand()
}

// checkKeys rejects keys that encoding/json would otherwise accept loosely:
// other spellings of a key ("P" for "p") and repeated keys.
func checkKeys(raw []byte) error {
	fields, err := objectKeys(raw, recordKeys)
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(fields["i"], &items); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := objectKeys(item, itemKeys); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// objectKeys reads one JSON object and returns its values by key.
func objectKeys(raw []byte, allowed map[string]bool) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, errors.New("not an object")
	}
	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if !allowed[key] {
			return nil, fmt.Errorf("unknown key %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("repeated key %q", key)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// expand checks every required key and restores the long field names.
func (w *wireRecord) expand() (*models.SharedBreakdown, error) {
	if w.Person == nil || w.Currency == nil || w.Items == nil ||
		w.Subtotal == nil || w.Tax == nil || w.Tip == nil || w.Total == nil ||
		w.ItemsIncludeTax == nil {
		return nil, fmt.Errorf("%w: missing field", ErrMalformedToken)
	}

	rec := &models.SharedBreakdown{
		Person:          *w.Person,
		Restaurant:      w.Restaurant,
		Date:            w.Date,
		Currency:        *w.Currency,
		Items:           make([]models.ItemShare, len(w.Items)),
		Subtotal:        *w.Subtotal,
		Tax:             *w.Tax,
		Tip:             *w.Tip,
		Total:           *w.Total,
		ItemsIncludeTax: *w.ItemsIncludeTax,
	}
	for i, item := range w.Items {
		if item.Name == nil || item.Share == nil || item.SplitCount == nil {
			return nil, fmt.Errorf("%w: item %d missing field", ErrMalformedToken, i)
		}
		if *item.SplitCount < 1 {
			return nil, fmt.Errorf("%w: item %d split count %d", ErrMalformedToken, i, *item.SplitCount)
		}
		rec.Items[i] = models.ItemShare{
			Name:       *item.Name,
			Share:      *item.Share,
			SplitCount: *item.SplitCount,
		}
	}
	return rec, nil
}
