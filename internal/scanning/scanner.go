// Package scanning is the boundary to the vision and language models that
// extract receipts from photos and interpret free-text assignment commands.
//
// Every adapter hands the raw model output to the same parse functions, which
// coerce it into the strict internal schema. Nothing past this package sees an
// untyped payload.
package scanning

import (
	"context"
	"errors"

	"github.com/mmynk/tabsplit/internal/models"
)

var (
	// ErrNoItems is returned when a receipt was read but no line items were found.
	ErrNoItems = errors.New("no items found on receipt")
	// ErrMalformedResponse is returned when the model output does not fit the schema.
	ErrMalformedResponse = errors.New("malformed model response")
)

// Extractor turns a receipt image into a Receipt.
type Extractor interface {
	// ScanReceipt analyzes a receipt image or PDF. A failed scan returns no
	// receipt at all.
	ScanReceipt(ctx context.Context, image []byte, mimeType string) (*models.Receipt, error)
}

// Interpreter turns a free-text instruction into assignment updates.
type Interpreter interface {
	InterpretCommand(ctx context.Context, message string, snapshot models.CommandSnapshot) (*models.CommandResult, error)
}

// Scanner is a model backend that can do both.
type Scanner interface {
	Extractor
	Interpreter
	// Close releases the backend's resources.
	Close() error
}
