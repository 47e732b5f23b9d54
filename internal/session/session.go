// Package session holds the state of one splitting session: the current
// receipt, its assignments, the tip and the view state. All mutations happen
// on the caller's goroutine, one command at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmynk/tabsplit/internal/assignment"
	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/render"
	"github.com/mmynk/tabsplit/internal/scanning"
	"github.com/mmynk/tabsplit/internal/sharecodec"
)

var (
	// ErrNoReceipt is returned by commands that need a scanned receipt.
	ErrNoReceipt = errors.New("no receipt scanned yet")
	// ErrUnknownCommand is returned for input that is not a command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrQuit is returned by the quit command.
	ErrQuit = errors.New("quit")
)

// Session is one interactive splitting session.
type Session struct {
	receipt *models.Receipt
	store   *assignment.Store
	view    assignment.ViewState
	tip     models.TipConfiguration

	extractor   scanning.Extractor
	interpreter scanning.Interpreter
	matcher     assignment.ItemMatcher

	// origin is used to build share links.
	origin string
	out    io.Writer
}

// New creates an empty session. interpreter may be nil, which disables "say".
func New(extractor scanning.Extractor, interpreter scanning.Interpreter, origin string, out io.Writer) *Session {
	return &Session{
		store:       assignment.NewStore(nil),
		tip:         models.TipConfiguration{Mode: models.TipPercentage},
		extractor:   extractor,
		interpreter: interpreter,
		matcher:     assignment.ExactMatcher,
		origin:      origin,
		out:         out,
	}
}

// Receipt returns the current receipt, or nil.
func (s *Session) Receipt() *models.Receipt { return s.receipt }

// Store returns the assignment store.
func (s *Session) Store() *assignment.Store { return s.store }

// View returns the view state.
func (s *Session) View() *assignment.ViewState { return &s.view }

// Tip returns the tip configuration.
func (s *Session) Tip() models.TipConfiguration { return s.tip }

// SetTip replaces the tip configuration.
func (s *Session) SetTip(tip models.TipConfiguration) { s.tip = tip }

// Scan extracts a receipt from an image and loads it. On failure nothing
// changes: the previous receipt and its assignments stay in place.
func (s *Session) Scan(ctx context.Context, image []byte, mimeType string) error {
	receipt, err := s.extractor.ScanReceipt(ctx, image, mimeType)
	if err != nil {
		slog.Warn("Scan failed", "error", err)
		return fmt.Errorf("scan failed: %w", err)
	}
	s.Load(receipt)
	return nil
}

// Load adopts a receipt. Assignments, people and view state start over and
// the tip is seeded from the receipt's printed tip.
func (s *Session) Load(receipt *models.Receipt) {
	s.receipt = receipt
	s.store.Initialize(receipt.Items)
	s.view.Reset()
	s.tip = calculator.TipFromReceipt(receipt)
	slog.Debug("Receipt loaded", "items", len(receipt.Items), "tip_percent", s.tip.PercentageValue)
}

// Allocation runs the allocation engine on the current state.
func (s *Session) Allocation() *models.Allocation {
	return calculator.Allocate(s.receipt, s.store.Assignments(), s.store.People(), s.tip)
}

// Interpret sends a free-text instruction to the interpreter and applies the
// result. It returns the interpreter's confirmation.
func (s *Session) Interpret(ctx context.Context, message string) (string, error) {
	if s.receipt == nil {
		return "", ErrNoReceipt
	}
	if s.interpreter == nil {
		return "", errors.New("commands are not available without a model backend")
	}

	result, err := s.interpreter.InterpretCommand(ctx, message, models.CommandSnapshot{
		Items:       s.receipt.Items,
		People:      s.store.People(),
		Assignments: s.store.Assignments(),
	})
	if err != nil {
		return "", fmt.Errorf("interpreting command: %w", err)
	}

	updated := s.store.Apply(s.receipt.Items, *result, s.matcher)
	slog.Debug("Command applied", "updates", len(result.Assignments), "updated", updated)
	if s.view.Selected == "" {
		if people := s.store.People(); len(people) > 0 {
			s.view.Selected = people[0]
		}
	}
	return result.Response, nil
}

// Share builds the share link and message for one person.
func (s *Session) Share(person string) (link, message string, err error) {
	if s.receipt == nil {
		return "", "", ErrNoReceipt
	}
	breakdown, ok := s.Allocation().Person(person)
	if !ok {
		return "", "", fmt.Errorf("unknown person %q", person)
	}

	rec := sharecodec.NewRecord(s.receipt, person, *breakdown)
	token, err := sharecodec.Encode(rec)
	if err != nil {
		return "", "", fmt.Errorf("encoding share: %w", err)
	}
	return sharecodec.URL(s.origin, "/", token), render.ShareMessage(rec), nil
}
