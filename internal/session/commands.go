package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mmynk/tabsplit/internal/assignment"
	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/render"
	"github.com/mmynk/tabsplit/internal/sharecodec"
)

const helpText = `Commands:
  scan <image>          scan a receipt photo or PDF (replaces the current one)
  add <name>            add a person (at most 50)
  select <name>         select the person item toggles apply to
  toggle <n> [name]     toggle item n for name, or for the selected person
  remove <n> <name>     take name off item n
  tip [n% | amount]     show or set the tip
  say <instruction>     e.g. "Alex and Sam shared the pizza"
  show                  receipt, assignments and everybody's share
  share <name>          share link and message for name
  view <link | token>   open a shared breakdown
  settle [payer]        totals rounded to cents, and who owes the payer
  help                  this text
  quit
`

// Run reads commands from in until EOF or quit. Command errors are printed
// and do not stop the session.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		if err := s.Execute(ctx, scanner.Text()); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

// Execute runs a single command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
		return nil
	case "scan":
		return s.scanFile(ctx, rest)
	case "add":
		return s.addPerson(rest)
	case "select":
		if !s.view.Select(s.store, rest) {
			return fmt.Errorf("unknown person %q", rest)
		}
		fmt.Fprintf(s.out, "Selected %s\n", rest)
		return nil
	case "toggle":
		return s.toggle(rest)
	case "remove":
		return s.remove(rest)
	case "tip":
		return s.setTip(rest)
	case "say":
		response, err := s.Interpret(ctx, rest)
		if err != nil {
			return err
		}
		if response != "" {
			fmt.Fprintln(s.out, response)
		}
		return s.show()
	case "show":
		return s.show()
	case "share":
		link, message, err := s.Share(rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s\n\n%s\n", message, link)
		return nil
	case "view":
		return s.viewShared(rest)
	case "settle":
		return s.settle(rest)
	case "help", "?":
		fmt.Fprint(s.out, helpText)
		return nil
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("%w: %q (try help)", ErrUnknownCommand, verb)
	}
}

// ScanFile reads an image from disk and scans it.
func (s *Session) ScanFile(ctx context.Context, path string) error {
	return s.scanFile(ctx, path)
}

func (s *Session) scanFile(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("usage: scan <image>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	fmt.Fprintln(s.out, "Scanning receipt...")
	if err := s.Scan(ctx, data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Found %d items. Add people with: add <name>\n", len(s.receipt.Items))
	return s.show()
}

func (s *Session) addPerson(name string) error {
	if s.receipt == nil {
		return ErrNoReceipt
	}
	if s.view.AddPerson(s.store, name) {
		fmt.Fprintf(s.out, "Added %s\n", strings.TrimSpace(name))
	} else {
		fmt.Fprintf(s.out, "Not added: %q is empty, already present or the table is full (%d)\n", name, assignment.MaxPeople)
	}
	return nil
}

// item resolves a 1-based item number.
func (s *Session) item(arg string) (models.ReceiptItem, error) {
	if s.receipt == nil {
		return models.ReceiptItem{}, ErrNoReceipt
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.receipt.Items) {
		return models.ReceiptItem{}, fmt.Errorf("no item %q: use a number from 1 to %d", arg, len(s.receipt.Items))
	}
	return s.receipt.Items[n-1], nil
}

func (s *Session) toggle(args string) error {
	num, person, _ := strings.Cut(args, " ")
	item, err := s.item(num)
	if err != nil {
		return err
	}
	person = strings.TrimSpace(person)
	if person == "" {
		person = s.view.Selected
	}
	if person == "" {
		return errors.New("nobody selected: use select <name> or toggle <n> <name>")
	}
	if !s.store.ToggleAssignment(item.ID, person) {
		return fmt.Errorf("unknown person %q", person)
	}
	return s.show()
}

func (s *Session) remove(args string) error {
	num, person, _ := strings.Cut(args, " ")
	item, err := s.item(num)
	if err != nil {
		return err
	}
	s.store.RemovePersonFromItem(item.ID, strings.TrimSpace(person))
	return s.show()
}

func (s *Session) setTip(arg string) error {
	switch {
	case arg == "":
	case strings.HasSuffix(arg, "%"):
		s.tip = models.TipConfiguration{
			Mode:            models.TipPercentage,
			PercentageValue: calculator.ParseAmount(strings.TrimSuffix(arg, "%")),
		}
	default:
		s.tip = models.TipConfiguration{Mode: models.TipAmount, AmountValue: arg}
	}

	var subtotal float64
	currency := ""
	if s.receipt != nil {
		subtotal = s.receipt.Subtotal()
		currency = s.receipt.Currency
	}
	amount := calculator.TipAmount(s.tip, subtotal)
	if s.tip.Mode == models.TipAmount {
		fmt.Fprintf(s.out, "Tip: %s\n", render.Amount(currency, amount))
	} else {
		fmt.Fprintf(s.out, "Tip: %s%% (%s)\n", strconv.FormatFloat(s.tip.PercentageValue, 'f', -1, 64), render.Amount(currency, amount))
	}
	return nil
}

func (s *Session) show() error {
	if s.receipt == nil {
		return ErrNoReceipt
	}
	render.Receipt(s.out, s.receipt, s.store.Assignments())
	fmt.Fprintln(s.out)
	render.Allocation(s.out, s.receipt.Currency, s.Allocation())
	return nil
}

// viewShared renders a shared breakdown. A link or token that does not decode
// means there is nothing shared to show.
func (s *Session) viewShared(arg string) error {
	token := arg
	if t, ok := sharecodec.TokenFromURL(arg); ok {
		token = t
	}
	shared, err := sharecodec.Decode(token)
	if err != nil {
		fmt.Fprintln(s.out, "No shared receipt in that link.")
		return nil
	}
	render.Shared(s.out, *shared)
	return nil
}

func (s *Session) settle(payer string) error {
	if s.receipt == nil {
		return ErrNoReceipt
	}
	if payer != "" && !s.store.HasPerson(payer) {
		return fmt.Errorf("unknown person %q", payer)
	}

	symbol := render.CurrencySymbol(s.receipt.Currency)
	settlements := calculator.Settle(s.Allocation())
	for _, st := range settlements {
		name := st.Person
		if name == "" {
			name = "(unassigned)"
		}
		fmt.Fprintf(s.out, "  %-20s %s %s\n", name, symbol, st.Amount.StringFixed(2))
	}
	if payer == "" {
		return nil
	}
	fmt.Fprintln(s.out)
	for _, t := range calculator.Transfers(settlements, payer) {
		fmt.Fprintf(s.out, "  %s owes %s %s %s\n", t.From, t.To, symbol, t.Amount.StringFixed(2))
	}
	return nil
}
