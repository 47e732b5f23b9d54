package calculator

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/mmynk/tabsplit/internal/models"
)

func receiptOf(tax float64, itemsIncludeTax bool, prices ...float64) *models.Receipt {
	r := &models.Receipt{Tax: tax, Currency: "EUR", ItemsIncludeTax: itemsIncludeTax}
	for i, p := range prices {
		r.Items = append(r.Items, models.ReceiptItem{
			ID:    fmt.Sprintf("item-%d", i),
			Name:  fmt.Sprintf("Item %d", i),
			Price: p,
		})
	}
	return r
}

func percent(rate float64) models.TipConfiguration {
	return models.TipConfiguration{Mode: models.TipPercentage, PercentageValue: rate}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name         string
		receipt      *models.Receipt
		assignments  []models.Assignment
		people       []string
		tip          models.TipConfiguration
		validateFunc func(t *testing.T, alloc *models.Allocation)
	}{
		{
			name:    "item split three ways",
			receipt: receiptOf(0, false, 9.00),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice", "Bob", "Charlie"}},
			},
			people: []string{"Alice", "Bob", "Charlie"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				for _, p := range alloc.People {
					if p.Items[0].Share != 3.00 {
						t.Errorf("%s share = %v, want 3.00", p.Person, p.Items[0].Share)
					}
					if p.Items[0].SplitCount != 3 {
						t.Errorf("%s splitCount = %d, want 3", p.Person, p.Items[0].SplitCount)
					}
				}
			},
		},
		{
			name:    "item split two ways",
			receipt: receiptOf(0, false, 9.00),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice", "Bob"}},
			},
			people: []string{"Alice", "Bob"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				for _, p := range alloc.People {
					if p.Items[0].Share != 4.50 {
						t.Errorf("%s share = %v, want 4.50", p.Person, p.Items[0].Share)
					}
				}
			},
		},
		{
			name:    "proportional tax and tip",
			receipt: receiptOf(8, false, 25, 75),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice"}},
				{ItemID: "item-1", People: []string{"Bob"}},
			},
			people: []string{"Alice", "Bob"},
			tip:    percent(20),
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				// Alice: proportion 0.25 -> tax 2, tip 5, total 32
				alice, _ := alloc.Person("Alice")
				if !approx(alice.Tax, 2) {
					t.Errorf("Alice tax = %v, want 2.00", alice.Tax)
				}
				if !approx(alice.Tip, 5) {
					t.Errorf("Alice tip = %v, want 5.00", alice.Tip)
				}
				if !approx(alice.Total, 32) {
					t.Errorf("Alice total = %v, want 32.00", alice.Total)
				}
				if !approx(alloc.Total, 128) {
					t.Errorf("calculated total = %v, want 128", alloc.Total)
				}
			},
		},
		{
			name:    "items include tax",
			receipt: receiptOf(8, true, 25, 75),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice"}},
				{ItemID: "item-1", People: []string{"Bob"}},
			},
			people: []string{"Alice", "Bob"},
			tip:    percent(20),
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				alice, _ := alloc.Person("Alice")
				if !approx(alice.Tax, 2) {
					t.Errorf("Alice tax = %v, want 2.00 (still reported)", alice.Tax)
				}
				if !approx(alice.Total, 30) {
					t.Errorf("Alice total = %v, want 30.00", alice.Total)
				}
				if !approx(alloc.Total, 120) {
					t.Errorf("calculated total = %v, want 120", alloc.Total)
				}
			},
		},
		{
			name:    "zero subtotal has no tax or tip",
			receipt: receiptOf(5, false, 0, 0),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice"}},
				{ItemID: "item-1", People: []string{"Bob"}},
			},
			people: []string{"Alice", "Bob"},
			tip:    models.TipConfiguration{Mode: models.TipAmount, AmountValue: "10"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				for _, p := range alloc.People {
					if p.Tax != 0 || p.Tip != 0 {
						t.Errorf("%s tax/tip = %v/%v, want 0/0", p.Person, p.Tax, p.Tip)
					}
					if math.IsNaN(p.Total) {
						t.Errorf("%s total is NaN", p.Person)
					}
				}
			},
		},
		{
			name:    "unassigned item goes to the pool",
			receipt: receiptOf(3, false, 20, 10),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice"}},
				{ItemID: "item-1", People: []string{}},
			},
			people: []string{"Alice", "Bob"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				if alloc.Unassigned == nil {
					t.Fatal("expected unassigned breakdown")
				}
				if alloc.Unassigned.Subtotal != 10 {
					t.Errorf("unassigned subtotal = %v, want 10", alloc.Unassigned.Subtotal)
				}
				if !approx(alloc.Unassigned.Tax, 1) {
					t.Errorf("unassigned tax = %v, want 1", alloc.Unassigned.Tax)
				}
				bob, _ := alloc.Person("Bob")
				if bob.Subtotal != 0 || len(bob.Items) != 0 {
					t.Errorf("Bob should have nothing, got %+v", bob)
				}
				alice, _ := alloc.Person("Alice")
				if alice.Subtotal != 20 {
					t.Errorf("Alice subtotal = %v, want 20", alice.Subtotal)
				}
			},
		},
		{
			name:    "fully assigned has no unassigned breakdown",
			receipt: receiptOf(3, false, 20, 10),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice"}},
				{ItemID: "item-1", People: []string{"Alice", "Bob"}},
			},
			people: []string{"Alice", "Bob"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				if alloc.Unassigned != nil {
					t.Errorf("unassigned = %+v, want nil", alloc.Unassigned)
				}
			},
		},
		{
			name:    "item details follow receipt order",
			receipt: receiptOf(0, false, 1, 2, 3),
			assignments: []models.Assignment{
				{ItemID: "item-2", People: []string{"Alice"}},
				{ItemID: "item-0", People: []string{"Alice"}},
				{ItemID: "item-1", People: []string{"Alice"}},
			},
			people: []string{"Alice"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				alice, _ := alloc.Person("Alice")
				want := []string{"Item 0", "Item 1", "Item 2"}
				for i, item := range alice.Items {
					if item.Name != want[i] {
						t.Errorf("item %d = %s, want %s", i, item.Name, want[i])
					}
				}
			},
		},
		{
			name:    "registry order is kept",
			receipt: receiptOf(0, false, 4),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Zoe", "Adam"}},
			},
			people: []string{"Zoe", "Mia", "Adam"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				var names []string
				for _, p := range alloc.People {
					names = append(names, p.Person)
				}
				if !reflect.DeepEqual(names, []string{"Zoe", "Mia", "Adam"}) {
					t.Errorf("people = %v", names)
				}
			},
		},
		{
			name:    "assigned person missing from registry is still counted",
			receipt: receiptOf(0, false, 10),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Ghost"}},
			},
			people: nil,
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				ghost, ok := alloc.Person("Ghost")
				if !ok || ghost.Subtotal != 10 {
					t.Errorf("Ghost = %+v, %v", ghost, ok)
				}
			},
		},
		{
			name:    "malformed tip amount counts as zero",
			receipt: receiptOf(0, false, 10),
			assignments: []models.Assignment{
				{ItemID: "item-0", People: []string{"Alice"}},
			},
			people: []string{"Alice"},
			tip:    models.TipConfiguration{Mode: models.TipAmount, AmountValue: "ten bucks"},
			validateFunc: func(t *testing.T, alloc *models.Allocation) {
				if alloc.Tip != 0 {
					t.Errorf("tip = %v, want 0", alloc.Tip)
				}
				if alloc.Total != 10 {
					t.Errorf("total = %v, want 10", alloc.Total)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := Allocate(tt.receipt, tt.assignments, tt.people, tt.tip)
			if alloc == nil {
				t.Fatal("Allocate() returned nil")
			}
			assertConserved(t, alloc)
			if tt.validateFunc != nil {
				tt.validateFunc(t, alloc)
			}
		})
	}
}

func TestAllocate_NilReceipt(t *testing.T) {
	alloc := Allocate(nil, nil, []string{"Alice"}, percent(15))
	if len(alloc.People) != 0 || alloc.Unassigned != nil || alloc.Total != 0 {
		t.Errorf("expected empty allocation, got %+v", alloc)
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	r := receiptOf(4.37, false, 12.99, 7.45, 3.10, 21.00, 0.99)
	assignments := []models.Assignment{
		{ItemID: "item-0", People: []string{"Alice", "Bob", "Charlie"}},
		{ItemID: "item-1", People: []string{"Bob"}},
		{ItemID: "item-2", People: []string{}},
		{ItemID: "item-3", People: []string{"Charlie", "Alice"}},
		{ItemID: "item-4", People: []string{"Alice", "Bob", "Charlie"}},
	}
	people := []string{"Alice", "Bob", "Charlie"}

	first := Allocate(r, assignments, people, percent(18))
	second := Allocate(r, assignments, people, percent(18))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Allocate() is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestAllocate_Conservation(t *testing.T) {
	people := []string{"Alice", "Bob", "Charlie", "Diana"}
	prices := []float64{10.00, 3.33, 17.49, 0.01, 99.99, 5.50, 8.25}

	for mask := 0; mask < 64; mask++ {
		for _, includeTax := range []bool{false, true} {
			r := receiptOf(7.77, includeTax, prices...)
			var assignments []models.Assignment
			for i, item := range r.Items {
				var itemPeople []string
				for j, p := range people {
					if (mask+i*7+j*3)%(j+2) == 0 {
						itemPeople = append(itemPeople, p)
					}
				}
				assignments = append(assignments, models.Assignment{ItemID: item.ID, People: itemPeople})
			}

			alloc := Allocate(r, assignments, people, percent(float64(mask%30)))
			assertConserved(t, alloc)

			amountAlloc := Allocate(r, assignments, people, models.TipConfiguration{Mode: models.TipAmount, AmountValue: "12.34"})
			assertConserved(t, amountAlloc)
		}
	}
}

func assertConserved(t *testing.T, alloc *models.Allocation) {
	t.Helper()
	if alloc.Subtotal == 0 {
		// Nothing to apportion tax and tip against
		return
	}
	var sum float64
	for _, p := range alloc.People {
		sum += p.Total
	}
	if alloc.Unassigned != nil {
		sum += alloc.Unassigned.Total
	}
	if !approx(sum, alloc.Total) {
		t.Errorf("sum of totals = %v, calculated total = %v", sum, alloc.Total)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.50", 12.50},
		{" 3 ", 3},
		{"4,75", 4.75},
		{"", 0},
		{"abc", 0},
		{"-5", 0},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tt := range tests {
		if got := ParseAmount(tt.in); got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTipFromReceipt(t *testing.T) {
	r := receiptOf(0, false, 40, 60)
	r.Tip = 15
	tip := TipFromReceipt(r)
	if tip.Mode != models.TipPercentage {
		t.Errorf("mode = %s, want percentage", tip.Mode)
	}
	if !approx(tip.PercentageValue, 15) {
		t.Errorf("rate = %v, want 15", tip.PercentageValue)
	}

	if got := TipFromReceipt(receiptOf(0, false, 0)); got.PercentageValue != 0 {
		t.Errorf("zero subtotal rate = %v, want 0", got.PercentageValue)
	}
}
