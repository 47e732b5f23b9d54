package models

import "github.com/shopspring/decimal"

// Settlement is a breakdown total rounded to whole cents.
type Settlement struct {
	// Person is empty for the unassigned pool.
	Person string

	// Amount is the rounded amount owed, exact to two decimal places.
	Amount decimal.Decimal
}

// Transfer represents a payment one person owes to the person who paid the bill.
type Transfer struct {
	// From is the person who owes.
	From string

	// To is the person who paid the bill.
	To string

	Amount decimal.Decimal
}
