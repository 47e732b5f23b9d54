// Package models defines the core domain models for Tabsplit.
//
// # Receipt Models
//
// The following models describe a scanned bill:
//   - Receipt: the structured data extracted from a receipt photo
//   - ReceiptItem: individual line items on a receipt
//   - Assignment: the set of people sharing one item
//
// People are identified by name strings (no user accounts).
//
// # Derived Models
//
// Breakdowns are never stored. They are recomputed from a Receipt, its
// Assignments, the person registry and a TipConfiguration every time they are
// needed:
//   - Breakdown: subtotal, tax, tip and total for one person or the unassigned pool
//   - Allocation: every breakdown of a bill plus the bill-level totals
//   - SharedBreakdown: one person's breakdown plus the receipt metadata needed
//     to render it without any other state
//
// # Design Principles
//
//  1. **Plain data**: models carry no behavior beyond small accessors
//  2. **Receipt order**: slices keep receipt / registry order so output renders deterministically
//  3. **No rounding**: amounts are float64 and are only rounded when displayed or settled
package models
