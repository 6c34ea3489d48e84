package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Assignment says who a line item's cost belongs to.
type Assignment string

const (
	// AssignedShared splits the item evenly between both members.
	AssignedShared Assignment = "shared"
	// AssignedMemberOne assigns the full item cost to user_1.
	AssignedMemberOne Assignment = Assignment(MemberOne)
	// AssignedMemberTwo assigns the full item cost to user_2.
	AssignedMemberTwo Assignment = Assignment(MemberTwo)
)

// Expense categories, assigned by the vision model or inferred from text.
const (
	CategorySupermarket   = "supermarket"
	CategoryBills         = "bills"
	CategoryTaxes         = "taxes"
	CategoryEntertainment = "entertainment"
	CategoryOther         = "other"
)

// Receipt represents an uploaded or manually entered expense.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string

	// HouseholdID is the household this receipt belongs to.
	HouseholdID string

	// UploadedBy is the member code of the member who paid and uploaded.
	UploadedBy MemberCode

	// ExpenseDate is the calendar date the expense occurred.
	ExpenseDate time.Time

	// Vendor is the merchant name, when known.
	Vendor string

	// Currency is an ISO-style code (e.g., "USD"). May be empty; the API
	// layer falls back to USD when every receipt in scope lacks one.
	Currency string

	// Category is one of the Category* constants.
	Category string

	// Subtotal, Tax, Tip, and Total are the stated receipt amounts. Each may
	// be absent; Total, items, and subtotal+tax+tip are tried in that order
	// when deriving the receipt's effective total.
	Subtotal decimal.NullDecimal
	Tax      decimal.NullDecimal
	Tip      decimal.NullDecimal
	Total    decimal.NullDecimal

	// Items are the ordered line items extracted or entered for the receipt.
	Items []LineItem

	// RawText is the raw text the vision model read off the receipt, or
	// free-form notes for manual expenses.
	RawText string

	// Saved marks a finalized receipt. Unsaved receipts are in-progress
	// analysis drafts and never participate in balances or settlements.
	Saved bool

	// SettledAt is the time the receipt was closed by a settlement, nil
	// while the receipt is still open.
	SettledAt *time.Time

	// UploadedAt is the time the receipt record was created.
	UploadedAt time.Time
}

// LineItem represents a single line on a receipt.
type LineItem struct {
	Name string `json:"name"`

	// Quantity and UnitPrice multiply into the item amount when TotalPrice
	// is absent.
	Quantity  decimal.NullDecimal `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`

	// TotalPrice is the stated price for the line, taking priority over
	// quantity times unit price.
	TotalPrice decimal.NullDecimal `json:"total_price"`

	// AssignedTo is who owes this item: user_1, user_2, or shared.
	AssignedTo Assignment `json:"assigned_to"`
}

// LooseItem is the wire shape of a line item before normalization: numeric
// fields may arrive as JSON numbers, strings, or junk, and the assignment
// may be missing. Receipts from the vision model and from API clients both
// pass through this shape exactly once.
type LooseItem struct {
	Name       string `json:"name"`
	Quantity   any    `json:"quantity"`
	UnitPrice  any    `json:"unit_price"`
	TotalPrice any    `json:"total_price"`
	AssignedTo string `json:"assigned_to"`
}

// Normalize coerces a loose item into a LineItem. Unusable numeric fields
// become absent, unknown assignments become shared.
func (l LooseItem) Normalize() LineItem {
	return NormalizeItems([]LineItem{{
		Name:       l.Name,
		Quantity:   ParseAmount(l.Quantity),
		UnitPrice:  ParseAmount(l.UnitPrice),
		TotalPrice: ParseAmount(l.TotalPrice),
		AssignedTo: Assignment(l.AssignedTo),
	}})[0]
}

// NormalizeLoose converts a batch of loose items.
func NormalizeLoose(items []LooseItem) []LineItem {
	normalized := make([]LineItem, 0, len(items))
	for _, item := range items {
		normalized = append(normalized, item.Normalize())
	}
	return normalized
}

// NormalizeItems returns a copy of items with every assignment coerced to a
// valid value. Unknown or empty assignments become shared, and unnamed items
// get a placeholder name. Items from the vision model pass through here
// before they are stored.
func NormalizeItems(items []LineItem) []LineItem {
	normalized := make([]LineItem, 0, len(items))
	for _, item := range items {
		switch item.AssignedTo {
		case AssignedShared, AssignedMemberOne, AssignedMemberTwo:
		default:
			item.AssignedTo = AssignedShared
		}
		if item.Name == "" {
			item.Name = "Item"
		}
		normalized = append(normalized, item)
	}
	return normalized
}

// NormalizeCategory coerces a category string to one of the allowed values.
func NormalizeCategory(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case CategorySupermarket, CategoryBills, CategoryTaxes, CategoryEntertainment, CategoryOther:
		return normalized
	}
	return CategoryOther
}
