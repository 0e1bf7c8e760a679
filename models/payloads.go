package models

import "time"

// Payload is the closed set of table-specific record bodies. Every syncable
// record carries exactly one of the concrete types below; the wire codec and
// both stores dispatch on [Payload.Table] rather than passing records around
// as open maps of unknown fields.
type Payload interface {
	// Table names the syncable table the payload belongs to.
	Table() Table

	// RecordID returns the record's stable identifier.
	RecordID() string

	// Clone returns a deep copy so callers can snapshot a payload without
	// sharing pointer fields with the original.
	Clone() Payload
}

// Currency is a reference row describing a currency the user tracks.
type Currency struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	DecimalDigits int    `json:"decimal_digits"`
}

func (c Currency) Table() Table     { return TableCurrencies }
func (c Currency) RecordID() string { return c.ID }
func (c Currency) Clone() Payload   { return c }

// Category classifies transactions and budgets. ParentID references another
// category to form a hierarchy; the reference is intra-table and is not part
// of the table dependency graph.
type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"` // "income" or "expense"
	ParentID *string `json:"parent_id"`
	Icon     string  `json:"icon"`
}

func (c Category) Table() Table     { return TableCategories }
func (c Category) RecordID() string { return c.ID }

func (c Category) Clone() Payload {
	cp := c
	if c.ParentID != nil {
		parent := *c.ParentID
		cp.ParentID = &parent
	}
	return cp
}

// Account is a money container (wallet, bank account, card). CurrencyID is a
// required foreign key into currencies.
type Account struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CurrencyID     string `json:"currency_id"`
	Kind           string `json:"kind"` // "cash", "bank", "card"
	OpeningBalance Amount `json:"opening_balance"`
	IsArchived     bool   `json:"is_archived"`
}

func (a Account) Table() Table     { return TableAccounts }
func (a Account) RecordID() string { return a.ID }
func (a Account) Clone() Payload   { return a }

// Budget is a per-category spending limit for one calendar month.
// CategoryID and CurrencyID are required foreign keys.
type Budget struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	CurrencyID string `json:"currency_id"`
	Month      string `json:"month"` // "2026-08"
	Amount     Amount `json:"amount"`
}

func (b Budget) Table() Table     { return TableBudgets }
func (b Budget) RecordID() string { return b.ID }
func (b Budget) Clone() Payload   { return b }

// Transaction is a single ledger entry. AccountID is a required foreign key;
// CategoryID is optional (uncategorized entries are legal).
type Transaction struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	CategoryID *string   `json:"category_id"`
	Amount     Amount    `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
	Note       string    `json:"note"`
}

func (t Transaction) Table() Table     { return TableTransactions }
func (t Transaction) RecordID() string { return t.ID }

func (t Transaction) Clone() Payload {
	cp := t
	if t.CategoryID != nil {
		cat := *t.CategoryID
		cp.CategoryID = &cat
	}
	return cp
}

// NewPayload returns a zero value of the payload variant for table.
// The second return value is false for unknown tables.
func NewPayload(table Table) (Payload, bool) {
	switch table {
	case TableCurrencies:
		return Currency{}, true
	case TableCategories:
		return Category{}, true
	case TableAccounts:
		return Account{}, true
	case TableBudgets:
		return Budget{}, true
	case TableTransactions:
		return Transaction{}, true
	default:
		return nil, false
	}
}
