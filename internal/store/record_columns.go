package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ledgerkeep/ledgerkeep/models"
)

// recordColumns lists every table's payload columns in the order the bind and
// scan helpers below expect. The envelope columns (version, deleted_at and,
// locally, sync_status/updated_at) are appended by the individual queries.
var recordColumns = map[models.Table][]string{
	models.TableCurrencies:   {"id", "code", "name", "symbol", "decimal_digits"},
	models.TableCategories:   {"id", "name", "kind", "parent_id", "icon"},
	models.TableAccounts:     {"id", "name", "currency_id", "kind", "opening_balance", "is_archived"},
	models.TableBudgets:      {"id", "category_id", "currency_id", "month", "amount"},
	models.TableTransactions: {"id", "account_id", "category_id", "amount", "occurred_at", "note"},
}

// payloadColumns returns the payload column list for table.
func payloadColumns(table models.Table) ([]string, error) {
	cols, ok := recordColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return cols, nil
}

// payloadArgs binds a payload's fields as SQL arguments in recordColumns
// order.
func payloadArgs(p models.Payload) ([]any, error) {
	switch v := p.(type) {
	case models.Currency:
		return []any{v.ID, v.Code, v.Name, v.Symbol, v.DecimalDigits}, nil
	case models.Category:
		return []any{v.ID, v.Name, v.Kind, v.ParentID, v.Icon}, nil
	case models.Account:
		return []any{v.ID, v.Name, v.CurrencyID, v.Kind, v.OpeningBalance.Int64(), v.IsArchived}, nil
	case models.Budget:
		return []any{v.ID, v.CategoryID, v.CurrencyID, v.Month, v.Amount.Int64()}, nil
	case models.Transaction:
		return []any{v.ID, v.AccountID, v.CategoryID, v.Amount.Int64(), v.OccurredAt, v.Note}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTable, p)
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPayload reads one row whose leading columns are the table's payload
// columns, returning the decoded payload and leaving trailing envelope
// columns to the supplied extra destinations.
func scanPayload(table models.Table, row rowScanner, extra ...any) (models.Payload, error) {
	switch table {
	case models.TableCurrencies:
		var p models.Currency
		dest := append([]any{&p.ID, &p.Code, &p.Name, &p.Symbol, &p.DecimalDigits}, extra...)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		return p, nil

	case models.TableCategories:
		var p models.Category
		var parent sql.NullString
		dest := append([]any{&p.ID, &p.Name, &p.Kind, &parent, &p.Icon}, extra...)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		if parent.Valid {
			p.ParentID = &parent.String
		}
		return p, nil

	case models.TableAccounts:
		var p models.Account
		var balance int64
		dest := append([]any{&p.ID, &p.Name, &p.CurrencyID, &p.Kind, &balance, &p.IsArchived}, extra...)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		p.OpeningBalance = models.Amount(balance)
		return p, nil

	case models.TableBudgets:
		var p models.Budget
		var amount int64
		dest := append([]any{&p.ID, &p.CategoryID, &p.CurrencyID, &p.Month, &amount}, extra...)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		p.Amount = models.Amount(amount)
		return p, nil

	case models.TableTransactions:
		var p models.Transaction
		var category sql.NullString
		var amount int64
		dest := append([]any{&p.ID, &p.AccountID, &category, &amount, &p.OccurredAt, &p.Note}, extra...)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		if category.Valid {
			p.CategoryID = &category.String
		}
		p.Amount = models.Amount(amount)
		return p, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
}

// scanLocalRecord reads one local row laid out as payload columns followed by
// version, deleted_at, sync_status, updated_at.
func scanLocalRecord(table models.Table, row rowScanner) (models.Record, error) {
	var version int64
	var deletedAt sql.NullTime
	var status string
	var updatedAt time.Time

	payload, err := scanPayload(table, row, &version, &deletedAt, &status, &updatedAt)
	if err != nil {
		return models.Record{}, err
	}

	rec := models.Record{
		ID:        payload.RecordID(),
		Table:     table,
		Version:   version,
		Status:    models.SyncStatus(status),
		UpdatedAt: updatedAt,
		Payload:   payload,
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		rec.DeletedAt = &t
	}

	return rec, nil
}

// scanWireRecord reads one server row laid out as payload columns followed by
// version and deleted_at.
func scanWireRecord(table models.Table, row rowScanner) (models.WireRecord, error) {
	var version int64
	var deletedAt sql.NullTime

	payload, err := scanPayload(table, row, &version, &deletedAt)
	if err != nil {
		return models.WireRecord{}, err
	}

	rec := models.WireRecord{
		ID:      payload.RecordID(),
		Version: version,
		Payload: payload,
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		rec.DeletedAt = &t
	}

	return rec, nil
}
