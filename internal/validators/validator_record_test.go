package validators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/models"
)

func TestValidateCurrency(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	valid := models.Currency{ID: "cur-eur", Code: "EUR", Name: "Euro", DecimalDigits: 2}

	tests := []struct {
		name    string
		in      models.Currency
		wantErr error
	}{
		{name: "valid", in: valid},
		{name: "missing id", in: models.Currency{Code: "EUR", Name: "Euro"}, wantErr: ErrMissingRecordID},
		{name: "missing code", in: models.Currency{ID: "x", Name: "Euro"}, wantErr: ErrMissingCode},
		{name: "missing name", in: models.Currency{ID: "x", Code: "EUR"}, wantErr: ErrMissingName},
		{
			name:    "too many decimal digits",
			in:      models.Currency{ID: "x", Code: "EUR", Name: "Euro", DecimalDigits: 9},
			wantErr: ErrNegativeDigits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateCategory(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	self := "cat-1"

	tests := []struct {
		name    string
		in      models.Category
		wantErr error
	}{
		{name: "valid expense", in: models.Category{ID: "cat-1", Name: "Food", Kind: "expense"}},
		{name: "valid income", in: models.Category{ID: "cat-2", Name: "Salary", Kind: "income"}},
		{name: "bad kind", in: models.Category{ID: "cat-1", Name: "Food", Kind: "misc"}, wantErr: ErrInvalidKind},
		{
			name:    "own parent",
			in:      models.Category{ID: "cat-1", Name: "Food", Kind: "expense", ParentID: &self},
			wantErr: ErrSelfParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateAccount(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	err := v.Validate(ctx, models.Account{ID: "acc-1", Name: "Checking", CurrencyID: "cur-eur", Kind: "bank"})
	require.NoError(t, err)

	err = v.Validate(ctx, models.Account{ID: "acc-1", Name: "Checking", Kind: "bank"})
	assert.ErrorIs(t, err, ErrMissingCurrencyID)

	err = v.Validate(ctx, models.Account{ID: "acc-1", Name: "Checking", CurrencyID: "cur-eur", Kind: "crypto"})
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestValidateBudget(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	valid := models.Budget{ID: "bud-1", CategoryID: "cat-1", CurrencyID: "cur-eur", Month: "2026-03"}
	require.NoError(t, v.Validate(ctx, valid))

	tests := []struct {
		name  string
		month string
	}{
		{name: "missing", month: ""},
		{name: "month thirteen", month: "2026-13"},
		{name: "with day", month: "2026-03-12"},
		{name: "no zero padding", month: "2026-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := valid
			bad.Month = tt.month
			assert.ErrorIs(t, v.Validate(ctx, bad), ErrInvalidMonth)
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	occurred := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, v.Validate(ctx, models.Transaction{
		ID: "tx-1", AccountID: "acc-1", OccurredAt: occurred,
	}))

	assert.ErrorIs(t,
		v.Validate(ctx, models.Transaction{ID: "tx-1", OccurredAt: occurred}),
		ErrMissingAccountID)

	assert.ErrorIs(t,
		v.Validate(ctx, models.Transaction{ID: "tx-1", AccountID: "acc-1"}),
		ErrMissingOccurredAt)
}

func TestValidate_RecordDelegatesToPayload(t *testing.T) {
	v := NewRecordValidator()

	err := v.Validate(context.Background(), models.Record{
		ID:      "acc-1",
		Table:   models.TableAccounts,
		Payload: models.Account{ID: "acc-1", Name: "Checking", CurrencyID: "cur-eur", Kind: "bank"},
	})
	assert.NoError(t, err)
}

func TestValidate_UnsupportedType(t *testing.T) {
	v := NewRecordValidator()
	assert.ErrorIs(t, v.Validate(context.Background(), 42), ErrUnsupportedType)
}
