package validators

import (
	"context"
	"regexp"

	"github.com/ledgerkeep/ledgerkeep/models"
)

const (
	FieldID         = "id"
	FieldCode       = "code"
	FieldName       = "name"
	FieldKind       = "kind"
	FieldParentID   = "parent_id"
	FieldCurrencyID = "currency_id"
	FieldAccountID  = "account_id"
	FieldCategoryID = "category_id"
	FieldMonth      = "month"
	FieldOccurredAt = "occurred_at"
	FieldDigits     = "decimal_digits"
)

var (
	categoryKinds = []string{"income", "expense"}
	accountKinds  = []string{"cash", "bank", "card"}

	monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// RecordValidator enforces the structural rules every record must satisfy
// before it is allowed on the wire or into a repository: non-empty ids,
// required intra-domain references, closed kind sets and a well-formed
// budget month. Monetary precision is not checked here; fractional values
// never survive [models.Amount] decoding in the first place.
type RecordValidator struct {
}

func NewRecordValidator() Validator {
	return &RecordValidator{}
}

func (v *RecordValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Record:
		return v.Validate(ctx, value.Payload, fields...)

	case models.Currency:
		return v.validateCurrency(value, fields...)
	case *models.Currency:
		return v.validateCurrency(*value, fields...)

	case models.Category:
		return v.validateCategory(value, fields...)
	case *models.Category:
		return v.validateCategory(*value, fields...)

	case models.Account:
		return v.validateAccount(value, fields...)
	case *models.Account:
		return v.validateAccount(*value, fields...)

	case models.Budget:
		return v.validateBudget(value, fields...)
	case *models.Budget:
		return v.validateBudget(*value, fields...)

	case models.Transaction:
		return v.validateTransaction(value, fields...)
	case *models.Transaction:
		return v.validateTransaction(*value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func (v *RecordValidator) validateCurrency(c models.Currency, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldCode, FieldName, FieldDigits}
	}

	for _, f := range fields {
		switch f {
		case FieldID:
			if c.ID == "" {
				return ErrMissingRecordID
			}
		case FieldCode:
			if c.Code == "" {
				return ErrMissingCode
			}
		case FieldName:
			if c.Name == "" {
				return ErrMissingName
			}
		case FieldDigits:
			if c.DecimalDigits < 0 || c.DecimalDigits > 8 {
				return ErrNegativeDigits
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateCategory(c models.Category, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldName, FieldKind, FieldParentID}
	}

	for _, f := range fields {
		switch f {
		case FieldID:
			if c.ID == "" {
				return ErrMissingRecordID
			}
		case FieldName:
			if c.Name == "" {
				return ErrMissingName
			}
		case FieldKind:
			if !oneOf(c.Kind, categoryKinds) {
				return ErrInvalidKind
			}
		case FieldParentID:
			if c.ParentID != nil && *c.ParentID == c.ID {
				return ErrSelfParent
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateAccount(a models.Account, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldName, FieldCurrencyID, FieldKind}
	}

	for _, f := range fields {
		switch f {
		case FieldID:
			if a.ID == "" {
				return ErrMissingRecordID
			}
		case FieldName:
			if a.Name == "" {
				return ErrMissingName
			}
		case FieldCurrencyID:
			if a.CurrencyID == "" {
				return ErrMissingCurrencyID
			}
		case FieldKind:
			if !oneOf(a.Kind, accountKinds) {
				return ErrInvalidKind
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateBudget(b models.Budget, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldCategoryID, FieldCurrencyID, FieldMonth}
	}

	for _, f := range fields {
		switch f {
		case FieldID:
			if b.ID == "" {
				return ErrMissingRecordID
			}
		case FieldCategoryID:
			if b.CategoryID == "" {
				return ErrMissingCategoryID
			}
		case FieldCurrencyID:
			if b.CurrencyID == "" {
				return ErrMissingCurrencyID
			}
		case FieldMonth:
			if !monthRe.MatchString(b.Month) {
				return ErrInvalidMonth
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateTransaction(t models.Transaction, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldAccountID, FieldOccurredAt}
	}

	for _, f := range fields {
		switch f {
		case FieldID:
			if t.ID == "" {
				return ErrMissingRecordID
			}
		case FieldAccountID:
			if t.AccountID == "" {
				return ErrMissingAccountID
			}
		case FieldOccurredAt:
			if t.OccurredAt.IsZero() {
				return ErrMissingOccurredAt
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
