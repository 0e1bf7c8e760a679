package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrMissingRecordID   = errors.New("record id is required")
	ErrMissingCode       = errors.New("currency code is required")
	ErrMissingName       = errors.New("name is required")
	ErrMissingCurrencyID = errors.New("currency id is required")
	ErrMissingAccountID  = errors.New("account id is required")
	ErrMissingCategoryID = errors.New("category id is required")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrInvalidMonth      = errors.New("month must be in YYYY-MM format")
	ErrMissingOccurredAt = errors.New("occurred_at is required")
	ErrNegativeDigits    = errors.New("decimal digits must be between 0 and 8")
	ErrSelfParent        = errors.New("category cannot be its own parent")
)
