package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireRecord_MarshalFlattensEnvelopeAndPayload(t *testing.T) {
	rec := WireRecord{
		ID:      "acc-1",
		Version: 7,
		Payload: Account{
			ID:             "acc-1",
			Name:           "Checking",
			CurrencyID:     "cur-eur",
			Kind:           "bank",
			OpeningBalance: 1500,
		},
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(out, &flat))

	// envelope and payload columns live side by side in one object
	assert.Equal(t, "acc-1", flat["id"])
	assert.Equal(t, float64(7), flat["version"])
	assert.Nil(t, flat["deleted_at"])
	assert.Equal(t, "Checking", flat["name"])
	assert.Equal(t, float64(1500), flat["opening_balance"])
	assert.NotContains(t, flat, "payload")
}

func TestDecodeWireRecord_RoundTrip(t *testing.T) {
	deleted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	original := WireRecord{
		ID:        "cur-eur",
		Version:   3,
		DeletedAt: &deleted,
		Payload:   Currency{ID: "cur-eur", Code: "EUR", Name: "Euro", Symbol: "€", DecimalDigits: 2},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := DecodeWireRecord(TableCurrencies, raw)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Version, decoded.Version)
	require.NotNil(t, decoded.DeletedAt)
	assert.True(t, decoded.DeletedAt.Equal(deleted))
	assert.Equal(t, original.Payload, decoded.Payload)
}

func TestDecodeWireRecord_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		data  string
	}{
		{name: "missing id", table: TableCurrencies, data: `{"version":1,"code":"EUR"}`},
		{name: "unknown table", table: Table("ledgers"), data: `{"id":"x","version":1}`},
		{name: "fractional amount", table: TableAccounts, data: `{"id":"acc-1","version":1,"opening_balance":99.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeWireRecord(tt.table, []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeWireRecords_FirstFailureAbortsPage(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"id":"cur-1","version":1,"code":"EUR"}`),
		json.RawMessage(`{"version":2,"code":"USD"}`), // no id
		json.RawMessage(`{"id":"cur-3","version":3,"code":"GBP"}`),
	}

	records, err := DecodeWireRecords(TableCurrencies, raw)

	require.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "record 1")
}
