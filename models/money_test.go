package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr bool
	}{
		{name: "integer cents", input: `1500`, want: 1500},
		{name: "zero", input: `0`, want: 0},
		{name: "negative", input: `-250`, want: -250},
		{name: "fractional rejected", input: `10.5`, wantErr: true},
		{name: "tiny fraction rejected, never rounded", input: `100.000001`, wantErr: true},
		{name: "quoted string rejected", input: `"100"`, wantErr: true},
		{name: "null rejected", input: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			err := json.Unmarshal([]byte(tt.input), &a)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrFractionalAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestAmount_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Amount(1500))
	require.NoError(t, err)
	assert.Equal(t, `1500`, string(out))
}

func TestAmount_RejectionSurfacesThroughPayloadDecode(t *testing.T) {
	raw := `{"id":"acc-1","currency_id":"cur-1","name":"Checking","opening_balance":10.5}`

	var p Account
	err := json.Unmarshal([]byte(raw), &p)

	assert.ErrorIs(t, err, ErrFractionalAmount)
}
