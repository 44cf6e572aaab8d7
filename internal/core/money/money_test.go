package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frahmantamala/household-ledger/internal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Money
		wantErr bool
	}{
		{name: "two fraction digits", input: "12.34", want: 1234},
		{name: "whole number", input: "10", want: 1000},
		{name: "one fraction digit", input: "0.5", want: 50},
		{name: "trailing zeros", input: "3.100", want: 310},
		{name: "negative", input: "-1.01", want: -101},
		{name: "three significant digits", input: "1.005", wantErr: true},
		{name: "not a number", input: "ten", wantErr: true},
		{name: "largest amount", input: "100000000000.00", want: Money(MaxCents)},
		{name: "one cent over the cap", input: "100000000000.01", wantErr: true},
		{name: "cents past int64", input: "184467440737095516.17", wantErr: true},
		{name: "far past int64", input: "100000000000000000000", wantErr: true},
		{name: "negative past the cap", input: "-100000000000.01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, internal.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "0.00", Zero.String())
	assert.Equal(t, "10.00", Money(1000).String())
	assert.Equal(t, "3.33", Money(333).String())
	assert.Equal(t, "-0.07", Money(-7).String())
}

func TestSignedRoundTrip(t *testing.T) {
	sum, sign := FromSigned(-250)
	assert.Equal(t, Money(250), sum)
	assert.Equal(t, SignNegative, sign)
	assert.Equal(t, int64(-250), Signed(sum, sign))

	sum, sign = FromSigned(0)
	assert.Equal(t, Zero, sum)
	assert.Equal(t, SignPositive, sign, "zero must be represented as +0")
}

func TestJSON(t *testing.T) {
	type payload struct {
		Amount Money `json:"amount"`
	}

	out, err := json.Marshal(payload{Amount: 1999})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"19.99"}`, string(out))

	var fromString payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"19.99"}`), &fromString))
	assert.Equal(t, Money(1999), fromString.Amount)

	var fromNumber payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":0.29}`), &fromNumber))
	assert.Equal(t, Money(29), fromNumber.Amount)

	var tooPrecise payload
	assert.Error(t, json.Unmarshal([]byte(`{"amount":0.291}`), &tooPrecise))
}

func TestJSONRejectsAmountsPastTheCap(t *testing.T) {
	var m Money
	assert.Error(t, json.Unmarshal([]byte(`184467440737095516.17`), &m))
	assert.Error(t, json.Unmarshal([]byte(`"92233720368547758.07"`), &m))
	assert.Equal(t, Zero, m)
}
