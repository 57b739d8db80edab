package budget

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expendi/expendi-cli/internal/chain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  *big.Int
		ok    bool
	}{
		{"1", big.NewInt(1_000_000), true},
		{"0.5", big.NewInt(500_000), true},
		{"12.345678", big.NewInt(12_345_678), true},
		{"0.000001", big.NewInt(1), true},
		{"1000000", big.NewInt(1_000_000_000_000), true},
		{"0", nil, false},
		{"-5", nil, false},
		{"0.0000001", nil, false}, // more precision than USDC carries
		{"ten", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		if !tt.ok {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, 0, tt.want.Cmp(got), "input %q: want %s got %s", tt.input, tt.want, got)
	}
}

func TestFormatAmountRoundTrips(t *testing.T) {
	for _, s := range []string{"1", "0.5", "12.345678", "0.000001"} {
		parsed, err := ParseAmount(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatAmount(parsed))
	}
}

func TestFormatAmountNil(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(nil))
}

func TestWrapSubmitErrorDecodesRevertReason(t *testing.T) {
	// Error("fail") payload.
	data := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000004" +
		"6661696c00000000000000000000000000000000000000000000000000000000"

	err := wrapSubmitError("spend", &chain.RevertError{Message: "execution reverted", Data: data})
	require.Error(t, err)
	assert.Equal(t, KindContractReverted, KindOf(err))
	assert.Contains(t, err.Error(), "fail")
}

func TestWrapSubmitErrorKeepsClassification(t *testing.T) {
	inner := errInsufficientBucket("groceries", "40", "15")
	err := wrapSubmitError("spend", inner)
	assert.Equal(t, KindInsufficientBalance, KindOf(err))
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "budget-exceeded", KindBudgetExceeded.String())
	assert.Equal(t, "indexer-lag", KindIndexerLag.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
