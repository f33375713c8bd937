package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	for _, input := range []string{"a_to_b", "A-TO-B", " a-to-b "} {
		got, err := ParseDirection(input)
		require.NoError(t, err, input)
		assert.Equal(t, AToB, got)
	}

	got, err := ParseDirection("b-to-a")
	require.NoError(t, err)
	assert.Equal(t, BToA, got)

	_, err = ParseDirection("sideways")
	require.Error(t, err)
}

func TestOperationOmitsSwapFieldsForLiquidity(t *testing.T) {
	op := Operation{
		ID:     "0f4c",
		Seq:    3,
		Kind:   KindAddLiquidity,
		Owner:  "0x1111111111111111111111111111111111111111",
		Amount: 500,
	}

	data, err := json.Marshal(op)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{"direction", "gross_out", "fee", "net_out", "min_amount_out"} {
		_, ok := decoded[key]
		assert.False(t, ok, "unexpected key %s", key)
	}
	assert.Equal(t, "add_liquidity", decoded["kind"])
}
