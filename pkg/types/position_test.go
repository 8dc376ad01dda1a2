package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActionType_String tests the wire names
func TestActionType_String(t *testing.T) {
	assert.Equal(t, "buy", ActionBuy.String())
	assert.Equal(t, "sell", ActionSell.String())
	assert.Equal(t, "ActionType(9)", ActionType(9).String())

	assert.True(t, ActionBuy.IsValid())
	assert.True(t, ActionSell.IsValid())
	assert.False(t, ActionType(9).IsValid())
}

// TestOperation_JSON tests operation serialization with named actions
func TestOperation_JSON(t *testing.T) {
	op := Operation{Price: 92_000.5, Type: ActionSell, SizeRatio: 0.25}

	data, err := json.Marshal(op)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":92000.5,"type":"sell","size_ratio":0.25}`, string(data))

	var decoded Operation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, op, decoded)

	// unknown actions are rejected both ways
	_, err = json.Marshal(Operation{Type: ActionType(9)})
	assert.Error(t, err)
	assert.Error(t, json.Unmarshal([]byte(`{"type":"hold"}`), &decoded))
}

// TestEvaluationResult_MaxLiqPrice tests the per-run liquidation maximum
func TestEvaluationResult_MaxLiqPrice(t *testing.T) {
	result := &EvaluationResult{
		Operations: []OperationResult{
			{LiqPrice: 40_000},
			{LiqPrice: 62_500},
			{LiqPrice: 0},
		},
	}
	assert.Equal(t, 62_500.0, result.MaxLiqPrice())

	empty := &EvaluationResult{}
	assert.Equal(t, 0.0, empty.MaxLiqPrice(), "no liquidation data reads as 0")
}
