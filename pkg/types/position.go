package types

import (
	"encoding/json"
	"fmt"
)

// ActionType is the closed set of operation kinds a sequence can contain.
type ActionType int

const (
	ActionBuy ActionType = iota
	ActionSell
)

// String returns the wire name of the action ("buy" or "sell").
func (a ActionType) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	default:
		return fmt.Sprintf("ActionType(%d)", int(a))
	}
}

// IsValid reports whether a is one of the two known actions.
func (a ActionType) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// MarshalJSON encodes the action as its wire name.
func (a ActionType) MarshalJSON() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("unknown action type %d", int(a))
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes "buy"/"sell" into an ActionType.
func (a *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "buy":
		*a = ActionBuy
	case "sell":
		*a = ActionSell
	default:
		return fmt.Errorf("unknown action type %q", s)
	}
	return nil
}

// Operation is one step of a trading sequence: act at Price, sizing the
// order as SizeRatio of the relevant base (equity for buys, position for
// sells). SizeRatio is in (0, 1].
type Operation struct {
	Price     float64    `json:"price"`
	Type      ActionType `json:"type"`
	SizeRatio float64    `json:"size_ratio"`
}

// InitialState describes the leveraged position before any operation runs.
type InitialState struct {
	Equity float64 `json:"equity"`
	Qty    float64 `json:"qty"`
	Entry  float64 `json:"entry"`
	Price  float64 `json:"price"`
}

// OperationResult is the position snapshot after one executed operation.
// LiqPrice is 0 when the evaluator has no liquidation data for the step.
type OperationResult struct {
	Price      float64    `json:"price"`
	Type       ActionType `json:"type"`
	Equity     float64    `json:"equity"`
	Qty        float64    `json:"qty"`
	Entry      float64    `json:"entry"`
	LiqPrice   float64    `json:"liq_price"`
	RiskBuffer float64    `json:"risk_buffer"`
	QtyChange  float64    `json:"qty_change"`
}

// EvaluationResult is what a PositionEvaluator reports back for a sequence.
// FinalPrice defaults to the starting price when the sequence is empty.
type EvaluationResult struct {
	FinalEquity   float64           `json:"final_equity"`
	FinalQty      float64           `json:"final_qty"`
	FinalEntry    float64           `json:"final_entry"`
	FinalPrice    float64           `json:"final_price"`
	InitialEquity float64           `json:"initial_equity"`
	Operations    []OperationResult `json:"operations"`
}

// MaxLiqPrice returns the highest liquidation price observed across the
// executed operations, or 0 when no step reported one.
func (r *EvaluationResult) MaxLiqPrice() float64 {
	max := 0.0
	for _, op := range r.Operations {
		if op.LiqPrice > max {
			max = op.LiqPrice
		}
	}
	return max
}

// PositionEvaluator simulates an ordered operation sequence against a
// starting position and reports the resulting equity and risk metrics.
// Implementations must be pure: identical inputs yield identical outputs.
type PositionEvaluator func(operations []Operation, state InitialState) (*EvaluationResult, error)
