package position

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// Package position provides the reference cross-margin position
// evaluator. The optimizer only depends on the types.PositionEvaluator
// contract; this simulator is the default implementation wired by the
// CLI and the one used by the dashboard's planning views.

// DefaultLeverage is the margin leverage applied when none is configured.
const DefaultLeverage = 10.0

// Simulator executes a price-ascending operation sequence against a
// leveraged long position using isolated margin accounting: buys consume
// margin and merge into the weighted average entry, sells realize PnL
// and release margin.
type Simulator struct {
	leverage float64
}

// NewSimulator creates a simulator at the given margin leverage.
func NewSimulator(leverage float64) *Simulator {
	if leverage <= 0 {
		leverage = DefaultLeverage
	}
	return &Simulator{leverage: leverage}
}

// Evaluator adapts the simulator to the optimizer's evaluator contract.
func (s *Simulator) Evaluator() types.PositionEvaluator {
	return s.Run
}

// Run simulates the sequence and reports the resulting equity, position
// and per-operation risk metrics. Final equity is marked to the last
// operation price (or the starting price for an empty sequence).
func (s *Simulator) Run(operations []types.Operation, state types.InitialState) (*types.EvaluationResult, error) {
	equity := state.Equity
	qty := state.Qty
	entry := state.Entry

	// the starting position already holds margin
	if qty > 0 {
		equity -= qty * entry / s.leverage
	}

	results := make([]types.OperationResult, 0, len(operations))

	for _, op := range operations {
		if op.Price <= 0 {
			return nil, fmt.Errorf("operation price must be positive, got %.2f", op.Price)
		}

		var qtyChange float64
		switch op.Type {
		case types.ActionBuy:
			positionValue := equity * op.SizeRatio * s.leverage
			margin := positionValue / s.leverage
			bought := positionValue / op.Price

			if qty+bought > 0 {
				entry = (entry*qty + op.Price*bought) / (qty + bought)
			} else {
				entry = op.Price
			}
			qty += bought
			equity -= margin
			qtyChange = bought

		case types.ActionSell:
			if qty <= 0 {
				break
			}
			sold := qty * op.SizeRatio
			profit := (op.Price - entry) * sold
			marginReleased := sold * entry / s.leverage

			equity += profit + marginReleased
			qty -= sold
			qtyChange = -sold

		default:
			return nil, fmt.Errorf("unknown operation type %v", op.Type)
		}

		liqPrice, riskBuffer := longLiqPrice(equity, qty, entry, op.Price)

		results = append(results, types.OperationResult{
			Price:      op.Price,
			Type:       op.Type,
			Equity:     equity,
			Qty:        qty,
			Entry:      entry,
			LiqPrice:   liqPrice,
			RiskBuffer: riskBuffer,
			QtyChange:  qtyChange,
		})
	}

	finalPrice := state.Price
	if len(operations) > 0 {
		finalPrice = operations[len(operations)-1].Price
	}

	return &types.EvaluationResult{
		FinalEquity:   equity + qty*finalPrice,
		FinalQty:      qty,
		FinalEntry:    entry,
		FinalPrice:    finalPrice,
		InitialEquity: state.Equity,
		Operations:    results,
	}, nil
}

// longLiqPrice is the long-only liquidation estimate entry - equity/qty,
// floored at 0 (a negative value means the position cannot be
// liquidated by price alone). The risk buffer is the relative distance
// from the mark price down to liquidation, in percent.
func longLiqPrice(equity, qty, entry, markPrice float64) (liqPrice, riskBuffer float64) {
	if qty <= 0 || entry <= 0 {
		return 0, 100
	}
	liqPrice = math.Max(0, entry-equity/qty)
	riskBuffer = math.Max(0, (markPrice-liqPrice)/markPrice*100)
	return liqPrice, riskBuffer
}

// CrossLiqPrice computes the cross-margin liquidation price for a
// two-sided position the way the dashboard does. At the liquidation
// price P the wallet balance plus unrealized PnL equals the maintenance
// margin:
//
//	WB + (P-le)*lq + (se-P)*sq = (lq+sq) * P * mm
//
// Returns 0 when the denominator degenerates (fully hedged book).
func CrossLiqPrice(equity, longQty, longEntry, shortQty, shortEntry, mmRate, currentPrice float64) float64 {
	longPnL := (currentPrice - longEntry) * longQty
	shortPnL := (shortEntry - currentPrice) * shortQty
	walletBalance := equity - longPnL - shortPnL

	numerator := walletBalance - longEntry*longQty + shortEntry*shortQty
	denominator := (longQty+shortQty)*mmRate - (longQty - shortQty)

	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return math.Max(0, numerator/denominator)
}

// RiskBuffer is the percent distance between the current price and a
// liquidation price.
func RiskBuffer(currentPrice, liqPrice float64) float64 {
	if currentPrice <= 0 {
		return 0
	}
	return (currentPrice - liqPrice) / currentPrice * 100
}
