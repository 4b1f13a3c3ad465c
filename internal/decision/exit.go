package decision

import (
	"riptide/internal/model"
	"riptide/internal/types"
)

// ExitEvaluator scans open positions against live prices and emits at most
// one CloseAction per position per tick. Trigger priority is fixed:
// stop-loss, then take-profit, then regime reversal. Checking the stop first
// is a deliberate capital-preservation bias.
type ExitEvaluator struct{}

func NewExitEvaluator() *ExitEvaluator {
	return &ExitEvaluator{}
}

// Evaluate walks the open positions. Positions without a current price or
// with missing stop/target fields are skipped, not errored.
func (e *ExitEvaluator) Evaluate(positions []types.Position, prices map[string]float64, regimes map[string]model.Regime) []types.CloseAction {
	var actions []types.CloseAction
	for _, pos := range positions {
		price, ok := prices[pos.Pair]
		if !ok || price <= 0 || pos.EntryPrice <= 0 {
			continue
		}
		if action, ok := e.check(pos, price, regimes); ok {
			actions = append(actions, action)
		}
	}
	return actions
}

func (e *ExitEvaluator) check(pos types.Position, price float64, regimes map[string]model.Regime) (types.CloseAction, bool) {
	if pos.StopLossPct > 0 {
		slPrice := stopLossPrice(pos.EntryPrice, pos.StopLossPct)
		if decimalLTE(price, slPrice) {
			return types.CloseAction{
				PositionID: pos.ID,
				Pair:       pos.Pair,
				Reason:     types.CloseStopLoss,
				ExitPrice:  price,
			}, true
		}
	}
	if pos.TakeProfitPct > 0 {
		tpPrice := takeProfitPrice(pos.EntryPrice, pos.TakeProfitPct)
		if decimalGTE(price, tpPrice) {
			return types.CloseAction{
				PositionID: pos.ID,
				Pair:       pos.Pair,
				Reason:     types.CloseTakeProfit,
				ExitPrice:  price,
			}, true
		}
	}
	if label, ok := regimes[pos.Pair]; ok && label == model.RegimeNoTrade {
		return types.CloseAction{
			PositionID: pos.ID,
			Pair:       pos.Pair,
			Reason:     types.CloseRegimeChange,
			ExitPrice:  price,
		}, true
	}
	return types.CloseAction{}, false
}
