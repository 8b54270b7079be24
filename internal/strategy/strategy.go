// Package strategy defines the decision-function contract the engine drives,
// plus the built-in strategies.
package strategy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantbt/quantbt/internal/types"
)

// State is the opaque value a strategy threads from call to call. It is owned
// exclusively by the strategy; the engine stores and passes it back without
// inspecting or mutating it. Strategies must return a fresh value rather than
// mutating the one they received, so a run can be replayed deterministically.
type State any

// Strategy converts the cross-section of one date into orders. OnBar must be
// a pure function of (date, slice, state): identical inputs always produce
// identical orders and next state. The slice never contains rows dated after
// the bar being processed.
type Strategy interface {
	// Name identifies the strategy in results and logs.
	Name() string
	// OnBar returns the orders for this date and the next strategy state.
	OnBar(date time.Time, slice types.Slice, state State) ([]types.Order, State, error)
}

// orderIDNamespace scopes deterministic order IDs minted by built-in
// strategies.
var orderIDNamespace = uuid.MustParse("5a1dbd44-79c7-42c6-91ff-0e1b4a6afcb6")

// OrderID derives a stable order ID from the strategy, symbol, date, and the
// order's sequence number within that date. Deterministic IDs keep OnBar a
// pure function of its inputs.
func OrderID(strategyName, symbol string, date time.Time, seq int) string {
	name := fmt.Sprintf("%s/%s/%d/%d", strategyName, symbol, date.UnixNano(), seq)

	return uuid.NewSHA1(orderIDNamespace, []byte(name)).String()
}

// marketOrder builds a market order with a deterministic ID.
func marketOrder(strategyName, symbol string, date time.Time, side types.Side, quantity float64, seq int) types.Order {
	return types.Order{
		ID:       OrderID(strategyName, symbol, date, seq),
		Symbol:   symbol,
		Time:     date,
		Side:     side,
		Quantity: quantity,
		Kind:     types.OrderKindMarket,
	}
}
