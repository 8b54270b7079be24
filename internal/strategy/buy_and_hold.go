package strategy

import (
	"time"

	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

// BuyAndHold buys a fixed quantity of every symbol on its first bar and never
// sells. It doubles as a market benchmark: run it against the same universe
// and compare equity curves.
type BuyAndHold struct {
	quantity float64
}

// NewBuyAndHold creates a buy-and-hold strategy that buys the given quantity
// of each symbol once.
func NewBuyAndHold(quantity float64) (*BuyAndHold, error) {
	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "buy-and-hold quantity must be positive, got %f", quantity)
	}

	return &BuyAndHold{quantity: quantity}, nil
}

// Name implements Strategy.
func (b *BuyAndHold) Name() string {
	return "buy_and_hold"
}

type buyAndHoldState struct {
	bought map[string]bool
}

// OnBar implements Strategy.
func (b *BuyAndHold) OnBar(date time.Time, slice types.Slice, state State) ([]types.Order, State, error) {
	previous := buyAndHoldState{bought: map[string]bool{}}
	if existing, ok := state.(buyAndHoldState); ok {
		previous = existing
	}

	next := buyAndHoldState{bought: make(map[string]bool, len(previous.bought))}
	for symbol := range previous.bought {
		next.bought[symbol] = true
	}

	var orders []types.Order

	for _, symbol := range slice.Symbols() {
		if next.bought[symbol] {
			continue
		}

		orders = append(orders, marketOrder(b.Name(), symbol, date, types.SideBuy, b.quantity, len(orders)))
		next.bought[symbol] = true
	}

	return orders, next, nil
}
