package strategy

import (
	"time"

	"github.com/quantbt/quantbt/internal/signal"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

// RSIReversion is a mean-reversion strategy over the RSI_Signal column: it
// buys when a symbol becomes oversold and sells when it becomes overbought.
// At most one position is held per symbol at a time.
type RSIReversion struct {
	quantity float64
}

// NewRSIReversion creates an RSI mean-reversion strategy trading the given
// quantity per signal. The price table must have been through a signal.RSI
// generator.
func NewRSIReversion(quantity float64) (*RSIReversion, error) {
	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "RSI reversion quantity must be positive, got %f", quantity)
	}

	return &RSIReversion{quantity: quantity}, nil
}

// Name implements Strategy.
func (r *RSIReversion) Name() string {
	return "rsi_reversion"
}

type rsiReversionState struct {
	long map[string]bool
}

// OnBar implements Strategy.
func (r *RSIReversion) OnBar(date time.Time, slice types.Slice, state State) ([]types.Order, State, error) {
	previous := rsiReversionState{long: map[string]bool{}}
	if existing, ok := state.(rsiReversionState); ok {
		previous = existing
	}

	next := rsiReversionState{long: make(map[string]bool, len(previous.long))}
	for symbol, isLong := range previous.long {
		next.long[symbol] = isLong
	}

	var orders []types.Order

	for _, symbol := range slice.Symbols() {
		bar, err := slice.Bar(symbol).Take()
		if err != nil {
			continue
		}

		signalOpt := bar.Indicator(signal.ColumnRSISignal)
		if signalOpt.IsNone() {
			// Undefined indicator value: no signal for this date.
			continue
		}

		switch value := signalOpt.Unwrap(); {
		case value == 1 && !next.long[symbol]:
			orders = append(orders, marketOrder(r.Name(), symbol, date, types.SideBuy, r.quantity, len(orders)))
			next.long[symbol] = true
		case value == -1 && next.long[symbol]:
			orders = append(orders, marketOrder(r.Name(), symbol, date, types.SideSell, r.quantity, len(orders)))
			next.long[symbol] = false
		}
	}

	return orders, next, nil
}
