package strategy

import (
	"time"

	"github.com/quantbt/quantbt/internal/signal"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

// MACross trades moving-average crossovers using the EMA_Cross column from
// the signal pipeline: it buys when the short EMA crosses above the long EMA
// and sells when it crosses back below. An undefined column value means no
// signal for that date.
type MACross struct {
	quantity float64
}

// NewMACross creates a crossover strategy trading the given quantity per
// signal. The price table must have been through a signal.EMACross generator.
func NewMACross(quantity float64) (*MACross, error) {
	if quantity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "crossover quantity must be positive, got %f", quantity)
	}

	return &MACross{quantity: quantity}, nil
}

// Name implements Strategy.
func (m *MACross) Name() string {
	return "ma_cross"
}

type maCrossState struct {
	// lastCross remembers the last observed crossover state per symbol so
	// orders fire on transitions only.
	lastCross map[string]float64
}

// OnBar implements Strategy.
func (m *MACross) OnBar(date time.Time, slice types.Slice, state State) ([]types.Order, State, error) {
	previous := maCrossState{lastCross: map[string]float64{}}
	if existing, ok := state.(maCrossState); ok {
		previous = existing
	}

	next := maCrossState{lastCross: make(map[string]float64, len(previous.lastCross))}
	for symbol, cross := range previous.lastCross {
		next.lastCross[symbol] = cross
	}

	var orders []types.Order

	for _, symbol := range slice.Symbols() {
		bar, err := slice.Bar(symbol).Take()
		if err != nil {
			continue
		}

		crossOpt := bar.Indicator(signal.ColumnEMACross)
		if crossOpt.IsNone() {
			// Undefined indicator value: no signal for this date.
			continue
		}

		cross := crossOpt.Unwrap()

		last, seen := previous.lastCross[symbol]
		next.lastCross[symbol] = cross

		if !seen {
			continue
		}

		switch {
		case last == 0 && cross == 1:
			orders = append(orders, marketOrder(m.Name(), symbol, date, types.SideBuy, m.quantity, len(orders)))
		case last == 1 && cross == 0:
			orders = append(orders, marketOrder(m.Name(), symbol, date, types.SideSell, m.quantity, len(orders)))
		}
	}

	return orders, next, nil
}
