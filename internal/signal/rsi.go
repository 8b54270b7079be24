package signal

import (
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

const (
	// ColumnRSI holds the relative strength index value in [0, 100].
	ColumnRSI = "RSI"
	// ColumnRSISignal is 1 at or below the oversold threshold (buy), -1 at or
	// above the overbought threshold (sell), 0 otherwise.
	ColumnRSISignal = "RSI_Signal"
)

// RSI appends the relative strength index over a rolling window of close-to-
// close changes, plus a threshold signal column. The first period rows are
// left undefined.
type RSI struct {
	period     int
	overbought float64
	oversold   float64
}

// NewRSI creates an RSI generator with the given period and thresholds.
func NewRSI(period int, overbought, oversold float64) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "RSI period must be positive, got %d", period)
	}

	if oversold >= overbought {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "RSI oversold threshold %.1f must be below overbought threshold %.1f", oversold, overbought)
	}

	return &RSI{
		period:     period,
		overbought: overbought,
		oversold:   oversold,
	}, nil
}

// Name implements Generator.
func (r *RSI) Name() string {
	return columnWithPeriod(ColumnRSI, r.period)
}

// Transform implements Generator.
func (r *RSI) Transform(table *types.PriceTable) (*types.PriceTable, error) {
	out := transformPerSymbol(table, func(out *types.PriceTable, symbol string, bars []types.PriceBar) {
		if len(bars) <= r.period {
			return
		}

		gains := make([]float64, len(bars))
		losses := make([]float64, len(bars))

		for i := 1; i < len(bars); i++ {
			delta := bars[i].Close - bars[i-1].Close
			if delta > 0 {
				gains[i] = delta
			} else {
				losses[i] = -delta
			}
		}

		var gainSum, lossSum float64

		for i := 1; i < len(bars); i++ {
			gainSum += gains[i]
			lossSum += losses[i]

			if i > r.period {
				gainSum -= gains[i-r.period]
				lossSum -= losses[i-r.period]
			}

			if i < r.period {
				continue
			}

			avgGain := gainSum / float64(r.period)
			avgLoss := lossSum / float64(r.period)

			rsi := 100.0
			if avgLoss > 0 {
				rs := avgGain / avgLoss
				rsi = 100.0 - 100.0/(1.0+rs)
			}

			out.SetIndicator(symbol, i, ColumnRSI, rsi)

			signal := 0.0

			switch {
			case rsi <= r.oversold:
				signal = 1.0
			case rsi >= r.overbought:
				signal = -1.0
			}

			out.SetIndicator(symbol, i, ColumnRSISignal, signal)
		}
	})

	return out, nil
}
