package signal

import (
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

const (
	// ColumnMACD holds the MACD line (fast EMA minus slow EMA).
	ColumnMACD = "MACD"
	// ColumnMACDSignal holds the signal line (EMA of the MACD line).
	ColumnMACDSignal = "MACD_Signal"
	// ColumnMACDHistogram holds MACD minus its signal line.
	ColumnMACDHistogram = "MACD_Histogram"
	// ColumnMACDCross is 1 while the MACD line is above its signal line, else 0.
	ColumnMACDCross = "MACD_Cross"
)

// MACD appends moving average convergence/divergence columns.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a MACD generator with the given fast, slow, and signal
// periods.
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) (*MACD, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "MACD periods must be positive, got %d/%d/%d", fastPeriod, slowPeriod, signalPeriod)
	}

	if fastPeriod >= slowPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "MACD fast period %d must be smaller than slow period %d", fastPeriod, slowPeriod)
	}

	return &MACD{
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
	}, nil
}

// Name implements Generator.
func (m *MACD) Name() string {
	return ColumnMACD
}

// Transform implements Generator.
func (m *MACD) Transform(table *types.PriceTable) (*types.PriceTable, error) {
	out := transformPerSymbol(table, func(out *types.PriceTable, symbol string, bars []types.PriceBar) {
		closes := make([]float64, len(bars))
		for i, bar := range bars {
			closes[i] = bar.Close
		}

		fast := ewma(closes, m.fastPeriod)
		slow := ewma(closes, m.slowPeriod)

		macd := make([]float64, len(bars))
		for i := range bars {
			macd[i] = fast[i] - slow[i]
		}

		signalLine := ewma(macd, m.signalPeriod)

		for i := range bars {
			out.SetIndicator(symbol, i, ColumnMACD, macd[i])
			out.SetIndicator(symbol, i, ColumnMACDSignal, signalLine[i])
			out.SetIndicator(symbol, i, ColumnMACDHistogram, macd[i]-signalLine[i])

			cross := 0.0
			if macd[i] > signalLine[i] {
				cross = 1.0
			}

			out.SetIndicator(symbol, i, ColumnMACDCross, cross)
		}
	})

	return out, nil
}
