package signal

import (
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

const (
	// ColumnEMA is the column prefix for exponential moving average values;
	// the full column name is EMA_<period>.
	ColumnEMA = "EMA"
	// ColumnEMACross is 1 while the short EMA is above the long EMA, else 0.
	ColumnEMACross = "EMA_Cross"
)

// EMACross appends short and long exponential moving averages of closing
// prices plus a crossover state column.
type EMACross struct {
	shortPeriod int
	longPeriod  int
}

// NewEMACross creates an EMA crossover generator. The short period must be
// strictly smaller than the long period.
func NewEMACross(shortPeriod, longPeriod int) (*EMACross, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "EMA periods must be positive, got %d and %d", shortPeriod, longPeriod)
	}

	if shortPeriod >= longPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "EMA short period %d must be smaller than long period %d", shortPeriod, longPeriod)
	}

	return &EMACross{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
	}, nil
}

// Name implements Generator.
func (e *EMACross) Name() string {
	return "EMA_Crossover"
}

// ShortColumn returns the short EMA column name.
func (e *EMACross) ShortColumn() string {
	return columnWithPeriod(ColumnEMA, e.shortPeriod)
}

// LongColumn returns the long EMA column name.
func (e *EMACross) LongColumn() string {
	return columnWithPeriod(ColumnEMA, e.longPeriod)
}

// Transform implements Generator.
func (e *EMACross) Transform(table *types.PriceTable) (*types.PriceTable, error) {
	shortColumn := e.ShortColumn()
	longColumn := e.LongColumn()

	out := transformPerSymbol(table, func(out *types.PriceTable, symbol string, bars []types.PriceBar) {
		closes := make([]float64, len(bars))
		for i, bar := range bars {
			closes[i] = bar.Close
		}

		short := ewma(closes, e.shortPeriod)
		long := ewma(closes, e.longPeriod)

		for i := range bars {
			out.SetIndicator(symbol, i, shortColumn, short[i])
			out.SetIndicator(symbol, i, longColumn, long[i])

			cross := 0.0
			if short[i] > long[i] {
				cross = 1.0
			}

			out.SetIndicator(symbol, i, ColumnEMACross, cross)
		}
	})

	return out, nil
}
