package signal

import (
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

// ColumnSMA is the column prefix for simple moving average values; the full
// column name is SMA_<period>.
const ColumnSMA = "SMA"

// SMA appends a simple moving average of closing prices. Rows with fewer
// than period bars of history are left undefined.
type SMA struct {
	period int
}

// NewSMA creates an SMA generator over the given period.
func NewSMA(period int) (*SMA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "SMA period must be positive, got %d", period)
	}

	return &SMA{period: period}, nil
}

// Name implements Generator.
func (s *SMA) Name() string {
	return columnWithPeriod(ColumnSMA, s.period)
}

// Column returns the indicator column this generator writes.
func (s *SMA) Column() string {
	return columnWithPeriod(ColumnSMA, s.period)
}

// Transform implements Generator.
func (s *SMA) Transform(table *types.PriceTable) (*types.PriceTable, error) {
	column := s.Column()

	out := transformPerSymbol(table, func(out *types.PriceTable, symbol string, bars []types.PriceBar) {
		var sum float64

		for i, bar := range bars {
			sum += bar.Close
			if i >= s.period {
				sum -= bars[i-s.period].Close
			}

			if i >= s.period-1 {
				out.SetIndicator(symbol, i, column, sum/float64(s.period))
			}
		}
	})

	return out, nil
}
