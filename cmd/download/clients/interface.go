package clients

import (
	"context"
	"time"

	"github.com/quantbt/quantbt/internal/types"
)

// Downloader fetches OHLCV history for one symbol from an external provider.
type Downloader interface {
	// Download returns all bars for the symbol within [start, end] at the
	// given interval, in time order.
	Download(ctx context.Context, symbol string, start time.Time, end time.Time, interval types.Interval) ([]types.PriceBar, error)
}
