// Package datasource retrieves price history and materializes it as a price
// table before a run begins. No data retrieval happens inside the date loop.
package datasource

import (
	"context"
	"time"

	"github.com/quantbt/quantbt/internal/types"
)

// PartialUniversePolicy decides what happens when some requested symbols have
// no price history.
type PartialUniversePolicy string

const (
	// PartialUniversePolicyAbort fails the fetch if any symbol is missing.
	// This is the default.
	PartialUniversePolicyAbort PartialUniversePolicy = "abort"
	// PartialUniversePolicySkip drops missing symbols and serves the rest.
	PartialUniversePolicySkip PartialUniversePolicy = "skip"
)

// DataSource fetches OHLCV history for a universe of symbols. A fetch that
// cannot supply the requested history fails with ErrCodeDataUnavailable,
// subject to the source's partial-universe policy.
type DataSource interface {
	// GetPrice returns all bars for the universe within [start, end],
	// materialized and ordered by date.
	GetPrice(ctx context.Context, universe []string, start time.Time, end time.Time, interval types.Interval) (*types.PriceTable, error)
}
