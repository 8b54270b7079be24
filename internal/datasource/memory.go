package datasource

import (
	"context"
	"time"

	"github.com/quantbt/quantbt/internal/logger"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

// InMemoryDataSource serves bars preloaded into memory. Used in tests and
// wherever the caller already holds the history.
type InMemoryDataSource struct {
	bars   []types.PriceBar
	policy PartialUniversePolicy
	logger *logger.Logger
}

// NewInMemory creates a data source over the given bars.
func NewInMemory(bars []types.PriceBar, policy PartialUniversePolicy, log *logger.Logger) *InMemoryDataSource {
	return &InMemoryDataSource{
		bars:   bars,
		policy: policy,
		logger: log,
	}
}

// GetPrice implements DataSource.
func (m *InMemoryDataSource) GetPrice(ctx context.Context, universe []string, start time.Time, end time.Time, interval types.Interval) (*types.PriceTable, error) {
	if len(universe) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidUniverse, "universe is empty")
	}

	wanted := make(map[string]bool, len(universe))
	for _, symbol := range universe {
		wanted[symbol] = true
	}

	seen := make(map[string]bool)

	var selected []types.PriceBar

	for _, bar := range m.bars {
		if !wanted[bar.Symbol] {
			continue
		}

		seen[bar.Symbol] = true

		if bar.Time.Before(start) || bar.Time.After(end) {
			continue
		}

		selected = append(selected, bar)
	}

	if err := checkUniverse(universe, seen, m.policy, m.logger); err != nil {
		return nil, err
	}

	if len(selected) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no price history between %s and %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return types.NewPriceTable(selected), nil
}
