// Package signal implements the signal pipeline: an ordered sequence of
// generators that append derived indicator columns to a price table.
package signal

import (
	"fmt"
	"sync"

	"github.com/quantbt/quantbt/internal/logger"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
	"go.uber.org/zap"
)

// Generator adds indicator columns to a price table. Transform must return a
// new table with the same symbol/date keys as its input; it may add or
// overwrite indicator columns but never remove OHLCV columns or rows. Rows
// whose value cannot be computed (insufficient history) are left without the
// column, which downstream consumers read as the undefined sentinel.
type Generator interface {
	// Name identifies the generator in logs and pipeline errors.
	Name() string
	// Transform returns an augmented copy of the table.
	Transform(table *types.PriceTable) (*types.PriceTable, error)
}

// Pipeline applies generators in order. It is a pure transform: the input
// table is never mutated, so a pipeline is replayable across runs.
type Pipeline struct {
	generators []Generator
	logger     *logger.Logger
}

// NewPipeline creates a pipeline that applies the given generators in order.
func NewPipeline(log *logger.Logger, generators ...Generator) *Pipeline {
	return &Pipeline{
		generators: generators,
		logger:     log,
	}
}

// Apply runs every generator over the table in order and returns the
// augmented table. Fails if a generator errors or changes row identity.
func (p *Pipeline) Apply(table *types.PriceTable) (*types.PriceTable, error) {
	current := table

	for _, generator := range p.generators {
		next, err := generator.Transform(current)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeSignalFailed, err, "signal generator %q failed", generator.Name())
		}

		if !table.SameShape(next) {
			return nil, errors.Newf(errors.ErrCodeSignalRowMismatch, "signal generator %q changed row identity", generator.Name())
		}

		current = next

		p.logger.Debug("Applied signal generator",
			zap.String("generator", generator.Name()),
		)
	}

	return current, nil
}

// transformPerSymbol clones the table and applies compute to each symbol's
// series concurrently. Per-symbol series are disjoint so writes never
// overlap, and all results are materialized before return.
func transformPerSymbol(table *types.PriceTable, compute func(out *types.PriceTable, symbol string, bars []types.PriceBar)) *types.PriceTable {
	out := table.Clone()

	var wg sync.WaitGroup

	for _, symbol := range out.Symbols() {
		wg.Add(1)

		go func(symbol string) {
			defer wg.Done()
			compute(out, symbol, out.History(symbol))
		}(symbol)
	}

	wg.Wait()

	return out
}

// ewma computes an exponentially weighted moving average with
// alpha = 2/(period+1), seeded at the first value. Defined from index 0.
func ewma(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]

	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out
}

func columnWithPeriod(prefix string, period int) string {
	return fmt.Sprintf("%s_%d", prefix, period)
}
