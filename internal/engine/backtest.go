// Package engine drives the simulation: one pass over the date calendar,
// strategy then broker then portfolio, one equity point per date.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/quantbt/quantbt/internal/broker"
	"github.com/quantbt/quantbt/internal/datasource"
	"github.com/quantbt/quantbt/internal/logger"
	"github.com/quantbt/quantbt/internal/portfolio"
	"github.com/quantbt/quantbt/internal/signal"
	"github.com/quantbt/quantbt/internal/strategy"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
	"go.uber.org/zap"
)

// Status is the lifecycle state of a Backtester.
type Status string

const (
	StatusConfigured Status = "CONFIGURED"
	StatusRunning    Status = "RUNNING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// OnBarCallback reports progress after each simulated date: the number of
// dates processed so far and the total.
type OnBarCallback func(processed int, total int)

// Backtester runs one backtest from configured components. A Backtester is
// single-use: Run moves it from Configured to Running and then to Completed
// or Failed, and it never returns to Configured.
type Backtester struct {
	config     RunConfig
	dataSource datasource.DataSource
	pipeline   *signal.Pipeline
	strategy   strategy.Strategy
	broker     broker.Broker
	logger     *logger.Logger
	status     Status
}

// NewBacktester validates the configuration and wires the components. All
// configuration errors surface here, before the run starts.
func NewBacktester(config RunConfig, source datasource.DataSource, pipeline *signal.Pipeline, strat strategy.Strategy, brk broker.Broker, log *logger.Logger) (*Backtester, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if source == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "data source is required")
	}

	if pipeline == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "signal pipeline is required")
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "strategy is required")
	}

	if brk == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "broker is required")
	}

	if log == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "logger is required")
	}

	return &Backtester{
		config:     config,
		dataSource: source,
		pipeline:   pipeline,
		strategy:   strat,
		broker:     brk,
		logger:     log,
		status:     StatusConfigured,
	}, nil
}

// Status returns the lifecycle state.
func (b *Backtester) Status() Status {
	return b.status
}

// runState is the accumulator threaded through the date loop.
type runState struct {
	portfolio     *portfolio.Portfolio
	strategyState strategy.State
	equityCurve   []types.EquityPoint
	fills         []types.Fill
	rejections    []types.Rejection

	// lastClose carries the most recent closing price per symbol so open
	// positions stay valued on dates where their instrument has no bar.
	lastClose map[string]float64
}

// Run executes the backtest over [start, end]. All price data is fetched and
// the signal pipeline applied before the date loop begins; the loop itself
// never touches the data source. The optional callback fires after each date,
// for progress reporting.
func (b *Backtester) Run(ctx context.Context, universe []string, start time.Time, end time.Time, onBar optional.Option[OnBarCallback]) (*types.BacktestResult, error) {
	if b.status != StatusConfigured {
		return nil, errors.Newf(errors.ErrCodeInvalidState, "backtester is %s, expected %s", b.status, StatusConfigured)
	}

	if len(universe) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidUniverse, "universe is empty")
	}

	if b.config.StartTime.IsSome() {
		start = b.config.StartTime.Unwrap()
	}

	if b.config.EndTime.IsSome() {
		end = b.config.EndTime.Unwrap()
	}

	// Checked after the config overrides so the range the data source sees
	// is the one validated.
	if end.Before(start) {
		return nil, errors.Newf(errors.ErrCodeInvalidDateRange, "end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	b.status = StatusRunning

	runID := uuid.New().String()
	b.logger.Info("Starting backtest",
		zap.String("run_id", runID),
		zap.String("strategy", b.strategy.Name()),
		zap.Strings("universe", universe),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	result, err := b.run(ctx, runID, universe, start, end, onBar)
	if err != nil {
		b.status = StatusFailed
		b.logger.Error("Backtest failed", zap.String("run_id", runID), zap.Error(err))

		return nil, err
	}

	b.status = StatusCompleted
	b.logger.Info("Backtest completed",
		zap.String("run_id", runID),
		zap.Int("dates", len(result.EquityCurve)),
		zap.Int("fills", len(result.Fills)),
		zap.Int("rejections", len(result.Rejections)),
		zap.Float64("final_equity", result.FinalEquity),
	)

	return result, nil
}

func (b *Backtester) run(ctx context.Context, runID string, universe []string, start time.Time, end time.Time, onBar optional.Option[OnBarCallback]) (*types.BacktestResult, error) {
	table, err := b.dataSource.GetPrice(ctx, universe, start, end, b.config.Interval)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestFailed, "failed to load price history", err)
	}

	table, err = b.pipeline.Apply(table)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestFailed, "signal pipeline failed", err)
	}

	dates := table.Dates()
	if len(dates) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyPriceTable, "price table has no dates")
	}

	state := runState{
		portfolio:   portfolio.New(b.config.InitialCash),
		equityCurve: make([]types.EquityPoint, 0, len(dates)),
		lastClose:   make(map[string]float64),
	}

	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestFailed, "backtest canceled", err)
		}

		state, err = b.step(date, table, state)
		if err != nil {
			return nil, err
		}

		if onBar.IsSome() {
			onBar.Unwrap()(i+1, len(dates))
		}
	}

	return &types.BacktestResult{
		Parameters:  b.config.Parameters(runID, universe, start, end, b.strategy.Name()),
		EquityCurve: state.equityCurve,
		Trades:      state.portfolio.ClosedTrades(),
		Fills:       state.fills,
		Rejections:  state.rejections,
		FinalEquity: state.equityCurve[len(state.equityCurve)-1].Equity,
	}, nil
}

// step advances the simulation by one date: ask the strategy for orders
// against the causal slice, execute them in order through the broker, apply
// the fills to the ledger, then mark equity at that date's closing prices.
func (b *Backtester) step(date time.Time, table *types.PriceTable, state runState) (runState, error) {
	slice := table.Slice(date)

	orders, nextStrategyState, err := b.strategy.OnBar(date, slice, state.strategyState)
	if err != nil {
		return state, errors.Wrapf(errors.ErrCodeStrategyFailed, err, "strategy %s failed at %s", b.strategy.Name(), date.Format(time.RFC3339))
	}

	state.strategyState = nextStrategyState

	for _, order := range orders {
		bar := slice.Bar(order.Symbol)
		if bar.IsNone() {
			state.rejections = append(state.rejections, types.Rejection{
				Order:   order,
				Reason:  types.RejectionReasonInvalidPrice,
				Message: "symbol has no bar on this date",
			})

			continue
		}

		fill, rejection := b.broker.Execute(order, bar.Unwrap().Close, state.portfolio.Snapshot())
		if rejection != nil {
			state.rejections = append(state.rejections, *rejection)

			continue
		}

		if err := state.portfolio.Apply(*fill); err != nil {
			return state, errors.Wrapf(errors.ErrCodeBacktestFailed, err, "failed to apply fill for order %s", order.ID)
		}

		state.fills = append(state.fills, *fill)
	}

	for _, symbol := range slice.Symbols() {
		state.lastClose[symbol] = slice.Bar(symbol).Unwrap().Close
	}

	cash := state.portfolio.Cash()
	positionsValue := state.portfolio.PositionsValue(state.lastClose)

	state.equityCurve = append(state.equityCurve, types.EquityPoint{
		Time:           date,
		Equity:         cash + positionsValue,
		Cash:           cash,
		PositionsValue: positionsValue,
	})

	return state, nil
}
