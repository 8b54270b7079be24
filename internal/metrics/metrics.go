// Package metrics derives risk/return statistics from a completed backtest
// result. Calculation is pure: it reads only the result and never touches
// price data, so calling it repeatedly on the same result yields identical
// metrics.
package metrics

import (
	"math"
	"sort"

	"github.com/moznion/go-optional"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
)

// Calculate computes the full metrics set from a result. It needs at least
// two equity points to form one period return.
func Calculate(result *types.BacktestResult) (types.PerformanceMetrics, error) {
	if result == nil {
		return types.PerformanceMetrics{}, errors.New(errors.ErrCodeInvalidState, "result is nil")
	}

	curve := result.EquityCurve
	if len(curve) < 2 {
		return types.PerformanceMetrics{}, errors.NewInsufficientDataError(2, len(curve), "", "equity curve needs at least two points")
	}

	returns := periodReturns(curve)
	periodsPerYear := result.Parameters.PeriodsPerYear

	totalReturn := curve[len(curve)-1].Equity/curve[0].Equity - 1
	annualizedReturn := annualize(totalReturn, len(returns), periodsPerYear)
	volatility := stddev(returns) * math.Sqrt(periodsPerYear)

	sharpe := 0.0
	if volatility > 0 {
		sharpe = annualizedReturn / volatility
	}

	drawdowns := drawdownSeries(curve)
	maxDrawdown, maxDuration := maxDrawdown(drawdowns)

	calmar := optional.None[float64]()
	if maxDrawdown < 0 {
		calmar = optional.Some(annualizedReturn / -maxDrawdown)
	}

	wins, losses := 0, 0

	for _, trade := range result.Trades {
		if trade.IsWin() {
			wins++
		} else {
			losses++
		}
	}

	winRate := 0.0
	if len(result.Trades) > 0 {
		winRate = float64(wins) / float64(len(result.Trades))
	}

	confidence := result.Parameters.VaRConfidence

	totalCommission := 0.0
	for _, fill := range result.Fills {
		totalCommission += fill.Commission
	}

	best, worst := returns[0], returns[0]

	for _, r := range returns {
		best = math.Max(best, r)
		worst = math.Min(worst, r)
	}

	return types.PerformanceMetrics{
		TotalReturn:           totalReturn,
		AnnualizedReturn:      annualizedReturn,
		AnnualizedVolatility:  volatility,
		SharpeRatio:           sharpe,
		MaxDrawdown:           maxDrawdown,
		MaxDrawdownDuration:   maxDuration,
		CalmarRatio:           calmar,
		WinRate:               winRate,
		NumberOfTrades:        len(result.Trades),
		NumberOfWinningTrades: wins,
		NumberOfLosingTrades:  losses,
		ValueAtRisk:           valueAtRisk(returns, confidence),
		VaRConfidence:         confidence,
		BestPeriodReturn:      best,
		WorstPeriodReturn:     worst,
		TotalCommission:       totalCommission,
		FinalEquity:           curve[len(curve)-1].Equity,
		Periods:               len(returns),
		PeriodsPerYear:        periodsPerYear,
		Drawdowns:             drawdowns,
	}, nil
}

// periodReturns converts the equity curve into simple per-period returns.
func periodReturns(curve []types.EquityPoint) []float64 {
	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		returns = append(returns, curve[i].Equity/curve[i-1].Equity-1)
	}

	return returns
}

// annualize geometrically scales a total return over n periods to a yearly
// rate.
func annualize(totalReturn float64, periods int, periodsPerYear float64) float64 {
	if periods == 0 {
		return 0
	}

	return math.Pow(1+totalReturn, periodsPerYear/float64(periods)) - 1
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}

	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	variance /= float64(len(values) - 1)

	return math.Sqrt(variance)
}

// drawdownSeries computes equity / running-peak - 1 at every point. Values
// are <= 0; the first point is always 0.
func drawdownSeries(curve []types.EquityPoint) []types.DrawdownPoint {
	series := make([]types.DrawdownPoint, 0, len(curve))
	peak := curve[0].Equity

	for _, point := range curve {
		peak = math.Max(peak, point.Equity)
		series = append(series, types.DrawdownPoint{
			Time:     point.Time,
			Drawdown: point.Equity/peak - 1,
		})
	}

	return series
}

// maxDrawdown returns the minimum of the drawdown series, a fraction <= 0
// that is 0 only for a curve that never dips below a prior peak, and the
// length, in periods, of the longest stretch spent below one.
func maxDrawdown(series []types.DrawdownPoint) (float64, int) {
	deepest := 0.0
	longest := 0
	current := 0

	for _, point := range series {
		deepest = math.Min(deepest, point.Drawdown)

		if point.Drawdown < 0 {
			current++
			longest = max(longest, current)
		} else {
			current = 0
		}
	}

	return deepest, longest
}

// valueAtRisk returns the empirical quantile of the period returns at the
// given confidence level, with linear interpolation between order statistics.
// A 5% confidence on a losing distribution yields a negative number: the loss
// threshold exceeded in the worst 5% of periods.
func valueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	rank := confidence * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)

	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
