package types

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// DrawdownPoint is one entry of the time-indexed drawdown series:
// equity / running-peak-equity - 1, always <= 0.
type DrawdownPoint struct {
	Time     time.Time `yaml:"time" json:"time"`
	Drawdown float64   `yaml:"drawdown" json:"drawdown"`
}

// PerformanceMetrics is the fixed-schema set of risk/return statistics
// derived from a BacktestResult.
//
// Units: returns, volatility, drawdown, win rate and VaR are fractions, not
// percentages. VaR is reported as a negative number, and so is MaxDrawdown:
// the minimum of equity / running-peak - 1, which is 0 only for a curve that
// never declines. Equity and commission values are in the account currency.
// MaxDrawdownDuration counts simulated periods. CalmarRatio is None when
// maximum drawdown is zero, since the ratio is undefined for a curve that
// never declines.
type PerformanceMetrics struct {
	TotalReturn           float64                  `yaml:"total_return"`
	AnnualizedReturn      float64                  `yaml:"annualized_return"`
	AnnualizedVolatility  float64                  `yaml:"annualized_volatility"`
	SharpeRatio           float64                  `yaml:"sharpe_ratio"`
	MaxDrawdown           float64                  `yaml:"max_drawdown"`
	MaxDrawdownDuration   int                      `yaml:"max_drawdown_duration"`
	CalmarRatio           optional.Option[float64] `yaml:"-"`
	WinRate               float64                  `yaml:"win_rate"`
	NumberOfTrades        int                      `yaml:"number_of_trades"`
	NumberOfWinningTrades int                      `yaml:"number_of_winning_trades"`
	NumberOfLosingTrades  int                      `yaml:"number_of_losing_trades"`
	ValueAtRisk           float64                  `yaml:"value_at_risk"`
	VaRConfidence         float64                  `yaml:"var_confidence"`
	BestPeriodReturn      float64                  `yaml:"best_period_return"`
	WorstPeriodReturn     float64                  `yaml:"worst_period_return"`
	TotalCommission       float64                  `yaml:"total_commission"`
	FinalEquity           float64                  `yaml:"final_equity"`
	Periods               int                      `yaml:"periods"`
	PeriodsPerYear        float64                  `yaml:"periods_per_year"`
	Drawdowns             []DrawdownPoint          `yaml:"drawdowns,omitempty"`
}

// MarshalYAML flattens the optional Calmar ratio to a nullable scalar so the
// written report stays renderer-friendly.
func (m PerformanceMetrics) MarshalYAML() (interface{}, error) {
	type plain PerformanceMetrics

	var calmar *float64

	if m.CalmarRatio.IsSome() {
		value := m.CalmarRatio.Unwrap()
		calmar = &value
	}

	return struct {
		plain  `yaml:",inline"`
		Calmar *float64 `yaml:"calmar_ratio"`
	}{
		plain:  plain(m),
		Calmar: calmar,
	}, nil
}

// Report bundles a run's parameters and metrics for consumption by external
// renderers.
type Report struct {
	Parameters RunParameters      `yaml:"parameters"`
	Metrics    PerformanceMetrics `yaml:"metrics"`
}

// WriteReport writes a report to path as YAML.
func WriteReport(path string, report Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to file: %w", err)
	}

	return nil
}
