package types

import "time"

// EquityPoint is one snapshot of total portfolio value, taken once per
// simulated date at that date's closing prices.
// Invariant: Equity = Cash + PositionsValue.
type EquityPoint struct {
	Time           time.Time `yaml:"time" json:"time" csv:"time"`
	Equity         float64   `yaml:"equity" json:"equity" csv:"equity"`
	Cash           float64   `yaml:"cash" json:"cash" csv:"cash"`
	PositionsValue float64   `yaml:"positions_value" json:"positions_value" csv:"positions_value"`
}

// RunParameters echoes the configuration of a run so a result is reproducible
// and self-describing.
type RunParameters struct {
	RunID                string    `yaml:"run_id" json:"run_id"`
	Universe             []string  `yaml:"universe" json:"universe"`
	Start                time.Time `yaml:"start" json:"start"`
	End                  time.Time `yaml:"end" json:"end"`
	Interval             Interval  `yaml:"interval" json:"interval"`
	InitialCash          float64   `yaml:"initial_cash" json:"initial_cash"`
	CommissionRate       float64   `yaml:"commission_rate" json:"commission_rate"`
	SlippageRate         float64   `yaml:"slippage_rate" json:"slippage_rate"`
	OversizedOrderPolicy string    `yaml:"oversized_order_policy" json:"oversized_order_policy"`
	PeriodsPerYear       float64   `yaml:"periods_per_year" json:"periods_per_year"`
	VaRConfidence        float64   `yaml:"var_confidence" json:"var_confidence"`
	StrategyName         string    `yaml:"strategy_name" json:"strategy_name"`
}

// BacktestResult is the immutable outcome of one completed run: the
// reconstructed equity curve, the realized trade log, every fill and
// rejection, and the run parameters. Metrics are computable from this value
// alone, with no access to raw price data.
type BacktestResult struct {
	Parameters  RunParameters `yaml:"parameters" json:"parameters"`
	EquityCurve []EquityPoint `yaml:"equity_curve" json:"equity_curve"`
	Trades      []ClosedTrade `yaml:"trades" json:"trades"`
	Fills       []Fill        `yaml:"fills" json:"fills"`
	Rejections  []Rejection   `yaml:"rejections" json:"rejections"`
	FinalEquity float64       `yaml:"final_equity" json:"final_equity"`
}
