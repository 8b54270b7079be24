package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/quantbt/quantbt/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// LabelStyle for metric names.
	LabelStyle = lipgloss.NewStyle().Faint(true).Width(24)

	// GainStyle for favorable numbers.
	GainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	// LossStyle for unfavorable numbers.
	LossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// formatSignedPercent renders a fraction as a colored percentage.
func formatSignedPercent(value float64) string {
	text := fmt.Sprintf("%+.2f%%", value*100)
	if value < 0 {
		return LossStyle.Render(text)
	}

	return GainStyle.Render(text)
}

// renderSummary renders the metrics block printed after a run.
func renderSummary(strategyName string, metrics types.PerformanceMetrics) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Backtest results: %s", strategyName)))
	b.WriteString("\n\n")

	row("Total return", formatSignedPercent(metrics.TotalReturn))
	row("Annualized return", formatSignedPercent(metrics.AnnualizedReturn))
	row("Annualized volatility", fmt.Sprintf("%.2f%%", metrics.AnnualizedVolatility*100))
	row("Sharpe ratio", fmt.Sprintf("%.2f", metrics.SharpeRatio))
	row("Max drawdown", LossStyle.Render(fmt.Sprintf("%.2f%%", metrics.MaxDrawdown*100)))
	row("Max drawdown duration", fmt.Sprintf("%d periods", metrics.MaxDrawdownDuration))

	if metrics.CalmarRatio.IsSome() {
		row("Calmar ratio", fmt.Sprintf("%.2f", metrics.CalmarRatio.Unwrap()))
	} else {
		row("Calmar ratio", "n/a (no drawdown)")
	}

	row("Value at risk", fmt.Sprintf("%.2f%% at %.0f%% confidence", metrics.ValueAtRisk*100, metrics.VaRConfidence*100))
	row("Trades", fmt.Sprintf("%d (%d won, %d lost)", metrics.NumberOfTrades, metrics.NumberOfWinningTrades, metrics.NumberOfLosingTrades))
	row("Win rate", fmt.Sprintf("%.2f%%", metrics.WinRate*100))
	row("Best period", formatSignedPercent(metrics.BestPeriodReturn))
	row("Worst period", formatSignedPercent(metrics.WorstPeriodReturn))
	row("Total commission", fmt.Sprintf("%.2f", metrics.TotalCommission))
	row("Final equity", fmt.Sprintf("%.2f", metrics.FinalEquity))

	return b.String()
}
