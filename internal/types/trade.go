package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents the current holdings of one instrument. Quantity sign
// encodes direction (positive is long). AverageEntryPrice is meaningless when
// Quantity is zero; use EntryPrice to read it safely.
type Position struct {
	Symbol            string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity          float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	AverageEntryPrice float64   `yaml:"average_entry_price" json:"average_entry_price" csv:"average_entry_price"`
	OpenedAt          time.Time `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
}

// EntryPrice returns the volume-weighted average entry price, guarding the
// undefined case of a flat position.
func (p Position) EntryPrice() (float64, bool) {
	if p.Quantity == 0 {
		return 0, false
	}

	return p.AverageEntryPrice, true
}

// MarketValue returns the position's value at the given price.
func (p Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// PortfolioSnapshot is the read-only view of the ledger the broker receives
// for affordability checks. The broker never mutates portfolio state.
type PortfolioSnapshot struct {
	Cash      float64             `yaml:"cash" json:"cash"`
	Positions map[string]Position `yaml:"positions" json:"positions"`
}

// Position returns the snapshot position for a symbol, zero-valued if flat.
func (s PortfolioSnapshot) Position(symbol string) Position {
	if position, ok := s.Positions[symbol]; ok {
		return position
	}

	return Position{Symbol: symbol}
}

// ClosedTrade is one realized round trip: a position opened and fully closed.
// PnL is net of all commissions allocated to the round trip.
type ClosedTrade struct {
	Symbol     string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	OpenedAt   time.Time `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
	ClosedAt   time.Time `yaml:"closed_at" json:"closed_at" csv:"closed_at"`
	Quantity   float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Commission float64   `yaml:"commission" json:"commission" csv:"commission"`
	PnL        float64   `yaml:"pnl" json:"pnl" csv:"pnl"`
}

// GrossPnL recomputes the trade's profit before commissions from its
// volume-weighted entry and exit prices.
func (t ClosedTrade) GrossPnL() float64 {
	entry := decimal.NewFromFloat(t.EntryPrice).Mul(decimal.NewFromFloat(t.Quantity))
	exit := decimal.NewFromFloat(t.ExitPrice).Mul(decimal.NewFromFloat(t.Quantity))

	result, _ := exit.Sub(entry).Float64()

	return result
}

// IsWin reports whether the round trip realized a positive net profit.
func (t ClosedTrade) IsWin() bool {
	return t.PnL > 0
}
