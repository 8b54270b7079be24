// Package portfolio implements the authoritative ledger of cash, open
// positions, and realized trades. It is mutated only by the engine applying
// fills.
package portfolio

import (
	"sort"
	"time"

	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
	"github.com/shopspring/decimal"
)

// quantityEpsilon absorbs float drift when deciding a position is flat.
const quantityEpsilon = 1e-9

// positionState tracks an open position plus the running totals needed to
// emit a round-trip record when it fully closes.
type positionState struct {
	quantity float64
	avgEntry float64
	openedAt time.Time

	buyQuantity  decimal.Decimal
	buyAmount    decimal.Decimal
	sellQuantity decimal.Decimal
	sellAmount   decimal.Decimal
	commission   decimal.Decimal
}

// Portfolio is the ledger for one run. Not safe for concurrent use; the
// engine owns it exclusively for the run's duration.
type Portfolio struct {
	cash      float64
	positions map[string]*positionState
	closed    []types.ClosedTrade
}

// New creates a portfolio holding only the given initial cash.
func New(initialCash float64) *Portfolio {
	return &Portfolio{
		cash:      initialCash,
		positions: make(map[string]*positionState),
		closed:    nil,
	}
}

// Apply mutates the ledger with one fill. Buys increase quantity and
// recompute the volume-weighted average entry price; sells decrease quantity
// and, once it reaches zero, realize the round trip as a closed trade.
// The average entry price is only ever written by buys.
func (p *Portfolio) Apply(fill types.Fill) error {
	if fill.Quantity <= 0 || fill.Price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidState, "fill must have positive quantity and price, got %f @ %f", fill.Quantity, fill.Price)
	}

	switch fill.Side {
	case types.SideBuy:
		return p.applyBuy(fill)
	case types.SideSell:
		return p.applySell(fill)
	default:
		return errors.Newf(errors.ErrCodeInvalidState, "unknown fill side %q", fill.Side)
	}
}

func (p *Portfolio) applyBuy(fill types.Fill) error {
	cost := fill.Notional() + fill.Commission
	if cost > p.cash+quantityEpsilon {
		return errors.Newf(errors.ErrCodeInvalidState, "fill cost %.2f exceeds cash %.2f; broker must size orders to available cash", cost, p.cash)
	}

	position, ok := p.positions[fill.Symbol]
	if !ok {
		position = &positionState{openedAt: fill.Time}
		p.positions[fill.Symbol] = position
	}

	newQuantity := position.quantity + fill.Quantity
	position.avgEntry = (position.avgEntry*position.quantity + fill.Price*fill.Quantity) / newQuantity
	position.quantity = newQuantity

	position.buyQuantity = position.buyQuantity.Add(decimal.NewFromFloat(fill.Quantity))
	position.buyAmount = position.buyAmount.Add(decimal.NewFromFloat(fill.Notional()))
	position.commission = position.commission.Add(decimal.NewFromFloat(fill.Commission))

	p.cash -= cost

	return nil
}

func (p *Portfolio) applySell(fill types.Fill) error {
	position, ok := p.positions[fill.Symbol]
	if !ok || position.quantity <= 0 {
		return errors.Newf(errors.ErrCodeInvalidState, "sell fill for %s with no open position", fill.Symbol)
	}

	if fill.Quantity > position.quantity+quantityEpsilon {
		return errors.Newf(errors.ErrCodeInvalidState, "sell fill quantity %f exceeds held %f; broker must clip sells", fill.Quantity, position.quantity)
	}

	position.quantity -= fill.Quantity
	position.sellQuantity = position.sellQuantity.Add(decimal.NewFromFloat(fill.Quantity))
	position.sellAmount = position.sellAmount.Add(decimal.NewFromFloat(fill.Notional()))
	position.commission = position.commission.Add(decimal.NewFromFloat(fill.Commission))

	p.cash += fill.Notional() - fill.Commission

	if position.quantity <= quantityEpsilon {
		p.closed = append(p.closed, position.close(fill))
		delete(p.positions, fill.Symbol)
	}

	return nil
}

// close converts the accumulated totals into the round-trip record.
// Net P&L = sell proceeds - buy cost - all commissions on the round trip.
func (s *positionState) close(lastFill types.Fill) types.ClosedTrade {
	entryPrice := 0.0
	if !s.buyQuantity.IsZero() {
		entryPrice, _ = s.buyAmount.Div(s.buyQuantity).Float64()
	}

	exitPrice := 0.0
	if !s.sellQuantity.IsZero() {
		exitPrice, _ = s.sellAmount.Div(s.sellQuantity).Float64()
	}

	quantity, _ := s.buyQuantity.Float64()
	commission, _ := s.commission.Float64()
	pnl, _ := s.sellAmount.Sub(s.buyAmount).Sub(s.commission).Float64()

	return types.ClosedTrade{
		Symbol:     lastFill.Symbol,
		OpenedAt:   s.openedAt,
		ClosedAt:   lastFill.Time,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		Commission: commission,
		PnL:        pnl,
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	return p.cash
}

// Position returns the open position for a symbol.
func (p *Portfolio) Position(symbol string) (types.Position, bool) {
	state, ok := p.positions[symbol]
	if !ok {
		return types.Position{Symbol: symbol}, false
	}

	return state.toPosition(symbol), true
}

// Positions returns all open positions sorted by symbol.
func (p *Portfolio) Positions() []types.Position {
	symbols := make([]string, 0, len(p.positions))
	for symbol := range p.positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	positions := make([]types.Position, 0, len(symbols))
	for _, symbol := range symbols {
		positions = append(positions, p.positions[symbol].toPosition(symbol))
	}

	return positions
}

func (s *positionState) toPosition(symbol string) types.Position {
	return types.Position{
		Symbol:            symbol,
		Quantity:          s.quantity,
		AverageEntryPrice: s.avgEntry,
		OpenedAt:          s.openedAt,
	}
}

// ClosedTrades returns the realized round trips in close order.
func (p *Portfolio) ClosedTrades() []types.ClosedTrade {
	out := make([]types.ClosedTrade, len(p.closed))
	copy(out, p.closed)

	return out
}

// Snapshot returns the read-only view the broker uses for affordability
// checks.
func (p *Portfolio) Snapshot() types.PortfolioSnapshot {
	positions := make(map[string]types.Position, len(p.positions))
	for symbol, state := range p.positions {
		positions[symbol] = state.toPosition(symbol)
	}

	return types.PortfolioSnapshot{
		Cash:      p.cash,
		Positions: positions,
	}
}

// PositionsValue sums position market values at the given prices. The caller
// must supply a price for every open position; the engine passes the last
// known close for symbols without a bar on the current date.
func (p *Portfolio) PositionsValue(prices map[string]float64) float64 {
	total := 0.0
	for symbol, state := range p.positions {
		total += state.quantity * prices[symbol]
	}

	return total
}

// Equity returns cash plus position market value at the given prices.
func (p *Portfolio) Equity(prices map[string]float64) float64 {
	return p.cash + p.PositionsValue(prices)
}
