package strategy

import (
	"testing"
	"time"

	"github.com/quantbt/quantbt/internal/signal"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/stretchr/testify/suite"
)

// StrategyTestSuite is a test suite for the built-in strategies
type StrategyTestSuite struct {
	suite.Suite
}

// TestStrategySuite runs the test suite
func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// crossTable builds a one-symbol table whose EMA_Cross column follows the
// given values. A negative value leaves the column undefined for that date.
func crossTable(symbol string, crosses []float64) *types.PriceTable {
	bars := make([]types.PriceBar, len(crosses))
	for i := range crosses {
		bars[i] = types.PriceBar{
			Symbol: symbol,
			Time:   day(i + 1),
			Open:   100,
			High:   100,
			Low:    100,
			Close:  100,
			Volume: 1000,
		}
	}

	table := types.NewPriceTable(bars)

	for i, cross := range crosses {
		if cross >= 0 {
			table.SetIndicator(symbol, i, signal.ColumnEMACross, cross)
		}
	}

	return table
}

func (suite *StrategyTestSuite) TestOrderIDDeterministic() {
	a := OrderID("buy_and_hold", "AAPL", day(1), 0)
	b := OrderID("buy_and_hold", "AAPL", day(1), 0)

	suite.Assert().Equal(a, b)
	suite.Assert().NotEqual(a, OrderID("buy_and_hold", "AAPL", day(1), 1))
	suite.Assert().NotEqual(a, OrderID("buy_and_hold", "AAPL", day(2), 0))
	suite.Assert().NotEqual(a, OrderID("ma_cross", "AAPL", day(1), 0))
}

func (suite *StrategyTestSuite) TestBuyAndHoldBuysEachSymbolOnce() {
	strat, err := NewBuyAndHold(100)
	suite.Require().NoError(err)

	table := crossTable("AAPL", []float64{-1, -1})
	var state State

	orders, state, err := strat.OnBar(day(1), table.Slice(day(1)), state)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 1)
	suite.Assert().Equal(types.SideBuy, orders[0].Side)
	suite.Assert().Equal(100.0, orders[0].Quantity)
	suite.Assert().Equal(types.OrderKindMarket, orders[0].Kind)
	suite.Assert().NoError(orders[0].Validate())

	orders, _, err = strat.OnBar(day(2), table.Slice(day(2)), state)
	suite.Require().NoError(err)
	suite.Assert().Empty(orders)
}

func (suite *StrategyTestSuite) TestBuyAndHoldIsPure() {
	strat, err := NewBuyAndHold(10)
	suite.Require().NoError(err)

	table := crossTable("AAPL", []float64{-1})
	slice := table.Slice(day(1))

	first, _, err := strat.OnBar(day(1), slice, nil)
	suite.Require().NoError(err)
	second, _, err := strat.OnBar(day(1), slice, nil)
	suite.Require().NoError(err)

	suite.Assert().Equal(first, second)
}

func (suite *StrategyTestSuite) TestMACrossTradesTransitionsOnly() {
	strat, err := NewMACross(10)
	suite.Require().NoError(err)

	crosses := []float64{0, 1, 1, 0, 1}
	table := crossTable("AAPL", crosses)

	var state State

	var sides [][]types.Side

	for i := range crosses {
		orders, next, err := strat.OnBar(day(i+1), table.Slice(day(i+1)), state)
		suite.Require().NoError(err)

		state = next

		daySides := make([]types.Side, 0, len(orders))
		for _, o := range orders {
			daySides = append(daySides, o.Side)
		}

		sides = append(sides, daySides)
	}

	// Day 1 only records the state; days 2 and 5 are 0->1 buys, day 4 a
	// 1->0 sell, day 3 no transition.
	suite.Assert().Empty(sides[0])
	suite.Assert().Equal([]types.Side{types.SideBuy}, sides[1])
	suite.Assert().Empty(sides[2])
	suite.Assert().Equal([]types.Side{types.SideSell}, sides[3])
	suite.Assert().Equal([]types.Side{types.SideBuy}, sides[4])
}

func (suite *StrategyTestSuite) TestMACrossSkipsUndefinedSignal() {
	strat, err := NewMACross(10)
	suite.Require().NoError(err)

	table := crossTable("AAPL", []float64{-1, 0, 1})

	var state State

	orders, state, err := strat.OnBar(day(1), table.Slice(day(1)), state)
	suite.Require().NoError(err)
	suite.Assert().Empty(orders)

	orders, state, err = strat.OnBar(day(2), table.Slice(day(2)), state)
	suite.Require().NoError(err)
	suite.Assert().Empty(orders)

	orders, _, err = strat.OnBar(day(3), table.Slice(day(3)), state)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 1)
	suite.Assert().Equal(types.SideBuy, orders[0].Side)
}

// rsiTable builds a one-symbol table with the given RSI_Signal values. A
// value of -2 leaves the column undefined.
func rsiTable(symbol string, signals []float64) *types.PriceTable {
	bars := make([]types.PriceBar, len(signals))
	for i := range signals {
		bars[i] = types.PriceBar{
			Symbol: symbol,
			Time:   day(i + 1),
			Close:  100,
			Open:   100,
			High:   100,
			Low:    100,
			Volume: 1000,
		}
	}

	table := types.NewPriceTable(bars)

	for i, value := range signals {
		if value != -2 {
			table.SetIndicator(symbol, i, signal.ColumnRSISignal, value)
		}
	}

	return table
}

func (suite *StrategyTestSuite) TestRSIReversionBuysOversoldSellsOverbought() {
	strat, err := NewRSIReversion(5)
	suite.Require().NoError(err)

	signals := []float64{-2, 1, 1, 0, -1, -1}
	table := rsiTable("AAPL", signals)

	var state State

	var allOrders []types.Order

	for i := range signals {
		orders, next, err := strat.OnBar(day(i+1), table.Slice(day(i+1)), state)
		suite.Require().NoError(err)

		state = next
		allOrders = append(allOrders, orders...)
	}

	// One buy when oversold appears, one sell when overbought appears; the
	// repeated signals do not stack positions.
	suite.Require().Len(allOrders, 2)
	suite.Assert().Equal(types.SideBuy, allOrders[0].Side)
	suite.Assert().Equal(day(2), allOrders[0].Time)
	suite.Assert().Equal(types.SideSell, allOrders[1].Side)
	suite.Assert().Equal(day(5), allOrders[1].Time)
}

func (suite *StrategyTestSuite) TestRSIReversionIgnoresSellWhenFlat() {
	strat, err := NewRSIReversion(5)
	suite.Require().NoError(err)

	table := rsiTable("AAPL", []float64{-1})

	orders, _, err := strat.OnBar(day(1), table.Slice(day(1)), nil)
	suite.Require().NoError(err)
	suite.Assert().Empty(orders)
}

func (suite *StrategyTestSuite) TestConstructorsRejectNonPositiveQuantity() {
	_, err := NewBuyAndHold(0)
	suite.Assert().Error(err)

	_, err = NewMACross(-1)
	suite.Assert().Error(err)

	_, err = NewRSIReversion(0)
	suite.Assert().Error(err)
}
