package portfolio

import (
	"testing"
	"time"

	"github.com/quantbt/quantbt/internal/types"
	"github.com/stretchr/testify/suite"
)

// PortfolioTestSuite is a test suite for the portfolio ledger
type PortfolioTestSuite struct {
	suite.Suite
	portfolio *Portfolio
}

// TestPortfolioSuite runs the test suite
func TestPortfolioSuite(t *testing.T) {
	suite.Run(t, new(PortfolioTestSuite))
}

// SetupTest runs before each test
func (suite *PortfolioTestSuite) SetupTest() {
	suite.portfolio = New(100000)
}

func fill(side types.Side, quantity, price, commission float64, d int) types.Fill {
	return types.Fill{
		OrderID:    "order",
		Symbol:     "AAPL",
		Time:       time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC),
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Commission: commission,
	}
}

func (suite *PortfolioTestSuite) TestBuyOpensPosition() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 100, 5, 1)))

	suite.Assert().InDelta(100000-1005, suite.portfolio.Cash(), 1e-9)

	position, ok := suite.portfolio.Position("AAPL")
	suite.Require().True(ok)
	suite.Assert().InDelta(10.0, position.Quantity, 1e-9)
	// Entry price excludes commission.
	suite.Assert().InDelta(100.0, position.AverageEntryPrice, 1e-9)
	suite.Assert().Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), position.OpenedAt)
}

func (suite *PortfolioTestSuite) TestBuyAveragesEntryPrice() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 100, 0, 1)))
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 30, 120, 0, 2)))

	position, ok := suite.portfolio.Position("AAPL")
	suite.Require().True(ok)
	suite.Assert().InDelta(40.0, position.Quantity, 1e-9)
	// (10*100 + 30*120) / 40 = 115.
	suite.Assert().InDelta(115.0, position.AverageEntryPrice, 1e-9)
}

func (suite *PortfolioTestSuite) TestPartialSellKeepsEntryPrice() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 100, 0, 1)))
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideSell, 4, 110, 0, 2)))

	position, ok := suite.portfolio.Position("AAPL")
	suite.Require().True(ok)
	suite.Assert().InDelta(6.0, position.Quantity, 1e-9)
	// Sells never touch the average entry price.
	suite.Assert().InDelta(100.0, position.AverageEntryPrice, 1e-9)

	suite.Assert().Empty(suite.portfolio.ClosedTrades())
}

func (suite *PortfolioTestSuite) TestRoundTripRealizesTrade() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 100, 2, 1)))
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideSell, 10, 110, 3, 5)))

	_, ok := suite.portfolio.Position("AAPL")
	suite.Assert().False(ok)

	trades := suite.portfolio.ClosedTrades()
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Assert().Equal("AAPL", trade.Symbol)
	suite.Assert().Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), trade.OpenedAt)
	suite.Assert().Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), trade.ClosedAt)
	suite.Assert().InDelta(10.0, trade.Quantity, 1e-9)
	suite.Assert().InDelta(100.0, trade.EntryPrice, 1e-9)
	suite.Assert().InDelta(110.0, trade.ExitPrice, 1e-9)
	suite.Assert().InDelta(5.0, trade.Commission, 1e-9)
	// 1100 - 1000 - 5 commission.
	suite.Assert().InDelta(95.0, trade.PnL, 1e-9)
	suite.Assert().True(trade.IsWin())
}

func (suite *PortfolioTestSuite) TestMultiFillRoundTripAggregates() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 100, 1, 1)))
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 110, 1, 2)))
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideSell, 5, 120, 1, 3)))
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideSell, 15, 130, 1, 4)))

	trades := suite.portfolio.ClosedTrades()
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Assert().InDelta(20.0, trade.Quantity, 1e-9)
	suite.Assert().InDelta(105.0, trade.EntryPrice, 1e-9)
	// (5*120 + 15*130) / 20 = 127.5.
	suite.Assert().InDelta(127.5, trade.ExitPrice, 1e-9)
	// 2550 - 2100 - 4.
	suite.Assert().InDelta(446.0, trade.PnL, 1e-9)
}

func (suite *PortfolioTestSuite) TestCashConservation() {
	initial := suite.portfolio.Cash()

	fills := []types.Fill{
		fill(types.SideBuy, 10, 100, 2, 1),
		fill(types.SideBuy, 5, 105, 1, 2),
		fill(types.SideSell, 8, 110, 2, 3),
	}

	expected := initial
	for _, f := range fills {
		suite.Require().NoError(suite.portfolio.Apply(f))
		expected += f.CashDelta()
	}

	suite.Assert().InDelta(expected, suite.portfolio.Cash(), 1e-9)
}

func (suite *PortfolioTestSuite) TestEquityValuation() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 100, 100, 0, 1)))

	prices := map[string]float64{"AAPL": 110}

	suite.Assert().InDelta(11000.0, suite.portfolio.PositionsValue(prices), 1e-9)
	suite.Assert().InDelta(90000.0+11000.0, suite.portfolio.Equity(prices), 1e-9)
}

func (suite *PortfolioTestSuite) TestBuyBeyondCashFails() {
	err := suite.portfolio.Apply(fill(types.SideBuy, 10000, 100, 0, 1))
	suite.Assert().Error(err)
}

func (suite *PortfolioTestSuite) TestSellWithoutPositionFails() {
	err := suite.portfolio.Apply(fill(types.SideSell, 10, 100, 0, 1))
	suite.Assert().Error(err)
}

func (suite *PortfolioTestSuite) TestSellBeyondHeldFails() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 100, 0, 1)))

	err := suite.portfolio.Apply(fill(types.SideSell, 11, 100, 0, 2))
	suite.Assert().Error(err)
}

func (suite *PortfolioTestSuite) TestSnapshotIsDetached() {
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 10, 100, 0, 1)))

	snapshot := suite.portfolio.Snapshot()
	snapshot.Positions["AAPL"] = types.Position{Symbol: "AAPL", Quantity: 999}

	position, _ := suite.portfolio.Position("AAPL")
	suite.Assert().InDelta(10.0, position.Quantity, 1e-9)
}

func (suite *PortfolioTestSuite) TestPositionsSorted() {
	msft := fill(types.SideBuy, 1, 100, 0, 1)
	msft.Symbol = "MSFT"

	suite.Require().NoError(suite.portfolio.Apply(msft))
	suite.Require().NoError(suite.portfolio.Apply(fill(types.SideBuy, 1, 100, 0, 1)))

	positions := suite.portfolio.Positions()
	suite.Require().Len(positions, 2)
	suite.Assert().Equal("AAPL", positions[0].Symbol)
	suite.Assert().Equal("MSFT", positions[1].Symbol)
}
