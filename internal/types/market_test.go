package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// PriceTableTestSuite is a test suite for PriceTable and Slice
type PriceTableTestSuite struct {
	suite.Suite
	table *PriceTable
}

// TestPriceTableSuite runs the test suite
func TestPriceTableSuite(t *testing.T) {
	suite.Run(t, new(PriceTableTestSuite))
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(symbol string, d int, closePrice float64) PriceBar {
	return PriceBar{
		Symbol: symbol,
		Time:   day(d),
		Open:   closePrice,
		High:   closePrice,
		Low:    closePrice,
		Close:  closePrice,
		Volume: 1000,
	}
}

// SetupTest builds a two-symbol table with one symbol missing a date.
func (suite *PriceTableTestSuite) SetupTest() {
	suite.table = NewPriceTable([]PriceBar{
		// Deliberately out of order; NewPriceTable must sort.
		bar("MSFT", 2, 201),
		bar("AAPL", 1, 100),
		bar("AAPL", 3, 102),
		bar("MSFT", 1, 200),
		bar("AAPL", 2, 101),
		bar("MSFT", 3, 202),
	})
}

func (suite *PriceTableTestSuite) TestCalendarIsSortedUnion() {
	suite.Assert().Equal([]string{"AAPL", "MSFT"}, suite.table.Symbols())
	suite.Assert().Equal([]time.Time{day(1), day(2), day(3)}, suite.table.Dates())
	suite.Assert().Equal(6, suite.table.Len())
}

func (suite *PriceTableTestSuite) TestHistoryIsTimeOrdered() {
	history := suite.table.History("AAPL")

	suite.Require().Len(history, 3)
	suite.Assert().Equal(100.0, history[0].Close)
	suite.Assert().Equal(101.0, history[1].Close)
	suite.Assert().Equal(102.0, history[2].Close)
}

func (suite *PriceTableTestSuite) TestBarLookup() {
	found := suite.table.Bar("AAPL", day(2))
	suite.Require().True(found.IsSome())
	suite.Assert().Equal(101.0, found.Unwrap().Close)

	suite.Assert().True(suite.table.Bar("AAPL", day(9)).IsNone())
	suite.Assert().True(suite.table.Bar("TSLA", day(1)).IsNone())
}

func (suite *PriceTableTestSuite) TestSliceExcludesFutureRows() {
	slice := suite.table.Slice(day(2))

	suite.Assert().Equal(day(2), slice.Time())
	suite.Assert().Equal([]string{"AAPL", "MSFT"}, slice.Symbols())

	history := slice.History("AAPL")
	suite.Require().Len(history, 2)

	for _, b := range history {
		suite.Assert().False(b.Time.After(day(2)))
	}

	current := slice.Bar("MSFT")
	suite.Require().True(current.IsSome())
	suite.Assert().Equal(201.0, current.Unwrap().Close)
}

func (suite *PriceTableTestSuite) TestSliceOmitsSymbolWithoutCurrentBar() {
	table := NewPriceTable([]PriceBar{
		bar("AAPL", 1, 100),
		bar("AAPL", 2, 101),
		bar("MSFT", 1, 200),
	})

	slice := table.Slice(day(2))

	suite.Assert().Equal([]string{"AAPL"}, slice.Symbols())
	suite.Assert().True(slice.Bar("MSFT").IsNone())
	// History up to the slice date is still visible.
	suite.Assert().Len(slice.History("MSFT"), 1)
}

func (suite *PriceTableTestSuite) TestIndicatorUndefinedByDefault() {
	history := suite.table.History("AAPL")

	suite.Assert().True(history[0].Indicator("SMA_3").IsNone())
	suite.Assert().Empty(history[0].IndicatorNames())
}

func (suite *PriceTableTestSuite) TestSetIndicator() {
	suite.table.SetIndicator("AAPL", 1, "SMA_2", 100.5)

	value := suite.table.History("AAPL")[1].Indicator("SMA_2")
	suite.Require().True(value.IsSome())
	suite.Assert().Equal(100.5, value.Unwrap())

	// Out-of-range writes are ignored.
	suite.table.SetIndicator("AAPL", 99, "SMA_2", 1)
}

func (suite *PriceTableTestSuite) TestCloneIsIndependent() {
	suite.table.SetIndicator("AAPL", 0, "SMA_1", 100)

	clone := suite.table.Clone()
	clone.SetIndicator("AAPL", 0, "SMA_1", 999)
	clone.SetIndicator("AAPL", 1, "RSI", 50)

	original := suite.table.History("AAPL")
	suite.Assert().Equal(100.0, original[0].Indicator("SMA_1").Unwrap())
	suite.Assert().True(original[1].Indicator("RSI").IsNone())
}

func (suite *PriceTableTestSuite) TestSameShape() {
	clone := suite.table.Clone()
	clone.SetIndicator("AAPL", 0, "SMA_1", 100)

	suite.Assert().True(suite.table.SameShape(clone))

	smaller := NewPriceTable([]PriceBar{bar("AAPL", 1, 100)})
	suite.Assert().False(suite.table.SameShape(smaller))
}
