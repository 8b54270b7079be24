package broker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quantbt/quantbt/internal/broker/commission"
	"github.com/quantbt/quantbt/internal/logger"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// SimulatedBrokerTestSuite is a test suite for SimulatedBroker
type SimulatedBrokerTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

// TestSimulatedBrokerSuite runs the test suite
func TestSimulatedBrokerSuite(t *testing.T) {
	suite.Run(t, new(SimulatedBrokerTestSuite))
}

// SetupSuite runs once before all tests in the suite
func (suite *SimulatedBrokerTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()
}

func (suite *SimulatedBrokerTestSuite) newBroker(slippage, commissionRate float64, policy OversizedOrderPolicy) *SimulatedBroker {
	broker, err := NewSimulatedBroker(slippage, commission.NewFractional(commissionRate), policy, suite.logger)
	suite.Require().NoError(err)

	return broker
}

func order(side types.Side, quantity float64) types.Order {
	return types.Order{
		ID:       uuid.New().String(),
		Symbol:   "AAPL",
		Time:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Side:     side,
		Quantity: quantity,
		Kind:     types.OrderKindMarket,
	}
}

func snapshot(cash float64, held float64) types.PortfolioSnapshot {
	positions := map[string]types.Position{}
	if held > 0 {
		positions["AAPL"] = types.Position{Symbol: "AAPL", Quantity: held, AverageEntryPrice: 100}
	}

	return types.PortfolioSnapshot{Cash: cash, Positions: positions}
}

func (suite *SimulatedBrokerTestSuite) TestNewRejectsBadCostModel() {
	_, err := NewSimulatedBroker(-0.1, commission.NewZero(), OversizedOrderPolicyClip, suite.logger)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidCostModel))

	_, err = NewSimulatedBroker(1.0, commission.NewZero(), OversizedOrderPolicyClip, suite.logger)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidCostModel))

	_, err = NewSimulatedBroker(0, nil, OversizedOrderPolicyClip, suite.logger)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidCostModel))

	_, err = NewSimulatedBroker(0, commission.NewZero(), "ignore", suite.logger)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidCostModel))
}

func (suite *SimulatedBrokerTestSuite) TestBuySlippageThenCommission() {
	broker := suite.newBroker(0.01, 0.01, OversizedOrderPolicyClip)

	fill, rejection := broker.Execute(order(types.SideBuy, 10), 50, snapshot(100000, 0))
	suite.Require().Nil(rejection)
	suite.Require().NotNil(fill)

	// Slippage first: 50 * 1.01 = 50.5. Commission on executed notional:
	// 0.01 * 10 * 50.5 = 5.05.
	suite.Assert().InDelta(50.5, fill.Price, 1e-9)
	suite.Assert().InDelta(10.0, fill.Quantity, 1e-9)
	suite.Assert().InDelta(5.05, fill.Commission, 1e-9)
	suite.Assert().InDelta(10*50*0.01, fill.SlippageCost, 1e-9)
	suite.Assert().InDelta(-(505.0 + 5.05), fill.CashDelta(), 1e-9)
}

func (suite *SimulatedBrokerTestSuite) TestSellSlipsDownward() {
	broker := suite.newBroker(0.01, 0, OversizedOrderPolicyClip)

	fill, rejection := broker.Execute(order(types.SideSell, 5), 100, snapshot(0, 10))
	suite.Require().Nil(rejection)

	suite.Assert().InDelta(99.0, fill.Price, 1e-9)
	suite.Assert().InDelta(5.0, fill.Quantity, 1e-9)
}

func (suite *SimulatedBrokerTestSuite) TestOversizedSellClipsToHeld() {
	broker := suite.newBroker(0, 0, OversizedOrderPolicyReject)

	// Sells clip regardless of the oversized-buy policy.
	fill, rejection := broker.Execute(order(types.SideSell, 100), 100, snapshot(0, 30))
	suite.Require().Nil(rejection)
	suite.Assert().InDelta(30.0, fill.Quantity, 1e-9)
}

func (suite *SimulatedBrokerTestSuite) TestSellWithoutPositionRejected() {
	broker := suite.newBroker(0, 0, OversizedOrderPolicyClip)

	fill, rejection := broker.Execute(order(types.SideSell, 10), 100, snapshot(1000, 0))
	suite.Require().Nil(fill)
	suite.Require().NotNil(rejection)
	suite.Assert().Equal(types.RejectionReasonNoPosition, rejection.Reason)
}

func (suite *SimulatedBrokerTestSuite) TestOversizedBuyClipped() {
	broker := suite.newBroker(0, 0.01, OversizedOrderPolicyClip)

	fill, rejection := broker.Execute(order(types.SideBuy, 1000), 100, snapshot(10100, 0))
	suite.Require().Nil(rejection)
	suite.Require().NotNil(fill)

	// Clipped so that notional plus commission fits within cash.
	cost := fill.Quantity*fill.Price + fill.Commission
	suite.Assert().LessOrEqual(cost, 10100.0+1e-6)
	suite.Assert().InDelta(100.0, fill.Quantity, 1e-6)
}

func (suite *SimulatedBrokerTestSuite) TestOversizedBuyRejected() {
	broker := suite.newBroker(0, 0, OversizedOrderPolicyReject)

	fill, rejection := broker.Execute(order(types.SideBuy, 1000), 100, snapshot(5000, 0))
	suite.Require().Nil(fill)
	suite.Require().NotNil(rejection)
	suite.Assert().Equal(types.RejectionReasonInsufficientCash, rejection.Reason)
}

func (suite *SimulatedBrokerTestSuite) TestBuyWithNoCashRejectedUnderClip() {
	broker := suite.newBroker(0, 0, OversizedOrderPolicyClip)

	fill, rejection := broker.Execute(order(types.SideBuy, 10), 100, snapshot(0, 0))
	suite.Require().Nil(fill)
	suite.Require().NotNil(rejection)
	suite.Assert().Equal(types.RejectionReasonInsufficientCash, rejection.Reason)
}

func (suite *SimulatedBrokerTestSuite) TestInvalidReferencePriceRejected() {
	broker := suite.newBroker(0, 0, OversizedOrderPolicyClip)

	_, rejection := broker.Execute(order(types.SideBuy, 10), 0, snapshot(1000, 0))
	suite.Require().NotNil(rejection)
	suite.Assert().Equal(types.RejectionReasonInvalidPrice, rejection.Reason)
}

func (suite *SimulatedBrokerTestSuite) TestInvalidOrderRejected() {
	broker := suite.newBroker(0, 0, OversizedOrderPolicyClip)

	bad := order(types.SideBuy, 10)
	bad.Quantity = -1

	_, rejection := broker.Execute(bad, 100, snapshot(1000, 0))
	suite.Require().NotNil(rejection)
	suite.Assert().Equal(types.RejectionReasonInvalidOrder, rejection.Reason)
}

func (suite *SimulatedBrokerTestSuite) TestExactlyOneOutcome() {
	broker := suite.newBroker(0.01, 0.01, OversizedOrderPolicyClip)

	tests := []struct {
		name     string
		order    types.Order
		price    float64
		snapshot types.PortfolioSnapshot
	}{
		{"affordable buy", order(types.SideBuy, 1), 100, snapshot(100000, 0)},
		{"oversized buy", order(types.SideBuy, 10000), 100, snapshot(1000, 0)},
		{"sell without position", order(types.SideSell, 1), 100, snapshot(1000, 0)},
		{"invalid price", order(types.SideBuy, 1), -1, snapshot(1000, 0)},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			fill, rejection := broker.Execute(tc.order, tc.price, tc.snapshot)
			suite.Assert().True((fill == nil) != (rejection == nil))
		})
	}
}
