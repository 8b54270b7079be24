package broker

import (
	"github.com/quantbt/quantbt/internal/broker/commission"
	"github.com/quantbt/quantbt/internal/logger"
	"github.com/quantbt/quantbt/internal/types"
	"github.com/quantbt/quantbt/pkg/errors"
	"go.uber.org/zap"
)

// SimulatedBroker is the stateless execution model used during backtests.
//
// Costs apply in order: (a) slippage adjusts the reference price by a fixed
// fraction, always against the trader (buys fill higher, sells lower);
// (b) commission is charged on the executed notional; (c) affordability is
// checked against the portfolio snapshot. Oversized sells are always clipped
// to the held quantity; oversized buys are clipped or rejected per the
// configured policy.
type SimulatedBroker struct {
	slippageRate float64
	commission   commission.Model
	policy       OversizedOrderPolicy
	logger       *logger.Logger
}

// NewSimulatedBroker creates a simulated broker with the given slippage rate
// (fraction of the reference price), commission model, and oversized-buy
// policy.
func NewSimulatedBroker(slippageRate float64, model commission.Model, policy OversizedOrderPolicy, log *logger.Logger) (*SimulatedBroker, error) {
	if slippageRate < 0 || slippageRate >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidCostModel, "slippage rate must be in [0, 1), got %f", slippageRate)
	}

	if policy != OversizedOrderPolicyClip && policy != OversizedOrderPolicyReject {
		return nil, errors.Newf(errors.ErrCodeInvalidCostModel, "unknown oversized order policy %q", policy)
	}

	if model == nil {
		return nil, errors.New(errors.ErrCodeInvalidCostModel, "commission model is required")
	}

	return &SimulatedBroker{
		slippageRate: slippageRate,
		commission:   model,
		policy:       policy,
		logger:       log,
	}, nil
}

// Execute implements Broker.
func (b *SimulatedBroker) Execute(order types.Order, referencePrice float64, snapshot types.PortfolioSnapshot) (*types.Fill, *types.Rejection) {
	if err := order.Validate(); err != nil {
		return nil, b.reject(order, types.RejectionReasonInvalidOrder, err.Error())
	}

	if referencePrice <= 0 {
		return nil, b.reject(order, types.RejectionReasonInvalidPrice, "reference price must be positive")
	}

	executedPrice := b.executedPrice(order.Side, referencePrice)
	quantity := order.Quantity

	switch order.Side {
	case types.SideSell:
		held := snapshot.Position(order.Symbol).Quantity
		if held <= 0 {
			return nil, b.reject(order, types.RejectionReasonNoPosition, "no position to sell")
		}

		// Oversized sells clip to the held quantity rather than rejecting.
		if quantity > held {
			quantity = held
		}

	case types.SideBuy:
		cost := quantity*executedPrice + b.commission.Calculate(quantity, executedPrice)
		if cost > snapshot.Cash {
			if b.policy == OversizedOrderPolicyReject {
				return nil, b.reject(order, types.RejectionReasonInsufficientCash, "order cost exceeds available cash")
			}

			quantity = b.maxAffordableQuantity(snapshot.Cash, executedPrice)
			if quantity <= 0 {
				return nil, b.reject(order, types.RejectionReasonInsufficientCash, "no affordable quantity at current price")
			}
		}
	}

	fill := &types.Fill{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Time:         order.Time,
		Side:         order.Side,
		Quantity:     quantity,
		Price:        executedPrice,
		Commission:   b.commission.Calculate(quantity, executedPrice),
		SlippageCost: quantity * referencePrice * b.slippageRate,
	}

	return fill, nil
}

// executedPrice applies the slippage adjustment against the order direction.
func (b *SimulatedBroker) executedPrice(side types.Side, referencePrice float64) float64 {
	if side == types.SideBuy {
		return referencePrice * (1 + b.slippageRate)
	}

	return referencePrice * (1 - b.slippageRate)
}

// maxAffordableQuantity finds the largest quantity whose notional plus
// commission fits within cash. Starts from the commission-free estimate and
// scales down until the total cost fits; converges in one step for
// notional-proportional commission models.
func (b *SimulatedBroker) maxAffordableQuantity(cash float64, price float64) float64 {
	if price <= 0 || cash <= 0 {
		return 0
	}

	quantity := cash / price

	for i := 0; i < 10; i++ {
		total := quantity*price + b.commission.Calculate(quantity, price)
		if total <= cash {
			break
		}

		quantity *= cash / total
	}

	if quantity*price+b.commission.Calculate(quantity, price) > cash {
		return 0
	}

	return quantity
}

func (b *SimulatedBroker) reject(order types.Order, reason types.RejectionReason, message string) *types.Rejection {
	b.logger.Debug("Order rejected",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("reason", string(reason)),
	)

	return &types.Rejection{
		Order:   order,
		Reason:  reason,
		Message: message,
	}
}
