// Package broker converts orders into fills by applying the execution cost
// model: slippage, then commission, then affordability checks.
package broker

import (
	"github.com/quantbt/quantbt/internal/types"
)

// OversizedOrderPolicy decides what happens to a buy order whose cost exceeds
// available cash.
type OversizedOrderPolicy string

const (
	// OversizedOrderPolicyClip sizes the order down to the maximum affordable
	// quantity. This is the default.
	OversizedOrderPolicyClip OversizedOrderPolicy = "clip"
	// OversizedOrderPolicyReject rejects the order outright.
	OversizedOrderPolicyReject OversizedOrderPolicy = "reject"
)

// Broker executes one order against a portfolio snapshot, producing exactly
// one fill or one rejection. Implementations hold no portfolio state and keep
// their cost-model parameters fixed for the length of a run.
type Broker interface {
	// Execute fills or rejects the order at the given reference price.
	// Exactly one of the returned values is non-nil.
	Execute(order types.Order, referencePrice float64, snapshot types.PortfolioSnapshot) (*types.Fill, *types.Rejection)
}
