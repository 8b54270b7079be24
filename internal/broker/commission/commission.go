// Package commission models the commission side of the execution cost model.
package commission

// Model calculates the commission charged for executing an order. Commission
// is always a cost, never a rebate.
type Model interface {
	// Calculate returns the commission in account currency for executing
	// quantity units at the given price.
	Calculate(quantity float64, price float64) float64
}
