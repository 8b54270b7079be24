package commission

// PerShare charges a fixed amount per unit with a minimum per order, the way
// retail equity brokers commonly price.
type PerShare struct {
	perShare float64
	minimum  float64
}

// NewPerShare creates a per-share commission model.
func NewPerShare(perShare float64, minimum float64) Model {
	return &PerShare{
		perShare: perShare,
		minimum:  minimum,
	}
}

// Calculate implements Model.
func (p *PerShare) Calculate(quantity float64, price float64) float64 {
	fee := p.perShare * quantity
	if fee < p.minimum {
		return p.minimum
	}

	return fee
}
