package commission

// Fractional charges a fixed fraction of the executed notional value.
type Fractional struct {
	rate float64
}

// NewFractional creates a fractional commission model with the given rate,
// e.g. 0.001 for 0.1% of notional.
func NewFractional(rate float64) Model {
	return &Fractional{rate: rate}
}

// Calculate implements Model.
func (f *Fractional) Calculate(quantity float64, price float64) float64 {
	return f.rate * quantity * price
}
