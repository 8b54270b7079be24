package commission

// Zero implements Model with no commission.
type Zero struct{}

// NewZero creates a zero commission model.
func NewZero() Model {
	return &Zero{}
}

// Calculate implements Model.
func (z *Zero) Calculate(quantity float64, price float64) float64 {
	return 0.0
}
