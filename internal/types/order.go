package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/quantbt/quantbt/pkg/errors"
)

type Side string

type OrderKind string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderKindMarket OrderKind = "MARKET"
)

// Order is a single-date trading instruction emitted by a strategy. It is
// consumed exactly once by the broker, which answers with either a Fill or a
// Rejection.
type Order struct {
	ID       string    `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Symbol   string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Time     time.Time `yaml:"time" json:"time" csv:"time" validate:"required"`
	Side     Side      `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity float64   `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	Kind     OrderKind `yaml:"kind" json:"kind" csv:"kind" validate:"required,oneof=MARKET"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// Fill is an executed order. Price is the executed price after the slippage
// adjustment, which is always unfavorable to the trader: buys fill above the
// reference price, sells below it.
type Fill struct {
	OrderID      string    `yaml:"order_id" json:"order_id" csv:"order_id"`
	Symbol       string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Time         time.Time `yaml:"time" json:"time" csv:"time"`
	Side         Side      `yaml:"side" json:"side" csv:"side"`
	Quantity     float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price        float64   `yaml:"price" json:"price" csv:"price"`
	Commission   float64   `yaml:"commission" json:"commission" csv:"commission"`
	SlippageCost float64   `yaml:"slippage_cost" json:"slippage_cost" csv:"slippage_cost"`
}

// Notional returns the executed value of the fill, excluding commission.
func (f Fill) Notional() float64 {
	return f.Quantity * f.Price
}

// CashDelta returns the signed change this fill makes to portfolio cash:
// negative for buys (notional plus commission), positive for sells (notional
// minus commission).
func (f Fill) CashDelta() float64 {
	if f.Side == SideBuy {
		return -(f.Notional() + f.Commission)
	}

	return f.Notional() - f.Commission
}

type RejectionReason string

const (
	RejectionReasonInsufficientCash RejectionReason = "insufficient_cash"
	RejectionReasonNoPosition       RejectionReason = "no_position"
	RejectionReasonInvalidPrice     RejectionReason = "invalid_price"
	RejectionReasonZeroQuantity     RejectionReason = "zero_quantity"
	RejectionReasonInvalidOrder     RejectionReason = "invalid_order"
)

// Rejection records an order the broker declined. Rejections are reported,
// never raised: the simulation continues and the rejection log is surfaced
// alongside the result for auditing.
type Rejection struct {
	Order   Order           `yaml:"order" json:"order"`
	Reason  RejectionReason `yaml:"reason" json:"reason"`
	Message string          `yaml:"message" json:"message"`
}
