package book

import "github.com/shopspring/decimal"

// Side identifies which side of the book an order rests on.
type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Order is a single resting limit order.
//
// next/prev are intrusive FIFO pointers within the owning PriceLevel's
// queue; they are valid only while the order rests in the book.
type Order struct {
	ID       uint64
	Side     Side
	Price    decimal.Decimal
	Quantity int64
	ClientID int64

	next, prev *Order
}
