package book

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// PriceLevel holds every resting order at a single (side, price) pair,
// queued in arrival order. head is the earliest order and wins ties within
// the level (price-time priority).
type PriceLevel struct {
	Price        decimal.Decimal
	AggregateQty int64
	Count        int

	head, tail *Order
	elem       *skiplist.Element // this level's element in its side's skiplist
}

// pushBack appends an order to the tail of the level's FIFO queue.
func (l *PriceLevel) pushBack(o *Order) {
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	}
	l.tail = o
	if l.head == nil {
		l.head = o
	}
	l.Count++
}

// unlink removes an order from anywhere in the level's FIFO queue.
func (l *PriceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next, o.prev = nil, nil
	l.Count--
}

// ReduceAggregate decrements the level's aggregate quantity by qty. Callers
// (the matching engine) are responsible for keeping it in lockstep with the
// head order's quantity during a fill.
func (l *PriceLevel) ReduceAggregate(qty int64) {
	l.AggregateQty -= qty
}

// Empty reports whether the level has no resting orders left.
func (l *PriceLevel) Empty() bool {
	return l.Count == 0
}
