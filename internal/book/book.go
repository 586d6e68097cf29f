// Package book implements the order-book data model: two price-indexed
// collections of resting orders (bids, asks) and an order-id index used for
// cancellation. It is the "Book Store" of the matching engine: all
// operations here are plain data-structure mutations with no synchronization
// of their own; the coordinator package serializes access to a *Book.
package book

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// sideBook is one side's ordered collection of price levels.
type sideBook struct {
	list   *skiplist.SkipList // price -> *PriceLevel, ordered best-first
	depths int
}

func newBidSide() *sideBook {
	return &sideBook{
		list: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			l := lhs.(decimal.Decimal)
			r := rhs.(decimal.Decimal)
			switch {
			case l.LessThan(r):
				return 1
			case l.GreaterThan(r):
				return -1
			default:
				return 0
			}
		})),
	}
}

func newAskSide() *sideBook {
	return &sideBook{
		list: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			l := lhs.(decimal.Decimal)
			r := rhs.(decimal.Decimal)
			switch {
			case l.GreaterThan(r):
				return 1
			case l.LessThan(r):
				return -1
			default:
				return 0
			}
		})),
	}
}

func (s *sideBook) best() (*PriceLevel, bool) {
	el := s.list.Front()
	if el == nil {
		return nil, false
	}
	return el.Value.(*PriceLevel), true
}

func (s *sideBook) levelAt(price decimal.Decimal) *PriceLevel {
	el := s.list.Get(price)
	if el == nil {
		return nil
	}
	return el.Value.(*PriceLevel)
}

func (s *sideBook) levelOrCreate(price decimal.Decimal) *PriceLevel {
	if l := s.levelAt(price); l != nil {
		return l
	}
	level := &PriceLevel{Price: price}
	level.elem = s.list.Set(price, level)
	s.depths++
	return level
}

func (s *sideBook) dropLevel(level *PriceLevel) {
	s.list.RemoveElement(level.elem)
	s.depths--
}

// Book is the two-sided order book for a single instrument.
type Book struct {
	bids *sideBook
	asks *sideBook

	ordersByID  map[uint64]*Order
	nextOrderID uint64
}

// New creates an empty order book.
func New() *Book {
	return &Book{
		bids:       newBidSide(),
		asks:       newAskSide(),
		ordersByID: make(map[uint64]*Order),
	}
}

func (b *Book) sideFor(side Side) *sideBook {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// AssignOrderID returns the next monotonically increasing order id. It is
// incremented before use, so the first id ever assigned is 1. Ids are never
// reused, including for orders that are never actually inserted.
func (b *Book) AssignOrderID() uint64 {
	b.nextOrderID++
	return b.nextOrderID
}

// Insert adds an order to the queue of its (side, price) level, creating the
// level if this is the first order resting at that price.
func (b *Book) Insert(o *Order) {
	level := b.sideFor(o.Side).levelOrCreate(o.Price)
	level.pushBack(o)
	level.AggregateQty += o.Quantity
	b.ordersByID[o.ID] = o
}

// RemoveByID removes a resting order by id, dropping its level if that was
// the level's last order. Reports false if the id is unknown.
func (b *Book) RemoveByID(id uint64) (*Order, bool) {
	o, ok := b.ordersByID[id]
	if !ok {
		return nil, false
	}

	side := b.sideFor(o.Side)
	level := side.levelAt(o.Price)
	level.unlink(o)
	level.AggregateQty -= o.Quantity
	delete(b.ordersByID, id)

	if level.Empty() {
		side.dropLevel(level)
	}

	return o, true
}

// PeekBest returns the best price level on the given side (the maximum
// price for BUY, the minimum price for SELL) without removing anything.
// It is O(1): the skiplist's front element is always the best price.
func (b *Book) PeekBest(side Side) (*PriceLevel, bool) {
	return b.sideFor(side).best()
}

// HeadOf returns the earliest-arrived order resting at level, or nil if the
// level is (unexpectedly) empty.
func (b *Book) HeadOf(level *PriceLevel) *Order {
	return level.head
}

// AdvanceHead evicts level's head order (the caller must have already
// reduced its quantity to zero) from the level's queue and from the id
// index, dropping the level itself if it is now empty.
func (b *Book) AdvanceHead(side Side, level *PriceLevel) {
	o := level.head
	if o == nil {
		return
	}
	level.unlink(o)
	delete(b.ordersByID, o.ID)

	if level.Empty() {
		b.sideFor(side).dropLevel(level)
	}
}

// OrderCount returns the number of orders currently resting in the book.
func (b *Book) OrderCount() int {
	return len(b.ordersByID)
}

// LevelCount returns the number of non-empty price levels on the given side.
func (b *Book) LevelCount(side Side) int {
	return b.sideFor(side).depths
}

// DepthLevel is one aggregated row of a Snapshot.
type DepthLevel struct {
	Price    decimal.Decimal
	Quantity int64
}

// Snapshot returns the aggregated depth of the book: bids sorted by
// descending price, asks sorted by ascending price. Two snapshots taken with
// no intervening mutation are equal.
func (b *Book) Snapshot() (bids, asks []DepthLevel) {
	bids = collect(b.bids)
	asks = collect(b.asks)
	return bids, asks
}

func collect(side *sideBook) []DepthLevel {
	out := make([]DepthLevel, 0, side.depths)
	for el := side.list.Front(); el != nil; el = el.Next() {
		level := el.Value.(*PriceLevel)
		out = append(out, DepthLevel{Price: level.Price, Quantity: level.AggregateQty})
	}
	return out
}
