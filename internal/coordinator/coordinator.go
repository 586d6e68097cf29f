// Package coordinator is the synchronization envelope around the order
// book: the "Book Coordinator" of the design. It owns the single mutual-
// exclusion region that serializes every mutation and query, and exposes the
// public operations the line-protocol front-end and the matching driver
// call into.
package coordinator

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xiangquhaibian2023/limitbook/internal/book"
	"github.com/xiangquhaibian2023/limitbook/internal/match"
)

var (
	// ErrInvalidArgument is returned by Submit when quantity or price is
	// not strictly positive. The book is left unchanged.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned by Cancel when the order id is unknown:
	// never issued, already fully filled, or already cancelled.
	ErrNotFound = errors.New("not found")
)

// Status is the (n_orders, n_bid_levels, n_ask_levels) triple for STATUS.
type Status struct {
	Orders    int
	BidLevels int
	AskLevels int
}

// Depth is the aggregated book snapshot: non-empty levels on each side,
// bids sorted descending, asks ascending.
type Depth struct {
	Bids []book.DepthLevel
	Asks []book.DepthLevel
}

// Coordinator serializes all access to a single-instrument order book.
// Every exported method acquires the mutex for its duration and releases it
// on every exit path, including panics raised by invariant violations
// elsewhere in the call. No operation here suspends while holding it, and
// there is no nested acquisition.
type Coordinator struct {
	mu   sync.Mutex
	book *book.Book
}

// New creates a Coordinator guarding a fresh, empty order book.
func New() *Coordinator {
	return &Coordinator{book: book.New()}
}

// Submit validates and inserts a new resting limit order, returning its
// assigned id. Orders that fail validation never consume an id.
func (c *Coordinator) Submit(side book.Side, quantity int64, price decimal.Decimal, clientID int64) (uint64, error) {
	if quantity <= 0 || !price.IsPositive() {
		return 0, ErrInvalidArgument
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.book.AssignOrderID()
	c.book.Insert(&book.Order{
		ID:       id,
		Side:     side,
		Price:    price,
		Quantity: quantity,
		ClientID: clientID,
	})
	return id, nil
}

// Cancel removes a resting order by id. Any session may cancel any id: the
// core performs no authentication or client-scoping of cancellation.
func (c *Coordinator) Cancel(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.book.RemoveByID(id); !ok {
		return ErrNotFound
	}
	return nil
}

// MatchSweep runs the matching algorithm to quiescence and returns every
// trade it produced, in the order produced.
func (c *Coordinator) MatchSweep() []match.Trade {
	c.mu.Lock()
	defer c.mu.Unlock()

	return match.Sweep(c.book)
}

// Snapshot returns the current aggregated depth of the book. Two calls with
// no intervening mutation return equal results.
func (c *Coordinator) Snapshot() Depth {
	c.mu.Lock()
	defer c.mu.Unlock()

	bids, asks := c.book.Snapshot()
	return Depth{Bids: bids, Asks: asks}
}

// Status returns order and price-level counts for the STATUS command.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Orders:    c.book.OrderCount(),
		BidLevels: c.book.LevelCount(book.Buy),
		AskLevels: c.book.LevelCount(book.Sell),
	}
}
