// Package match implements the matching engine: the algorithm that sweeps
// an order book for crossing price levels and produces trade prints. It
// performs no I/O and holds no state of its own. Sweep's result depends
// only on the book it is given, which it mutates in place.
package match

import (
	"github.com/shopspring/decimal"

	"github.com/xiangquhaibian2023/limitbook/internal/book"
)

// Trade is one fill produced by a sweep. It always prints at the ask side's
// price, regardless of which side is the aggressor. No aggressor/resting
// pricing rule is applied.
type Trade struct {
	BidOrderID uint64
	AskOrderID uint64
	Quantity   int64
	Price      decimal.Decimal
}

// Sweep repeatedly pairs the best bid with the best ask while they cross,
// executing fills until the book no longer crosses. It always runs to
// quiescence before returning and returns every trade produced, in the
// order they were produced.
func Sweep(b *book.Book) []Trade {
	var trades []Trade

	for {
		bidLevel, okBid := b.PeekBest(book.Buy)
		askLevel, okAsk := b.PeekBest(book.Sell)
		if !okBid || !okAsk {
			return trades
		}
		if bidLevel.Price.LessThan(askLevel.Price) {
			return trades
		}

		bid := b.HeadOf(bidLevel)
		ask := b.HeadOf(askLevel)

		qty := bid.Quantity
		if ask.Quantity < qty {
			qty = ask.Quantity
		}
		price := askLevel.Price // always the ask side's price; see Trade doc comment

		trades = append(trades, Trade{
			BidOrderID: bid.ID,
			AskOrderID: ask.ID,
			Quantity:   qty,
			Price:      price,
		})

		bid.Quantity -= qty
		ask.Quantity -= qty
		bidLevel.ReduceAggregate(qty)
		askLevel.ReduceAggregate(qty)

		if bid.Quantity == 0 {
			b.AdvanceHead(book.Buy, bidLevel)
		}
		if ask.Quantity == 0 {
			b.AdvanceHead(book.Sell, askLevel)
		}
	}
}
