package coordinator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiangquhaibian2023/limitbook/internal/book"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Scenario 1: submit and rest.
func TestSubmitAndRest(t *testing.T) {
	c := New()

	id, err := c.Submit(book.Buy, 10, dec("100"), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	depth := c.Snapshot()
	require.Len(t, depth.Bids, 1)
	assert.True(t, depth.Bids[0].Price.Equal(dec("100")))
	assert.Equal(t, int64(10), depth.Bids[0].Quantity)
	assert.Empty(t, depth.Asks)

	status := c.Status()
	assert.Equal(t, Status{Orders: 1, BidLevels: 1, AskLevels: 0}, status)
}

// Scenario 2: simple cross, exact match.
func TestSimpleCrossExactMatch(t *testing.T) {
	c := New()

	buyID, err := c.Submit(book.Buy, 10, dec("100"), 1)
	require.NoError(t, err)
	sellID, err := c.Submit(book.Sell, 10, dec("100"), 2)
	require.NoError(t, err)

	trades := c.MatchSweep()
	require.Len(t, trades, 1)
	assert.Equal(t, buyID, trades[0].BidOrderID)
	assert.Equal(t, sellID, trades[0].AskOrderID)
	assert.Equal(t, int64(10), trades[0].Quantity)
	assert.True(t, trades[0].Price.Equal(dec("100")))

	assert.Equal(t, Status{Orders: 0, BidLevels: 0, AskLevels: 0}, c.Status())
}

// Scenario 3: partial fill, aggressor larger.
func TestPartialFillAggressorLarger(t *testing.T) {
	c := New()

	_, err := c.Submit(book.Sell, 5, dec("100"), 1)
	require.NoError(t, err)
	buyID, err := c.Submit(book.Buy, 12, dec("100"), 2)
	require.NoError(t, err)

	trades := c.MatchSweep()
	require.Len(t, trades, 1)
	assert.Equal(t, int64(5), trades[0].Quantity)
	assert.Equal(t, buyID, trades[0].BidOrderID)

	depth := c.Snapshot()
	require.Len(t, depth.Bids, 1)
	assert.Equal(t, int64(7), depth.Bids[0].Quantity)
}

// Scenario 4: walk the book.
func TestWalkTheBook(t *testing.T) {
	c := New()

	_, err := c.Submit(book.Sell, 3, dec("101"), 1)
	require.NoError(t, err)
	_, err = c.Submit(book.Sell, 4, dec("102"), 1)
	require.NoError(t, err)
	buyID, err := c.Submit(book.Buy, 6, dec("103"), 2)
	require.NoError(t, err)

	trades := c.MatchSweep()
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(dec("101")))
	assert.Equal(t, int64(3), trades[0].Quantity)
	assert.True(t, trades[1].Price.Equal(dec("102")))
	assert.Equal(t, int64(3), trades[1].Quantity)
	assert.Equal(t, buyID, trades[0].BidOrderID)
	assert.Equal(t, buyID, trades[1].BidOrderID)

	depth := c.Snapshot()
	assert.Empty(t, depth.Bids)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, int64(1), depth.Asks[0].Quantity)
}

// Scenario 5: FIFO within level.
func TestFIFOWithinLevelScenario(t *testing.T) {
	c := New()

	buy1, err := c.Submit(book.Buy, 5, dec("100"), 1)
	require.NoError(t, err)
	buy2, err := c.Submit(book.Buy, 5, dec("100"), 1)
	require.NoError(t, err)
	_, err = c.Submit(book.Sell, 5, dec("100"), 2)
	require.NoError(t, err)

	trades := c.MatchSweep()
	require.Len(t, trades, 1)
	assert.Equal(t, buy1, trades[0].BidOrderID)

	status := c.Status()
	assert.Equal(t, 1, status.Orders)

	assert.NoError(t, c.Cancel(buy2))
}

// Scenario 6: cancel.
func TestCancel(t *testing.T) {
	c := New()

	id, err := c.Submit(book.Buy, 10, dec("100"), 1)
	require.NoError(t, err)

	assert.NoError(t, c.Cancel(id))
	assert.ErrorIs(t, c.Cancel(id), ErrNotFound)

	depth := c.Snapshot()
	assert.Empty(t, depth.Bids)
	assert.Empty(t, depth.Asks)
}

// Scenario 7: invalid input.
func TestInvalidInputDoesNotConsumeID(t *testing.T) {
	c := New()

	_, err := c.Submit(book.Buy, 0, dec("100"), 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Submit(book.Buy, 10, dec("0"), 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, Status{}, c.Status())

	id, err := c.Submit(book.Buy, 10, dec("100"), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestSnapshotIdempotent(t *testing.T) {
	c := New()
	_, _ = c.Submit(book.Buy, 10, dec("100"), 1)
	_, _ = c.Submit(book.Sell, 5, dec("101"), 2)

	first := c.Snapshot()
	second := c.Snapshot()
	assert.Equal(t, first, second)
}
