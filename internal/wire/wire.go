// Package wire implements the ASCII, space-delimited line protocol spoken
// between a trading session and the matching engine: command parsing and
// response formatting. It knows nothing about the book or the coordinator:
// it only translates between wire bytes and plain Go values.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xiangquhaibian2023/limitbook/internal/book"
)

// ErrProtocol is returned by Parse when a line cannot be decoded into a
// known command shape (wrong argument count, unparseable number). It is
// surfaced by the front-end, never by the core.
var ErrProtocol = errors.New("protocol error")

// Kind identifies which command a parsed Command carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindBuy
	KindSell
	KindCancel
	KindStatus
)

// Command is one parsed client request.
type Command struct {
	Kind     Kind
	Quantity int64
	Price    decimal.Decimal
	OrderID  uint64

	// Raw carries the first token of an unrecognized command, for the
	// "Unknown command: <cmd>" response.
	Raw string
}

// Parse decodes a single line of the wire protocol. An unrecognized command
// word yields Kind: KindUnknown, not an error: it is a normal ERROR
// response case, not a transport fault. Malformed arguments to a
// recognized command return ErrProtocol.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrProtocol
	}

	switch strings.ToUpper(fields[0]) {
	case "BUY", "SELL":
		if len(fields) != 3 {
			return Command{}, ErrProtocol
		}
		qty, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Command{}, ErrProtocol
		}
		price, err := decimal.NewFromString(fields[2])
		if err != nil {
			return Command{}, ErrProtocol
		}
		kind := KindBuy
		if strings.ToUpper(fields[0]) == "SELL" {
			kind = KindSell
		}
		return Command{Kind: kind, Quantity: qty, Price: price}, nil

	case "CANCEL":
		if len(fields) != 2 {
			return Command{}, ErrProtocol
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return Command{}, ErrProtocol
		}
		return Command{Kind: KindCancel, OrderID: id}, nil

	case "STATUS":
		if len(fields) != 1 {
			return Command{}, ErrProtocol
		}
		return Command{Kind: KindStatus}, nil

	default:
		return Command{Kind: KindUnknown, Raw: fields[0]}, nil
	}
}

// FormatOrderAccepted renders the success response to BUY/SELL.
func FormatOrderAccepted(id uint64) string {
	return fmt.Sprintf("ORDER_ACCEPTED %d", id)
}

// FormatCancelAccepted renders the success response to CANCEL.
func FormatCancelAccepted(id uint64) string {
	return fmt.Sprintf("CANCEL_ACCEPTED %d", id)
}

// FormatStatus renders the response to STATUS.
func FormatStatus(orders, bidLevels, askLevels int) string {
	return fmt.Sprintf("STATUS Orders: %d, Bid levels: %d, Ask levels: %d", orders, bidLevels, askLevels)
}

// FormatError renders a failure response.
func FormatError(reason string) string {
	return "ERROR " + reason
}

// FormatUnknownCommand renders the response to an unrecognized command.
func FormatUnknownCommand(cmd string) string {
	return "ERROR Unknown command: " + cmd
}

// FormatTrade renders a broadcast trade print.
func FormatTrade(bidOrderID, askOrderID uint64, quantity int64, price decimal.Decimal) string {
	return fmt.Sprintf("TRADE %d %d %d %s", bidOrderID, askOrderID, quantity, price.String())
}

// SideOf maps a parsed Kind to a book.Side. Callers must only invoke this
// for KindBuy/KindSell commands.
func SideOf(k Kind) book.Side {
	if k == KindBuy {
		return book.Buy
	}
	return book.Sell
}
