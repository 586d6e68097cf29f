// Package session manages connected trading sessions: the per-connection
// read/dispatch loop over the line protocol, and the trade broadcaster that
// fans sweep results out to every live session. It is the external
// collaborator the matching core hands trades to, kept deliberately outside
// the core's own scope since the core's match-sweep output is just a plain
// slice of trades with nowhere else to go.
package session

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"

	"github.com/xiangquhaibian2023/limitbook/internal/match"
	"github.com/xiangquhaibian2023/limitbook/internal/wire"
)

// outboxCapacity bounds how many queued messages a slow session can
// accumulate before the broadcaster starts dropping its oldest queued
// messages rather than blocking.
const outboxCapacity = 256

// Session is one connected trading client. ID is an opaque per-connection
// identifier used for logging and broadcaster bookkeeping. ClientID is the
// plain integer tag handed to the core on every submitted order: the server
// hands out one per accepted connection, incrementing, never reused.
type Session struct {
	ID       xid.ID
	ClientID int64
	conn     net.Conn
	out      chan string
	done     chan struct{}
}

func newSession(conn net.Conn, clientID int64) *Session {
	return &Session{
		ID:       xid.New(),
		ClientID: clientID,
		conn:     conn,
		out:      make(chan string, outboxCapacity),
		done:     make(chan struct{}),
	}
}

// respond queues a direct response to the session's own command. Unlike
// deliverTrade, it never drops anything: it waits for room in the outbox.
// Once queued, a response shares the outbox with trade prints, so a later
// deliverTrade on a full outbox can still evict it.
func (s *Session) respond(msg string) {
	select {
	case s.out <- msg:
	case <-s.done:
	}
}

// deliverTrade queues a broadcast trade print, dropping the oldest queued
// message if the session's outbox is full rather than blocking the caller
// (the matching driver).
func (s *Session) deliverTrade(msg string) {
	for {
		select {
		case s.out <- msg:
			return
		case <-s.done:
			return
		default:
		}

		select {
		case <-s.out:
		default:
		}
	}
}

// close unblocks writeLoop and any pending respond/deliverTrade calls. Safe
// to call more than once.
func (s *Session) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	_ = s.conn.Close()
}

// writeLoop drains the outbox to the connection. A write failure closes the
// connection, which ends Serve's read loop and with it the session.
func (s *Session) writeLoop() {
	w := bufio.NewWriter(s.conn)
	for {
		select {
		case msg := <-s.out:
			if _, err := w.WriteString(msg + "\n"); err != nil {
				_ = s.conn.Close()
				return
			}
			if err := w.Flush(); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Broadcaster fans trade prints out to every live session. Registration
// happens from each connection's own goroutine; Broadcast runs on the
// matching driver's goroutine. A plain RWMutex serializes the two.
type Broadcaster struct {
	mu         sync.RWMutex
	sessions   map[xid.ID]*Session
	nextClient atomic.Int64
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sessions: make(map[xid.ID]*Session)}
}

// NextClientID hands out the next integer client id, starting at 1. Client
// ids are scoped to the server process, not persisted across restarts.
func (b *Broadcaster) NextClientID() int64 {
	return b.nextClient.Add(1)
}

func (b *Broadcaster) register(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[s.ID] = s
}

func (b *Broadcaster) unregister(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, s.ID)
}

// Broadcast delivers every trade in order to every currently connected
// session, as TRADE <bid_id> <ask_id> <qty> <price>. There is no per-session
// filtering, acknowledgement, or backpressure on the caller: a slow receiver
// drops its oldest queued message instead of stalling this call.
func (b *Broadcaster) Broadcast(trades []match.Trade) {
	if len(trades) == 0 {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sess := range b.sessions {
		for _, tr := range trades {
			sess.deliverTrade(wire.FormatTrade(tr.BidOrderID, tr.AskOrderID, tr.Quantity, tr.Price))
		}
	}
}

// Count returns the number of currently registered sessions, for tests and
// diagnostics.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}
