// Command matchengine runs the trading server: it listens for line-protocol
// connections, accepts BUY/SELL/CANCEL/STATUS commands against a single
// in-memory order book, and periodically sweeps the book for matches,
// broadcasting any trades it finds to every connected session.
package main

import (
	"flag"
	"net"
	"time"

	"github.com/xiangquhaibian2023/limitbook/internal/applog"
	"github.com/xiangquhaibian2023/limitbook/internal/coordinator"
	"github.com/xiangquhaibian2023/limitbook/internal/eventbus"
	"github.com/xiangquhaibian2023/limitbook/internal/match"
	"github.com/xiangquhaibian2023/limitbook/internal/session"
)

// tradeBatchBufferSize bounds how many sweep results may be in flight
// between the match loop and the broadcast consumer. It must be a power
// of two (eventbus.RingBuffer requirement).
const tradeBatchBufferSize = 1024

// broadcastHandler adapts session.Broadcaster to eventbus.EventHandler so
// the ring buffer's consumer goroutine can drive it.
type broadcastHandler struct {
	broadcaster *session.Broadcaster
}

func (h broadcastHandler) OnEvent(trades []match.Trade) {
	h.broadcaster.Broadcast(trades)
}

func main() {
	addr := flag.String("addr", ":12345", "address to listen on")
	sweepInterval := flag.Duration("sweep-interval", 100*time.Millisecond, "matching sweep cadence")
	flag.Parse()

	log := applog.Logger()

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Error("listen failed", "addr", *addr, "error", err)
		return
	}
	defer listener.Close()

	coord := coordinator.New()
	broadcaster := session.NewBroadcaster()

	tradeBus := eventbus.NewRingBuffer[[]match.Trade](tradeBatchBufferSize, broadcastHandler{broadcaster: broadcaster})
	tradeBus.Start()

	go runMatchLoop(coord, tradeBus, *sweepInterval)

	log.Info("trading server started", "addr", *addr, "sweep_interval", sweepInterval.String())
	acceptConnections(listener, coord, broadcaster)
}

// acceptConnections runs the accept loop. Any accept error, transient or
// not, is logged and ends the loop, which returns from main and stops the
// server.
func acceptConnections(listener net.Listener, coord *coordinator.Coordinator, broadcaster *session.Broadcaster) {
	log := applog.Logger()
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Error("accept failed", "error", err)
			return
		}
		go session.Serve(conn, coord, broadcaster)
	}
}

// runMatchLoop sweeps the book for matches at a fixed cadence and publishes
// whatever trades each sweep produces onto tradeBus, which drains them to
// the broadcaster on its own goroutine. This is the sole goroutine that
// drives matching; sessions only submit and cancel orders. A slow broadcast
// consumer makes this loop wait only once all tradeBatchBufferSize slots
// hold unconsumed batches.
func runMatchLoop(coord *coordinator.Coordinator, tradeBus *eventbus.RingBuffer[[]match.Trade], interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := applog.Logger()
	for range ticker.C {
		trades := coord.MatchSweep()
		if len(trades) == 0 {
			continue
		}
		log.Info("sweep produced trades", "count", len(trades))
		tradeBus.Publish(trades)
	}
}
