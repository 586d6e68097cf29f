package session

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiangquhaibian2023/limitbook/internal/match"
)

func dialedSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	sess := newSession(server, 1)
	go sess.writeLoop()
	t.Cleanup(func() {
		sess.close()
		_ = client.Close()
	})
	return sess, client
}

func TestRespondDeliversToWriter(t *testing.T) {
	sess, client := dialedSession(t)
	sess.respond("ORDER_ACCEPTED 1")

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ORDER_ACCEPTED 1\n", line)
}

func TestDeliverTradeDropsOldestWhenFull(t *testing.T) {
	sess, client := dialedSession(t)
	_ = client // writeLoop drains sess.out; we never read here so it fills up

	for i := 0; i < outboxCapacity+10; i++ {
		sess.deliverTrade("TRADE filler")
	}
	// Never blocks and never panics: the outbox stays within capacity.
	assert.LessOrEqual(t, len(sess.out), outboxCapacity)
}

func TestCloseIsIdempotent(t *testing.T) {
	sess, _ := dialedSession(t)
	sess.close()
	sess.close()
}

func TestBroadcasterRegisterAndCount(t *testing.T) {
	b := NewBroadcaster()
	sess, _ := dialedSession(t)

	assert.Equal(t, 0, b.Count())
	b.register(sess)
	assert.Equal(t, 1, b.Count())
	b.unregister(sess)
	assert.Equal(t, 0, b.Count())
}

func TestBroadcasterNextClientIDIncrements(t *testing.T) {
	b := NewBroadcaster()
	assert.Equal(t, int64(1), b.NextClientID())
	assert.Equal(t, int64(2), b.NextClientID())
}

func TestBroadcastFansOutToAllSessions(t *testing.T) {
	b := NewBroadcaster()
	sessA, clientA := dialedSession(t)
	sessB, clientB := dialedSession(t)
	b.register(sessA)
	b.register(sessB)

	trades := []match.Trade{
		{BidOrderID: 1, AskOrderID: 2, Quantity: 5, Price: decimal.NewFromInt(100)},
	}
	b.Broadcast(trades)

	readLine := func(c net.Conn) string {
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		r := bufio.NewReader(c)
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		return line
	}

	assert.Equal(t, "TRADE 1 2 5 100\n", readLine(clientA))
	assert.Equal(t, "TRADE 1 2 5 100\n", readLine(clientB))
}

func TestBroadcastEmptyIsNoop(t *testing.T) {
	b := NewBroadcaster()
	sess, client := dialedSession(t)
	b.register(sess)

	b.Broadcast(nil)

	_ = client.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
	buf := make([]byte, 1)
	_, err := client.Read(buf)
	assert.Error(t, err) // deadline exceeded: nothing was written
}
