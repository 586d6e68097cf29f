package session

import (
	"bufio"
	"net"

	"github.com/xiangquhaibian2023/limitbook/internal/applog"
	"github.com/xiangquhaibian2023/limitbook/internal/coordinator"
	"github.com/xiangquhaibian2023/limitbook/internal/wire"
)

// Serve runs one client connection's read/dispatch loop until the peer
// closes the connection or a write fails. It registers the session with the
// broadcaster for the duration of the call and unregisters it on return.
// Transport errors terminate only this session; they do not affect the
// book or any other session.
func Serve(conn net.Conn, coord *coordinator.Coordinator, broadcaster *Broadcaster) {
	sess := newSession(conn, broadcaster.NextClientID())
	broadcaster.register(sess)
	defer func() {
		broadcaster.unregister(sess)
		sess.close()
	}()

	log := applog.Logger().With("session", sess.ID.String(), "client_id", sess.ClientID, "remote", conn.RemoteAddr().String())
	log.Info("session connected")

	go sess.writeLoop()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		dispatch(sess, coord, scanner.Text())
	}

	log.Info("session disconnected")
}

func dispatch(sess *Session, coord *coordinator.Coordinator, line string) {
	cmd, err := wire.Parse(line)
	if err != nil {
		sess.respond(wire.FormatError(err.Error()))
		return
	}

	switch cmd.Kind {
	case wire.KindBuy, wire.KindSell:
		id, err := coord.Submit(wire.SideOf(cmd.Kind), cmd.Quantity, cmd.Price, sess.ClientID)
		if err != nil {
			sess.respond(wire.FormatError(err.Error()))
			return
		}
		sess.respond(wire.FormatOrderAccepted(id))

	case wire.KindCancel:
		if err := coord.Cancel(cmd.OrderID); err != nil {
			sess.respond(wire.FormatError(err.Error()))
			return
		}
		sess.respond(wire.FormatCancelAccepted(cmd.OrderID))

	case wire.KindStatus:
		st := coord.Status()
		sess.respond(wire.FormatStatus(st.Orders, st.BidLevels, st.AskLevels))

	default:
		sess.respond(wire.FormatUnknownCommand(cmd.Raw))
	}
}
