package owl

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Listener keeps a UDP socket bound and stores every datagram as it arrives.
type Listener struct {
	receiver

	mu   sync.Mutex
	conn net.PacketConn
}

func NewListener(addr string, timeout time.Duration, store *Store, logger *zap.Logger, instrumentation *Instrument) *Listener {
	return &Listener{
		receiver: newReceiver(addr, timeout, store, logger, instrumentation),
	}
}

// Run binds the socket and ingests datagrams until ctx is done, in which case
// it returns nil. A failed bind returns a *BindError; any other socket error
// is returned as is. The socket is closed on every return path.
func (l *Listener) Run(ctx context.Context) error {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", l.addr)
	if err != nil {
		bindErr := &BindError{Addr: l.addr, Err: err}
		l.report(bindErr)
		return bindErr
	}
	defer conn.Close()
	l.setConn(conn)
	defer l.setConn(nil)

	// unblock ReadFrom on shutdown
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	l.logger.Info("owl: listening for datagrams")

	buf := make([]byte, MaxDatagramSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(l.timeout)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				l.report(&TimeoutError{Addr: l.addr, Timeout: l.timeout})
				continue
			}
			l.report(err)
			return err
		}
		// errors are already reported and leave the store untouched
		_, _ = l.handle(buf[:n])
	}
}

// LocalAddr returns the bound address while Run is active, nil otherwise.
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

func (l *Listener) setConn(conn net.PacketConn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}
