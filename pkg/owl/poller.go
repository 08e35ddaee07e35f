package owl

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Poller binds a socket on demand, waits for one datagram and releases the
// socket again. Calls are throttled: within the minimum interval a call does
// not touch the network and returns the previous result.
type Poller struct {
	receiver

	limiter *rate.Limiter

	mu       sync.Mutex
	last     *Snapshot
	lastErr  error
	receives int
}

func NewPoller(addr string, timeout, minInterval time.Duration, store *Store, logger *zap.Logger, instrumentation *Instrument) *Poller {
	return &Poller{
		receiver: newReceiver(addr, timeout, store, logger, instrumentation),
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Poll performs at most one receive per throttle window. It returns the
// stored snapshot, or the error that prevented storing one.
func (p *Poller) Poll(ctx context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.limiter.AllowN(p.now(), 1) {
		return p.last, p.lastErr
	}
	p.receives++
	p.last, p.lastErr = p.receive(ctx)
	return p.last, p.lastErr
}

// Receives counts the polls that actually went to the network.
func (p *Poller) Receives() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.receives
}

func (p *Poller) receive(ctx context.Context) (*Snapshot, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", p.addr)
	if err != nil {
		bindErr := &BindError{Addr: p.addr, Err: err}
		p.report(bindErr)
		return nil, bindErr
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		p.report(err)
		return nil, err
	}

	buf := make([]byte, MaxDatagramSize)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			timeoutErr := &TimeoutError{Addr: p.addr, Timeout: p.timeout}
			p.report(timeoutErr)
			return nil, timeoutErr
		}
		p.report(err)
		return nil, err
	}
	return p.handle(buf[:n])
}

// RefreshInterval estimates the throttle window from the number of device
// classes in use: each module broadcasts every 60 seconds.
func RefreshInterval(classes int) time.Duration {
	if classes < 1 {
		classes = 1
	}
	return 60*time.Second/time.Duration(classes) - 2*time.Second
}
