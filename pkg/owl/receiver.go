package owl

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DEFAULT_TIMEOUT = 60 * time.Second

	ReasonBind         = "bind"
	ReasonTimeout      = "timeout"
	ReasonParse        = "parse"
	ReasonUnknownClass = "unknown_class"
)

// Instrument receives acquisition events, e.g. to feed metrics.
type Instrument struct {
	RecordDatagram func(snapshot *Snapshot)
	RecordError    func(reason string)
}

// receiver holds what the listener and the poller share: where to bind, how
// long to wait, and how to ingest and report a datagram.
type receiver struct {
	addr       string
	timeout    time.Duration
	store      *Store
	logger     *zap.Logger
	instrument []Instrument
	now        func() time.Time
}

func newReceiver(addr string, timeout time.Duration, store *Store, logger *zap.Logger, instrumentation *Instrument) receiver {
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	var inst []Instrument
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}
	return receiver{
		addr:       addr,
		timeout:    timeout,
		store:      store,
		logger:     logger.With(zap.String("addr", addr)),
		instrument: inst,
		now:        time.Now,
	}
}

func (r *receiver) handle(payload []byte) (*Snapshot, error) {
	snapshot, err := r.store.Ingest(payload, r.now())
	if err != nil {
		r.report(err)
		return nil, err
	}
	r.logger.Debug("owl: datagram stored",
		zap.Stringer("class", snapshot.Class()),
		zap.Stringer("schema", snapshot.Schema()))
	for i := range r.instrument {
		if r.instrument[i].RecordDatagram != nil {
			r.instrument[i].RecordDatagram(snapshot)
		}
	}
	return snapshot, nil
}

// report logs an acquisition error at the level its kind deserves.
func (r *receiver) report(err error) {
	var (
		bindErr    *BindError
		timeoutErr *TimeoutError
		parseErr   *ParseError
		unknownErr *UnknownClassError
		reason     string
	)
	switch {
	case errors.As(err, &bindErr):
		reason = ReasonBind
		r.logger.Error("owl: unable to bind", zap.Error(bindErr.Err))
	case errors.As(err, &timeoutErr):
		reason = ReasonTimeout
		r.logger.Warn("owl: timeout waiting for data", zap.Duration("timeout", timeoutErr.Timeout))
	case errors.As(err, &parseErr):
		reason = ReasonParse
		r.logger.Error("owl: unable to parse received data", zap.Error(parseErr.Err), zap.ByteString("payload", parseErr.Payload))
	case errors.As(err, &unknownErr):
		reason = ReasonUnknownClass
		r.logger.Warn("owl: unsupported type in data", zap.String("type", unknownErr.Tag))
	default:
		r.logger.Error("owl: receive failed", zap.Error(err))
		return
	}
	for i := range r.instrument {
		if r.instrument[i].RecordError != nil {
			r.instrument[i].RecordError(reason)
		}
	}
}
