package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/owl2mqtt/internal/config"
	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/internal/util/actorutil"
	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// OwlActor owns the UDP acquisition path and the Store it feeds. In listen
// mode a Listener runs for the whole life of the actor, in poll mode every
// AcquireRequest performs a throttled receive.
type OwlActor struct {
	config     *config.Config
	behavior   actor.Behavior
	stash      *actorutil.Stash
	scheduler  *scheduler.TimerScheduler
	store      *owl.Store
	instrument *owl.Instrument

	listener      *owl.Listener
	listening     bool
	listenerErr   error
	poller        *owl.Poller
	pollErr       error
	runCtx        context.Context
	cancelRun     context.CancelFunc
	pendingPolled []*actor.PID

	logger *zap.Logger
}

type startListening struct {
}

type listenerStopped struct {
	Listener *owl.Listener
	Error    error
}

type pollResult struct {
	Error error
}

func NewOwlActor(config *config.Config, store *owl.Store, instrument *owl.Instrument, logger *zap.Logger) *OwlActor {
	act := &OwlActor{
		config:     config,
		store:      store,
		instrument: instrument,
		behavior:   actor.NewBehavior(),
		stash:      &actorutil.Stash{},
		logger:     actorutil.ActorLogger(domain.ACTOR_ID_OWL, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *OwlActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *OwlActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("owl@starting started", zap.String("acquisition", state.config.Owl.Acquisition))
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.runCtx, state.cancelRun = context.WithCancel(context.Background())

		addr := state.config.Owl.Addr()
		if state.config.Owl.Acquisition == config.ACQUISITION_POLL {
			state.poller = owl.NewPoller(addr, state.config.Owl.Timeout(), state.config.Owl.MinInterval(),
				state.store, state.logger, state.instrument)
			state.behavior.Become(state.PollReceive)
		} else {
			state.listener = owl.NewListener(addr, state.config.Owl.Timeout(), state.store, state.logger, state.instrument)
			ctx.Send(ctx.Self(), startListening{})
			state.behavior.Become(state.ListenReceive)
		}
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("owl@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *OwlActor) ListenReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case startListening:
		if state.listening {
			return
		}
		state.logger.Debug("owl@listen start")
		state.listening = true
		root := ctx.ActorSystem().Root
		self := ctx.Self()
		listener := state.listener
		runCtx := state.runCtx
		go func() {
			err := listener.Run(runCtx)
			root.Send(self, listenerStopped{Listener: listener, Error: err})
		}()
	case listenerStopped:
		// stale notification of a previous incarnation
		if msg.Listener != state.listener || state.runCtx.Err() != nil {
			return
		}
		state.listening = false
		state.listenerErr = msg.Error
		if msg.Error == nil {
			msg.Error = errors.New("listener stopped")
		}
		retry := state.config.Owl.RetryInterval()
		state.logger.Warn("owl@listen stopped, retrying", zap.Error(msg.Error), zap.Duration("retry", retry))
		state.scheduler.SendOnce(retry, ctx.Self(), startListening{})
	case domain.AcquireRequest:
		// data flows in on its own
		actorutil.ForRequest(msg).Respond(ctx, domain.AcquireResponse{})
	case domain.GetDeviceInfoRequest:
		actorutil.ForRequest(msg).Respond(ctx, state.deviceInfo())
	case domain.ActorHealthRequest:
		state.logger.Debug("owl@listen ActorHealthRequest")
		bound := state.listener.LocalAddr() != nil
		resp := domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_OWL,
			Healthy: bound,
			State:   "listening",
		}
		if !bound {
			resp.State = "binding"
			resp.ResponseError = state.listenerErr
		}
		ctx.Respond(resp)
	case *actor.Stopping:
		state.stop()
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("owl@listen default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *OwlActor) PollReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.AcquireRequest:
		state.logger.Debug("owl@poll AcquireRequest")
		state.pendingPolled = append(state.pendingPolled, actorutil.ForRequest(msg).ReplyTo(ctx))
		state.startPoll(ctx)
		state.behavior.BecomeStacked(state.WaitingPollReceive)
	case domain.GetDeviceInfoRequest:
		actorutil.ForRequest(msg).Respond(ctx, state.deviceInfo())
	case domain.ActorHealthRequest:
		ctx.Respond(state.pollHealth())
	case *actor.Stopping:
		state.stop()
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("owl@poll default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *OwlActor) WaitingPollReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case pollResult:
		state.logger.Debug("owl@waitingPoll pollResult", zap.Error(msg.Error))
		state.pollErr = msg.Error
		for _, pid := range state.pendingPolled {
			if pid != nil {
				ctx.Send(pid, domain.AcquireResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: msg.Error,
					},
				})
			}
		}
		state.pendingPolled = nil
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.AcquireRequest:
		// answered together with the receive in flight
		state.pendingPolled = append(state.pendingPolled, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.GetDeviceInfoRequest:
		actorutil.ForRequest(msg).Respond(ctx, state.deviceInfo())
	case domain.ActorHealthRequest:
		ctx.Respond(state.pollHealth())
	case *actor.Stopping:
		state.stop()
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("owl@waitingPoll stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *OwlActor) startPoll(ctx actor.Context) {
	poller := state.poller
	runCtx := state.runCtx
	actorutil.NewBackgroundTask(ctx, func() (*pollResult, error) {
		_, err := poller.Poll(runCtx)
		return &pollResult{Error: err}, nil
	}).Recover(func(err error) pollResult {
		return pollResult{Error: err}
	}).WithTimeout(state.config.Owl.Timeout() + 2*time.Second).PipeTo(ctx.Self())
}

func (state *OwlActor) pollHealth() domain.ActorHealthResponse {
	var bindErr *owl.BindError
	healthy := !errors.As(state.pollErr, &bindErr)
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_OWL,
		Healthy: healthy,
		State:   "polling",
	}
	if !healthy {
		resp.ResponseError = state.pollErr
	}
	return resp
}

// deviceInfo reports the gateway id, preferring the electricity monitor.
func (state *OwlActor) deviceInfo() domain.GetDeviceInfoResponse {
	if s, ok := state.store.Get(owl.ClassElectricity); ok && s.DeviceId() != "" {
		return domain.GetDeviceInfoResponse{DeviceId: s.DeviceId()}
	}
	for _, s := range state.store.Snapshots() {
		if s.DeviceId() != "" {
			return domain.GetDeviceInfoResponse{DeviceId: s.DeviceId()}
		}
	}
	return domain.GetDeviceInfoResponse{}
}

func (state *OwlActor) stop() {
	state.logger.Debug("owl: stop")
	if state.cancelRun != nil {
		state.cancelRun()
	}
}
