package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/owl2mqtt/internal/config"
	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/internal/core/events"
	"github.com/berfenger/owl2mqtt/internal/metrics"
	. "github.com/berfenger/owl2mqtt/internal/util/actorutil"
	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// SensorActor refreshes every configured sensor from the store on a fixed
// cycle and announces each resolved value on the event stream.
type SensorActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	owlActor    *actor.PID
	config      *config.Config
	store       *owl.Store
	metrics     *metrics.Metrics
	eventStream *eventstream.EventStream
	sensors     []*owl.Sensor

	logger *zap.Logger
}

type sensorsTick struct {
}

func NewSensorActor(config *config.Config, owlActor *actor.PID, store *owl.Store, eventStream *eventstream.EventStream, metrics *metrics.Metrics, logger *zap.Logger) *SensorActor {
	act := &SensorActor{
		config:      config,
		owlActor:    owlActor,
		store:       store,
		metrics:     metrics,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_SENSORS, logger),
		eventStream: eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *SensorActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *SensorActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("sensors@starting started")

		sensors, err := owl.BuildSensors(state.config.Owl.Name, owl.Mode(state.config.Owl.Mode), state.config.Owl.SensorKinds())
		if err != nil {
			panic(err)
		}
		state.sensors = sensors
		state.logger.Info("sensors@starting sensors ready", zap.Int("count", len(sensors)),
			zap.Any("classes", owl.SensorClasses(sensors)))

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		ctx.Send(ctx.Self(), sensorsTick{})

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("sensors@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *SensorActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("sensors@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SENSORS,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetSensorStatesRequest:
		ForRequest(msg).Respond(ctx, domain.GetSensorStatesResponse{
			States: events.SensorStates(state.sensors),
		})
	case sensorsTick:
		state.logger.Debug("sensors@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.owlActor, domain.AcquireRequest{}, state.config.Owl.Timeout()+2*time.Second), func(err error) any {
			return domain.AcquireResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.scheduler.SendOnce(state.config.MonitorConfig.PollInterval(), ctx.Self(), sensorsTick{})
		state.behavior.BecomeStacked(state.WaitingAcquireReceive)
	default:
		state.logger.Debug("sensors@default: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *SensorActor) WaitingAcquireReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.AcquireResponse:
		if msg.HasResponseError() {
			state.logger.Warn("sensors@waiting AcquireResponse error", zap.Error(msg.GetResponseError()))
		}
		// the store may still hold earlier snapshots
		state.updateSensors()
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SENSORS,
			Healthy: true,
			State:   "acquiring",
		})
	case domain.GetSensorStatesRequest:
		ForRequest(msg).Respond(ctx, domain.GetSensorStatesResponse{
			States: events.SensorStates(state.sensors),
		})
	default:
		state.logger.Debug("sensors@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *SensorActor) updateSensors() {
	for _, sensor := range state.sensors {
		reading, err := sensor.Update(state.store)
		if err != nil {
			state.logUpdateError(sensor, err)
			continue
		}
		if state.metrics != nil {
			state.metrics.RecordReading(sensor.Id(), reading)
		}
		state.eventStream.Publish(events.SensorUpdateEvent(sensor, reading))
	}
}

func (state *SensorActor) logUpdateError(sensor *owl.Sensor, err error) {
	var (
		noData  *owl.NoDataError
		missing *owl.MissingFieldError
	)
	if errors.As(err, &noData) || errors.As(err, &missing) {
		state.logger.Debug("sensors: no value", zap.String("sensor", sensor.Id()), zap.Error(err))
		return
	}
	state.logger.Warn("sensors: update failed", zap.String("sensor", sensor.Id()), zap.Error(err))
}
