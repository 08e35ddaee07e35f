package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/owl2mqtt/internal/config"
	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/internal/util/actorutil"
	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const (
	HA_DISCOVERY_RETRY_INTERVAL = 5 * time.Second
)

type HADiscoveryActor struct {
	config           *config.Config
	behavior         actor.Behavior
	stash            *actorutil.Stash
	scheduler        *scheduler.TimerScheduler
	owlActor         *actor.PID
	mqttActor        *actor.PID
	owlActorHealthy  bool
	mqttActorHealthy bool
	healthyRecv      int
	published        int

	logger *zap.Logger
}

type discoveryTick struct {
}

func NewHADiscoveryActor(config *config.Config, owlActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:    config,
		owlActor:  owlActor,
		mqttActor: mqttActor,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@default started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		ctx.Send(ctx.Self(), discoveryTick{})
	case discoveryTick:
		state.logger.Debug("hadiscovery@default tick")

		// Check Owl and MQTT actor healthy
		state.healthyRecv = 0
		state.owlActorHealthy = false
		state.mqttActorHealthy = false
		// Owl Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.owlActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_OWL,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.BecomeStacked(state.WaitingHealthyReceive)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   fmt.Sprintf("published %d", state.published),
		})
	default:
		state.logger.Debug("hadiscovery@default: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_OWL:
				state.owlActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.owlActorHealthy && state.mqttActorHealthy {
				// Ask Owl GetDeviceInfoRequest
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.owlActor, domain.GetDeviceInfoRequest{}, 2*time.Second), func(err error) any {
					return domain.GetDeviceInfoResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.UnbecomeStacked()
				state.behavior.BecomeStacked(state.WaitingInfoReceive)
			} else {
				state.logger.Info("hadiscovery@healthcheck owl or mqtt not healthy, retrying",
					zap.Bool("owl", state.owlActorHealthy), zap.Bool("mqtt", state.mqttActorHealthy))
				state.retry(ctx)
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetDeviceInfoResponse:
		if msg.HasResponseError() || msg.DeviceId == "" {
			// no datagram seen yet
			state.logger.Info("hadiscovery@info: gateway id unknown, retrying", zap.Error(msg.GetResponseError()))
			state.retry(ctx)
			return
		}
		state.logger.Debug("hadiscovery@info: GetDeviceInfoResponse", zap.String("device", msg.DeviceId))

		sensors, err := state.discoverySensors(msg.DeviceId)
		if err != nil {
			state.logger.Error("hadiscovery@info: unable to build sensors", zap.Error(err))
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
			return
		}
		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
		})
		state.published++

		if next, ok := state.nextRefresh(time.Now()); ok {
			state.logger.Debug("hadiscovery@info: next refresh", zap.Duration("in", next))
			state.scheduler.SendOnce(next, ctx.Self(), discoveryTick{})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hadiscovery@info: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) retry(ctx actor.Context) {
	state.scheduler.SendOnce(HA_DISCOVERY_RETRY_INTERVAL, ctx.Self(), discoveryTick{})
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (state *HADiscoveryActor) discoverySensors(deviceId string) ([]domain.GenericSensor, error) {
	var sensors []domain.GenericSensor

	bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
	sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

	owlSensors, err := owl.BuildSensors(state.config.Owl.Name, owl.Mode(state.config.Owl.Mode), state.config.Owl.SensorKinds())
	if err != nil {
		return nil, err
	}
	owlDevice := domain.OwlDevice(state.config.Owl.Name, deviceId)
	owlDevice.ViaDevice = bridgeDevice.Id
	sensors = append(sensors, domain.OwlSensors(owlDevice, owlSensors)...)
	return sensors, nil
}

// nextRefresh tells how long until discovery is published again. A zero
// refresh period disables it.
func (state *HADiscoveryActor) nextRefresh(now time.Time) (time.Duration, bool) {
	if state.config.MQTT.HADiscoveryRefreshMinutes == 0 {
		return 0, false
	}
	trigger := quartz.NewSimpleTrigger(time.Duration(state.config.MQTT.HADiscoveryRefreshMinutes) * time.Minute)
	next, err := trigger.NextFireTime(now.UnixNano())
	if err != nil {
		state.logger.Error("hadiscovery: invalid refresh trigger", zap.Error(err))
		return 0, false
	}
	return time.Unix(0, next).Sub(now), true
}
