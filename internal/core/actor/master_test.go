package actor

import (
	"context"
	"net"
	"testing"
	"time"

	adactor "github.com/berfenger/owl2mqtt/internal/adapter/actor"
	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/internal/metrics"
	"github.com/berfenger/owl2mqtt/internal/util"
	"github.com/berfenger/owl2mqtt/internal/util/actorutil"
	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	cfg := util.LoadTestConfig()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Owl.Port = uint(conn.LocalAddr().(*net.UDPAddr).Port)
	require.NoError(t, conn.Close())

	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	rootContext := as.Root

	m := metrics.New(prometheus.NewRegistry())
	sink := make(chan domain.PublishMessageRequest, 256)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, owl.NewStore(), m, func(store *owl.Store) *adactor.OwlActor {
			return adactor.NewOwlActor(&cfg, store, m.Instrument(), logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, sink, logger)
		}, logger)
	})
	pid, err := rootContext.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	defer rootContext.Stop(pid)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go owl.SendTestDatagrams(ctx, cfg.Owl.Addr(), 200*time.Millisecond, owl.TestElectricityV2, owl.TestHeatingV2, owl.TestWeather)

	assert.Eventually(t, func() bool {
		res, err := rootContext.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
		if err != nil {
			return false
		}
		healthResp, ok := res.(domain.ActorHealthResponse)
		return ok && healthResp.Healthy
	}, 5*time.Second, 200*time.Millisecond, "healthy is true")

	// state updates reach mqtt
	powerTopic := "owl2mqtt_test/sensor/power/state"
	deadline := time.After(5 * time.Second)
	found := false
	for !found {
		select {
		case msg := <-sink:
			if msg.Topic == powerTopic {
				assert.Equal(t, "506", msg.Payload)
				found = true
			}
		case <-deadline:
			t.Fatal("no power state published")
		}
	}

	byId := map[string]domain.SensorState{}
	assert.Eventually(t, func() bool {
		res, err := rootContext.RequestFuture(pid, domain.GetSensorStatesRequest{}, 2*time.Second).Result()
		if err != nil {
			return false
		}
		states, ok := res.(domain.GetSensorStatesResponse)
		if !ok {
			return false
		}
		for _, s := range states.States {
			byId[s.Id] = s
		}
		return byId["heating_state"].Known && byId["weather_temp"].Known
	}, 5*time.Second, 200*time.Millisecond)

	assert.Equal(t, "Comfort (Up To Temperature)", byId["heating_state"].Value)
	assert.Equal(t, "14.25", byId["weather_temp"].Value)
	assert.Equal(t, "W", byId["power"].Unit)
}
