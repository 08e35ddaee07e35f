package actor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/internal/core/events"
	"github.com/berfenger/owl2mqtt/internal/util"
	"github.com/berfenger/owl2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receivePublish(t *testing.T, sink <-chan domain.PublishMessageRequest) domain.PublishMessageRequest {
	t.Helper()
	select {
	case msg := <-sink:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
		return domain.PublishMessageRequest{}
	}
}

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	es := eventstream.EventStream{}
	sink := make(chan domain.PublishMessageRequest, 16)

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, sink, logger) })
	pid := context.Spawn(props)
	defer context.Stop(pid)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)

	es.Publish(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: "power",
		},
		Value:    506,
		Decimals: 0,
	})
	published := receivePublish(t, sink)
	assert.Equal(t, "owl2mqtt_test/sensor/power/state", published.Topic)
	assert.Equal(t, "506", published.Payload)
	assert.False(t, published.Retain)

	es.Publish(domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: "battery",
		},
		Value: "High",
	})
	published = receivePublish(t, sink)
	assert.Equal(t, "owl2mqtt_test/sensor/battery/state", published.Topic)
	assert.Equal(t, "High", published.Payload)

	for _, ev := range events.BridgeStateUpdateEvents(false) {
		es.Publish(ev)
	}
	published = receivePublish(t, sink)
	assert.Equal(t, "owl2mqtt_test/bridge/state", published.Topic)
	assert.Equal(t, "offline", published.Payload)
	assert.True(t, published.Retain)

	// anything else on the stream is not ours
	es.Publish("not an event")
	select {
	case unexpected := <-sink:
		t.Errorf("unexpected publish %v", unexpected)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMQTTActorDiscovery(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	sink := make(chan domain.PublishMessageRequest, 16)

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, nil, sink, logger) })
	pid := context.Spawn(props)
	defer context.Stop(pid)

	sensors := domain.BridgeSensors(domain.BridgeDevice(cfg.MQTT.BaseTopic))

	context.Send(pid, domain.PublishDiscoveryRequest{Sensors: sensors})

	published := receivePublish(t, sink)
	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	assert.Equal(t, "homeassistant/binary_sensor/"+bridge.Id+"/bridge/config", published.Topic)
	assert.True(t, published.Retain)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(published.Payload), &payload))
	assert.Equal(t, "owl2mqtt_test/bridge/state", payload["state_topic"])
}
