package actor

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/berfenger/owl2mqtt/internal/config"
	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/internal/util"
	"github.com/berfenger/owl2mqtt/internal/util/actorutil"
	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOwlConfig(t *testing.T, acquisition string) config.Config {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())

	cfg := util.LoadTestConfig()
	cfg.Owl.Port = uint(port)
	cfg.Owl.Acquisition = acquisition
	cfg.Owl.TimeoutMillis = 2000
	return cfg
}

func TestOwlActorListen(t *testing.T) {

	cfg := testOwlConfig(t, config.ACQUISITION_LISTEN)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	store := owl.NewStore()

	props := actor.PropsFromProducer(func() actor.Actor { return NewOwlActor(&cfg, store, nil, logger) })
	pid := context.Spawn(props)
	defer context.Stop(pid)

	ctx, cancel := contextWithTimeout(5 * time.Second)
	defer cancel()
	go owl.SendTestDatagrams(ctx, cfg.Owl.Addr(), 100*time.Millisecond, owl.TestElectricityV2, owl.TestWeather)

	assert.Eventually(t, func() bool {
		_, ok := store.Get(owl.ClassElectricity)
		return ok
	}, 3*time.Second, 50*time.Millisecond)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health, ok := result.(domain.ActorHealthResponse)
	require.True(t, ok)
	assert.True(t, health.Healthy)
	assert.Equal(t, domain.ACTOR_ID_OWL, health.Id)

	result, err = context.RequestFuture(pid, domain.AcquireRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	acq, ok := result.(domain.AcquireResponse)
	require.True(t, ok)
	assert.False(t, acq.HasResponseError())

	result, err = context.RequestFuture(pid, domain.GetDeviceInfoRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	info, ok := result.(domain.GetDeviceInfoResponse)
	require.True(t, ok)
	assert.Equal(t, "443719005443", info.DeviceId)
}

func TestOwlActorListenBindFailure(t *testing.T) {

	cfg := testOwlConfig(t, config.ACQUISITION_LISTEN)

	blocker, err := net.ListenPacket("udp4", cfg.Owl.Addr())
	require.NoError(t, err)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewOwlActor(&cfg, owl.NewStore(), nil, logger) })
	pid := context.Spawn(props)
	defer context.Stop(pid)

	time.Sleep(200 * time.Millisecond)

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health := result.(domain.ActorHealthResponse)
	assert.False(t, health.Healthy)

	// the port frees up, the retry binds it
	require.NoError(t, blocker.Close())

	assert.Eventually(t, func() bool {
		result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, time.Second).Result()
		if err != nil {
			return false
		}
		return result.(domain.ActorHealthResponse).Healthy
	}, 3*time.Second, 100*time.Millisecond)
}

func TestOwlActorPoll(t *testing.T) {

	cfg := testOwlConfig(t, config.ACQUISITION_POLL)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	store := owl.NewStore()

	props := actor.PropsFromProducer(func() actor.Actor { return NewOwlActor(&cfg, store, nil, logger) })
	pid := context.Spawn(props)
	defer context.Stop(pid)

	ctx, cancel := contextWithTimeout(5 * time.Second)
	defer cancel()
	go owl.SendTestDatagrams(ctx, cfg.Owl.Addr(), 100*time.Millisecond, owl.TestElectricityLegacy)

	result, err := context.RequestFuture(pid, domain.AcquireRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	acq, ok := result.(domain.AcquireResponse)
	require.True(t, ok)
	assert.NoError(t, acq.GetResponseError())

	snapshot, ok := store.Get(owl.ClassElectricity)
	require.True(t, ok)
	assert.Equal(t, owl.LegacySchema, snapshot.Schema())

	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	assert.True(t, result.(domain.ActorHealthResponse).Healthy)
}

func TestOwlActorPollTimeout(t *testing.T) {

	cfg := testOwlConfig(t, config.ACQUISITION_POLL)
	cfg.Owl.TimeoutMillis = 1000

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewOwlActor(&cfg, owl.NewStore(), nil, logger) })
	pid := context.Spawn(props)
	defer context.Stop(pid)

	result, err := context.RequestFuture(pid, domain.AcquireRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	acq := result.(domain.AcquireResponse)
	var timeoutErr *owl.TimeoutError
	assert.ErrorAs(t, acq.GetResponseError(), &timeoutErr)

	// a timeout does not make the actor unhealthy
	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	assert.True(t, result.(domain.ActorHealthResponse).Healthy)

	result, err = context.RequestFuture(pid, domain.GetDeviceInfoRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	assert.Empty(t, result.(domain.GetDeviceInfoResponse).DeviceId)
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
