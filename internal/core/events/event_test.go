package events

import (
	"testing"
	"time"

	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorUpdateEvent(t *testing.T) {

	assert := assert.New(t)

	store := owl.NewStore()
	_, err := store.Ingest([]byte(owl.TestElectricityV2), time.Now())
	require.NoError(t, err)

	power, err := owl.NewSensor("OWL", owl.SensorPower, 0)
	require.NoError(t, err)
	r, err := power.Update(store)
	require.NoError(t, err)
	ev, ok := SensorUpdateEvent(power, r).(domain.FloatSensorUpdateEvent)
	require.True(t, ok)
	assert.Equal("power", ev.SensorId())
	assert.Equal("506", ev.Payload())

	battery, err := owl.NewSensor("OWL", owl.SensorBattery, 0)
	require.NoError(t, err)
	r, err = battery.Update(store)
	require.NoError(t, err)
	text, ok := SensorUpdateEvent(battery, r).(domain.TextSensorUpdateEvent)
	require.True(t, ok)
	assert.Equal(owl.BATTERY_HIGH, text.Value)
}

func TestSensorStates(t *testing.T) {

	assert := assert.New(t)

	sensors, err := owl.BuildSensors("OWL", owl.ModeMonophase, []owl.SensorKind{owl.SensorPower, owl.SensorWeatherTemp})
	require.NoError(t, err)
	store := owl.NewStore()
	_, err = store.Ingest([]byte(owl.TestElectricityLegacy), time.Now())
	require.NoError(t, err)
	for _, s := range sensors {
		_, _ = s.Update(store)
	}

	states := SensorStates(sensors)
	assert.Equal([]domain.SensorState{
		{Id: "power", Name: "OWL Power", Unit: "W", Known: true, Value: "567"},
		{Id: "weather_temp", Name: "OWL Outside Temperature", Unit: "°C"},
	}, states)
}
