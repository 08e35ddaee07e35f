package owl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorUpdateKeepsStateOnError(t *testing.T) {

	require := require.New(t)

	store := NewStore()
	sensor, err := NewSensor("OWL", SensorHeatingState, 0)
	require.NoError(err)

	_, ok := sensor.State()
	require.False(ok, "unknown before the first datagram")

	_, err = sensor.Update(store)
	var noDataErr *NoDataError
	require.ErrorAs(err, &noDataErr)
	require.Equal(ClassHeating, noDataErr.Class)

	_, err = store.Ingest([]byte(TestHeatingV2), time.Now())
	require.NoError(err)
	r, err := sensor.Update(store)
	require.NoError(err)
	require.Equal("Comfort (Up To Temperature)", r.Label)

	// legacy datagram has no state, previous value survives
	_, err = store.Ingest([]byte(TestHeatingLegacy), time.Now())
	require.NoError(err)
	_, err = sensor.Update(store)
	var missingErr *MissingFieldError
	require.ErrorAs(err, &missingErr)

	state, ok := sensor.State()
	require.True(ok)
	require.Equal("Comfort (Up To Temperature)", state.Label)
}

func TestSensorLegacyStateNeverSet(t *testing.T) {

	store := NewStore()
	_, err := store.Ingest([]byte(TestHeatingLegacy), time.Now())
	require.NoError(t, err)

	sensor, err := NewSensor("OWL", SensorHeatingState, 0)
	require.NoError(t, err)
	_, err = sensor.Update(store)
	assert.Error(t, err)

	_, ok := sensor.State()
	assert.False(t, ok)
}

func TestNewSensor(t *testing.T) {

	assert := assert.New(t)

	s, err := NewSensor("OWL Meter", SensorPower, 2)
	assert.NoError(err)
	assert.Equal("OWL Meter Power P2", s.Name())
	assert.Equal("power_p2", s.Id())
	assert.Equal(2, s.Phase())

	s, err = NewSensor("OWL Meter", SensorEnergyToday, 0)
	assert.NoError(err)
	assert.Equal("OWL Meter Energy Today", s.Name())
	assert.Equal("energy_today", s.Id())

	_, err = NewSensor("OWL Meter", SensorBattery, 1)
	assert.Error(err)
	_, err = NewSensor("OWL Meter", SensorPower, 4)
	assert.Error(err)
	_, err = NewSensor("OWL Meter", "gas", 0)
	assert.Error(err)
}

func TestBuildSensors(t *testing.T) {

	assert := assert.New(t)

	sensors, err := BuildSensors("OWL", ModeMonophase, nil)
	assert.NoError(err)
	assert.Equal([]string{"battery", "power", "energy_today"}, sensorIds(sensors))

	sensors, err = BuildSensors("OWL", ModeTriphase, nil)
	assert.NoError(err)
	assert.Equal([]string{
		"battery", "power", "energy_today",
		"power_p1", "energy_today_p1",
		"power_p2", "energy_today_p2",
		"power_p3", "energy_today_p3",
	}, sensorIds(sensors))

	sensors, err = BuildSensors("OWL", ModeTriphase, []SensorKind{SensorPower, SensorSolarGenPower, SensorWeatherTemp})
	assert.NoError(err)
	assert.Equal([]string{"power", "solargen", "weather_temp", "power_p1", "power_p2", "power_p3"}, sensorIds(sensors))
	assert.Equal([]DeviceClass{ClassElectricity, ClassSolar, ClassWeather}, SensorClasses(sensors))

	_, err = BuildSensors("OWL", ModeMonophase, []SensorKind{"gas"})
	assert.Error(err)
}

func sensorIds(sensors []*Sensor) []string {
	ids := make([]string, 0, len(sensors))
	for _, s := range sensors {
		ids = append(ids, s.Id())
	}
	return ids
}
