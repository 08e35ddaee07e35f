package owl

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, payload string) *Snapshot {
	t.Helper()
	s, err := Parse([]byte(payload), time.Now())
	require.NoError(t, err)
	return s
}

func extract(t *testing.T, kind SensorKind, phase int, payload string) (Reading, error) {
	t.Helper()
	d, err := LookupDescriptor(kind)
	require.NoError(t, err)
	return d.Extract(mustParse(t, payload), phase)
}

func TestBatteryBand(t *testing.T) {

	assert := assert.New(t)

	cases := map[int]string{
		100: BATTERY_HIGH,
		91:  BATTERY_HIGH,
		90:  BATTERY_MEDIUM,
		31:  BATTERY_MEDIUM,
		30:  BATTERY_LOW,
		11:  BATTERY_LOW,
		10:  BATTERY_VERY_LOW,
		0:   BATTERY_VERY_LOW,
	}
	for level, band := range cases {
		assert.Equal(band, BatteryBand(level), "level %d", level)
	}
}

func TestBatteryRule(t *testing.T) {

	for level, band := range map[string]string{"91%": BATTERY_HIGH, "90%": BATTERY_MEDIUM, "30%": BATTERY_LOW, "10%": BATTERY_VERY_LOW} {
		r, err := extract(t, SensorBattery, 0, fmt.Sprintf(`<electricity ver='2'><battery level='%s'/></electricity>`, level))
		require.NoError(t, err)
		assert.True(t, r.IsLabel)
		assert.Equal(t, band, r.Label, "level %s", level)
	}

	_, err := extract(t, SensorBattery, 0, `<electricity ver='2'><battery level='full'/></electricity>`)
	var valueErr *ValueError
	assert.ErrorAs(t, err, &valueErr)
}

func TestRadioRule(t *testing.T) {

	r, err := extract(t, SensorRadio, 0, TestElectricityV2)
	require.NoError(t, err)
	assert.Equal(t, float64(-68), r.Value)
	assert.Equal(t, "-68", r.String())
}

func TestElectricityRules(t *testing.T) {

	assert := assert.New(t)

	power, err := extract(t, SensorPower, 0, TestElectricityV2)
	assert.NoError(err)
	assert.Equal(float64(506), power.Value)

	energy, err := extract(t, SensorEnergyToday, 0, TestElectricityV2)
	assert.NoError(err)
	assert.Equal(12.35, energy.Value)
	assert.Equal("12.35", energy.String())

	power, err = extract(t, SensorPower, 0, TestElectricityLegacy)
	assert.NoError(err)
	assert.Equal(float64(567), power.Value)

	energy, err = extract(t, SensorEnergyToday, 0, TestElectricityLegacy)
	assert.NoError(err)
	assert.Equal(2.34, energy.Value)
}

func TestElectricityPhases(t *testing.T) {

	assert := assert.New(t)

	expectedPower := []float64{305, 120, 80}
	expectedEnergy := []float64{5.56, 1.23, 0.99}
	for phase := 1; phase <= 3; phase++ {
		power, err := extract(t, SensorPower, phase, TestElectricityV2)
		assert.NoError(err)
		assert.Equal(expectedPower[phase-1], power.Value, "power phase %d", phase)

		energy, err := extract(t, SensorEnergyToday, phase, TestElectricityV2)
		assert.NoError(err)
		assert.Equal(expectedEnergy[phase-1], energy.Value, "energy phase %d", phase)
	}

	// channels directly under the root element
	power, err := extract(t, SensorPower, 1, TestElectricityLegacy)
	assert.NoError(err)
	assert.Equal(float64(567), power.Value)

	_, err = extract(t, SensorPower, 3, `<electricity ver='2'><channels><chan><curr>1</curr></chan></channels></electricity>`)
	var missingErr *MissingFieldError
	if assert.ErrorAs(err, &missingErr) {
		assert.Equal("channels/chan[3]/curr", missingErr.Path)
	}
}

func TestSolarRules(t *testing.T) {

	assert := assert.New(t)

	cases := map[SensorKind]float64{
		SensorSolarGenPower:       1520,
		SensorSolarExpPower:       730,
		SensorSolarGenEnergyToday: 8.71,
		SensorSolarExpEnergyToday: 3.11,
	}
	for kind, expected := range cases {
		r, err := extract(t, kind, 0, TestSolarV2)
		assert.NoError(err)
		assert.Equal(expected, r.Value, string(kind))
	}
}

func TestNoNegativeZero(t *testing.T) {

	assert := assert.New(t)

	doc := `<solar id='1' ver='2'><current><generating>-0.4</generating></current>` +
		`<day><generated>-4</generated></day></solar>`

	r, err := extract(t, SensorSolarGenPower, 0, doc)
	assert.NoError(err)
	assert.Equal("0", r.String())

	r, err = extract(t, SensorSolarGenEnergyToday, 0, doc)
	assert.NoError(err)
	assert.Equal("0.00", r.String())
}

func TestHeatingRules(t *testing.T) {

	assert := assert.New(t)

	state, err := extract(t, SensorHeatingState, 0, TestHeatingV2)
	assert.NoError(err)
	assert.Equal("Comfort (Up To Temperature)", state.Label)

	temp, err := extract(t, SensorHeatingTemp, 0, TestHeatingV2)
	assert.NoError(err)
	assert.Equal(21.4, temp.Value)
	assert.Equal("21.4", temp.String())

	required, err := extract(t, SensorHeatingRequired, 0, TestHeatingV2)
	assert.NoError(err)
	assert.Equal(21.0, required.Value)

	// legacy firmware reports no state
	_, err = extract(t, SensorHeatingState, 0, TestHeatingLegacy)
	var missingErr *MissingFieldError
	assert.ErrorAs(err, &missingErr)

	temp, err = extract(t, SensorHeatingTemp, 0, TestHeatingLegacy)
	assert.NoError(err)
	assert.Equal(19.6, temp.Value)

	required, err = extract(t, SensorHeatingRequired, 0, TestHeatingLegacy)
	assert.NoError(err)
	assert.Equal(20.5, required.Value)
}

func TestStateCodes(t *testing.T) {

	heating := func(code string) string {
		return fmt.Sprintf(`<heating ver='2'><zones><zone><temperature state='%s'><current>20</current></temperature></zone></zones></heating>`, code)
	}

	for code, label := range map[string]string{"0": "Standby", "1": "Comfort (Running)", "7": "Standby (Running)"} {
		r, err := extract(t, SensorHeatingState, 0, heating(code))
		require.NoError(t, err)
		assert.Equal(t, label, r.Label)
	}

	for _, code := range []string{"2", "3", "8", "-1", "on"} {
		_, err := extract(t, SensorHeatingState, 0, heating(code))
		var valueErr *ValueError
		assert.ErrorAs(t, err, &valueErr, "code %s", code)
	}
}

func TestHotWaterRules(t *testing.T) {

	assert := assert.New(t)

	state, err := extract(t, SensorHotWaterState, 0, TestHotWaterV2)
	assert.NoError(err)
	assert.Equal("Running", state.Label)

	temp, err := extract(t, SensorHotWaterTemp, 0, TestHotWaterV2)
	assert.NoError(err)
	assert.Equal(48.3, temp.Value)

	required, err := extract(t, SensorHotWaterRequired, 0, TestHotWaterV2)
	assert.NoError(err)
	assert.Equal(55.0, required.Value)

	ambient, err := extract(t, SensorHotWaterAmbient, 0, TestHotWaterV2)
	assert.NoError(err)
	assert.Equal(22.75, ambient.Value)
	assert.Equal("22.75", ambient.String(), "ambient is not rounded")
}

func TestWeatherRules(t *testing.T) {

	temp, err := extract(t, SensorWeatherTemp, 0, TestWeather)
	require.NoError(t, err)
	assert.Equal(t, 14.25, temp.Value)

	condition, err := extract(t, SensorWeatherCondition, 0, TestWeather)
	require.NoError(t, err)
	assert.Equal(t, "Partly Cloudy", condition.String())
}

func TestExtractMissingField(t *testing.T) {

	_, err := extract(t, SensorPower, 0, `<electricity ver='2'><property><day><wh>1</wh></day></property></electricity>`)
	var missingErr *MissingFieldError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, ClassElectricity, missingErr.Class)
	assert.Equal(t, "property/current/watts", missingErr.Path)
}

func TestExtractWrongClassOrPhase(t *testing.T) {

	d, err := LookupDescriptor(SensorSolarGenPower)
	require.NoError(t, err)
	_, err = d.Extract(mustParse(t, TestElectricityV2), 0)
	assert.Error(t, err)

	_, err = d.Extract(mustParse(t, TestSolarV2), 1)
	assert.Error(t, err, "solar sensors are not phased")

	_, err = LookupDescriptor("gas")
	assert.Error(t, err)
}

func TestExtractNonNumeric(t *testing.T) {

	_, err := extract(t, SensorPower, 0, `<electricity ver='2'><property><current><watts>lots</watts></current></property></electricity>`)
	var valueErr *ValueError
	require.ErrorAs(t, err, &valueErr)
	assert.Equal(t, "lots", valueErr.Value)
	assert.True(t, errors.Unwrap(valueErr) != nil)
}
