package owl

import (
	"fmt"
	"slices"
)

type SensorKind string

const (
	SensorBattery             SensorKind = "battery"
	SensorRadio               SensorKind = "radio"
	SensorPower               SensorKind = "power"
	SensorEnergyToday         SensorKind = "energy_today"
	SensorSolarGenPower       SensorKind = "solargen"
	SensorSolarGenEnergyToday SensorKind = "solargen_today"
	SensorSolarExpPower       SensorKind = "solarexp"
	SensorSolarExpEnergyToday SensorKind = "solarexp_today"
	SensorHeatingState        SensorKind = "heating_state"
	SensorHeatingTemp         SensorKind = "heating_temp"
	SensorHeatingRequired     SensorKind = "heating_req_temp"
	SensorHotWaterState       SensorKind = "hotwater_state"
	SensorHotWaterTemp        SensorKind = "hotwater_temp"
	SensorHotWaterRequired    SensorKind = "hotwater_req_temp"
	SensorHotWaterAmbient     SensorKind = "hotwater_ambient"
	SensorWeatherTemp         SensorKind = "weather_temp"
	SensorWeatherCondition    SensorKind = "weather_condition"
)

// Mode is the metering layout of the electricity monitor.
type Mode string

const (
	ModeMonophase Mode = "monophase"
	ModeTriphase  Mode = "triphase"
)

// DefaultSensors are enabled when no sensor kinds are configured.
var DefaultSensors = []SensorKind{SensorBattery, SensorPower, SensorEnergyToday}

// Descriptor is the static definition of a sensor kind.
type Descriptor struct {
	Kind  SensorKind
	Name  string
	Unit  string
	Icon  string
	Class DeviceClass
	// Phased kinds get one extra sensor per phase in triphase mode
	Phased bool
	rule   rule
}

var descriptors = []Descriptor{
	{Kind: SensorBattery, Name: "Battery", Icon: "mdi:battery", Class: ClassElectricity, rule: batteryRule},
	{Kind: SensorRadio, Name: "Radio", Unit: "dBm", Icon: "mdi:signal", Class: ClassElectricity, rule: radioRule},
	{Kind: SensorPower, Name: "Power", Unit: "W", Icon: "mdi:flash", Class: ClassElectricity, Phased: true, rule: powerRule},
	{Kind: SensorEnergyToday, Name: "Energy Today", Unit: "kWh", Icon: "mdi:flash", Class: ClassElectricity, Phased: true, rule: energyTodayRule},
	{Kind: SensorSolarGenPower, Name: "Solar Generating", Unit: "W", Icon: "mdi:flash", Class: ClassSolar, rule: wattsRule("current/generating")},
	{Kind: SensorSolarGenEnergyToday, Name: "Solar Generated Today", Unit: "kWh", Icon: "mdi:flash", Class: ClassSolar, rule: kwhRule("day/generated")},
	{Kind: SensorSolarExpPower, Name: "Solar Exporting", Unit: "W", Icon: "mdi:flash", Class: ClassSolar, rule: wattsRule("current/exporting")},
	{Kind: SensorSolarExpEnergyToday, Name: "Solar Exported Today", Unit: "kWh", Icon: "mdi:flash", Class: ClassSolar, rule: kwhRule("day/exported")},
	{Kind: SensorHeatingState, Name: "Heating State", Icon: "mdi:radiator", Class: ClassHeating, rule: stateRule(heatingStates)},
	{Kind: SensorHeatingTemp, Name: "Heating Temperature", Unit: "°C", Icon: "mdi:thermometer", Class: ClassHeating, rule: temperatureRule("current", 1)},
	{Kind: SensorHeatingRequired, Name: "Heating Required Temperature", Unit: "°C", Icon: "mdi:thermometer", Class: ClassHeating, rule: temperatureRule("required", -1)},
	{Kind: SensorHotWaterState, Name: "Hot Water State", Icon: "mdi:water-boiler", Class: ClassHotWater, rule: stateRule(hotWaterStates)},
	{Kind: SensorHotWaterTemp, Name: "Hot Water Temperature", Unit: "°C", Icon: "mdi:thermometer", Class: ClassHotWater, rule: temperatureRule("current", 1)},
	{Kind: SensorHotWaterRequired, Name: "Hot Water Required Temperature", Unit: "°C", Icon: "mdi:thermometer", Class: ClassHotWater, rule: temperatureRule("required", -1)},
	{Kind: SensorHotWaterAmbient, Name: "Hot Water Ambient Temperature", Unit: "°C", Icon: "mdi:thermometer", Class: ClassHotWater, rule: temperatureRule("ambient", -1)},
	{Kind: SensorWeatherTemp, Name: "Outside Temperature", Unit: "°C", Icon: "mdi:thermometer", Class: ClassWeather, rule: floatRule("temperature", -1)},
	{Kind: SensorWeatherCondition, Name: "Weather", Icon: "mdi:weather-partly-cloudy", Class: ClassWeather, rule: textRule("text")},
}

// LookupDescriptor returns the descriptor of kind.
func LookupDescriptor(kind SensorKind) (Descriptor, error) {
	i := slices.IndexFunc(descriptors, func(d Descriptor) bool { return d.Kind == kind })
	if i < 0 {
		return Descriptor{}, fmt.Errorf("owl: unknown sensor kind '%s'", kind)
	}
	return descriptors[i], nil
}

// SensorKinds lists every known kind in declaration order.
func SensorKinds() []SensorKind {
	kinds := make([]SensorKind, 0, len(descriptors))
	for _, d := range descriptors {
		kinds = append(kinds, d.Kind)
	}
	return kinds
}

// Extract resolves the descriptor's field for phase against snapshot.
// Phase 0 is the aggregate or single phase reading.
func (d Descriptor) Extract(snapshot *Snapshot, phase int) (Reading, error) {
	if snapshot.Class() != d.Class {
		return Reading{}, fmt.Errorf("owl: %s sensor cannot read %s data", d.Kind, snapshot.Class())
	}
	if phase != 0 && !d.Phased {
		return Reading{}, fmt.Errorf("owl: %s sensor has no phase %d", d.Kind, phase)
	}
	return d.rule(snapshot, phase)
}
