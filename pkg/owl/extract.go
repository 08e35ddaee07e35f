package owl

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type rule func(snapshot *Snapshot, phase int) (Reading, error)

const (
	BATTERY_HIGH     = "High"
	BATTERY_MEDIUM   = "Medium"
	BATTERY_LOW      = "Low"
	BATTERY_VERY_LOW = "Very Low"
)

// state codes reported by the heating and hot water modules, 2 and 3 are reserved
var heatingStates = [8]string{
	"Standby",
	"Comfort (Running)",
	"",
	"",
	"Comfort (Up To Temperature)",
	"Comfort (Warm Up)",
	"Comfort (Cool Down)",
	"Standby (Running)",
}

var hotWaterStates = [8]string{
	"Standby",
	"Running",
	"",
	"",
	"Up To Temperature",
	"Warm Up",
	"Cool Down",
	"Standby (Running)",
}

// BatteryBand classifies a battery percentage.
func BatteryBand(level int) string {
	switch {
	case level > 90:
		return BATTERY_HIGH
	case level > 30:
		return BATTERY_MEDIUM
	case level > 10:
		return BATTERY_LOW
	default:
		return BATTERY_VERY_LOW
	}
}

func batteryRule(s *Snapshot, _ int) (Reading, error) {
	raw, err := s.Attr("battery", "level")
	if err != nil {
		return Reading{}, err
	}
	level, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(raw, "%")))
	if err != nil {
		return Reading{}, &ValueError{Class: s.Class(), Path: "battery@level", Value: raw, Err: err}
	}
	return labelReading(BatteryBand(level)), nil
}

func radioRule(s *Snapshot, _ int) (Reading, error) {
	raw, err := s.Attr("signal", "rssi")
	if err != nil {
		return Reading{}, err
	}
	rssi, err := strconv.Atoi(raw)
	if err != nil {
		return Reading{}, &ValueError{Class: s.Class(), Path: "signal@rssi", Value: raw, Err: err}
	}
	return numberReading(float64(rssi), 0), nil
}

// electricityField picks the path of an electricity value: the property
// block on versioned firmware, the first channel on legacy firmware, or the
// n-th channel for a single phase.
func electricityField(s *Snapshot, phase int, versioned, channelChild string) (string, string, error) {
	if phase > 0 {
		raw, err := s.ChannelText(phase, channelChild)
		return raw, fmt.Sprintf("channels/chan[%d]/%s", phase, channelChild), err
	}
	path := versioned
	if s.Schema() == LegacySchema {
		path = "chan/" + channelChild
	}
	raw, err := s.Text(path)
	return raw, path, err
}

func powerRule(s *Snapshot, phase int) (Reading, error) {
	raw, path, err := electricityField(s, phase, "property/current/watts", "curr")
	if err != nil {
		return Reading{}, err
	}
	return toWatts(s, path, raw)
}

func energyTodayRule(s *Snapshot, phase int) (Reading, error) {
	raw, path, err := electricityField(s, phase, "property/day/wh", "day")
	if err != nil {
		return Reading{}, err
	}
	return toKWh(s, path, raw)
}

func wattsRule(path string) rule {
	return func(s *Snapshot, _ int) (Reading, error) {
		raw, err := s.Text(path)
		if err != nil {
			return Reading{}, err
		}
		return toWatts(s, path, raw)
	}
}

func kwhRule(path string) rule {
	return func(s *Snapshot, _ int) (Reading, error) {
		raw, err := s.Text(path)
		if err != nil {
			return Reading{}, err
		}
		return toKWh(s, path, raw)
	}
}

func floatRule(path string, decimals int) rule {
	return func(s *Snapshot, _ int) (Reading, error) {
		raw, err := s.Text(path)
		if err != nil {
			return Reading{}, err
		}
		return toFloat(s, path, raw, decimals)
	}
}

func textRule(path string) rule {
	return func(s *Snapshot, _ int) (Reading, error) {
		raw, err := s.Text(path)
		if err != nil {
			return Reading{}, err
		}
		return labelReading(raw), nil
	}
}

// temperaturePath locates the temperature block of a heating or hot water
// datagram, which versioned firmware groups per zone.
func temperaturePath(s *Snapshot) string {
	if s.Schema() == VersionedSchema {
		return "zones/zone/temperature"
	}
	return "temperature"
}

func temperatureRule(child string, decimals int) rule {
	return func(s *Snapshot, _ int) (Reading, error) {
		path := temperaturePath(s) + "/" + child
		raw, err := s.Text(path)
		if err != nil {
			return Reading{}, err
		}
		return toFloat(s, path, raw, decimals)
	}
}

// stateRule maps the state code, which only versioned firmware reports.
func stateRule(labels [8]string) rule {
	return func(s *Snapshot, _ int) (Reading, error) {
		path := temperaturePath(s)
		if s.Schema() != VersionedSchema {
			return Reading{}, &MissingFieldError{Class: s.Class(), Path: attrPath(path, "state")}
		}
		raw, err := s.Attr(path, "state")
		if err != nil {
			return Reading{}, err
		}
		code, err := strconv.Atoi(raw)
		if err != nil {
			return Reading{}, &ValueError{Class: s.Class(), Path: attrPath(path, "state"), Value: raw, Err: err}
		}
		if code < 0 || code >= len(labels) || labels[code] == "" {
			return Reading{}, &ValueError{Class: s.Class(), Path: attrPath(path, "state"), Value: raw,
				Err: errors.New("reserved or unknown state code")}
		}
		return labelReading(labels[code]), nil
	}
}

func parseFloat(s *Snapshot, path, raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValueError{Class: s.Class(), Path: path, Value: raw, Err: err}
	}
	return value, nil
}

// toWatts truncates to whole watts.
func toWatts(s *Snapshot, path, raw string) (Reading, error) {
	value, err := parseFloat(s, path, raw)
	if err != nil {
		return Reading{}, err
	}
	return numberReading(math.Trunc(value), 0), nil
}

// toKWh converts watt-hours to kWh rounded to 2 decimals.
func toKWh(s *Snapshot, path, raw string) (Reading, error) {
	value, err := parseFloat(s, path, raw)
	if err != nil {
		return Reading{}, err
	}
	return numberReading(round(value/1000, 2), 2), nil
}

func toFloat(s *Snapshot, path, raw string, decimals int) (Reading, error) {
	value, err := parseFloat(s, path, raw)
	if err != nil {
		return Reading{}, err
	}
	if decimals >= 0 {
		value = round(value, decimals)
	}
	return numberReading(value, decimals), nil
}

func round(value float64, decimals int) float64 {
	pow := math.Pow10(decimals)
	return math.Round(value*pow) / pow
}
