package events

import (
	"github.com/berfenger/owl2mqtt/internal/core/domain"
	"github.com/berfenger/owl2mqtt/pkg/owl"
)

// SensorUpdateEvent is the event announcing a new reading of sensor.
func SensorUpdateEvent(sensor *owl.Sensor, reading owl.Reading) any {
	if reading.IsLabel {
		return domain.TextSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: sensor.Id(),
			},
			Value: reading.Label,
		}
	}
	return domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: sensor.Id(),
		},
		Value:    reading.Value,
		Decimals: reading.Decimals,
	}
}

// SensorStates lists the current state of every sensor, known or not.
func SensorStates(sensors []*owl.Sensor) []domain.SensorState {
	states := make([]domain.SensorState, 0, len(sensors))
	for _, s := range sensors {
		state := domain.SensorState{
			Id:   s.Id(),
			Name: s.Name(),
			Unit: s.Descriptor().Unit,
		}
		if reading, ok := s.State(); ok {
			state.Known = true
			state.Value = reading.String()
		}
		states = append(states, state)
	}
	return states
}

func BridgeStateUpdateEvents(online bool) []any {
	return []any{domain.BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}}
}
