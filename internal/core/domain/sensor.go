package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE       = "bridge"
	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_TEMPERATURE     = "temperature"
	DEVICE_CLASS_SIGNAL_STRENGTH = "signal_strength"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("owl2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "owl2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("owl2mqtt %s", md5HashShort(baseTopic)),
	}
}

// OwlDevice is the OWL Intuition gateway, identified by the id it reports in
// its datagrams.
func OwlDevice(name, gatewayId string) Device {
	return Device{
		Id:           fmt.Sprintf("owl_%s", md5HashShort(gatewayId)),
		Manufacturer: "OWL",
		Model:        "Intuition",
		Name:         name,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

// OwlSensors describes one entity per sensor. The full device is only
// attached to the first one.
func OwlSensors(owlDevice Device, sensors []*owl.Sensor) []GenericSensor {
	var generic []GenericSensor
	for i, s := range sensors {
		device := owlDevice
		if i > 0 {
			device = IdDevice(owlDevice)
		}
		d := s.Descriptor()
		gs := GenericSensor{
			Device:            device,
			Id:                s.Id(),
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              s.Name(),
			UnitOfMeasurement: d.Unit,
			Icon:              d.Icon,
			UniqueId:          uniqueId(owlDevice.Id, s.Id()),
		}
		switch d.Kind {
		case owl.SensorPower, owl.SensorSolarGenPower, owl.SensorSolarExpPower:
			gs.DeviceClass = DEVICE_CLASS_POWER
			gs.StateClass = STATE_CLASS_MEASUREMENT
		case owl.SensorEnergyToday, owl.SensorSolarGenEnergyToday, owl.SensorSolarExpEnergyToday:
			gs.DeviceClass = DEVICE_CLASS_ENERGY
			gs.StateClass = STATE_CLASS_TOTAL_INCREASING
		case owl.SensorHeatingTemp, owl.SensorHeatingRequired, owl.SensorHotWaterTemp,
			owl.SensorHotWaterRequired, owl.SensorHotWaterAmbient, owl.SensorWeatherTemp:
			gs.DeviceClass = DEVICE_CLASS_TEMPERATURE
			gs.StateClass = STATE_CLASS_MEASUREMENT
		case owl.SensorRadio:
			gs.DeviceClass = DEVICE_CLASS_SIGNAL_STRENGTH
			gs.StateClass = STATE_CLASS_MEASUREMENT
			gs.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
		case owl.SensorBattery:
			gs.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
		}
		generic = append(generic, gs)
	}
	return generic
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
