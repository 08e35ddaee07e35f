package owl

import "fmt"

// DeviceClass is the root tag of an OWL Intuition datagram.
type DeviceClass string

const (
	ClassElectricity DeviceClass = "electricity"
	ClassSolar       DeviceClass = "solar"
	ClassWeather     DeviceClass = "weather"
	ClassHotWater    DeviceClass = "hot_water"
	ClassHeating     DeviceClass = "heating"
	ClassRelays      DeviceClass = "relays"
)

var deviceClasses = []DeviceClass{
	ClassElectricity,
	ClassSolar,
	ClassWeather,
	ClassHotWater,
	ClassHeating,
	ClassRelays,
}

// DeviceClasses returns every class the gateway is known to broadcast.
func DeviceClasses() []DeviceClass {
	classes := make([]DeviceClass, len(deviceClasses))
	copy(classes, deviceClasses)
	return classes
}

func ParseDeviceClass(tag string) (DeviceClass, error) {
	for _, c := range deviceClasses {
		if string(c) == tag {
			return c, nil
		}
	}
	return "", &UnknownClassError{Tag: tag}
}

func (c DeviceClass) String() string {
	return string(c)
}

func (c DeviceClass) GoString() string {
	return fmt.Sprintf("owl.DeviceClass(%q)", string(c))
}
