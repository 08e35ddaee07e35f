package owl

import (
	"fmt"
	"slices"
)

// Sensor is one exposed value: a descriptor, a phase and the last reading
// that could be extracted. A Sensor is owned by a single goroutine.
type Sensor struct {
	descriptor Descriptor
	phase      int
	name       string
	state      *Reading
}

func NewSensor(namePrefix string, kind SensorKind, phase int) (*Sensor, error) {
	d, err := LookupDescriptor(kind)
	if err != nil {
		return nil, err
	}
	if phase < 0 || phase > 3 || (phase > 0 && !d.Phased) {
		return nil, fmt.Errorf("owl: invalid phase %d for %s sensor", phase, kind)
	}
	name := fmt.Sprintf("%s %s", namePrefix, d.Name)
	if phase > 0 {
		name = fmt.Sprintf("%s P%d", name, phase)
	}
	return &Sensor{
		descriptor: d,
		phase:      phase,
		name:       name,
	}, nil
}

func (s *Sensor) Descriptor() Descriptor {
	return s.descriptor
}

func (s *Sensor) Phase() int {
	return s.phase
}

func (s *Sensor) Name() string {
	return s.name
}

// Id is unique among the sensors of one meter, e.g. power or power_p2.
func (s *Sensor) Id() string {
	if s.phase > 0 {
		return fmt.Sprintf("%s_p%d", s.descriptor.Kind, s.phase)
	}
	return string(s.descriptor.Kind)
}

// State returns the last extracted reading, false while still unknown.
func (s *Sensor) State() (Reading, bool) {
	if s.state == nil {
		return Reading{}, false
	}
	return *s.state, true
}

// Update extracts a new reading from the latest snapshot in store. When no
// snapshot is available or the field cannot be resolved, the previous state
// is kept and the cause returned.
func (s *Sensor) Update(store *Store) (Reading, error) {
	snapshot, ok := store.Get(s.descriptor.Class)
	if !ok {
		return Reading{}, &NoDataError{Class: s.descriptor.Class}
	}
	reading, err := s.descriptor.Extract(snapshot, s.phase)
	if err != nil {
		return Reading{}, err
	}
	s.state = &reading
	return reading, nil
}

// BuildSensors creates the sensors for the enabled kinds. In triphase mode
// phased kinds get an additional sensor for each of the three phases.
func BuildSensors(namePrefix string, mode Mode, kinds []SensorKind) ([]*Sensor, error) {
	if len(kinds) == 0 {
		kinds = DefaultSensors
	}
	var sensors []*Sensor
	for _, kind := range kinds {
		sensor, err := NewSensor(namePrefix, kind, 0)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, sensor)
	}
	if mode == ModeTriphase {
		for phase := 1; phase <= 3; phase++ {
			for _, kind := range []SensorKind{SensorPower, SensorEnergyToday} {
				if !slices.Contains(kinds, kind) {
					continue
				}
				sensor, err := NewSensor(namePrefix, kind, phase)
				if err != nil {
					return nil, err
				}
				sensors = append(sensors, sensor)
			}
		}
	}
	return sensors, nil
}

// SensorClasses returns the distinct device classes the sensors read from.
func SensorClasses(sensors []*Sensor) []DeviceClass {
	var classes []DeviceClass
	for _, s := range sensors {
		if !slices.Contains(classes, s.descriptor.Class) {
			classes = append(classes, s.descriptor.Class)
		}
	}
	return classes
}
