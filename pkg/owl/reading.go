package owl

import "strconv"

// Reading is one extracted sensor value: a number, or a label for enum-like
// sensors.
type Reading struct {
	Value float64
	Label string
	// Decimals the value was rounded to, -1 when reported unrounded
	Decimals int
	IsLabel  bool
}

func numberReading(value float64, decimals int) Reading {
	// no negative zero
	if value == 0 {
		value = 0
	}
	return Reading{Value: value, Decimals: decimals}
}

func labelReading(label string) Reading {
	return Reading{Label: label, IsLabel: true}
}

func (r Reading) String() string {
	if r.IsLabel {
		return r.Label
	}
	return strconv.FormatFloat(r.Value, 'f', r.Decimals, 64)
}
