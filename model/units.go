package model

import (
	"fmt"
	"strings"
)

// Unit is a drawing measurement unit. It determines the scale factor
// converting drawing units to meters.
type Unit int

const (
	Millimeter Unit = iota
	Centimeter
	Meter
	Inch
	Foot
)

func (u Unit) String() string {
	switch u {
	case Millimeter:
		return "mm"
	case Centimeter:
		return "cm"
	case Meter:
		return "m"
	case Inch:
		return "in"
	case Foot:
		return "ft"
	default:
		return "unknown"
	}
}

// Meters returns the number of meters per drawing unit.
func (u Unit) Meters() float64 {
	switch u {
	case Millimeter:
		return 0.001
	case Centimeter:
		return 0.01
	case Meter:
		return 1
	case Inch:
		return 0.0254
	case Foot:
		return 0.3048
	default:
		return 1
	}
}

// ParseUnit parses a unit name ("mm", "cm", "m", "in", "ft").
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mm", "millimeter", "millimeters":
		return Millimeter, nil
	case "cm", "centimeter", "centimeters":
		return Centimeter, nil
	case "m", "meter", "meters":
		return Meter, nil
	case "in", "inch", "inches", `"`:
		return Inch, nil
	case "ft", "foot", "feet", "'":
		return Foot, nil
	default:
		return Millimeter, fmt.Errorf("unknown unit %q", s)
	}
}
