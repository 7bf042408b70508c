package ocr

import (
	"regexp"
	"strconv"
	"strings"
)

// Dimension is a parsed measurement annotation.
type Dimension struct {
	// Value is the number as written, in Unit.
	Value float64
	// Unit is the written unit: "mm", "cm", "m", "in" or "ft".
	Unit string
	// Millimeters is Value converted to millimeters.
	Millimeters float64
}

var unitToMM = map[string]float64{
	"mm": 1,
	"cm": 10,
	"m":  1000,
	"in": 25.4,
	"ft": 304.8,
}

var (
	metricDimRe   = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(mm|cm|m)$`)
	imperialDimRe = regexp.MustCompile(`^(\d+)'(?:\s*-?\s*(\d+(?:\.\d+)?)(?:\s*(\d+)/(\d+))?")?$`)
	inchOnlyRe    = regexp.MustCompile(`^(\d+(?:\.\d+)?)"$`)
	bareNumRe     = regexp.MustCompile(`^\d{3,5}$`)
)

// ParseDimension interprets a dimension string. Metric values carry
// their unit; imperial feet-and-inches collapse to inches. A bare
// integer of three to five digits is read as millimeters, the common
// convention on metric drawings.
func ParseDimension(text string) (Dimension, bool) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, " ", "")

	if m := metricDimRe.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			return Dimension{}, false
		}
		unit := m[2]
		return Dimension{Value: v, Unit: unit, Millimeters: v * unitToMM[unit]}, true
	}

	if m := imperialDimRe.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.ParseFloat(m[1], 64)
		inches := feet * 12
		if m[2] != "" {
			in, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return Dimension{}, false
			}
			inches += in
			if m[3] != "" && m[4] != "" {
				num, _ := strconv.ParseFloat(m[3], 64)
				den, _ := strconv.ParseFloat(m[4], 64)
				if den != 0 {
					inches += num / den
				}
			}
		}
		return Dimension{Value: inches, Unit: "in", Millimeters: inches * unitToMM["in"]}, true
	}

	if m := inchOnlyRe.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Dimension{}, false
		}
		return Dimension{Value: v, Unit: "in", Millimeters: v * unitToMM["in"]}, true
	}

	if bareNumRe.MatchString(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Dimension{}, false
		}
		return Dimension{Value: v, Unit: "mm", Millimeters: v}, true
	}

	// Decimal without a suffix: treat as millimeters when it is large
	// enough to plausibly be one.
	if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil && v >= 100 {
		return Dimension{Value: v, Unit: "mm", Millimeters: v}, true
	}

	return Dimension{}, false
}

var (
	ratioScaleRe = regexp.MustCompile(`(?i)(?:scale\s*)?1\s*:\s*(\d+(?:\.\d+)?)`)
	equivScaleRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mm\s*=\s*(\d+(?:\.\d+)?)\s*m\b`)
)

// ParseScale extracts a drawing scale denominator from a notation such
// as "1:100", "Scale 1:50" or "10 mm = 1 m". The returned value is the
// real-world distance represented by one drawn unit.
func ParseScale(text string) (float64, bool) {
	if m := equivScaleRe.FindStringSubmatch(text); m != nil {
		drawnMM, err1 := strconv.ParseFloat(m[1], 64)
		realM, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && drawnMM > 0 {
			return realM * 1000 / drawnMM, true
		}
	}
	if m := ratioScaleRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v > 0 {
			return v, true
		}
	}
	return 0, false
}
