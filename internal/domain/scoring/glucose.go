package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// GlucoseUnit is the unit a glucose reading is expressed in.
type GlucoseUnit string

const (
	GlucoseMgDL  GlucoseUnit = "mg/dL"
	GlucoseMmolL GlucoseUnit = "mmol/L"
)

// glucoseUnitMedianCutoff separates the two units: fasting glucose in mmol/L
// practically never exceeds 30, in mg/dL it practically never falls below it.
const glucoseUnitMedianCutoff = 30.0

// ParseGlucoseUnit accepts "mg/dL" or "mmol/L" in any letter case. An empty
// string is mg/dL.
func ParseGlucoseUnit(s string) (GlucoseUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mg/dl":
		return GlucoseMgDL, nil
	case "mmol/l":
		return GlucoseMmolL, nil
	}
	return "", fmt.Errorf("unknown glucose unit %q", s)
}

func (u GlucoseUnit) homaDenominator() float64 {
	if u == GlucoseMmolL {
		return homaDenomMmolL
	}
	return homaDenomMgDL
}

// DetectGlucoseUnit infers the unit of a whole column of readings from its
// median. Missing and non-finite readings are ignored; with no valid readings
// the result is mg/dL. The heuristic describes the population, not any single
// reading, and should only be applied to a column.
func DetectGlucoseUnit(readings []*float64) GlucoseUnit {
	vals := make([]float64, 0, len(readings))
	for _, r := range readings {
		if r != nil && valid(*r) {
			vals = append(vals, *r)
		}
	}
	if len(vals) == 0 {
		return GlucoseMgDL
	}
	if median(vals) > glucoseUnitMedianCutoff {
		return GlucoseMgDL
	}
	return GlucoseMmolL
}

// median sorts vals in place.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
