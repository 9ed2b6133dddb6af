package validation

import (
	"math"
	"strconv"
	"strings"
)

var naTokens = map[string]bool{
	"NA": true, "N/A": true, "na": true, "n/a": true,
	"no data": true, "No data": true,
	"NULL": true, "null": true, "None": true, "none": true,
	"": true,
}

func isNA(s string) bool {
	return naTokens[strings.TrimSpace(s)]
}

// parseNumber coerces a cell; NA tokens and unparseable text are nil.
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if naTokens[s] {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseNumbers(col []string) []*float64 {
	out := make([]*float64, len(col))
	for i, s := range col {
		out[i] = parseNumber(s)
	}
	return out
}

// parseDiabetes reads a diabetes column. A column whose non-NA cells are all
// numeric is read as value > 0; otherwise cells are matched against yes/no
// spellings and anything else is nil.
func parseDiabetes(col []string) []*bool {
	numeric := true
	for _, s := range col {
		if isNA(s) {
			continue
		}
		if parseNumber(s) == nil {
			numeric = false
			break
		}
	}

	out := make([]*bool, len(col))
	for i, s := range col {
		if numeric {
			if v := parseNumber(s); v != nil {
				b := *v > 0
				out[i] = &b
			}
			continue
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "yes", "y", "true", "t":
			b := true
			out[i] = &b
		case "0", "no", "n", "false", "f":
			b := false
			out[i] = &b
		}
	}
	return out
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
