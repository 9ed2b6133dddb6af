package scoring

// FIB-4 cut-offs. A score below FIB4LowCutoff is Low; a score at or above
// FIB4HighCutoff is High.
const (
	FIB4LowCutoff  = 1.3
	FIB4HighCutoff = 2.67
)

// RiskCategory is the ordinal FIB-4 risk bucket. The zero value is
// RiskUnknown, so an empty ScoreResult never claims a category.
type RiskCategory int

const (
	RiskUnknown RiskCategory = iota
	RiskLow
	RiskModerate
	RiskHigh
)

// ClassifyFIB4 buckets a FIB-4 score. A nil score is RiskUnknown.
func ClassifyFIB4(score *float64) RiskCategory {
	if score == nil || !valid(*score) {
		return RiskUnknown
	}
	switch s := *score; {
	case s < FIB4LowCutoff:
		return RiskLow
	case s < FIB4HighCutoff:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// Code returns the stable numeric code (0, 1, 2). ok is false for
// RiskUnknown, which has no code.
func (r RiskCategory) Code() (code int, ok bool) {
	switch r {
	case RiskLow, RiskModerate, RiskHigh:
		return int(r - RiskLow), true
	}
	return 0, false
}

// CodePtr is Code as an optional value, nil for RiskUnknown.
func (r RiskCategory) CodePtr() *int {
	c, ok := r.Code()
	if !ok {
		return nil
	}
	return &c
}

func (r RiskCategory) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskModerate:
		return "Moderate"
	case RiskHigh:
		return "High"
	}
	return "Unknown"
}

// RiskFromCode is the inverse of Code. A nil or out-of-range code is
// RiskUnknown.
func RiskFromCode(code *int) RiskCategory {
	if code == nil {
		return RiskUnknown
	}
	switch r := RiskLow + RiskCategory(*code); r {
	case RiskLow, RiskModerate, RiskHigh:
		return r
	}
	return RiskUnknown
}

func (r RiskCategory) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
