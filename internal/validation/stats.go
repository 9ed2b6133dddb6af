package validation

import (
	"math"

	"github.com/hepacheck/hepacheck/internal/domain/scoring"
)

// ThresholdWindow is the half-width around each FIB-4 cut-off used to count
// borderline rows.
const ThresholdWindow = 0.3

// ErrorStats compares calculated and reference values over rows where both
// are defined.
type ErrorStats struct {
	Compared    int      `json:"compared" yaml:"compared"`
	MAE         *float64 `json:"mae" yaml:"mae"`
	MaxAbsError *float64 `json:"max_abs_error" yaml:"max_abs_error"`
}

func compare(calc, ref []*float64) ErrorStats {
	var (
		st  ErrorStats
		sum float64
		max float64
	)
	for i := range calc {
		if calc[i] == nil || ref[i] == nil {
			continue
		}
		d := math.Abs(*calc[i] - *ref[i])
		sum += d
		if d > max {
			max = d
		}
		st.Compared++
	}
	if st.Compared > 0 {
		mae := sum / float64(st.Compared)
		st.MAE = &mae
		st.MaxAbsError = &max
	}
	return st
}

func diffs(calc, ref []*float64) []*float64 {
	out := make([]*float64, len(calc))
	for i := range calc {
		if calc[i] == nil || ref[i] == nil {
			continue
		}
		d := *calc[i] - *ref[i]
		out[i] = &d
	}
	return out
}

// CategoryStats measures how often calculated and reference FIB-4 land in the
// same risk category, overall and for rows whose reference sits within
// ThresholdWindow of a cut-off.
type CategoryStats struct {
	Compared      int      `json:"compared" yaml:"compared"`
	Agreement     *float64 `json:"agreement" yaml:"agreement"`
	NearThreshold int      `json:"near_threshold" yaml:"near_threshold"`
	NearAgreement *float64 `json:"near_threshold_agreement" yaml:"near_threshold_agreement"`
	Discordant    int      `json:"discordant" yaml:"discordant"`
}

func nearThreshold(v float64) bool {
	for _, t := range []float64{scoring.FIB4LowCutoff, scoring.FIB4HighCutoff} {
		if v >= t-ThresholdWindow && v <= t+ThresholdWindow {
			return true
		}
	}
	return false
}

func compareCategories(calc, ref []*float64) CategoryStats {
	var st CategoryStats
	var agree, nearAgree int
	for i := range calc {
		if calc[i] == nil || ref[i] == nil {
			continue
		}
		st.Compared++
		same := scoring.ClassifyFIB4(calc[i]) == scoring.ClassifyFIB4(ref[i])
		if same {
			agree++
		} else {
			st.Discordant++
		}
		if nearThreshold(*ref[i]) {
			st.NearThreshold++
			if same {
				nearAgree++
			}
		}
	}
	st.Agreement = ratio(agree, st.Compared)
	st.NearAgreement = ratio(nearAgree, st.NearThreshold)
	return st
}

func ratio(n, d int) *float64 {
	if d == 0 {
		return nil
	}
	r := float64(n) / float64(d)
	return &r
}

func countDefined(vals []*float64) int {
	n := 0
	for _, v := range vals {
		if v != nil {
			n++
		}
	}
	return n
}
