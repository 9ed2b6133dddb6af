package scoring

import (
	"math"
	"testing"
)

func readings(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		out[i] = Float(vals[i])
	}
	return out
}

func TestDetectGlucoseUnit(t *testing.T) {
	tests := []struct {
		name string
		in   []*float64
		want GlucoseUnit
	}{
		{"empty", nil, GlucoseMgDL},
		{"all missing", []*float64{nil, nil}, GlucoseMgDL},
		{"all nan", readings(math.NaN(), math.NaN()), GlucoseMgDL},
		{"mg/dL column", readings(88, 95, 101, 130), GlucoseMgDL},
		{"mmol/L column", readings(4.9, 5.4, 6.1), GlucoseMmolL},
		{"mmol/L with outlier", readings(5.1, 6.2, 100), GlucoseMmolL},
		{"even count median exactly 30", readings(20, 40), GlucoseMmolL},
		{"even count median above 30", readings(20, 42), GlucoseMgDL},
		{"missing readings ignored", []*float64{nil, Float(5.5), Float(math.Inf(1)), Float(6)}, GlucoseMmolL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectGlucoseUnit(tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDetectGlucoseUnit_DoesNotReorderInput(t *testing.T) {
	in := readings(9, 3, 7)
	DetectGlucoseUnit(in)
	if *in[0] != 9 || *in[1] != 3 || *in[2] != 7 {
		t.Errorf("input reordered: %v %v %v", *in[0], *in[1], *in[2])
	}
}

func TestParseGlucoseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    GlucoseUnit
		wantErr bool
	}{
		{"", GlucoseMgDL, false},
		{"mg/dL", GlucoseMgDL, false},
		{"MG/DL", GlucoseMgDL, false},
		{"mmol/L", GlucoseMmolL, false},
		{" mmol/l ", GlucoseMmolL, false},
		{"g/L", "", true},
	}
	for _, tt := range tests {
		got, err := ParseGlucoseUnit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGlucoseUnit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGlucoseUnit(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
