package entry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hepacheck/hepacheck/internal/domain/scoring"
)

// responsePlaces is the rounding applied to scores in compute responses.
const responsePlaces = 3

// LooseBool accepts true/false, 0/1 and the usual yes/no spellings.
type LooseBool bool

func (b *LooseBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return b.parse(s)
	}
	return b.parse(string(data))
}

func (b *LooseBool) parse(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		*b = true
	case "0", "false", "f", "no", "n":
		*b = false
	default:
		return fmt.Errorf("invalid diabetes value %q", s)
	}
	return nil
}

// ScoreInput is the request body for compute and save.
type ScoreInput struct {
	Age         *float64   `json:"age"`
	AST         *float64   `json:"ast"`
	ALT         *float64   `json:"alt"`
	Platelets   *float64   `json:"platelets"`
	Albumin     *float64   `json:"albumin"`
	BMI         *float64   `json:"bmi"`
	Glucose     *float64   `json:"glucose"`
	Insulin     *float64   `json:"insulin"`
	Diabetes    *LooseBool `json:"diabetes"`
	GlucoseUnit string     `json:"glucose_unit"`
	ASTULN      *float64   `json:"ast_uln"`
}

// Panel validates the input and converts it to a scoring panel. Negative
// values are rejected; zero is passed through and handled by the scores.
func (in ScoreInput) Panel() (scoring.LabPanel, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"age", in.Age}, {"ast", in.AST}, {"alt", in.ALT}, {"platelets", in.Platelets},
		{"albumin", in.Albumin}, {"bmi", in.BMI}, {"glucose", in.Glucose},
		{"insulin", in.Insulin}, {"ast_uln", in.ASTULN},
	}
	for _, f := range fields {
		if f.v == nil {
			continue
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) || *f.v < 0 {
			return scoring.LabPanel{}, fmt.Errorf("%s must be a non-negative number", f.name)
		}
	}

	unit, err := scoring.ParseGlucoseUnit(in.GlucoseUnit)
	if err != nil {
		return scoring.LabPanel{}, err
	}

	p := scoring.LabPanel{
		Age:         in.Age,
		AST:         in.AST,
		ALT:         in.ALT,
		Platelets:   in.Platelets,
		Albumin:     in.Albumin,
		BMI:         in.BMI,
		Glucose:     in.Glucose,
		Insulin:     in.Insulin,
		GlucoseUnit: unit,
		ASTULN:      in.ASTULN,
	}
	if in.Diabetes != nil {
		p.Diabetes = scoring.Bool(bool(*in.Diabetes))
	}
	return p, nil
}

// ScoreOutput is the compute response. Scores are rounded and undefined
// values are reported as 0.
type ScoreOutput struct {
	FIB4         float64 `json:"fib4"`
	APRI         float64 `json:"apri"`
	NFS          float64 `json:"nfs"`
	HOMAIR       float64 `json:"homa_ir"`
	FIB4Risk     string  `json:"fib4_risk"`
	FIB4RiskCode *int    `json:"fib4_risk_code"`
}

func NewScoreOutput(r scoring.ScoreResult) ScoreOutput {
	return ScoreOutput{
		FIB4:         Round(r.FIB4),
		APRI:         Round(r.APRI),
		NFS:          Round(r.NFS),
		HOMAIR:       Round(r.HOMAIR),
		FIB4Risk:     r.FIB4Risk.String(),
		FIB4RiskCode: r.FIB4RiskCode,
	}
}

// Round rounds half away from zero to three places. Nil is 0.
func Round(v *float64) float64 {
	if v == nil {
		return 0
	}
	return decimal.NewFromFloat(*v).Round(responsePlaces).InexactFloat64()
}
