package entry

import (
	"time"

	"github.com/hepacheck/hepacheck/internal/domain/scoring"
)

// Entry is one stored computation: the inputs as submitted plus the
// unrounded scores. Undefined scores stay nil through storage.
type Entry struct {
	ID          int64               `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	Age         *float64            `json:"age"`
	AST         *float64            `json:"ast"`
	ALT         *float64            `json:"alt"`
	Platelets   *float64            `json:"platelets"`
	Albumin     *float64            `json:"albumin"`
	BMI         *float64            `json:"bmi"`
	Glucose     *float64            `json:"glucose"`
	Insulin     *float64            `json:"insulin"`
	Diabetes    bool                `json:"diabetes"`
	GlucoseUnit scoring.GlucoseUnit `json:"glucose_unit"`
	FIB4        *float64            `json:"fib4"`
	APRI        *float64            `json:"apri"`
	NFS         *float64            `json:"nfs"`
	HOMAIR      *float64            `json:"homa_ir"`
	FIB4Risk    *int                `json:"fib4_risk"`
}

func NewEntry(p scoring.LabPanel, r scoring.ScoreResult) *Entry {
	unit := p.GlucoseUnit
	if unit == "" {
		unit = scoring.GlucoseMgDL
	}
	e := &Entry{
		Age:         p.Age,
		AST:         p.AST,
		ALT:         p.ALT,
		Platelets:   p.Platelets,
		Albumin:     p.Albumin,
		BMI:         p.BMI,
		Glucose:     p.Glucose,
		Insulin:     p.Insulin,
		Diabetes:    p.Diabetes != nil && *p.Diabetes,
		GlucoseUnit: unit,
		FIB4:        r.FIB4,
		APRI:        r.APRI,
		NFS:         r.NFS,
		HOMAIR:      r.HOMAIR,
		FIB4Risk:    r.FIB4RiskCode,
	}
	return e
}

// Risk decodes the stored FIB-4 code.
func (e *Entry) Risk() scoring.RiskCategory {
	return scoring.RiskFromCode(e.FIB4Risk)
}

func glucoseUnitOrDefault(s string) scoring.GlucoseUnit {
	u, err := scoring.ParseGlucoseUnit(s)
	if err != nil {
		return scoring.GlucoseMgDL
	}
	return u
}
