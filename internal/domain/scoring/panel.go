package scoring

// LabPanel holds the optional lab inputs for one patient.
type LabPanel struct {
	Age         *float64    `json:"age,omitempty" yaml:"age,omitempty"`
	AST         *float64    `json:"ast,omitempty" yaml:"ast,omitempty"`
	ALT         *float64    `json:"alt,omitempty" yaml:"alt,omitempty"`
	Platelets   *float64    `json:"platelets,omitempty" yaml:"platelets,omitempty"`
	Albumin     *float64    `json:"albumin,omitempty" yaml:"albumin,omitempty"`
	BMI         *float64    `json:"bmi,omitempty" yaml:"bmi,omitempty"`
	Glucose     *float64    `json:"glucose,omitempty" yaml:"glucose,omitempty"`
	Insulin     *float64    `json:"insulin,omitempty" yaml:"insulin,omitempty"`
	Diabetes    *bool       `json:"diabetes,omitempty" yaml:"diabetes,omitempty"`
	GlucoseUnit GlucoseUnit `json:"glucose_unit,omitempty" yaml:"glucose_unit,omitempty"`
	ASTULN      *float64    `json:"ast_uln,omitempty" yaml:"ast_uln,omitempty"`
}

// ScoreResult holds the computed indices. A nil score is undefined.
type ScoreResult struct {
	FIB4         *float64     `json:"fib4" yaml:"fib4"`
	APRI         *float64     `json:"apri" yaml:"apri"`
	NFS          *float64     `json:"nfs" yaml:"nfs"`
	HOMAIR       *float64     `json:"homa_ir" yaml:"homa_ir"`
	FIB4Risk     RiskCategory `json:"fib4_risk" yaml:"fib4_risk"`
	FIB4RiskCode *int         `json:"fib4_risk_code" yaml:"fib4_risk_code"`
}

// Compute evaluates every index on the panel. Each score is independent; one
// undefined score never affects another.
func Compute(p LabPanel) ScoreResult {
	unit := p.GlucoseUnit
	if unit == "" {
		unit = GlucoseMgDL
	}
	fib4 := FIB4(p.Age, p.AST, p.ALT, p.Platelets)
	risk := ClassifyFIB4(fib4)
	return ScoreResult{
		FIB4:         fib4,
		APRI:         APRI(p.AST, p.Platelets, p.ASTULN),
		NFS:          NFS(p.Age, p.BMI, p.Platelets, p.Albumin, p.AST, p.ALT, p.Diabetes),
		HOMAIR:       HOMAIR(p.Glucose, p.Insulin, unit),
		FIB4Risk:     risk,
		FIB4RiskCode: risk.CodePtr(),
	}
}
