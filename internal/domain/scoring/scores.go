// Package scoring implements the liver-fibrosis and insulin-resistance
// indices (FIB-4, APRI, NFS, HOMA-IR) and the FIB-4 risk classifier.
//
// The graceful functions in this file take optional inputs and report an
// undefined result as nil. They never return errors and never substitute a
// numeric sentinel for a missing value.
package scoring

import "math"

// DefaultASTULN is the AST upper limit of normal used by APRI when the caller
// does not supply one.
const DefaultASTULN = 40.0

// NFS coefficients.
const (
	nfsIntercept = -1.675
	nfsAge       = 0.037
	nfsBMI       = 0.094
	nfsDiabetes  = 1.13
	nfsASTALT    = 0.99
	nfsPlatelets = 0.013
	nfsAlbumin   = 0.66
)

// HOMA-IR denominators per glucose unit.
const (
	homaDenomMgDL  = 405.0
	homaDenomMmolL = 22.5
)

// FIB4 computes (age × AST) / (platelets × √ALT). The result is nil unless all
// four inputs are present and finite, ALT > 0 and platelets > 0.
func FIB4(age, ast, alt, platelets *float64) *float64 {
	if !present(age, ast, alt, platelets) {
		return nil
	}
	if *alt <= 0 || *platelets <= 0 {
		return nil
	}
	return finite((*age * *ast) / (*platelets * math.Sqrt(*alt)))
}

// APRI computes (AST / ULN) / platelets × 100. A nil ULN means DefaultASTULN.
// The result is nil unless AST, platelets and ULN are present and strictly
// positive.
func APRI(ast, platelets, astULN *float64) *float64 {
	uln := DefaultASTULN
	if astULN != nil {
		uln = *astULN
	}
	if !present(ast, platelets) || !valid(uln) {
		return nil
	}
	if *ast <= 0 || *platelets <= 0 || uln <= 0 {
		return nil
	}
	return finite((*ast / uln) / *platelets * 100)
}

// NFS computes the NAFLD fibrosis score. A nil diabetes flag counts as false.
// The result is nil unless the six numeric inputs are present and ALT > 0.
func NFS(age, bmi, platelets, albumin, ast, alt *float64, diabetes *bool) *float64 {
	if !present(age, bmi, platelets, albumin, ast, alt) {
		return nil
	}
	if *alt <= 0 {
		return nil
	}
	dm := 0.0
	if diabetes != nil && *diabetes {
		dm = 1
	}
	v := nfsIntercept +
		nfsAge*(*age) +
		nfsBMI*(*bmi) +
		nfsDiabetes*dm +
		nfsASTALT*(*ast / *alt) -
		nfsPlatelets*(*platelets) -
		nfsAlbumin*(*albumin)
	return finite(v)
}

// HOMAIR computes glucose × insulin divided by 405 for mg/dL glucose or by
// 22.5 for mmol/L glucose. The result is nil unless both inputs are present
// and strictly positive.
func HOMAIR(glucose, insulin *float64, unit GlucoseUnit) *float64 {
	if !present(glucose, insulin) {
		return nil
	}
	if *glucose <= 0 || *insulin <= 0 {
		return nil
	}
	return finite(*glucose * *insulin / unit.homaDenominator())
}

func present(vals ...*float64) bool {
	for _, v := range vals {
		if v == nil || !valid(*v) {
			return false
		}
	}
	return true
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finite(v float64) *float64 {
	if !valid(v) {
		return nil
	}
	return &v
}

// Float returns a pointer to v. Useful for building panels in code.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
