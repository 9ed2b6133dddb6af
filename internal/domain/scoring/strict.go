package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports the input that failed the strict checks.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must be > 0", e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

type namedValue struct {
	name string
	val  float64
}

func requirePositive(vals ...namedValue) error {
	for _, v := range vals {
		if !valid(v.val) || v.val <= 0 {
			return &ValidationError{Field: v.name}
		}
	}
	return nil
}

// result reports an overflowed computation against the score itself.
func result(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, &ValidationError{Field: name}
	}
	return *v, nil
}

// FIB4Strict is FIB4 for pre-validated inputs. Every input must be finite and
// > 0.
func FIB4Strict(age, ast, alt, platelets float64) (float64, error) {
	if err := requirePositive(
		namedValue{"age", age}, namedValue{"ast", ast},
		namedValue{"alt", alt}, namedValue{"platelets", platelets},
	); err != nil {
		return 0, err
	}
	return result("fib4", FIB4(&age, &ast, &alt, &platelets))
}

// APRIStrict is APRI with an explicit ULN. Every input must be finite and > 0.
func APRIStrict(ast, platelets, astULN float64) (float64, error) {
	if err := requirePositive(
		namedValue{"ast", ast}, namedValue{"platelets", platelets}, namedValue{"ast_uln", astULN},
	); err != nil {
		return 0, err
	}
	return result("apri", APRI(&ast, &platelets, &astULN))
}

// NFSStrict is NFS for pre-validated inputs. Every numeric input must be
// finite and > 0.
func NFSStrict(age, bmi, platelets, albumin, ast, alt float64, diabetes bool) (float64, error) {
	if err := requirePositive(
		namedValue{"age", age}, namedValue{"bmi", bmi},
		namedValue{"platelets", platelets}, namedValue{"albumin", albumin},
		namedValue{"ast", ast}, namedValue{"alt", alt},
	); err != nil {
		return 0, err
	}
	return result("nfs", NFS(&age, &bmi, &platelets, &albumin, &ast, &alt, &diabetes))
}

// HOMAIRStrict is HOMAIR for pre-validated inputs.
func HOMAIRStrict(glucose, insulin float64, unit GlucoseUnit) (float64, error) {
	if err := requirePositive(namedValue{"glucose", glucose}, namedValue{"insulin", insulin}); err != nil {
		return 0, err
	}
	return result("homa_ir", HOMAIR(&glucose, &insulin, unit))
}

// ComputeStrict fails on the first invalid input instead of marking scores
// undefined. FIB-4 and APRI inputs are mandatory. NFS is evaluated when BMI or
// albumin is supplied and HOMA-IR when glucose or insulin is supplied; once
// evaluated, all of their inputs are mandatory too. On error the partial
// result carries RiskUnknown.
func ComputeStrict(p LabPanel) (ScoreResult, error) {
	var res ScoreResult

	fib4, err := FIB4Strict(deref(p.Age), deref(p.AST), deref(p.ALT), deref(p.Platelets))
	if err != nil {
		return res, err
	}
	uln := DefaultASTULN
	if p.ASTULN != nil {
		uln = *p.ASTULN
	}
	apri, err := APRIStrict(deref(p.AST), deref(p.Platelets), uln)
	if err != nil {
		return res, err
	}
	res.FIB4, res.APRI = &fib4, &apri

	if p.BMI != nil || p.Albumin != nil {
		dm := p.Diabetes != nil && *p.Diabetes
		nfs, err := NFSStrict(deref(p.Age), deref(p.BMI), deref(p.Platelets), deref(p.Albumin), deref(p.AST), deref(p.ALT), dm)
		if err != nil {
			return res, err
		}
		res.NFS = &nfs
	}

	if p.Glucose != nil || p.Insulin != nil {
		unit := p.GlucoseUnit
		if unit == "" {
			unit = GlucoseMgDL
		}
		homa, err := HOMAIRStrict(deref(p.Glucose), deref(p.Insulin), unit)
		if err != nil {
			return res, err
		}
		res.HOMAIR = &homa
	}

	res.FIB4Risk = ClassifyFIB4(res.FIB4)
	res.FIB4RiskCode = res.FIB4Risk.CodePtr()
	return res, nil
}

// deref maps a missing value to 0 so the strict checks report it by name.
func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
