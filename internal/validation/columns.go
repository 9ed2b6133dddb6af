package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	ageAliases       = []string{"Age", "Age (years)", "Age years"}
	astAliases       = []string{"AST", "AST (SGOT)", "AST SGOT"}
	altAliases       = []string{"ALT", "ALT (SGPT)", "ALT SGPT"}
	plateletAliases  = []string{"Platelet count", "Platelets", "PLT"}
	albuminAliases   = []string{"Albumin", "ALB"}
	bmiAliases       = []string{"BMI", "Body mass index"}
	diabetesAliases  = []string{"Diabetes", "Diabetes Mellitus", "DM", "DM.IFG", "DM IFG"}
	glucoseAliases   = []string{"Glucose", "Fasting Blood sugar", "Fasting blood sugar", "FBG", "Fasting glucose"}
	insulinAliases   = []string{"Insulin", "Fasting insulin"}
	fib4RefAliases   = []string{"FIB-4 score", "FIB4", "FIB4 score"}
	apriRefAliases   = []string{"APRI (American reference)", "APRI American", "APRI"}
	nfsRefAliases    = []string{"NFS", "NAFLD fibrosis score", "NAFLD Fibrosis Score"}
	homaRefAliases   = []string{"HOMA", "HOMA-IR", "HOMA IR"}
	separatorPattern = regexp.MustCompile(`[%\-/_,]`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// normalizeHeader lowercases, turns brackets and separators into spaces and
// collapses whitespace so that "AST (SGOT)" and "ast_sgot" compare equal.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)
	s = separatorPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// MissingColumnError reports a required column none of the aliases matched.
type MissingColumnError struct {
	Aliases   []string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column: tried %q, available %q", e.Aliases, e.Available)
}

// pickColumn finds the column for aliases. An exact normalised match wins;
// otherwise the first header containing any normalised alias is used. It
// returns -1 when nothing matches and the column is optional.
func pickColumn(header []string, aliases []string, required bool) (int, error) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}
	want := make([]string, len(aliases))
	for i, a := range aliases {
		want[i] = normalizeHeader(a)
	}

	for i, h := range norm {
		for _, a := range want {
			if h == a {
				return i, nil
			}
		}
	}
	for i, h := range norm {
		for _, a := range want {
			if strings.Contains(h, a) {
				return i, nil
			}
		}
	}
	if required {
		return -1, &MissingColumnError{Aliases: aliases, Available: header}
	}
	return -1, nil
}
