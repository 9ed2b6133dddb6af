// Package validation re-computes scores over reference CSV datasets and
// reports how closely they match the reference values.
package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hepacheck/hepacheck/internal/domain/scoring"
)

// Files names the three input datasets inside the data directory.
type Files struct {
	FIB4APRI string
	NFS      string
	HOMA     string
}

func DefaultFiles() Files {
	return Files{
		FIB4APRI: "data1-fib,apri.csv",
		NFS:      "data2-nfs.csv",
		HOMA:     "data3-homa.csv",
	}
}

const (
	fib4APRIOutput = "fib4_apri_validation.csv"
	nfsOutput      = "nfs_validation.csv"
	homaOutput     = "homa_validation.csv"
)

type ScoreReport struct {
	Index           string `json:"index" yaml:"index"`
	Eligible        int    `json:"eligible" yaml:"eligible"`
	Computed        int    `json:"computed" yaml:"computed"`
	ReferenceColumn string `json:"reference_column,omitempty" yaml:"reference_column,omitempty"`
	ErrorStats      `yaml:",inline"`
	Categories      *CategoryStats `json:"categories,omitempty" yaml:"categories,omitempty"`
}

type DatasetReport struct {
	Name        string        `json:"name" yaml:"name"`
	Input       string        `json:"input" yaml:"input"`
	Output      string        `json:"output" yaml:"output"`
	Rows        int           `json:"rows" yaml:"rows"`
	Skipped     int           `json:"skipped_rows" yaml:"skipped_rows"`
	GlucoseUnit string        `json:"glucose_unit,omitempty" yaml:"glucose_unit,omitempty"`
	Scores      []ScoreReport `json:"scores" yaml:"scores"`
}

type Summary struct {
	Datasets []DatasetReport `json:"datasets" yaml:"datasets"`
}

type Runner struct {
	DataDir string
	OutDir  string
	Files   Files
	Logger  zerolog.Logger
}

func NewRunner(dataDir, outDir string, logger zerolog.Logger) *Runner {
	return &Runner{DataDir: dataDir, OutDir: outDir, Files: DefaultFiles(), Logger: logger}
}

type datasetFunc func(ctx context.Context, in, out string) (DatasetReport, error)

// Run validates the three datasets concurrently. Every input must exist
// before any work starts. The summary lists datasets in a fixed order.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	jobs := []struct {
		input  string
		output string
		run    datasetFunc
	}{
		{r.Files.FIB4APRI, fib4APRIOutput, r.runFIB4APRI},
		{r.Files.NFS, nfsOutput, r.runNFS},
		{r.Files.HOMA, homaOutput, r.runHOMA},
	}
	for _, j := range jobs {
		path := filepath.Join(r.DataDir, j.input)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("missing dataset %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	reports := make([]DatasetReport, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			rep, err := j.run(ctx, filepath.Join(r.DataDir, j.input), filepath.Join(r.OutDir, j.output))
			if err != nil {
				return fmt.Errorf("%s: %w", j.input, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Summary{Datasets: reports}, nil
}

func (r *Runner) load(in string) (*Table, error) {
	t, err := LoadCSV(in)
	if err != nil {
		return nil, err
	}
	r.Logger.Info().
		Str("file", filepath.Base(in)).
		Str("delimiter", fmt.Sprintf("%q", t.Delimiter)).
		Int("rows", len(t.Rows)).
		Int("cols", len(t.Header)).
		Int("skipped", t.Skipped).
		Msg("loaded dataset")
	return t, nil
}

func (r *Runner) columns(t *Table, aliases ...[]string) ([][]*float64, error) {
	out := make([][]*float64, len(aliases))
	for i, a := range aliases {
		idx, err := pickColumn(t.Header, a, true)
		if err != nil {
			return nil, err
		}
		out[i] = parseNumbers(t.Column(idx))
	}
	return out, nil
}

// attachReference adds <prefix>_ref and <prefix>_diff when a reference column
// is found and fills the error statistics. Only the first width columns are
// searched so that computed columns never match as their own reference.
func (r *Runner) attachReference(t *Table, width int, rep *ScoreReport, prefix string, aliases []string, calc []*float64) ([]*float64, error) {
	idx, err := pickColumn(t.Header[:width], aliases, false)
	if err != nil || idx < 0 {
		r.Logger.Info().Str("index", rep.Index).Msg("reference column not found, computed only")
		return nil, err
	}
	rep.ReferenceColumn = t.Header[idx]
	ref := parseNumbers(t.Column(idx))
	t.AddColumn(prefix+"_ref", ref)
	t.AddColumn(prefix+"_diff", diffs(calc, ref))
	rep.ErrorStats = compare(calc, ref)

	ev := r.Logger.Info().Str("index", rep.Index).Int("compared", rep.Compared)
	if rep.MAE != nil {
		ev = ev.Float64("mae", *rep.MAE)
	}
	ev.Msg("compared against reference")
	return ref, nil
}

func (r *Runner) save(t *Table, out string) error {
	if err := t.Save(out); err != nil {
		return err
	}
	r.Logger.Info().Str("output", out).Msg("saved validation table")
	return nil
}

func gate(mask []bool, f func(i int) *float64) ([]*float64, int) {
	out := make([]*float64, len(mask))
	eligible := 0
	for i, ok := range mask {
		if !ok {
			continue
		}
		eligible++
		out[i] = f(i)
	}
	return out, eligible
}

func (r *Runner) runFIB4APRI(ctx context.Context, in, out string) (DatasetReport, error) {
	rep := DatasetReport{Name: "fib4_apri", Input: in, Output: out}
	t, err := r.load(in)
	if err != nil {
		return rep, err
	}
	width := len(t.Header)
	cols, err := r.columns(t, ageAliases, astAliases, altAliases, plateletAliases)
	if err != nil {
		return rep, err
	}
	age, ast, alt, plt := cols[0], cols[1], cols[2], cols[3]
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	fib4Mask := make([]bool, len(t.Rows))
	apriMask := make([]bool, len(t.Rows))
	for i := range t.Rows {
		fib4Mask[i] = age[i] != nil && ast[i] != nil && alt[i] != nil && plt[i] != nil && *alt[i] > 0 && *plt[i] > 0
		apriMask[i] = ast[i] != nil && plt[i] != nil && *plt[i] > 0
	}

	fib4, fib4Eligible := gate(fib4Mask, func(i int) *float64 { return scoring.FIB4(age[i], ast[i], alt[i], plt[i]) })
	apri, apriEligible := gate(apriMask, func(i int) *float64 { return scoring.APRI(ast[i], plt[i], nil) })
	t.AddColumn("FIB4_calc", fib4)
	t.AddColumn("APRI_calc", apri)

	fib4Rep := ScoreReport{Index: "fib4", Eligible: fib4Eligible, Computed: countDefined(fib4)}
	fib4Ref, err := r.attachReference(t, width, &fib4Rep, "FIB4", fib4RefAliases, fib4)
	if err != nil {
		return rep, err
	}
	if fib4Ref != nil {
		cats := compareCategories(fib4, fib4Ref)
		fib4Rep.Categories = &cats
	}

	apriRep := ScoreReport{Index: "apri", Eligible: apriEligible, Computed: countDefined(apri)}
	if _, err := r.attachReference(t, width, &apriRep, "APRI", apriRefAliases, apri); err != nil {
		return rep, err
	}

	rep.Rows, rep.Skipped = len(t.Rows), t.Skipped
	rep.Scores = []ScoreReport{fib4Rep, apriRep}
	return rep, r.save(t, out)
}

func (r *Runner) runNFS(ctx context.Context, in, out string) (DatasetReport, error) {
	rep := DatasetReport{Name: "nfs", Input: in, Output: out}
	t, err := r.load(in)
	if err != nil {
		return rep, err
	}
	width := len(t.Header)
	cols, err := r.columns(t, ageAliases, bmiAliases, astAliases, altAliases,
		[]string{"Platelets", "Platelet count", "PLT"}, albuminAliases)
	if err != nil {
		return rep, err
	}
	age, bmi, ast, alt, plt, alb := cols[0], cols[1], cols[2], cols[3], cols[4], cols[5]
	dmIdx, err := pickColumn(t.Header, diabetesAliases, true)
	if err != nil {
		return rep, err
	}
	dm := parseDiabetes(t.Column(dmIdx))
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	mask := make([]bool, len(t.Rows))
	for i := range t.Rows {
		mask[i] = age[i] != nil && bmi[i] != nil && dm[i] != nil && ast[i] != nil &&
			alt[i] != nil && plt[i] != nil && alb[i] != nil && *alt[i] > 0 && *plt[i] > 0
	}
	nfs, eligible := gate(mask, func(i int) *float64 {
		return scoring.NFS(age[i], bmi[i], plt[i], alb[i], ast[i], alt[i], dm[i])
	})
	t.AddColumn("NFS_calc", nfs)

	nfsRep := ScoreReport{Index: "nfs", Eligible: eligible, Computed: countDefined(nfs)}
	if _, err := r.attachReference(t, width, &nfsRep, "NFS", nfsRefAliases, nfs); err != nil {
		return rep, err
	}

	rep.Rows, rep.Skipped = len(t.Rows), t.Skipped
	rep.Scores = []ScoreReport{nfsRep}
	return rep, r.save(t, out)
}

func (r *Runner) runHOMA(ctx context.Context, in, out string) (DatasetReport, error) {
	rep := DatasetReport{Name: "homa_ir", Input: in, Output: out}
	t, err := r.load(in)
	if err != nil {
		return rep, err
	}
	width := len(t.Header)
	cols, err := r.columns(t, glucoseAliases, insulinAliases)
	if err != nil {
		return rep, err
	}
	glu, ins := cols[0], cols[1]
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	unit := scoring.DetectGlucoseUnit(glu)
	rep.GlucoseUnit = string(unit)
	r.Logger.Info().Str("unit", string(unit)).Msg("detected glucose unit")

	mask := make([]bool, len(t.Rows))
	for i := range t.Rows {
		mask[i] = glu[i] != nil && ins[i] != nil
	}
	homa, eligible := gate(mask, func(i int) *float64 { return scoring.HOMAIR(glu[i], ins[i], unit) })
	t.AddColumn("HOMA_calc", homa)

	homaRep := ScoreReport{Index: "homa_ir", Eligible: eligible, Computed: countDefined(homa)}
	if _, err := r.attachReference(t, width, &homaRep, "HOMA", homaRefAliases, homa); err != nil {
		return rep, err
	}

	rep.Rows, rep.Skipped = len(t.Rows), t.Skipped
	rep.Scores = []ScoreReport{homaRep}
	return rep, r.save(t, out)
}
