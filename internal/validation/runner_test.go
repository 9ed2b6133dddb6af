package validation

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fib4APRICSV = "Age;AST (SGOT);ALT (SGPT);Platelet count;FIB-4 score;APRI\n" +
	"55;50;45;200;2.05;0.625\n" +
	"40;30;0;250;NA;0.3\n" +
	"60;NA;30;150;1.5;no data\n" +
	"1;2\n"

const nfsCSV = "Age,BMI,Diabetes,AST,ALT,Platelets,Albumin,NFS\n" +
	"50,30,no,40,40,200,4,-1.255\n" +
	"50,30,maybe,40,40,200,4,1\n" +
	"50,30,yes,40,40,200,4,-0.125\n"

const homaCSV = "Fasting glucose\tInsulin\tHOMA-IR\n" +
	"5.0\t9\t2\n" +
	"5.5\t10\t2.44\n" +
	"NA\t5\t1\n"

func writeDatasets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := DefaultFiles()
	require.NoError(t, os.WriteFile(filepath.Join(dir, files.FIB4APRI), []byte(fib4APRICSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, files.NFS), []byte(nfsCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, files.HOMA), []byte(homaCSV), 0o644))
	return dir
}

func scoreByIndex(t *testing.T, s *Summary, index string) ScoreReport {
	t.Helper()
	for _, d := range s.Datasets {
		for _, sc := range d.Scores {
			if sc.Index == index {
				return sc
			}
		}
	}
	t.Fatalf("no report for %s", index)
	return ScoreReport{}
}

func TestRunner_Run(t *testing.T) {
	dataDir := writeDatasets(t)
	outDir := filepath.Join(t.TempDir(), "results")

	summary, err := NewRunner(dataDir, outDir, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Datasets, 3)
	assert.Equal(t, "fib4_apri", summary.Datasets[0].Name)
	assert.Equal(t, "nfs", summary.Datasets[1].Name)
	assert.Equal(t, "homa_ir", summary.Datasets[2].Name)

	fib4 := scoreByIndex(t, summary, "fib4")
	assert.Equal(t, 1, fib4.Eligible)
	assert.Equal(t, 1, fib4.Computed)
	assert.Equal(t, "FIB-4 score", fib4.ReferenceColumn)
	assert.Equal(t, 1, fib4.Compared)
	require.NotNil(t, fib4.MAE)
	assert.InDelta(t, 0.000272, *fib4.MAE, 1e-5)
	require.NotNil(t, fib4.Categories)
	assert.Equal(t, 1.0, *fib4.Categories.Agreement)

	apri := scoreByIndex(t, summary, "apri")
	assert.Equal(t, 2, apri.Computed)
	assert.Equal(t, 2, apri.Compared)
	assert.InDelta(t, 0, *apri.MAE, 1e-12)

	nfs := scoreByIndex(t, summary, "nfs")
	assert.Equal(t, 2, nfs.Eligible, "unparseable diabetes is excluded by the mask")
	assert.InDelta(t, 0, *nfs.MAE, 1e-9)

	homa := scoreByIndex(t, summary, "homa_ir")
	assert.Equal(t, "mmol/L", summary.Datasets[2].GlucoseUnit)
	assert.Equal(t, 2, homa.Computed)
	assert.InDelta(t, 0.0022, *homa.MAE, 1e-3)

	assert.Equal(t, 3, summary.Datasets[0].Rows)
	assert.Equal(t, 1, summary.Datasets[0].Skipped)
}

func TestRunner_WritesOutputTables(t *testing.T) {
	dataDir := writeDatasets(t)
	outDir := t.TempDir()

	_, err := NewRunner(dataDir, outDir, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	tbl, err := LoadCSV(filepath.Join(outDir, "fib4_apri_validation.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Age", "AST (SGOT)", "ALT (SGPT)", "Platelet count", "FIB-4 score", "APRI",
		"FIB4_calc", "APRI_calc", "FIB4_ref", "FIB4_diff", "APRI_ref", "APRI_diff",
	}, tbl.Header)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "", tbl.Rows[1][6], "FIB-4 is undefined when ALT is zero")
	apri, err := strconv.ParseFloat(tbl.Rows[1][7], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, apri, 1e-12)

	for _, name := range []string{"nfs_validation.csv", "homa_validation.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunner_ComputedOnlyWithoutReference(t *testing.T) {
	dataDir := writeDatasets(t)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, DefaultFiles().HOMA),
		[]byte("Glucose,Insulin\n90,10\n100,12\n"), 0o644))

	summary, err := NewRunner(dataDir, t.TempDir(), zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	homa := scoreByIndex(t, summary, "homa_ir")
	assert.Equal(t, "mg/dL", summary.Datasets[2].GlucoseUnit)
	assert.Empty(t, homa.ReferenceColumn)
	assert.Nil(t, homa.MAE)
	assert.Equal(t, 2, homa.Computed)
}

func TestRunner_MissingDataset(t *testing.T) {
	dataDir := writeDatasets(t)
	require.NoError(t, os.Remove(filepath.Join(dataDir, DefaultFiles().NFS)))

	_, err := NewRunner(dataDir, t.TempDir(), zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data2-nfs.csv")
}

func TestRunner_MissingRequiredColumn(t *testing.T) {
	dataDir := writeDatasets(t)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, DefaultFiles().NFS),
		[]byte("Age,BMI\n50,30\n"), 0o644))

	_, err := NewRunner(dataDir, t.TempDir(), zerolog.Nop()).Run(context.Background())
	var missing *MissingColumnError
	assert.ErrorAs(t, err, &missing)
}

func TestEncode(t *testing.T) {
	mae := 0.25
	summary := &Summary{Datasets: []DatasetReport{{
		Name:   "homa_ir",
		Rows:   2,
		Scores: []ScoreReport{{Index: "homa_ir", Computed: 2, ErrorStats: ErrorStats{Compared: 2, MAE: &mae}}},
	}}}

	var js bytes.Buffer
	require.NoError(t, Encode(&js, "json", summary))
	assert.Contains(t, js.String(), `"mae": 0.25`)
	assert.Contains(t, js.String(), `"compared": 2`)

	var ym bytes.Buffer
	require.NoError(t, Encode(&ym, "yaml", summary))
	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &decoded))
	assert.True(t, strings.Contains(ym.String(), "mae: 0.25"))

	assert.Error(t, Encode(&js, "xml", summary))
}
