package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCharts(t *testing.T) {
	dataDir := writeDatasets(t)
	outDir := filepath.Join(t.TempDir(), "results")
	summary, err := NewRunner(dataDir, outDir, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	chartsDir := filepath.Join(t.TempDir(), "charts")
	written, err := RenderCharts(summary, chartsDir)
	require.NoError(t, err)
	require.Len(t, written, 4)

	read := func(name string) string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(chartsDir, name))
		require.NoError(t, err)
		return string(data)
	}

	fidelity := read(FidelityChart)
	for _, title := range []string{"FIB-4 agreement", "APRI agreement", "NFS agreement", "HOMA-IR agreement"} {
		assert.Contains(t, fidelity, title)
	}
	assert.Contains(t, fidelity, "y = x")

	threshold := read(ThresholdChart)
	assert.Contains(t, threshold, "FIB-4 threshold stability")
	assert.Contains(t, threshold, "Low cut-off")
	assert.Contains(t, threshold, "High cut-off")

	outcomes := read(OutcomesChart)
	assert.Contains(t, outcomes, "Valid HOMA-IR")
	assert.Contains(t, outcomes, "Excluded")

	dist := read(DistributionsChart)
	assert.Contains(t, dist, "Age distribution")
	assert.Contains(t, dist, "BMI distribution")
}

func TestRenderCharts_MissingOutput(t *testing.T) {
	summary := &Summary{Datasets: []DatasetReport{{Name: "fib4_apri", Output: filepath.Join(t.TempDir(), "gone.csv")}}}
	_, err := RenderCharts(summary, t.TempDir())
	assert.Error(t, err)
}

func TestOutcomeCounts(t *testing.T) {
	summary := &Summary{Datasets: []DatasetReport{
		{Name: "fib4_apri", Rows: 10, Scores: []ScoreReport{{Index: "fib4", Computed: 7}, {Index: "apri", Computed: 9}}},
		{Name: "nfs", Rows: 5, Scores: []ScoreReport{{Index: "nfs", Computed: 4}}},
		{Name: "homa_ir", Rows: 6, Scores: []ScoreReport{{Index: "homa_ir", Computed: 6}}},
	}}
	labels, values := outcomeCounts(summary)
	assert.Equal(t, []string{"Total", "Valid FIB-4", "Valid APRI", "Valid HOMA-IR", "Valid NFS", "Excluded"}, labels)
	assert.Equal(t, []int{21, 7, 9, 6, 4, 2}, values)
}

func TestPairs_NearThreshold(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	calc := []*float64{f(1.2), f(2.0), nil, f(2.7), f(0.5)}
	ref := []*float64{f(1.25), f(2.0), f(1.3), f(2.6), nil}

	all := pairs(calc, ref, nil)
	assert.Len(t, all, 3)

	near := pairs(calc, ref, nearThreshold)
	assert.Equal(t, [][2]float64{{1.25, 1.2}, {2.6, 2.7}}, near)
}

func TestHistogram(t *testing.T) {
	labels, counts := histogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
	require.Len(t, labels, 5)
	assert.Equal(t, []int{2, 2, 2, 2, 3}, counts)

	labels, counts = histogram([]float64{4, 4, 4}, 20)
	assert.Equal(t, []string{"4"}, labels)
	assert.Equal(t, []int{3}, counts)

	labels, counts = histogram(nil, 20)
	assert.Nil(t, labels)
	assert.Nil(t, counts)
}
