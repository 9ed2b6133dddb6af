package validation

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/hepacheck/hepacheck/internal/domain/scoring"
)

// Chart files written by RenderCharts.
const (
	FidelityChart      = "fidelity.html"
	ThresholdChart     = "threshold_stability.html"
	OutcomesChart      = "outcomes.html"
	DistributionsChart = "distributions.html"
)

const histogramBins = 20

// chartIndex ties a score to its calc/ref columns in a validation table.
type chartIndex struct {
	dataset string
	label   string
	prefix  string
}

var chartIndexes = []chartIndex{
	{"fib4_apri", "FIB-4", "FIB4"},
	{"fib4_apri", "APRI", "APRI"},
	{"nfs", "NFS", "NFS"},
	{"homa_ir", "HOMA-IR", "HOMA"},
}

var distributionColumns = []struct {
	label   string
	aliases []string
}{
	{"Age", []string{"Age", "Age (years)", "Patient Age"}},
	{"AST", []string{"AST", "AST (SGOT)", "AST (U/L)", "AST (IU/L)"}},
	{"Platelets", []string{"Platelets", "Platelet count", "Platelets (10^9/L)", "PLT"}},
	{"BMI", []string{"BMI", "BMI (kg/m2)", "Body mass index"}},
}

// RenderCharts writes HTML charts for a finished run into dir. The validation
// tables are read back from each dataset's output, so any completed run can be
// charted. It returns the paths written.
func RenderCharts(sum *Summary, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}
	tables := make(map[string]*Table, len(sum.Datasets))
	for _, d := range sum.Datasets {
		t, err := LoadCSV(d.Output)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name, err)
		}
		tables[d.Name] = t
	}

	pages := []struct {
		file   string
		charts []components.Charter
	}{
		{FidelityChart, fidelityCharts(tables)},
		{ThresholdChart, []components.Charter{thresholdChart(tables["fib4_apri"])}},
		{OutcomesChart, []components.Charter{outcomesChart(sum)}},
		{DistributionsChart, distributionCharts(tables)},
	}

	written := make([]string, 0, len(pages))
	for _, p := range pages {
		path := filepath.Join(dir, p.file)
		if err := writePage(path, p.charts); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writePage(path string, cs []components.Charter) error {
	page := components.NewPage()
	page.PageTitle = "HepaCheck validation"
	page.AddCharts(cs...)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := page.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// exactColumn matches normalised headers exactly. Substring matching is too
// loose across datasets ("fasting glucose" contains "ast").
func exactColumn(t *Table, aliases ...string) []*float64 {
	if t == nil {
		return nil
	}
	for _, a := range aliases {
		want := normalizeHeader(a)
		for i, h := range t.Header {
			if normalizeHeader(h) == want {
				return parseNumbers(t.Column(i))
			}
		}
	}
	return nil
}

// pairs keeps rows where both values are defined, as (ref, calc) points.
func pairs(calc, ref []*float64, keep func(ref float64) bool) [][2]float64 {
	var out [][2]float64
	for i := range calc {
		if i >= len(ref) || calc[i] == nil || ref[i] == nil {
			continue
		}
		if keep != nil && !keep(*ref[i]) {
			continue
		}
		out = append(out, [2]float64{*ref[i], *calc[i]})
	}
	return out
}

// bounds pads the joint range of both coordinates by 5%.
func bounds(pts [][2]float64) (lo, hi float64) {
	if len(pts) == 0 {
		return 0, 1
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		lo = math.Min(lo, math.Min(p[0], p[1]))
		hi = math.Max(hi, math.Max(p[0], p[1]))
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	return lo - 0.05*span, hi + 0.05*span
}

func scatterData(pts [][2]float64) []opts.ScatterData {
	data := make([]opts.ScatterData, len(pts))
	for i, p := range pts {
		data[i] = opts.ScatterData{Value: []interface{}{p[0], p[1]}, SymbolSize: 6}
	}
	return data
}

func agreementScatter(title, subtitle, label string, pts [][2]float64, extra ...charts.SeriesOpts) *charts.Scatter {
	lo, hi := bounds(pts)
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "640px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Reference " + label, Min: lo, Max: hi}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "HepaCheck " + label, Min: lo, Max: hi}),
	)
	seriesOpts := append([]charts.SeriesOpts{
		charts.WithMarkLineNameCoordItemOpts(opts.MarkLineNameCoordItem{
			Name:        "y = x",
			Coordinate0: []interface{}{lo, lo},
			Coordinate1: []interface{}{hi, hi},
		}),
	}, extra...)
	sc.AddSeries(label, scatterData(pts), seriesOpts...)
	return sc
}

func fidelityCharts(tables map[string]*Table) []components.Charter {
	var out []components.Charter
	for _, ix := range chartIndexes {
		t := tables[ix.dataset]
		calc := exactColumn(t, ix.prefix+"_calc")
		ref := exactColumn(t, ix.prefix+"_ref")
		if calc == nil || ref == nil {
			continue
		}
		pts := pairs(calc, ref, nil)
		st := compare(calc, ref)
		subtitle := fmt.Sprintf("n=%d", len(pts))
		if st.MAE != nil && st.MaxAbsError != nil {
			subtitle = fmt.Sprintf("MAE=%.6f  Max|err|=%.6f  n=%d", *st.MAE, *st.MaxAbsError, len(pts))
		}
		out = append(out, agreementScatter(ix.label+" agreement", subtitle, ix.label, pts))
	}
	return out
}

func thresholdChart(t *Table) components.Charter {
	pts := pairs(exactColumn(t, "FIB4_calc"), exactColumn(t, "FIB4_ref"), nearThreshold)
	return agreementScatter(
		"FIB-4 threshold stability",
		fmt.Sprintf("Reference within %.1f of a cut-off, n=%d", ThresholdWindow, len(pts)),
		"FIB-4",
		pts,
		charts.WithMarkLineNameXAxisItemOpts(
			opts.MarkLineNameXAxisItem{Name: "Low cut-off", XAxis: scoring.FIB4LowCutoff},
			opts.MarkLineNameXAxisItem{Name: "High cut-off", XAxis: scoring.FIB4HighCutoff},
		),
	)
}

func computedCount(sum *Summary, index string) int {
	for _, d := range sum.Datasets {
		for _, s := range d.Scores {
			if s.Index == index {
				return s.Computed
			}
		}
	}
	return 0
}

// outcomeCounts counts records per outcome. A row is excluded when none of
// its dataset's scores could be computed.
func outcomeCounts(sum *Summary) ([]string, []int) {
	total, excluded := 0, 0
	for _, d := range sum.Datasets {
		total += d.Rows
		best := 0
		for _, s := range d.Scores {
			best = max(best, s.Computed)
		}
		excluded += d.Rows - best
	}
	labels := []string{"Total", "Valid FIB-4", "Valid APRI", "Valid HOMA-IR", "Valid NFS", "Excluded"}
	values := []int{
		total,
		computedCount(sum, "fib4"),
		computedCount(sum, "apri"),
		computedCount(sum, "homa_ir"),
		computedCount(sum, "nfs"),
		excluded,
	}
	return labels, values
}

func outcomesChart(sum *Summary) components.Charter {
	labels, values := outcomeCounts(sum)
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Validation outcomes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Records"}),
	)
	bar.SetXAxis(labels).
		AddSeries("Records", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// histogram splits vals into equal-width bins over their range.
func histogram(vals []float64, bins int) ([]string, []int) {
	if len(vals) == 0 || bins <= 0 {
		return nil, nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		return []string{fmt.Sprintf("%g", lo)}, []int{len(vals)}
	}
	counts := make([]int, bins)
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.3g-%.3g", lo+float64(i)*width, lo+float64(i+1)*width)
	}
	return labels, counts
}

func distributionCharts(tables map[string]*Table) []components.Charter {
	var out []components.Charter
	for _, col := range distributionColumns {
		var vals []float64
		for _, name := range []string{"fib4_apri", "nfs", "homa_ir"} {
			for _, v := range exactColumn(tables[name], col.aliases...) {
				if v != nil {
					vals = append(vals, *v)
				}
			}
		}
		if len(vals) == 0 {
			continue
		}
		labels, counts := histogram(vals, histogramBins)
		data := make([]opts.BarData, len(counts))
		for i, c := range counts {
			data[i] = opts.BarData{Value: c}
		}
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "640px", Height: "400px"}),
			charts.WithTitleOpts(opts.Title{
				Title:    col.label + " distribution",
				Subtitle: fmt.Sprintf("n=%d", len(vals)),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
		)
		bar.SetXAxis(labels).AddSeries(col.label, data)
		out = append(out, bar)
	}
	return out
}
