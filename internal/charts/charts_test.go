package charts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/filters"
	"github.com/sleepysunflower/traffic-collisions/internal/labels"
	"github.com/sleepysunflower/traffic-collisions/internal/query"
)

func parseDict(t *testing.T, body string) *labels.Dictionary {
	t.Helper()
	d, err := labels.ParseDictionary([]byte(body))
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}
	return d
}

// fixtures are the minimal dataset files the engine materializes. Tests
// override incident_vars to shape the scenario under test.
var baseFixtures = map[string]string{
	engine.DatasetSeriesMonthly: "AN,month,count\n" +
		"2019,1,10\n2019,2,20\n2019,3,30\n2020,1,5\n",
	engine.DatasetSeriesYearly:   "AN,count\n2019,60\n2020,5\n",
	engine.DatasetMatrixDowHour:  "dow,hour,count\nLU,8,3\n",
	engine.DatasetMatrixDowMonth: "dow,month,count\nLU,1,3\n",
	engine.DatasetIncidentVars: "AN,month,quarter,JR_SEMN_ACCDN,GRAVITE,no_qr,no_arr,hour,CD_ECLRM\n" +
		"2019,1,1,LU,Mortel,12,3,8,1\n" +
		"2019,1,1,LU,Leger,12,3,9,1\n" +
		"2019,2,1,MA,Leger,14,3,8,2\n" +
		"2020,1,1,DI,Grave,12,3,17,\n",
}

func newTestEngine(t *testing.T, overrides map[string]string) *engine.Engine {
	t.Helper()
	root := t.TempDir()
	datasets := map[string]string{}
	for name, body := range baseFixtures {
		if ov, ok := overrides[name]; ok {
			body = ov
		}
		path := filepath.Join(root, name+".csv")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("writing fixture %s: %v", name, err)
		}
		datasets[name] = path
	}
	e := engine.New(engine.Config{DataRoot: root, Datasets: datasets}, nil)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestComputeTrendDaily(t *testing.T) {
	e := newTestEngine(t, map[string]string{
		engine.DatasetIncidentVars: "AN,month,quarter,JR_SEMN_ACCDN,GRAVITE,no_qr,no_arr,hour,DT_ACCDN\n" +
			"2019,1,1,LU,Mortel,12,3,8,2019-01-07\n" +
			"2019,1,1,LU,Leger,12,3,9,2019-01-07\n" +
			"2019,1,1,MA,Leger,12,3,8,2019-01-08\n",
	})
	tr, err := ComputeTrend(context.Background(), e, query.Predicate{})
	if err != nil {
		t.Fatalf("ComputeTrend: %v", err)
	}
	if tr.Granularity != "daily" {
		t.Fatalf("granularity = %q", tr.Granularity)
	}
	if len(tr.Points) != 2 {
		t.Fatalf("points = %+v", tr.Points)
	}
	if tr.Points[0].Label != "2019-01-07" || tr.Points[0].Count != 2 {
		t.Fatalf("first point = %+v", tr.Points[0])
	}
	if tr.ShortWindow != DailyShortWindow || tr.LongWindow != DailyLongWindow {
		t.Fatalf("windows = %d/%d", tr.ShortWindow, tr.LongWindow)
	}
	if len(tr.ShortAvg) != len(tr.Points) || len(tr.LongAvg) != len(tr.Points) {
		t.Fatal("rolling output length mismatch")
	}
}

func TestComputeTrendMonthlyFallback(t *testing.T) {
	e := newTestEngine(t, nil) // incident_vars has no date column
	tr, err := ComputeTrend(context.Background(), e, query.Predicate{})
	if err != nil {
		t.Fatalf("ComputeTrend: %v", err)
	}
	if tr.Granularity != "monthly" {
		t.Fatalf("granularity = %q", tr.Granularity)
	}
	if len(tr.Points) != 4 {
		t.Fatalf("points = %+v", tr.Points)
	}
	if tr.Points[0].Label != "2019-01" || tr.Points[0].Count != 10 {
		t.Fatalf("first point = %+v", tr.Points[0])
	}
	if tr.ShortWindow != MonthlyShortWindow || tr.LongWindow != MonthlyLongWindow {
		t.Fatalf("windows = %d/%d", tr.ShortWindow, tr.LongWindow)
	}
}

func TestComputeTrendMonthlyRestrictsPredicate(t *testing.T) {
	// Hour is not a column of the monthly aggregate; the fallback must
	// drop dimensions the table cannot carry instead of failing.
	sel := filters.Selection{Years: []int{2019}, Severities: []string{"Mortel"}}
	pred := query.Build(sel)
	e := newTestEngine(t, nil)
	tr, err := ComputeTrend(context.Background(), e, pred)
	if err != nil {
		t.Fatalf("ComputeTrend: %v", err)
	}
	if tr.Granularity != "monthly" {
		t.Fatalf("granularity = %q", tr.Granularity)
	}
}

func TestComputeHeatmapByHour(t *testing.T) {
	e := newTestEngine(t, nil)
	hm, err := ComputeHeatmap(context.Background(), e, query.Predicate{}, HeatmapByHour)
	if err != nil {
		t.Fatalf("ComputeHeatmap: %v", err)
	}
	if hm.Mode != HeatmapByHour {
		t.Fatalf("mode = %s", hm.Mode)
	}
	wantDows := []string{"Mon", "Tue", "Sun"}
	if len(hm.Dows) != len(wantDows) {
		t.Fatalf("dows = %v", hm.Dows)
	}
	for i, d := range wantDows {
		if hm.Dows[i] != d {
			t.Fatalf("dows = %v, want %v", hm.Dows, wantDows)
		}
	}
	// LU rows at hours 8 and 9, MA at 8, DI at 17.
	if len(hm.Cols) != 3 || hm.Cols[0] != 8 || hm.Cols[2] != 17 {
		t.Fatalf("cols = %v", hm.Cols)
	}
	if len(hm.Cells) != 4 {
		t.Fatalf("cells = %+v", hm.Cells)
	}
	if hm.Max != 1 {
		t.Fatalf("max = %d", hm.Max)
	}
}

func TestComputeHeatmapFiltered(t *testing.T) {
	e := newTestEngine(t, nil)
	pred := query.Build(filters.Selection{Severities: []string{"Leger"}})
	hm, err := ComputeHeatmap(context.Background(), e, pred, HeatmapByMonth)
	if err != nil {
		t.Fatalf("ComputeHeatmap: %v", err)
	}
	total := 0
	for _, c := range hm.Cells {
		total += c.Value
	}
	if total != 2 {
		t.Fatalf("filtered total = %d, cells %+v", total, hm.Cells)
	}
}

func TestNormalizeDow(t *testing.T) {
	cases := map[string]string{
		"1": "Mon", "7": "Sun", "0": "Mon", "6": "Sun",
		"LU": "Mon", "di": "Sun", "SA": "Sat",
		"Mon": "Mon", "tue": "Tue",
		"9": "9", "??": "??",
	}
	for raw, want := range cases {
		if got := NormalizeDow(raw); got != want {
			t.Errorf("NormalizeDow(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestComputeDistribution(t *testing.T) {
	e := newTestEngine(t, nil)
	dist, err := ComputeDistribution(context.Background(), e, query.Predicate{}, "CD_ECLRM", nil)
	if err != nil {
		t.Fatalf("ComputeDistribution: %v", err)
	}
	if dist.Variable != "CD_ECLRM" {
		t.Fatalf("variable = %q", dist.Variable)
	}
	// Codes 1 (x2), 2 (x1) and one NULL, ordered by descending count.
	if len(dist.Rows) != 3 {
		t.Fatalf("rows = %+v", dist.Rows)
	}
	if dist.Rows[0].Key != "1" || dist.Rows[0].Count != 2 {
		t.Fatalf("top row = %+v", dist.Rows[0])
	}
	keys := dist.Keys()
	found := map[string]bool{}
	for _, k := range keys {
		found[k] = true
	}
	if !found["NA"] {
		t.Fatalf("keys = %v, expected canonical NA for the NULL cell", keys)
	}
}

func TestComputeDistributionLabels(t *testing.T) {
	e := newTestEngine(t, nil)
	dict := parseDict(t, `{"CD_ECLRM": {"1": "Daylight", "2": "Dusk"}}`)
	dist, err := ComputeDistribution(context.Background(), e, query.Predicate{}, "CD_ECLRM", dict)
	if err != nil {
		t.Fatalf("ComputeDistribution: %v", err)
	}
	for _, r := range dist.Rows {
		switch r.Key {
		case "1":
			if r.Label != "Daylight" {
				t.Fatalf("label for 1 = %q", r.Label)
			}
		case "2":
			if r.Label != "Dusk" {
				t.Fatalf("label for 2 = %q", r.Label)
			}
		}
	}
}
