package model

import (
	"math"
	"reflect"
	"sync"
	"testing"
)

func TestParseOccurrenceMetaAliases(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"canonical", `{"model_name":"occ","features":["month","dow_num"],"is_log_target":true}`},
		{"feature_names", `{"name":"occ","feature_names":["month","dow_num"],"log_target":true}`},
		{"input_features", `{"model":"occ","input_features":["month","dow_num"],"is_log_target":true}`},
		{"columns", `{"model_name":"occ","columns":["month","dow_num"],"is_log_target":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseOccurrenceMeta([]byte(tc.body))
			if err != nil {
				t.Fatalf("ParseOccurrenceMeta: %v", err)
			}
			if m.ModelName != "occ" || !m.IsLogTarget {
				t.Fatalf("meta = %+v", m)
			}
			if !reflect.DeepEqual(m.Features, []string{"month", "dow_num"}) {
				t.Fatalf("features = %v", m.Features)
			}
		})
	}
}

func TestParseOccurrenceMetaNoFeatures(t *testing.T) {
	if _, err := ParseOccurrenceMeta([]byte(`{"model_name":"occ"}`)); err == nil {
		t.Fatal("expected error for empty feature list")
	}
}

func TestParseSeverityMetaRejectsUnsortedThresholds(t *testing.T) {
	body := `{"num_cols":["hour"],"cat_cols":[],"thresholds":[1.5,0.5],"severity_labels":["a","b","c"]}`
	if _, err := ParseSeverityMeta([]byte(body)); err == nil {
		t.Fatal("expected error for unsorted thresholds")
	}
}

func TestParseSeverityMetaLabelCount(t *testing.T) {
	body := `{"num_cols":["hour"],"thresholds":[0.5,1.5],"severity_labels":["a","b"]}`
	if _, err := ParseSeverityMeta([]byte(body)); err == nil {
		t.Fatal("expected error for label/threshold count mismatch")
	}
}

func TestVectorWidth(t *testing.T) {
	m := &SeverityMeta{
		NumCols:       []string{"hour", "aadt"},
		CatCols:       []string{"CD_ECLRM", "free"},
		CatCategories: map[string][]string{"CD_ECLRM": {"1", "2", "3"}},
	}
	// 2 numeric + 3 one-hot + 1 undeclared categorical slot.
	if got := m.VectorWidth(); got != 6 {
		t.Fatalf("VectorWidth = %d", got)
	}
}

func TestBuildSeverityVector(t *testing.T) {
	fill := 12.0
	m := &SeverityMeta{
		NumCols:       []string{"hour"},
		NumFill:       map[string]*float64{"hour": &fill},
		CatCols:       []string{"CD_ECLRM"},
		CatCategories: map[string][]string{"CD_ECLRM": {"1", "2", "3"}},
	}

	got := BuildSeverityVector(m, SeverityForm{
		Numeric:     map[string]float64{"hour": 7},
		Categorical: map[string]string{"CD_ECLRM": "2"},
	})
	want := []float32{7, 0, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("vector = %v, want %v", got, want)
	}

	// Missing numeric falls back to the fill value.
	got = BuildSeverityVector(m, SeverityForm{
		Categorical: map[string]string{"CD_ECLRM": "1"},
	})
	if got[0] != 12 {
		t.Fatalf("fill slot = %v", got[0])
	}

	// Non-finite numeric also falls back.
	got = BuildSeverityVector(m, SeverityForm{
		Numeric:     map[string]float64{"hour": math.NaN()},
		Categorical: map[string]string{"CD_ECLRM": "1"},
	})
	if got[0] != 12 {
		t.Fatalf("NaN slot = %v", got[0])
	}

	// A selection outside the declared list yields an all-zero block.
	got = BuildSeverityVector(m, SeverityForm{
		Numeric:     map[string]float64{"hour": 1},
		Categorical: map[string]string{"CD_ECLRM": "9"},
	})
	if got[1] != 0 || got[2] != 0 || got[3] != 0 {
		t.Fatalf("out-of-list one-hot = %v", got)
	}

	if len(got) != m.VectorWidth() {
		t.Fatalf("length %d != width %d", len(got), m.VectorWidth())
	}
}

func TestBuildOccurrenceVector(t *testing.T) {
	meta := &OccurrenceMeta{Features: []string{
		"month", "dow_num", "year",
		"landuse__residential", "landuse__commercial",
		"poi_type__school",
		"RC_rc_2018_etat_pci", "RC_rc_2019_indice iri",
		"aadt", "population_aw", "intersection_count",
		"total_precip_v", "rain_v",
	}}
	form := OccurrenceForm{
		Month: 14, Dow: "Wed", Year: 2019,
		LanduseCategory: "commercial", LandusePct: 35,
		POICategory: "school", POICount: 4,
		RCYear: 2018, PCI: 70, IRI: 2.5,
		AADT: 500000, Population: 1200, IntersectionCount: 6,
		Extra: map[string]float64{"rain_v": 3},
	}
	v := BuildOccurrenceVector(meta, form)
	want := []float32{
		12,     // month clamped to 12
		3,      // Wed
		2019,   // year
		0, 35,  // one landuse slot hot
		4,      // poi
		70, 0,  // pci bound to rcYear 2018; 2019 iri slot stays 0
		200000, // aadt clamped
		1200, 6,
		0, // precip pinned
		3, // extra
	}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("vector = %v, want %v", v, want)
	}
}

func TestBuildOccurrenceVectorUnknownDow(t *testing.T) {
	meta := &OccurrenceMeta{Features: []string{"dow_num"}}
	v := BuildOccurrenceVector(meta, OccurrenceForm{Dow: "???"})
	if v[0] != 1 {
		t.Fatalf("unknown dow = %v, want 1", v[0])
	}
}

func TestRCYears(t *testing.T) {
	features := []string{
		"RC_rc_2019_etat_pci", "RC_rc_2018_indice iri",
		"RC_rc_2020_etat_pci", "RC_rc_2018_etat_pci", "aadt",
	}
	got := RCYears(features)
	if !reflect.DeepEqual(got, []int{2018, 2019}) {
		t.Fatalf("RCYears = %v", got)
	}
}

func TestScoreToClass(t *testing.T) {
	m := &SeverityMeta{
		Thresholds:     []float64{0.5, 1.5, 2.5},
		SeverityLabels: []string{"Low", "Mid", "High", "Severe"},
	}
	cases := map[float64]string{
		0.4: "Low",
		0.5: "Mid",
		1.4: "Mid",
		1.5: "High",
		2.6: "Severe",
	}
	for score, want := range cases {
		if got := ScoreToClass(m, score); got != want {
			t.Errorf("ScoreToClass(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestParseImportance(t *testing.T) {
	headered := "feature,importance\naadt,0.4\nmonth,0.6\nbad,x\n,0.2\n"
	rows, err := ParseImportance([]byte(headered))
	if err != nil {
		t.Fatalf("ParseImportance: %v", err)
	}
	if len(rows) != 2 || rows[0].Feature != "month" || rows[1].Feature != "aadt" {
		t.Fatalf("rows = %+v", rows)
	}

	bare := "aadt,0.4\nmonth,0.6\n"
	rows, err = ParseImportance([]byte(bare))
	if err != nil {
		t.Fatalf("ParseImportance bare: %v", err)
	}
	if len(rows) != 2 || rows[0].Importance != 0.6 {
		t.Fatalf("bare rows = %+v", rows)
	}

	gini := "feature,gini\na,1\nb,2\n"
	rows, err = ParseImportance([]byte(gini))
	if err != nil {
		t.Fatalf("ParseImportance gini: %v", err)
	}
	if rows[0].Feature != "b" {
		t.Fatalf("gini rows = %+v", rows)
	}
}

func TestProgressMonotonic(t *testing.T) {
	var p Progress
	var got []float64
	p.Subscribe(func(pct float64) { got = append(got, pct) })
	p.Publish(10)
	p.Publish(5) // regression dropped
	p.Publish(60)
	p.Publish(100)
	p.Publish(120) // clamped, already at 100
	want := []float64{0, 10, 60, 100}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("updates = %v, want %v", got, want)
	}

	// Late subscriber sees the terminal value immediately.
	var late float64 = -1
	p.Subscribe(func(pct float64) { late = pct })
	if late != 100 {
		t.Fatalf("late subscriber saw %v", late)
	}
}

func TestCacheSharesPendingSlot(t *testing.T) {
	c := NewCache(CacheConfig{}, nil)
	const url = "/models/occurrence.onnx"

	var wg sync.WaitGroup
	slots := make([]*Progress, 8)
	for i := range slots {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dl, _ := c.Progress(url)
			slots[i] = dl
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(slots); i++ {
		if slots[i] != slots[0] {
			t.Fatal("concurrent callers must share one progress channel")
		}
	}
}
