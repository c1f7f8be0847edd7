package mapview

import "testing"

func TestClassifyCluster(t *testing.T) {
	cases := map[string]ClusterClass{
		"HH":  ClusterHighHigh,
		"HL":  ClusterHighLow,
		"LH":  ClusterLowHigh,
		"LL":  ClusterLowLow,
		"NS":  ClusterNotSignificant,
		"":    ClusterNotSignificant,
		"hh":  ClusterNotSignificant,
		"XYZ": ClusterNotSignificant,
	}
	for raw, want := range cases {
		if got := ClassifyCluster(raw); got != want {
			t.Errorf("ClassifyCluster(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestClusterLegend(t *testing.T) {
	legend := ClusterLegend()
	if len(legend) != 5 {
		t.Fatalf("legend rows = %d", len(legend))
	}
	if legend[0].Class != ClusterHighHigh || legend[0].Color != "#8B0000" {
		t.Fatalf("first row = %+v", legend[0])
	}
	if legend[4].Class != ClusterNotSignificant || legend[4].Color != notSignificantFill {
		t.Fatalf("last row = %+v", legend[4])
	}
}

func TestBuildClusterStyle(t *testing.T) {
	st := BuildClusterStyle()
	if st.FillOpacity != 0.45 || st.NotSignificantFillOpacity != 0.35 {
		t.Fatalf("opacities = %v / %v", st.FillOpacity, st.NotSignificantFillOpacity)
	}
	match := st.FillColor
	if match[0] != "match" {
		t.Fatalf("fill color = %#v", match)
	}
	// 4 class/color pairs plus input and fallback.
	if len(match) != 2+2*4+1 {
		t.Fatalf("match length = %d", len(match))
	}
	if match[len(match)-1] != clusterFallbackColor {
		t.Fatalf("fallback = %v", match[len(match)-1])
	}
	if st.NotSignificantFilter[0] != "!" {
		t.Fatalf("not-significant filter = %#v", st.NotSignificantFilter)
	}
}
