package mapview

import (
	"reflect"
	"testing"
)

func TestResolveProperty(t *testing.T) {
	cases := []struct {
		field     string
		available []string
		want      string
		ok        bool
	}{
		{"GRAVITE", []string{"GRAVITE", "AN"}, "GRAVITE", true},
		{"GRAVITE", []string{"gravite", "an"}, "gravite", true},
		{"ROUTE_ASPECT", []string{"t_route"}, "t_route", true},
		{"ROUTE_ASPECT", []string{"cd_aspct_route"}, "cd_aspct_route", true},
		{"CD_COND_METEO", []string{"GRAVITE"}, "", false},
		{"UNKNOWN_VAR", []string{"unknown_var"}, "unknown_var", true},
	}
	for _, tc := range cases {
		got, ok := ResolveProperty(tc.field, tc.available)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ResolveProperty(%q, %v) = (%q, %v), want (%q, %v)",
				tc.field, tc.available, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRefreshColorsApplied(t *testing.T) {
	enc := Refresh(RefreshInput{
		Field:         "GRAVITE",
		AggregateKeys: []string{"Mortel", "Grave"},
		SchemaKeys:    []string{"gravite", "an"},
		Features: []Feature{
			{"gravite": "Leger"},
			{"gravite": "Mortel"},
		},
	})
	if enc.State != StateColorsApplied {
		t.Fatalf("state = %s", enc.State)
	}
	if enc.ResolvedProperty != "gravite" {
		t.Fatalf("resolved = %q", enc.ResolvedProperty)
	}
	want := []string{"Mortel", "Grave", "Leger"}
	if !reflect.DeepEqual(enc.Categories, want) {
		t.Fatalf("categories = %v, want %v", enc.Categories, want)
	}
	if enc.Colors["Mortel"] != Palette[0] || enc.Colors["Leger"] != Palette[2] {
		t.Fatalf("colors = %v", enc.Colors)
	}
	expr, ok := enc.CircleColor.([]any)
	if !ok || expr[0] != "match" {
		t.Fatalf("circle color = %#v", enc.CircleColor)
	}
	// match input, 3 pairs, NA fallback
	if len(expr) != 2+2*3+1 {
		t.Fatalf("expression length = %d", len(expr))
	}
	if expr[len(expr)-1] != NAColor {
		t.Fatalf("fallback = %v", expr[len(expr)-1])
	}
}

func TestRefreshNeutralFallback(t *testing.T) {
	enc := Refresh(RefreshInput{
		Field:         "CD_COND_METEO",
		AggregateKeys: []string{"11", "12"},
		SchemaKeys:    []string{"gravite"},
		Features:      []Feature{{"gravite": "Mortel"}},
	})
	if enc.State != StateNeutralFallback {
		t.Fatalf("state = %s", enc.State)
	}
	if enc.CircleColor != "#9e9e9e" {
		t.Fatalf("circle color = %v", enc.CircleColor)
	}
	if enc.MissingVariable != "CD_COND_METEO" {
		t.Fatalf("missing variable = %q", enc.MissingVariable)
	}
	// Aggregate categories still get colors for the legend.
	if enc.Colors["11"] != Palette[0] {
		t.Fatalf("colors = %v", enc.Colors)
	}
}

func TestRefreshSampleLimit(t *testing.T) {
	features := make([]Feature, SampleLimit+10)
	for i := range features {
		features[i] = Feature{"gravite": string(rune('a' + i))}
	}
	enc := Refresh(RefreshInput{
		Field:      "GRAVITE",
		SchemaKeys: []string{"gravite"},
		Features:   features,
	})
	if len(enc.Categories) != SampleLimit {
		t.Fatalf("categories = %d, want %d", len(enc.Categories), SampleLimit)
	}
}

func TestRetryGate(t *testing.T) {
	var g RetryGate
	if !g.ShouldRetry(0) {
		t.Fatal("first empty sample should retry")
	}
	if g.ShouldRetry(0) {
		t.Fatal("second empty sample must not retry")
	}
	g.Reset()
	if g.ShouldRetry(5) {
		t.Fatal("non-empty sample must never retry")
	}
	if !g.ShouldRetry(0) {
		t.Fatal("reset should re-arm the gate")
	}
}
