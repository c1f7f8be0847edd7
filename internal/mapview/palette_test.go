package mapview

import (
	"reflect"
	"testing"
)

func TestCanon(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"5", "5"},
		{5, "5"},
		{int64(5), "5"},
		{" 5 ", "5"},
		{5.0, "5"},
		{"5.50", "5.5"},
		{nil, "NA"},
		{"", "NA"},
		{"   ", "NA"},
		{"Mortel", "Mortel"},
		{[]byte("31"), "31"},
	}
	for _, tc := range cases {
		if got := Canon(tc.in); got != tc.want {
			t.Errorf("Canon(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestColorMapFirstSeen(t *testing.T) {
	cmap := ColorMap([]string{"A", "B", "A", "C"})
	if cmap["A"] != Palette[0] {
		t.Errorf("A = %s, want %s", cmap["A"], Palette[0])
	}
	if cmap["B"] != Palette[1] {
		t.Errorf("B = %s, want %s", cmap["B"], Palette[1])
	}
	if cmap["C"] != Palette[2] {
		t.Errorf("C = %s, want %s", cmap["C"], Palette[2])
	}
	if cmap[NAKey] != NAColor {
		t.Errorf("NA = %s, want %s", cmap[NAKey], NAColor)
	}
}

func TestColorMapWraparound(t *testing.T) {
	cats := make([]string, len(Palette)+2)
	for i := range cats {
		cats[i] = string(rune('a' + i))
	}
	cmap := ColorMap(cats)
	if cmap[cats[len(Palette)]] != Palette[0] {
		t.Errorf("wraparound: got %s, want %s", cmap[cats[len(Palette)]], Palette[0])
	}
	if cmap[cats[len(Palette)+1]] != Palette[1] {
		t.Errorf("wraparound+1: got %s, want %s", cmap[cats[len(Palette)+1]], Palette[1])
	}
}

func TestColorMapNAPinned(t *testing.T) {
	cmap := ColorMap([]string{NAKey, "A"})
	if cmap[NAKey] != NAColor {
		t.Errorf("observed NA = %s, want %s", cmap[NAKey], NAColor)
	}
	if cmap["A"] != Palette[0] {
		t.Errorf("A = %s, want %s", cmap["A"], Palette[0])
	}
}

func TestUnion(t *testing.T) {
	got := Union([]string{"A", "B"}, []string{"B", "C", "A", "D"})
	want := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Union = %v, want %v", got, want)
	}
}
