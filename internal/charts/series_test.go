package charts

import (
	"reflect"
	"testing"
)

func TestRollingAverage(t *testing.T) {
	cases := []struct {
		name   string
		counts []int
		w      int
		want   []int
	}{
		{"narrows at start", []int{10, 20, 30}, 2, []int{10, 15, 25}},
		{"window one", []int{5, 7, 9}, 1, []int{5, 7, 9}},
		{"window wider than input", []int{4, 8}, 10, []int{4, 6}},
		{"empty", nil, 3, []int{}},
		{"rounds", []int{1, 2}, 2, []int{1, 2}}, // 1.5 rounds to 2
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RollingAverage(tc.counts, tc.w)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("RollingAverage(%v, %d) = %v, want %v", tc.counts, tc.w, got, tc.want)
			}
		})
	}
}

func TestRollingAverageLengthInvariant(t *testing.T) {
	in := []int{3, 1, 4, 1, 5, 9, 2, 6}
	for _, w := range []int{1, 2, 3, 30} {
		if got := RollingAverage(in, w); len(got) != len(in) {
			t.Fatalf("window %d: len = %d, want %d", w, len(got), len(in))
		}
	}
}
