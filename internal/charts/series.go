// Package charts computes the derived series behind the dashboard's chart
// views: the collision trend, the day-of-week heatmap and the category
// distribution. Each view issues its own queries and owns its own error
// state; a failure in one never touches another.
package charts

import "math"

// Point is one step of an ordered time series.
type Point struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RollingAverage smooths counts with a trailing window of size w. The output
// has the same length as the input; point i is the mean of the trailing
// min(w, i+1) values ending at i, rounded to the nearest integer. The window
// narrows at the start of the sequence rather than dropping points.
func RollingAverage(counts []int, w int) []int {
	if w < 1 {
		w = 1
	}
	out := make([]int, len(counts))
	sum := 0
	for i, v := range counts {
		sum += v
		if i >= w {
			sum -= counts[i-w]
		}
		n := w
		if i+1 < w {
			n = i + 1
		}
		out[i] = int(math.Round(float64(sum) / float64(n)))
	}
	return out
}
