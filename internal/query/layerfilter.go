package query

import "github.com/sleepysunflower/traffic-collisions/internal/filters"

// LayerFilter builds the MapLibre filter expression applied to the incidents
// point layer for a selection: ["all", ["in", ["get", col], ["literal", vals]], ...].
// The expression is returned as plain JSON-marshalable values so the HTTP
// layer can hand it to the client untouched.
func LayerFilter(sel filters.Selection) []any {
	expr := []any{"all"}
	add := func(prop string, vals []any) {
		expr = append(expr, []any{"in", []any{"get", prop}, []any{"literal", vals}})
	}
	if len(sel.Years) > 0 {
		add(ColYear, anyInts(sel.Years))
	}
	if len(sel.Months) > 0 {
		add(ColMonth, anyInts(sel.Months))
	}
	if len(sel.Quarters) > 0 {
		add(ColQuarter, anyInts(sel.Quarters))
	}
	if len(sel.Dows) > 0 {
		add(ColDow, anyStrings(sel.Dows))
	}
	if len(sel.Severities) > 0 {
		add(ColSeverity, anyStrings(sel.Severities))
	}
	if len(sel.Districts) > 0 {
		add(ColDistrict, anyInts(sel.Districts))
	}
	if len(sel.Boroughs) > 0 {
		add(ColBorough, anyInts(sel.Boroughs))
	}
	return expr
}

func anyInts(v []int) []any {
	out := make([]any, len(v))
	for i, x := range v {
		out[i] = x
	}
	return out
}

func anyStrings(v []string) []any {
	out := make([]any, len(v))
	for i, x := range v {
		out[i] = x
	}
	return out
}
