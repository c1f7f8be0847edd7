package charts

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/query"
)

// HeatmapMode selects the second heatmap axis.
type HeatmapMode string

const (
	HeatmapByHour  HeatmapMode = "hour"
	HeatmapByMonth HeatmapMode = "month"
)

// dowNames is the canonical day axis, Monday first.
var dowNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// French SAAQ day codes as stored in the source extracts. DI is Sunday.
var dowFrench = map[string]string{
	"DI": "Sun", "LU": "Mon", "MA": "Tue", "ME": "Wed",
	"JE": "Thu", "VE": "Fri", "SA": "Sat",
}

// NormalizeDow maps a raw day-of-week code to the canonical label set.
// Sources encode days as 1-7 (Monday=1), 0-6 (Monday=0), French SAAQ
// abbreviations, or already-canonical English labels. Unknown codes pass
// through unchanged so they stay visible rather than silently merging.
func NormalizeDow(raw string) string {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 7 {
			return dowNames[(n-1)%7]
		}
		if n >= 0 && n <= 6 {
			return dowNames[n]
		}
		return s
	}
	if en, ok := dowFrench[strings.ToUpper(s)]; ok {
		return en
	}
	for _, name := range dowNames {
		if strings.EqualFold(s, name) {
			return name
		}
	}
	return s
}

// HeatCell is one day×column count.
type HeatCell struct {
	X     int `json:"x"` // index into Cols
	Y     int `json:"y"` // index into Dows
	Value int `json:"value"`
}

// Heatmap is the chart-ready two-axis aggregation.
type Heatmap struct {
	Mode  HeatmapMode `json:"mode"`
	Dows  []string    `json:"dows"`
	Cols  []int       `json:"cols"`
	Cells []HeatCell  `json:"cells"`
	Max   int         `json:"max"`
}

// ComputeHeatmap aggregates counts over day-of-week × hour or × month from
// the per-incident table, normalizing day codes onto the canonical axis.
func ComputeHeatmap(ctx context.Context, e *engine.Engine, pred query.Predicate, mode HeatmapMode) (*Heatmap, error) {
	col := "hour"
	if mode == HeatmapByMonth {
		col = "month"
	}
	sql := fmt.Sprintf(
		`SELECT CAST(%s AS TEXT) AS dow, %s AS col, COUNT(*) AS value
		 FROM %s %s
		 GROUP BY dow, col ORDER BY dow, col`,
		query.ColDow, col, engine.DatasetIncidentVars,
		pred.And(col+" IS NOT NULL"))
	rows, err := e.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	colSeen := map[int]bool{}
	type key struct {
		dow string
		col int
	}
	counts := map[key]int{}
	dowSeen := map[string]bool{}
	for _, r := range rows {
		d := NormalizeDow(engine.String(r, "dow"))
		c := engine.Int(r, "col")
		counts[key{d, c}] += engine.Int(r, "value")
		colSeen[c] = true
		dowSeen[d] = true
	}

	cols := make([]int, 0, len(colSeen))
	for c := range colSeen {
		cols = append(cols, c)
	}
	sort.Ints(cols)

	// Canonical days first in weekday order, then any unrecognized codes.
	var dows []string
	for _, d := range dowNames {
		if dowSeen[d] {
			dows = append(dows, d)
			delete(dowSeen, d)
		}
	}
	var rest []string
	for d := range dowSeen {
		rest = append(rest, d)
	}
	sort.Strings(rest)
	dows = append(dows, rest...)

	colIdx := make(map[int]int, len(cols))
	for i, c := range cols {
		colIdx[c] = i
	}
	dowIdx := make(map[string]int, len(dows))
	for i, d := range dows {
		dowIdx[d] = i
	}

	hm := &Heatmap{Mode: mode, Dows: dows, Cols: cols}
	for k, v := range counts {
		hm.Cells = append(hm.Cells, HeatCell{X: colIdx[k.col], Y: dowIdx[k.dow], Value: v})
		if v > hm.Max {
			hm.Max = v
		}
	}
	sort.Slice(hm.Cells, func(i, j int) bool {
		if hm.Cells[i].Y != hm.Cells[j].Y {
			return hm.Cells[i].Y < hm.Cells[j].Y
		}
		return hm.Cells[i].X < hm.Cells[j].X
	})
	return hm, nil
}
