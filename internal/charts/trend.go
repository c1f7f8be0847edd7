package charts

import (
	"context"
	"fmt"

	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/query"
)

// Smoothing horizons per granularity.
const (
	DailyShortWindow   = 30
	DailyLongWindow    = 365
	MonthlyShortWindow = 3
	MonthlyLongWindow  = 12
)

// dateColumnCandidates are probed in order against the per-incident table
// for a true daily aggregation. Extracts differ in how they name the
// accident date, and some drop it entirely.
var dateColumnCandidates = []string{"DT_ACCDN", "date", "dt", "accident_date"}

// Trend is the chart-ready collision trend.
type Trend struct {
	// Granularity is "daily" when a date column yielded data, otherwise
	// "monthly" as a coarser proxy.
	Granularity string  `json:"granularity"`
	Points      []Point `json:"points"`
	ShortAvg    []int   `json:"short_avg"`
	LongAvg     []int   `json:"long_avg"`
	ShortWindow int     `json:"short_window"`
	LongWindow  int     `json:"long_window"`
}

// ComputeTrend aggregates collision counts over time for the selection.
// It probes the candidate date columns for a daily series first; if every
// candidate is absent or yields no rows it falls back to the monthly
// aggregate table. Both rolling horizons are computed from whichever
// granularity resolved.
func ComputeTrend(ctx context.Context, e *engine.Engine, pred query.Predicate) (*Trend, error) {
	cols, err := e.Columns(ctx, engine.DatasetIncidentVars)
	if err != nil {
		return nil, err
	}
	available := make(map[string]bool, len(cols))
	for _, c := range cols {
		available[c] = true
	}

	for _, cand := range dateColumnCandidates {
		if !available[cand] {
			continue
		}
		points, err := dailyPoints(ctx, e, pred, cand)
		if err != nil {
			// A probe failure on one candidate is not fatal; the next
			// candidate or the monthly fallback may still serve.
			continue
		}
		if len(points) > 0 {
			return assemble("daily", points, DailyShortWindow, DailyLongWindow), nil
		}
	}

	points, err := monthlyPoints(ctx, e, pred)
	if err != nil {
		return nil, err
	}
	return assemble("monthly", points, MonthlyShortWindow, MonthlyLongWindow), nil
}

func assemble(gran string, points []Point, shortW, longW int) *Trend {
	counts := make([]int, len(points))
	for i, p := range points {
		counts[i] = p.Count
	}
	return &Trend{
		Granularity: gran,
		Points:      points,
		ShortAvg:    RollingAverage(counts, shortW),
		LongAvg:     RollingAverage(counts, longW),
		ShortWindow: shortW,
		LongWindow:  longW,
	}
}

func dailyPoints(ctx context.Context, e *engine.Engine, pred query.Predicate, dateCol string) ([]Point, error) {
	col := engine.QuoteIdent(dateCol)
	sql := fmt.Sprintf(
		`SELECT CAST(%q AS TEXT) AS day, COUNT(*) AS cnt
		 FROM %s %s
		 GROUP BY day ORDER BY day`,
		col, engine.DatasetIncidentVars, pred.And(fmt.Sprintf("%q IS NOT NULL", col)))
	rows, err := e.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, Point{Label: engine.String(r, "day"), Count: engine.Int(r, "cnt")})
	}
	return points, nil
}

func monthlyPoints(ctx context.Context, e *engine.Engine, pred query.Predicate) ([]Point, error) {
	// The monthly aggregate carries only a subset of the filter dimensions.
	monthly := pred.Restrict(query.ColYear, query.ColMonth, query.ColSeverity,
		query.ColDistrict, query.ColBorough)
	sql := fmt.Sprintf(
		`SELECT AN, month, SUM(count) AS cnt
		 FROM %s %s
		 GROUP BY AN, month ORDER BY AN, month`,
		engine.DatasetSeriesMonthly, monthly.Where())
	rows, err := e.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		label := fmt.Sprintf("%d-%02d", engine.Int(r, "AN"), engine.Int(r, "month"))
		points = append(points, Point{Label: label, Count: engine.Int(r, "cnt")})
	}
	return points, nil
}
