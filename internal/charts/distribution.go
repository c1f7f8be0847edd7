package charts

import (
	"context"
	"fmt"

	"github.com/sleepysunflower/traffic-collisions/internal/engine"
	"github.com/sleepysunflower/traffic-collisions/internal/labels"
	"github.com/sleepysunflower/traffic-collisions/internal/mapview"
	"github.com/sleepysunflower/traffic-collisions/internal/query"
)

// DistributionLimit caps the category count per aggregate, matching the
// palette's useful range.
const DistributionLimit = 20

// CategoryCount is one slice of the distribution pie.
type CategoryCount struct {
	Key   string `json:"key"`   // canonicalized raw value
	Label string `json:"label"` // dictionary translation, or Key when absent
	Count int    `json:"count"`
}

// Distribution is the per-category aggregate for one variable.
type Distribution struct {
	Variable string          `json:"variable"`
	Rows     []CategoryCount `json:"rows"`
}

// Keys returns the category keys in result (first-seen) order.
func (d *Distribution) Keys() []string {
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Key
	}
	return out
}

// ComputeDistribution aggregates counts per category of variable, ordered by
// descending count. Categories are canonicalized before use as legend keys;
// dict translates raw codes to display labels, falling back to the raw code.
// dict may be nil.
func ComputeDistribution(ctx context.Context, e *engine.Engine, pred query.Predicate, variable string, dict *labels.Dictionary) (*Distribution, error) {
	col := engine.QuoteIdent(labels.DatasetColumn(variable))
	sql := fmt.Sprintf(
		`SELECT %q AS k, COUNT(*) AS cnt
		 FROM %s %s
		 GROUP BY k ORDER BY cnt DESC LIMIT %d`,
		col, engine.DatasetIncidentVars, pred.Where(), DistributionLimit)
	rows, err := e.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	dist := &Distribution{Variable: variable}
	for _, r := range rows {
		key := mapview.Canon(engine.Value(r, "k"))
		label := key
		if dict != nil {
			label = dict.LabelFor(variable, key)
		}
		dist.Rows = append(dist.Rows, CategoryCount{
			Key:   key,
			Label: label,
			Count: engine.Int(r, "cnt"),
		})
	}
	return dist, nil
}
