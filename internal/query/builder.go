// Package query translates a filter selection into SQL predicates and
// map-layer filter expressions. Translation is pure: same selection in,
// same predicate out, clauses always in the canonical dimension order.
package query

import (
	"fmt"
	"strings"

	"github.com/sleepysunflower/traffic-collisions/internal/filters"
)

// Column names in the analytical tables for each filter dimension.
// The dataset keeps the SAAQ source spellings.
const (
	ColYear     = "AN"
	ColMonth    = "month"
	ColQuarter  = "quarter"
	ColDow      = "JR_SEMN_ACCDN"
	ColSeverity = "GRAVITE"
	ColDistrict = "no_qr"
	ColBorough  = "no_arr"
)

// Clause is one per-dimension inclusion restriction.
type Clause struct {
	Column string
	SQL    string
}

// Predicate is the ordered conjunction of inclusion clauses for a selection.
type Predicate struct {
	Clauses []Clause
}

// IsEmpty reports whether the predicate restricts nothing.
func (p Predicate) IsEmpty() bool { return len(p.Clauses) == 0 }

// Where renders the predicate as a SQL WHERE clause, or "" when empty.
// An empty selection must produce no restriction at all, never a
// restriction matching nothing.
func (p Predicate) Where() string {
	if len(p.Clauses) == 0 {
		return ""
	}
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = c.SQL
	}
	return "WHERE " + strings.Join(parts, " AND ")
}

// And renders the predicate for appending after an existing WHERE, joined to
// extra conditions. extra must be non-empty.
func (p Predicate) And(extra string) string {
	if len(p.Clauses) == 0 {
		return "WHERE " + extra
	}
	return p.Where() + " AND " + extra
}

// Build derives the predicate for a selection. Dimensions absent or empty
// contribute no clause; emission order is the canonical dimension order so
// output is deterministic regardless of how the selection was assembled.
func Build(sel filters.Selection) Predicate {
	var p Predicate
	if len(sel.Years) > 0 {
		p.Clauses = append(p.Clauses, Clause{ColYear, inInts(ColYear, sel.Years)})
	}
	if len(sel.Months) > 0 {
		p.Clauses = append(p.Clauses, Clause{ColMonth, inInts(ColMonth, sel.Months)})
	}
	if len(sel.Quarters) > 0 {
		p.Clauses = append(p.Clauses, Clause{ColQuarter, inInts(ColQuarter, sel.Quarters)})
	}
	if len(sel.Dows) > 0 {
		// Day codes may be stored numeric in some extracts; force text.
		col := fmt.Sprintf("CAST(%s AS TEXT)", ColDow)
		p.Clauses = append(p.Clauses, Clause{ColDow, inStrings(col, sel.Dows)})
	}
	if len(sel.Severities) > 0 {
		p.Clauses = append(p.Clauses, Clause{ColSeverity, inStrings(ColSeverity, sel.Severities)})
	}
	if len(sel.Districts) > 0 {
		p.Clauses = append(p.Clauses, Clause{ColDistrict, inInts(ColDistrict, sel.Districts)})
	}
	if len(sel.Boroughs) > 0 {
		p.Clauses = append(p.Clauses, Clause{ColBorough, inInts(ColBorough, sel.Boroughs)})
	}
	return p
}

// Restrict keeps only the clauses whose column appears in allowed. Views
// aggregating over tables that carry a subset of the filter dimensions use
// it so a selection never references a column the table does not have.
func (p Predicate) Restrict(allowed ...string) Predicate {
	ok := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		ok[c] = true
	}
	var out Predicate
	for _, c := range p.Clauses {
		if ok[c.Column] {
			out.Clauses = append(out.Clauses, c)
		}
	}
	return out
}

func inInts(col string, vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(parts, ","))
}

func inStrings(col string, vals []string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "'" + QuoteString(v) + "'"
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(parts, ","))
}

// QuoteString escapes a string literal for embedding in SQL by doubling
// single quotes. Values come from the UI, not from the dataset, so this is
// the only escaping the predicate needs.
func QuoteString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
