// Package filters holds the process-wide filter selection shared by every
// query-driven view. All reads go through Snapshot; all writers go through
// SetFilters/ClearKey/ClearAll, which notify subscribers synchronously.
package filters

import (
	"sync"
)

// Dimension identifies one filterable axis of the collision dataset.
type Dimension string

const (
	DimYear     Dimension = "years"
	DimMonth    Dimension = "months"
	DimQuarter  Dimension = "quarters"
	DimDow      Dimension = "dows"
	DimSeverity Dimension = "severities"
	DimDistrict Dimension = "districts"
	DimBorough  Dimension = "boroughs"
)

// Dimensions lists every axis in canonical order. The order is fixed so that
// predicates built from a selection come out deterministic.
var Dimensions = []Dimension{
	DimYear, DimMonth, DimQuarter, DimDow, DimSeverity, DimDistrict, DimBorough,
}

// ParseDimension maps a dimension name to its constant.
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Selection maps a dimension to its selected values. A missing key or an
// empty slice means "no restriction on this dimension". Values keep whatever
// numeric/string form the caller used; the query builder decides quoting.
type Selection struct {
	Years      []int    `json:"years,omitempty"`
	Months     []int    `json:"months,omitempty"`
	Quarters   []int    `json:"quarters,omitempty"`
	Dows       []string `json:"dows,omitempty"`
	Severities []string `json:"severities,omitempty"`
	Districts  []int    `json:"districts,omitempty"`
	Boroughs   []int    `json:"boroughs,omitempty"`
}

// IsEmpty reports whether no dimension carries a restriction.
func (s Selection) IsEmpty() bool {
	return len(s.Years) == 0 && len(s.Months) == 0 && len(s.Quarters) == 0 &&
		len(s.Dows) == 0 && len(s.Severities) == 0 &&
		len(s.Districts) == 0 && len(s.Boroughs) == 0
}

// clone returns a deep copy so snapshots never alias store-internal slices.
func (s Selection) clone() Selection {
	out := Selection{}
	if len(s.Years) > 0 {
		out.Years = append([]int(nil), s.Years...)
	}
	if len(s.Months) > 0 {
		out.Months = append([]int(nil), s.Months...)
	}
	if len(s.Quarters) > 0 {
		out.Quarters = append([]int(nil), s.Quarters...)
	}
	if len(s.Dows) > 0 {
		out.Dows = append([]string(nil), s.Dows...)
	}
	if len(s.Severities) > 0 {
		out.Severities = append([]string(nil), s.Severities...)
	}
	if len(s.Districts) > 0 {
		out.Districts = append([]int(nil), s.Districts...)
	}
	if len(s.Boroughs) > 0 {
		out.Boroughs = append([]int(nil), s.Boroughs...)
	}
	return out
}

// Patch is a partial update. A nil field leaves the dimension untouched; a
// non-nil pointer to an empty slice unsets it. This mirrors the distinction
// between "key absent" and "key set to null/[]" in the JSON PATCH body.
type Patch struct {
	Years      *[]int    `json:"years"`
	Months     *[]int    `json:"months"`
	Quarters   *[]int    `json:"quarters"`
	Dows       *[]string `json:"dows"`
	Severities *[]string `json:"severities"`
	Districts  *[]int    `json:"districts"`
	Boroughs   *[]int    `json:"boroughs"`
}

// Subscriber receives the full selection after every mutation.
type Subscriber func(Selection)

// Store is the single source of truth for the active filter selection.
type Store struct {
	mu       sync.Mutex
	current  Selection
	nextSub  int
	subs     map[int]Subscriber
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[int]Subscriber)}
}

// Snapshot returns a copy of the current selection.
func (st *Store) Snapshot() Selection {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.clone()
}

// Subscribe registers fn for synchronous notification on every mutation and
// returns an unsubscribe func. fn is called without the store lock held.
func (st *Store) Subscribe(fn Subscriber) (cancel func()) {
	st.mu.Lock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = fn
	st.mu.Unlock()
	return func() {
		st.mu.Lock()
		delete(st.subs, id)
		st.mu.Unlock()
	}
}

// SetFilters merges a partial update into the current selection. Null or
// empty-array values normalize to unset so downstream predicates never carry
// an always-false IN () clause. Invalid values are not validated here; they
// simply match zero rows downstream.
func (st *Store) SetFilters(p Patch) {
	st.mu.Lock()
	if p.Years != nil {
		st.current.Years = normInts(*p.Years)
	}
	if p.Months != nil {
		st.current.Months = normInts(*p.Months)
	}
	if p.Quarters != nil {
		st.current.Quarters = normInts(*p.Quarters)
	}
	if p.Dows != nil {
		st.current.Dows = normStrings(*p.Dows)
	}
	if p.Severities != nil {
		st.current.Severities = normStrings(*p.Severities)
	}
	if p.Districts != nil {
		st.current.Districts = normInts(*p.Districts)
	}
	if p.Boroughs != nil {
		st.current.Boroughs = normInts(*p.Boroughs)
	}
	st.notifyLocked()
}

// ClearKey unsets exactly one dimension, leaving the rest untouched.
// Unknown dimensions are ignored.
func (st *Store) ClearKey(d Dimension) {
	st.mu.Lock()
	switch d {
	case DimYear:
		st.current.Years = nil
	case DimMonth:
		st.current.Months = nil
	case DimQuarter:
		st.current.Quarters = nil
	case DimDow:
		st.current.Dows = nil
	case DimSeverity:
		st.current.Severities = nil
	case DimDistrict:
		st.current.Districts = nil
	case DimBorough:
		st.current.Boroughs = nil
	}
	st.notifyLocked()
}

// ClearAll resets every dimension to unset.
func (st *Store) ClearAll() {
	st.mu.Lock()
	st.current = Selection{}
	st.notifyLocked()
}

// notifyLocked snapshots subscribers and the selection, releases the lock,
// then delivers. Keeps subscriber callbacks free to call back into the store.
func (st *Store) notifyLocked() {
	snap := st.current.clone()
	fns := make([]Subscriber, 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	st.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func normInts(v []int) []int {
	if len(v) == 0 {
		return nil
	}
	return append([]int(nil), v...)
}

func normStrings(v []string) []string {
	if len(v) == 0 {
		return nil
	}
	return append([]string(nil), v...)
}
