package filters

import (
	"reflect"
	"testing"
)

func TestSetFiltersMergesAndNormalizes(t *testing.T) {
	st := NewStore()

	years := []int{2018, 2019}
	st.SetFilters(Patch{Years: &years})

	sevs := []string{"Mortel"}
	st.SetFilters(Patch{Severities: &sevs})

	got := st.Snapshot()
	if !reflect.DeepEqual(got.Years, []int{2018, 2019}) {
		t.Errorf("years = %v, want [2018 2019]", got.Years)
	}
	if !reflect.DeepEqual(got.Severities, []string{"Mortel"}) {
		t.Errorf("severities = %v, want [Mortel]", got.Severities)
	}

	// Empty array normalizes to unset, not to an always-false restriction.
	empty := []int{}
	st.SetFilters(Patch{Years: &empty})
	if got := st.Snapshot(); got.Years != nil {
		t.Errorf("empty patch should unset years, got %v", got.Years)
	}
}

func TestSetFiltersIdempotent(t *testing.T) {
	a := NewStore()
	b := NewStore()

	years := []int{2020}
	a.SetFilters(Patch{Years: &years})
	b.SetFilters(Patch{Years: &years})
	b.SetFilters(Patch{Years: &years})

	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Errorf("setting the same patch twice diverged: %v vs %v", a.Snapshot(), b.Snapshot())
	}
}

func TestClearKeyLeavesOthers(t *testing.T) {
	st := NewStore()
	years := []int{2018}
	months := []int{1, 2}
	st.SetFilters(Patch{Years: &years, Months: &months})

	st.ClearKey(DimYear)

	got := st.Snapshot()
	if got.Years != nil {
		t.Errorf("years should be unset, got %v", got.Years)
	}
	if !reflect.DeepEqual(got.Months, []int{1, 2}) {
		t.Errorf("months should survive ClearKey(years), got %v", got.Months)
	}
}

func TestClearAll(t *testing.T) {
	st := NewStore()
	years := []int{2018}
	dows := []string{"LU"}
	st.SetFilters(Patch{Years: &years, Dows: &dows})

	st.ClearAll()

	if got := st.Snapshot(); !got.IsEmpty() {
		t.Errorf("ClearAll left a restriction: %+v", got)
	}
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	st := NewStore()
	var seen []Selection
	cancel := st.Subscribe(func(s Selection) { seen = append(seen, s) })

	years := []int{2019}
	st.SetFilters(Patch{Years: &years})
	st.ClearAll()

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if !reflect.DeepEqual(seen[0].Years, []int{2019}) {
		t.Errorf("first notification years = %v", seen[0].Years)
	}
	if !seen[1].IsEmpty() {
		t.Errorf("second notification should be empty, got %+v", seen[1])
	}

	cancel()
	st.SetFilters(Patch{Years: &years})
	if len(seen) != 2 {
		t.Errorf("unsubscribed callback still fired, %d notifications", len(seen))
	}
}

func TestSnapshotDoesNotAliasStoreState(t *testing.T) {
	st := NewStore()
	years := []int{2018}
	st.SetFilters(Patch{Years: &years})

	snap := st.Snapshot()
	snap.Years[0] = 1999

	if got := st.Snapshot(); got.Years[0] != 2018 {
		t.Errorf("mutating a snapshot leaked into the store: %v", got.Years)
	}
}
