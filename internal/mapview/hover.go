package mapview

import (
	"fmt"
	"sort"
)

// TooltipRow is one label/value line of the neighborhood tooltip.
type TooltipRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HoverState tracks the single highlighted neighborhood polygon. At most
// one feature id is highlighted at a time; entering a new polygon clears
// the previous highlight before setting the new one, and leaving clears
// everything. Transitions are idempotent under rapid pointer movement.
type HoverState struct {
	hoveredID int64
	hovered   bool
	tooltip   []TooltipRow
}

// HoverTransition reports what a state change asks of the renderer.
type HoverTransition struct {
	// ClearID is the previously highlighted feature to un-highlight, when
	// Clear is true.
	ClearID int64
	Clear   bool
	// SetID is the feature to highlight, when Set is true.
	SetID int64
	Set   bool
}

// Enter moves the highlight to feature id with the given properties.
// Re-entering the current feature only refreshes the tooltip.
func (h *HoverState) Enter(id int64, props map[string]any) HoverTransition {
	var tr HoverTransition
	if h.hovered && h.hoveredID == id {
		h.tooltip = TooltipRows(props)
		return tr
	}
	if h.hovered {
		tr.Clear = true
		tr.ClearID = h.hoveredID
	}
	h.hovered = true
	h.hoveredID = id
	h.tooltip = TooltipRows(props)
	tr.Set = true
	tr.SetID = id
	return tr
}

// Leave clears any highlight and closes the tooltip. Safe to call when
// nothing is hovered.
func (h *HoverState) Leave() HoverTransition {
	var tr HoverTransition
	if h.hovered {
		tr.Clear = true
		tr.ClearID = h.hoveredID
	}
	h.hovered = false
	h.tooltip = nil
	return tr
}

// Current returns the highlighted feature id, or false when none.
func (h *HoverState) Current() (int64, bool) { return h.hoveredID, h.hovered }

// Tooltip returns the open tooltip rows, nil when closed.
func (h *HoverState) Tooltip() []TooltipRow { return h.tooltip }

// extraTooltipKeys are shown when present, after the named rows.
var extraTooltipKeys = []string{"pop", "population", "area", "surface", "code"}

// TooltipRows builds the tooltip content from a boundary feature's
// properties: the district and borough rows when identifiable, known extras,
// and otherwise the first few raw properties so the tooltip is never blank.
func TooltipRows(props map[string]any) []TooltipRow {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := props[k]; ok && v != nil {
				if s := fmt.Sprintf("%v", v); s != "" {
					return s
				}
			}
		}
		return ""
	}

	var rows []TooltipRow
	nomQr, noQr := get("nom_qr", "NOM_QR", "name"), get("no_qr", "NO_QR")
	if nomQr != "" || noQr != "" {
		v := nomQr
		if noQr != "" {
			v = fmt.Sprintf("%s (#%s)", nomQr, noQr)
		}
		rows = append(rows, TooltipRow{Label: "Quartier", Value: v})
	}
	nomArr, noArr := get("nom_arr", "NOM_ARR"), get("no_arr", "NO_ARR")
	if nomArr != "" || noArr != "" {
		v := nomArr
		if noArr != "" {
			v = fmt.Sprintf("%s (#%s)", nomArr, noArr)
		}
		rows = append(rows, TooltipRow{Label: "Arr.", Value: v})
	}
	for _, k := range extraTooltipKeys {
		if v, ok := props[k]; ok && v != nil {
			rows = append(rows, TooltipRow{Label: k, Value: fmt.Sprintf("%v", v)})
		}
	}
	if len(rows) > 0 {
		return rows
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 6 {
		keys = keys[:6]
	}
	for _, k := range keys {
		rows = append(rows, TooltipRow{Label: k, Value: fmt.Sprintf("%v", props[k])})
	}
	return rows
}
