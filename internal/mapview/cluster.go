package mapview

// ClusterClass is the 5-state spatial cluster-significance classification
// carried by the cluster polygon layer's "cluster" property.
type ClusterClass string

const (
	ClusterHighHigh       ClusterClass = "HH" // high value among high neighbors
	ClusterHighLow        ClusterClass = "HL" // high outlier among low neighbors
	ClusterLowHigh        ClusterClass = "LH" // low outlier among high neighbors
	ClusterLowLow         ClusterClass = "LL" // low value among low neighbors
	ClusterNotSignificant ClusterClass = "NS"
)

// significantClasses in legend order.
var significantClasses = []ClusterClass{
	ClusterHighHigh, ClusterHighLow, ClusterLowHigh, ClusterLowLow,
}

// clusterColors are the fixed fill colors for significant classes.
var clusterColors = map[ClusterClass]string{
	ClusterHighHigh: "#8B0000",
	ClusterHighLow:  "#FF6B6B",
	ClusterLowLow:   "#0B3D91",
	ClusterLowHigh:  "#5DA9FF",
}

const (
	clusterFallbackColor = "#3A3A3A"
	notSignificantFill   = "#FFFFFF"
)

// ClassifyCluster maps a raw cluster property value onto the fixed
// alphabet. Anything outside the four significant symbols is the implicit
// not-significant complement.
func ClassifyCluster(raw string) ClusterClass {
	switch ClusterClass(raw) {
	case ClusterHighHigh, ClusterHighLow, ClusterLowHigh, ClusterLowLow:
		return ClusterClass(raw)
	default:
		return ClusterNotSignificant
	}
}

// ClusterLegendEntry is one row of the cluster legend.
type ClusterLegendEntry struct {
	Class ClusterClass `json:"class"`
	Color string       `json:"color"`
	Label string       `json:"label"`
}

// ClusterLegend returns the legend rows in display order.
func ClusterLegend() []ClusterLegendEntry {
	labels := map[ClusterClass]string{
		ClusterHighHigh: "HH: High-High cluster",
		ClusterHighLow:  "HL: High-Low outlier",
		ClusterLowHigh:  "LH: Low-High outlier",
		ClusterLowLow:   "LL: Low-Low cluster",
	}
	out := make([]ClusterLegendEntry, 0, len(significantClasses)+1)
	for _, c := range significantClasses {
		out = append(out, ClusterLegendEntry{Class: c, Color: clusterColors[c], Label: labels[c]})
	}
	return append(out, ClusterLegendEntry{
		Class: ClusterNotSignificant, Color: notSignificantFill, Label: "Not significant",
	})
}

// ClusterStyle is the style payload for the two cluster sublayers: the
// significant classes get the categorical fill, the not-significant
// complement gets a faint white wash.
type ClusterStyle struct {
	SignificantFilter []any   `json:"significant_filter"`
	FillColor         []any   `json:"fill_color"`
	FillOpacity       float64 `json:"fill_opacity"`
	LineColor         string  `json:"line_color"`
	LineWidth         float64 `json:"line_width"`

	NotSignificantFilter      []any   `json:"not_significant_filter"`
	NotSignificantFill        string  `json:"not_significant_fill"`
	NotSignificantFillOpacity float64 `json:"not_significant_fill_opacity"`
	NotSignificantLineColor   string  `json:"not_significant_line_color"`
	NotSignificantLineWidth   float64 `json:"not_significant_line_width"`
}

// BuildClusterStyle returns the fixed styling for the cluster overlay.
func BuildClusterStyle() *ClusterStyle {
	sig := []any{string(ClusterHighHigh), string(ClusterHighLow), string(ClusterLowHigh), string(ClusterLowLow)}
	match := []any{"match", []any{"get", "cluster"}}
	for _, c := range significantClasses {
		match = append(match, string(c), clusterColors[c])
	}
	match = append(match, clusterFallbackColor)

	return &ClusterStyle{
		SignificantFilter: []any{"in", []any{"get", "cluster"}, []any{"literal", sig}},
		FillColor:         match,
		FillOpacity:       0.45,
		LineColor:         "#262626",
		LineWidth:         0.6,

		NotSignificantFilter:      []any{"!", []any{"in", []any{"get", "cluster"}, []any{"literal", sig}}},
		NotSignificantFill:        notSignificantFill,
		NotSignificantFillOpacity: 0.35,
		NotSignificantLineColor:   "#BDBDBD",
		NotSignificantLineWidth:   0.4,
	}
}
