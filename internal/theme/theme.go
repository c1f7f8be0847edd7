// Package theme serves the chart theme documents the frontend registers
// with its charting library. Themes are fixed JSON structures; the server
// builds them once and hands out the same instance.
package theme

import "sync"

// Theme names the frontend asks for.
const (
	Noir  = "noir"
	Model = "mtl-dark-red-model"
)

// Document is a chart theme as an arbitrary JSON structure.
type Document map[string]any

var (
	once     sync.Once
	registry map[string]Document
)

// Get returns the named theme, or nil when unknown.
func Get(name string) Document {
	once.Do(build)
	return registry[name]
}

// Names lists the registered theme names.
func Names() []string {
	once.Do(build)
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	return out
}

func build() {
	registry = map[string]Document{
		Noir: {
			"backgroundColor": "transparent",
			"color":           []string{"#D84040", "#8E1616", "#808080", "#B0B0B0", "#262626"},
			"textStyle":       Document{"color": "#EDEDED"},
			"tooltip": Document{
				"backgroundColor": "#0F0F0F",
				"borderColor":     "#262626",
				"textStyle":       Document{"color": "#EDEDED"},
			},
			"grid":        Document{"left": 50, "right": 20, "top": 30, "bottom": 40},
			"axisPointer": Document{"lineStyle": Document{"color": "#808080"}},
			"categoryAxis": Document{
				"axisLine":  Document{"lineStyle": Document{"color": "#808080"}},
				"axisLabel": Document{"color": "#808080"},
				"splitLine": Document{"show": true, "lineStyle": Document{"color": "#262626"}},
			},
			"valueAxis": Document{
				"axisLine":  Document{"lineStyle": Document{"color": "#808080"}},
				"axisLabel": Document{"color": "#808080"},
				"splitLine": Document{"show": true, "lineStyle": Document{"color": "#262626"}},
			},
			"legend": Document{"textStyle": Document{"color": "#EDEDED"}},
		},
		Model: {
			"backgroundColor": "transparent",
			"color":           []string{"#D84040", "#b0b0b0", "#6e6e6e", "#d0d0d0", "#3a3a3a"},
			"textStyle": Document{
				"color":      "#FFFFFF",
				"fontFamily": `Inter, system-ui, -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif`,
			},
			"title": Document{
				"textStyle":    Document{"color": "#FFFFFF", "fontWeight": 700},
				"subtextStyle": Document{"color": "#808080"},
			},
			"legend": Document{
				"textStyle":     Document{"color": "#d8d8d8"},
				"pageIconColor": "#808080",
				"inactiveColor": "#6e6e6e",
			},
			"tooltip": Document{
				"backgroundColor": "#111",
				"borderColor":     "#333",
				"textStyle":       Document{"color": "#eee"},
			},
			"axisPointer": Document{"lineStyle": Document{"color": "#D84040"}},
			"grid":        Document{"top": 24, "bottom": 24, "left": 24, "right": 24},
			"categoryAxis": Document{
				"axisLine":  Document{"lineStyle": Document{"color": "#555"}},
				"axisLabel": Document{"color": "#d8d8d8"},
				"axisTick":  Document{"show": false},
				"splitLine": Document{"show": false},
			},
			"valueAxis": Document{
				"axisLine":  Document{"show": false},
				"axisLabel": Document{"color": "#bdbdbd"},
				"splitLine": Document{"lineStyle": Document{"color": "#2f2f2f"}},
			},
			"visualMap": Document{"textStyle": Document{"color": "#d8d8d8"}},
			"heatmap":   Document{"itemStyle": Document{"borderWidth": 0}},
			"bar":       Document{"itemStyle": Document{"borderRadius": 2}},
		},
	}
}
