// Package mapview computes the styling artifacts for the map: category
// color maps, categorical paint expressions, layer schema resolution,
// cluster-significance styling, and neighborhood hover state.
package mapview

import (
	"fmt"
	"strconv"
	"strings"
)

// Palette is the fixed category palette: a warm sequence then a neutral
// sequence. Categories beyond its length wrap around.
var Palette = []string{
	// warm
	"#fff3b0", "#fee08b", "#fdb863", "#f07c4a", "#e34a33", "#cc2a1f", "#8E1616", "#D84040",
	// neutral
	"#ffffff", "#ededed", "#d9d9d9", "#bdbdbd", "#9e9e9e", "#7a7a7a", "#4d4d4d", "#262626", "#0f0f0f", "#000000",
}

// NAKey is the reserved category for missing values.
const NAKey = "NA"

// NAColor is the fixed neutral color for NAKey and for points whose variable
// cannot be resolved in the tile schema.
const NAColor = "#bdbdbd"

// Canon canonicalizes a raw category value into a color-map/legend key.
// nil and blank values collapse to NAKey; numeric strings normalize so that
// "5", 5 and " 5 " share one key.
func Canon(v any) string {
	if v == nil {
		return NAKey
	}
	s := strings.TrimSpace(toString(v))
	if s == "" {
		return NAKey
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ColorMap assigns palette colors to categories by first-seen order,
// wrapping when categories outnumber the palette. Re-observing a category
// never reassigns it. NAKey always maps to NAColor.
func ColorMap(categories []string) map[string]string {
	cmap := make(map[string]string, len(categories)+1)
	cmap[NAKey] = NAColor
	i := 0
	for _, c := range categories {
		if _, ok := cmap[c]; ok {
			continue
		}
		cmap[c] = Palette[i%len(Palette)]
		i++
	}
	return cmap
}

// Union merges category lists preserving first-seen order across both.
func Union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, c := range list {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
