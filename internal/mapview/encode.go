package mapview

// Feature is one rendered point feature's property set.
type Feature map[string]any

// EncodingState tracks where a refresh landed in the feature-availability
// state machine.
type EncodingState string

const (
	// StateColorsApplied: property resolved, categorical colors in effect.
	StateColorsApplied EncodingState = "colors_applied"
	// StateNeutralFallback: property unresolved in the tile schema, points
	// painted the neutral color.
	StateNeutralFallback EncodingState = "neutral_fallback"
)

// SampleLimit bounds how many distinct categories are discovered from
// rendered features per refresh.
const SampleLimit = 20

// RefreshInput carries everything a color-encoding refresh reads.
type RefreshInput struct {
	// Field is the selected categorical variable (dataset spelling).
	Field string
	// AggregateKeys are the canonicalized categories from the distribution
	// aggregate, in result order.
	AggregateKeys []string
	// SchemaKeys are the property names from the tileset metadata.
	SchemaKeys []string
	// Features are the currently rendered point features (bounded sample).
	Features []Feature
}

// Encoding is the styling artifact a refresh produces for the point layer.
type Encoding struct {
	Field            string            `json:"field"`
	ResolvedProperty string            `json:"resolved_property,omitempty"`
	State            EncodingState     `json:"state"`
	Categories       []string          `json:"categories"`
	Colors           map[string]string `json:"colors"`
	// CircleColor is the MapLibre paint expression for the point layer: a
	// categorical match on the resolved property, or the neutral color
	// literal when unresolved.
	CircleColor any `json:"circle_color"`
	// MissingVariable names the variable for the diagnostic banner when the
	// tile schema cannot carry it.
	MissingVariable string `json:"missing_variable,omitempty"`
	// SchemaKeys echoes what the tiles expose, for the banner detail line.
	SchemaKeys []string `json:"schema_keys,omitempty"`
}

// Refresh recomputes the category color encoding for a variable. It unions
// the aggregate's categories with those observed in the sampled features,
// assigns palette colors by first-seen order, and builds the paint
// expression against the resolved tile property. Resolution failure
// degrades to the neutral color plus a diagnostic naming the variable.
func Refresh(in RefreshInput) *Encoding {
	available := append([]string(nil), in.SchemaKeys...)
	if len(in.Features) > 0 {
		for k := range in.Features[0] {
			available = append(available, k)
		}
	}

	prop, ok := ResolveProperty(in.Field, available)

	var tileCats []string
	if ok {
		seen := map[string]bool{}
		for _, f := range in.Features {
			c := Canon(f[prop])
			if !seen[c] {
				seen[c] = true
				tileCats = append(tileCats, c)
			}
			if len(tileCats) >= SampleLimit {
				break
			}
		}
	}

	union := Union(in.AggregateKeys, tileCats)
	colors := ColorMap(union)

	enc := &Encoding{
		Field:      in.Field,
		Categories: union,
		Colors:     colors,
	}
	if !ok {
		enc.State = StateNeutralFallback
		enc.CircleColor = "#9e9e9e"
		enc.MissingVariable = in.Field
		enc.SchemaKeys = in.SchemaKeys
		return enc
	}
	enc.State = StateColorsApplied
	enc.ResolvedProperty = prop
	enc.CircleColor = MatchExpression(prop, union, colors)
	return enc
}

// MatchExpression builds the categorical paint expression: missing or blank
// property values collapse to NA before matching, and anything outside the
// category set falls through to the NA color.
func MatchExpression(prop string, categories []string, colors map[string]string) []any {
	valueExpr := []any{
		"let", "v", []any{"to-string", []any{"coalesce", []any{"get", prop}, ""}},
		[]any{"case", []any{"==", []any{"var", "v"}, ""}, NAKey, []any{"var", "v"}},
	}
	expr := []any{"match", valueExpr}
	for _, c := range categories {
		expr = append(expr, c, colors[c])
	}
	return append(expr, colors[NAKey])
}

// RetryGate is the bounded retry for the rendering race where a refresh
// runs before any point features are materialized client-side: at most one
// retry, keyed off the renderer's idle signal.
type RetryGate struct {
	attempts int
}

// MaxRetries is fixed at one; polling further would just repeat the same
// empty sample.
const MaxRetries = 1

// ShouldRetry reports whether a refresh that saw featureCount rendered
// features should re-run after the next idle signal. Each call that returns
// true consumes one attempt.
func (g *RetryGate) ShouldRetry(featureCount int) bool {
	if featureCount > 0 || g.attempts >= MaxRetries {
		return false
	}
	g.attempts++
	return true
}

// Reset re-arms the gate for the next variable or filter change.
func (g *RetryGate) Reset() { g.attempts = 0 }
