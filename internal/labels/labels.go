// Package labels resolves raw coded values and variable names to display
// strings through an optional JSON dictionary, with built-in fallbacks for
// the SAAQ collision schema.
package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// VarOptions are the categorical variables exposed for the distribution pie
// and the map color encoding.
var VarOptions = []string{
	"GRAVITE",
	"CD_GENRE_ACCDN",
	"CD_SIT_PRTCE_ACCDN",
	"CD_ETAT_SURFC",
	"CD_ECLRM",
	"CD_ENVRN_ACCDN",
	"CD_CATEG_ROUTE",
	"CD_ETAT_CHASS",
	"ROUTE_ASPECT",
	"CD_LOCLN_ACCDN",
	"CD_POSI_ACCDN",
	"CD_COND_METEO",
}

// datasetFieldMap collapses legacy variable spellings onto the column the
// analytical table actually carries.
var datasetFieldMap = map[string]string{
	"T_ROUTE":        "ROUTE_ASPECT",
	"CD_ASPCT_ROUTE": "ROUTE_ASPECT",
}

// DatasetColumn maps a UI variable name to its analytical-table column.
func DatasetColumn(variable string) string {
	if col, ok := datasetFieldMap[variable]; ok {
		return col
	}
	return variable
}

// dictAliases lets dictionary sections keyed under an older spelling serve a
// renamed variable.
var dictAliases = map[string]string{
	"CD_ASPCT_ROUTE": "ROUTE_ASPECT",
	"ASPCT_ROUTE":    "ROUTE_ASPECT",
}

// fallbackVarLabels cover variables the dictionary file does not describe.
var fallbackVarLabels = map[string]string{
	"JR_SEMN_ACCDN":      "Day of the week",
	"GRAVITE":            "Severity of the accident (based on victims)",
	"CD_GENRE_ACCDN":     "Type of collision (first impact)",
	"CD_SIT_PRTCE_ACCDN": "Special situation during accident",
	"CD_ETAT_SURFC":      "Road surface condition",
	"CD_ECLRM":           "Lighting condition",
	"CD_ENVRN_ACCDN":     "Environment (land use)",
	"CD_CATEG_ROUTE":     "Road category",
	"CD_ETAT_CHASS":      "Roadway condition",
	"T_ROUTE":            "Road aspect (profile/slope)",
	"CD_ASPCT_ROUTE":     "Road aspect (profile/slope)",
	"ROUTE_ASPECT":       "Road aspect (profile/slope)",
	"CD_LOCLN_ACCDN":     "Longitudinal location",
	"CD_POSI_ACCDN":      "Transversal position on roadway",
	"CD_CONFG_ROUTE":     "Road configuration",
	"CD_ZON_TRAVX_ROUTR": "Work zone indicator",
	"CD_COND_METEO":      "Weather conditions",
}

// severityFrToEn translates the dataset's French severity classes.
var severityFrToEn = map[string]string{
	"Dommages matériels inférieurs au seuil de rapportage": "Below reporting threshold",
	"Dommages matériels seulement":                         "Property damage only",
	"Léger":  "Minor injury",
	"Grave":  "Serious injury",
	"Mortel": "Fatal",
}

// TranslateSeverity renders a French severity class in English, passing
// unknown values through.
func TranslateSeverity(v string) string {
	if en, ok := severityFrToEn[v]; ok {
		return en
	}
	return v
}

// labelsSection is the reserved dictionary key for variable-level (not
// value-level) display names.
const labelsSection = "__labels__"

// Dictionary maps variable names to code→label tables, plus the reserved
// variable-name section.
type Dictionary struct {
	sections  map[string]map[string]string
	varLabels map[string]string
}

// ParseDictionary decodes the dictionary JSON format: an object of
// variable → {code → label} plus an optional "__labels__" section of
// variable → display name.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	d := &Dictionary{
		sections:  make(map[string]map[string]string, len(raw)),
		varLabels: map[string]string{},
	}
	for key, msg := range raw {
		var table map[string]string
		if err := json.Unmarshal(msg, &table); err != nil {
			// Tolerate non-object sections; labels degrade to raw codes.
			continue
		}
		if key == labelsSection {
			d.varLabels = table
			continue
		}
		d.sections[key] = table
	}
	return d, nil
}

// section finds the value table for a variable, trying the dictionary's
// spelling variants: as-is, uppercase, CD_ prefix, and alias targets.
func (d *Dictionary) section(variable string) map[string]string {
	if d == nil {
		return nil
	}
	for _, k := range lookupVariants(variable) {
		if t, ok := d.sections[k]; ok {
			return t
		}
	}
	return nil
}

func lookupVariants(variable string) []string {
	upper := strings.ToUpper(variable)
	variants := []string{variable, upper, "CD_" + variable, "CD_" + upper}
	if a, ok := dictAliases[variable]; ok {
		variants = append(variants, a)
	}
	if a, ok := dictAliases[upper]; ok {
		variants = append(variants, a)
	}
	return variants
}

// LabelFor translates a raw coded value for a variable. Lookup order:
// exact code, integer-normalized code, the section's NA entry, then the raw
// code itself.
func (d *Dictionary) LabelFor(variable, code string) string {
	table := d.section(variable)
	if table == nil {
		return code
	}
	if v, ok := table[code]; ok {
		return v
	}
	if f, err := strconv.ParseFloat(code, 64); err == nil && f == float64(int64(f)) {
		if v, ok := table[strconv.FormatInt(int64(f), 10)]; ok {
			return v
		}
	}
	if v, ok := table["NA"]; ok {
		return v
	}
	return code
}

// VariableLabel returns the display name for a variable: dictionary
// __labels__ first, built-in fallback second, the raw name last.
func (d *Dictionary) VariableLabel(variable string) string {
	if d != nil {
		for _, k := range lookupVariants(variable) {
			if v, ok := d.varLabels[k]; ok && v != "" {
				return v
			}
		}
	}
	if v, ok := fallbackVarLabels[variable]; ok {
		return v
	}
	return variable
}

// Export renders the dictionary back into its JSON document shape, the
// variable sections plus the reserved labels section.
func (d *Dictionary) Export() map[string]map[string]string {
	out := make(map[string]map[string]string, len(d.sections)+1)
	for k, table := range d.sections {
		out[k] = table
	}
	if len(d.varLabels) > 0 {
		out[labelsSection] = d.varLabels
	}
	return out
}

const dictCacheKey = "dictionary"

// Loader reads and caches the dictionary file. A missing or malformed file
// is not fatal: views degrade to raw codes.
type Loader struct {
	path  string
	cache *gocache.Cache

	// Optional cache observability hooks.
	OnHit  func()
	OnMiss func()
}

// NewLoader caches the parsed dictionary for ttl before re-reading.
func NewLoader(path string, ttl time.Duration) *Loader {
	return &Loader{
		path:  path,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Load returns the cached dictionary, reading the file on a cold cache.
func (l *Loader) Load() (*Dictionary, error) {
	if v, ok := l.cache.Get(dictCacheKey); ok {
		if l.OnHit != nil {
			l.OnHit()
		}
		return v.(*Dictionary), nil
	}
	if l.OnMiss != nil {
		l.OnMiss()
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	d, err := ParseDictionary(data)
	if err != nil {
		return nil, err
	}
	l.cache.Set(dictCacheKey, d, gocache.DefaultExpiration)
	return d, nil
}
