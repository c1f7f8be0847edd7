package model

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// OccurrenceForm is the calculator's form state for the occurrence model.
// Extra carries the free numeric features not covered by a named control.
type OccurrenceForm struct {
	Month             int
	Dow               string
	Year              int
	LanduseCategory   string
	LandusePct        float64
	POICategory       string
	POICount          float64
	RCYear            int
	PCI               float64
	IRI               float64
	AADT              float64
	Population        float64
	IntersectionCount float64
	Extra             map[string]float64
}

var dowOrder = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// rcFeature matches the pavement-condition feature spellings:
// RC_rc_<year>_etat_pci, RC_rc_<year>_indice pci, and the iri variants.
var rcFeature = regexp.MustCompile(`(?i)^RC_rc_(\d{4})_(?:etat|indice)[ _]*(iri|pci)`)

// BuildOccurrenceVector fills one slot per declared feature, in the
// metadata's order. Slots without a matching form value default to zero;
// precipitation features are pinned to zero since the form never carries
// them.
func BuildOccurrenceVector(meta *OccurrenceMeta, form OccurrenceForm) []float32 {
	v := make([]float32, len(meta.Features))

	dowNum := 1
	for i, d := range dowOrder {
		if strings.EqualFold(form.Dow, d) {
			dowNum = i + 1
			break
		}
	}
	yearKey := ""
	for _, f := range meta.Features {
		if f == "year" || f == "annee" {
			yearKey = f
			break
		}
	}
	pciKeys := rcKeys(form.RCYear, "pci")
	iriKeys := rcKeys(form.RCYear, "iri")

	for i, f := range meta.Features {
		switch {
		case f == "month":
			v[i] = float32(clampInt(form.Month, 1, 12))
		case f == "dow_num":
			v[i] = float32(dowNum)
		case yearKey != "" && f == yearKey:
			v[i] = float32(form.Year)
		case strings.HasPrefix(f, "landuse__"):
			if form.LanduseCategory == strings.TrimPrefix(f, "landuse__") {
				v[i] = float32(form.LandusePct)
			}
		case strings.HasPrefix(f, "poi_type__"):
			if form.POICategory == strings.TrimPrefix(f, "poi_type__") {
				v[i] = float32(form.POICount)
			}
		case pciKeys[f]:
			v[i] = float32(form.PCI)
		case iriKeys[f]:
			v[i] = float32(form.IRI)
		case f == "aadt" || f == "aadt_mean":
			v[i] = float32(clampFloat(form.AADT, 0, 200000))
		case f == "population_aw" || f == "population":
			v[i] = float32(form.Population)
		case f == "intersection_count":
			v[i] = float32(form.IntersectionCount)
		case strings.Contains(strings.ToLower(f), "precip"):
			v[i] = 0
		default:
			if x, ok := form.Extra[f]; ok && !math.IsNaN(x) && !math.IsInf(x, 0) {
				v[i] = float32(x)
			}
		}
	}
	return v
}

func rcKeys(year int, kind string) map[string]bool {
	return map[string]bool{
		fmt.Sprintf("RC_rc_%d_etat_%s", year, kind):   true,
		fmt.Sprintf("RC_rc_%d_indice %s", year, kind): true,
	}
}

// RCYears lists the pavement-condition years a feature list covers, sorted,
// excluding 2020 whose extract is known incomplete.
func RCYears(features []string) []int {
	seen := map[int]bool{}
	var out []int
	for _, f := range features {
		m := rcFeature.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		y := 0
		fmt.Sscanf(m[1], "%d", &y)
		if y == 2020 || seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// SeverityForm is the form state for the severity model: raw numeric values
// by column and the selected category per categorical column.
type SeverityForm struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// BuildSeverityVector lays out numeric slots first, then the one-hot
// expansion of each categorical column over its declared category list.
// Missing or non-finite numeric values fall back to the per-column fill, or
// zero. A selection outside the declared list yields an all-zero block. A
// categorical column with no declared list degrades to one numeric slot.
func BuildSeverityVector(meta *SeverityMeta, form SeverityForm) []float32 {
	out := make([]float32, 0, meta.VectorWidth())

	for _, col := range meta.NumCols {
		x, ok := form.Numeric[col]
		if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
			x = 0
			if fill, found := meta.NumFill[col]; found && fill != nil {
				x = *fill
			}
		}
		out = append(out, float32(x))
	}

	for _, col := range meta.CatCols {
		cats := meta.CatCategories[col]
		chosen, ok := form.Categorical[col]
		if len(cats) == 0 {
			var x float64
			if ok {
				fmt.Sscanf(chosen, "%g", &x)
			}
			out = append(out, float32(x))
			continue
		}
		if !ok {
			chosen = cats[0]
		}
		for _, c := range cats {
			if c == chosen {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func clampFloat(x, min, max float64) float64 {
	return math.Max(min, math.Min(max, x))
}
