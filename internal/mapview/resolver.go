package mapview

import "strings"

// fieldAliases lists the tile property spellings that may carry a variable's
// values. Tile schemas lowercase property names and some keep legacy column
// names.
var fieldAliases = map[string][]string{
	"GRAVITE":            {"gravite"},
	"CD_GENRE_ACCDN":     {"cd_genre_accdn"},
	"CD_SIT_PRTCE_ACCDN": {"cd_sit_prtce_accdn"},
	"CD_ETAT_SURFC":      {"cd_etat_surfc"},
	"CD_ECLRM":           {"cd_eclrm"},
	"CD_ENVRN_ACCDN":     {"cd_envrn_accdn"},
	"CD_CATEG_ROUTE":     {"cd_categ_route"},
	"CD_ETAT_CHASS":      {"cd_etat_chass"},
	"ROUTE_ASPECT":       {"route_aspect", "t_route", "cd_aspct_route"},
	"CD_LOCLN_ACCDN":     {"cd_locln_accdn"},
	"CD_POSI_ACCDN":      {"cd_posi_accdn"},
	"CD_COND_METEO":      {"cd_cond_meteo"},
}

// Candidates returns the property names to try for a variable, in resolution
// order: exact name, known aliases, then the lowercased name.
func Candidates(field string) []string {
	out := []string{field}
	out = append(out, fieldAliases[field]...)
	out = append(out, strings.ToLower(field))
	return out
}

// ResolveProperty finds the first candidate present among the available tile
// property keys. Returns "" and false when the variable cannot be resolved
// in the tile schema at all.
func ResolveProperty(field string, available []string) (string, bool) {
	set := make(map[string]bool, len(available))
	for _, k := range available {
		set[k] = true
	}
	for _, cand := range Candidates(field) {
		if set[cand] {
			return cand, true
		}
	}
	return "", false
}
