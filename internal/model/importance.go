package model

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ImportanceRow is one feature's importance score.
type ImportanceRow struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// importance score column spellings across exports.
var importanceColumns = []string{"importance", "gini", "gain", "perm", "permutation"}

// ParseImportance reads a feature-importance table: either a headered CSV
// with a "feature" column and one of the known score columns, or a bare
// two-column file. Rows with a blank feature or non-numeric score are
// skipped. The result is sorted by descending importance.
func ParseImportance(data []byte) ([]ImportanceRow, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing importance table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("importance table is empty")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	fIdx, iIdx := indexOf(header, "feature"), -1
	for _, col := range importanceColumns {
		if j := indexOf(header, col); j >= 0 {
			iIdx = j
			break
		}
	}

	var rows [][]string
	if fIdx >= 0 && iIdx >= 0 {
		rows = records[1:]
	} else if len(records[0]) == 2 {
		// Headerless two-column form.
		fIdx, iIdx = 0, 1
		rows = records
	} else {
		return nil, fmt.Errorf("unrecognized importance table header: %v", records[0])
	}

	var out []ImportanceRow
	for _, rec := range rows {
		if fIdx >= len(rec) || iIdx >= len(rec) {
			continue
		}
		feature := strings.TrimSpace(rec[fIdx])
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[iIdx]), 64)
		if feature == "" || err != nil {
			continue
		}
		out = append(out, ImportanceRow{Feature: feature, Importance: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out, nil
}

func indexOf(hs []string, want string) int {
	for i, h := range hs {
		if h == want {
			return i
		}
	}
	return -1
}
