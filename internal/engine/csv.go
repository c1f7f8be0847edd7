package engine

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// colType is the sniffed storage class for a CSV column.
type colType int

const (
	typeInt colType = iota
	typeReal
	typeText
)

func (t colType) ddl() string {
	switch t {
	case typeInt:
		return "INTEGER"
	case typeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

const insertBatch = 500

// loadCSV reads a headered CSV file into a fresh table. Column types are
// sniffed from the data: a column is INTEGER if every non-empty value parses
// as an integer, REAL if every non-empty value parses as a float, TEXT
// otherwise. Empty cells become NULL. Returns the row count.
func loadCSV(ctx context.Context, db *sqlx.DB, table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}

	types := sniffTypes(header, records)

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = fmt.Sprintf("%q %s", QuoteIdent(h), types[i].ddl())
	}
	ddl := fmt.Sprintf("CREATE TABLE %q (%s)", QuoteIdent(table), strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("creating table: %w", err)
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(header)), ",") + ")"
	insert := fmt.Sprintf("INSERT INTO %q VALUES %s", QuoteIdent(table), placeholders)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting load transaction: %w", err)
	}
	stmt, err := tx.PreparexContext(ctx, insert)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing insert: %w", err)
	}

	for i, rec := range records {
		args := make([]any, len(header))
		for j := range header {
			var cell string
			if j < len(rec) {
				cell = strings.TrimSpace(rec[j])
			}
			args[j] = coerceCell(cell, types[j])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting row %d: %w", i+2, err)
		}
		if (i+1)%insertBatch == 0 {
			select {
			case <-ctx.Done():
				tx.Rollback()
				return 0, ctx.Err()
			default:
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load: %w", err)
	}
	return len(records), nil
}

func sniffTypes(header []string, records [][]string) []colType {
	types := make([]colType, len(header))
	seen := make([]bool, len(header))
	for j := range header {
		types[j] = typeInt
	}
	for _, rec := range records {
		for j := range header {
			if j >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[j])
			if cell == "" {
				continue
			}
			seen[j] = true
			switch types[j] {
			case typeInt:
				if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
					continue
				}
				if _, err := strconv.ParseFloat(cell, 64); err == nil {
					types[j] = typeReal
				} else {
					types[j] = typeText
				}
			case typeReal:
				if _, err := strconv.ParseFloat(cell, 64); err != nil {
					types[j] = typeText
				}
			}
		}
	}
	// Columns with no data default to TEXT.
	for j, s := range seen {
		if !s {
			types[j] = typeText
		}
	}
	return types
}

func coerceCell(cell string, t colType) any {
	if cell == "" {
		return nil
	}
	switch t {
	case typeInt:
		n, _ := strconv.ParseInt(cell, 10, 64)
		return n
	case typeReal:
		f, _ := strconv.ParseFloat(cell, 64)
		return f
	default:
		return cell
	}
}
