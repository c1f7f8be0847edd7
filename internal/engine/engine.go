// Package engine wraps the embedded analytical SQL engine. One Engine is
// shared per process; dataset files load lazily on first query, guarded so
// concurrent first callers share a single initialization.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/logging"
)

// Dataset logical names. Each maps to one table in the engine and one file
// under the data root.
const (
	DatasetSeriesMonthly = "series_monthly"
	DatasetSeriesYearly  = "series_yearly"
	DatasetMatrixDowHour = "matrix_dow_hour"
	DatasetMatrixDowMonth = "matrix_dow_month"
	DatasetIncidentVars  = "incident_vars"
)

// Row is one materialized result record. Values arrive untyped from the
// engine boundary; callers coerce through the helpers in coerce.go.
type Row map[string]any

// Config locates the dataset files.
type Config struct {
	// DataRoot anchors relative dataset paths, the way the original resolved
	// relative URLs against the page location.
	DataRoot string
	// Datasets maps logical table names to file paths (absolute, or relative
	// to DataRoot). Missing entries default to "<name>.csv".
	Datasets map[string]string
}

// Engine executes SQL against the loaded collision datasets.
type Engine struct {
	cfg Config
	log logging.Logger

	initOnce sync.Once
	initErr  error
	db       *sqlx.DB
}

// New returns an uninitialized engine; the first Query triggers dataset load.
func New(cfg Config, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Engine{cfg: cfg, log: log}
}

// ResolvePath turns a dataset path into an absolute one, anchoring relative
// paths at the data root.
func (e *Engine) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.cfg.DataRoot, p)
}

func (e *Engine) datasetPath(name string) string {
	p, ok := e.cfg.Datasets[name]
	if !ok || p == "" {
		p = name + ".csv"
	}
	return e.ResolvePath(p)
}

// Init loads every configured dataset into the embedded engine. Safe to call
// from any number of goroutines; all callers observe the one real attempt.
func (e *Engine) Init(ctx context.Context) error {
	e.initOnce.Do(func() { e.initErr = e.initialize(ctx) })
	return e.initErr
}

func (e *Engine) initialize(ctx context.Context) error {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return &QueryError{Kind: KindDataUnavailable, Err: fmt.Errorf("opening engine: %w", err)}
	}
	// The in-memory database lives on a single connection; a second pooled
	// connection would see an empty schema.
	db.SetMaxOpenConns(1)

	for _, name := range []string{
		DatasetSeriesMonthly, DatasetSeriesYearly,
		DatasetMatrixDowHour, DatasetMatrixDowMonth,
		DatasetIncidentVars,
	} {
		path := e.datasetPath(name)
		n, err := loadCSV(ctx, db, name, path)
		if err != nil {
			db.Close()
			return &QueryError{Kind: KindDataUnavailable, Dataset: name,
				Err: fmt.Errorf("loading %s: %w", path, err)}
		}
		e.log.Info("dataset loaded", logging.String("table", name),
			logging.String("path", path), logging.Int("rows", n))
	}

	e.db = db
	return nil
}

// Query runs sql and materializes every row. Each call gets its own
// connection scope, released on all paths, so concurrent queries cannot
// interleave cursors.
func (e *Engine) Query(ctx context.Context, sql string) ([]Row, error) {
	if err := e.Init(ctx); err != nil {
		return nil, err
	}

	conn, err := e.db.Connx(ctx)
	if err != nil {
		return nil, &QueryError{Kind: KindQuery, SQL: sql, Err: fmt.Errorf("acquiring connection: %w", err)}
	}
	defer conn.Close()

	rows, err := conn.QueryxContext(ctx, sql)
	if err != nil {
		return nil, &QueryError{Kind: classify(err), SQL: sql, Err: err}
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		rec := Row{}
		if err := rows.MapScan(rec); err != nil {
			return nil, &QueryError{Kind: KindQuery, SQL: sql, Err: fmt.Errorf("scanning row: %w", err)}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Kind: KindQuery, SQL: sql, Err: err}
	}
	return out, nil
}

// Columns lists the column names of a loaded dataset table. Views use it to
// probe optional columns before aggregating on them.
func (e *Engine) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := e.Query(ctx, fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", QuoteIdent(table)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &QueryError{Kind: KindDataUnavailable, Dataset: table,
			Err: fmt.Errorf("table %s not loaded", table)}
	}
	cols := make([]string, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, String(r, "name"))
	}
	return cols, nil
}

// Close releases the engine. Queries after Close fail.
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// QuoteIdent strips quote characters from an identifier before it is
// interpolated into engine-internal SQL.
func QuoteIdent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' || r == '"' || r == '`' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
