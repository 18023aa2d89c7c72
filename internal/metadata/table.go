// Package metadata exposes the per-run metadata of the whole database as a
// queryable table. The table is rebuilt fresh from the database on every
// manager initialization and lives in an in-memory SQLite database; nothing
// here is persisted.
package metadata

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jszwec/csvutil"
	"github.com/mllorens/corewa/internal/coredb"
)

// columns lists the table's fields in declaration order. Filters may only
// reference these names.
var columns = []string{
	"database_key",
	"run",
	"id_eos",
	"id_eccentricity",
	"id_mass",
	"id_rest_mass",
	"id_mass_ratio",
	"id_ADM_mass",
	"id_ADM_angularmomentum",
	"id_gw_frequency_Hz",
	"id_gw_frequency_Momega22",
	"id_kappa2T",
	"id_Lambda",
	"id_mass_starA",
	"id_rest_mass_starA",
	"id_mass_starB",
	"id_rest_mass_starB",
}

// Filter is a single exact-match constraint on a metadata field. Filters
// combine conjunctively.
type Filter struct {
	Field string
	Value string
}

// Table is a read-only aggregate view of run metadata, one row per run.
type Table struct {
	db   *sql.DB
	rows int
}

// New builds a table from the database's metadata rows.
func New(rows []coredb.RunMetadata) (*Table, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening metadata table: %w", err)
	}
	db.SetMaxOpenConns(1)

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = fmt.Sprintf("%q TEXT", c)
	}
	createStmt := fmt.Sprintf("CREATE TABLE runs (%s)", strings.Join(quoted, ", "))
	if _, err := db.Exec(createStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating metadata table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertStmt, err := db.Prepare(fmt.Sprintf("INSERT INTO runs VALUES (%s)", placeholders))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing metadata insert: %w", err)
	}
	defer insertStmt.Close()

	for _, row := range rows {
		if _, err := insertStmt.Exec(rowValues(row)...); err != nil {
			db.Close()
			return nil, fmt.Errorf("inserting metadata row %s/%s: %w", row.DatabaseKey, row.RunKey, err)
		}
	}

	return &Table{db: db, rows: len(rows)}, nil
}

// Close releases the in-memory database.
func (t *Table) Close() error { return t.db.Close() }

// Len returns the total number of rows.
func (t *Table) Len() int { return t.rows }

// CountRuns counts the runs whose metadata satisfies every filter. An empty
// filter list counts all runs.
func (t *Table) CountRuns(filters []Filter) (int, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return 0, err
	}
	var count int
	if err := t.db.QueryRow("SELECT COUNT(*) FROM runs"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return count, nil
}

// DistinctEOS returns the distinct equation-of-state labels, sorted.
func (t *Table) DistinctEOS() ([]string, error) {
	rows, err := t.db.Query(`SELECT DISTINCT id_eos FROM runs ORDER BY id_eos`)
	if err != nil {
		return nil, fmt.Errorf("listing EOS: %w", err)
	}
	defer rows.Close()

	var eos []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("listing EOS: %w", err)
		}
		eos = append(eos, label)
	}
	return eos, rows.Err()
}

// Rows returns the metadata rows satisfying every filter, in (simulation,
// run) order.
func (t *Table) Rows(filters []Filter) ([]coredb.RunMetadata, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}
	selectCols := make([]string, len(columns))
	for i, c := range columns {
		selectCols[i] = fmt.Sprintf("%q", c)
	}
	query := fmt.Sprintf("SELECT %s FROM runs%s ORDER BY database_key, run",
		strings.Join(selectCols, ", "), where)

	rows, err := t.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	var result []coredb.RunMetadata
	for rows.Next() {
		var rm coredb.RunMetadata
		if err := rows.Scan(rowPointers(&rm)...); err != nil {
			return nil, fmt.Errorf("querying metadata: %w", err)
		}
		result = append(result, rm)
	}
	return result, rows.Err()
}

// WriteCSV writes the filtered rows as CSV, header included.
func (t *Table) WriteCSV(w io.Writer, filters []Filter) error {
	rows, err := t.Rows(filters)
	if err != nil {
		return err
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding metadata CSV: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing metadata CSV: %w", err)
	}
	return nil
}

// buildWhere renders a conjunctive WHERE clause. Field names are checked
// against the known column set; values always bind as parameters.
func buildWhere(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		if !known[f.Field] {
			return "", nil, fmt.Errorf("unknown metadata field %q", f.Field)
		}
		conds = append(conds, fmt.Sprintf("%q = ?", f.Field))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func rowValues(rm coredb.RunMetadata) []any {
	return []any{
		rm.DatabaseKey, rm.RunKey, rm.EOS, rm.Eccentricity, rm.Mass,
		rm.RestMass, rm.MassRatio, rm.ADMMass, rm.ADMAngularMomentum,
		rm.GWFrequencyHz, rm.GWFrequencyMomega22, rm.Kappa2T, rm.Lambda,
		rm.MassStarA, rm.RestMassStarA, rm.MassStarB, rm.RestMassStarB,
	}
}

func rowPointers(rm *coredb.RunMetadata) []any {
	return []any{
		&rm.DatabaseKey, &rm.RunKey, &rm.EOS, &rm.Eccentricity, &rm.Mass,
		&rm.RestMass, &rm.MassRatio, &rm.ADMMass, &rm.ADMAngularMomentum,
		&rm.GWFrequencyHz, &rm.GWFrequencyMomega22, &rm.Kappa2T, &rm.Lambda,
		&rm.MassStarA, &rm.RestMassStarA, &rm.MassStarB, &rm.RestMassStarB,
	}
}
