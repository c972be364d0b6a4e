package cleaner

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	// modernc.org/sqlite is a pure-Go SQLite driver (no cgo), registering
	// itself under the "sqlite" database/sql driver name.
	_ "modernc.org/sqlite"
)

func init() {
	Register("sqlite", func() Cleaner { return &SQLite{} })
}

// SQLite cleans SQLite application databases, grounded in
// original_source/src/bleanser/modules/kobo.py and
// podcastaddict_android.py: both open the snapshot read-only, drop whole
// tables that only ever hold cache/derived data, drop individual volatile
// columns (sync tokens, timestamps, checksums) from the tables that
// survive, and dump the result deterministically for diffing.
type SQLite struct {
	// DropTables lists table names to omit entirely from the dump, the Go
	// equivalent of kobo.py's Tool.drop("content").
	DropTables []string
	// DropColumns maps a table name to the columns to omit from it, the
	// Go equivalent of kobo.py's Tool.drop_cols(table=..., cols=...).
	DropColumns map[string][]string
}

// Name implements Cleaner.
func (s *SQLite) Name() string { return "sqlite" }

// Clean implements Cleaner.
func (s *SQLite) Clean(ctx context.Context, input string, wdir string, scope *Scope) (string, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", input)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", input)
	}
	defer db.Close()

	tables, err := s.tables(ctx, db)
	if err != nil {
		return "", errors.Wrapf(err, "listing tables in %s", input)
	}

	outPath := filepath.Join(wdir, uuid.NewString()+".sqlite.clean")
	f, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrapf(err, "creating cleaned artifact %s", outPath)
	}
	scope.Defer(func() error { return os.Remove(outPath) })

	w := bufio.NewWriter(f)
	for _, table := range tables {
		if err := s.dumpTable(ctx, db, w, table); err != nil {
			f.Close()
			return "", errors.Wrapf(err, "dumping table %s", table)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "flushing cleaned artifact %s", outPath)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "closing cleaned artifact %s", outPath)
	}
	return outPath, nil
}

func (s *SQLite) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dropped := toSet(s.DropTables)
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if dropped[name] {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// dumpTable writes one deterministically ordered, tab-separated line per
// surviving row, prefixed with the table name so rows from different
// tables can never collide. Columns are scanned into interface{} values
// and rendered textually: exact type fidelity
// does not matter, only that identical row content renders identically.
func (s *SQLite) dumpTable(ctx context.Context, db *sql.DB, w *bufio.Writer, table string) error {
	cols, err := s.columns(ctx, db, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
	}
	query := fmt.Sprintf(`SELECT %s FROM "%s" ORDER BY rowid`, strings.Join(quoted, ", "), table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		fmt.Fprint(w, table)
		for _, v := range vals {
			fmt.Fprint(w, "\t", renderValue(v))
		}
		fmt.Fprint(w, "\n")
	}
	return rows.Err()
}

func (s *SQLite) columns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dropped := toSet(s.DropColumns[table])
	var cols []string
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  interface{}
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		if dropped[name] {
			continue
		}
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols, rows.Err()
}

func renderValue(v interface{}) string {
	if v == nil {
		return "<NULL>"
	}
	switch b := v.(type) {
	case []byte:
		return fmt.Sprintf("%x", b)
	default:
		return fmt.Sprint(b)
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
