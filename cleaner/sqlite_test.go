package cleaner

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T, dir, name string) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestSQLiteCleanDumpsRowsDeterministically(t *testing.T) {
	dir := t.TempDir()
	db, path := newTestDB(t, dir, "books.db")

	_, err := db.Exec(`CREATE TABLE books (id INTEGER, title TEXT, last_synced TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO books (id, title, last_synced) VALUES (1, 'A', 'x'), (2, 'B', 'y')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s := &SQLite{DropColumns: map[string][]string{"books": {"last_synced"}}}
	scope := NewScope()
	defer scope.Close()

	out, err := s.Clean(context.Background(), path, dir, scope)
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(content)
	require.Contains(t, text, "books\t1\tA\n")
	require.Contains(t, text, "books\t2\tB\n")
	require.NotContains(t, text, "last_synced")
	require.NotContains(t, text, "\tx\t")
}

func TestSQLiteCleanDropsTable(t *testing.T) {
	dir := t.TempDir()
	db, path := newTestDB(t, dir, "kobo.db")

	_, err := db.Exec(`CREATE TABLE content (id INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE bookmark (id INTEGER, text TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO content (id) VALUES (1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO bookmark (id, text) VALUES (1, 'hi')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s := &SQLite{DropTables: []string{"content"}}
	scope := NewScope()
	defer scope.Close()

	out, err := s.Clean(context.Background(), path, dir, scope)
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(content)
	require.NotContains(t, text, "content\t")
	require.Contains(t, text, "bookmark\t1\thi\n")
}

func TestSQLiteCleanEmptyTableProducesNoLines(t *testing.T) {
	dir := t.TempDir()
	db, path := newTestDB(t, dir, "empty.db")
	_, err := db.Exec(`CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s := &SQLite{}
	scope := NewScope()
	defer scope.Close()

	out, err := s.Clean(context.Background(), path, dir, scope)
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Empty(t, content)
}
