package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// queryCatalog resolves named queries from the embedded .sql files and
// rebinds their placeholders for the active driver, so the same query text
// serves sqlite and postgres. Faults carry the query name.
type queryCatalog struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// loadQueries parses every embedded queries/*.sql file into one named-query
// catalog (dotsql "-- name:" sections).
func loadQueries(db *sqlx.DB) (*queryCatalog, error) {
	files, err := fs.Glob(queriesFS, "queries/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list query files: %w", err)
	}

	var combined strings.Builder
	for _, file := range files {
		content, err := queriesFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		combined.Write(content)
		combined.WriteByte('\n')
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded queries: %w", err)
	}
	return &queryCatalog{dot: dot, db: db}, nil
}

// raw looks up a named query and rebinds ? placeholders for the driver.
func (q *queryCatalog) raw(name string) (string, error) {
	text, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("unknown query %q", name)
	}
	return q.db.Rebind(text), nil
}

func (q *queryCatalog) exec(name string, args ...any) (sql.Result, error) {
	query, err := q.raw(name)
	if err != nil {
		return nil, err
	}
	res, err := q.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	return res, nil
}

// get scans a single row into dest. sql.ErrNoRows stays reachable through
// the wrap for callers mapping it to ErrNotFound.
func (q *queryCatalog) get(name string, dest any, args ...any) error {
	query, err := q.raw(name)
	if err != nil {
		return err
	}
	if err := q.db.Get(dest, query, args...); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	return nil
}

// selectInto scans all rows into the slice at dest.
func (q *queryCatalog) selectInto(name string, dest any, args ...any) error {
	query, err := q.raw(name)
	if err != nil {
		return err
	}
	if err := q.db.Select(dest, query, args...); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	return nil
}
