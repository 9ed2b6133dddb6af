package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed sql/*
var sqliteFS embed.FS

// OpenSQLite opens (creating if needed) the SQLite database at path and
// applies the embedded schema. The schema statements are idempotent.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("sqlite path not specified")
	}

	conn, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	ddl, err := sqliteFS.ReadFile("sql/sqlite.sql")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read sqlite schema: %w", err)
	}
	if _, err := conn.ExecContext(ctx, string(ddl)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create sqlite schema in %s: %w", path, err)
	}

	return conn, nil
}

// sqliteBusyTimeoutMS is applied through the DSN so every connection the pool
// opens carries it, not only the first.
const sqliteBusyTimeoutMS = 5000

func sqliteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, sqliteBusyTimeoutMS)
}
