// Package db holds the PostGIS helpers used to publish normalized tables.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used here; pgxmock satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Connect opens and pings a pool.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, eris.New("db: no database_url configured (set postgis.database_url)")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "db: create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "db: ping database")
	}
	return pool, nil
}

// Column is a column definition for ReplaceTable.
type Column struct {
	Name string
	Type string
}

// ReplaceTable creates schema.table if needed and empties it.
func ReplaceTable(ctx context.Context, pool Pool, schema, table string, cols []Column) error {
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schema}.Sanitize())); err != nil {
		return eris.Wrapf(err, "db: create schema %s", schema)
	}

	ident := pgx.Identifier{schema, table}.Sanitize()
	defs := ""
	for i, c := range cols {
		if i > 0 {
			defs += ", "
		}
		defs += pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident, defs)); err != nil {
		return eris.Wrapf(err, "db: create table %s.%s", schema, table)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", ident)); err != nil {
		return eris.Wrapf(err, "db: truncate %s.%s", schema, table)
	}
	return nil
}
