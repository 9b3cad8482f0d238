// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievestore

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // registers the postgres driver
)

// Dialect holds the statements a SQL store issues against one kind of database.
// Insertion order is kept by an auto-increment seq column, and duplicate IDs are
// detected by an insert that silently skips conflicting rows.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	// PrepareDSN adjusts a data source name before it is opened.  It may be nil.
	PrepareDSN func(string) (string, error)

	Schema string
	List   string
	Insert string
	Update string
	Delete string
}

// Postgres is the Dialect for PostgreSQL, through github.com/lib/pq.
var Postgres = Dialect{
	Driver: "postgres",
	Schema: `CREATE TABLE IF NOT EXISTS todos (
	seq BIGSERIAL,
	id BIGINT PRIMARY KEY,
	text TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE
)`,
	List:   `SELECT id, text, completed FROM todos ORDER BY seq LIMIT $1 OFFSET $2`,
	Insert: `INSERT INTO todos (id, text, completed) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
	Update: `UPDATE todos SET text = $1, completed = $2 WHERE id = $3`,
	Delete: `DELETE FROM todos WHERE id = $1`,
}

// MySQL is the Dialect for MySQL, through github.com/go-sql-driver/mysql.
// Its PrepareDSN turns on clientFoundRows, so that an update which leaves a
// row unchanged still reports that row as found.
var MySQL = Dialect{
	Driver:     "mysql",
	PrepareDSN: mysqlDSN,
	Schema: `CREATE TABLE IF NOT EXISTS todos (
	seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
	id BIGINT NOT NULL PRIMARY KEY,
	text TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE
)`,
	List:   "SELECT id, text, completed FROM todos ORDER BY seq LIMIT ? OFFSET ?",
	Insert: "INSERT IGNORE INTO todos (id, text, completed) VALUES (?, ?, ?)",
	Update: "UPDATE todos SET text = ?, completed = ? WHERE id = ?",
	Delete: "DELETE FROM todos WHERE id = ?",
}

func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}

	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// DialectFor looks up a Dialect by driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case Postgres.Driver, "postgresql":
		return Postgres, nil

	case MySQL.Driver:
		return MySQL, nil

	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
