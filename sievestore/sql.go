// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sievestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrUnsupportedDriver indicates a store driver with no known Dialect.
var ErrUnsupportedDriver = errors.New("unsupported store driver")

// SQL is a Store backed by a relational database.  Atomicity comes from the
// database itself:  inserts skip conflicting IDs, and updates and deletes are
// single statements.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*SQL)(nil)

// NewSQL creates a SQL store over an existing connection pool.
func NewSQL(db *sql.DB, d Dialect) *SQL {
	return &SQL{
		db:      db,
		dialect: d,
	}
}

// OpenSQL opens a connection pool for a Dialect.  A maxOpenConns of zero or less
// leaves the pool unbounded.
func OpenSQL(d Dialect, dsn string, maxOpenConns int) (*SQL, error) {
	if d.PrepareDSN != nil {
		var err error
		if dsn, err = d.PrepareDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s store: %w", d.Driver, err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	return NewSQL(db, d), nil
}

// Migrate creates the todos table if it doesn't exist.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return fmt.Errorf("unable to migrate %s store: %w", s.dialect.Driver, err)
	}

	return nil
}

// Close closes the underlying connection pool.
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) List(ctx context.Context, offset, limit int) ([]Todo, error) {
	offset, limit = window(offset, limit)
	rows, err := s.db.QueryContext(ctx, s.dialect.List, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to list todos: %w", err)
	}

	defer rows.Close()
	todos := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed); err != nil {
			return nil, fmt.Errorf("unable to read todo: %w", err)
		}

		todos = append(todos, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to list todos: %w", err)
	}

	return todos, nil
}

func (s *SQL) Create(ctx context.Context, t Todo) (bool, error) {
	return s.exec(ctx, "create", s.dialect.Insert, int64(t.ID), t.Text, t.Completed)
}

func (s *SQL) Update(ctx context.Context, id uint64, t Todo) (bool, error) {
	return s.exec(ctx, "update", s.dialect.Update, t.Text, t.Completed, int64(id))
}

func (s *SQL) Delete(ctx context.Context, id uint64) (bool, error) {
	return s.exec(ctx, "delete", s.dialect.Delete, int64(id))
}

// exec runs a single-row statement and reports whether it touched a row.
func (s *SQL) exec(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("unable to %s todo: %w", op, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to %s todo: %w", op, err)
	}

	return n > 0, nil
}
