// Package sqlitekv implements smt.Store on a single SQLite table.
//
// Keys are BLOBs, which SQLite orders with memcmp, so prefix and range scans
// follow the same byte order as the other stores.
package sqlitekv

import (
	"bytes"
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY NOT NULL,
	v BLOB NOT NULL
) WITHOUT ROWID`

// querier is the method set shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ops struct {
	ctx context.Context
	q   querier
}

func (o ops) Get(key []byte) ([]byte, bool, error) {
	var v []byte
	err := o.q.QueryRowContext(o.ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		v = []byte{}
	}
	return v, true, nil
}

func (o ops) Put(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := o.q.ExecContext(o.ctx,
		`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		key, value)
	return err
}

func (o ops) Delete(key []byte) error {
	_, err := o.q.ExecContext(o.ctx, `DELETE FROM kv WHERE k = ?`, key)
	return err
}

func (o ops) Last(prefix []byte) ([]byte, bool, error) {
	var k []byte
	var err error
	if limit, ok := prefixEnd(prefix); ok {
		err = o.q.QueryRowContext(o.ctx,
			`SELECT k FROM kv WHERE k >= ? AND k < ? ORDER BY k DESC LIMIT 1`,
			nonNil(prefix), limit).Scan(&k)
	} else {
		err = o.q.QueryRowContext(o.ctx,
			`SELECT k FROM kv WHERE k >= ? ORDER BY k DESC LIMIT 1`,
			nonNil(prefix)).Scan(&k)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return k, true, nil
}

// Range holds the store's only connection while it runs; fn must not call
// back into the store.
func (o ops) Range(prefix, start []byte, fn func(key, value []byte) error) error {
	from := nonNil(prefix)
	if bytes.Compare(start, from) > 0 {
		from = start
	}

	var rows *sql.Rows
	var err error
	if limit, ok := prefixEnd(prefix); ok {
		rows, err = o.q.QueryContext(o.ctx,
			`SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`, from, limit)
	} else {
		rows, err = o.q.QueryContext(o.ctx,
			`SELECT k, v FROM kv WHERE k >= ? ORDER BY k`, from)
	}
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err = rows.Scan(&k, &v); err != nil {
			return err
		}
		if err = fn(k, v); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Store is an smt.Store over an SQLite database.
type Store struct {
	ops
	db *sql.DB
}

// Open opens, creating if needed, the database named by dsn. Use ":memory:"
// for a private in memory database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writers, which the tree requires anyway.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{ops: ops{ctx: context.Background(), q: db}, db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Txn is an smt.Store bound to an open SQL transaction.
type Txn struct {
	ops
}

// Update runs fn in a transaction, committing if fn returns nil and rolling
// back otherwise.
func (s *Store) Update(ctx context.Context, fn func(tx *Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = fn(&Txn{ops: ops{ctx: ctx, q: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// prefixEnd returns the smallest key greater than every key carrying prefix.
// ok is false when no such key exists (empty or all 0xff prefix).
func prefixEnd(prefix []byte) ([]byte, bool) {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1], true
		}
	}
	return nil, false
}

// nonNil avoids binding a nil slice, which the driver sends as NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
