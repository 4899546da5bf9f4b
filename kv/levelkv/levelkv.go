// Package levelkv implements smt.Store on goleveldb.
package levelkv

import (
	"bytes"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// readWriter is the method set shared by *leveldb.DB and
// *leveldb.Transaction.
type readWriter interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Put(key, value []byte, wo *opt.WriteOptions) error
	Delete(key []byte, wo *opt.WriteOptions) error
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type ops struct {
	rw readWriter
}

func (o ops) Get(key []byte) ([]byte, bool, error) {
	v, err := o.rw.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (o ops) Put(key, value []byte) error { return o.rw.Put(key, value, nil) }
func (o ops) Delete(key []byte) error     { return o.rw.Delete(key, nil) }

func (o ops) Last(prefix []byte) ([]byte, bool, error) {
	it := o.rw.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	if !it.Last() {
		return nil, false, it.Error()
	}
	return bytes.Clone(it.Key()), true, it.Error()
}

func (o ops) Range(prefix, start []byte, fn func(key, value []byte) error) error {
	r := util.BytesPrefix(prefix)
	if bytes.Compare(start, r.Start) > 0 {
		r.Start = start
	}
	it := o.rw.NewIterator(r, nil)
	defer it.Release()

	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

// Store is an smt.Store over a leveldb database.
type Store struct {
	ops
	db *leveldb.DB
}

// Open opens, creating if needed, the database at path.
func Open(path string, o *opt.Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, o)
	if err != nil {
		return nil, err
	}
	return &Store{ops: ops{rw: db}, db: db}, nil
}

// OpenMem opens a database held entirely in memory.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{ops: ops{rw: db}, db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Txn is an smt.Store whose writes become visible only when the enclosing
// Update commits.
type Txn struct {
	ops
}

// Update runs fn in a leveldb transaction. The transaction is committed if fn
// returns nil and discarded otherwise, so a failed tree insert leaves no
// partial state behind.
func (s *Store) Update(fn func(tx *Txn) error) error {
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return err
	}
	if err = fn(&Txn{ops: ops{rw: tr}}); err != nil {
		tr.Discard()
		return err
	}
	return tr.Commit()
}
