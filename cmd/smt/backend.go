package main

import (
	"context"
	"fmt"

	"github.com/forestrie/go-sparsemerkle/kv/levelkv"
	"github.com/forestrie/go-sparsemerkle/kv/sqlitekv"
	"github.com/forestrie/go-sparsemerkle/smt"
)

// backend is a Store that can also apply a group of writes atomically.
type backend interface {
	smt.Store
	Update(fn func(store smt.Store) error) error
	Close() error
}

type levelBackend struct {
	*levelkv.Store
}

func (b levelBackend) Update(fn func(store smt.Store) error) error {
	return b.Store.Update(func(tx *levelkv.Txn) error { return fn(tx) })
}

type sqliteBackend struct {
	*sqlitekv.Store
}

func (b sqliteBackend) Update(fn func(store smt.Store) error) error {
	return b.Store.Update(context.Background(), func(tx *sqlitekv.Txn) error { return fn(tx) })
}

func openBackend(kind, path string) (backend, error) {
	switch kind {
	case "leveldb":
		s, err := levelkv.Open(path, nil)
		if err != nil {
			return nil, err
		}
		return levelBackend{s}, nil
	case "sqlite":
		s, err := sqlitekv.Open(path)
		if err != nil {
			return nil, err
		}
		return sqliteBackend{s}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}
