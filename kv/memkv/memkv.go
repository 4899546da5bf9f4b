// Package memkv is an in memory, ordered implementation of smt.Store.
//
// It is intended for tests and for hosts that keep the tree in memory. It is
// not safe for concurrent use.
package memkv

import (
	"bytes"
	"sort"
)

type Store struct {
	items map[string][]byte
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Get(key []byte) ([]byte, bool, error) {
	v, ok := s.items[string(key)]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (s *Store) Put(key, value []byte) error {
	s.items[string(key)] = bytes.Clone(value)
	return nil
}

func (s *Store) Delete(key []byte) error {
	delete(s.items, string(key))
	return nil
}

func (s *Store) Last(prefix []byte) ([]byte, bool, error) {
	keys := s.sortedKeys(prefix, nil)
	if len(keys) == 0 {
		return nil, false, nil
	}
	return []byte(keys[len(keys)-1]), true, nil
}

func (s *Store) Range(prefix, start []byte, fn func(key, value []byte) error) error {
	for _, k := range s.sortedKeys(prefix, start) {
		v, ok := s.items[k]
		if !ok {
			// removed by fn during the scan
			continue
		}
		if err := fn([]byte(k), bytes.Clone(v)); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns a deep copy of the store contents.
func (s *Store) Snapshot() map[string][]byte {
	out := make(map[string][]byte, len(s.items))
	for k, v := range s.items {
		out[k] = bytes.Clone(v)
	}
	return out
}

func (s *Store) sortedKeys(prefix, start []byte) []string {
	var keys []string
	for k := range s.items {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if start != nil && k < string(start) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
