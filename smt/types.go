package smt

import "bytes"

// MaxDepth is the deepest tree supported. Leaf indices are uint64 so a depth
// 64 tree already covers the whole index space.
const MaxDepth = 64

// Hasher combines two tree values into their parent. Implementations must be
// deterministic and free of side effects. An error is returned only for
// malformed input.
type Hasher[L any] interface {
	HashTwo(left, right L) (L, error)
}

// HasherFunc adapts a plain function to the Hasher interface.
type HasherFunc[L any] func(left, right L) (L, error)

func (f HasherFunc[L]) HashTwo(left, right L) (L, error) { return f(left, right) }

// LeafCodec serializes leaf values for storage. Encodings must be
// deterministic: two leaves are considered equal exactly when their encodings
// are equal.
type LeafCodec[L any] interface {
	Encode(leaf L) ([]byte, error)
	Decode(data []byte) (L, error)
}

// BytesCodec is the identity codec for byte slice leaves.
type BytesCodec struct{}

func (BytesCodec) Encode(leaf []byte) ([]byte, error) {
	return bytes.Clone(leaf), nil
}

func (BytesCodec) Decode(data []byte) ([]byte, error) {
	return bytes.Clone(data), nil
}

// Store is the key value primitive the tree is persisted in.
//
// Keys are compared as raw bytes. Writes are treated as atomic individually;
// nothing in this package groups them. Hosts that need an insert to be all or
// nothing should pass a transactional Store.
type Store interface {
	// Get returns the value for key. ok is false if the key is absent.
	Get(key []byte) (value []byte, ok bool, err error)
	Put(key, value []byte) error
	Delete(key []byte) error

	// Last returns the greatest key carrying prefix.
	Last(prefix []byte) (key []byte, ok bool, err error)

	// Range calls fn, in ascending key order, for every key carrying prefix
	// that is >= start. Implementations must tolerate fn being called with
	// slices that are only valid for the duration of the call.
	Range(prefix, start []byte, fn func(key, value []byte) error) error
}
