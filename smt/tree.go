package smt

import (
	"github.com/datatrails/go-datatrails-common/logger"
)

// Tree is an append only, fixed depth merkle tree persisted in a Store.
//
// Only the zero hash cache, a frontier of one hash per level, the leaves and
// the latest root are kept; interior nodes are never stored. The Tree itself
// holds no tree state, everything is read from and written to the Store
// passed to each call, so a Tree value may be shared freely. Mutating calls
// against the same Store must be serialized by the caller.
type Tree[L any] struct {
	log   logger.Logger
	codec LeafCodec[L]
	opts  TreeOptions
}

func NewTree[L any](log logger.Logger, codec LeafCodec[L], opts ...Option) *Tree[L] {
	return &Tree[L]{
		log:   log,
		codec: codec,
		opts:  NewTreeOptions(opts...),
	}
}

func (t *Tree[L]) Layout() Layout      { return t.opts.Layout }
func (t *Tree[L]) Policy() RootPolicy  { return t.opts.Policy }
func (t *Tree[L]) Codec() LeafCodec[L] { return t.codec }

// Init sets the depth and default leaf of the tree. It may be called once per
// tree; a second call fails with ErrAlreadyInitialized and changes nothing.
//
// All hashing happens before the first write, and the depth is written last,
// so a hasher failure leaves the store untouched and a storage failure leaves
// the tree uninitialized.
func (t *Tree[L]) Init(store Store, depth uint8, defaultLeaf L, hasher Hasher[L]) error {
	_, ok, err := loadUint8(store, t.opts.Layout.Depth)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}

	zeros, err := ZeroHashes(hasher, depth, defaultLeaf)
	if err != nil {
		return err
	}

	for level, z := range zeros {
		value, err := t.codec.Encode(z)
		if err != nil {
			return err
		}
		if err = saveBytes(store, t.opts.Layout.ZeroKey(uint8(level)), value); err != nil {
			return err
		}
		if err = saveBytes(store, t.opts.Layout.FrontierKey(uint8(level)), value); err != nil {
			return err
		}
	}
	if err = saveUint64(store, t.opts.Layout.Count, 0); err != nil {
		return err
	}
	if err = saveBytes(store, t.opts.Layout.Depth, []byte{depth}); err != nil {
		return err
	}

	t.log.Infof("init: depth=%d", depth)
	return nil
}

// Depth returns the depth set by Init.
func (t *Tree[L]) Depth(store Store) (uint8, error) {
	depth, ok, err := loadUint8(store, t.opts.Layout.Depth)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotInitialized
	}
	return depth, nil
}

// Size returns the number of leaves inserted so far, which is also the index
// the next leaf will take.
func (t *Tree[L]) Size(store Store) (uint64, error) {
	if _, err := t.Depth(store); err != nil {
		return 0, err
	}
	return t.nextIndex(store)
}

func (t *Tree[L]) nextIndex(store Store) (uint64, error) {
	if !t.opts.LeafIndexScan {
		count, ok, err := loadUint64(store, t.opts.Layout.Count)
		if err != nil {
			return 0, err
		}
		if ok {
			return count, nil
		}
	}

	key, ok, err := store.Last(t.opts.Layout.Leaves)
	if err != nil {
		return 0, storageErr("last", t.opts.Layout.Leaves, err)
	}
	if !ok {
		return 0, nil
	}
	index, ok := t.opts.Layout.LeafIndex(key)
	if !ok {
		return 0, ErrCorruptState
	}
	return index + 1, nil
}

// Insert places leaf at the next free index and returns that index and the
// new root. Identical leaves are ordinary, distinct inserts.
//
// ErrCapacityExceeded is returned, with nothing written, once the tree holds
// 2^depth leaves. A root policy that fails validation is likewise reported
// before anything is written. A storage failure part way through may leave the leaf
// written without the frontier or root; wrap the call in a store transaction
// if that matters.
func (t *Tree[L]) Insert(store Store, hasher Hasher[L], leaf L) (uint64, L, error) {
	var zero L
	layout := t.opts.Layout

	depth, err := t.Depth(store)
	if err != nil {
		return 0, zero, err
	}
	index, err := t.nextIndex(store)
	if err != nil {
		return 0, zero, err
	}
	if ExceedsCapacity(depth, index) {
		return 0, zero, ErrCapacityExceeded
	}
	if err = validatePolicy(t.opts.Policy); err != nil {
		return 0, zero, err
	}

	value, err := t.codec.Encode(leaf)
	if err != nil {
		return 0, zero, err
	}
	if err = saveBytes(store, layout.LeafKey(index), value); err != nil {
		return 0, zero, err
	}

	levels := &storeLevels[L]{store: store, layout: layout, codec: t.codec}
	root, err := AddLeaf[L](levels, hasher, depth, index, leaf)
	if err != nil {
		return 0, zero, err
	}

	encRoot, err := t.codec.Encode(root)
	if err != nil {
		return 0, zero, err
	}
	if err = saveBytes(store, layout.Root, encRoot); err != nil {
		return 0, zero, err
	}
	if err = saveUint64(store, layout.Count, index+1); err != nil {
		return 0, zero, err
	}
	if err = t.opts.Policy.Record(store, layout, encRoot); err != nil {
		return 0, zero, err
	}

	t.log.Debugf("insert: index=%d, root=%x", index, encRoot)
	return index, root, nil
}

// LatestRoot returns the root after the most recent insert. Before any insert
// it returns the last entry of the zero hash cache.
func (t *Tree[L]) LatestRoot(store Store) (L, error) {
	var zero L

	depth, err := t.Depth(store)
	if err != nil {
		return zero, err
	}
	value, ok, err := loadBytes(store, t.opts.Layout.Root)
	if err != nil {
		return zero, err
	}
	if !ok {
		if value, err = mustLoadBytes(store, t.opts.Layout.ZeroKey(depth-1)); err != nil {
			return zero, err
		}
	}
	return t.codec.Decode(value)
}

// IsValidRoot reports whether candidate is acceptable under the tree's root
// policy.
func (t *Tree[L]) IsValidRoot(store Store, candidate L) (bool, error) {
	if _, err := t.Depth(store); err != nil {
		return false, err
	}
	value, err := t.codec.Encode(candidate)
	if err != nil {
		return false, err
	}
	return t.opts.Policy.IsValidRoot(store, t.opts.Layout, value)
}

// Leaf returns the leaf stored at index.
func (t *Tree[L]) Leaf(store Store, index uint64) (L, error) {
	var zero L
	value, ok, err := loadBytes(store, t.opts.Layout.LeafKey(index))
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrLeafNotFound
	}
	return t.codec.Decode(value)
}

// PruneHistory runs the root policy's maintenance, if it has any.
func (t *Tree[L]) PruneHistory(store Store) error {
	pruner, ok := t.opts.Policy.(Pruner)
	if !ok {
		return nil
	}
	if err := pruner.Prune(store, t.opts.Layout); err != nil {
		return err
	}
	t.log.Infof("prune: root history pruned")
	return nil
}

// storeLevels reads zero hashes and frontier entries straight from the store,
// one level at a time, so an insert touches only the levels on its path.
type storeLevels[L any] struct {
	store  Store
	layout Layout
	codec  LeafCodec[L]
}

func (s *storeLevels[L]) load(key []byte) (L, error) {
	var zero L
	value, err := mustLoadBytes(s.store, key)
	if err != nil {
		return zero, err
	}
	return s.codec.Decode(value)
}

func (s *storeLevels[L]) Zero(level uint8) (L, error) { return s.load(s.layout.ZeroKey(level)) }
func (s *storeLevels[L]) Left(level uint8) (L, error) { return s.load(s.layout.FrontierKey(level)) }

func (s *storeLevels[L]) SetLeft(level uint8, value L) error {
	enc, err := s.codec.Encode(value)
	if err != nil {
		return err
	}
	return saveBytes(s.store, s.layout.FrontierKey(level), enc)
}
