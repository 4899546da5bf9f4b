package smt

import "bytes"

// RootPolicy decides which roots a tree currently accepts. The Tree calls
// Record once per successful insert, after the new root has been persisted.
// Roots are handled in their encoded form.
type RootPolicy interface {
	Record(store Store, layout Layout, root []byte) error
	IsValidRoot(store Store, layout Layout, candidate []byte) (bool, error)
}

// Pruner is implemented by policies that keep history needing occasional
// maintenance.
type Pruner interface {
	Prune(store Store, layout Layout) error
}

// Validator is implemented by policies whose configuration can be invalid.
// The Tree checks it before an insert writes anything.
type Validator interface {
	Validate() error
}

func validatePolicy(policy RootPolicy) error {
	if v, ok := policy.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// LatestOnly accepts only the root produced by the most recent insert. A
// tree with no inserts accepts nothing.
type LatestOnly struct{}

func (LatestOnly) Record(Store, Layout, []byte) error { return nil }

func (LatestOnly) IsValidRoot(store Store, layout Layout, candidate []byte) (bool, error) {
	root, ok, err := loadBytes(store, layout.Root)
	if err != nil || !ok {
		return false, err
	}
	return bytes.Equal(root, candidate), nil
}

// presenceMarker is the value stored against every root in an unbounded
// history.
var presenceMarker = []byte{1}

// RootHistory accepts every root the tree has ever produced. The set only
// grows.
type RootHistory struct{}

func (RootHistory) Record(store Store, layout Layout, root []byte) error {
	return saveBytes(store, layout.RootSetKey(root), presenceMarker)
}

func (RootHistory) IsValidRoot(store Store, layout Layout, candidate []byte) (bool, error) {
	_, ok, err := loadBytes(store, layout.RootSetKey(candidate))
	return ok, err
}
