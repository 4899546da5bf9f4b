package smt

// LevelStore gives AddLeaf access to the two per level sequences it needs:
// the immutable zero hash cache and the mutable frontier of left siblings.
// Levels are numbered from 0 at the leaves.
type LevelStore[L any] interface {
	Zero(level uint8) (L, error)
	Left(level uint8) (L, error)
	SetLeft(level uint8, value L) error
}

// AddLeaf folds leaf, placed at index, into the frontier and returns the new
// root.
//
// Leaves fill strictly left to right, so at each level the node on the path
// is either a left child whose right sibling is still empty (its hash is the
// zero hash for the level), or a right child whose left sibling is complete
// and was recorded in the frontier when that sibling was itself on a path.
// Only left child events write to the frontier. The cost is depth hash
// operations and at most depth frontier writes.
//
// The caller is responsible for the capacity check; index must be < 2^depth.
func AddLeaf[L any](levels LevelStore[L], hasher Hasher[L], depth uint8, index uint64, leaf L) (L, error) {
	var err error
	var sibling L

	cur := leaf
	idx := index

	for level := uint8(0); level < depth; level++ {
		var left, right L
		if idx%2 == 0 {
			if err = levels.SetLeft(level, cur); err != nil {
				return cur, err
			}
			if sibling, err = levels.Zero(level); err != nil {
				return cur, err
			}
			left, right = cur, sibling
		} else {
			if sibling, err = levels.Left(level); err != nil {
				return cur, err
			}
			left, right = sibling, cur
		}

		if cur, err = hasher.HashTwo(left, right); err != nil {
			return cur, hasherErr(err)
		}
		idx >>= 1
	}
	return cur, nil
}

// Frontier is an in memory LevelStore. It is sufficient on its own to extend
// a tree and track its root without any backing Store.
type Frontier[L any] struct {
	Zeros []L
	Lefts []L
	Count uint64
}

// NewFrontier returns the frontier of an empty tree.
func NewFrontier[L any](hasher Hasher[L], depth uint8, defaultLeaf L) (*Frontier[L], error) {
	zeros, err := ZeroHashes(hasher, depth, defaultLeaf)
	if err != nil {
		return nil, err
	}
	lefts := make([]L, len(zeros))
	copy(lefts, zeros)
	return &Frontier[L]{Zeros: zeros, Lefts: lefts}, nil
}

func (f *Frontier[L]) Depth() uint8 { return uint8(len(f.Zeros)) }

func (f *Frontier[L]) Zero(level uint8) (L, error) { return f.Zeros[level], nil }
func (f *Frontier[L]) Left(level uint8) (L, error) { return f.Lefts[level], nil }
func (f *Frontier[L]) SetLeft(level uint8, value L) error {
	f.Lefts[level] = value
	return nil
}

// Add appends leaf and returns its index and the new root.
func (f *Frontier[L]) Add(hasher Hasher[L], leaf L) (uint64, L, error) {
	index := f.Count
	if ExceedsCapacity(f.Depth(), index) {
		var zero L
		return 0, zero, ErrCapacityExceeded
	}
	root, err := AddLeaf[L](f, hasher, f.Depth(), index, leaf)
	if err != nil {
		return 0, root, err
	}
	f.Count++
	return index, root, nil
}

// EmptyRoot is the root reported for a tree with no leaves: the last entry
// of the zero hash cache.
func (f *Frontier[L]) EmptyRoot() L { return f.Zeros[len(f.Zeros)-1] }
