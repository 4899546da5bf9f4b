package smt

// ZeroHashes returns the zero hash cache for a tree of the given depth.
//
//	zeros[0] = defaultLeaf
//	zeros[i] = H(zeros[i-1], zeros[i-1])
//
// zeros[i] is the root of a subtree of height i in which every leaf is the
// default leaf. The cache has exactly depth entries, one per level a leaf path
// crosses on its way to the root.
func ZeroHashes[L any](hasher Hasher[L], depth uint8, defaultLeaf L) ([]L, error) {
	if depth == 0 || depth > MaxDepth {
		return nil, ErrInvalidDepth
	}
	zeros := make([]L, depth)
	zeros[0] = defaultLeaf
	for i := 1; i < int(depth); i++ {
		z, err := hasher.HashTwo(zeros[i-1], zeros[i-1])
		if err != nil {
			return nil, hasherErr(err)
		}
		zeros[i] = z
	}
	return zeros, nil
}

// Capacity returns the maximum number of leaves a tree of depth can hold. ok
// is false for depth 64, whose capacity (2^64) does not fit a uint64; every
// uint64 index is then in range.
func Capacity(depth uint8) (capacity uint64, ok bool) {
	if depth >= 64 {
		return 0, false
	}
	return uint64(1) << depth, true
}

// ExceedsCapacity reports whether index is beyond the last leaf slot of a
// tree of the given depth.
func ExceedsCapacity(depth uint8, index uint64) bool {
	capacity, ok := Capacity(depth)
	return ok && index >= capacity
}
