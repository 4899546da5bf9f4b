package smt_test

import (
	"bytes"
	"testing"

	"github.com/forestrie/go-sparsemerkle/hashers"
	"github.com/forestrie/go-sparsemerkle/smt"
	"github.com/forestrie/go-sparsemerkle/smttesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertN(t *testing.T, tree *smt.Tree[[]byte], store smt.Store, n int) [][]byte {
	t.Helper()
	h := hashers.Blake2{}
	var roots [][]byte
	for i := 0; i < n; i++ {
		// The same leaf every time: each insert still produces its own root.
		_, root, err := tree.Insert(store, h, smttesting.NumberedLeaf(0, 1))
		require.NoError(t, err)
		roots = append(roots, root)
	}
	return roots
}

func validity(t *testing.T, tree *smt.Tree[[]byte], store smt.Store, roots [][]byte) []bool {
	t.Helper()
	got := make([]bool, len(roots))
	for i, r := range roots {
		ok, err := tree.IsValidRoot(store, r)
		require.NoError(t, err)
		got[i] = ok
	}
	return got
}

func TestLatestOnlyPolicy(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestLatestOnlyPolicy"})
	tree := newBytesTree(tc, smt.WithRootPolicy(smt.LatestOnly{}))
	require.NoError(t, tree.Init(tc.Store, 20, make([]byte, 32), hashers.Blake2{}))

	empty, err := tree.LatestRoot(tc.Store)
	require.NoError(t, err)
	ok, err := tree.IsValidRoot(tc.Store, empty)
	require.NoError(t, err)
	assert.False(t, ok, "nothing is valid before the first insert")

	roots := insertN(t, tree, tc.Store, 3)
	assert.Equal(t, []bool{false, false, true}, validity(t, tree, tc.Store, roots))
}

func TestRootHistoryPolicy(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestRootHistoryPolicy"})
	tree := newBytesTree(tc, smt.WithRootPolicy(smt.RootHistory{}))
	require.NoError(t, tree.Init(tc.Store, 20, make([]byte, 32), hashers.Blake2{}))

	roots := insertN(t, tree, tc.Store, 50)
	for i, ok := range validity(t, tree, tc.Store, roots) {
		assert.True(t, ok, "root %d", i)
	}

	ok, err := tree.IsValidRoot(tc.Store, make([]byte, 32))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoundedRootHistoryPolicy(t *testing.T) {
	tests := []struct {
		name     string
		capacity uint32
		inserts  int
	}{
		{"capacity 5, six inserts", 5, 6},
		{"capacity 1", 1, 4},
		{"capacity 3, wraps several times", 3, 11},
		{"under capacity", 8, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestBoundedRootHistoryPolicy"})
			tree := newBytesTree(tc, smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: tt.capacity}))
			require.NoError(t, tree.Init(tc.Store, 20, make([]byte, 32), hashers.Blake2{}))

			roots := insertN(t, tree, tc.Store, tt.inserts)
			got := validity(t, tree, tc.Store, roots)
			for i, ok := range got {
				want := i >= tt.inserts-int(tt.capacity)
				assert.Equal(t, want, ok, "root %d", i)
			}
		})
	}
}

func TestBoundedRootHistoryEvictsInInsertOrder(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestBoundedRootHistoryEvicts"})
	tree := newBytesTree(tc, smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: 3}))
	require.NoError(t, tree.Init(tc.Store, 20, make([]byte, 32), hashers.Blake2{}))

	var roots [][]byte
	for i := 0; i < 6; i++ {
		roots = append(roots, insertN(t, tree, tc.Store, 1)...)
		if i >= 3 {
			// exactly the oldest root went away
			assert.Equal(t,
				[]bool{false, true, true, true},
				validity(t, tree, tc.Store, roots[i-3:i+1]))
		}
	}
}

func TestBoundedRootHistoryPrune(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestBoundedRootHistoryPrune"})
	layout := smt.NewLayout("")

	wide := newBytesTree(tc, smt.WithLayout(layout), smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: 6}))
	require.NoError(t, wide.Init(tc.Store, 20, make([]byte, 32), hashers.Blake2{}))
	roots := insertN(t, wide, tc.Store, 5) // slots 1..5, cursor 5

	narrow := newBytesTree(tc, smt.WithLayout(layout), smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: 3}))
	require.NoError(t, narrow.PruneHistory(tc.Store))

	// slots 3, 4 and 5 are gone, slots 1 and 2 survive
	assert.Equal(t, []bool{true, true, false, false, false}, validity(t, narrow, tc.Store, roots))
	for slot := uint32(3); slot < 6; slot++ {
		_, ok, err := tc.Store.Get(layout.SlotKey(slot))
		require.NoError(t, err)
		assert.False(t, ok, "slot %d", slot)
	}

	// idempotent
	before := tc.Store.Snapshot()
	require.NoError(t, narrow.PruneHistory(tc.Store))
	assert.Equal(t, before, tc.Store.Snapshot())

	// cursor was 5, now 5 % 3 = 2, so the next root lands in slot 0
	more := insertN(t, narrow, tc.Store, 1)
	v, ok, err := tc.Store.Get(layout.SlotKey(0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, more[0], v)
}

func TestPruneHistoryWithoutPrunerIsNoop(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestPruneNoop"})
	tree := newBytesTree(tc, smt.WithRootPolicy(smt.RootHistory{}))
	require.NoError(t, tree.Init(tc.Store, 4, make([]byte, 32), hashers.Blake2{}))
	insertN(t, tree, tc.Store, 3)

	before := tc.Store.Snapshot()
	require.NoError(t, tree.PruneHistory(tc.Store))
	assert.Equal(t, before, tc.Store.Snapshot())
}

func TestBoundedRootHistoryZeroCapacity(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestBoundedZeroCapacity"})
	tree := newBytesTree(tc, smt.WithRootPolicy(smt.BoundedRootHistory{}))
	require.NoError(t, tree.Init(tc.Store, 4, make([]byte, 32), hashers.Blake2{}))

	before := tc.Store.Snapshot()
	_, _, err := tree.Insert(tc.Store, hashers.Blake2{}, smttesting.NumberedLeaf(0, 0))
	require.ErrorIs(t, err, smt.ErrInvalidCapacity)
	assert.Equal(t, before, tc.Store.Snapshot())

	size, err := tree.Size(tc.Store)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), size)

	require.ErrorIs(t, tree.PruneHistory(tc.Store), smt.ErrInvalidCapacity)
	assert.Equal(t, before, tc.Store.Snapshot())
}

// slotsHold reports whether any slot below capacity holds root.
func slotsHold(t *testing.T, store smt.Store, layout smt.Layout, capacity uint32, root []byte) bool {
	t.Helper()
	for slot := uint32(0); slot < capacity; slot++ {
		v, ok, err := store.Get(layout.SlotKey(slot))
		require.NoError(t, err)
		if ok && bytes.Equal(v, root) {
			return true
		}
	}
	return false
}

func TestBoundedRootHistoryRepeatedRoot(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestBoundedRepeatedRoot"})
	h := hashers.Blake2{}
	defaultLeaf := make([]byte, 32)
	layout := smt.NewLayout("")
	tree := newBytesTree(tc, smt.WithLayout(layout), smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: 2}))
	require.NoError(t, tree.Init(tc.Store, 4, defaultLeaf, h))

	var roots [][]byte
	for _, leaf := range [][]byte{
		smttesting.NumberedLeaf(0, 0),
		defaultLeaf, // leaves the root unchanged
		smttesting.NumberedLeaf(0, 2),
		smttesting.NumberedLeaf(0, 3),
	} {
		_, root, err := tree.Insert(tc.Store, h, leaf)
		require.NoError(t, err)
		roots = append(roots, root)

		// Membership always agrees with the slot contents.
		for i, r := range roots {
			ok, err := tree.IsValidRoot(tc.Store, r)
			require.NoError(t, err)
			assert.Equal(t, slotsHold(t, tc.Store, layout, 2, r), ok, "after %d inserts, root %d", len(roots), i)
		}
	}
	require.Equal(t, roots[0], roots[1])

	// After the third insert the repeated root still sits in one slot.
	// The fourth insert overwrote that slot.
	assert.Equal(t, []bool{false, false, true, true}, validity(t, tree, tc.Store, roots))
}

func TestBoundedRootHistoryRepeatedRootAfterThirdInsert(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestBoundedRepeatedRootThird"})
	h := hashers.Blake2{}
	defaultLeaf := make([]byte, 32)
	tree := newBytesTree(tc, smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: 2}))
	require.NoError(t, tree.Init(tc.Store, 4, defaultLeaf, h))

	var roots [][]byte
	for _, leaf := range [][]byte{smttesting.NumberedLeaf(0, 0), defaultLeaf, smttesting.NumberedLeaf(0, 2)} {
		_, root, err := tree.Insert(tc.Store, h, leaf)
		require.NoError(t, err)
		roots = append(roots, root)
	}
	// The last two inserts produced roots[1] and roots[2].
	assert.Equal(t, []bool{true, true, true}, validity(t, tree, tc.Store, roots))
}

func TestBoundedRootHistoryPruneRepeatedRoot(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestBoundedPruneRepeatedRoot"})
	h := hashers.Blake2{}
	defaultLeaf := make([]byte, 32)
	layout := smt.NewLayout("")
	wide := newBytesTree(tc, smt.WithLayout(layout), smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: 4}))
	require.NoError(t, wide.Init(tc.Store, 4, defaultLeaf, h))

	// slot 1 holds r, slots 2 and 3 hold the same root again.
	_, r, err := wide.Insert(tc.Store, h, smttesting.NumberedLeaf(0, 0))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, again, err := wide.Insert(tc.Store, h, defaultLeaf)
		require.NoError(t, err)
		require.Equal(t, r, again)
	}

	narrow := newBytesTree(tc, smt.WithLayout(layout), smt.WithRootPolicy(smt.BoundedRootHistory{Capacity: 2}))
	require.NoError(t, narrow.PruneHistory(tc.Store))

	ok, err := narrow.IsValidRoot(tc.Store, r)
	require.NoError(t, err)
	assert.True(t, ok, "slot 1 still holds the root")
	assert.True(t, slotsHold(t, tc.Store, layout, 2, r))
}
