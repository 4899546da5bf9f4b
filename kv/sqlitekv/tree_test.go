package sqlitekv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/forestrie/go-sparsemerkle/hashers"
	"github.com/forestrie/go-sparsemerkle/kv/sqlitekv"
	"github.com/forestrie/go-sparsemerkle/smt"
	"github.com/forestrie/go-sparsemerkle/smttesting"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreesOverSQLite(t *testing.T) {
	tc := smttesting.NewTestContext(t, smttesting.TestConfig{TestLabelPrefix: "TestTreesOverSQLite"})
	h := hashers.NewKeccak256()
	ctx := context.Background()
	defaultLeaf := make([]byte, 32)

	path := filepath.Join(t.TempDir(), "smt.db")
	db, err := sqlitekv.Open(path)
	require.NoError(t, err)

	idA, idB := uuid.New(), uuid.New()
	treeA := smt.NewTree[[]byte](tc.Log, smt.BytesCodec{},
		smt.WithLayout(smt.LayoutForTree(idA)), smt.WithLeafIndexScan())
	treeB := smt.NewTree[[]byte](tc.Log, smt.BytesCodec{},
		smt.WithLayout(smt.LayoutForTree(idB)), smt.WithRootPolicy(smt.RootHistory{}))

	require.NoError(t, treeA.Init(db, 4, defaultLeaf, h))
	require.NoError(t, treeB.Init(db, 4, defaultLeaf, h))

	leavesA := smttesting.NumberedLeaves(0, 5)
	leavesB := smttesting.NumberedLeaves(100, 3)
	err = db.Update(ctx, func(tx *sqlitekv.Txn) error {
		for _, leaf := range leavesA {
			if _, _, err := treeA.Insert(tx, h, leaf); err != nil {
				return err
			}
		}
		for _, leaf := range leavesB {
			if _, _, err := treeB.Insert(tx, h, leaf); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = sqlitekv.Open(path)
	require.NoError(t, err)
	defer db.Close()

	for _, c := range []struct {
		tree   *smt.Tree[[]byte]
		leaves [][]byte
	}{{treeA, leavesA}, {treeB, leavesB}} {
		want, err := smttesting.FullTreeRoot[[]byte](h, 4, defaultLeaf, c.leaves)
		require.NoError(t, err)
		got, err := c.tree.LatestRoot(db)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		size, err := c.tree.Size(db)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(c.leaves)), size)

		leaf, err := c.tree.Leaf(db, 0)
		require.NoError(t, err)
		assert.Equal(t, c.leaves[0], leaf)
	}

	// Every tree key carries its tree id.
	var keys int
	err = db.Range([]byte(smt.TreePrefix), []byte(smt.TreePrefix), func(key, _ []byte) error {
		id, ok := smt.ParseTreeID(key)
		require.True(t, ok)
		assert.Contains(t, []uuid.UUID{idA, idB}, id)
		keys++
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, keys)
}
