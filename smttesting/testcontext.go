package smttesting

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-sparsemerkle/kv/memkv"
	"github.com/forestrie/go-sparsemerkle/smt"
)

type TestContext struct {
	Log   logger.Logger
	Store *memkv.Store
	T     *testing.T
}

type TestConfig struct {
	TestLabelPrefix string
	// LogLevel defaults to NOOP so test output is not flooded with per
	// insert debug lines.
	LogLevel string
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	level := cfg.LogLevel
	if level == "" {
		level = "NOOP"
	}
	logger.New(level)

	return TestContext{
		Log:   logger.Sugar.WithServiceName(cfg.TestLabelPrefix),
		Store: memkv.New(),
		T:     t,
	}
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// NumberedLeaf returns sha256(base+i) with the value encoded big endian, a
// convenient distinct 32 byte leaf per index.
func NumberedLeaf(base, i uint64) []byte {
	h := sha256.New()
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], base+i)
	h.Write(b[:])
	return h.Sum(nil)
}

// NumberedLeaves returns NumberedLeaf(base, i) for i in [0, n).
func NumberedLeaves(base, n uint64) [][]byte {
	leaves := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		leaves = append(leaves, NumberedLeaf(base, i))
	}
	return leaves
}

// FullTreeRoot computes, the slow way, the root of a complete binary tree of
// 2^depth leaves: the given leaves followed by defaultLeaf padding. It
// materializes every level, so keep depth small.
func FullTreeRoot[L any](hasher smt.Hasher[L], depth uint8, defaultLeaf L, leaves []L) (L, error) {
	width := 1 << depth
	level := make([]L, width)
	for i := range level {
		if i < len(leaves) {
			level[i] = leaves[i]
		} else {
			level[i] = defaultLeaf
		}
	}
	for len(level) > 1 {
		next := make([]L, len(level)/2)
		for i := range next {
			h, err := hasher.HashTwo(level[2*i], level[2*i+1])
			if err != nil {
				var zero L
				return zero, err
			}
			next[i] = h
		}
		level = next
	}
	return level[0], nil
}

// MustDecodeHex decodes s or fails the test.
func MustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}
