package hashers

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// DigestBytes is the width of every value produced by the combiners here.
const DigestBytes = 32

var ErrBadValueSize = errors.New("hashers: value has the wrong size")

// Blake2 combines byte values of any length.
type Blake2 struct{}

func (Blake2) HashTwo(left, right []byte) ([]byte, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return nil, err
	}
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)[:DigestBytes], nil
}

// Blake2Uint256 is Blake2 over the 32 byte big endian form of each value.
type Blake2Uint256 struct{}

func (Blake2Uint256) HashTwo(left, right uint256.Int) (uint256.Int, error) {
	l := left.Bytes32()
	r := right.Bytes32()

	var buf [2 * DigestBytes]byte
	copy(buf[:DigestBytes], l[:])
	copy(buf[DigestBytes:], r[:])
	sum := blake2b.Sum512(buf[:])

	var out uint256.Int
	out.SetBytes(sum[:DigestBytes])
	return out, nil
}

// Digest combines fixed size byte values with any hash.Hash constructor. When
// Size is non zero, inputs of any other length are rejected with
// ErrBadValueSize.
type Digest struct {
	New  func() hash.Hash
	Size int
}

// NewSHA256 returns a Digest requiring 32 byte inputs.
func NewSHA256() Digest {
	return Digest{New: sha256.New, Size: DigestBytes}
}

// NewKeccak256 returns the legacy (pre NIST) Keccak-256 combiner used by
// Ethereum, requiring 32 byte inputs.
func NewKeccak256() Digest {
	return Digest{New: sha3.NewLegacyKeccak256, Size: DigestBytes}
}

func (d Digest) HashTwo(left, right []byte) ([]byte, error) {
	if d.Size != 0 && (len(left) != d.Size || len(right) != d.Size) {
		return nil, fmt.Errorf("%w: got %d and %d bytes, want %d", ErrBadValueSize, len(left), len(right), d.Size)
	}
	h := d.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil), nil
}
