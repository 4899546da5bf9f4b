// Package leafcodec provides smt.LeafCodec implementations for leaf types
// other than raw bytes.
package leafcodec

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

const Uint256Bytes = 32

var ErrBadEncodingSize = errors.New("leafcodec: encoded value has the wrong size")

// Uint256 encodes 256 bit integers as 32 bytes, big endian.
type Uint256 struct{}

func (Uint256) Encode(leaf uint256.Int) ([]byte, error) {
	b := leaf.Bytes32()
	return b[:], nil
}

func (Uint256) Decode(data []byte) (uint256.Int, error) {
	var v uint256.Int
	if len(data) != Uint256Bytes {
		return v, fmt.Errorf("%w: got %d bytes, want %d", ErrBadEncodingSize, len(data), Uint256Bytes)
	}
	v.SetBytes(data)
	return v, nil
}
