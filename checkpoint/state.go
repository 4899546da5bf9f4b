// Package checkpoint produces and verifies COSE Sign1 signed commitments to a
// tree's latest root.
//
// The root is detached from the published message. A verifier decodes the
// message, obtains the root from its own copy of the tree and puts it back
// before checking the signature, so a checkpoint can only be verified by
// someone holding the tree.
package checkpoint

import (
	"time"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/forestrie/go-sparsemerkle/smt"
)

// State is the signed commitment to the tree at a particular size.
type State struct {
	// Size is the number of leaves inserted when the root was read.
	Size  uint64 `cbor:"1,keyasint"`
	Depth uint8  `cbor:"2,keyasint"`
	// Root is the encoded root. It is nil in published checkpoints.
	Root []byte `cbor:"3,keyasint"`
	// Timestamp is the unix time in milliseconds at which the state was read.
	// It allows the same root to be signed again.
	Timestamp int64 `cbor:"4,keyasint"`
}

// NewCodec returns the deterministic codec used for State payloads.
func NewCodec() (dtcbor.CBORCodec, error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(),
	)
	if err != nil {
		return dtcbor.CBORCodec{}, err
	}
	return codec, nil
}

// StateFromTree reads the current size, depth and encoded latest root of tree.
func StateFromTree[L any](tree *smt.Tree[L], store smt.Store, now time.Time) (State, error) {
	depth, err := tree.Depth(store)
	if err != nil {
		return State{}, err
	}
	size, err := tree.Size(store)
	if err != nil {
		return State{}, err
	}
	root, err := tree.LatestRoot(store)
	if err != nil {
		return State{}, err
	}
	encoded, err := tree.Codec().Encode(root)
	if err != nil {
		return State{}, err
	}
	return State{
		Size:      size,
		Depth:     depth,
		Root:      encoded,
		Timestamp: now.UnixMilli(),
	}, nil
}
