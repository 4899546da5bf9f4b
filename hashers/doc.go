// Package hashers provides hash combiners for smt trees.
//
// Blake2 and Blake2Uint256 reproduce the combiner the reference vectors in the
// tests were generated with: BLAKE2b-512 over left || right, truncated to the
// first 32 bytes.
package hashers
