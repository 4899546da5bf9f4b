package checkpoint

import (
	"errors"
	"fmt"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

var ErrMissingClaims = errors.New("checkpoint: protected header has no claims")

// DecodeSignedRoot decodes a checkpoint without verifying it. The returned
// state has no root; see VerifySignedRoot.
func DecodeSignedRoot(codec dtcbor.CBORCodec, data []byte) (*cose.Sign1Message, State, error) {
	var signed cose.Sign1Message
	if err := signed.UnmarshalCBOR(data); err != nil {
		return nil, State{}, err
	}

	var unverified State
	if err := codec.UnmarshalInto(signed.Payload, &unverified); err != nil {
		return nil, State{}, err
	}
	return &signed, unverified, nil
}

// DecodeClaims returns the issuer and subject from the protected header.
func DecodeClaims(signed *cose.Sign1Message) (Claims, error) {
	raw, ok := protectedValue(signed.Headers.Protected, HeaderLabelClaims)
	if !ok {
		return Claims{}, ErrMissingClaims
	}
	// The header decoder yields a generic map; round trip it into Claims.
	data, err := cbor.Marshal(raw)
	if err != nil {
		return Claims{}, err
	}
	var claims Claims
	if err = cbor.Unmarshal(data, &claims); err != nil {
		return Claims{}, fmt.Errorf("checkpoint: bad claims: %w", err)
	}
	return claims, nil
}

// protectedValue finds an integer label regardless of the integer type the
// header decoder chose for it.
func protectedValue(h cose.ProtectedHeader, label int64) (any, bool) {
	for k, v := range h {
		switch k := k.(type) {
		case int64:
			if k == label {
				return v, true
			}
		case uint64:
			if label >= 0 && k == uint64(label) {
				return v, true
			}
		case int:
			if int64(k) == label {
				return v, true
			}
		}
	}
	return nil, false
}

// VerifySignedRoot puts the root back into the decoded state and checks the
// signature.
//
// Verification is a three step process:
//  1. DecodeSignedRoot to obtain the state. It will not verify as published
//     because the root has been removed.
//  2. Read the root of the tree at state.Size, or check a candidate root is
//     accepted by the tree.
//  3. Set state.Root and call VerifySignedRoot.
func VerifySignedRoot(codec dtcbor.CBORCodec, verifier cose.Verifier, signed *cose.Sign1Message, state State, external []byte) error {
	payload, err := codec.MarshalCBOR(state)
	if err != nil {
		return err
	}
	signed.Payload = payload
	return signed.Verify(external, verifier)
}
