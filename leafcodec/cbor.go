package leafcodec

import (
	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
)

// CBOR encodes leaves of any CBOR serializable type using deterministic (core
// deterministic) encoding, so equal values always produce equal bytes.
type CBOR[L any] struct {
	codec dtcbor.CBORCodec
}

func NewCBOR[L any]() (CBOR[L], error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(),
	)
	if err != nil {
		return CBOR[L]{}, err
	}
	return CBOR[L]{codec: codec}, nil
}

func (c CBOR[L]) Encode(leaf L) ([]byte, error) {
	return c.codec.MarshalCBOR(leaf)
}

func (c CBOR[L]) Decode(data []byte) (L, error) {
	var leaf L
	err := c.codec.UnmarshalInto(data, &leaf)
	return leaf, err
}
