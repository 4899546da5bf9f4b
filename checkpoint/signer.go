package checkpoint

import (
	"crypto/rand"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/veraison/go-cose"
)

// HeaderLabelClaims is the protected header carrying the issuer and subject.
const HeaderLabelClaims int64 = 13

// Claims identifies who signed the checkpoint and for which tree.
type Claims struct {
	Issuer  string `cbor:"1,keyasint"`
	Subject string `cbor:"2,keyasint"`
}

// RootSigner signs tree states. Callers should only sign a state after
// checking it extends the most recently signed one.
type RootSigner struct {
	issuer    string
	cborCodec dtcbor.CBORCodec
}

func NewRootSigner(issuer string, cborCodec dtcbor.CBORCodec) RootSigner {
	return RootSigner{
		issuer:    issuer,
		cborCodec: cborCodec,
	}
}

// Sign1 signs state and returns the encoded COSE Sign1 message with the root
// removed from its payload.
func (rs RootSigner) Sign1(coseSigner cose.Signer, keyID []byte, subject string, state State, external []byte) ([]byte, error) {
	payload, err := rs.cborCodec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: coseSigner.Algorithm(),
				cose.HeaderLabelKeyID:     keyID,
				HeaderLabelClaims:         Claims{Issuer: rs.issuer, Subject: subject},
			},
		},
		Payload: payload,
	}
	if err = msg.Sign(rand.Reader, external, coseSigner); err != nil {
		return nil, err
	}

	state.Root = nil
	if msg.Payload, err = rs.cborCodec.MarshalCBOR(state); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}
