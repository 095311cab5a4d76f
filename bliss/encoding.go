package bliss

import (
	"bytes"
	"encoding/asn1"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Key serialization formats.
type EncodingFormat int

const (
	// ASN.1 DER.
	FormatDER EncodingFormat = iota
	// DER wrapped in a PEM envelope.
	FormatPEM
)

func (f EncodingFormat) String() string {
	switch f {
	case FormatDER:
		return "DER"
	case FormatPEM:
		return "PEM"
	default:
		return fmt.Sprintf("EncodingFormat(%d)", int(f))
	}
}

// PEM block types.
const (
	PEM_PRIVATE_KEY = "BLISS PRIVATE KEY"
	PEM_PUBLIC_KEY  = "PUBLIC KEY"
)

// Encode the public polynomial as 2 bytes per coefficient, big-endian.
func encode_public_octets(a []uint16) []byte {
	out := make([]byte, 2*len(a))
	for i, v := range a {
		out[2*i] = byte(v >> 8)
		out[2*i+1] = byte(v)
	}
	return out
}

// Decode the public polynomial; all coefficients must be lower than q.
func decode_public_octets(ps *ParamSet, src []byte) ([]uint16, error) {
	if len(src) != ps.PublicKeySize() {
		return nil, fmt.Errorf("%w: public key has %d bytes, expected %d",
			ErrInvalidEncoding, len(src), ps.PublicKeySize())
	}
	a := make([]uint16, ps.N)
	for i := range a {
		v := uint16(src[2*i])<<8 | uint16(src[2*i+1])
		if uint32(v) >= ps.Q {
			return nil, fmt.Errorf("%w: public coefficient %d out of range",
				ErrInvalidEncoding, i)
		}
		a[i] = v
	}
	return a, nil
}

// OCTET STRING holding the public key octets.
func encode_public_key(a []uint16) []byte {
	var b cryptobyte.Builder
	b.AddASN1OctetString(encode_public_octets(a))
	return b.BytesOrPanic()
}

// SubjectPublicKeyInfo:
//
//	SEQUENCE {
//	  SEQUENCE { OID blissPublicKey, OID parameter set }
//	  BIT STRING { OCTET STRING { a } }
//	}
func encode_public_key_info(ps *ParamSet, a []uint16) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(OID_BLISS_PUBLICKEY)
			b.AddASN1ObjectIdentifier(ps.OID)
		})
		b.AddASN1BitString(encode_public_key(a))
	})
	return b.BytesOrPanic()
}

func parse_public_key_info(reg *Registry, der []byte) (*ParamSet, []uint16, error) {
	bad := fmt.Errorf("%w: malformed public key info", ErrInvalidEncoding)
	input := cryptobyte.String(der)
	var spki, alg, bits, octets cryptobyte.String
	var alg_oid, set_oid asn1.ObjectIdentifier
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&alg, cbasn1.SEQUENCE) ||
		!alg.ReadASN1ObjectIdentifier(&alg_oid) ||
		!alg.ReadASN1ObjectIdentifier(&set_oid) || !alg.Empty() {
		return nil, nil, bad
	}
	var raw []byte
	if !spki.ReadASN1BitStringAsBytes(&raw) || !spki.Empty() {
		return nil, nil, bad
	}
	bits = cryptobyte.String(raw)
	if !bits.ReadASN1(&octets, cbasn1.OCTET_STRING) || !bits.Empty() {
		return nil, nil, bad
	}
	if !alg_oid.Equal(OID_BLISS_PUBLICKEY) {
		return nil, nil, fmt.Errorf("%w: not a BLISS public key (%s)",
			ErrInvalidEncoding, alg_oid)
	}
	ps, err := reg.ByOID(set_oid)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	a, err := decode_public_octets(ps, octets)
	if err != nil {
		return nil, nil, err
	}
	return ps, a, nil
}

// BLISSPrivateKey:
//
//	SEQUENCE {
//	  OID parameter set
//	  OCTET STRING public key (2 bytes per coefficient)
//	  OCTET STRING s1 (1 byte per coefficient, two's complement)
//	  OCTET STRING s2 (1 byte per coefficient, two's complement)
//	}
func encode_private_key(ps *ParamSet, s1 []int8, s2 []int8, a []uint16) []byte {
	s1b := make([]byte, len(s1))
	s2b := make([]byte, len(s2))
	for i := range s1 {
		s1b[i] = byte(s1[i])
		s2b[i] = byte(s2[i])
	}
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(ps.OID)
		b.AddASN1OctetString(encode_public_octets(a))
		b.AddASN1OctetString(s1b)
		b.AddASN1OctetString(s2b)
	})
	out := b.BytesOrPanic()
	wipe_bytes(s1b)
	wipe_bytes(s2b)
	return out
}

// Decode a private key and check it: known OID, field lengths,
// coefficient ranges (s1 in [-2,2], s2 - 1 even with |g| <= 2), public
// coefficients lower than q, and s1 invertible modulo q.
func parse_private_key(reg *Registry, der []byte) (*ParamSet, []int8, []int8, []uint16, error) {
	bad := fmt.Errorf("%w: malformed private key", ErrInvalidEncoding)
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	var oid asn1.ObjectIdentifier
	var pub, sec1, sec2 cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() ||
		!seq.ReadASN1ObjectIdentifier(&oid) ||
		!seq.ReadASN1(&pub, cbasn1.OCTET_STRING) ||
		!seq.ReadASN1(&sec1, cbasn1.OCTET_STRING) ||
		!seq.ReadASN1(&sec2, cbasn1.OCTET_STRING) || !seq.Empty() {
		return nil, nil, nil, nil, bad
	}
	ps, err := reg.ByOID(oid)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	a, err := decode_public_octets(ps, pub)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(sec1) != ps.N || len(sec2) != ps.N {
		return nil, nil, nil, nil, fmt.Errorf("%w: secret vectors must have %d bytes",
			ErrInvalidEncoding, ps.N)
	}
	s1 := make([]int8, ps.N)
	s2 := make([]int8, ps.N)
	fail := func(format string, args ...any) (*ParamSet, []int8, []int8, []uint16, error) {
		wipe_i8(s1)
		wipe_i8(s2)
		return nil, nil, nil, nil, fmt.Errorf("%w: %s", ErrInvalidEncoding,
			fmt.Sprintf(format, args...))
	}
	for i := 0; i < ps.N; i++ {
		s1[i] = int8(sec1[i])
		s2[i] = int8(sec2[i])
		if s1[i] < -2 || s1[i] > 2 {
			return fail("s1[%d] out of range", i)
		}
		g := s2[i]
		if i == 0 {
			g--
		}
		if g%2 != 0 || g < -4 || g > 4 {
			return fail("s2[%d] out of range", i)
		}
	}
	if !is_invertible(ps, s1) {
		return fail("s1 is not invertible")
	}
	return ps, s1, s2, a, nil
}

// Unwrap a PEM envelope of the given type. Input that does not start
// with a PEM boundary is returned unchanged.
func pem_unwrap(blob []byte, typ string) ([]byte, error) {
	trimmed := bytes.TrimSpace(blob)
	if !bytes.HasPrefix(trimmed, []byte("-----BEGIN ")) {
		return blob, nil
	}
	block, _ := pem.Decode(trimmed)
	if block == nil {
		return nil, fmt.Errorf("%w: malformed PEM", ErrInvalidEncoding)
	}
	if block.Type != typ {
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidEncoding, block.Type)
	}
	return block.Bytes, nil
}

func pem_wrap(der []byte, typ string) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
}
