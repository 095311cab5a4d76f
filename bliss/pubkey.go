package bliss

import (
	"crypto"
	"crypto/sha1"
	"crypto/subtle"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"
	sha3 "golang.org/x/crypto/sha3"
)

// Public key fingerprint types.
type FingerprintType int

const (
	// SHA-1 of the DER OCTET STRING holding the public key octets.
	KEYID_PUBKEY_SHA1 FingerprintType = iota + 1

	// SHA-1 of the DER SubjectPublicKeyInfo.
	KEYID_PUBKEY_INFO_SHA1

	// SHAKE256 of the DER SubjectPublicKeyInfo, 32 bytes.
	KEYID_PUBKEY_SHAKE256

	// BLAKE3 of the DER SubjectPublicKeyInfo, 32 bytes.
	KEYID_PUBKEY_BLAKE3
)

func (t FingerprintType) String() string {
	switch t {
	case KEYID_PUBKEY_SHA1:
		return "pubkey-sha1"
	case KEYID_PUBKEY_INFO_SHA1:
		return "pubkey-info-sha1"
	case KEYID_PUBKEY_SHAKE256:
		return "pubkey-shake256"
	case KEYID_PUBKEY_BLAKE3:
		return "pubkey-blake3"
	default:
		return fmt.Sprintf("FingerprintType(%d)", int(t))
	}
}

// PublicKey is a BLISS public key: the polynomial a with
// a*s1 + s2 = 0 mod q. It is immutable and safe for concurrent use.
type PublicKey struct {
	set *ParamSet
	a   []uint16

	mu  sync.Mutex
	fps map[FingerprintType][]byte
}

func new_public_key(ps *ParamSet, a []uint16) *PublicKey {
	return &PublicKey{
		set: ps,
		a:   append([]uint16(nil), a...),
		fps: make(map[FingerprintType][]byte),
	}
}

// ParsePublicKey decodes a SubjectPublicKeyInfo (DER, or PEM with type
// "PUBLIC KEY"). reg may be nil to use the default registry.
func ParsePublicKey(reg *Registry, blob []byte) (*PublicKey, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	der, err := pem_unwrap(blob, PEM_PUBLIC_KEY)
	if err != nil {
		return nil, err
	}
	ps, a, err := parse_public_key_info(reg, der)
	if err != nil {
		return nil, err
	}
	return new_public_key(ps, a), nil
}

// ParamSet returns the parameter set of the key.
func (pk *PublicKey) ParamSet() *ParamSet {
	return pk.set
}

// Coefficients returns a copy of the public polynomial, with
// coefficients in [0,q).
func (pk *PublicKey) Coefficients() []uint16 {
	return append([]uint16(nil), pk.a...)
}

// Bytes returns the DER SubjectPublicKeyInfo encoding of the key.
func (pk *PublicKey) Bytes() []byte {
	return encode_public_key_info(pk.set, pk.a)
}

// Encoding serializes the public key in the given format.
func (pk *PublicKey) Encoding(format EncodingFormat) ([]byte, error) {
	switch format {
	case FormatDER:
		return pk.Bytes(), nil
	case FormatPEM:
		return pem_wrap(pk.Bytes(), PEM_PUBLIC_KEY), nil
	default:
		return nil, fmt.Errorf("unsupported public key encoding %s", format)
	}
}

// Equal reports whether x is a *PublicKey with the same parameter set
// and polynomial.
func (pk *PublicKey) Equal(x crypto.PublicKey) bool {
	o, ok := x.(*PublicKey)
	if !ok || o.set.ID != pk.set.ID || len(o.a) != len(pk.a) {
		return false
	}
	return subtle.ConstantTimeCompare(encode_public_octets(pk.a),
		encode_public_octets(o.a)) == 1
}

// Fingerprint returns the fingerprint of the given type. Results are
// cached per key.
func (pk *PublicKey) Fingerprint(t FingerprintType) ([]byte, error) {
	pk.mu.Lock()
	defer pk.mu.Unlock()
	if fp, ok := pk.fps[t]; ok {
		return append([]byte(nil), fp...), nil
	}
	var fp []byte
	switch t {
	case KEYID_PUBKEY_SHA1:
		h := sha1.Sum(encode_public_key(pk.a))
		fp = h[:]
	case KEYID_PUBKEY_INFO_SHA1:
		h := sha1.Sum(pk.Bytes())
		fp = h[:]
	case KEYID_PUBKEY_SHAKE256:
		fp = make([]byte, 32)
		sh := sha3.NewShake256()
		sh.Write(pk.Bytes())
		sh.Read(fp)
	case KEYID_PUBKEY_BLAKE3:
		h := blake3.New()
		h.Write(pk.Bytes())
		fp = h.Sum(nil)
	default:
		return nil, fmt.Errorf("unsupported fingerprint type %s", t)
	}
	pk.fps[t] = fp
	return append([]byte(nil), fp...), nil
}

// Verify reports whether sig is a valid signature of message under pk.
func (pk *PublicKey) Verify(message []byte, sig []byte) bool {
	return pk.VerifyErr(message, sig) == nil
}

// VerifyErr is like [PublicKey.Verify], but returns an error wrapping
// [ErrInvalidSignature] that describes why the signature was rejected.
func (pk *PublicKey) VerifyErr(message []byte, sig []byte) error {
	s, err := ParseSignature(pk.set, sig)
	if err != nil {
		return err
	}
	return verify_inner(pk.set, pk.a, message, s)
}
