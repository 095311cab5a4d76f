package bliss

import (
	"crypto"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// KeyConfig describes how to obtain a private key: either generate a
// new one (Level set, Blob empty) or load a serialized one (Blob set).
type KeyConfig struct {
	// Parameter set of a new key. For Load, zero accepts any set;
	// otherwise the encoded key must use this set.
	Level ParamSetID

	// DER or PEM encoding of an existing key.
	Blob []byte

	// Random source for key generation; nil means crypto/rand.Reader.
	Rand io.Reader

	// Registry used to resolve parameter sets; nil means the default
	// registry.
	Registry *Registry
}

func (cfg *KeyConfig) validate(load bool) error {
	if load {
		if len(cfg.Blob) == 0 {
			return fmt.Errorf("%w: empty key blob", ErrInvalidEncoding)
		}
		return nil
	}
	if len(cfg.Blob) != 0 {
		return errors.New("KeyConfig: Blob must be empty for key generation")
	}
	if cfg.Level == 0 {
		return fmt.Errorf("%w: no parameter set selected", ErrUnknownParamSet)
	}
	return nil
}

func (cfg *KeyConfig) registry() *Registry {
	if cfg.Registry != nil {
		return cfg.Registry
	}
	return DefaultRegistry()
}

// PrivateKey is a BLISS key pair. It is safe for concurrent use by
// multiple goroutines. The secret material is wiped when the last
// reference is released (see [PrivateKey.Ref] and [PrivateKey.Release]);
// a released key can no longer sign or be encoded.
type PrivateKey struct {
	set *ParamSet
	s1  []int8
	s2  []int8
	a   []uint16

	refs atomic.Int32

	// Guards pub and the teardown of the secret vectors.
	mu  sync.RWMutex
	pub *PublicKey
}

var _ crypto.Signer = (*PrivateKey)(nil)

func new_private_key(ps *ParamSet, s1 []int8, s2 []int8, a []uint16) *PrivateKey {
	sk := &PrivateKey{set: ps, s1: s1, s2: s2, a: a}
	sk.refs.Store(1)
	return sk
}

// Load decodes a private key from cfg.Blob (DER, or PEM with type
// "BLISS PRIVATE KEY"). The key is checked for consistency; an error
// wrapping [ErrInvalidEncoding] is returned if it is malformed, or if
// cfg.Level is set and does not match the encoded parameter set.
func Load(cfg KeyConfig) (*PrivateKey, error) {
	if err := cfg.validate(true); err != nil {
		return nil, err
	}
	der, err := pem_unwrap(cfg.Blob, PEM_PRIVATE_KEY)
	if err != nil {
		return nil, err
	}
	ps, s1, s2, a, err := parse_private_key(cfg.registry(), der)
	if err != nil {
		logger().Debug("private key rejected", "err", err)
		return nil, err
	}
	if cfg.Level != 0 && cfg.Level != ps.ID {
		wipe_i8(s1)
		wipe_i8(s2)
		return nil, fmt.Errorf("%w: key uses %s, expected %s",
			ErrInvalidEncoding, ps.ID, cfg.Level)
	}
	return new_private_key(ps, s1, s2, a), nil
}

// ParsePrivateKey decodes a private key (DER or PEM) using the default
// registry.
func ParsePrivateKey(blob []byte) (*PrivateKey, error) {
	return Load(KeyConfig{Blob: blob})
}

// Ref takes an additional reference to the key and returns it.
func (sk *PrivateKey) Ref() *PrivateKey {
	sk.refs.Add(1)
	return sk
}

// Release drops one reference. When the last reference is dropped, the
// secret vectors are wiped. Releasing more times than referenced has no
// further effect.
func (sk *PrivateKey) Release() {
	if sk.refs.Add(-1) != 0 {
		return
	}
	sk.mu.Lock()
	defer sk.mu.Unlock()
	wipe_i8(sk.s1)
	wipe_i8(sk.s2)
	sk.s1 = nil
	sk.s2 = nil
}

func (sk *PrivateKey) released() bool {
	return sk.refs.Load() <= 0
}

// ParamSet returns the parameter set of the key.
func (sk *PrivateKey) ParamSet() *ParamSet {
	return sk.set
}

// Public returns the public key, as a *PublicKey.
func (sk *PrivateKey) Public() crypto.PublicKey {
	return sk.PublicKey()
}

// PublicKey returns the public half of the key pair. The same object is
// returned on every call, so its fingerprint cache is shared.
func (sk *PrivateKey) PublicKey() *PublicKey {
	sk.mu.RLock()
	pub := sk.pub
	sk.mu.RUnlock()
	if pub != nil {
		return pub
	}
	sk.mu.Lock()
	defer sk.mu.Unlock()
	if sk.pub == nil {
		sk.pub = new_public_key(sk.set, sk.a)
	}
	return sk.pub
}

// Sign signs message with the key. The message is hashed internally
// with SHA-512: opts must be nil or report a HashFunc of 0. If rng is
// nil, crypto/rand.Reader is used.
func (sk *PrivateKey) Sign(rng io.Reader, message []byte, opts crypto.SignerOpts) ([]byte, error) {
	if opts != nil && opts.HashFunc() != 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, opts.HashFunc())
	}
	sig, err := sk.sign_with(rng, new_sampler, message)
	if err != nil {
		return nil, err
	}
	return sig.Bytes(), nil
}

func (sk *PrivateKey) sign_with(rng io.Reader, mk sampler_factory, message []byte) (*Signature, error) {
	if rng == nil {
		rng = rand.Reader
	}
	sk.mu.RLock()
	defer sk.mu.RUnlock()
	if sk.released() || sk.s1 == nil {
		return nil, ErrKeyReleased
	}
	return sign_inner(sk.set, sk.s1, sk.s2, sk.a, rng, mk, message)
}

// Equal reports whether x is a *PrivateKey with the same parameter set
// and the same secret and public polynomials. Released keys are equal
// to nothing.
func (sk *PrivateKey) Equal(x crypto.PrivateKey) bool {
	o, ok := x.(*PrivateKey)
	if !ok {
		return false
	}
	d1 := sk.snapshot()
	if d1 == nil {
		return false
	}
	defer wipe_bytes(d1)
	if o == sk {
		return true
	}
	d2 := o.snapshot()
	if d2 == nil {
		return false
	}
	defer wipe_bytes(d2)
	return subtle.ConstantTimeCompare(d1, d2) == 1
}

// DER encoding of the key taken under its own lock, or nil once
// released. The caller wipes it.
func (sk *PrivateKey) snapshot() []byte {
	sk.mu.RLock()
	defer sk.mu.RUnlock()
	if sk.released() || sk.s1 == nil {
		return nil
	}
	return encode_private_key(sk.set, sk.s1, sk.s2, sk.a)
}

// Encoding serializes the private key in the given format.
func (sk *PrivateKey) Encoding(format EncodingFormat) ([]byte, error) {
	der := sk.snapshot()
	if der == nil {
		return nil, ErrKeyReleased
	}
	switch format {
	case FormatDER:
		return der, nil
	case FormatPEM:
		out := pem_wrap(der, PEM_PRIVATE_KEY)
		wipe_bytes(der)
		return out, nil
	default:
		wipe_bytes(der)
		return nil, fmt.Errorf("unsupported private key encoding %s", format)
	}
}

// Fingerprint returns the fingerprint of the public key of this pair.
func (sk *PrivateKey) Fingerprint(t FingerprintType) ([]byte, error) {
	return sk.PublicKey().Fingerprint(t)
}
