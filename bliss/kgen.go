package bliss

import (
	"crypto/rand"
	"fmt"
	"hash"
	"io"
)

// Maximum number of secret key candidates drawn by one key generation,
// counting both Nk(S) and invertibility rejections.
const secret_key_trials_max = 50

// Generate a new key pair for the given parameter set.
//
//   - level is the parameter set identifier (BLISS_I, BLISS_III or
//     BLISS_IV).
//   - rng is the random source to use (nil to use the OS RNG).
//
// An error is reported if the parameter set is unknown, if the random
// source fails, or if no acceptable secret key was found within the
// trial budget (which happens with negligible probability for the
// standard parameter sets).
func GenerateKey(level ParamSetID, rng io.Reader) (*PrivateKey, error) {
	return Generate(KeyConfig{Level: level, Rand: rng})
}

// Generate a new key pair as described by cfg. cfg.Level selects the
// parameter set (looked up in cfg.Registry, or in the default registry
// if nil); cfg.Blob must be empty.
func Generate(cfg KeyConfig) (*PrivateKey, error) {
	if err := cfg.validate(false); err != nil {
		return nil, err
	}
	ps, err := cfg.registry().ByID(cfg.Level)
	if err != nil {
		return nil, err
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.Reader
	}
	s1, s2, a, err := keygen_inner(ps, rng)
	if err != nil {
		return nil, err
	}
	return new_private_key(ps, s1, s2, a), nil
}

// Inner key generation: draw secret candidates until one passes the
// Nk(S) bound and has an invertible s1, then derive the public key.
func keygen_inner(ps *ParamSet, rng io.Reader) (s1 []int8, s2 []int8, a []uint16, err error) {
	lg := logger().With("set", ps.Name)
	trials := 0
	for {
		s1, s2, err = create_secret(ps, rng, &trials)
		if err != nil {
			lg.Warn("secret key generation failed", "trials", trials, "err", err)
			return nil, nil, nil, err
		}
		var ok bool
		a, ok = derive_public_key(ps, s1, s2)
		if ok {
			break
		}
		lg.Debug("s1 is not invertible", "trial", trials)
		wipe_i8(s1)
		wipe_i8(s2)
		if trials >= secret_key_trials_max {
			lg.Warn("secret key generation failed", "trials", trials)
			return nil, nil, nil, fmt.Errorf("%w (%d)", ErrKeyGenTrials, trials)
		}
	}
	lg.Info("secret key generation succeeded", "trials", trials)
	return s1, s2, a, nil
}

// Build a sparse vector from a seed: NonZero1 distinct positions set to
// +/-1, then NonZero2 further distinct positions set to +/-2. Each
// position is an NBits value from the seed expander (positions already
// taken are drawn again), followed by one sign bit.
func sample_sparse(ps *ParamSet, newHash func() hash.Hash, seed []byte) ([]int8, error) {
	bs := new_bitspender(newHash, seed)
	defer bs.wipe()
	v := make([]int8, ps.N)
	fill := func(count int, mag int8) error {
		for count > 0 {
			index, err := bs.get_bits(ps.NBits)
			if err != nil {
				return err
			}
			if int(index) >= ps.N || v[index] != 0 {
				continue
			}
			sign, err := bs.get_bits(1)
			if err != nil {
				return err
			}
			if sign != 0 {
				v[index] = mag
			} else {
				v[index] = -mag
			}
			count--
		}
		return nil
	}
	if err := fill(ps.NonZero1, 1); err != nil {
		wipe_i8(v)
		return nil, err
	}
	if err := fill(ps.NonZero2, 2); err != nil {
		wipe_i8(v)
		return nil, err
	}
	return v, nil
}

// Draw secret candidates (f, 2g+1) until one has an Nk(S) norm below
// NksMax. trials counts the candidates drawn so far and is shared with
// the invertibility loop of the caller.
func create_secret(ps *ParamSet, rng io.Reader, trials *int) ([]int8, []int8, error) {
	newHash, seed_len := mgf1_hash(ps.Strength)
	seed := make([]byte, seed_len)
	defer wipe_bytes(seed)
	lg := logger()

	for *trials < secret_key_trials_max {
		(*trials)++

		if _, err := io.ReadFull(rng, seed); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrRandomness, err)
		}
		f, err := sample_sparse(ps, newHash, seed)
		if err != nil {
			return nil, nil, err
		}
		if _, err := io.ReadFull(rng, seed); err != nil {
			wipe_i8(f)
			return nil, nil, fmt.Errorf("%w: %w", ErrRandomness, err)
		}
		g, err := sample_sparse(ps, newHash, seed)
		if err != nil {
			wipe_i8(f)
			return nil, nil, err
		}

		// s2 = 2*g + 1
		for i := range g {
			g[i] *= 2
		}
		g[0] += 1

		nks := nks_norm(f, g, ps.Kappa)
		if lg.Enabled(levelDebug) {
			l2 := wrapped_product(f, f, 0) + wrapped_product(g, g, 0)
			lg.Debug("secret key candidate", "set", ps.Name, "trial", *trials,
				"l2", l2, "nks", nks, "nks_max", ps.NksMax)
		}
		if nks < int64(ps.NksMax) {
			return f, g, nil
		}
		wipe_i8(f)
		wipe_i8(g)
	}
	return nil, nil, fmt.Errorf("%w (%d)", ErrKeyGenTrials, *trials)
}

// Compute the public key a = -s2/s1 mod q, so that a*s1 + s2 = 0 mod q.
// The second return value is false if s1 is not invertible modulo q (one
// of its NTT coefficients is zero).
func derive_public_key(ps *ParamSet, s1 []int8, s2 []int8) ([]uint16, bool) {
	n := ps.N
	q := ps.Q
	S1 := make([]uint32, n)
	S2 := make([]uint32, n)
	defer wipe_u32(S1)
	defer wipe_u32(S2)

	small_to_modq(s1, q, S1)
	small_neg_to_modq(s2, q, S2)
	ps.ntt.forward(S1, S1)
	ps.ntt.forward(S2, S2)
	for i := 0; i < n; i++ {
		if S1[i] == 0 {
			return nil, false
		}
		S2[i] = (S2[i] * mq_inv(S1[i], q)) % q
	}
	ps.ntt.inverse(S2, S2)
	a := make([]uint16, n)
	for i := 0; i < n; i++ {
		a[i] = uint16(S2[i])
	}
	return a, true
}

// Report whether s1 is invertible modulo (x^n+1, q).
func is_invertible(ps *ParamSet, s1 []int8) bool {
	S1 := make([]uint32, ps.N)
	defer wipe_u32(S1)
	small_to_modq(s1, ps.Q, S1)
	ps.ntt.forward(S1, S1)
	for _, v := range S1 {
		if v == 0 {
			return false
		}
	}
	return true
}
