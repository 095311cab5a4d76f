package bliss

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	for _, ps := range DefaultRegistry().Sets() {
		sk := test_key(t, ps.ID)
		pk := sk.PublicKey()
		rng := shake_rng("sign " + ps.Name)
		for i := 0; i < 5; i++ {
			msg := []byte(fmt.Sprintf("message %d for %s", i, ps.Name))
			sig, err := sk.Sign(rng, msg, nil)
			require.NoError(t, err)
			require.Len(t, sig, ps.SignatureSize())
			require.Equal(t, signature_header(ps), sig[0])
			require.NoError(t, pk.VerifyErr(msg, sig), ps.Name)
			require.True(t, pk.Verify(msg, sig))

			// Another message must not verify.
			require.False(t, pk.Verify(append(msg, '!'), sig))
		}
	}
}

func TestSignatureComponents(t *testing.T) {
	sk := test_key(t, BLISS_IV)
	ps := sk.ParamSet()
	sig, err := sk.sign_with(shake_rng("components"), new_sampler, []byte("abc"))
	require.NoError(t, err)
	require.Len(t, sig.Z1, ps.N)
	require.Len(t, sig.Z2d, ps.N)
	require.Len(t, sig.C, ps.Kappa)
	require.True(t, check_norms(ps, sig.Z1, sig.Z2d))
	half := int32(ps.P / 2)
	for i := range sig.Z2d {
		require.LessOrEqual(t, sig.Z2d[i], half)
		require.Greater(t, sig.Z2d[i], -half)
	}
	seen := make(map[uint16]bool)
	for _, c := range sig.C {
		require.Less(t, int(c), ps.N)
		require.False(t, seen[c])
		seen[c] = true
	}
	require.NoError(t, verify_inner(ps, sk.a, []byte("abc"), sig))
}

func TestSignTamper(t *testing.T) {
	sk := test_key(t, BLISS_I)
	pk := sk.PublicKey()
	msg := []byte("tamper")
	sig, err := sk.Sign(shake_rng("tamper"), msg, nil)
	require.NoError(t, err)

	// Flipping one bit either makes the encoding invalid or breaks the
	// challenge equality.
	for _, pos := range []int{1, 100, 700, len(sig) - 30} {
		bad := bytes.Clone(sig)
		bad[pos] ^= 0x04
		err := pk.VerifyErr(msg, bad)
		require.True(t, errors.Is(err, ErrInvalidSignature), "byte %d: %v", pos, err)
	}

	// Signature of another set.
	other := test_key(t, BLISS_III)
	require.False(t, other.PublicKey().Verify(msg, sig))

	// Same set, other key.
	sk2, err := GenerateKey(BLISS_I, shake_rng("other key"))
	require.NoError(t, err)
	require.False(t, sk2.PublicKey().Verify(msg, sig))
}

func TestSignDeterministic(t *testing.T) {
	sk := test_key(t, BLISS_III)
	msg := []byte("replay")
	sig1, err := sk.Sign(shake_rng("det"), msg, nil)
	require.NoError(t, err)
	sig2, err := sk.Sign(shake_rng("det"), msg, nil)
	require.NoError(t, err)
	require.Equal(t, sig1, sig2)
}

// Sampler that rejects a fixed number of exp and cosh gates before
// delegating to the real sampler. The counters are shared between the
// samplers of successive rounds.
type scripted_sampler struct {
	gaussian_sampler
	st *script_state
}

type script_state struct {
	exp_rejects  int
	cosh_rejects int
	exp_calls    int
	cosh_calls   int
	cosh_accepts int
	rounds       int
	fail         error
}

func (s *scripted_sampler) bernoulli_exp(x uint32) (bool, error) {
	s.st.exp_calls++
	if s.st.exp_rejects > 0 {
		s.st.exp_rejects--
		return false, nil
	}
	return s.gaussian_sampler.bernoulli_exp(x)
}

func (s *scripted_sampler) bernoulli_cosh(x int32) (bool, error) {
	s.st.cosh_calls++
	if s.st.fail != nil {
		return false, s.st.fail
	}
	if s.st.cosh_rejects > 0 {
		s.st.cosh_rejects--
		return false, nil
	}
	ok, err := s.gaussian_sampler.bernoulli_cosh(x)
	if ok {
		s.st.cosh_accepts++
	}
	return ok, err
}

func scripted_factory(st *script_state) sampler_factory {
	return func(ps *ParamSet, seed []byte) gaussian_sampler {
		st.rounds++
		return &scripted_sampler{gaussian_sampler: new_sampler(ps, seed), st: st}
	}
}

func TestSignRejectionsKeepKey(t *testing.T) {
	sk := test_key(t, BLISS_I)
	der := bytes.Clone(encode_private_key(sk.set, sk.s1, sk.s2, sk.a))

	st := &script_state{exp_rejects: 3, cosh_rejects: 4}
	msg := []byte("rejections")
	sig, err := sk.sign_with(shake_rng("rejections"), scripted_factory(st), msg)
	require.NoError(t, err)
	require.Zero(t, st.exp_rejects)
	require.Zero(t, st.cosh_rejects)
	require.GreaterOrEqual(t, st.rounds, 8)
	require.GreaterOrEqual(t, st.exp_calls, 8)
	require.GreaterOrEqual(t, st.cosh_calls, 5)

	// The key is unchanged by the rejected rounds.
	require.Equal(t, der, encode_private_key(sk.set, sk.s1, sk.s2, sk.a))
	require.True(t, sk.PublicKey().Verify(msg, sig.Bytes()))
}

func TestSignNormRejectionRestarts(t *testing.T) {
	// A tighter L2 bound makes the final norm check reject often. Each
	// accepted cosh gate either yields the signature or fails the norm
	// check and starts a new round.
	ps := StandardParamSets()[0]
	ps.BL2 = 9300 * 9300
	reg, err := NewRegistry(ps)
	require.NoError(t, err)
	sk, err := Generate(KeyConfig{Level: BLISS_I, Rand: shake_rng("tight norm"), Registry: reg})
	require.NoError(t, err)
	tight := sk.ParamSet()
	der := bytes.Clone(encode_private_key(tight, sk.s1, sk.s2, sk.a))

	rejected := 0
	for i := 0; i < 5; i++ {
		st := &script_state{}
		msg := []byte(fmt.Sprintf("tight norm %d", i))
		sig, err := sk.sign_with(shake_rng(string(msg)), scripted_factory(st), msg)
		require.NoError(t, err)
		require.GreaterOrEqual(t, st.cosh_accepts, 1)
		rejected += st.cosh_accepts - 1

		require.True(t, check_norms(tight, sig.Z1, sig.Z2d))
		require.NoError(t, verify_inner(tight, sk.a, msg, sig))
		require.True(t, sk.PublicKey().Verify(msg, sig.Bytes()))

		// The standard set accepts the same signature.
		std := param_set(t, BLISS_I)
		require.True(t, check_norms(std, sig.Z1, sig.Z2d))
	}
	require.Positive(t, rejected)
	require.Equal(t, der, encode_private_key(tight, sk.s1, sk.s2, sk.a))
}

func TestSignSamplerFailure(t *testing.T) {
	sk := test_key(t, BLISS_I)
	boom := errors.New("sampler failure")
	st := &script_state{fail: boom}
	_, err := sk.sign_with(shake_rng("fail"), scripted_factory(st), []byte("x"))
	require.True(t, errors.Is(err, boom))
}

func TestSignRandomnessFailure(t *testing.T) {
	sk := test_key(t, BLISS_I)
	_, err := sk.Sign(&failing_reader{r: shake_rng("x"), limit: 5}, []byte("x"), nil)
	require.True(t, errors.Is(err, ErrRandomness))
	require.True(t, errors.Is(err, errReaderExhausted))
}

func TestSignHashOption(t *testing.T) {
	sk := test_key(t, BLISS_I)
	_, err := sk.Sign(shake_rng("opts"), []byte("x"), crypto.SHA256)
	require.True(t, errors.Is(err, ErrUnsupportedHash))

	sig, err := sk.Sign(shake_rng("opts"), []byte("x"), crypto.Hash(0))
	require.NoError(t, err)
	require.True(t, sk.PublicKey().Verify([]byte("x"), sig))
}

func TestKeyRelease(t *testing.T) {
	sk, err := GenerateKey(BLISS_I, shake_rng("release"))
	require.NoError(t, err)
	pk := sk.PublicKey()

	sk.Ref()
	sk.Release()
	_, err = sk.Sign(shake_rng("r"), []byte("x"), nil)
	require.NoError(t, err)

	s1 := sk.s1
	sk.Release()
	for _, v := range s1 {
		require.Zero(t, v)
	}
	_, err = sk.Sign(shake_rng("r"), []byte("x"), nil)
	require.True(t, errors.Is(err, ErrKeyReleased))
	_, err = sk.Encoding(FormatDER)
	require.True(t, errors.Is(err, ErrKeyReleased))

	// The public half stays usable.
	require.Same(t, pk, sk.PublicKey())
	sk.Release()
}

func TestSignConcurrent(t *testing.T) {
	sk := test_key(t, BLISS_I)
	pk := sk.PublicKey()
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := []byte(fmt.Sprintf("concurrent %d", i))
			sig, err := sk.Sign(nil, msg, nil)
			if err == nil {
				err = pk.VerifyErr(msg, sig)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
}

func BenchmarkSign(b *testing.B) {
	for _, ps := range DefaultRegistry().Sets() {
		sk := test_key(b, ps.ID)
		msg := []byte("benchmark")
		b.Run(ps.Name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := sk.Sign(nil, msg, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkVerify(b *testing.B) {
	for _, ps := range DefaultRegistry().Sets() {
		sk := test_key(b, ps.ID)
		pk := sk.PublicKey()
		msg := []byte("benchmark")
		sig, err := sk.Sign(nil, msg, nil)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(ps.Name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if !pk.Verify(msg, sig) {
					b.Fatal("verify failed")
				}
			}
		})
	}
}
