package bliss

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMqInv(t *testing.T) {
	const q = 12289
	for x := uint32(1); x < q; x++ {
		y := mq_inv(x, q)
		if (x*y)%q != 1 {
			t.Fatalf("ERR: inverse of %d -> %d", x, y)
		}
		if z := mq_inv(y, q); z != x {
			t.Fatalf("ERR: double inverse of %d -> %d", x, z)
		}
	}
}

func TestMqInvOtherModuli(t *testing.T) {
	for _, q := range []uint32{3, 5, 7681, 7937, 32749} {
		for _, x := range []uint32{1, 2, q - 1, q / 2, q/3 + 1} {
			require.Equal(t, uint32(1), (x*mq_inv(x, q))%q, "q=%d x=%d", q, x)
		}
	}
}

func TestWrappedProductSymmetric(t *testing.T) {
	rng := shake_rng("wrapped product")
	for k := 0; k < 20; k++ {
		x := random_small(rng, 512, 4)
		y := random_small(rng, 512, 4)
		require.Equal(t, wrapped_product(x, y, 0), wrapped_product(y, x, 0))
	}
}

func TestWrappedProductIsRingProduct(t *testing.T) {
	// Scalar product of x with y rotated backwards by shift in the ring.
	n := 16
	x := random_small(shake_rng("wp x"), n, 2)
	y := random_small(shake_rng("wp y"), n, 2)
	for shift := 0; shift < n; shift++ {
		want := int32(0)
		for i := 0; i < n; i++ {
			j := i + shift
			v := int32(y[j%n])
			if j >= n {
				v = -v
			}
			want += int32(x[i]) * v
		}
		require.Equal(t, want, wrapped_product(x, y, shift), "shift %d", shift)
	}
}

func TestWrap(t *testing.T) {
	x := []int32{1, 2, 3, 4}
	w := make([]int32, 4)
	wrap(x, 0, w)
	require.Equal(t, []int32{1, 2, 3, 4}, w)
	wrap(x, 1, w)
	require.Equal(t, []int32{-4, 1, 2, 3}, w)
	wrap(x, 3, w)
	require.Equal(t, []int32{-2, -3, -4, 1}, w)
}

// Multiply a small polynomial by x^k in Z[x]/(x^n+1).
func rotate_small(s []int8, k int) []int8 {
	n := len(s)
	r := make([]int8, n)
	for i := 0; i < n; i++ {
		j := i + k
		if j >= n {
			r[j-n] = -s[i]
		} else {
			r[j] = s[i]
		}
	}
	return r
}

func TestNksRotationInvariant(t *testing.T) {
	ps := param_set(t, BLISS_I)
	newHash, _ := mgf1_hash(ps.Strength)
	f, err := sample_sparse(ps, newHash, []byte("nks f seed"))
	require.NoError(t, err)
	g, err := sample_sparse(ps, newHash, []byte("nks g seed"))
	require.NoError(t, err)
	for i := range g {
		g[i] *= 2
	}
	g[0]++

	base := nks_norm(f, g, ps.Kappa)
	require.Greater(t, base, int64(0))
	for _, k := range []int{1, 7, 255, 511} {
		got := nks_norm(rotate_small(f, k), rotate_small(g, k), ps.Kappa)
		require.Equal(t, base, got, "rotation by %d", k)
	}
}

func TestNksBoundsChallengeNorm(t *testing.T) {
	// For any weight-kappa challenge c, ||s1*c||^2 + ||s2*c||^2 must not
	// exceed Nk(S).
	ps := param_set(t, BLISS_I)
	newHash, _ := mgf1_hash(ps.Strength)
	f, err := sample_sparse(ps, newHash, []byte("bound f"))
	require.NoError(t, err)
	g, err := sample_sparse(ps, newHash, []byte("bound g"))
	require.NoError(t, err)
	nks := nks_norm(f, g, ps.Kappa)

	s1c := make([]int32, ps.N)
	s2c := make([]int32, ps.N)
	var digest [64]byte
	for k := 0; k < 20; k++ {
		digest[0] = byte(k)
		c := generate_c(ps, digest[:], make([]int32, ps.N))
		poly_mul_c(f, c, s1c)
		poly_mul_c(g, c, s2c)
		norm := scalar_product(s1c, s1c) + scalar_product(s2c, s2c)
		require.LessOrEqual(t, norm, nks)
	}
}

func TestPolyMulCEmpty(t *testing.T) {
	s := random_small(shake_rng("mulc empty"), 512, 2)
	out := make([]int32, 512)
	for i := range out {
		out[i] = 99
	}
	poly_mul_c(s, nil, out)
	require.Equal(t, make([]int32, 512), out)
}

func TestPolyMulCFull(t *testing.T) {
	// With every index present, the challenge is 1 + x + ... + x^(n-1)
	// and the product is the plain negacyclic convolution.
	n := 64
	const q = 12289
	s := random_small(shake_rng("mulc full"), n, 2)
	c := make([]uint16, n)
	ones := make([]uint32, n)
	for i := range c {
		c[i] = uint16(i)
		ones[i] = 1
	}
	got := make([]int32, n)
	poly_mul_c(s, c, got)

	sq := make([]uint32, n)
	small_to_modq(s, q, sq)
	want := schoolbook_mul(sq, ones, q)
	for i := 0; i < n; i++ {
		require.Equal(t, want[i], uint32(mod_pos(int64(got[i]), q)), "index %d", i)
	}
}

func TestPolyMulCSingle(t *testing.T) {
	s := []int8{1, 2, 0, -1}
	out := make([]int32, 4)
	poly_mul_c(s, []uint16{1}, out)
	require.Equal(t, []int32{1, 1, 2, 0}, out)
}

func TestSmallToModq(t *testing.T) {
	const q = 12289
	s := []int8{-2, -1, 0, 1, 2}
	d := make([]uint32, 5)
	small_to_modq(s, q, d)
	require.Equal(t, []uint32{q - 2, q - 1, 0, 1, 2}, d)
	small_neg_to_modq(s, q, d)
	require.Equal(t, []uint32{2, 1, 0, q - 1, q - 2}, d)
}
