package bliss

import (
	"github.com/tuneinsight/lattigo/v4/ring"
)

// Number-theoretic transform over Z_q[x]/(x^n+1), backed by a
// single-modulus lattigo ring. The ring tables are read-only; each
// transform allocates its own polynomial, so one ntt may be shared by
// concurrent callers.
type ntt struct {
	r *ring.Ring
	n int
	q uint32
}

func new_ntt(n int, q uint32) (*ntt, error) {
	r, err := ring.NewRing(n, []uint64{uint64(q)})
	if err != nil {
		return nil, err
	}
	return &ntt{r: r, n: n, q: q}, nil
}

// Apply the forward (or inverse) transform to src, writing the result
// to dst (src and dst may be the same slice). Input values must be in
// [0,q); output values are in [0,q).
func (t *ntt) transform(src []uint32, dst []uint32, inverse bool) {
	p := t.r.NewPoly()
	c := p.Coeffs[0]
	for i := 0; i < t.n; i++ {
		c[i] = uint64(src[i])
	}
	if inverse {
		t.r.InvNTT(p, p)
	} else {
		t.r.NTT(p, p)
	}
	q := uint64(t.q)
	for i := 0; i < t.n; i++ {
		dst[i] = uint32(c[i] % q)
	}
	wipe_u64(c)
}

func (t *ntt) forward(src []uint32, dst []uint32) {
	t.transform(src, dst, false)
}

func (t *ntt) inverse(src []uint32, dst []uint32) {
	t.transform(src, dst, true)
}

// Pointwise product of two transformed vectors: d <- a*b mod q.
func (t *ntt) mul(a []uint32, b []uint32, d []uint32) {
	q := uint64(t.q)
	for i := 0; i < t.n; i++ {
		d[i] = uint32((uint64(a[i]) * uint64(b[i])) % q)
	}
}

// Negacyclic product of two polynomials with coefficients in [0,q):
// d <- a*b mod (x^n+1, q).
func (t *ntt) poly_mul(a []uint32, b []uint32, d []uint32) {
	ta := make([]uint32, t.n)
	tb := make([]uint32, t.n)
	t.forward(a, ta)
	t.forward(b, tb)
	t.mul(ta, tb, d)
	t.inverse(d, d)
	wipe_u32(ta)
	wipe_u32(tb)
}
