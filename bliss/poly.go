package bliss

import (
	"math/bits"
	"slices"
)

// Polynomial helpers over Z[x]/(x^n+1). Small secret vectors are int8;
// products and norms are int32.

// Multiply the small polynomial s by the binary challenge polynomial
// whose nonzero coefficients are at the given indices:
//
//	product[i] = sum_j s[i - c_j]   (with s[i - c_j + n] negated when
//	                                 i - c_j < 0)
//
// An empty index set yields the zero polynomial.
func poly_mul_c(s []int8, c_indices []uint16, product []int32) {
	n := len(s)
	for i := 0; i < n; i++ {
		v := int32(0)
		for _, c := range c_indices {
			j := i - int(c)
			if j < 0 {
				v -= int32(s[j+n])
			} else {
				v += int32(s[j])
			}
		}
		product[i] = v
	}
}

// Scalar product of x with y rotated by shift positions in the ring
// (coefficients that wrap around past n are negated).
func wrapped_product(x []int8, y []int8, shift int) int32 {
	n := len(x)
	p := int32(0)
	for i := 0; i < n-shift; i++ {
		p += int32(x[i]) * int32(y[i+shift])
	}
	for i := n - shift; i < n; i++ {
		p -= int32(x[i]) * int32(y[i+shift-n])
	}
	return p
}

// Rotate x by shift positions in the ring (multiplication by x^shift):
// coefficients that wrap around are negated.
func wrap(x []int32, shift int, x_wrapped []int32) {
	n := len(x)
	for i := 0; i < n-shift; i++ {
		x_wrapped[i+shift] = x[i]
	}
	for i := n - shift; i < n; i++ {
		x_wrapped[i+shift-n] = -x[i]
	}
}

// Sum of the kappa largest entries of v. v is sorted in place.
func sum_largest(v []int32, kappa int) int64 {
	slices.Sort(v)
	s := int64(0)
	for j := 1; j <= kappa; j++ {
		s += int64(v[len(v)-j])
	}
	return s
}

// Compute the Nk(S) norm of S = (s1, s2): the largest value of
// ||S*c||^2 over binary challenges c of weight kappa is bounded by the
// sum of the kappa largest row sums, each row sum being itself the sum
// of the kappa largest entries of one rotation of the autocorrelation
// of S.
func nks_norm(s1 []int8, s2 []int8, kappa int) int64 {
	n := len(s1)
	t := make([]int32, n)
	t_wrapped := make([]int32, n)
	max_kappa := make([]int32, n)
	for i := 0; i < n; i++ {
		t[i] = wrapped_product(s1, s1, i) + wrapped_product(s2, s2, i)
	}
	for i := 0; i < n; i++ {
		wrap(t, i, t_wrapped)
		max_kappa[i] = int32(sum_largest(t_wrapped, kappa))
	}
	return sum_largest(max_kappa, kappa)
}

// Compute the inverse of x modulo q as x^(q-2) mod q (q prime, x not
// zero modulo q).
func mq_inv(x uint32, q uint32) uint32 {
	e := q - 2
	x %= q
	r := uint32(1)
	if e&1 != 0 {
		r = x
	}
	x2 := x
	for i := 1; i < bits.Len32(e); i++ {
		x2 = (x2 * x2) % q
		if (e>>uint(i))&1 != 0 {
			r = (r * x2) % q
		}
	}
	return r
}

// Scalar product of two integer vectors.
func scalar_product(x []int32, y []int32) int64 {
	s := int64(0)
	for i := range x {
		s += int64(x[i]) * int64(y[i])
	}
	return s
}

// Map a signed small vector to residues in [0,q).
func small_to_modq(s []int8, q uint32, d []uint32) {
	for i, v := range s {
		if v < 0 {
			d[i] = uint32(int32(q) + int32(v))
		} else {
			d[i] = uint32(v)
		}
	}
}

// Map a signed small vector to the residues of its negation in [0,q).
func small_neg_to_modq(s []int8, q uint32, d []uint32) {
	for i, v := range s {
		if v > 0 {
			d[i] = uint32(int32(q) - int32(v))
		} else {
			d[i] = uint32(-int32(v))
		}
	}
}
