package bliss

import (
	"crypto/sha512"
	"fmt"
)

// Inner verification function; returns nil if the signature is valid.
//
// With a*s1 + s2 = 0 mod q and s2 odd, the verifier can recompute
// u - z2 mod 2q as 2*q2_inv*(a*z1) + q*c mod 2q, compress it, and add
// z2d back to obtain the compressed commitment ud. The signature is
// valid if z passes the norm checks and the challenge derived from ud
// equals c.
func verify_inner(ps *ParamSet, a []uint16, message []byte, sig *Signature) error {
	if sig.Set != ps {
		return fmt.Errorf("%w: parameter set mismatch", ErrInvalidSignature)
	}
	n := ps.N
	if len(sig.Z1) != n || len(sig.Z2d) != n || len(sig.C) != ps.Kappa {
		return fmt.Errorf("%w: invalid component lengths", ErrInvalidSignature)
	}
	if !check_norms(ps, sig.Z1, sig.Z2d) {
		return fmt.Errorf("%w: norm check failed", ErrInvalidSignature)
	}
	q := int64(ps.Q)
	q2 := 2 * q
	q2_inv := int64(ps.Q2Inv)
	p := int64(ps.P)

	az := make([]uint32, n)
	A := make([]uint32, n)
	for i := 0; i < n; i++ {
		az[i] = uint32(mod_pos(int64(sig.Z1[i]), q))
		A[i] = uint32(a[i])
	}
	ps.ntt.poly_mul(az, A, az)

	u := make([]int32, n)
	for i := 0; i < n; i++ {
		u[i] = mod_pos(2*q2_inv*int64(az[i]), q2)
	}
	for _, c := range sig.C {
		if int(c) >= n {
			return fmt.Errorf("%w: invalid challenge index", ErrInvalidSignature)
		}
		u[c] = mod_pos(int64(u[c])+q, q2)
	}
	ud := make([]int32, n)
	round_and_drop(ps, u, ud)
	for i := 0; i < n; i++ {
		ud[i] = mod_pos(int64(ud[i])+int64(sig.Z2d[i]), p)
	}

	data_hash := sha512.Sum512(message)
	c := generate_c(ps, data_hash[:], ud)
	for i := range c {
		if c[i] != sig.C[i] {
			return fmt.Errorf("%w: challenge mismatch", ErrInvalidSignature)
		}
	}
	return nil
}
