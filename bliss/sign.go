package bliss

import (
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/montanaflynn/stats"

	"github.com/benjivesterby/go-bliss/internal/log"
)

// Inner signature function. The secret key (s1, s2, a) is only read.
//
// Each round draws a fresh sampler seed, samples y1 and y2, computes
// the commitment u = 2*q2_inv*(a*y1) + y2 mod 2q and its compression
// ud, derives the challenge c from the message digest and ud, and then
// accepts z = y + b*S*c through three gates: the exp gate (repetition
// rate M), the cosh gate (bimodal correction) and the norm check on
// (z1, z2d). Any rejection starts a new round; any failure of the
// random source or of the sampler aborts.
func sign_inner(ps *ParamSet, s1 []int8, s2 []int8, a []uint16,
	rng io.Reader, mk sampler_factory, message []byte) (sig *Signature, err error) {

	n := ps.N
	q := int64(ps.Q)
	q2 := 2 * q
	q2_inv := int64(ps.Q2Inv)
	p := int32(ps.P)

	data_hash := sha512.Sum512(message)
	_, seed_len := mgf1_hash(ps.Strength)
	seed := make([]byte, seed_len)

	A := make([]uint32, n)
	ay := make([]uint32, n)
	y1 := make([]int32, n)
	y2 := make([]int32, n)
	z1 := make([]int32, n)
	z2 := make([]int32, n)
	u := make([]int32, n)
	ud := make([]int32, n)
	uz2d := make([]int32, n)
	z2d := make([]int32, n)
	s1c := make([]int32, n)
	s2c := make([]int32, n)
	var smp gaussian_sampler
	defer func() {
		if err != nil {
			wipe_i32(z1)
			wipe_i32(z2d)
		}
		if smp != nil {
			smp.wipe()
		}
		wipe_bytes(seed)
		wipe_u32(A)
		wipe_u32(ay)
		wipe_i32(y1)
		wipe_i32(y2)
		wipe_i32(z2)
		wipe_i32(u)
		wipe_i32(ud)
		wipe_i32(uz2d)
		wipe_i32(s1c)
		wipe_i32(s2c)
	}()

	for i := 0; i < n; i++ {
		A[i] = uint32(a[i])
	}
	ps.ntt.forward(A, A)

	lg := logger().With("set", ps.Name)
	debug := lg.Enabled(levelDebug)
	rounds := 0
	for {
		rounds++

		if _, err := io.ReadFull(rng, seed); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRandomness, err)
		}
		if smp != nil {
			smp.wipe()
		}
		smp = mk(ps, seed)

		// Gaussian sampling for vectors y1 and y2.
		for i := 0; i < n; i++ {
			v1, err := smp.gaussian()
			if err != nil {
				return nil, err
			}
			v2, err := smp.gaussian()
			if err != nil {
				return nil, err
			}
			y1[i] = v1
			y2[i] = v2
			ay[i] = uint32(mod_pos(int64(v1), q))
		}
		if debug {
			log_gaussian_stats(lg, rounds, y1, y2)
		}

		// u = 2*q2_inv*(a*y1) + y2 mod 2q
		ps.ntt.forward(ay, ay)
		ps.ntt.mul(ay, A, ay)
		ps.ntt.inverse(ay, ay)
		for i := 0; i < n; i++ {
			u[i] = mod_pos(2*q2_inv*int64(ay[i])+int64(y2[i]), q2)
		}
		round_and_drop(ps, u, ud)

		c := generate_c(ps, data_hash[:], ud)
		poly_mul_c(s1, c, s1c)
		poly_mul_c(s2, c, s2c)

		// Reject with probability 1/(M*exp(-norm/(2*sigma^2))).
		norm := scalar_product(s1c, s1c) + scalar_product(s2c, s2c)
		margin := uint32(0)
		if norm < int64(ps.M) {
			margin = ps.M - uint32(norm)
		}
		accepted, err := smp.bernoulli_exp(margin)
		if err != nil {
			return nil, err
		}
		if debug {
			lg.Debug("exp gate", "round", rounds, "norm", norm, "accepted", accepted)
		}
		if !accepted {
			continue
		}

		positive, err := smp.sign()
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			if positive {
				z1[i] = y1[i] + s1c[i]
				z2[i] = y2[i] + s2c[i]
			} else {
				z1[i] = y1[i] - s1c[i]
				z2[i] = y2[i] - s2c[i]
			}
		}

		// Reject with probability 1/cosh(scalar/sigma^2).
		scalar := scalar_product(z1, s1c) + scalar_product(z2, s2c)
		accepted, err = smp.bernoulli_cosh(clamp_i32(scalar))
		if err != nil {
			return nil, err
		}
		if debug {
			lg.Debug("cosh gate", "round", rounds, "scalar", scalar, "accepted", accepted)
		}
		if !accepted {
			continue
		}

		// z2d = ud - round_and_drop(u - z2), centred modulo p.
		for i := 0; i < n; i++ {
			u[i] = mod_pos(int64(u[i])-int64(z2[i]), q2)
		}
		round_and_drop(ps, u, uz2d)
		for i := 0; i < n; i++ {
			z2d[i] = center_modp(ud[i]-uz2d[i], p)
		}

		if !check_norms(ps, z1, z2d) {
			if debug {
				lg.Debug("norm check failed", "round", rounds)
			}
			continue
		}
		if debug {
			lg.Debug("signature generated", "rounds", rounds)
		}
		return &Signature{Set: ps, Z1: z1, Z2d: z2d, C: c}, nil
	}
}

func clamp_i32(x int64) int32 {
	if x > 1<<31-1 {
		return 1<<31 - 1
	}
	if x < -(1<<31 - 1) {
		return -(1<<31 - 1)
	}
	return int32(x)
}

// Log range, mean and variance of the sampled vectors.
func log_gaussian_stats(lg *log.Logger, round int, y1 []int32, y2 []int32) {
	describe := func(y []int32) []any {
		d := make(stats.Float64Data, len(y))
		for i, v := range y {
			d[i] = float64(v)
		}
		lo, _ := stats.Min(d)
		hi, _ := stats.Max(d)
		mean, _ := stats.Mean(d)
		variance, _ := stats.PopulationVariance(d)
		return []any{"min", lo, "max", hi, "mean", mean, "variance", variance}
	}
	lg.Debug("sampled y1", append([]any{"round", round}, describe(y1)...)...)
	lg.Debug("sampled y2", append([]any{"round", round}, describe(y2)...)...)
}
