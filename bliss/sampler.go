package bliss

// Sampling primitives used by the signature loop. The signer only sees
// this interface, so tests can substitute scripted implementations.
type gaussian_sampler interface {
	// Sample an integer from the discrete Gaussian of standard
	// deviation sigma, centred on zero.
	gaussian() (int32, error)

	// Return true with probability exp(-x/(2*sigma^2)).
	bernoulli_exp(x uint32) (bool, error)

	// Return true with probability 1/cosh(x/sigma^2).
	bernoulli_cosh(x int32) (bool, error)

	// Return a uniform sign bit (true for +1).
	sign() (bool, error)

	// Erase the internal state.
	wipe()
}

// Constructor for a fresh sampler over a given seed.
type sampler_factory func(ps *ParamSet, seed []byte) gaussian_sampler

// Sampler state: a bit spender over an MGF1 stream, and the parameter
// set providing sigma and the exp table. This is the sampler of the
// BLISS paper (section 6): a binary positive Gaussian of parameter
// sigma2 = sqrt(1/(2 ln 2)) is scaled by k = KSigma, and the result is
// corrected by an exp-Bernoulli rejection.
type sampler struct {
	ps *ParamSet
	bs *bitspender
}

func new_sampler(ps *ParamSet, seed []byte) gaussian_sampler {
	h, _ := mgf1_hash(ps.Strength)
	s := new(sampler)
	s.ps = ps
	s.bs = new_bitspender(h, seed)
	return s
}

func (s *sampler) wipe() {
	s.bs.wipe()
}

func (s *sampler) bernoulli_exp(x uint32) (bool, error) {
	rows := s.ps.c_rows
	if rows < 32 && (x>>uint(rows)) != 0 {
		// exp(-x/(2*sigma^2)) is negligible beyond the table.
		return false, nil
	}
	for i := rows - 1; i >= 0; i-- {
		if (x>>uint(i))&1 == 0 {
			continue
		}
		c := s.ps.c[i*c_cols : (i+1)*c_cols]
		for j := 0; j < c_cols; j++ {
			u, err := s.bs.get_byte()
			if err != nil {
				return false, err
			}
			if u < c[j] {
				break
			}
			if u > c[j] {
				return false, nil
			}
		}
	}
	return true, nil
}

func (s *sampler) bernoulli_cosh(x int32) (bool, error) {
	if x < 0 {
		x = -x
	}
	ux := 2 * uint32(x)
	for {
		ok, err := s.bernoulli_exp(ux)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		u, err := s.bs.get_bits(1)
		if err != nil {
			return false, err
		}
		if u != 0 {
			continue
		}
		ok, err = s.bernoulli_exp(ux)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
}

// Sample from the positive binary Gaussian: Pr[x] is proportional to
// 2^(-x^2).
func (s *sampler) pos_binary() (uint32, error) {
	for {
		// Running past pos_binary_max or drawing a word with any bit
		// other than the lowest one set restarts the walk.
		for i := uint32(0); i <= pos_binary_max; i++ {
			n := uint(1)
			if i > 0 {
				n = uint(2*i - 1)
			}
			u, err := s.bs.get_bits(n)
			if err != nil {
				return 0, err
			}
			if u == 0 {
				return i, nil
			}
			if (u >> 1) != 0 {
				break
			}
		}
	}
}

func (s *sampler) gaussian() (int32, error) {
	k := s.ps.KSigma
	for {
		x, err := s.pos_binary()
		if err != nil {
			return 0, err
		}
		var y uint32
		for {
			y, err = s.bs.get_bits(s.ps.KSigmaBits)
			if err != nil {
				return 0, err
			}
			if y < k {
				break
			}
		}
		ok, err := s.bernoulli_exp(y * (y + 2*k*x))
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		u, err := s.bs.get_bits(1)
		if err != nil {
			return 0, err
		}
		if x|y|u == 0 {
			// Zero would otherwise be sampled twice as often.
			continue
		}
		z := int32(k*x + y)
		if u == 0 {
			z = -z
		}
		return z, nil
	}
}

func (s *sampler) sign() (bool, error) {
	u, err := s.bs.get_bits(1)
	if err != nil {
		return false, err
	}
	return u != 0, nil
}
