package bliss

import (
	"fmt"
)

// Signature holds the three components of a BLISS signature.
//
//   - Z1 has N coefficients, bounded by the parameter set's B_inf.
//   - Z2d has N coefficients in (-P/2, P/2], the difference of two
//     compressed commitments.
//   - C holds the Kappa distinct positions of the binary challenge.
//
// Encoded, a signature is a header byte 0x40|id followed by the z1
// coefficients (Z1Bits each, two's complement), the z2d coefficients
// modulo P (bit length of P-1 each) and the challenge indices (NBits
// each), packed most significant bit first and zero-padded to a byte.
type Signature struct {
	Set *ParamSet
	Z1  []int32
	Z2d []int32
	C   []uint16
}

func signature_header(ps *ParamSet) byte {
	return 0x40 | byte(ps.ID)
}

// Fixed-width bit packer, most significant bit first.
type bit_writer struct {
	dst     []byte
	j       int
	acc     uint32
	acc_len uint
}

func (w *bit_writer) put(v uint32, nbits uint) {
	w.acc = (w.acc << nbits) | (v & ((uint32(1) << nbits) - 1))
	w.acc_len += nbits
	for w.acc_len >= 8 {
		w.acc_len -= 8
		w.dst[w.j] = uint8(w.acc >> w.acc_len)
		w.j++
	}
}

func (w *bit_writer) flush() int {
	if w.acc_len > 0 {
		w.dst[w.j] = uint8(w.acc << (8 - w.acc_len))
		w.j++
		w.acc_len = 0
	}
	return w.j
}

type bit_reader struct {
	src     []byte
	j       int
	acc     uint32
	acc_len uint
}

func (r *bit_reader) get(nbits uint) (uint32, error) {
	for r.acc_len < nbits {
		if r.j >= len(r.src) {
			return 0, fmt.Errorf("%w: truncated", ErrInvalidSignature)
		}
		r.acc = (r.acc << 8) | uint32(r.src[r.j])
		r.j++
		r.acc_len += 8
	}
	r.acc_len -= nbits
	return (r.acc >> r.acc_len) & ((uint32(1) << nbits) - 1), nil
}

// Remaining bits in the last byte must be zero, and the source must be
// fully consumed.
func (r *bit_reader) finish() error {
	if (r.acc & ((uint32(1) << r.acc_len) - 1)) != 0 {
		return fmt.Errorf("%w: non-zero padding bits", ErrInvalidSignature)
	}
	if r.j != len(r.src) {
		return fmt.Errorf("%w: trailing data", ErrInvalidSignature)
	}
	return nil
}

// Bytes encodes the signature.
func (sig *Signature) Bytes() []byte {
	ps := sig.Set
	out := make([]byte, ps.SignatureSize())
	out[0] = signature_header(ps)
	w := bit_writer{dst: out[1:]}
	p := int32(ps.P)
	z2_bits := ps.z2d_bits()
	for _, v := range sig.Z1 {
		w.put(uint32(v), ps.Z1Bits)
	}
	for _, v := range sig.Z2d {
		w.put(uint32(mod_pos(int64(v), int64(p))), z2_bits)
	}
	for _, v := range sig.C {
		w.put(uint32(v), ps.NBits)
	}
	w.flush()
	return out
}

// ParseSignature decodes a signature for the given parameter set. The
// header must match the set; coefficients are range-checked (z1 within
// B_inf, z2d below P, challenge indices distinct and below N) but the
// norm bounds are left to verification.
func ParseSignature(ps *ParamSet, data []byte) (*Signature, error) {
	if len(data) != ps.SignatureSize() {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrInvalidSignature, ps.SignatureSize(), len(data))
	}
	if data[0] != signature_header(ps) {
		return nil, fmt.Errorf("%w: header 0x%02X is not for %s",
			ErrInvalidSignature, data[0], ps.Name)
	}
	n := ps.N
	sig := &Signature{
		Set: ps,
		Z1:  make([]int32, n),
		Z2d: make([]int32, n),
		C:   make([]uint16, ps.Kappa),
	}
	r := bit_reader{src: data[1:]}
	sbit := uint32(1) << (ps.Z1Bits - 1)
	for i := 0; i < n; i++ {
		w, err := r.get(ps.Z1Bits)
		if err != nil {
			return nil, err
		}
		v := int32(w) - int32((w&sbit)<<1)
		if v > ps.BInf || v < -ps.BInf {
			return nil, fmt.Errorf("%w: z1[%d] out of range", ErrInvalidSignature, i)
		}
		sig.Z1[i] = v
	}
	p := ps.P
	z2_bits := ps.z2d_bits()
	for i := 0; i < n; i++ {
		w, err := r.get(z2_bits)
		if err != nil {
			return nil, err
		}
		if w >= p {
			return nil, fmt.Errorf("%w: z2d[%d] out of range", ErrInvalidSignature, i)
		}
		sig.Z2d[i] = center_modp(int32(w), int32(p))
	}
	taken := make([]bool, n)
	for i := 0; i < ps.Kappa; i++ {
		w, err := r.get(ps.NBits)
		if err != nil {
			return nil, err
		}
		if int(w) >= n || taken[w] {
			return nil, fmt.Errorf("%w: invalid challenge index", ErrInvalidSignature)
		}
		taken[w] = true
		sig.C[i] = uint16(w)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return sig, nil
}
