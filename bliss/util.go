package bliss

import (
	"crypto/sha512"
	"encoding/binary"
)

// Utility functions.

// Compress values of Z_2q: drop the d low bits with rounding, then
// reduce modulo p. Input values must be in [0,2q).
func round_and_drop(ps *ParamSet, x []int32, xd []int32) {
	half := int32(1) << (ps.D - 1)
	p := int32(ps.P)
	for i := range x {
		xd[i] = ((x[i] + half) >> ps.D) % p
	}
}

// Derive the challenge from the message digest and the compressed
// commitment ud. The hash input is the digest, each ud[i] as a
// big-endian 16-bit word, and a 16-bit round counter. Each byte b_j of
// the 64-byte SHA-512 output yields the index 2*b_j + e_j, where e_j is
// bit j of the big-endian 64-bit integer made of the last eight bytes
// of the output; indices already taken are skipped, and a new round is
// started if kappa distinct indices were not found. The returned
// indices are pairwise distinct, in [0,512).
func generate_c(ps *ParamSet, data_hash []byte, ud []int32) []uint16 {
	n := ps.N
	kappa := ps.Kappa
	buf := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint16(buf[2*i:], uint16(ud[i]))
	}
	c := make([]uint16, 0, kappa)
	taken := make([]bool, n)
	h := sha512.New()
	var hash [sha512.Size]byte
	var rb [2]byte
	for rounds := uint16(0); ; rounds++ {
		h.Reset()
		h.Write(data_hash)
		h.Write(buf)
		binary.BigEndian.PutUint16(rb[:], rounds)
		h.Write(rb[:])
		h.Sum(hash[:0])

		c = c[:0]
		clear(taken)
		extra := binary.BigEndian.Uint64(hash[len(hash)-8:])
		for j := 0; j < len(hash); j++ {
			index := 2*uint16(hash[j]) + uint16(extra&1)
			extra >>= 1
			if !taken[index] {
				c = append(c, index)
				taken[index] = true
				if len(c) == kappa {
					return c
				}
			}
		}
	}
}

// Check z1 and z2d against the infinity and L2 bounds: |z1[i]| and
// |z2d[i] << d| at most B_inf, sum of squares at most B_l2.
func check_norms(ps *ParamSet, z1 []int32, z2d []int32) bool {
	binf := int64(ps.BInf)
	l2 := int64(0)
	for i := range z1 {
		a := int64(z1[i])
		b := int64(z2d[i]) << ps.D
		if a > binf || a < -binf || b > binf || b < -binf {
			return false
		}
		l2 += a*a + b*b
	}
	return l2 <= ps.BL2
}

// Reduce x modulo m into [0,m).
func mod_pos(x int64, m int64) int32 {
	x %= m
	if x < 0 {
		x += m
	}
	return int32(x)
}

// Center x, taken modulo p, into (-p/2, p/2].
func center_modp(x int32, p int32) int32 {
	x %= p
	if x <= -(p >> 1) {
		x += p
	} else if x > (p >> 1) {
		x -= p
	}
	return x
}

func wipe_bytes(b []byte) {
	clear(b)
}

func wipe_i8(v []int8) {
	clear(v)
}

func wipe_i32(v []int32) {
	clear(v)
}

func wipe_u32(v []uint32) {
	clear(v)
}

func wipe_u64(v []uint64) {
	clear(v)
}
