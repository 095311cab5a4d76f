package bliss

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// Signature with extreme coefficient values; it does not verify but
// must survive encoding.
func extreme_signature(ps *ParamSet) *Signature {
	sig := &Signature{
		Set: ps,
		Z1:  make([]int32, ps.N),
		Z2d: make([]int32, ps.N),
		C:   make([]uint16, ps.Kappa),
	}
	half := int32(ps.P / 2)
	for i := 0; i < ps.N; i++ {
		switch i % 4 {
		case 0:
			sig.Z1[i] = ps.BInf - 1
			sig.Z2d[i] = half
		case 1:
			sig.Z1[i] = -(ps.BInf - 1)
			sig.Z2d[i] = -half + 1
		case 2:
			sig.Z1[i] = 0
			sig.Z2d[i] = 0
		default:
			sig.Z1[i] = -1
			sig.Z2d[i] = -1
		}
	}
	for i := range sig.C {
		sig.C[i] = uint16(ps.N - 1 - 7*i)
	}
	return sig
}

func TestSignatureCodecRoundTrip(t *testing.T) {
	for _, ps := range DefaultRegistry().Sets() {
		sig := extreme_signature(ps)
		data := sig.Bytes()
		require.Len(t, data, ps.SignatureSize())
		require.Equal(t, byte(0x40|byte(ps.ID)), data[0])

		sig2, err := ParseSignature(ps, data)
		require.NoError(t, err, ps.Name)
		require.Same(t, ps, sig2.Set)
		require.Equal(t, sig.Z1, sig2.Z1)
		require.Equal(t, sig.Z2d, sig2.Z2d)
		require.Equal(t, sig.C, sig2.C)
		require.Equal(t, data, sig2.Bytes())
	}
}

func TestSignatureCodecErrors(t *testing.T) {
	ps := param_set(t, BLISS_I)
	data := extreme_signature(ps).Bytes()

	check := func(name string, data []byte) {
		_, err := ParseSignature(ps, data)
		require.True(t, errors.Is(err, ErrInvalidSignature), "%s: %v", name, err)
	}
	check("empty", nil)
	check("short", data[:len(data)-1])
	check("long", append(bytes.Clone(data), 0))

	bad := bytes.Clone(data)
	bad[0] = 0x43
	check("header of another set", bad)

	// The encoded bit length is not a multiple of 8 for BLISS-I; the
	// last bit is padding.
	bad = bytes.Clone(data)
	bad[len(bad)-1] |= 1
	check("padding", bad)

	// z1[0] = -2048 is outside B_inf.
	bad = bytes.Clone(data)
	bad[1] = 0x80
	bad[2] &= 0x0F
	check("z1 out of range", bad)

	// Two identical challenge indices.
	sig := extreme_signature(ps)
	sig.C[1] = sig.C[0]
	check("duplicate index", sig.Bytes())
}

func TestSignatureCodecZ2dRange(t *testing.T) {
	// BLISS-III: p = 48 in 6 bits, so 48..63 are invalid encodings.
	ps := param_set(t, BLISS_III)
	sig := extreme_signature(ps)
	data := sig.Bytes()

	// z2d[0] starts right after the N z1 fields.
	off := ps.N * int(ps.Z1Bits)
	bad := bytes.Clone(data)
	w := bit_writer{dst: bad[1+off/8:]}
	w.put(63, ps.z2d_bits())
	w.put(uint32(mod_pos(int64(sig.Z2d[1]), int64(ps.P)))>>4, 2)
	_, err := ParseSignature(ps, bad)
	require.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestBitWriterReader(t *testing.T) {
	buf := make([]byte, 4)
	w := bit_writer{dst: buf}
	w.put(0x5, 3)
	w.put(0x1FF, 9)
	w.put(0x2, 2)
	require.Equal(t, 2, w.flush())
	require.Equal(t, []byte{0xBF, 0xF8}, buf[:2])

	r := bit_reader{src: buf[:2]}
	v, err := r.get(3)
	require.NoError(t, err)
	require.Equal(t, uint32(0x5), v)
	v, err = r.get(9)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1FF), v)
	v, err = r.get(2)
	require.NoError(t, err)
	require.Equal(t, uint32(0x2), v)
	require.NoError(t, r.finish())
	_, err = r.get(8)
	require.Error(t, err)
}

func TestNormBoundsInclusive(t *testing.T) {
	for _, ps := range DefaultRegistry().Sets() {
		z1 := make([]int32, ps.N)
		z2d := make([]int32, ps.N)
		z1[0] = ps.BInf
		z1[1] = -ps.BInf
		require.True(t, check_norms(ps, z1, z2d), ps.Name)

		// A coefficient of exactly B_inf survives encoding.
		sig := extreme_signature(ps)
		sig.Z1[0] = ps.BInf
		sig.Z1[1] = -ps.BInf
		sig2, err := ParseSignature(ps, sig.Bytes())
		require.NoError(t, err, ps.Name)
		require.Equal(t, sig.Z1, sig2.Z1)

		z1[0] = ps.BInf + 1
		require.False(t, check_norms(ps, z1, z2d), ps.Name)
		z1[0] = 0
		z1[1] = -ps.BInf - 1
		require.False(t, check_norms(ps, z1, z2d), ps.Name)

		// The L2 bound is inclusive too.
		z1[1] = 0
		custom := *ps
		custom.BL2 = int64(ps.BInf) * int64(ps.BInf)
		z1[0] = ps.BInf
		require.True(t, check_norms(&custom, z1, z2d), ps.Name)
		custom.BL2--
		require.False(t, check_norms(&custom, z1, z2d), ps.Name)
	}
}
