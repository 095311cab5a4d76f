package bliss

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	sha3 "golang.org/x/crypto/sha3"
)

// Deterministic random source: SHAKE256 over a label.
func shake_rng(label string) io.Reader {
	sh := sha3.NewShake256()
	sh.Write([]byte(label))
	return sh
}

// Random source that fails after delivering limit bytes.
type failing_reader struct {
	r     io.Reader
	limit int
}

var errReaderExhausted = errors.New("reader exhausted")

func (f *failing_reader) Read(p []byte) (int, error) {
	if f.limit <= 0 {
		return 0, errReaderExhausted
	}
	if len(p) > f.limit {
		p = p[:f.limit]
	}
	n, err := f.r.Read(p)
	f.limit -= n
	return n, err
}

// Negacyclic schoolbook product modulo (x^n+1, q).
func schoolbook_mul(a []uint32, b []uint32, q uint32) []uint32 {
	n := len(a)
	acc := make([]int64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := int64(a[i]) * int64(b[j])
			k := i + j
			if k >= n {
				acc[k-n] -= v
			} else {
				acc[k] += v
			}
		}
	}
	d := make([]uint32, n)
	for i := range acc {
		d[i] = uint32(mod_pos(acc[i], int64(q)))
	}
	return d
}

// Random polynomial with coefficients in [0,q).
func random_modq(rng io.Reader, n int, q uint32) []uint32 {
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(rng, buf); err != nil {
		panic(err)
	}
	p := make([]uint32, n)
	for i := range p {
		v := uint32(buf[4*i]) | uint32(buf[4*i+1])<<8 |
			uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24
		p[i] = v % q
	}
	return p
}

// Random small vector with coefficients in [-lim, lim].
func random_small(rng io.Reader, n int, lim int) []int8 {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rng, buf); err != nil {
		panic(err)
	}
	v := make([]int8, n)
	for i := range v {
		v[i] = int8(int(buf[i])%(2*lim+1) - lim)
	}
	return v
}

func param_set(t testing.TB, id ParamSetID) *ParamSet {
	t.Helper()
	ps, err := DefaultRegistry().ByID(id)
	require.NoError(t, err)
	return ps
}

// Key pairs are expensive to build; tests share one per set.
var test_keys = map[ParamSetID]*PrivateKey{}

func test_key(t testing.TB, id ParamSetID) *PrivateKey {
	t.Helper()
	if sk, ok := test_keys[id]; ok {
		return sk
	}
	sk, err := GenerateKey(id, shake_rng("test key "+id.String()))
	require.NoError(t, err)
	test_keys[id] = sk
	return sk
}
