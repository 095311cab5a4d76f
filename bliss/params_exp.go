package bliss

import (
	"math/big"

	"github.com/ALTree/bigfloat"
)

// Compute the table used by the exp-Bernoulli sampler: row i holds
// exp(-2^i/(2*sigma^2)) as a big-endian fraction of cols bytes (the
// value is in [0,1), and byte j is the j-th base-256 digit after the
// radix point).
func exp_table(sigma uint32, rows int, cols int) []byte {
	prec := uint(8*cols + 64)
	two_sigma2 := new(big.Float).SetPrec(prec).SetUint64(2 * uint64(sigma) * uint64(sigma))
	radix := new(big.Float).SetPrec(prec).SetInt64(256)
	tab := make([]byte, rows*cols)
	for i := 0; i < rows; i++ {
		x := new(big.Float).SetPrec(prec).SetInt64(int64(1) << i)
		x.Quo(x, two_sigma2)
		x.Neg(x)
		v := bigfloat.Exp(x)
		digit := new(big.Float).SetPrec(prec)
		for j := 0; j < cols; j++ {
			v.Mul(v, radix)
			d, _ := v.Int64()
			tab[i*cols+j] = byte(d)
			digit.SetInt64(d)
			v.Sub(v, digit)
		}
	}
	return tab
}
