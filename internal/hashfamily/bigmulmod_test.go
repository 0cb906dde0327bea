package hashfamily

import "math/big"

// bigMulMod is a slow, obviously-correct reference implementation of
// mulmod used to cross-check the math/bits-based fast path in tests.
func bigMulMod(a, b, m uint64) uint64 {
	x := new(big.Int).SetUint64(a)
	y := new(big.Int).SetUint64(b)
	mod := new(big.Int).SetUint64(m)
	x.Mul(x, y)
	x.Mod(x, mod)
	return x.Uint64()
}
