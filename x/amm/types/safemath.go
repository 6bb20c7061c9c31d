package types

import (
	"math/big"
	"math/bits"

	sdkmath "cosmossdk.io/math"
)

// Fixed-point arithmetic for reserve, fee and LP quantities.
//
// Token amounts are uint64. Every intermediate product is carried in a
// sdkmath.Int bounded to 128 bits, which is the working width of the pool
// math: anything wider fails with ErrMathOverflow instead of wrapping.

// MaxUint128 is the largest intermediate value the pool math accepts.
var MaxUint128 = sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)))

// twoPow128 is the modulus of the wrapping oracle accumulators.
var twoPow128 = new(big.Int).Lsh(big.NewInt(1), 128)

// U128 lifts a token amount into the working width.
func U128(x uint64) sdkmath.Int {
	return sdkmath.NewIntFromUint64(x)
}

func checkWidth(op string, xs ...sdkmath.Int) error {
	for _, x := range xs {
		if x.IsNil() {
			return ErrMathOverflow.Wrapf("%s: nil operand", op)
		}
		if x.IsNegative() {
			return ErrMathOverflow.Wrapf("%s: negative operand %s", op, x)
		}
		if x.GT(MaxUint128) {
			return ErrMathOverflow.Wrapf("%s: %s exceeds 128 bits", op, x)
		}
	}
	return nil
}

// CheckedAdd returns a+b or ErrMathOverflow when the sum leaves the working width.
func CheckedAdd(a, b sdkmath.Int) (sdkmath.Int, error) {
	if err := checkWidth("add", a, b); err != nil {
		return sdkmath.ZeroInt(), err
	}
	sum, err := a.SafeAdd(b)
	if err != nil {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("add: %v", err)
	}
	if err := checkWidth("add", sum); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrMathOverflow on underflow.
func CheckedSub(a, b sdkmath.Int) (sdkmath.Int, error) {
	if err := checkWidth("sub", a, b); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if a.LT(b) {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("sub: %s - %s underflows", a, b)
	}
	return a.Sub(b), nil
}

// CheckedMul returns a*b or ErrMathOverflow when the product leaves the working width.
func CheckedMul(a, b sdkmath.Int) (sdkmath.Int, error) {
	if err := checkWidth("mul", a, b); err != nil {
		return sdkmath.ZeroInt(), err
	}
	product, err := a.SafeMul(b)
	if err != nil {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("mul: %v", err)
	}
	if err := checkWidth("mul", product); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return product, nil
}

// CheckedDiv returns floor(a/b) or ErrMathOverflow when b is zero.
func CheckedDiv(a, b sdkmath.Int) (sdkmath.Int, error) {
	if err := checkWidth("div", a, b); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if b.IsZero() {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrap("div: division by zero")
	}
	return a.Quo(b), nil
}

// CheckedRem returns a mod b or ErrMathOverflow when b is zero.
func CheckedRem(a, b sdkmath.Int) (sdkmath.Int, error) {
	if err := checkWidth("rem", a, b); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if b.IsZero() {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrap("rem: division by zero")
	}
	return a.Mod(b), nil
}

// CheckedCeilQuo returns ceil(a/b).
func CheckedCeilQuo(a, b sdkmath.Int) (sdkmath.Int, error) {
	q, err := CheckedDiv(a, b)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !a.Mod(b).IsZero() {
		return CheckedAdd(q, sdkmath.OneInt())
	}
	return q, nil
}

// CeilDiv computes ceil(numerator*factor/denominator). The second return is
// false on overflow or a zero denominator. Callers use it when rounding up
// favours the pool.
func CeilDiv(numerator, factor, denominator sdkmath.Int) (sdkmath.Int, bool) {
	if denominator.IsNil() || denominator.IsZero() {
		return sdkmath.ZeroInt(), false
	}
	product, err := CheckedMul(numerator, factor)
	if err != nil {
		return sdkmath.ZeroInt(), false
	}
	padded, err := CheckedAdd(product, denominator)
	if err != nil {
		return sdkmath.ZeroInt(), false
	}
	padded = padded.Sub(sdkmath.OneInt())
	return padded.Quo(denominator), true
}

// FloorDiv computes floor(numerator*factor/denominator). The second return is
// false on overflow or a zero denominator. Callers use it when rounding down
// favours the pool.
func FloorDiv(numerator, factor, denominator sdkmath.Int) (sdkmath.Int, bool) {
	if denominator.IsNil() || denominator.IsZero() {
		return sdkmath.ZeroInt(), false
	}
	product, err := CheckedMul(numerator, factor)
	if err != nil {
		return sdkmath.ZeroInt(), false
	}
	return product.Quo(denominator), true
}

// ToUint64 narrows a working-width value back to a token amount.
func ToUint64(x sdkmath.Int) (uint64, error) {
	if x.IsNil() || x.IsNegative() || !x.IsUint64() {
		return 0, ErrMathOverflow.Wrapf("%s does not fit in uint64", x)
	}
	return x.Uint64(), nil
}

// AddUint64 adds two token amounts with overflow checking.
func AddUint64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow.Wrapf("uint64 addition overflow: %d + %d", a, b)
	}
	return sum, nil
}

// SubUint64 subtracts two token amounts with underflow checking.
func SubUint64(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrMathOverflow.Wrapf("uint64 subtraction underflow: %d - %d", a, b)
	}
	return diff, nil
}

// MulUint64 multiplies two token amounts with overflow checking.
func MulUint64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrMathOverflow.Wrapf("uint64 multiplication overflow: %d * %d", a, b)
	}
	return lo, nil
}

// SaturatingSubUint64 returns a-b, or zero when b > a.
func SaturatingSubUint64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// WrappingAdd128 returns (a+b) mod 2^128. Only the oracle accumulators use it.
func WrappingAdd128(a, b sdkmath.Int) sdkmath.Int {
	sum := new(big.Int).Add(a.BigInt(), b.BigInt())
	return sdkmath.NewIntFromBigInt(sum.Mod(sum, twoPow128))
}

// WrappingSub128 returns (a-b) mod 2^128.
func WrappingSub128(a, b sdkmath.Int) sdkmath.Int {
	diff := new(big.Int).Sub(a.BigInt(), b.BigInt())
	return sdkmath.NewIntFromBigInt(diff.Mod(diff, twoPow128))
}

// WrappingMul128 returns (a*b) mod 2^128.
func WrappingMul128(a, b sdkmath.Int) sdkmath.Int {
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return sdkmath.NewIntFromBigInt(product.Mod(product, twoPow128))
}

// IntSqrt returns floor(sqrt(x)).
func IntSqrt(x sdkmath.Int) sdkmath.Int {
	if x.IsNil() || !x.IsPositive() {
		return sdkmath.ZeroInt()
	}
	return sdkmath.NewIntFromBigInt(new(big.Int).Sqrt(x.BigInt()))
}
