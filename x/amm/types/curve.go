package types

import (
	sdkmath "cosmossdk.io/math"
)

// TradeDirection is the side of the pool a swap draws from.
type TradeDirection uint8

const (
	// ZeroForOne sells token 0 into the pool for token 1.
	ZeroForOne TradeDirection = iota
	// OneForZero sells token 1 into the pool for token 0.
	OneForZero
)

func (d TradeDirection) String() string {
	if d == ZeroForOne {
		return "zero_for_one"
	}
	return "one_for_zero"
}

// Opposite returns the reverse direction.
func (d TradeDirection) Opposite() TradeDirection {
	if d == ZeroForOne {
		return OneForZero
	}
	return ZeroForOne
}

// RoundDirection selects floor or ceiling for LP conversions.
type RoundDirection uint8

const (
	// RoundFloor rounds toward zero. Used when tokens leave the pool.
	RoundFloor RoundDirection = iota
	// RoundCeiling rounds away from zero. Used when tokens enter the pool.
	RoundCeiling
)

// LockedLiquidity is the LP amount minted at pool creation and never redeemable.
const LockedLiquidity uint64 = 100

// TradingTokenResult holds the token amounts backing an LP token amount.
type TradingTokenResult struct {
	Token0Amount sdkmath.Int
	Token1Amount sdkmath.Int
}

// SwapBaseInputWithoutFees returns floor(amountIn*reserveOut/(reserveIn+amountIn)).
func SwapBaseInputWithoutFees(amountIn, reserveIn, reserveOut sdkmath.Int) (sdkmath.Int, error) {
	numerator, err := CheckedMul(amountIn, reserveOut)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	denominator, err := CheckedAdd(reserveIn, amountIn)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return CheckedDiv(numerator, denominator)
}

// SwapBaseOutputWithoutFees returns ceil(reserveIn*amountOut/(reserveOut-amountOut)),
// the input needed to take amountOut out of the pool.
func SwapBaseOutputWithoutFees(amountOut, reserveIn, reserveOut sdkmath.Int) (sdkmath.Int, error) {
	if amountOut.GTE(reserveOut) {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("output %s drains reserve %s", amountOut, reserveOut)
	}
	numerator, err := CheckedMul(reserveIn, amountOut)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	denominator, err := CheckedSub(reserveOut, amountOut)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return CheckedCeilQuo(numerator, denominator)
}

// LpTokensToTradingTokens converts an LP amount into the share of each reserve
// it represents. Under RoundCeiling one unit is added to a token only when the
// division left a remainder and the floored amount is non-zero, so a deposit
// too small to move a token still reports zero for it.
//
// The second return is false on overflow or zero supply.
func LpTokensToTradingTokens(
	lpTokenAmount, lpTokenSupply, reserve0, reserve1 sdkmath.Int,
	round RoundDirection,
) (*TradingTokenResult, bool) {
	if lpTokenSupply.IsNil() || lpTokenSupply.IsZero() {
		return nil, false
	}

	token0, ok := FloorDiv(lpTokenAmount, reserve0, lpTokenSupply)
	if !ok {
		return nil, false
	}
	token1, ok := FloorDiv(lpTokenAmount, reserve1, lpTokenSupply)
	if !ok {
		return nil, false
	}

	if round == RoundCeiling {
		// the products above already fit, so these cannot fail
		rem0 := lpTokenAmount.Mul(reserve0).Mod(lpTokenSupply)
		if rem0.IsPositive() && token0.IsPositive() {
			token0 = token0.AddRaw(1)
		}
		rem1 := lpTokenAmount.Mul(reserve1).Mod(lpTokenSupply)
		if rem1.IsPositive() && token1.IsPositive() {
			token1 = token1.AddRaw(1)
		}
	}

	return &TradingTokenResult{
		Token0Amount: token0,
		Token1Amount: token1,
	}, true
}

// ValidateSupply rejects pools with an empty side.
func ValidateSupply(reserve0, reserve1 uint64) error {
	if reserve0 == 0 {
		return ErrEmptySupply.Wrap("token_0 reserve is zero")
	}
	if reserve1 == 0 {
		return ErrEmptySupply.Wrap("token_1 reserve is zero")
	}
	return nil
}

// InitialLiquidity returns floor(sqrt(amount0*amount1)), the LP supply minted
// when a pool is created.
func InitialLiquidity(amount0, amount1 uint64) (uint64, error) {
	product, err := CheckedMul(U128(amount0), U128(amount1))
	if err != nil {
		return 0, err
	}
	return ToUint64(IntSqrt(product))
}

// ConstantProduct returns reserve0*reserve1 in the working width.
func ConstantProduct(reserve0, reserve1 sdkmath.Int) (sdkmath.Int, error) {
	return CheckedMul(reserve0, reserve1)
}
