package types

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func priceRange(min, max, twap sdkmath.Int) PriceRange {
	return PriceRange{Min: min, Max: max, TWAP: twap}
}

func TestFeeRateSentinelReturnsBase(t *testing.T) {
	engine := NewDynamicFeeEngine(nil)
	cfg := DefaultFeeConfig()

	rate, err := engine.CalculateFeeRate(1_000, NewObservationBuffer(), 1, 1, cfg, 3600, true)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseFeeRate, rate, "no data: base fee, no discount")

	rate, err = engine.FeeRateForSignal(FeeSignal{Range: priceRange(U128(1), U128(5), sdkmath.OneInt())}, cfg, false)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseFeeRate, rate, "twap of one")
}

func TestLogVolatilityFeeRate(t *testing.T) {
	cfg := DefaultFeeConfig()
	engine := NewDynamicFeeEngine(LogVolatilityStrategy{})

	// |ln 2^33 - ln 2^32| / ln 2^32 = 1/32, 30000/32 = 937.5
	rate, err := engine.FeeRateForSignal(FeeSignal{Range: priceRange(Q32, Q32.MulRaw(2), Q32)}, cfg, false)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseFeeRate+937, rate)

	flat, err := engine.FeeRateForSignal(FeeSignal{Range: priceRange(Q32, Q32, Q32)}, cfg, false)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseFeeRate, flat)
}

func TestLinearVolatilityFeeRate(t *testing.T) {
	cfg := DefaultFeeConfig()
	engine := NewDynamicFeeEngine(LinearVolatilityStrategy{})
	require.Equal(t, "linear_volatility", engine.Strategy().Name())

	rate, err := engine.FeeRateForSignal(FeeSignal{Range: priceRange(Q32, Q32.MulRaw(2), Q32)}, cfg, false)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseFeeRate+30_000, rate)
}

func TestFeeRateIsCapped(t *testing.T) {
	cfg := DefaultFeeConfig()
	cfg.VolatilityFactor = 10_000_000

	rate, err := NewDynamicFeeEngine(nil).FeeRateForSignal(
		FeeSignal{Range: priceRange(U128(2), MaxUint128, U128(3))}, cfg, false)
	require.NoError(t, err)
	require.Equal(t, cfg.MaxFeeRate, rate)
}

func TestFeeRateDiscount(t *testing.T) {
	cfg := DefaultFeeConfig()
	engine := NewDynamicFeeEngine(nil)
	flat := FeeSignal{Range: priceRange(Q32, Q32, Q32)}

	rate, err := engine.FeeRateForSignal(flat, cfg, true)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseFeeRate-OneBasisPoint, rate)

	cfg.BaseFeeRate = DiscountThreshold
	rate, err = engine.FeeRateForSignal(flat, cfg, true)
	require.NoError(t, err)
	require.Equal(t, DiscountThreshold, rate, "exactly 10 bps is not discounted")
}

func TestFeeRateLogOfZeroFails(t *testing.T) {
	_, err := NewDynamicFeeEngine(nil).FeeRateForSignal(
		FeeSignal{Range: priceRange(sdkmath.ZeroInt(), U128(5), U128(10))}, DefaultFeeConfig(), false)
	require.ErrorIs(t, err, ErrMathOverflow)
}

func TestImbalanceComponent(t *testing.T) {
	c, err := ImbalanceComponent(3_000, 1_000, 20_000)
	require.NoError(t, err)
	require.Equal(t, uint64(5_000), c)

	c, err = ImbalanceComponent(1_000, 1_000, 20_000)
	require.NoError(t, err)
	require.Zero(t, c)

	cfg := DefaultFeeConfig()
	cfg.ImbalanceFactor = 20_000
	rate, err := NewDynamicFeeEngine(nil).FeeRateForSignal(
		FeeSignal{Range: priceRange(Q32, Q32, Q32), Reserve0: 3_000, Reserve1: 1_000}, cfg, false)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseFeeRate+5_000, rate)
}

func TestFeeHelpers(t *testing.T) {
	fee, err := TradingFee(U128(1_000), 2_500)
	require.NoError(t, err)
	require.Equal(t, uint64(3), fee.Uint64(), "trading fee rounds up")

	p, err := ProtocolFee(U128(3), 120_000)
	require.NoError(t, err)
	require.Zero(t, p.Uint64(), "protocol fee rounds down")

	f, err := FundFee(U128(100), 40_000)
	require.NoError(t, err)
	require.Equal(t, uint64(4), f.Uint64())

	r, err := ReferralShare(U128(999), 2_500)
	require.NoError(t, err)
	require.Equal(t, uint64(249), r.Uint64())

	pre, err := CalculatePreFeeAmount(U128(1_000), 2_500)
	require.NoError(t, err)
	require.Equal(t, uint64(1_003), pre.Uint64())

	pre, err = CalculatePreFeeAmount(U128(1_000), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), pre.Uint64())

	_, err = CalculatePreFeeAmount(U128(1_000), FeeRateDenominator)
	require.ErrorIs(t, err, ErrMathOverflow)

	require.Equal(t, uint64(1_001-OneBasisPoint), ApplyDiscount(1_001))
	require.Equal(t, uint64(1_000), ApplyDiscount(1_000))
}

func TestPropertyPreFeeAmountCoversFee(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		post := rapid.Uint64().Draw(t, "post")
		rate := rapid.Uint64Range(0, FeeRateDenominator-1).Draw(t, "rate")

		pre, err := CalculatePreFeeAmount(U128(post), rate)
		require.NoError(t, err)
		fee, err := TradingFee(pre, rate)
		require.NoError(t, err)
		require.True(t, pre.Sub(fee).GTE(U128(post)))
	})
}

func TestPropertyFeeRateMonotonicAndCapped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		strategy := rapid.SampledFrom([]FeeStrategy{LogVolatilityStrategy{}, LinearVolatilityStrategy{}}).Draw(t, "strategy")
		engine := NewDynamicFeeEngine(strategy)

		cfg := DefaultFeeConfig()
		cfg.VolatilityFactor = rapid.Uint64Range(0, 5_000_000).Draw(t, "volatilityFactor")
		cfg.MaxFeeRate = rapid.Uint64Range(cfg.BaseFeeRate, FeeRateDenominator-1).Draw(t, "maxFeeRate")

		minPrice := rapid.Uint64Range(2, 1<<40).Draw(t, "min")
		lo := rapid.Uint64Range(minPrice, 1<<41).Draw(t, "lo")
		hi := rapid.Uint64Range(lo, 1<<42).Draw(t, "hi")
		twap := rapid.Uint64Range(2, 1<<42).Draw(t, "twap")

		rateLo, err := engine.FeeRateForSignal(FeeSignal{Range: priceRange(U128(minPrice), U128(lo), U128(twap))}, cfg, false)
		require.NoError(t, err)
		rateHi, err := engine.FeeRateForSignal(FeeSignal{Range: priceRange(U128(minPrice), U128(hi), U128(twap))}, cfg, false)
		require.NoError(t, err)

		require.LessOrEqual(t, rateLo, rateHi)
		require.LessOrEqual(t, rateHi, cfg.MaxFeeRate)
		require.GreaterOrEqual(t, rateLo, cfg.BaseFeeRate)
	})
}
