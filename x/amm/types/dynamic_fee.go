package types

import (
	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

// logPrecision is the number of decimal digits kept by the volatility logarithms.
const logPrecision int32 = 18

// FeeSignal is everything a fee formula may read.
type FeeSignal struct {
	Range    PriceRange
	Reserve0 uint64
	Reserve1 uint64
}

// FeeStrategy turns a fee signal into a fee rate before the cap and the
// intermediary discount are applied.
type FeeStrategy interface {
	Name() string
	ComputeFeeRate(signal FeeSignal, cfg FeeConfig) (uint64, error)
}

var (
	_ FeeStrategy = LogVolatilityStrategy{}
	_ FeeStrategy = LinearVolatilityStrategy{}
)

// LogVolatilityStrategy prices volatility as |ln(max) - ln(min)| / |ln(twap)|
// over the raw X32 prices.
type LogVolatilityStrategy struct{}

func (LogVolatilityStrategy) Name() string { return "log_volatility" }

func (LogVolatilityStrategy) ComputeFeeRate(signal FeeSignal, cfg FeeConfig) (uint64, error) {
	lnMax, err := lnInt(signal.Range.Max)
	if err != nil {
		return 0, err
	}
	lnMin, err := lnInt(signal.Range.Min)
	if err != nil {
		return 0, err
	}
	lnTWAP, err := lnInt(signal.Range.TWAP)
	if err != nil {
		return 0, err
	}
	if lnTWAP.IsZero() {
		return 0, ErrMathOverflow.Wrap("ln(twap) is zero")
	}

	volatility := lnMax.Sub(lnMin).Abs().DivRound(lnTWAP.Abs(), logPrecision)
	component, err := decimalToUint64(volatility.Mul(decimal.NewFromUint64(cfg.VolatilityFactor)).Floor())
	if err != nil {
		return 0, err
	}

	return addComponents(cfg, signal, component)
}

// LinearVolatilityStrategy prices volatility as (max - min) * D / twap and
// scales it by VolatilityFactor / D.
type LinearVolatilityStrategy struct{}

func (LinearVolatilityStrategy) Name() string { return "linear_volatility" }

func (LinearVolatilityStrategy) ComputeFeeRate(signal FeeSignal, cfg FeeConfig) (uint64, error) {
	spread, err := CheckedSub(signal.Range.Max, signal.Range.Min)
	if err != nil {
		return 0, err
	}
	volatility, ok := FloorDiv(spread, feeDenominator(), signal.Range.TWAP)
	if !ok {
		return 0, ErrMathOverflow.Wrap("linear volatility")
	}
	scaled, ok := FloorDiv(volatility, U128(cfg.VolatilityFactor), feeDenominator())
	if !ok {
		return 0, ErrMathOverflow.Wrap("linear volatility component")
	}
	component, err := ToUint64(scaled)
	if err != nil {
		return 0, err
	}

	return addComponents(cfg, signal, component)
}

// addComponents adds the volatility component and, when ImbalanceFactor is
// set, the imbalance component to the base rate.
func addComponents(cfg FeeConfig, signal FeeSignal, volatilityComponent uint64) (uint64, error) {
	rate, err := AddUint64(cfg.BaseFeeRate, volatilityComponent)
	if err != nil {
		return 0, err
	}
	if cfg.ImbalanceFactor == 0 {
		return rate, nil
	}
	imbalance, err := ImbalanceComponent(signal.Reserve0, signal.Reserve1, cfg.ImbalanceFactor)
	if err != nil {
		return 0, err
	}
	return AddUint64(rate, imbalance)
}

// ImbalanceComponent returns floor(factor * |r0*D/(r0+r1) - D/2| / D).
func ImbalanceComponent(reserve0, reserve1, factor uint64) (uint64, error) {
	total, err := CheckedAdd(U128(reserve0), U128(reserve1))
	if err != nil {
		return 0, err
	}
	ratio := sdkmath.ZeroInt()
	if total.IsPositive() {
		var ok bool
		ratio, ok = FloorDiv(U128(reserve0), feeDenominator(), total)
		if !ok {
			return 0, ErrMathOverflow.Wrap("reserve ratio")
		}
	}
	ideal := U128(FeeRateDenominator / 2)
	var deviation sdkmath.Int
	if ratio.GT(ideal) {
		deviation = ratio.Sub(ideal)
	} else {
		deviation = ideal.Sub(ratio)
	}
	component, ok := FloorDiv(deviation, U128(factor), feeDenominator())
	if !ok {
		return 0, ErrMathOverflow.Wrap("imbalance component")
	}
	return ToUint64(component)
}

// DynamicFeeEngine derives the fee rate of a swap from the oracle signal.
type DynamicFeeEngine struct {
	strategy FeeStrategy
}

// NewDynamicFeeEngine returns an engine running strategy, or the logarithmic
// volatility formula when strategy is nil.
func NewDynamicFeeEngine(strategy FeeStrategy) DynamicFeeEngine {
	if strategy == nil {
		strategy = LogVolatilityStrategy{}
	}
	return DynamicFeeEngine{strategy: strategy}
}

// Strategy returns the formula in use.
func (e DynamicFeeEngine) Strategy() FeeStrategy {
	if e.strategy == nil {
		return LogVolatilityStrategy{}
	}
	return e.strategy
}

// CalculateFeeRate reads the oracle window ending at now and returns the fee
// rate for a swap against the given reserves.
func (e DynamicFeeEngine) CalculateFeeRate(
	now uint64,
	buffer *ObservationBuffer,
	reserve0, reserve1 uint64,
	cfg FeeConfig,
	window uint64,
	discountEligible bool,
) (uint64, error) {
	priceRange := SentinelPriceRange()
	if buffer != nil {
		priceRange = buffer.GetPriceRange(now, window)
	}
	return e.FeeRateForSignal(FeeSignal{
		Range:    priceRange,
		Reserve0: reserve0,
		Reserve1: reserve1,
	}, cfg, discountEligible)
}

// FeeRateForSignal applies the strategy, the cap and the discount. The base
// rate is returned untouched when the oracle has too little data or the TWAP
// is at most one.
func (e DynamicFeeEngine) FeeRateForSignal(signal FeeSignal, cfg FeeConfig, discountEligible bool) (uint64, error) {
	if signal.Range.IsSentinel() || signal.Range.TWAP.LTE(sdkmath.OneInt()) {
		return cfg.BaseFeeRate, nil
	}

	rate, err := e.Strategy().ComputeFeeRate(signal, cfg)
	if err != nil {
		return 0, err
	}
	if rate > cfg.MaxFeeRate {
		rate = cfg.MaxFeeRate
	}
	if discountEligible {
		rate = ApplyDiscount(rate)
	}
	return rate, nil
}

func lnInt(x sdkmath.Int) (decimal.Decimal, error) {
	if x.IsNil() || !x.IsPositive() {
		return decimal.Zero, ErrMathOverflow.Wrapf("logarithm of non-positive price %s", x)
	}
	ln, err := decimal.NewFromBigInt(x.BigInt(), 0).Ln(logPrecision)
	if err != nil {
		return decimal.Zero, ErrMathOverflow.Wrapf("logarithm of %s: %v", x, err)
	}
	return ln, nil
}

func decimalToUint64(d decimal.Decimal) (uint64, error) {
	if d.IsNegative() {
		return 0, ErrMathOverflow.Wrapf("negative fee component %s", d)
	}
	i := d.BigInt()
	if !i.IsUint64() {
		return 0, ErrMathOverflow.Wrapf("fee component %s overflows uint64", d)
	}
	return i.Uint64(), nil
}
