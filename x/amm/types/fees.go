package types

import (
	sdkmath "cosmossdk.io/math"
)

const (
	// OneBasisPoint in fee-rate units.
	OneBasisPoint uint64 = 100

	// DiscountThreshold is the rate above which an eligible intermediary gets
	// OneBasisPoint off.
	DiscountThreshold uint64 = 10 * OneBasisPoint

	// BasisPointsDenominator is 100% in referral share units.
	BasisPointsDenominator uint64 = 10_000
)

func feeDenominator() sdkmath.Int {
	return U128(FeeRateDenominator)
}

// TradingFee is the fee charged on amount at rate, rounded up.
func TradingFee(amount sdkmath.Int, rate uint64) (sdkmath.Int, error) {
	fee, ok := CeilDiv(amount, U128(rate), feeDenominator())
	if !ok {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("trading fee on %s at rate %d", amount, rate)
	}
	return fee, nil
}

// ProtocolFee is the protocol share of a trading fee, rounded down.
func ProtocolFee(tradeFee sdkmath.Int, rate uint64) (sdkmath.Int, error) {
	fee, ok := FloorDiv(tradeFee, U128(rate), feeDenominator())
	if !ok {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("protocol fee on %s at rate %d", tradeFee, rate)
	}
	return fee, nil
}

// FundFee is the fund share of a trading fee, rounded down.
func FundFee(tradeFee sdkmath.Int, rate uint64) (sdkmath.Int, error) {
	fee, ok := FloorDiv(tradeFee, U128(rate), feeDenominator())
	if !ok {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("fund fee on %s at rate %d", tradeFee, rate)
	}
	return fee, nil
}

// ReferralShare is the bps share of the LP-retained fee owed to a referrer.
func ReferralShare(retainedFee sdkmath.Int, shareBps uint16) (sdkmath.Int, error) {
	share, ok := FloorDiv(retainedFee, U128(uint64(shareBps)), U128(BasisPointsDenominator))
	if !ok {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("referral share on %s at %d bps", retainedFee, shareBps)
	}
	return share, nil
}

// CalculatePreFeeAmount inverts the fee: the smallest x with
// x - TradingFee(x, rate) >= postFee, computed as
// (postFee*D + (D-rate) - 1) / (D-rate).
func CalculatePreFeeAmount(postFee sdkmath.Int, rate uint64) (sdkmath.Int, error) {
	if rate == 0 {
		return postFee, nil
	}
	if rate >= FeeRateDenominator {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("fee rate %d leaves nothing to swap", rate)
	}
	keep := U128(FeeRateDenominator - rate)
	preFee, ok := CeilDiv(postFee, feeDenominator(), keep)
	if !ok {
		return sdkmath.ZeroInt(), ErrMathOverflow.Wrapf("pre-fee amount of %s at rate %d", postFee, rate)
	}
	return preFee, nil
}

// ApplyDiscount takes one basis point off rates above DiscountThreshold.
func ApplyDiscount(rate uint64) uint64 {
	if rate > DiscountThreshold {
		return rate - OneBasisPoint
	}
	return rate
}
