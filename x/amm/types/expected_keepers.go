package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// TransferFeeKeeper reports fees a token deducts in transit.
type TransferFeeKeeper interface {
	// GetTransferFee is the fee deducted when amount of denom is sent.
	GetTransferFee(ctx context.Context, denom string, amount uint64) (uint64, error)
	// GetTransferInverseFee is the fee to add so that postFeeAmount arrives.
	GetTransferInverseFee(ctx context.Context, denom string, postFeeAmount uint64) (uint64, error)
}

// CapabilityVerifier decides whether a swap intermediary is a registered,
// discount-eligible router.
type CapabilityVerifier interface {
	IsDiscountEligible(ctx context.Context, intermediary sdk.AccAddress) bool
}

// ReferralInfo is a resolved referral for one trade.
type ReferralInfo struct {
	// ShareBps is the referrer's share of the LP-retained fee in basis points.
	ShareBps  uint16
	Recipient sdk.AccAddress
}

// ReferralKeeper resolves referral and partner attribution.
type ReferralKeeper interface {
	GetReferral(ctx context.Context, trader sdk.AccAddress, denom string) (ReferralInfo, bool)
	GetPartnerChannel(ctx context.Context, provider sdk.AccAddress) (uint8, bool)
}

// NoTransferFees is a TransferFeeKeeper for tokens without transfer fees.
type NoTransferFees struct{}

func (NoTransferFees) GetTransferFee(context.Context, string, uint64) (uint64, error) {
	return 0, nil
}

func (NoTransferFees) GetTransferInverseFee(context.Context, string, uint64) (uint64, error) {
	return 0, nil
}

// NoCapabilities never grants the discount.
type NoCapabilities struct{}

func (NoCapabilities) IsDiscountEligible(context.Context, sdk.AccAddress) bool { return false }

// NoReferrals resolves no referral and no partner.
type NoReferrals struct{}

func (NoReferrals) GetReferral(context.Context, sdk.AccAddress, string) (ReferralInfo, bool) {
	return ReferralInfo{}, false
}

func (NoReferrals) GetPartnerChannel(context.Context, sdk.AccAddress) (uint8, bool) {
	return 0, false
}
