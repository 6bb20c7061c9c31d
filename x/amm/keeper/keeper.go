package keeper

import (
	"context"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// Keeper of the amm store
type Keeper struct {
	storeKey     storetypes.StoreKey
	transferFees types.TransferFeeKeeper
	capabilities types.CapabilityVerifier
	referrals    types.ReferralKeeper
	feeEngine    types.DynamicFeeEngine
	metrics      *AMMMetrics
}

// Option customizes a Keeper.
type Option func(*Keeper)

// WithFeeStrategy replaces the dynamic fee formula.
func WithFeeStrategy(strategy types.FeeStrategy) Option {
	return func(k *Keeper) {
		k.feeEngine = types.NewDynamicFeeEngine(strategy)
	}
}

// WithMetrics overrides the prometheus collectors.
func WithMetrics(m *AMMMetrics) Option {
	return func(k *Keeper) {
		k.metrics = m
	}
}

// NewKeeper creates a new amm Keeper instance. Nil collaborators fall back to
// tokens without transfer fees, no discount and no referrals.
func NewKeeper(
	key storetypes.StoreKey,
	transferFees types.TransferFeeKeeper,
	capabilities types.CapabilityVerifier,
	referrals types.ReferralKeeper,
	opts ...Option,
) Keeper {
	if transferFees == nil {
		transferFees = types.NoTransferFees{}
	}
	if capabilities == nil {
		capabilities = types.NoCapabilities{}
	}
	if referrals == nil {
		referrals = types.NoReferrals{}
	}

	k := Keeper{
		storeKey:     key,
		transferFees: transferFees,
		capabilities: capabilities,
		referrals:    referrals,
		feeEngine:    types.NewDynamicFeeEngine(nil),
		metrics:      NewAMMMetrics(),
	}
	for _, opt := range opts {
		opt(&k)
	}
	return k
}

// getStore returns the KVStore for the amm module
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return sdkCtx.KVStore(k.storeKey)
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return sdkCtx.Logger().With("module", "x/"+types.ModuleName)
}

// FeeEngine returns the dynamic fee engine in use.
func (k Keeper) FeeEngine() types.DynamicFeeEngine {
	return k.feeEngine
}

// blockTimestamp is the clock of every operation: the block header time in
// unix seconds. Pre-epoch times read as zero.
func blockTimestamp(ctx context.Context) uint64 {
	unix := sdk.UnwrapSDKContext(ctx).BlockTime().Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix)
}
