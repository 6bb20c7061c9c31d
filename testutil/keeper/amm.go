package keeper

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/cpamm/x/amm/keeper"
	"github.com/paw-chain/cpamm/x/amm/types"
)

// GenesisTime is the block time of a fresh test context.
var GenesisTime = time.Unix(1_700_000_000, 0).UTC()

// AmmMocks are the collaborators handed to a test keeper. Tests mutate them
// to shape transfer fees, discounts and referrals.
type AmmMocks struct {
	TransferFees *MockTransferFees
	Capabilities *MockCapabilities
	Referrals    *MockReferrals
}

// AmmKeeper creates a test keeper for the amm module with mock dependencies
func AmmKeeper(t testing.TB, opts ...keeper.Option) (keeper.Keeper, sdk.Context, *AmmMocks) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	memStoreKey := storetypes.NewMemoryStoreKey(types.MemStoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(memStoreKey, storetypes.StoreTypeMemory, nil)
	require.NoError(t, stateStore.LoadLatestVersion())

	mocks := &AmmMocks{
		TransferFees: NewMockTransferFees(),
		Capabilities: NewMockCapabilities(),
		Referrals:    NewMockReferrals(),
	}

	k := keeper.NewKeeper(
		storeKey,
		mocks.TransferFees,
		mocks.Capabilities,
		mocks.Referrals,
		opts...,
	)

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: GenesisTime, Height: 1}, false, log.NewNopLogger())

	require.NoError(t, k.InitGenesis(ctx, *types.DefaultGenesis()))

	return k, ctx, mocks
}

// CreateTestPool creates a pool between tokenA and tokenB funded by creator.
func CreateTestPool(t testing.TB, k keeper.Keeper, ctx sdk.Context, creator sdk.AccAddress, tokenA, tokenB string, amountA, amountB uint64) *types.PoolState {
	pool, err := k.CreatePool(ctx, types.MsgCreatePool{
		Creator: creator.String(),
		TokenA:  tokenA,
		TokenB:  tokenB,
		AmountA: amountA,
		AmountB: amountB,
	})
	require.NoError(t, err)
	require.NotNil(t, pool)
	return pool
}

// TestAddr returns a deterministic 20 byte account address.
func TestAddr(name string) sdk.AccAddress {
	bz := make([]byte, 20)
	copy(bz, name)
	return sdk.AccAddress(bz)
}

// MockTransferFees charges a flat fee per transfer of a denom, capped at the
// amount sent.
type MockTransferFees struct {
	Flat map[string]uint64
}

func NewMockTransferFees() *MockTransferFees {
	return &MockTransferFees{Flat: make(map[string]uint64)}
}

func (m *MockTransferFees) GetTransferFee(_ context.Context, denom string, amount uint64) (uint64, error) {
	fee := m.Flat[denom]
	if fee > amount {
		return amount, nil
	}
	return fee, nil
}

func (m *MockTransferFees) GetTransferInverseFee(_ context.Context, denom string, _ uint64) (uint64, error) {
	return m.Flat[denom], nil
}

// MockCapabilities grants the discount to registered intermediaries.
type MockCapabilities struct {
	Eligible map[string]bool
}

func NewMockCapabilities() *MockCapabilities {
	return &MockCapabilities{Eligible: make(map[string]bool)}
}

func (m *MockCapabilities) IsDiscountEligible(_ context.Context, intermediary sdk.AccAddress) bool {
	return m.Eligible[intermediary.String()]
}

// MockReferrals resolves referrals per trader and partner channels per provider.
type MockReferrals struct {
	Referrals map[string]types.ReferralInfo
	Partners  map[string]uint8
}

func NewMockReferrals() *MockReferrals {
	return &MockReferrals{
		Referrals: make(map[string]types.ReferralInfo),
		Partners:  make(map[string]uint8),
	}
}

func (m *MockReferrals) GetReferral(_ context.Context, trader sdk.AccAddress, _ string) (types.ReferralInfo, bool) {
	info, ok := m.Referrals[trader.String()]
	return info, ok
}

func (m *MockReferrals) GetPartnerChannel(_ context.Context, provider sdk.AccAddress) (uint8, bool) {
	id, ok := m.Partners[provider.String()]
	return id, ok
}
