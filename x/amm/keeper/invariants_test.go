package keeper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/cpamm/testutil/keeper"
	"github.com/paw-chain/cpamm/x/amm/keeper"
	"github.com/paw-chain/cpamm/x/amm/types"
)

func TestInvariantsHoldAfterOperations(t *testing.T) {
	k, ctx, mocks := keepertest.AmmKeeper(t)
	params, err := k.GetParams(ctx)
	require.NoError(t, err)
	params.PartnerChannels = []uint8{4}
	require.NoError(t, k.SetParams(ctx, params))
	mocks.Referrals.Partners[providerAddr.String()] = 4

	pool := keepertest.CreateTestPool(t, k, ctx, creatorAddr, denomAtom, denomPaw, 3_000_000, 1_000_000)
	_, err = k.ExecuteDeposit(ctx, depositMsg(pool.ID, 40_000, 100_000, 100_000))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		msg := types.NewMsgSwapExactIn(traderAddr.String(), pool.ID, denomPaw, denomAtom, 7_000, 1)
		_, err := k.ExecuteSwap(ctx, *msg)
		require.NoError(t, err)
		ctx = ctx.WithBlockTime(ctx.BlockTime().Add(45 * time.Second))
	}
	_, err = k.ExecuteWithdraw(ctx, withdrawMsg(pool.ID, 15_000, 0, 0))
	require.NoError(t, err)

	msg, broken := keeper.AllInvariants(k)(ctx)
	require.False(t, broken, msg)
}

func TestLPSupplyInvariantDetectsDrift(t *testing.T) {
	k, ctx, _ := keepertest.AmmKeeper(t)
	pool := keepertest.CreateTestPool(t, k, ctx, creatorAddr, denomAtom, denomPaw, 1_000_000, 1_000_000)

	pool.LPSupply += 1
	require.NoError(t, k.SetPool(ctx, pool))

	_, broken := keeper.LPSupplyInvariant(k)(ctx)
	require.True(t, broken)
	_, broken = keeper.AllInvariants(k)(ctx)
	require.True(t, broken)
}

func TestPositiveReservesInvariantDetectsEmptyPool(t *testing.T) {
	k, ctx, _ := keepertest.AmmKeeper(t)
	pool := keepertest.CreateTestPool(t, k, ctx, creatorAddr, denomAtom, denomPaw, 1_000_000, 1_000_000)

	pool.Reserve1 = 0
	require.NoError(t, k.SetPool(ctx, pool))

	_, broken := keeper.PositiveReservesInvariant(k)(ctx)
	require.True(t, broken)
}

func TestPartnerLinkedLPInvariantDetectsOverLink(t *testing.T) {
	k, ctx, _ := keepertest.AmmKeeper(t)
	pool := keepertest.CreateTestPool(t, k, ctx, creatorAddr, denomAtom, denomPaw, 1_000_000, 1_000_000)

	pool.Partners[0] = types.PartnerInfo{PartnerID: 2, LPLinkedToPartner: pool.LPSupply + 1}
	require.NoError(t, k.SetPool(ctx, pool))

	_, broken := keeper.PartnerLinkedLPInvariant(k)(ctx)
	require.True(t, broken)
}

func TestOracleOrderInvariantDetectsBackwardsTime(t *testing.T) {
	k, ctx, _ := keepertest.AmmKeeper(t)
	pool := keepertest.CreateTestPool(t, k, ctx, creatorAddr, denomAtom, denomPaw, 1_000_000, 1_000_000)

	buf := types.NewObservationBuffer()
	buf.Update(2_000, types.Q32, types.Q32)
	buf.Update(1_000, types.Q32, types.Q32)
	require.NoError(t, k.SetObservationBuffer(ctx, pool.ID, buf))

	_, broken := keeper.OracleOrderInvariant(k)(ctx)
	require.True(t, broken)
}
