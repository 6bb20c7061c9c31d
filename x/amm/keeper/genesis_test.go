package keeper_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	keepertest "github.com/paw-chain/cpamm/testutil/keeper"
	"github.com/paw-chain/cpamm/x/amm/types"
)

func TestGenesisExportImport(t *testing.T) {
	k, ctx, _ := keepertest.AmmKeeper(t)

	pool := keepertest.CreateTestPool(t, k, ctx, creatorAddr, denomAtom, denomPaw, 1_000_000, 2_000_000)
	_, err := k.ExecuteDeposit(ctx, depositMsg(pool.ID, 5_000, 10_000, 20_000))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		msg := types.NewMsgSwapExactIn(traderAddr.String(), pool.ID, denomAtom, denomPaw, 20_000, 1)
		_, err := k.ExecuteSwap(ctx, *msg)
		require.NoError(t, err)
		ctx = ctx.WithBlockTime(ctx.BlockTime().Add(90 * time.Second))
	}

	exported, err := k.ExportGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Pools, 1)
	require.Len(t, exported.Positions, 2)
	require.Len(t, exported.Observations, 1)
	require.Equal(t, 3, exported.Observations[0].Buffer.Len())
	require.Equal(t, uint64(2), exported.NextPoolID)

	k2, ctx2, _ := keepertest.AmmKeeper(t)
	require.NoError(t, k2.InitGenesis(ctx2, *exported))

	reexported, err := k2.ExportGenesis(ctx2)
	require.NoError(t, err)

	want, err := json.Marshal(exported)
	require.NoError(t, err)
	got, err := json.Marshal(reexported)
	require.NoError(t, err)
	require.JSONEq(t, string(want), string(got))

	byTokens, err := k2.GetPoolByTokens(ctx2, denomPaw, denomAtom)
	require.NoError(t, err)
	require.Equal(t, pool.ID, byTokens.ID)
}

func TestInitGenesisRejectsInvalidState(t *testing.T) {
	k, ctx, _ := keepertest.AmmKeeper(t)

	gs := types.DefaultGenesis()
	gs.NextPoolID = 0
	require.ErrorIs(t, k.InitGenesis(ctx, *gs), types.ErrInvalidGenesis)
}
