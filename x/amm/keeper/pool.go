package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// GetNextPoolID returns the id the next pool will get.
func (k Keeper) GetNextPoolID(ctx context.Context) uint64 {
	bz := k.getStore(ctx).Get(PoolCountKey)
	if bz == nil {
		return 1
	}
	return binary.BigEndian.Uint64(bz)
}

// SetNextPoolID sets the next pool ID
func (k Keeper) SetNextPoolID(ctx context.Context, poolID uint64) {
	k.getStore(ctx).Set(PoolCountKey, sdk.Uint64ToBigEndian(poolID))
}

// CreatePool opens a pool with the creator's initial deposit. The creator
// owns floor(sqrt(reserve0*reserve1)) - LockedLiquidity LP tokens; the
// locked part is never redeemable.
func (k Keeper) CreatePool(ctx context.Context, msg types.MsgCreatePool) (*types.PoolState, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	creator, err := sdk.AccAddressFromBech32(msg.Creator)
	if err != nil {
		return nil, err
	}

	token0, token1 := types.OrderDenoms(msg.TokenA, msg.TokenB)
	amount0, amount1 := msg.AmountA, msg.AmountB
	if token0 != msg.TokenA {
		amount0, amount1 = amount1, amount0
	}

	if _, err := k.GetPoolByTokens(ctx, token0, token1); err == nil {
		return nil, types.ErrPoolAlreadyExists.Wrapf("%s/%s", token0, token1)
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}

	// the vaults hold what arrives after transfer fees
	reserve0, err := k.netOfTransferFee(ctx, token0, amount0)
	if err != nil {
		return nil, err
	}
	reserve1, err := k.netOfTransferFee(ctx, token1, amount1)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateSupply(reserve0, reserve1); err != nil {
		return nil, err
	}

	lpSupply, err := types.InitialLiquidity(reserve0, reserve1)
	if err != nil {
		return nil, err
	}
	if lpSupply < params.MinInitialLiquidity {
		return nil, types.WrapWithRecovery(types.ErrInvalidAmount,
			"initial liquidity %d below minimum %d", lpSupply, params.MinInitialLiquidity)
	}

	now := blockTimestamp(ctx)
	openTime := msg.OpenTime
	if openTime < now {
		openTime = now
	}

	partners, err := types.NewPartnerTable(params.PartnerChannels)
	if err != nil {
		return nil, err
	}

	poolID := k.GetNextPoolID(ctx)
	pool := types.NewPoolState(poolID, token0, token1, openTime)
	pool.Reserve0 = reserve0
	pool.Reserve1 = reserve1
	pool.LPSupply = lpSupply
	pool.LatestFeeRate = params.FeeConfig.BaseFeeRate
	pool.Partners = partners

	position := types.NewLiquidityPosition(creator, poolID, 0)
	position.LPTokensOwned = lpSupply - types.LockedLiquidity
	position.Token0Deposited = reserve0
	position.Token1Deposited = reserve1
	if partnerID, ok := k.referrals.GetPartnerChannel(ctx, creator); ok {
		if _, known := pool.Partners.Find(partnerID); known {
			position.PartnerID = partnerID
			if err := pool.Partners.LinkLP(partnerID, position.LPTokensOwned); err != nil {
				return nil, err
			}
		}
	}

	if err := k.SetPool(ctx, &pool); err != nil {
		return nil, err
	}
	k.setPoolByTokens(ctx, token0, token1, poolID)
	if err := k.SetObservationBuffer(ctx, poolID, types.NewObservationBuffer()); err != nil {
		return nil, err
	}
	if err := k.SetPosition(ctx, position); err != nil {
		return nil, err
	}
	k.SetNextPoolID(ctx, poolID+1)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePoolCreated,
			sdk.NewAttribute(types.AttributeKeyPoolID, fmt.Sprintf("%d", poolID)),
			sdk.NewAttribute(types.AttributeKeyToken0, token0),
			sdk.NewAttribute(types.AttributeKeyToken1, token1),
			sdk.NewAttribute(types.AttributeKeyReserve0, fmt.Sprintf("%d", reserve0)),
			sdk.NewAttribute(types.AttributeKeyReserve1, fmt.Sprintf("%d", reserve1)),
			sdk.NewAttribute(types.AttributeKeyLPSupply, fmt.Sprintf("%d", lpSupply)),
		),
	)

	k.metrics.poolCreated()
	incrTelemetry("pool_created", poolID)
	k.metrics.recordPool(poolID, token0, token1, reserve0, reserve1, lpSupply)

	k.Logger(ctx).Info("pool created",
		"pool_id", poolID,
		"token_0", token0,
		"token_1", token1,
		"lp_supply", lpSupply,
		"open_time", openTime,
	)

	return &pool, nil
}

func (k Keeper) netOfTransferFee(ctx context.Context, denom string, amount uint64) (uint64, error) {
	fee, err := k.transferFees.GetTransferFee(ctx, denom, amount)
	if err != nil {
		return 0, err
	}
	return types.SubUint64(amount, fee)
}

// GetPool returns a pool by its ID
func (k Keeper) GetPool(ctx context.Context, poolID uint64) (*types.PoolState, error) {
	bz := k.getStore(ctx).Get(PoolKey(poolID))
	if bz == nil {
		return nil, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}

	var pool types.PoolState
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil, fmt.Errorf("GetPool: unmarshal: %w", err)
	}
	return &pool, nil
}

// SetPool stores a pool
func (k Keeper) SetPool(ctx context.Context, pool *types.PoolState) error {
	bz, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("SetPool: marshal: %w", err)
	}
	k.getStore(ctx).Set(PoolKey(pool.ID), bz)
	return nil
}

// GetPoolByTokens returns the pool of a token pair in either order.
func (k Keeper) GetPoolByTokens(ctx context.Context, tokenA, tokenB string) (*types.PoolState, error) {
	bz := k.getStore(ctx).Get(PoolByTokensKey(tokenA, tokenB))
	if bz == nil {
		return nil, types.ErrPoolNotFound.Wrapf("no pool for %s/%s", tokenA, tokenB)
	}
	return k.GetPool(ctx, binary.BigEndian.Uint64(bz))
}

func (k Keeper) setPoolByTokens(ctx context.Context, tokenA, tokenB string, poolID uint64) {
	k.getStore(ctx).Set(PoolByTokensKey(tokenA, tokenB), sdk.Uint64ToBigEndian(poolID))
}

// IteratePools iterates over all pools
func (k Keeper) IteratePools(ctx context.Context, cb func(pool types.PoolState) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), PoolKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var pool types.PoolState
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			return fmt.Errorf("IteratePools: unmarshal: %w", err)
		}
		if cb(pool) {
			break
		}
	}
	return nil
}

// GetAllPools returns all pools
func (k Keeper) GetAllPools(ctx context.Context) ([]types.PoolState, error) {
	var pools []types.PoolState
	err := k.IteratePools(ctx, func(pool types.PoolState) bool {
		pools = append(pools, pool)
		return false
	})
	return pools, err
}

// SetPoolStatus replaces the status bits of a pool. The external admin path
// calls this; a set bit disables the operation.
func (k Keeper) SetPoolStatus(ctx context.Context, poolID uint64, status uint8) error {
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	pool.Status = status
	if err := pool.Validate(); err != nil {
		return types.ErrInvalidState.Wrap(err.Error())
	}
	if err := k.SetPool(ctx, pool); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePoolStatus,
			sdk.NewAttribute(types.AttributeKeyPoolID, fmt.Sprintf("%d", poolID)),
			sdk.NewAttribute(types.AttributeKeyStatus, fmt.Sprintf("%d", status)),
		),
	)
	return nil
}

// GetSpotPrice returns the current prices of token_0 and token_1 with 32
// fractional bits.
func (k Keeper) GetSpotPrice(ctx context.Context, poolID uint64) (math.Int, math.Int, error) {
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	return types.TokenPriceX32(pool.Reserve0, pool.Reserve1)
}

// checkPoolGate fails with ErrNotApproved when the operation is disabled.
// Swaps are also refused before the pool's open time; liquidity may move
// earlier.
func checkPoolGate(pool *types.PoolState, bit types.PoolStatusBit, now uint64) error {
	if !pool.IsEnabled(bit) {
		return types.WrapWithRecovery(types.ErrNotApproved, "pool %d: %s disabled", pool.ID, bit)
	}
	if bit == types.PoolStatusSwap && now < pool.OpenTime {
		return types.WrapWithRecovery(types.ErrNotApproved, "pool %d opens at %d", pool.ID, pool.OpenTime)
	}
	return nil
}
