package keeper

import (
	"context"
	"encoding/json"
	"fmt"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// GetPosition returns the liquidity position of owner in a pool.
func (k Keeper) GetPosition(ctx context.Context, poolID uint64, owner sdk.AccAddress) (*types.LiquidityPosition, error) {
	bz := k.getStore(ctx).Get(PositionKey(poolID, owner))
	if bz == nil {
		return nil, types.ErrPositionNotFound.Wrapf("pool %d owner %s", poolID, owner)
	}

	var position types.LiquidityPosition
	if err := json.Unmarshal(bz, &position); err != nil {
		return nil, fmt.Errorf("GetPosition: unmarshal: %w", err)
	}
	return &position, nil
}

// SetPosition stores a position. A position with no LP left is removed.
func (k Keeper) SetPosition(ctx context.Context, position types.LiquidityPosition) error {
	owner, err := sdk.AccAddressFromBech32(position.Owner)
	if err != nil {
		return fmt.Errorf("SetPosition: %w", err)
	}
	store := k.getStore(ctx)
	key := PositionKey(position.PoolID, owner)
	if position.LPTokensOwned == 0 {
		store.Delete(key)
		return nil
	}

	bz, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("SetPosition: marshal: %w", err)
	}
	store.Set(key, bz)
	return nil
}

// IteratePoolPositions walks the positions of one pool.
func (k Keeper) IteratePoolPositions(ctx context.Context, poolID uint64, cb func(position types.LiquidityPosition) (stop bool)) error {
	return k.iteratePositions(ctx, PositionKeyByPoolPrefix(poolID), cb)
}

// IteratePositions walks every position of every pool.
func (k Keeper) IteratePositions(ctx context.Context, cb func(position types.LiquidityPosition) (stop bool)) error {
	return k.iteratePositions(ctx, PositionKeyPrefix, cb)
}

func (k Keeper) iteratePositions(ctx context.Context, prefix []byte, cb func(position types.LiquidityPosition) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var position types.LiquidityPosition
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			return fmt.Errorf("iteratePositions: unmarshal: %w", err)
		}
		if cb(position) {
			break
		}
	}
	return nil
}

// GetAllPositions returns every stored position.
func (k Keeper) GetAllPositions(ctx context.Context) ([]types.LiquidityPosition, error) {
	var positions []types.LiquidityPosition
	err := k.IteratePositions(ctx, func(position types.LiquidityPosition) bool {
		positions = append(positions, position)
		return false
	})
	return positions, err
}
