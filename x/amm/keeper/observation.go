package keeper

import (
	"context"
	"fmt"

	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// GetObservationBuffer loads the oracle ring of a pool. A pool without a
// stored ring reads as an empty one.
func (k Keeper) GetObservationBuffer(ctx context.Context, poolID uint64) (*types.ObservationBuffer, error) {
	bz := k.getStore(ctx).Get(ObservationKey(poolID))
	buf := types.NewObservationBuffer()
	if bz == nil {
		return buf, nil
	}
	if err := buf.UnmarshalBinary(bz); err != nil {
		return nil, fmt.Errorf("GetObservationBuffer: unmarshal: %w", err)
	}
	return buf, nil
}

// SetObservationBuffer stores the oracle ring of a pool.
func (k Keeper) SetObservationBuffer(ctx context.Context, poolID uint64, buf *types.ObservationBuffer) error {
	bz, err := buf.MarshalBinary()
	if err != nil {
		return fmt.Errorf("SetObservationBuffer: marshal: %w", err)
	}
	k.getStore(ctx).Set(ObservationKey(poolID), bz)
	return nil
}

// GetPoolObservations returns the written samples of a pool's oracle, oldest first.
func (k Keeper) GetPoolObservations(ctx context.Context, poolID uint64) ([]types.Observation, error) {
	if _, err := k.GetPool(ctx, poolID); err != nil {
		return nil, err
	}
	buf, err := k.GetObservationBuffer(ctx, poolID)
	if err != nil {
		return nil, err
	}

	out := make([]types.Observation, 0, buf.Len())
	for it := buf.Window(blockTimestamp(ctx), ^uint64(0)); it.Valid(); it.Next() {
		out = append(out, it.Observation())
	}
	return out, nil
}

// IterateObservationBuffers walks every stored oracle ring.
func (k Keeper) IterateObservationBuffers(ctx context.Context, cb func(poolID uint64, buf *types.ObservationBuffer) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), ObservationKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		poolID := poolIDFromKey(iterator.Key()[len(ObservationKeyPrefix):])
		buf := types.NewObservationBuffer()
		if err := buf.UnmarshalBinary(iterator.Value()); err != nil {
			return fmt.Errorf("IterateObservationBuffers: pool %d: %w", poolID, err)
		}
		if cb(poolID, buf) {
			break
		}
	}
	return nil
}
