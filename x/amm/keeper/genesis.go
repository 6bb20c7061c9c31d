package keeper

import (
	"context"
	"fmt"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// InitGenesis initializes the amm module's state from a genesis state
func (k Keeper) InitGenesis(ctx context.Context, genState types.GenesisState) error {
	if err := genState.Validate(); err != nil {
		return err
	}

	if err := k.SetParams(ctx, genState.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}
	k.SetNextPoolID(ctx, genState.NextPoolID)

	for i := range genState.Pools {
		pool := genState.Pools[i]
		if err := k.SetPool(ctx, &pool); err != nil {
			return fmt.Errorf("failed to set pool %d: %w", pool.ID, err)
		}
		k.setPoolByTokens(ctx, pool.Token0, pool.Token1, pool.ID)
		// pools without an exported ring start with an empty one
		if err := k.SetObservationBuffer(ctx, pool.ID, types.NewObservationBuffer()); err != nil {
			return fmt.Errorf("failed to set observations of pool %d: %w", pool.ID, err)
		}
	}

	for i := range genState.Observations {
		obs := genState.Observations[i]
		if err := k.SetObservationBuffer(ctx, obs.PoolID, &obs.Buffer); err != nil {
			return fmt.Errorf("failed to set observations of pool %d: %w", obs.PoolID, err)
		}
	}

	for _, position := range genState.Positions {
		if err := k.SetPosition(ctx, position); err != nil {
			return fmt.Errorf("failed to set position of %s in pool %d: %w", position.Owner, position.PoolID, err)
		}
	}

	k.Logger(ctx).Info("amm genesis initialized",
		"pools", len(genState.Pools),
		"positions", len(genState.Positions),
		"next_pool_id", genState.NextPoolID,
	)
	return nil
}

// ExportGenesis returns the amm module's exported genesis.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get params: %w", err)
	}

	pools, err := k.GetAllPools(ctx)
	if err != nil {
		return nil, err
	}
	positions, err := k.GetAllPositions(ctx)
	if err != nil {
		return nil, err
	}

	var observations []types.PoolObservations
	err = k.IterateObservationBuffers(ctx, func(poolID uint64, buf *types.ObservationBuffer) bool {
		observations = append(observations, types.PoolObservations{PoolID: poolID, Buffer: *buf})
		return false
	})
	if err != nil {
		return nil, err
	}

	genesis := types.DefaultGenesis()
	genesis.Params = params
	genesis.NextPoolID = k.GetNextPoolID(ctx)
	if pools != nil {
		genesis.Pools = pools
	}
	if positions != nil {
		genesis.Positions = positions
	}
	if observations != nil {
		genesis.Observations = observations
	}
	return genesis, nil
}
