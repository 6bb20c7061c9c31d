package types

import (
	"fmt"
)

// PoolObservations pairs a pool with its oracle ring.
type PoolObservations struct {
	PoolID uint64            `json:"pool_id"`
	Buffer ObservationBuffer `json:"buffer"`
}

// GenesisState defines the amm module's genesis state.
type GenesisState struct {
	Params       Params              `json:"params"`
	Pools        []PoolState         `json:"pools"`
	Observations []PoolObservations  `json:"observations"`
	Positions    []LiquidityPosition `json:"positions"`
	NextPoolID   uint64              `json:"next_pool_id"`
}

// DefaultGenesis returns the default genesis state for the amm module.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:       DefaultParams(),
		Pools:        []PoolState{},
		Observations: []PoolObservations{},
		Positions:    []LiquidityPosition{},
		NextPoolID:   1,
	}
}

// Validate ensures the genesis state is well-formed.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return ErrInvalidGenesis.Wrapf("params: %s", err)
	}
	if gs.NextPoolID == 0 {
		return ErrInvalidGenesis.Wrap("next pool id must be positive")
	}

	pools := make(map[uint64]PoolState, len(gs.Pools))
	pairs := make(map[string]struct{}, len(gs.Pools))
	for _, pool := range gs.Pools {
		if err := pool.Validate(); err != nil {
			return ErrInvalidGenesis.Wrap(err.Error())
		}
		if _, dup := pools[pool.ID]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate pool %d", pool.ID)
		}
		pair := pool.Token0 + "/" + pool.Token1
		if _, dup := pairs[pair]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate pool pair %s", pair)
		}
		if pool.ID >= gs.NextPoolID {
			return ErrInvalidGenesis.Wrapf("pool %d not below next pool id %d", pool.ID, gs.NextPoolID)
		}
		pools[pool.ID] = pool
		pairs[pair] = struct{}{}
	}

	seenObs := make(map[uint64]struct{}, len(gs.Observations))
	for _, obs := range gs.Observations {
		if _, ok := pools[obs.PoolID]; !ok {
			return ErrInvalidGenesis.Wrapf("observations for unknown pool %d", obs.PoolID)
		}
		if _, dup := seenObs[obs.PoolID]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate observations for pool %d", obs.PoolID)
		}
		if err := obs.Buffer.Validate(); err != nil {
			return ErrInvalidGenesis.Wrapf("pool %d: %s", obs.PoolID, err)
		}
		seenObs[obs.PoolID] = struct{}{}
	}

	owned := make(map[uint64]uint64, len(gs.Pools))
	seenPos := make(map[string]struct{}, len(gs.Positions))
	for _, pos := range gs.Positions {
		if err := pos.Validate(); err != nil {
			return ErrInvalidGenesis.Wrap(err.Error())
		}
		if _, ok := pools[pos.PoolID]; !ok {
			return ErrInvalidGenesis.Wrapf("position of %s in unknown pool %d", pos.Owner, pos.PoolID)
		}
		key := fmt.Sprintf("%d/%s", pos.PoolID, pos.Owner)
		if _, dup := seenPos[key]; dup {
			return ErrInvalidGenesis.Wrapf("duplicate position %s", key)
		}
		seenPos[key] = struct{}{}
		sum, err := AddUint64(owned[pos.PoolID], pos.LPTokensOwned)
		if err != nil {
			return ErrInvalidGenesis.Wrapf("pool %d: %s", pos.PoolID, err)
		}
		owned[pos.PoolID] = sum
	}

	for id, pool := range pools {
		if owned[id]+LockedLiquidity != pool.LPSupply {
			return ErrInvalidGenesis.Wrapf("pool %d: lp supply %d != locked %d + positions %d",
				id, pool.LPSupply, LockedLiquidity, owned[id])
		}
	}

	return nil
}
