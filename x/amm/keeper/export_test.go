package keeper

import (
	"context"
	"encoding/json"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// SetParamsUnchecked stores params without validation, the way a corrupted
// store or a bad migration would leave them.
func (k Keeper) SetParamsUnchecked(ctx context.Context, params types.Params) error {
	bz, err := json.Marshal(params)
	if err != nil {
		return err
	}
	k.getStore(ctx).Set(ParamsKey, bz)
	return nil
}
