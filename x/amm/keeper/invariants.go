package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// RegisterInvariants registers all amm invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "positive-reserves", PositiveReservesInvariant(k))
	ir.RegisterRoute(types.ModuleName, "lp-supply", LPSupplyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "partner-linked-lp", PartnerLinkedLPInvariant(k))
	ir.RegisterRoute(types.ModuleName, "oracle-order", OracleOrderInvariant(k))
}

// AllInvariants runs all invariants of the amm module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := PositiveReservesInvariant(k)(ctx)
		if stop {
			return res, stop
		}

		res, stop = LPSupplyInvariant(k)(ctx)
		if stop {
			return res, stop
		}

		res, stop = PartnerLinkedLPInvariant(k)(ctx)
		if stop {
			return res, stop
		}

		return OracleOrderInvariant(k)(ctx)
	}
}

// PositiveReservesInvariant checks that every pool holds both tokens
func PositiveReservesInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "positive-reserves", err.Error()), true
		}
		for _, pool := range pools {
			if pool.Reserve0 == 0 || pool.Reserve1 == 0 {
				count++
				msg += fmt.Sprintf("pool %d: empty reserve (%d, %d)\n", pool.ID, pool.Reserve0, pool.Reserve1)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "positive-reserves",
			fmt.Sprintf("found %d pools with an empty reserve\n%s", count, msg),
		), broken
	}
}

// LPSupplyInvariant checks that the LP supply of each pool is the locked
// liquidity plus the LP held by positions
func LPSupplyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "lp-supply", err.Error()), true
		}
		for _, pool := range pools {
			held := types.LockedLiquidity
			err := k.IteratePoolPositions(ctx, pool.ID, func(position types.LiquidityPosition) bool {
				held += position.LPTokensOwned
				return false
			})
			if err != nil {
				count++
				msg += fmt.Sprintf("pool %d: %s\n", pool.ID, err)
				continue
			}
			if held != pool.LPSupply {
				count++
				msg += fmt.Sprintf("pool %d: lp supply %d, locked plus positions %d\n", pool.ID, pool.LPSupply, held)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "lp-supply",
			fmt.Sprintf("found %d pools with inconsistent lp supply\n%s", count, msg),
		), broken
	}
}

// PartnerLinkedLPInvariant checks that partner-linked LP never exceeds supply
func PartnerLinkedLPInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "partner-linked-lp", err.Error()), true
		}
		for _, pool := range pools {
			linked, err := pool.Partners.TotalLinkedLP()
			if err != nil || linked > pool.LPSupply {
				count++
				msg += fmt.Sprintf("pool %d: partner-linked lp %d exceeds supply %d\n", pool.ID, linked, pool.LPSupply)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "partner-linked-lp",
			fmt.Sprintf("found %d pools with over-linked lp\n%s", count, msg),
		), broken
	}
}

// OracleOrderInvariant checks that oracle timestamps never decrease in write order
func OracleOrderInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		err := k.IterateObservationBuffers(ctx, func(poolID uint64, buf *types.ObservationBuffer) bool {
			if err := buf.Validate(); err != nil {
				count++
				msg += fmt.Sprintf("pool %d: %s\n", poolID, err)
			}
			return false
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "oracle-order", err.Error()), true
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "oracle-order",
			fmt.Sprintf("found %d pools with out-of-order observations\n%s", count, msg),
		), broken
	}
}
