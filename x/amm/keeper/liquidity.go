package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// ExecuteDeposit mints msg.LPAmount to the provider against a proportional
// deposit of both tokens, rounded up. It returns what the provider pays,
// transfer fees included.
func (k Keeper) ExecuteDeposit(ctx context.Context, msg types.MsgDeposit) (res *types.TradingTokenResult, err error) {
	span := startSpan(ctx, "deposit", msg.PoolID)
	defer func() { endSpan(span, err) }()

	return k.deposit(ctx, msg)
}

func (k Keeper) deposit(ctx context.Context, msg types.MsgDeposit) (*types.TradingTokenResult, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	provider, err := sdk.AccAddressFromBech32(msg.Provider)
	if err != nil {
		return nil, err
	}

	pool, err := k.GetPool(ctx, msg.PoolID)
	if err != nil {
		return nil, err
	}
	if err := checkPoolGate(pool, types.PoolStatusDeposit, blockTimestamp(ctx)); err != nil {
		return nil, err
	}
	supplyBefore := pool.LPSupply

	amounts, ok := types.LpTokensToTradingTokens(
		math.NewIntFromUint64(msg.LPAmount),
		math.NewIntFromUint64(pool.LPSupply),
		math.NewIntFromUint64(pool.Reserve0),
		math.NewIntFromUint64(pool.Reserve1),
		types.RoundCeiling,
	)
	if !ok || amounts.Token0Amount.IsZero() || amounts.Token1Amount.IsZero() {
		return nil, types.ErrZeroTradingTokens.Wrapf("lp amount %d of supply %d", msg.LPAmount, pool.LPSupply)
	}
	token0, err := types.ToUint64(amounts.Token0Amount)
	if err != nil {
		return nil, err
	}
	token1, err := types.ToUint64(amounts.Token1Amount)
	if err != nil {
		return nil, err
	}

	// the vaults must receive token0/token1 in full
	transfer0, err := k.grossUpTransferFee(ctx, pool.Token0, token0)
	if err != nil {
		return nil, err
	}
	transfer1, err := k.grossUpTransferFee(ctx, pool.Token1, token1)
	if err != nil {
		return nil, err
	}
	if transfer0 > msg.Max0 || transfer1 > msg.Max1 {
		return nil, types.WrapWithRecovery(types.ErrExceededSlippage,
			"deposit needs %d %s and %d %s, maximum %d and %d",
			transfer0, pool.Token0, transfer1, pool.Token1, msg.Max0, msg.Max1)
	}

	if pool.Reserve0, err = types.AddUint64(pool.Reserve0, token0); err != nil {
		return nil, err
	}
	if pool.Reserve1, err = types.AddUint64(pool.Reserve1, token1); err != nil {
		return nil, err
	}
	if pool.LPSupply, err = types.AddUint64(pool.LPSupply, msg.LPAmount); err != nil {
		return nil, err
	}

	position, err := k.positionForDeposit(ctx, pool, provider)
	if err != nil {
		return nil, err
	}
	if position.LPTokensOwned, err = types.AddUint64(position.LPTokensOwned, msg.LPAmount); err != nil {
		return nil, err
	}
	if position.Token0Deposited, err = types.AddUint64(position.Token0Deposited, token0); err != nil {
		return nil, err
	}
	if position.Token1Deposited, err = types.AddUint64(position.Token1Deposited, token1); err != nil {
		return nil, err
	}
	if err := pool.Partners.LinkLP(position.PartnerID, msg.LPAmount); err != nil {
		return nil, err
	}

	if err := k.SetPool(ctx, pool); err != nil {
		return nil, err
	}
	if err := k.SetPosition(ctx, *position); err != nil {
		return nil, err
	}

	k.emitLpChange(ctx, pool, msg.Provider, types.ChangeTypeDeposit, msg.LPAmount, supplyBefore, token0, token1)

	return &types.TradingTokenResult{
		Token0Amount: math.NewIntFromUint64(transfer0),
		Token1Amount: math.NewIntFromUint64(transfer1),
	}, nil
}

// ExecuteWithdraw burns msg.LPAmount of the provider's position for its
// share of both reserves, rounded down. It returns what the provider
// receives after transfer fees.
func (k Keeper) ExecuteWithdraw(ctx context.Context, msg types.MsgWithdraw) (res *types.TradingTokenResult, err error) {
	span := startSpan(ctx, "withdraw", msg.PoolID)
	defer func() { endSpan(span, err) }()

	return k.withdraw(ctx, msg)
}

func (k Keeper) withdraw(ctx context.Context, msg types.MsgWithdraw) (*types.TradingTokenResult, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	provider, err := sdk.AccAddressFromBech32(msg.Provider)
	if err != nil {
		return nil, err
	}

	pool, err := k.GetPool(ctx, msg.PoolID)
	if err != nil {
		return nil, err
	}
	if err := checkPoolGate(pool, types.PoolStatusWithdraw, blockTimestamp(ctx)); err != nil {
		return nil, err
	}
	supplyBefore := pool.LPSupply

	supplyAfter, err := types.CheckedSub(math.NewIntFromUint64(pool.LPSupply), math.NewIntFromUint64(msg.LPAmount))
	if err != nil {
		return nil, types.ErrMathOverflow.Wrapf("withdraw %d of lp supply %d", msg.LPAmount, pool.LPSupply)
	}

	position, err := k.GetPosition(ctx, pool.ID, provider)
	if err != nil {
		return nil, err
	}
	if position.LPTokensOwned < msg.LPAmount {
		return nil, types.WrapWithRecovery(types.ErrInvalidAmount,
			"position holds %d lp, withdraw %d", position.LPTokensOwned, msg.LPAmount)
	}

	amounts, ok := types.LpTokensToTradingTokens(
		math.NewIntFromUint64(msg.LPAmount),
		math.NewIntFromUint64(pool.LPSupply),
		math.NewIntFromUint64(pool.Reserve0),
		math.NewIntFromUint64(pool.Reserve1),
		types.RoundFloor,
	)
	if !ok {
		return nil, types.ErrZeroTradingTokens.Wrapf("lp amount %d of supply %d", msg.LPAmount, pool.LPSupply)
	}
	token0 := clampToReserve(amounts.Token0Amount, pool.Reserve0)
	token1 := clampToReserve(amounts.Token1Amount, pool.Reserve1)
	if token0 == 0 && token1 == 0 {
		return nil, types.ErrZeroTradingTokens.Wrapf("lp amount %d of supply %d", msg.LPAmount, pool.LPSupply)
	}

	received0, err := k.netOfTransferFee(ctx, pool.Token0, token0)
	if err != nil {
		return nil, err
	}
	received1, err := k.netOfTransferFee(ctx, pool.Token1, token1)
	if err != nil {
		return nil, err
	}
	if received0 < msg.Min0 || received1 < msg.Min1 {
		return nil, types.WrapWithRecovery(types.ErrExceededSlippage,
			"withdraw yields %d %s and %d %s, minimum %d and %d",
			received0, pool.Token0, received1, pool.Token1, msg.Min0, msg.Min1)
	}

	pool.LPSupply = supplyAfter.Uint64()
	pool.Reserve0 -= token0
	pool.Reserve1 -= token1
	if err := pool.Partners.UnlinkLP(position.PartnerID, msg.LPAmount); err != nil {
		return nil, err
	}

	position.LPTokensOwned -= msg.LPAmount
	if position.Token0Withdrawn, err = types.AddUint64(position.Token0Withdrawn, token0); err != nil {
		return nil, err
	}
	if position.Token1Withdrawn, err = types.AddUint64(position.Token1Withdrawn, token1); err != nil {
		return nil, err
	}

	if err := k.SetPool(ctx, pool); err != nil {
		return nil, err
	}
	if err := k.SetPosition(ctx, *position); err != nil {
		return nil, err
	}

	k.emitLpChange(ctx, pool, msg.Provider, types.ChangeTypeWithdraw, msg.LPAmount, supplyBefore, token0, token1)

	return &types.TradingTokenResult{
		Token0Amount: math.NewIntFromUint64(received0),
		Token1Amount: math.NewIntFromUint64(received1),
	}, nil
}

// positionForDeposit loads the provider's position or opens one attributed
// to the provider's partner channel, if the pool tracks that partner.
func (k Keeper) positionForDeposit(ctx context.Context, pool *types.PoolState, provider sdk.AccAddress) (*types.LiquidityPosition, error) {
	position, err := k.GetPosition(ctx, pool.ID, provider)
	if err == nil {
		return position, nil
	}
	if !types.ErrPositionNotFound.Is(err) {
		return nil, err
	}

	var partnerID uint8
	if id, ok := k.referrals.GetPartnerChannel(ctx, provider); ok {
		if _, known := pool.Partners.Find(id); known {
			partnerID = id
		}
	}
	fresh := types.NewLiquidityPosition(provider, pool.ID, partnerID)
	return &fresh, nil
}

func (k Keeper) grossUpTransferFee(ctx context.Context, denom string, amount uint64) (uint64, error) {
	fee, err := k.transferFees.GetTransferInverseFee(ctx, denom, amount)
	if err != nil {
		return 0, err
	}
	return types.AddUint64(amount, fee)
}

func clampToReserve(amount math.Int, reserve uint64) uint64 {
	if amount.GT(math.NewIntFromUint64(reserve)) {
		return reserve
	}
	return amount.Uint64()
}

func (k Keeper) emitLpChange(
	ctx context.Context,
	pool *types.PoolState,
	provider, changeType string,
	lpAmount, supplyBefore, token0, token1 uint64,
) {
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeLpChange,
			sdk.NewAttribute(types.AttributeKeyPoolID, fmt.Sprintf("%d", pool.ID)),
			sdk.NewAttribute(types.AttributeKeyProvider, provider),
			sdk.NewAttribute(types.AttributeKeyChangeType, changeType),
			sdk.NewAttribute(types.AttributeKeyLPAmount, fmt.Sprintf("%d", lpAmount)),
			sdk.NewAttribute(types.AttributeKeyToken0Amount, fmt.Sprintf("%d", token0)),
			sdk.NewAttribute(types.AttributeKeyToken1Amount, fmt.Sprintf("%d", token1)),
			sdk.NewAttribute(types.AttributeKeyLPSupplyBefore, fmt.Sprintf("%d", supplyBefore)),
			sdk.NewAttribute(types.AttributeKeyLPSupply, fmt.Sprintf("%d", pool.LPSupply)),
			sdk.NewAttribute(types.AttributeKeyReserve0, fmt.Sprintf("%d", pool.Reserve0)),
			sdk.NewAttribute(types.AttributeKeyReserve1, fmt.Sprintf("%d", pool.Reserve1)),
		),
	)

	k.metrics.liquidityChanged(pool.ID, changeType)
	incrTelemetry("lp_change", pool.ID, telemetry.NewLabel("change_type", changeType))
	k.metrics.recordPool(pool.ID, pool.Token0, pool.Token1, pool.Reserve0, pool.Reserve1, pool.LPSupply)

	k.Logger(ctx).Info("liquidity changed",
		"pool_id", pool.ID,
		"provider", provider,
		"change_type", changeType,
		"lp_amount", lpAmount,
		"lp_supply", pool.LPSupply,
	)
}
