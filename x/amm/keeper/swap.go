package keeper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// swapPlan is a fully computed swap. Nothing in it has been persisted.
type swapPlan struct {
	pool   types.PoolState
	buffer *types.ObservationBuffer
	result types.SwapResult
	now    uint64

	reserve0Before uint64
	reserve1Before uint64
}

// QuoteSwap prices a swap against the current pool state without writing
// anything. It fails exactly when ExecuteSwap would.
func (k Keeper) QuoteSwap(ctx context.Context, msg types.MsgSwap) (*types.SwapResult, error) {
	plan, err := k.computeSwap(ctx, msg)
	if err != nil {
		return nil, err
	}
	return &plan.result, nil
}

// ExecuteSwap prices and settles a swap. The pool record and its oracle are
// only written once every check has passed.
func (k Keeper) ExecuteSwap(ctx context.Context, msg types.MsgSwap) (_ *types.SwapResult, err error) {
	start := time.Now()
	span := startSpan(ctx, "swap", msg.PoolID)
	defer func() { endSpan(span, err) }()

	plan, err := k.computeSwap(ctx, msg)
	if err != nil {
		k.metrics.recordSwap(msg.PoolID, msg.Mode.String(), "failed", msg.TokenIn, 0, 0, 0, 0)
		incrTelemetry("swap", msg.PoolID,
			telemetry.NewLabel("mode", msg.Mode.String()), telemetry.NewLabel("status", "failed"))
		return nil, err
	}

	if err := k.SetPool(ctx, &plan.pool); err != nil {
		return nil, err
	}
	if err := k.SetObservationBuffer(ctx, plan.pool.ID, plan.buffer); err != nil {
		return nil, err
	}
	k.metrics.oracleUpdated()

	res := plan.result
	pool := plan.pool
	tokenIn, tokenOut := pool.Denoms(res.Direction)

	k.Logger(ctx).Debug("oracle updated",
		"pool_id", pool.ID,
		"timestamp", plan.now,
		"observations", plan.buffer.Len(),
	)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	attrs := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyPoolID, fmt.Sprintf("%d", pool.ID)),
		sdk.NewAttribute(types.AttributeKeyTrader, msg.Trader),
		sdk.NewAttribute(types.AttributeKeyMode, res.Mode.String()),
		sdk.NewAttribute(types.AttributeKeyTokenIn, tokenIn),
		sdk.NewAttribute(types.AttributeKeyTokenOut, tokenOut),
		sdk.NewAttribute(types.AttributeKeyAmountIn, fmt.Sprintf("%d", res.AmountIn)),
		sdk.NewAttribute(types.AttributeKeyAmountOut, fmt.Sprintf("%d", res.AmountOut)),
		sdk.NewAttribute(types.AttributeKeyInputTransfer, fmt.Sprintf("%d", res.InputTransfer)),
		sdk.NewAttribute(types.AttributeKeyAmountReceived, fmt.Sprintf("%d", res.AmountReceived)),
		sdk.NewAttribute(types.AttributeKeyFeeRate, fmt.Sprintf("%d", res.FeeRate)),
		sdk.NewAttribute(types.AttributeKeyFeeTotal, fmt.Sprintf("%d", res.FeeTotal)),
		sdk.NewAttribute(types.AttributeKeyProtocolFee, fmt.Sprintf("%d", res.ProtocolFee)),
		sdk.NewAttribute(types.AttributeKeyFundFee, fmt.Sprintf("%d", res.FundFee)),
		sdk.NewAttribute(types.AttributeKeyReserve0Before, fmt.Sprintf("%d", plan.reserve0Before)),
		sdk.NewAttribute(types.AttributeKeyReserve1Before, fmt.Sprintf("%d", plan.reserve1Before)),
		sdk.NewAttribute(types.AttributeKeyReserve0, fmt.Sprintf("%d", res.NewReserve0)),
		sdk.NewAttribute(types.AttributeKeyReserve1, fmt.Sprintf("%d", res.NewReserve1)),
	}
	if res.ReferralAmount > 0 {
		attrs = append(attrs,
			sdk.NewAttribute(types.AttributeKeyReferralAmount, fmt.Sprintf("%d", res.ReferralAmount)))
	}
	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(types.EventTypeSwap, attrs...))

	k.metrics.recordSwap(pool.ID, res.Mode.String(), "success", tokenIn,
		res.AmountIn, res.FeeTotal, res.FeeRate, time.Since(start).Seconds())
	k.metrics.recordPool(pool.ID, pool.Token0, pool.Token1, pool.Reserve0, pool.Reserve1, pool.LPSupply)
	incrTelemetry("swap", pool.ID,
		telemetry.NewLabel("mode", res.Mode.String()), telemetry.NewLabel("status", "success"))
	span.SetAttributes(
		// uint64 amounts do not fit an int64 attribute
		attribute.String("amm.amount_in", strconv.FormatUint(res.AmountIn, 10)),
		attribute.String("amm.amount_out", strconv.FormatUint(res.AmountOut, 10)),
		attribute.String("amm.fee_rate", strconv.FormatUint(res.FeeRate, 10)),
	)

	return &res, nil
}

// computeSwap runs the whole swap on copies of the pool and its oracle.
func (k Keeper) computeSwap(ctx context.Context, msg types.MsgSwap) (*swapPlan, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	trader, err := sdk.AccAddressFromBech32(msg.Trader)
	if err != nil {
		return nil, err
	}

	pool, err := k.GetPool(ctx, msg.PoolID)
	if err != nil {
		return nil, err
	}
	direction, err := pool.Direction(msg.TokenIn, msg.TokenOut)
	if err != nil {
		return nil, err
	}
	now := blockTimestamp(ctx)
	if err := checkPoolGate(pool, types.PoolStatusSwap, now); err != nil {
		return nil, err
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	buffer, err := k.GetObservationBuffer(ctx, pool.ID)
	if err != nil {
		return nil, err
	}

	reserveIn, reserveOut := pool.Reserves(direction)
	if err := types.ValidateSupply(reserveIn, reserveOut); err != nil {
		return nil, err
	}

	discount := false
	if msg.Intermediary != "" {
		intermediary, err := sdk.AccAddressFromBech32(msg.Intermediary)
		if err != nil {
			return nil, err
		}
		discount = k.capabilities.IsDiscountEligible(ctx, intermediary)
	}

	feeRate, err := k.feeEngine.CalculateFeeRate(now, buffer, pool.Reserve0, pool.Reserve1,
		params.FeeConfig, params.VolatilityWindow, discount)
	if err != nil {
		return nil, err
	}

	constantBefore, err := types.ConstantProduct(types.U128(reserveIn), types.U128(reserveOut))
	if err != nil {
		return nil, err
	}

	res := types.SwapResult{
		Direction: direction,
		Mode:      msg.Mode,
		FeeRate:   feeRate,
	}
	var fee uint64

	switch msg.Mode {
	case types.ExactIn:
		fee, err = k.priceExactIn(ctx, msg, reserveIn, reserveOut, feeRate, &res)
	case types.ExactOut:
		fee, err = k.priceExactOut(ctx, msg, reserveIn, reserveOut, feeRate, &res)
	default:
		err = types.ErrInvalidAmount.Wrapf("unknown swap mode %d", msg.Mode)
	}
	if err != nil {
		return nil, err
	}

	protocolFee, err := types.ProtocolFee(types.U128(fee), params.FeeConfig.ProtocolFeeRate)
	if err != nil {
		return nil, err
	}
	fundFee, err := types.FundFee(types.U128(fee), params.FeeConfig.FundFeeRate)
	if err != nil {
		return nil, err
	}
	res.ProtocolFee = protocolFee.Uint64()
	res.FundFee = fundFee.Uint64()

	referral, hasReferral := k.referrals.GetReferral(ctx, trader, msg.TokenIn)
	if hasReferral && referral.ShareBps > 0 {
		if err := k.applyReferral(ctx, pool.ID, msg.TokenIn, referral, &fee, &res); err != nil {
			return nil, err
		}
	}
	res.FeeTotal = fee

	// the input reserve as it will be stored: protocol and fund fees leave
	// the pool, the rest of the fee stays with liquidity providers
	credited, err := types.CheckedSub(
		types.U128(reserveIn).Add(types.U128(res.AmountIn)),
		types.U128(res.ProtocolFee).Add(types.U128(res.FundFee)),
	)
	if err != nil {
		// fees beyond the whole input leave nothing behind
		credited = math.ZeroInt()
	}
	remaining, err := types.CheckedSub(types.U128(reserveOut), types.U128(res.AmountOut))
	if err != nil {
		return nil, err
	}
	constantAfter, err := types.ConstantProduct(credited, remaining)
	if err != nil {
		return nil, err
	}
	if constantAfter.LT(constantBefore) {
		k.metrics.invariantViolated(pool.ID)
		k.Logger(ctx).Error("constant product decreased",
			"pool_id", pool.ID,
			"constant_before", constantBefore.String(),
			"constant_after", constantAfter.String(),
		)
		return nil, types.ErrInvariantViolation.Wrapf("pool %d: %s < %s", pool.ID, constantAfter, constantBefore)
	}

	if err := checkSwapLimit(msg, &res); err != nil {
		return nil, err
	}

	reserve0Before, reserve1Before := pool.Reserve0, pool.Reserve1
	price0, price1, err := types.TokenPriceX32(reserve0Before, reserve1Before)
	if err != nil {
		return nil, err
	}

	if err := settleSwap(pool, direction, &res); err != nil {
		return nil, err
	}
	buffer.Update(now, price0, price1)

	return &swapPlan{
		pool:   *pool,
		buffer: buffer,
		result: res,
		now:    now,

		reserve0Before: reserve0Before,
		reserve1Before: reserve1Before,
	}, nil
}

// priceExactIn fills the amounts of a fixed-input swap and returns the trading fee.
func (k Keeper) priceExactIn(ctx context.Context, msg types.MsgSwap, reserveIn, reserveOut, feeRate uint64, res *types.SwapResult) (uint64, error) {
	inTransferFee, err := k.transferFees.GetTransferFee(ctx, msg.TokenIn, msg.Amount)
	if err != nil {
		return 0, err
	}
	actualIn, err := types.SubUint64(msg.Amount, inTransferFee)
	if err != nil || actualIn == 0 {
		return 0, types.ErrInvalidAmount.Wrapf("nothing left of %d after transfer fee %d", msg.Amount, inTransferFee)
	}

	fee, err := types.TradingFee(types.U128(actualIn), feeRate)
	if err != nil {
		return 0, err
	}
	swapped := types.U128(actualIn).Sub(fee)
	out, err := types.SwapBaseInputWithoutFees(swapped, types.U128(reserveIn), types.U128(reserveOut))
	if err != nil {
		return 0, err
	}
	amountOut, err := types.ToUint64(out)
	if err != nil {
		return 0, err
	}

	outTransferFee, err := k.transferFees.GetTransferFee(ctx, msg.TokenOut, amountOut)
	if err != nil {
		return 0, err
	}

	res.AmountIn = actualIn
	res.AmountOut = amountOut
	res.InputTransfer = msg.Amount
	res.InputTransferFee = inTransferFee
	res.OutputTransferFee = outTransferFee
	res.AmountReceived = types.SaturatingSubUint64(amountOut, outTransferFee)
	return fee.Uint64(), nil
}

// priceExactOut fills the amounts of a fixed-output swap and returns the trading fee.
func (k Keeper) priceExactOut(ctx context.Context, msg types.MsgSwap, reserveIn, reserveOut, feeRate uint64, res *types.SwapResult) (uint64, error) {
	outTransferFee, err := k.transferFees.GetTransferInverseFee(ctx, msg.TokenOut, msg.Amount)
	if err != nil {
		return 0, err
	}
	actualOut, err := types.AddUint64(msg.Amount, outTransferFee)
	if err != nil {
		return 0, err
	}

	swapped, err := types.SwapBaseOutputWithoutFees(types.U128(actualOut), types.U128(reserveIn), types.U128(reserveOut))
	if err != nil {
		return 0, err
	}
	source, err := types.CalculatePreFeeAmount(swapped, feeRate)
	if err != nil {
		return 0, err
	}
	actualIn, err := types.ToUint64(source)
	if err != nil {
		return 0, err
	}
	fee := source.Sub(swapped)

	inTransferFee, err := k.transferFees.GetTransferInverseFee(ctx, msg.TokenIn, actualIn)
	if err != nil {
		return 0, err
	}
	inputTransfer, err := types.AddUint64(actualIn, inTransferFee)
	if err != nil {
		return 0, err
	}

	res.AmountIn = actualIn
	res.AmountOut = actualOut
	res.InputTransfer = inputTransfer
	res.InputTransferFee = inTransferFee
	res.OutputTransferFee = outTransferFee
	res.AmountReceived = msg.Amount
	return fee.Uint64(), nil
}

// applyReferral pays the referrer its share of the fee kept by liquidity
// providers. The payout comes out of the input before it reaches the pool,
// so it reduces the pool's input and the fee together. A payout its own
// transfer fee would consume is skipped.
func (k Keeper) applyReferral(
	ctx context.Context,
	poolID uint64,
	denom string,
	referral types.ReferralInfo,
	fee *uint64,
	res *types.SwapResult,
) error {
	shareBps := referral.ShareBps
	if uint64(shareBps) > types.BasisPointsDenominator {
		k.Logger(ctx).Error("referral share above 100%, clamped",
			"pool_id", poolID,
			"share_bps", shareBps,
		)
		shareBps = uint16(types.BasisPointsDenominator)
	}

	retained := types.SaturatingSubUint64(*fee, res.ProtocolFee+res.FundFee)
	share, err := types.ReferralShare(types.U128(retained), shareBps)
	if err != nil {
		return err
	}
	// never more than the liquidity providers' part of the fee
	amount := min(share.Uint64(), retained)
	if amount == 0 {
		return nil
	}

	transferFee, err := k.transferFees.GetTransferFee(ctx, denom, amount)
	if err != nil {
		return err
	}
	if transferFee >= amount {
		k.metrics.referralSkipped(poolID)
		k.Logger(ctx).Debug("referral skipped",
			"pool_id", poolID,
			"referral_amount", amount,
			"transfer_fee", transferFee,
		)
		return nil
	}

	if *fee, err = types.SubUint64(*fee, amount); err != nil {
		return err
	}
	if res.AmountIn, err = types.SubUint64(res.AmountIn, amount); err != nil {
		return err
	}
	res.ReferralAmount = amount

	k.Logger(ctx).Debug("referral paid",
		"pool_id", poolID,
		"recipient", referral.Recipient.String(),
		"referral_amount", amount,
	)
	return nil
}

// checkSwapLimit enforces the caller's slippage bound.
func checkSwapLimit(msg types.MsgSwap, res *types.SwapResult) error {
	if msg.Mode == types.ExactIn {
		if res.AmountReceived == 0 {
			return types.ErrZeroTradingTokens.Wrapf("swap of %d yields nothing", msg.Amount)
		}
		if res.AmountReceived < msg.Limit {
			return types.WrapWithRecovery(types.ErrExceededSlippage,
				"received %d, minimum %d", res.AmountReceived, msg.Limit)
		}
		return nil
	}
	if res.InputTransfer > msg.Limit {
		return types.WrapWithRecovery(types.ErrExceededSlippage,
			"input %d, maximum %d", res.InputTransfer, msg.Limit)
	}
	return nil
}

// settleSwap moves the priced amounts into the pool copy: reserves, accrued
// fees, counters and partner attribution.
func settleSwap(pool *types.PoolState, direction types.TradeDirection, res *types.SwapResult) error {
	reserveIn, reserveOut := pool.Reserves(direction)

	newIn, err := types.AddUint64(reserveIn, res.AmountIn)
	if err != nil {
		return err
	}
	if newIn, err = types.SubUint64(newIn, res.ProtocolFee+res.FundFee); err != nil {
		return err
	}
	newOut, err := types.SubUint64(reserveOut, res.AmountOut)
	if err != nil {
		return err
	}
	if err := types.ValidateSupply(newIn, newOut); err != nil {
		return err
	}

	fee := types.U128(res.FeeTotal)
	volume := types.U128(res.AmountIn)
	if direction == types.ZeroForOne {
		pool.Reserve0, pool.Reserve1 = newIn, newOut
		if pool.ProtocolFees0, err = types.AddUint64(pool.ProtocolFees0, res.ProtocolFee); err != nil {
			return err
		}
		if pool.FundFees0, err = types.AddUint64(pool.FundFees0, res.FundFee); err != nil {
			return err
		}
		if pool.CumulativeTradeFees0, err = types.CheckedAdd(pool.CumulativeTradeFees0, fee); err != nil {
			return err
		}
		if pool.CumulativeVolume0, err = types.CheckedAdd(pool.CumulativeVolume0, volume); err != nil {
			return err
		}
	} else {
		pool.Reserve1, pool.Reserve0 = newIn, newOut
		if pool.ProtocolFees1, err = types.AddUint64(pool.ProtocolFees1, res.ProtocolFee); err != nil {
			return err
		}
		if pool.FundFees1, err = types.AddUint64(pool.FundFees1, res.FundFee); err != nil {
			return err
		}
		if pool.CumulativeTradeFees1, err = types.CheckedAdd(pool.CumulativeTradeFees1, fee); err != nil {
			return err
		}
		if pool.CumulativeVolume1, err = types.CheckedAdd(pool.CumulativeVolume1, volume); err != nil {
			return err
		}
	}

	if err := pool.Partners.AttributeProtocolFee(math.NewIntFromUint64(res.ProtocolFee), pool.LPSupply, direction == types.ZeroForOne); err != nil {
		return err
	}

	pool.LatestFeeRate = res.FeeRate
	res.NewReserve0 = pool.Reserve0
	res.NewReserve1 = pool.Reserve1
	return nil
}
