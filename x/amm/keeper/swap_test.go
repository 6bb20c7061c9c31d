package keeper_test

import (
	"bytes"
	"errors"
	"strconv"
	"testing"
	"time"

	"cosmossdk.io/log"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	keepertest "github.com/paw-chain/cpamm/testutil/keeper"
	"github.com/paw-chain/cpamm/x/amm/keeper"
	"github.com/paw-chain/cpamm/x/amm/types"
)

func (suite *KeeperTestSuite) swapIn(amount, minOut uint64) (*types.SwapResult, error) {
	msg := types.NewMsgSwapExactIn(traderAddr.String(), suite.poolID, denomAtom, denomPaw, amount, minOut)
	return suite.keeper.ExecuteSwap(suite.ctx, *msg)
}

func (suite *KeeperTestSuite) TestSwapExactIn() {
	suite.createPool()

	res, err := suite.swapIn(10_000, 1)
	suite.Require().NoError(err)

	// fee ceil(10000*0.25%) = 25, curve on 9975
	suite.Require().Equal(types.ZeroForOne, res.Direction)
	suite.Require().Equal(types.DefaultFeeConfig().BaseFeeRate, res.FeeRate)
	suite.Require().Equal(uint64(10_000), res.AmountIn)
	suite.Require().Equal(uint64(25), res.FeeTotal)
	suite.Require().Equal(uint64(9_876), res.AmountOut)
	suite.Require().Equal(uint64(9_876), res.AmountReceived)
	suite.Require().Equal(uint64(3), res.ProtocolFee)
	suite.Require().Equal(uint64(1), res.FundFee)
	suite.Require().Zero(res.ReferralAmount)

	pool := suite.pool()
	suite.Require().Equal(uint64(1_009_996), pool.Reserve0)
	suite.Require().Equal(uint64(990_124), pool.Reserve1)
	suite.Require().Equal(uint64(3), pool.ProtocolFees0)
	suite.Require().Equal(uint64(1), pool.FundFees0)
	suite.Require().Equal(uint64(25), pool.CumulativeTradeFees0.Uint64())
	suite.Require().Equal(uint64(10_000), pool.CumulativeVolume0.Uint64())
	suite.Require().True(pool.CumulativeVolume1.IsZero())
	suite.Require().Equal(res.FeeRate, pool.LatestFeeRate)
	suite.Require().Equal(pool.Reserve0, res.NewReserve0)
	suite.Require().Equal(pool.Reserve1, res.NewReserve1)

	events := suite.ctx.EventManager().Events()
	suite.Require().Equal(types.EventTypeSwap, events[len(events)-1].Type)
}

func (suite *KeeperTestSuite) TestSwapExactOut() {
	suite.createPool()

	msg := types.NewMsgSwapExactOut(traderAddr.String(), suite.poolID, denomAtom, denomPaw, 10_000, 10_200)
	res, err := suite.keeper.ExecuteSwap(suite.ctx, *msg)
	suite.Require().NoError(err)

	// ceil(1e6*10000/990000) = 10102 before fees, grossed up to 10128
	suite.Require().Equal(uint64(10_000), res.AmountOut)
	suite.Require().Equal(uint64(10_000), res.AmountReceived)
	suite.Require().Equal(uint64(10_128), res.AmountIn)
	suite.Require().Equal(uint64(10_128), res.InputTransfer)
	suite.Require().Equal(uint64(26), res.FeeTotal)

	pool := suite.pool()
	suite.Require().Equal(uint64(1_010_124), pool.Reserve0)
	suite.Require().Equal(uint64(990_000), pool.Reserve1)

	msg.Limit = 10_127
	_, err = suite.keeper.QuoteSwap(suite.ctx, *msg)
	suite.Require().ErrorIs(err, types.ErrExceededSlippage)
}

func (suite *KeeperTestSuite) TestSwapExactOutCannotDrainReserve() {
	suite.createPool()

	msg := types.NewMsgSwapExactOut(traderAddr.String(), suite.poolID, denomAtom, denomPaw, 1_000_000, ^uint64(0))
	_, err := suite.keeper.ExecuteSwap(suite.ctx, *msg)
	suite.Require().ErrorIs(err, types.ErrMathOverflow)
}

func (suite *KeeperTestSuite) TestSwapOppositeDirection() {
	suite.createPool()

	msg := types.NewMsgSwapExactIn(traderAddr.String(), suite.poolID, denomPaw, denomAtom, 10_000, 1)
	res, err := suite.keeper.ExecuteSwap(suite.ctx, *msg)
	suite.Require().NoError(err)
	suite.Require().Equal(types.OneForZero, res.Direction)

	pool := suite.pool()
	suite.Require().Equal(uint64(990_124), pool.Reserve0)
	suite.Require().Equal(uint64(1_009_996), pool.Reserve1)
	suite.Require().Equal(uint64(3), pool.ProtocolFees1)
	suite.Require().Zero(pool.ProtocolFees0)
}

func (suite *KeeperTestSuite) TestQuoteMatchesExecuteAndWritesNothing() {
	suite.createPool()
	before := poolJSON(suite.T(), suite.pool())

	msg := types.NewMsgSwapExactIn(traderAddr.String(), suite.poolID, denomAtom, denomPaw, 25_000, 1)
	quote, err := suite.keeper.QuoteSwap(suite.ctx, *msg)
	suite.Require().NoError(err)
	suite.Require().Equal(before, poolJSON(suite.T(), suite.pool()))

	buf, err := suite.keeper.GetObservationBuffer(suite.ctx, suite.poolID)
	suite.Require().NoError(err)
	suite.Require().Zero(buf.Len())

	res, err := suite.keeper.ExecuteSwap(suite.ctx, *msg)
	suite.Require().NoError(err)
	suite.Require().Equal(*quote, *res)
}

func (suite *KeeperTestSuite) TestFailedSwapLeavesStateUntouched() {
	suite.createPool()
	_, err := suite.swapIn(10_000, 1)
	suite.Require().NoError(err)

	before := poolJSON(suite.T(), suite.pool())
	bufBefore, err := suite.keeper.GetObservationBuffer(suite.ctx, suite.poolID)
	suite.Require().NoError(err)

	suite.advance(30)
	_, err = suite.swapIn(10_000, 1_000_000)
	suite.Require().ErrorIs(err, types.ErrExceededSlippage)

	suite.Require().Equal(before, poolJSON(suite.T(), suite.pool()))
	bufAfter, err := suite.keeper.GetObservationBuffer(suite.ctx, suite.poolID)
	suite.Require().NoError(err)
	suite.Require().Equal(bufBefore.Len(), bufAfter.Len())
	suite.Require().Equal(bufBefore.Cursor, bufAfter.Cursor)
}

func (suite *KeeperTestSuite) TestSwapRejections() {
	suite.createPool()

	_, err := suite.keeper.ExecuteSwap(suite.ctx,
		*types.NewMsgSwapExactIn(traderAddr.String(), suite.poolID, denomAtom, "uosmo", 100, 0))
	suite.Require().ErrorIs(err, types.ErrInvalidVault)

	_, err = suite.keeper.ExecuteSwap(suite.ctx,
		*types.NewMsgSwapExactIn(traderAddr.String(), 42, denomAtom, denomPaw, 100, 0))
	suite.Require().ErrorIs(err, types.ErrPoolNotFound)

	_, err = suite.swapIn(1, 0)
	suite.Require().ErrorIs(err, types.ErrZeroTradingTokens, "one unit pays a one unit fee")

	suite.mocks.TransferFees.Flat[denomAtom] = 50
	_, err = suite.swapIn(50, 0)
	suite.Require().ErrorIs(err, types.ErrInvalidAmount, "transfer fee eats the input")
}

func (suite *KeeperTestSuite) TestSwapWithTransferFees() {
	suite.createPool()
	suite.mocks.TransferFees.Flat[denomAtom] = 100
	suite.mocks.TransferFees.Flat[denomPaw] = 10

	res, err := suite.swapIn(10_100, 1)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(10_000), res.AmountIn)
	suite.Require().Equal(uint64(100), res.InputTransferFee)
	suite.Require().Equal(uint64(9_876), res.AmountOut)
	suite.Require().Equal(uint64(10), res.OutputTransferFee)
	suite.Require().Equal(uint64(9_866), res.AmountReceived)

	_, err = suite.swapIn(10_100, 9_867)
	suite.Require().ErrorIs(err, types.ErrExceededSlippage, "the minimum applies to what arrives")
}

func (suite *KeeperTestSuite) TestSwapGates() {
	pool := suite.createPool()

	suite.Require().NoError(suite.keeper.SetPoolStatus(suite.ctx, pool.ID, 1<<types.PoolStatusSwap))
	_, err := suite.swapIn(10_000, 1)
	suite.Require().ErrorIs(err, types.ErrNotApproved)

	suite.Require().NoError(suite.keeper.SetPoolStatus(suite.ctx, pool.ID, 0))
	_, err = suite.swapIn(10_000, 1)
	suite.Require().NoError(err)

	late, err := suite.keeper.CreatePool(suite.ctx, types.MsgCreatePool{
		Creator:  creatorAddr.String(),
		TokenA:   denomAtom,
		TokenB:   "uosmo",
		AmountA:  1_000_000,
		AmountB:  1_000_000,
		OpenTime: uint64(suite.ctx.BlockTime().Unix()) + 100,
	})
	suite.Require().NoError(err)

	msg := types.NewMsgSwapExactIn(traderAddr.String(), late.ID, "uosmo", denomAtom, 10_000, 1)
	_, err = suite.keeper.ExecuteSwap(suite.ctx, *msg)
	suite.Require().ErrorIs(err, types.ErrNotApproved)

	suite.advance(100)
	_, err = suite.keeper.ExecuteSwap(suite.ctx, *msg)
	suite.Require().NoError(err)
}

func (suite *KeeperTestSuite) TestSwapDiscountForEligibleIntermediary() {
	suite.createPool()
	suite.mocks.Capabilities.Eligible[routerAddr.String()] = true

	msg := types.NewMsgSwapExactIn(traderAddr.String(), suite.poolID, denomAtom, denomPaw, 10_000, 1)
	msg.Intermediary = routerAddr.String()
	res, err := suite.keeper.QuoteSwap(suite.ctx, *msg)
	suite.Require().NoError(err)
	suite.Require().Equal(types.DefaultFeeConfig().BaseFeeRate, res.FeeRate, "no oracle data: base rate, no discount")

	// two samples a minute apart give the engine a signal
	_, err = suite.swapIn(10_000, 1)
	suite.Require().NoError(err)
	suite.advance(60)
	_, err = suite.swapIn(10_000, 1)
	suite.Require().NoError(err)
	suite.advance(60)

	plain, err := suite.keeper.QuoteSwap(suite.ctx, *types.NewMsgSwapExactIn(traderAddr.String(), suite.poolID, denomAtom, denomPaw, 10_000, 1))
	suite.Require().NoError(err)
	discounted, err := suite.keeper.QuoteSwap(suite.ctx, *msg)
	suite.Require().NoError(err)
	suite.Require().Equal(plain.FeeRate-types.OneBasisPoint, discounted.FeeRate)
}

func (suite *KeeperTestSuite) TestSwapRecordsPreTradePrice() {
	suite.createPool()

	_, err := suite.swapIn(50_000, 1)
	suite.Require().NoError(err)

	obs, err := suite.keeper.GetPoolObservations(suite.ctx, suite.poolID)
	suite.Require().NoError(err)
	suite.Require().Len(obs, 1)
	suite.Require().Equal(uint64(suite.ctx.BlockTime().Unix()), obs[0].Timestamp)
	suite.Require().True(obs[0].CumulativePrice0X32.IsZero())

	// the second sample integrates the price the second swap traded against
	price0, price1, err := suite.keeper.GetSpotPrice(suite.ctx, suite.poolID)
	suite.Require().NoError(err)

	suite.advance(60)
	_, err = suite.swapIn(50_000, 1)
	suite.Require().NoError(err)

	obs, err = suite.keeper.GetPoolObservations(suite.ctx, suite.poolID)
	suite.Require().NoError(err)
	suite.Require().Len(obs, 2)
	suite.Require().Equal(price0.MulRaw(60).String(), obs[1].CumulativePrice0X32.String())
	suite.Require().Equal(price1.MulRaw(60).String(), obs[1].CumulativePrice1X32.String())
}

func (suite *KeeperTestSuite) TestDynamicFeeRisesWithVolatility() {
	suite.createPool()
	cfg := types.DefaultFeeConfig()

	for i := 0; i < 3; i++ {
		res, err := suite.swapIn(50_000, 1)
		suite.Require().NoError(err)
		suite.Require().Equal(cfg.BaseFeeRate, res.FeeRate, "swap %d sees no spread yet", i)
		suite.advance(60)
	}

	res, err := suite.swapIn(50_000, 1)
	suite.Require().NoError(err)
	suite.Require().Greater(res.FeeRate, cfg.BaseFeeRate)
	suite.Require().LessOrEqual(res.FeeRate, cfg.MaxFeeRate)
	suite.Require().Equal(res.FeeRate, suite.pool().LatestFeeRate)
}

func (suite *KeeperTestSuite) TestSwapPaysReferral() {
	suite.createPool()
	suite.mocks.Referrals.Referrals[traderAddr.String()] = types.ReferralInfo{ShareBps: 2_500, Recipient: routerAddr}

	res, err := suite.swapIn(10_000, 1)
	suite.Require().NoError(err)

	// a quarter of 25-3-1 leaves with the referrer, out of input and fee alike
	suite.Require().Equal(uint64(5), res.ReferralAmount)
	suite.Require().Equal(uint64(20), res.FeeTotal)
	suite.Require().Equal(uint64(9_995), res.AmountIn)
	suite.Require().Equal(uint64(10_000), res.InputTransfer)
	suite.Require().Equal(uint64(9_876), res.AmountOut)

	pool := suite.pool()
	suite.Require().Equal(uint64(1_009_991), pool.Reserve0)
	suite.Require().Equal(uint64(20), pool.CumulativeTradeFees0.Uint64())
	suite.Require().Equal(uint64(9_995), pool.CumulativeVolume0.Uint64())
}

func (suite *KeeperTestSuite) TestSwapSkipsReferralEatenByTransferFee() {
	suite.createPool()
	suite.mocks.Referrals.Referrals[traderAddr.String()] = types.ReferralInfo{ShareBps: 2_500, Recipient: routerAddr}
	// the referral would be 5; sending it would cost 5
	suite.mocks.TransferFees.Flat[denomAtom] = 5

	res, err := suite.swapIn(10_000, 1)
	suite.Require().NoError(err)
	suite.Require().Zero(res.ReferralAmount)
	suite.Require().Equal(uint64(25), res.FeeTotal)
	suite.Require().Equal(uint64(9_995), res.AmountIn)

	pool := suite.pool()
	suite.Require().Equal(uint64(25), pool.CumulativeTradeFees0.Uint64())
	suite.Require().Equal(uint64(1_000_000+9_995-4), pool.Reserve0)
}

func (suite *KeeperTestSuite) TestSwapAttributesProtocolFeeToPartners() {
	suite.setParams(func(p *types.Params) { p.PartnerChannels = []uint8{7} })
	suite.mocks.Referrals.Partners[creatorAddr.String()] = 7
	pool := suite.createPool()
	suite.Require().Equal(uint64(999_900), pool.Partners[0].LPLinkedToPartner)

	_, err := suite.swapIn(10_000, 1)
	suite.Require().NoError(err)

	// protocol fee 3, partner share floor(999900*1e5/1e6) = 99990 of 1e5
	pool = suite.pool()
	suite.Require().Equal(uint64(2), pool.Partners[0].CumulativeProtocolFeeShare0)
	suite.Require().Zero(pool.Partners[0].CumulativeProtocolFeeShare1)
}

func (suite *KeeperTestSuite) TestSwapClampsReferralShareToRetainedFee() {
	for _, shareBps := range []uint16{10_000, 11_500, ^uint16(0)} {
		suite.SetupTest()
		suite.createPool()
		suite.mocks.Referrals.Referrals[traderAddr.String()] = types.ReferralInfo{ShareBps: shareBps, Recipient: routerAddr}

		res, err := suite.swapIn(10_000, 1)
		suite.Require().NoError(err, "share %d", shareBps)

		// all of 25-3-1 at most, the protocol and fund cut untouched
		suite.Require().Equal(uint64(21), res.ReferralAmount, "share %d", shareBps)
		suite.Require().Equal(uint64(4), res.FeeTotal)
		suite.Require().Equal(uint64(3), res.ProtocolFee)
		suite.Require().Equal(uint64(1), res.FundFee)
		suite.Require().Equal(uint64(9_979), res.AmountIn)
		suite.Require().Equal(uint64(9_876), res.AmountOut)

		pool := suite.pool()
		suite.Require().Equal(uint64(1_009_975), pool.Reserve0)
		suite.Require().Equal(uint64(990_124), pool.Reserve1)
		constantAfter, err := types.ConstantProduct(types.U128(pool.Reserve0), types.U128(pool.Reserve1))
		suite.Require().NoError(err)
		suite.Require().True(constantAfter.GTE(types.U128(1_000_000).MulRaw(1_000_000)))
	}
}

func (suite *KeeperTestSuite) TestSwapAbortsWhenConstantProductWouldShrink() {
	suite.createPool()
	_, err := suite.swapIn(1_000, 1)
	suite.Require().NoError(err)
	suite.advance(60)

	// fee splits above the whole fee can only come from a corrupted store
	params, err := suite.keeper.GetParams(suite.ctx)
	suite.Require().NoError(err)
	params.FeeConfig.ProtocolFeeRate = 900_000
	params.FeeConfig.FundFeeRate = 900_000
	suite.Require().NoError(suite.keeper.SetParamsUnchecked(suite.ctx, params))

	poolBefore := poolJSON(suite.T(), suite.pool())
	buf, err := suite.keeper.GetObservationBuffer(suite.ctx, suite.poolID)
	suite.Require().NoError(err)
	ringBefore, err := buf.MarshalBinary()
	suite.Require().NoError(err)

	violations := keeper.NewAMMMetrics().InvariantViolations.WithLabelValues(strconv.FormatUint(suite.poolID, 10))
	violationsBefore := promtestutil.ToFloat64(violations)
	var logs bytes.Buffer
	suite.ctx = suite.ctx.WithLogger(log.NewLogger(&logs))

	msg := types.NewMsgSwapExactIn(traderAddr.String(), suite.poolID, denomAtom, denomPaw, 10_000, 1)
	_, err = suite.keeper.QuoteSwap(suite.ctx, *msg)
	suite.Require().ErrorIs(err, types.ErrInvariantViolation)
	_, err = suite.keeper.ExecuteSwap(suite.ctx, *msg)
	suite.Require().ErrorIs(err, types.ErrInvariantViolation)

	suite.Require().Equal(poolBefore, poolJSON(suite.T(), suite.pool()))
	buf, err = suite.keeper.GetObservationBuffer(suite.ctx, suite.poolID)
	suite.Require().NoError(err)
	ringAfter, err := buf.MarshalBinary()
	suite.Require().NoError(err)
	suite.Require().Equal(ringBefore, ringAfter)

	suite.Require().Equal(violationsBefore+2, promtestutil.ToFloat64(violations))
	suite.Require().Contains(logs.String(), "constant product decreased")
}

// requireExpectedSwapRejection allows the economic and arithmetic refusals a
// random swap can hit and nothing else.
func requireExpectedSwapRejection(t require.TestingT, err error) {
	require.NotErrorIs(t, err, types.ErrInvariantViolation)
	for _, allowed := range []error{types.ErrZeroTradingTokens, types.ErrInvalidAmount, types.ErrMathOverflow} {
		if errors.Is(err, allowed) {
			return
		}
	}
	require.Fail(t, "unexpected swap error", "%v", err)
}

func TestPropertySwapNeverShrinksConstantProduct(t *testing.T) {
	k, baseCtx, mocks := keepertest.AmmKeeper(t)

	rapid.Check(t, func(t *rapid.T) {
		ctx, _ := baseCtx.CacheContext()
		mocks.TransferFees.Flat[denomAtom] = 0
		mocks.TransferFees.Flat[denomPaw] = 0
		delete(mocks.Referrals.Referrals, traderAddr.String())

		reserve0 := rapid.Uint64Range(1_000, 1<<40).Draw(t, "reserve0")
		reserve1 := rapid.Uint64Range(1_000, 1<<40).Draw(t, "reserve1")
		pool, err := k.CreatePool(ctx, types.MsgCreatePool{
			Creator: creatorAddr.String(),
			TokenA:  denomAtom,
			TokenB:  denomPaw,
			AmountA: reserve0,
			AmountB: reserve1,
		})
		if err != nil {
			// too little initial liquidity
			require.ErrorIs(t, err, types.ErrInvalidAmount)
			return
		}

		mocks.TransferFees.Flat[denomAtom] = rapid.Uint64Range(0, 50).Draw(t, "transferFee0")
		mocks.TransferFees.Flat[denomPaw] = rapid.Uint64Range(0, 50).Draw(t, "transferFee1")
		mocks.Referrals.Referrals[traderAddr.String()] = types.ReferralInfo{
			ShareBps:  rapid.Uint16Range(0, 20_000).Draw(t, "shareBps"),
			Recipient: routerAddr,
		}

		swaps := rapid.IntRange(1, 8).Draw(t, "swaps")
		for i := 0; i < swaps; i++ {
			before, err := k.GetPool(ctx, pool.ID)
			require.NoError(t, err)
			constantBefore, err := types.ConstantProduct(types.U128(before.Reserve0), types.U128(before.Reserve1))
			require.NoError(t, err)

			tokenIn, tokenOut := denomAtom, denomPaw
			if rapid.Bool().Draw(t, "oneForZero") {
				tokenIn, tokenOut = tokenOut, tokenIn
			}
			amount := rapid.Uint64Range(1, 1<<40).Draw(t, "amount")
			msg := types.NewMsgSwapExactIn(traderAddr.String(), pool.ID, tokenIn, tokenOut, amount, 0)
			if rapid.Bool().Draw(t, "exactOut") {
				msg = types.NewMsgSwapExactOut(traderAddr.String(), pool.ID, tokenIn, tokenOut, amount, ^uint64(0))
			}

			if _, err := k.ExecuteSwap(ctx, *msg); err != nil {
				requireExpectedSwapRejection(t, err)
				continue
			}

			after, err := k.GetPool(ctx, pool.ID)
			require.NoError(t, err)
			constantAfter, err := types.ConstantProduct(types.U128(after.Reserve0), types.U128(after.Reserve1))
			require.NoError(t, err)
			require.True(t, constantAfter.GTE(constantBefore), "k fell from %s to %s", constantBefore, constantAfter)

			ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Minute))
		}
	})
}
