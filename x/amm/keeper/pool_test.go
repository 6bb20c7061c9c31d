package keeper_test

import (
	"github.com/paw-chain/cpamm/x/amm/types"
)

func (suite *KeeperTestSuite) TestCreatePool() {
	// denoms are stored in order whatever order they come in
	pool, err := suite.keeper.CreatePool(suite.ctx, types.MsgCreatePool{
		Creator: creatorAddr.String(),
		TokenA:  denomPaw,
		TokenB:  denomAtom,
		AmountA: 4_000_000,
		AmountB: 1_000_000,
	})
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(1), pool.ID)
	suite.Require().Equal(denomAtom, pool.Token0)
	suite.Require().Equal(denomPaw, pool.Token1)
	suite.Require().Equal(uint64(1_000_000), pool.Reserve0)
	suite.Require().Equal(uint64(4_000_000), pool.Reserve1)
	suite.Require().Equal(uint64(2_000_000), pool.LPSupply)
	suite.Require().Equal(uint64(suite.ctx.BlockTime().Unix()), pool.OpenTime)
	suite.Require().Equal(types.DefaultFeeConfig().BaseFeeRate, pool.LatestFeeRate)
	suite.Require().Equal(uint64(2), suite.keeper.GetNextPoolID(suite.ctx))

	position, err := suite.keeper.GetPosition(suite.ctx, pool.ID, creatorAddr)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(2_000_000)-types.LockedLiquidity, position.LPTokensOwned)

	byTokens, err := suite.keeper.GetPoolByTokens(suite.ctx, denomPaw, denomAtom)
	suite.Require().NoError(err)
	suite.Require().Equal(pool.ID, byTokens.ID)

	buf, err := suite.keeper.GetObservationBuffer(suite.ctx, pool.ID)
	suite.Require().NoError(err)
	suite.Require().False(buf.Initialized)

	events := suite.ctx.EventManager().Events()
	suite.Require().Equal(types.EventTypePoolCreated, events[len(events)-1].Type)
}

func (suite *KeeperTestSuite) TestCreatePoolRejections() {
	suite.createPool()

	_, err := suite.keeper.CreatePool(suite.ctx, types.MsgCreatePool{
		Creator: creatorAddr.String(), TokenA: denomPaw, TokenB: denomAtom, AmountA: 5_000, AmountB: 5_000,
	})
	suite.Require().ErrorIs(err, types.ErrPoolAlreadyExists)

	_, err = suite.keeper.CreatePool(suite.ctx, types.MsgCreatePool{
		Creator: creatorAddr.String(), TokenA: "ufoo", TokenB: "ubar", AmountA: 30, AmountB: 30,
	})
	suite.Require().ErrorIs(err, types.ErrInvalidAmount, "below the minimum initial liquidity")

	_, err = suite.keeper.CreatePool(suite.ctx, types.MsgCreatePool{
		Creator: creatorAddr.String(), TokenA: "ufoo", TokenB: "ufoo", AmountA: 5_000, AmountB: 5_000,
	})
	suite.Require().ErrorIs(err, types.ErrInvalidVault)

	suite.mocks.TransferFees.Flat["ufoo"] = 5_000
	_, err = suite.keeper.CreatePool(suite.ctx, types.MsgCreatePool{
		Creator: creatorAddr.String(), TokenA: "ufoo", TokenB: "ubar", AmountA: 5_000, AmountB: 5_000,
	})
	suite.Require().ErrorIs(err, types.ErrEmptySupply)
}

func (suite *KeeperTestSuite) TestCreatePoolNetOfTransferFee() {
	suite.mocks.TransferFees.Flat[denomAtom] = 1_000

	pool, err := suite.keeper.CreatePool(suite.ctx, types.MsgCreatePool{
		Creator: creatorAddr.String(), TokenA: denomAtom, TokenB: denomPaw, AmountA: 1_001_000, AmountB: 1_000_000,
	})
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(1_000_000), pool.Reserve0)
	suite.Require().Equal(uint64(1_000_000), pool.LPSupply)
}

func (suite *KeeperTestSuite) TestPoolStatusAndQueries() {
	pool := suite.createPool()

	suite.Require().ErrorIs(suite.keeper.SetPoolStatus(suite.ctx, pool.ID, 1<<5), types.ErrInvalidState)
	suite.Require().ErrorIs(suite.keeper.SetPoolStatus(suite.ctx, 99, 0), types.ErrPoolNotFound)

	price0, price1, err := suite.keeper.GetSpotPrice(suite.ctx, pool.ID)
	suite.Require().NoError(err)
	suite.Require().Equal(types.Q32.String(), price0.String())
	suite.Require().Equal(types.Q32.String(), price1.String())

	_, err = suite.keeper.GetPoolObservations(suite.ctx, 99)
	suite.Require().ErrorIs(err, types.ErrPoolNotFound)

	stored := suite.pool()
	suite.Require().Equal(poolJSON(suite.T(), pool), poolJSON(suite.T(), stored))

	pools, err := suite.keeper.GetAllPools(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(pools, 1)
}
