package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// PoolStatusBit indexes the operation gates of a pool. A set bit disables
// the operation.
type PoolStatusBit uint8

const (
	PoolStatusDeposit PoolStatusBit = iota
	PoolStatusWithdraw
	PoolStatusSwap
)

func (b PoolStatusBit) String() string {
	switch b {
	case PoolStatusDeposit:
		return "deposit"
	case PoolStatusWithdraw:
		return "withdraw"
	case PoolStatusSwap:
		return "swap"
	default:
		return fmt.Sprintf("bit_%d", uint8(b))
	}
}

// poolStatusMask covers the defined status bits.
const poolStatusMask uint8 = 1<<PoolStatusDeposit | 1<<PoolStatusWithdraw | 1<<PoolStatusSwap

// poolReservedWords is spare room in the persisted pool record.
const poolReservedWords = 8

// PoolState is the persisted record of a pool.
//
// Reserve0 and Reserve1 exclude the accrued protocol and fund fees, which are
// owed to their recipients and not to liquidity providers.
type PoolState struct {
	ID     uint64 `json:"id"`
	Token0 string `json:"token_0"`
	Token1 string `json:"token_1"`

	Reserve0 uint64 `json:"reserve_0"`
	Reserve1 uint64 `json:"reserve_1"`
	LPSupply uint64 `json:"lp_supply"`

	Status   uint8  `json:"status"`
	OpenTime uint64 `json:"open_time"`

	ProtocolFees0 uint64 `json:"protocol_fees_0"`
	ProtocolFees1 uint64 `json:"protocol_fees_1"`
	FundFees0     uint64 `json:"fund_fees_0"`
	FundFees1     uint64 `json:"fund_fees_1"`

	CumulativeTradeFees0 sdkmath.Int `json:"cumulative_trade_fees_0"`
	CumulativeTradeFees1 sdkmath.Int `json:"cumulative_trade_fees_1"`
	CumulativeVolume0    sdkmath.Int `json:"cumulative_volume_0"`
	CumulativeVolume1    sdkmath.Int `json:"cumulative_volume_1"`

	LatestFeeRate uint64 `json:"latest_fee_rate"`

	Partners PartnerTable `json:"partners"`

	Reserved [poolReservedWords]uint64 `json:"reserved"`
}

// NewPoolState returns a pool with zeroed counters. Denoms must already be ordered.
func NewPoolState(id uint64, token0, token1 string, openTime uint64) PoolState {
	return PoolState{
		ID:                   id,
		Token0:               token0,
		Token1:               token1,
		OpenTime:             openTime,
		CumulativeTradeFees0: sdkmath.ZeroInt(),
		CumulativeTradeFees1: sdkmath.ZeroInt(),
		CumulativeVolume0:    sdkmath.ZeroInt(),
		CumulativeVolume1:    sdkmath.ZeroInt(),
	}
}

// OrderDenoms returns the denoms in pool order.
func OrderDenoms(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}

// IsEnabled reports whether the gate for bit is open.
func (p PoolState) IsEnabled(bit PoolStatusBit) bool {
	return p.Status&(1<<bit) == 0
}

// Direction resolves the trade direction of a denom pair.
func (p PoolState) Direction(tokenIn, tokenOut string) (TradeDirection, error) {
	switch {
	case tokenIn == p.Token0 && tokenOut == p.Token1:
		return ZeroForOne, nil
	case tokenIn == p.Token1 && tokenOut == p.Token0:
		return OneForZero, nil
	default:
		return ZeroForOne, ErrInvalidVault.Wrapf("pair %s/%s does not match pool %d (%s/%s)",
			tokenIn, tokenOut, p.ID, p.Token0, p.Token1)
	}
}

// Reserves returns (reserveIn, reserveOut) for a direction.
func (p PoolState) Reserves(d TradeDirection) (uint64, uint64) {
	if d == ZeroForOne {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}

// Denoms returns (tokenIn, tokenOut) for a direction.
func (p PoolState) Denoms(d TradeDirection) (string, string) {
	if d == ZeroForOne {
		return p.Token0, p.Token1
	}
	return p.Token1, p.Token0
}

// Validate performs stateless checks on a pool record.
func (p PoolState) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("pool id must be positive")
	}
	if p.Token0 == "" || p.Token1 == "" {
		return fmt.Errorf("pool %d: empty denom", p.ID)
	}
	if p.Token0 >= p.Token1 {
		return fmt.Errorf("pool %d: denoms %s/%s not in order", p.ID, p.Token0, p.Token1)
	}
	if p.Status&^poolStatusMask != 0 {
		return fmt.Errorf("pool %d: unknown status bits %08b", p.ID, p.Status)
	}
	if p.LPSupply < LockedLiquidity {
		return fmt.Errorf("pool %d: lp supply %d below locked liquidity", p.ID, p.LPSupply)
	}
	for _, c := range []sdkmath.Int{p.CumulativeTradeFees0, p.CumulativeTradeFees1, p.CumulativeVolume0, p.CumulativeVolume1} {
		if c.IsNil() || c.IsNegative() || c.GT(MaxUint128) {
			return fmt.Errorf("pool %d: cumulative counter out of range", p.ID)
		}
	}
	linked, err := p.Partners.TotalLinkedLP()
	if err != nil {
		return err
	}
	if linked > p.LPSupply {
		return fmt.Errorf("pool %d: partner-linked lp %d exceeds supply %d", p.ID, linked, p.LPSupply)
	}
	return nil
}
