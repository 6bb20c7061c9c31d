package types

import (
	"fmt"
)

// FeeRateDenominator is 100% in fee-rate units. One basis point is 100.
const FeeRateDenominator uint64 = 1_000_000

// FeeConfig holds the fee rates of the module. Every field is a numerator
// over FeeRateDenominator except VolatilityFactor and ImbalanceFactor, which
// scale the dynamic components into the same units.
type FeeConfig struct {
	BaseFeeRate      uint64 `json:"base_fee_rate"`
	ProtocolFeeRate  uint64 `json:"protocol_fee_rate"`
	FundFeeRate      uint64 `json:"fund_fee_rate"`
	MaxFeeRate       uint64 `json:"max_fee_rate"`
	VolatilityFactor uint64 `json:"volatility_factor"`
	ImbalanceFactor  uint64 `json:"imbalance_factor"`
}

// DefaultFeeConfig returns a 0.25% base fee capped at 10%, with 12% of every
// fee going to the protocol and 4% to the fund.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		BaseFeeRate:      2_500,
		ProtocolFeeRate:  120_000,
		FundFeeRate:      40_000,
		MaxFeeRate:       100_000,
		VolatilityFactor: 30_000,
		ImbalanceFactor:  0, // imbalance term off
	}
}

// Validate checks the fee rates against the denominator.
func (c FeeConfig) Validate() error {
	if c.BaseFeeRate >= FeeRateDenominator {
		return ErrInvalidFeeConfig.Wrapf("base fee rate %d must be below %d", c.BaseFeeRate, FeeRateDenominator)
	}
	if c.MaxFeeRate >= FeeRateDenominator {
		return ErrInvalidFeeConfig.Wrapf("max fee rate %d must be below %d", c.MaxFeeRate, FeeRateDenominator)
	}
	if c.BaseFeeRate > c.MaxFeeRate {
		return ErrInvalidFeeConfig.Wrapf("base fee rate %d exceeds max fee rate %d", c.BaseFeeRate, c.MaxFeeRate)
	}
	share, err := AddUint64(c.ProtocolFeeRate, c.FundFeeRate)
	if err != nil || share > FeeRateDenominator {
		return ErrInvalidFeeConfig.Wrapf("protocol fee rate %d plus fund fee rate %d exceeds %d",
			c.ProtocolFeeRate, c.FundFeeRate, FeeRateDenominator)
	}
	return nil
}

// Params defines the parameters for the amm module.
type Params struct {
	FeeConfig FeeConfig `json:"fee_config"`
	// VolatilityWindow is the oracle lookback, in seconds, of the fee engine.
	VolatilityWindow uint64 `json:"volatility_window"`
	// PartnerChannels seeds the partner table of newly created pools.
	PartnerChannels []uint8 `json:"partner_channels"`
	// MinInitialLiquidity is the smallest LP supply a new pool may mint.
	MinInitialLiquidity uint64 `json:"min_initial_liquidity"`
}

// DefaultParams returns default amm parameters
func DefaultParams() Params {
	return Params{
		FeeConfig:           DefaultFeeConfig(),
		VolatilityWindow:    DefaultVolatilityWindow,
		PartnerChannels:     []uint8{},
		MinInitialLiquidity: 1_000,
	}
}

// Validate validates the set of params
func (p Params) Validate() error {
	if err := p.FeeConfig.Validate(); err != nil {
		return err
	}
	if p.VolatilityWindow == 0 {
		return fmt.Errorf("volatility window must be positive")
	}
	if len(p.PartnerChannels) > MaxPartners {
		return ErrInvalidPartner.Wrapf("%d partner channels exceed capacity %d", len(p.PartnerChannels), MaxPartners)
	}
	seen := make(map[uint8]struct{}, len(p.PartnerChannels))
	for _, id := range p.PartnerChannels {
		if id == 0 {
			return ErrInvalidPartner.Wrap("partner channel zero is reserved")
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidPartner.Wrapf("duplicate partner channel %d", id)
		}
		seen[id] = struct{}{}
	}
	if p.MinInitialLiquidity <= LockedLiquidity {
		return fmt.Errorf("min initial liquidity %d must exceed locked liquidity %d", p.MinInitialLiquidity, LockedLiquidity)
	}
	return nil
}
