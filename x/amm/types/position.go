package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// LiquidityPosition is a provider's stake in one pool.
type LiquidityPosition struct {
	Owner         string `json:"owner"`
	PoolID        uint64 `json:"pool_id"`
	LPTokensOwned uint64 `json:"lp_tokens_owned"`

	Token0Deposited uint64 `json:"token_0_deposited"`
	Token1Deposited uint64 `json:"token_1_deposited"`
	Token0Withdrawn uint64 `json:"token_0_withdrawn"`
	Token1Withdrawn uint64 `json:"token_1_withdrawn"`

	// PartnerID links the position to a partner slot; zero means none.
	PartnerID uint8 `json:"partner_id"`
}

// NewLiquidityPosition returns an empty position.
func NewLiquidityPosition(owner sdk.AccAddress, poolID uint64, partnerID uint8) LiquidityPosition {
	return LiquidityPosition{
		Owner:     owner.String(),
		PoolID:    poolID,
		PartnerID: partnerID,
	}
}

// HasPartner reports whether the position is attributed to a partner.
func (p LiquidityPosition) HasPartner() bool {
	return p.PartnerID != 0
}

// Validate performs stateless checks.
func (p LiquidityPosition) Validate() error {
	if _, err := sdk.AccAddressFromBech32(p.Owner); err != nil {
		return fmt.Errorf("invalid position owner %q: %w", p.Owner, err)
	}
	if p.PoolID == 0 {
		return fmt.Errorf("position of %s: pool id must be positive", p.Owner)
	}
	return nil
}
