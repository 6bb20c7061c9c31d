package types

import (
	sdkerrors "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// SwapMode selects which side of a swap the caller fixes.
type SwapMode uint8

const (
	// ExactIn fixes the input amount; Limit is the minimum output received.
	ExactIn SwapMode = iota
	// ExactOut fixes the output amount; Limit is the maximum input paid.
	ExactOut
)

func (m SwapMode) String() string {
	if m == ExactOut {
		return "exact_out"
	}
	return "exact_in"
}

// MsgSwap requests a swap against a pool.
type MsgSwap struct {
	Trader   string   `json:"trader"`
	PoolID   uint64   `json:"pool_id"`
	TokenIn  string   `json:"token_in"`
	TokenOut string   `json:"token_out"`
	Mode     SwapMode `json:"mode"`
	Amount   uint64   `json:"amount"`
	Limit    uint64   `json:"limit"`
	// Intermediary is the optional router the swap came through; it may
	// qualify the trade for the fee discount.
	Intermediary string `json:"intermediary,omitempty"`
}

// NewMsgSwapExactIn sells amountIn of tokenIn for at least minAmountOut.
func NewMsgSwapExactIn(trader string, poolID uint64, tokenIn, tokenOut string, amountIn, minAmountOut uint64) *MsgSwap {
	return &MsgSwap{
		Trader:   trader,
		PoolID:   poolID,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Mode:     ExactIn,
		Amount:   amountIn,
		Limit:    minAmountOut,
	}
}

// NewMsgSwapExactOut buys amountOut of tokenOut for at most maxAmountIn.
func NewMsgSwapExactOut(trader string, poolID uint64, tokenIn, tokenOut string, amountOut, maxAmountIn uint64) *MsgSwap {
	return &MsgSwap{
		Trader:   trader,
		PoolID:   poolID,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Mode:     ExactOut,
		Amount:   amountOut,
		Limit:    maxAmountIn,
	}
}

// ValidateBasic performs stateless checks.
func (msg MsgSwap) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Trader); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAmount, "invalid trader address: %s", err)
	}
	if msg.Intermediary != "" {
		if _, err := sdk.AccAddressFromBech32(msg.Intermediary); err != nil {
			return sdkerrors.Wrapf(ErrInvalidAmount, "invalid intermediary address: %s", err)
		}
	}
	if msg.PoolID == 0 {
		return ErrPoolNotFound.Wrap("pool id must be positive")
	}
	if msg.TokenIn == "" || msg.TokenOut == "" || msg.TokenIn == msg.TokenOut {
		return ErrInvalidVault.Wrapf("invalid pair %q/%q", msg.TokenIn, msg.TokenOut)
	}
	if msg.Mode != ExactIn && msg.Mode != ExactOut {
		return ErrInvalidAmount.Wrapf("unknown swap mode %d", msg.Mode)
	}
	if msg.Amount == 0 {
		return ErrInvalidAmount.Wrap("swap amount must be positive")
	}
	return nil
}

// MsgDeposit mints LPAmount by paying at most Max0/Max1.
type MsgDeposit struct {
	Provider string `json:"provider"`
	PoolID   uint64 `json:"pool_id"`
	LPAmount uint64 `json:"lp_amount"`
	Max0     uint64 `json:"maximum_token_0_amount"`
	Max1     uint64 `json:"maximum_token_1_amount"`
}

// ValidateBasic performs stateless checks.
func (msg MsgDeposit) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Provider); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAmount, "invalid provider address: %s", err)
	}
	if msg.PoolID == 0 {
		return ErrPoolNotFound.Wrap("pool id must be positive")
	}
	if msg.LPAmount == 0 {
		return ErrInvalidAmount.Wrap("lp amount must be positive")
	}
	return nil
}

// MsgWithdraw burns LPAmount for at least Min0/Min1.
type MsgWithdraw struct {
	Provider string `json:"provider"`
	PoolID   uint64 `json:"pool_id"`
	LPAmount uint64 `json:"lp_amount"`
	Min0     uint64 `json:"minimum_token_0_amount"`
	Min1     uint64 `json:"minimum_token_1_amount"`
}

// ValidateBasic performs stateless checks.
func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Provider); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAmount, "invalid provider address: %s", err)
	}
	if msg.PoolID == 0 {
		return ErrPoolNotFound.Wrap("pool id must be positive")
	}
	if msg.LPAmount == 0 {
		return ErrInvalidAmount.Wrap("lp amount must be positive")
	}
	return nil
}

// MsgCreatePool opens a pool with an initial deposit of both tokens.
type MsgCreatePool struct {
	Creator  string `json:"creator"`
	TokenA   string `json:"token_a"`
	TokenB   string `json:"token_b"`
	AmountA  uint64 `json:"amount_a"`
	AmountB  uint64 `json:"amount_b"`
	OpenTime uint64 `json:"open_time"`
}

// ValidateBasic performs stateless checks.
func (msg MsgCreatePool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Creator); err != nil {
		return sdkerrors.Wrapf(ErrInvalidAmount, "invalid creator address: %s", err)
	}
	if err := sdk.ValidateDenom(msg.TokenA); err != nil {
		return sdkerrors.Wrapf(ErrInvalidVault, "token a: %s", err)
	}
	if err := sdk.ValidateDenom(msg.TokenB); err != nil {
		return sdkerrors.Wrapf(ErrInvalidVault, "token b: %s", err)
	}
	if msg.TokenA == msg.TokenB {
		return ErrInvalidVault.Wrap("pool tokens must differ")
	}
	if msg.AmountA == 0 || msg.AmountB == 0 {
		return ErrInvalidAmount.Wrap("initial amounts must be positive")
	}
	return nil
}

// SwapResult is the outcome of a quoted or executed swap.
type SwapResult struct {
	Direction TradeDirection `json:"direction"`
	Mode      SwapMode       `json:"mode"`
	FeeRate   uint64         `json:"fee_rate"`

	// AmountIn is what the pool credits before fees: the transferred input
	// net of its transfer fee.
	AmountIn uint64 `json:"amount_in"`
	// AmountOut leaves the pool before the output transfer fee.
	AmountOut uint64 `json:"amount_out"`

	FeeTotal       uint64 `json:"fee_total"`
	ProtocolFee    uint64 `json:"protocol_fee"`
	FundFee        uint64 `json:"fund_fee"`
	ReferralAmount uint64 `json:"referral_amount"`

	// InputTransfer is what the trader sends, transfer fee included.
	InputTransfer     uint64 `json:"input_transfer"`
	InputTransferFee  uint64 `json:"input_transfer_fee"`
	OutputTransferFee uint64 `json:"output_transfer_fee"`
	// AmountReceived is what the trader ends up with.
	AmountReceived uint64 `json:"amount_received"`

	NewReserve0 uint64 `json:"new_reserve_0"`
	NewReserve1 uint64 `json:"new_reserve_1"`
}
