package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// AMM module sentinel errors
var (
	// Arithmetic errors
	ErrMathOverflow = sdkerrors.Register(ModuleName, 2, "math overflow")

	// Economic validation errors
	ErrExceededSlippage  = sdkerrors.Register(ModuleName, 10, "exceeds desired slippage limit")
	ErrZeroTradingTokens = sdkerrors.Register(ModuleName, 11, "given pool token amount results in zero trading tokens")
	ErrInvalidVault      = sdkerrors.Register(ModuleName, 12, "invalid vault")
	ErrNotApproved       = sdkerrors.Register(ModuleName, 13, "not approved")
	ErrInvalidAmount     = sdkerrors.Register(ModuleName, 14, "invalid amount")
	ErrEmptySupply       = sdkerrors.Register(ModuleName, 15, "input token account empty")

	// Invariant errors
	ErrInvariantViolation = sdkerrors.Register(ModuleName, 20, "constant product invariant violated")

	// State and configuration errors
	ErrPoolNotFound      = sdkerrors.Register(ModuleName, 30, "pool not found")
	ErrPoolAlreadyExists = sdkerrors.Register(ModuleName, 31, "pool already exists")
	ErrInvalidFeeConfig  = sdkerrors.Register(ModuleName, 32, "invalid fee config")
	ErrInvalidPartner    = sdkerrors.Register(ModuleName, 33, "invalid partner")
	ErrInvalidState      = sdkerrors.Register(ModuleName, 34, "invalid state")
	ErrPositionNotFound  = sdkerrors.Register(ModuleName, 35, "liquidity position not found")
	ErrInvalidGenesis    = sdkerrors.Register(ModuleName, 36, "invalid genesis state")
)

// ErrorWithRecovery wraps an error with recovery suggestions
type ErrorWithRecovery struct {
	Err      error
	Recovery string
}

func (e *ErrorWithRecovery) Error() string {
	return e.Err.Error()
}

func (e *ErrorWithRecovery) Unwrap() error {
	return e.Err
}

// RecoverySuggestions provides actionable recovery steps for each error type
var RecoverySuggestions = map[error]string{
	ErrMathOverflow:       "An intermediate amount exceeded the 128-bit working width or divided by zero. Retry with a smaller amount. If it persists the pool reserves are degenerate.",
	ErrExceededSlippage:   "Pool price moved past your limit. Re-quote the swap and widen minimum-out / maximum-in, or trade a smaller size.",
	ErrZeroTradingTokens:  "The amount is too small to move any token at the current reserves. Increase the amount.",
	ErrInvalidVault:       "Token denoms do not match the pool pair. Query the pool and use its token_0/token_1 denoms.",
	ErrNotApproved:        "The pool is paused for this operation or not open yet. Query pool status and open_time.",
	ErrInvalidAmount:      "Amounts must be positive and fit in 64 bits.",
	ErrInvariantViolation: "CRITICAL: fee split would have reduced the constant product. The operation was aborted with no state change. Report to pool operators.",
	ErrPoolNotFound:       "No pool exists with this id. Query the pool list.",
	ErrInvalidFeeConfig:   "Fee rates are numerators over 1,000,000. Base and max fee must be below 100%, protocol plus fund share at most 100%.",
}

// WrapWithRecovery wraps an error with recovery suggestion
func WrapWithRecovery(err error, msg string, args ...interface{}) error {
	wrapped := sdkerrors.Wrapf(err, msg, args...)

	if suggestion, ok := RecoverySuggestions[err]; ok {
		return &ErrorWithRecovery{
			Err:      wrapped,
			Recovery: suggestion,
		}
	}

	return wrapped
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	for _, sentinel := range []error{
		ErrMathOverflow, ErrExceededSlippage, ErrZeroTradingTokens, ErrInvalidVault,
		ErrNotApproved, ErrInvalidAmount, ErrInvariantViolation, ErrPoolNotFound, ErrInvalidFeeConfig,
	} {
		if errors.Is(err, sentinel) {
			return RecoverySuggestions[sentinel]
		}
	}

	return "No recovery suggestion available. Check error message for details."
}
