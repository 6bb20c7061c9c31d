package types

// Event types for the amm module
const (
	EventTypePoolCreated = "pool_created"
	EventTypeSwap        = "swap"
	EventTypeLpChange    = "lp_change"
	EventTypePoolStatus  = "pool_status_updated"
)

// Event attribute keys
const (
	AttributeKeyPoolID         = "pool_id"
	AttributeKeyTrader         = "trader"
	AttributeKeyProvider       = "provider"
	AttributeKeyTokenIn        = "token_in"
	AttributeKeyTokenOut       = "token_out"
	AttributeKeyAmountIn       = "amount_in"
	AttributeKeyAmountOut      = "amount_out"
	AttributeKeyInputTransfer  = "input_transfer"
	AttributeKeyAmountReceived = "amount_received"
	AttributeKeyFeeRate        = "fee_rate"
	AttributeKeyFeeTotal       = "fee_total"
	AttributeKeyProtocolFee    = "protocol_fee"
	AttributeKeyFundFee        = "fund_fee"
	AttributeKeyReferralAmount = "referral_amount"
	AttributeKeyMode           = "mode"
	AttributeKeyReserve0       = "reserve_0"
	AttributeKeyReserve1       = "reserve_1"
	AttributeKeyReserve0Before = "reserve_0_before"
	AttributeKeyReserve1Before = "reserve_1_before"
	AttributeKeyLPSupply       = "lp_supply"
	AttributeKeyLPSupplyBefore = "lp_supply_before"
	AttributeKeyLPAmount       = "lp_amount"
	AttributeKeyToken0Amount   = "token_0_amount"
	AttributeKeyToken1Amount   = "token_1_amount"
	AttributeKeyChangeType     = "change_type"
	AttributeKeyStatus         = "status"
	AttributeKeyToken0         = "token_0"
	AttributeKeyToken1         = "token_1"

	ChangeTypeDeposit  = "deposit"
	ChangeTypeWithdraw = "withdraw"
)
