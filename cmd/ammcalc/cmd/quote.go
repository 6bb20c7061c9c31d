package cmd

import (
	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// Quote is a priced swap before transfer fees and referrals.
type Quote struct {
	AmountIn      uint64 `json:"amount_in"`
	AmountOut     uint64 `json:"amount_out"`
	FeeRate       uint64 `json:"fee_rate"`
	FeeTotal      uint64 `json:"fee_total"`
	ProtocolFee   uint64 `json:"protocol_fee"`
	FundFee       uint64 `json:"fund_fee"`
	NewReserveIn  uint64 `json:"new_reserve_in"`
	NewReserveOut uint64 `json:"new_reserve_out"`
}

// QuoteExactInCmd prices a swap of a fixed input amount.
func QuoteExactInCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quote-in [amount-in]",
		Short:   "Price a swap that pays in a fixed amount",
		Example: "ammcalc quote-in 10000 --reserve-in 1000000 --reserve-out 1000000",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, reserveIn, reserveOut, rate, err := readQuoteInputs(v, cmd, args[0])
			if err != nil {
				return err
			}

			fee, err := types.TradingFee(types.U128(amount), rate)
			if err != nil {
				return err
			}
			out, err := types.SwapBaseInputWithoutFees(types.U128(amount).Sub(fee), types.U128(reserveIn), types.U128(reserveOut))
			if err != nil {
				return err
			}
			if out.IsZero() {
				return types.ErrZeroTradingTokens.Wrapf("%d in returns nothing", amount)
			}

			quote, err := buildQuote(v, amount, out, fee, rate, reserveIn, reserveOut)
			if err != nil {
				return err
			}
			return printJSON(cmd, quote)
		},
	}

	addReserveFlags(cmd.Flags())
	return cmd
}

// QuoteExactOutCmd prices a swap of a fixed output amount.
func QuoteExactOutCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quote-out [amount-out]",
		Short:   "Price a swap that takes out a fixed amount",
		Example: "ammcalc quote-out 10000 --reserve-in 1000000 --reserve-out 1000000",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, reserveIn, reserveOut, rate, err := readQuoteInputs(v, cmd, args[0])
			if err != nil {
				return err
			}

			swapped, err := types.SwapBaseOutputWithoutFees(types.U128(amount), types.U128(reserveIn), types.U128(reserveOut))
			if err != nil {
				return err
			}
			source, err := types.CalculatePreFeeAmount(swapped, rate)
			if err != nil {
				return err
			}
			amountIn, err := types.ToUint64(source)
			if err != nil {
				return err
			}

			quote, err := buildQuote(v, amountIn, types.U128(amount), source.Sub(swapped), rate, reserveIn, reserveOut)
			if err != nil {
				return err
			}
			return printJSON(cmd, quote)
		},
	}

	addReserveFlags(cmd.Flags())
	return cmd
}

// readQuoteInputs parses the amount and reserves and resolves the fee rate.
// Without an oracle history the dynamic fee falls back to the base rate.
func readQuoteInputs(v *viper.Viper, cmd *cobra.Command, arg string) (amount, reserveIn, reserveOut, rate uint64, err error) {
	amount, err = cast.ToUint64E(arg)
	if err != nil || amount == 0 {
		return 0, 0, 0, 0, types.ErrInvalidAmount.Wrapf("amount %q", arg)
	}
	if reserveIn, err = cmd.Flags().GetUint64(flagReserveIn); err != nil {
		return 0, 0, 0, 0, err
	}
	if reserveOut, err = cmd.Flags().GetUint64(flagReserveOut); err != nil {
		return 0, 0, 0, 0, err
	}
	if err = types.ValidateSupply(reserveIn, reserveOut); err != nil {
		return 0, 0, 0, 0, err
	}

	params, err := loadParams(v)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	rate = params.FeeConfig.BaseFeeRate
	discount, err := cmd.Flags().GetBool(flagDiscount)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if discount {
		rate = types.ApplyDiscount(rate)
	}
	return amount, reserveIn, reserveOut, rate, nil
}

func buildQuote(v *viper.Viper, amountIn uint64, out, fee sdkmath.Int, rate, reserveIn, reserveOut uint64) (*Quote, error) {
	params, err := loadParams(v)
	if err != nil {
		return nil, err
	}
	protocol, err := types.ProtocolFee(fee, params.FeeConfig.ProtocolFeeRate)
	if err != nil {
		return nil, err
	}
	fund, err := types.FundFee(fee, params.FeeConfig.FundFeeRate)
	if err != nil {
		return nil, err
	}

	amountOut, err := types.ToUint64(out)
	if err != nil {
		return nil, err
	}
	newIn, err := types.AddUint64(reserveIn, amountIn)
	if err != nil {
		return nil, err
	}
	// fees set aside for the protocol and the fund leave the reserve
	newIn -= protocol.Uint64() + fund.Uint64()
	newOut, err := types.SubUint64(reserveOut, amountOut)
	if err != nil {
		return nil, err
	}

	return &Quote{
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeRate:       rate,
		FeeTotal:      fee.Uint64(),
		ProtocolFee:   protocol.Uint64(),
		FundFee:       fund.Uint64(),
		NewReserveIn:  newIn,
		NewReserveOut: newOut,
	}, nil
}
