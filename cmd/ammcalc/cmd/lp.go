package cmd

import (
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/paw-chain/cpamm/x/amm/types"
)

// LpTokensCmd converts an LP amount into the reserves it stands for.
func LpTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lp [lp-amount]",
		Short: "Convert an LP amount into token amounts",
		Long: `Convert an LP amount into token amounts. Deposits round up (--round-up),
withdrawals round down.`,
		Example: "ammcalc lp 7 --supply 316226 --reserve0 999999 --reserve1 99999 --round-up",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lp, err := cast.ToUint64E(args[0])
			if err != nil {
				return types.ErrInvalidAmount.Wrapf("lp amount %q", args[0])
			}
			fs := cmd.Flags()
			supply, err := fs.GetUint64(flagSupply)
			if err != nil {
				return err
			}
			reserve0, err := fs.GetUint64(flagReserve0)
			if err != nil {
				return err
			}
			reserve1, err := fs.GetUint64(flagReserve1)
			if err != nil {
				return err
			}
			roundUp, err := fs.GetBool(flagRoundUp)
			if err != nil {
				return err
			}

			round := types.RoundFloor
			if roundUp {
				round = types.RoundCeiling
			}
			res, ok := types.LpTokensToTradingTokens(
				types.U128(lp), types.U128(supply), types.U128(reserve0), types.U128(reserve1), round)
			if !ok {
				return types.ErrZeroTradingTokens.Wrapf("lp amount %d of supply %d", lp, supply)
			}
			return printJSON(cmd, map[string]string{
				"token0_amount": res.Token0Amount.String(),
				"token1_amount": res.Token1Amount.String(),
			})
		},
	}

	cmd.Flags().Uint64(flagSupply, 0, "LP token supply")
	cmd.Flags().Uint64(flagReserve0, 0, "token_0 reserve")
	cmd.Flags().Uint64(flagReserve1, 0, "token_1 reserve")
	cmd.Flags().Bool(flagRoundUp, false, "round up, as deposits do")
	return cmd
}
