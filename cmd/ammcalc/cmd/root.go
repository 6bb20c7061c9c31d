package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagConfig      = "config"
	flagBaseFeeRate = "base-fee-rate"
	flagDiscount    = "discount"
	flagReserveIn   = "reserve-in"
	flagReserveOut  = "reserve-out"
	flagSupply      = "supply"
	flagReserve0    = "reserve0"
	flagReserve1    = "reserve1"
	flagRoundUp     = "round-up"
)

// NewRootCmd creates the ammcalc root command. Every subcommand prices
// against the module params, read from defaults, then --config, then the
// environment, then flags.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "ammcalc",
		Short: "Offline calculator for constant-product pool pricing",
		Long: `ammcalc prices swaps and LP conversions with the same rounding and
fee rules as the amm module, without a running chain.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "params file (json, yaml or toml)")
	rootCmd.PersistentFlags().Uint64(flagBaseFeeRate, 0, "base fee rate over 1_000_000")
	// the flag wins over the file and the environment once it is passed
	_ = v.BindPFlag("fee_config.base_fee_rate", rootCmd.PersistentFlags().Lookup(flagBaseFeeRate))

	rootCmd.AddCommand(
		QuoteExactInCmd(v),
		QuoteExactOutCmd(v),
		LpTokensCmd(),
		ParamsCmd(v),
	)

	return rootCmd
}

// ParamsCmd prints the effective params.
func ParamsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the effective module params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(v)
			if err != nil {
				return err
			}
			return printJSON(cmd, params)
		},
	}
}

func addReserveFlags(fs *pflag.FlagSet) {
	fs.Uint64(flagReserveIn, 0, "reserve of the token paid in")
	fs.Uint64(flagReserveOut, 0, "reserve of the token paid out")
	fs.Bool(flagDiscount, false, "price with the intermediary discount")
}

func printJSON(cmd *cobra.Command, v any) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}
