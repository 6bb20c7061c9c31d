package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/cpamm/x/amm/types"
)

const envPrefix = "AMMCALC"

// uint64 params readable from the config file, the environment or a flag.
var uintParams = map[string]func(p *types.Params) *uint64{
	"fee_config.base_fee_rate":     func(p *types.Params) *uint64 { return &p.FeeConfig.BaseFeeRate },
	"fee_config.protocol_fee_rate": func(p *types.Params) *uint64 { return &p.FeeConfig.ProtocolFeeRate },
	"fee_config.fund_fee_rate":     func(p *types.Params) *uint64 { return &p.FeeConfig.FundFeeRate },
	"fee_config.max_fee_rate":      func(p *types.Params) *uint64 { return &p.FeeConfig.MaxFeeRate },
	"fee_config.volatility_factor": func(p *types.Params) *uint64 { return &p.FeeConfig.VolatilityFactor },
	"fee_config.imbalance_factor":  func(p *types.Params) *uint64 { return &p.FeeConfig.ImbalanceFactor },
	"volatility_window":            func(p *types.Params) *uint64 { return &p.VolatilityWindow },
	"min_initial_liquidity":        func(p *types.Params) *uint64 { return &p.MinInitialLiquidity },
}

// initConfig wires the config file and AMMCALC_* environment into v.
// AMMCALC_FEE_CONFIG_BASE_FEE_RATE overrides fee_config.base_fee_rate.
func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// loadParams overlays whatever v has set on the default params and validates
// the result.
func loadParams(v *viper.Viper) (types.Params, error) {
	params := types.DefaultParams()

	for key, field := range uintParams {
		if !v.IsSet(key) {
			continue
		}
		n, err := cast.ToUint64E(v.Get(key))
		if err != nil {
			return params, fmt.Errorf("%s: %w", key, err)
		}
		*field(&params) = n
	}

	if v.IsSet("partner_channels") {
		channels, err := cast.ToIntSliceE(v.Get("partner_channels"))
		if err != nil {
			return params, fmt.Errorf("partner_channels: %w", err)
		}
		params.PartnerChannels = make([]uint8, 0, len(channels))
		for _, id := range channels {
			if id < 0 || id > 255 {
				return params, types.ErrInvalidPartner.Wrapf("partner channel %d out of range", id)
			}
			params.PartnerChannels = append(params.PartnerChannels, uint8(id))
		}
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}
