package seda

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/go-bip39"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/GPTx-global/drpost/oracle/types"
)

// Environment variables read when a signing option is left empty. Names are
// the suffix after the SEDA_ prefix.
const (
	envPrefix       = "SEDA"
	envMnemonic     = "mnemonic"
	envRPCEndpoint  = "rpc_endpoint"
	envChainID      = "chain_id"
	envCoreContract = "core_contract"
	envGasPrices    = "gas_prices"
	envGasLimit     = "gas_limit"
	envAccountIndex = "account_index"
)

const (
	DefaultGasPrices = "10000000000aseda"
	DefaultGasLimit  = uint64(2_000_000)
)

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// BuildSigningConfig resolves opts against the SEDA_* environment and
// validates the result. The mnemonic and the RPC endpoint are required.
func (c *Client) BuildSigningConfig(opts types.SigningOptions) (types.SigningConfig, error) {
	cfg, err := c.resolve(opts)
	if err != nil {
		return types.SigningConfig{}, err
	}

	if cfg.Mnemonic == "" {
		return types.SigningConfig{}, errorsmod.Wrap(types.ErrInvalidSigningConfig, "SEDA_MNEMONIC is not set")
	}
	if !bip39.IsMnemonicValid(cfg.Mnemonic) {
		return types.SigningConfig{}, errorsmod.Wrap(types.ErrInvalidSigningConfig, "SEDA_MNEMONIC is not a valid bip39 mnemonic")
	}

	return cfg, nil
}

// BuildQueryConfig resolves a config good enough for read-only queries.
func (c *Client) BuildQueryConfig(opts types.SigningOptions) (types.SigningConfig, error) {
	return c.resolve(opts)
}

func (c *Client) resolve(opts types.SigningOptions) (types.SigningConfig, error) {
	env := c.env
	if env == nil {
		env = newEnv()
	}

	cfg := types.SigningConfig{
		Mnemonic:     firstNonEmpty(opts.Mnemonic, env.GetString(envMnemonic)),
		RPCEndpoint:  firstNonEmpty(opts.RPCEndpoint, env.GetString(envRPCEndpoint)),
		ChainID:      firstNonEmpty(opts.ChainID, env.GetString(envChainID)),
		CoreContract: firstNonEmpty(opts.CoreContract, env.GetString(envCoreContract)),
		GasPrices:    firstNonEmpty(opts.GasPrices, env.GetString(envGasPrices), DefaultGasPrices),
		GasLimit:     opts.GasLimit,
		AccountIndex: opts.AccountIndex,
	}
	cfg.Mnemonic = strings.Join(strings.Fields(cfg.Mnemonic), " ")

	if cfg.GasLimit == 0 {
		limit, err := cast.ToUint64E(env.Get(envGasLimit))
		if err != nil {
			return types.SigningConfig{}, errorsmod.Wrapf(types.ErrInvalidSigningConfig, "invalid SEDA_GAS_LIMIT: %v", err)
		}
		cfg.GasLimit = limit
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}

	if cfg.AccountIndex == 0 {
		index, err := cast.ToUint32E(env.Get(envAccountIndex))
		if err != nil {
			return types.SigningConfig{}, errorsmod.Wrapf(types.ErrInvalidSigningConfig, "invalid SEDA_ACCOUNT_INDEX: %v", err)
		}
		cfg.AccountIndex = index
	}

	if cfg.RPCEndpoint == "" {
		return types.SigningConfig{}, errorsmod.Wrap(types.ErrInvalidSigningConfig, "SEDA_RPC_ENDPOINT is not set")
	}
	if _, err := sdk.ParseDecCoins(cfg.GasPrices); err != nil {
		return types.SigningConfig{}, errorsmod.Wrapf(types.ErrInvalidSigningConfig, "invalid gas prices %q: %v", cfg.GasPrices, err)
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func redact(cfg types.SigningConfig) string {
	return fmt.Sprintf("endpoint=%s chain=%s contract=%s gas=%d@%s index=%d",
		cfg.RPCEndpoint, cfg.ChainID, cfg.CoreContract, cfg.GasLimit, cfg.GasPrices, cfg.AccountIndex)
}
