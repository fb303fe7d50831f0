package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/GPTx-global/drpost/oracle/log"
	"github.com/GPTx-global/drpost/oracle/types"
)

// DefaultExecInputs is posted as execution input unless overridden.
const DefaultExecInputs = "46724"

const (
	FileName       = "config.toml"
	DefaultEnvFile = ".env"
)

// environment variable names
const (
	EnvProgramID    = "ORACLE_PROGRAM_ID"
	EnvExecInputs   = "ORACLE_EXEC_INPUTS"
	EnvTallyInputs  = "ORACLE_TALLY_INPUTS"
	EnvExplorerURL  = "SEDA_EXPLORER_URL"
	EnvRPCEndpoint  = "SEDA_RPC_ENDPOINT"
	EnvChainID      = "SEDA_CHAIN_ID"
	EnvCoreContract = "SEDA_CORE_CONTRACT"
	EnvGasPrices    = "SEDA_GAS_PRICES"
	EnvGasLimit     = "SEDA_GAS_LIMIT"
)

var envBindings = map[string]string{
	"request.program_id":   EnvProgramID,
	"request.exec_inputs":  EnvExecInputs,
	"request.tally_inputs": EnvTallyInputs,
	"request.explorer_url": EnvExplorerURL,
	"chain.rpc_endpoint":   EnvRPCEndpoint,
	"chain.chain_id":       EnvChainID,
	"chain.core_contract":  EnvCoreContract,
	"chain.gas_prices":     EnvGasPrices,
	"chain.gas_limit":      EnvGasLimit,
}

type Config struct {
	Home    string
	File    string
	Request RequestConfig
	Chain   ChainConfig
	Await   types.AwaitOptions
}

type RequestConfig struct {
	ProgramID         string
	ExecInputs        string
	TallyInputs       string
	ExplorerURL       string
	ReplicationFactor uint16
	GasPrice          uint64
	ExecGasLimit      uint64
	TallyGasLimit     uint64
}

// ChainConfig holds overrides handed to the network client. Anything left
// empty is resolved by the client from its own environment.
type ChainConfig struct {
	RPCEndpoint  string
	ChainID      string
	CoreContract string
	GasPrices    string
	GasLimit     uint64
}

type fileConfig struct {
	Request fileRequest `toml:"request"`
	Chain   fileChain   `toml:"chain"`
	Await   fileAwait   `toml:"await"`
}

type fileRequest struct {
	ProgramID         string `toml:"program_id"`
	ExecInputs        string `toml:"exec_inputs"`
	TallyInputs       string `toml:"tally_inputs"`
	ExplorerURL       string `toml:"explorer_url"`
	ReplicationFactor uint16 `toml:"replication_factor"`
	GasPrice          uint64 `toml:"gas_price"`
	ExecGasLimit      uint64 `toml:"exec_gas_limit"`
	TallyGasLimit     uint64 `toml:"tally_gas_limit"`
}

type fileChain struct {
	RPCEndpoint  string `toml:"rpc_endpoint"`
	ChainID      string `toml:"chain_id"`
	CoreContract string `toml:"core_contract"`
	GasPrices    string `toml:"gas_prices"`
	GasLimit     uint64 `toml:"gas_limit"`
}

type fileAwait struct {
	Timeout         string `toml:"timeout"`
	PollingInterval string `toml:"polling_interval"`
}

// DefaultHome is ~/.drpost, or the working directory when no home exists.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".drpost")
}

// LoadEnvFile merges a dotenv file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	log.Debugf("loaded environment from %s", path)
	return nil
}

// Load resolves the configuration from <home>/config.toml (optional) and the
// environment. Environment variables take precedence over the file.
func Load(home string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("request.exec_inputs", DefaultExecInputs)
	v.SetDefault("await.timeout", types.DefaultAwaitTimeout.String())
	v.SetDefault("await.polling_interval", types.DefaultAwaitPollingInterval.String())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{Home: home}

	if home != "" {
		path := filepath.Join(home, FileName)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			cfg.File = path
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg.Request = RequestConfig{
		ProgramID:   v.GetString("request.program_id"),
		ExecInputs:  v.GetString("request.exec_inputs"),
		TallyInputs: v.GetString("request.tally_inputs"),
		ExplorerURL: v.GetString("request.explorer_url"),
	}
	replicationFactor, err := cast.ToUint64E(v.Get("request.replication_factor"))
	if err != nil {
		return nil, fmt.Errorf("invalid replication factor: %w", err)
	}
	if replicationFactor > math.MaxUint16 {
		return nil, fmt.Errorf("invalid replication factor: %d exceeds %d", replicationFactor, math.MaxUint16)
	}
	cfg.Request.ReplicationFactor = uint16(replicationFactor)
	if cfg.Request.GasPrice, err = cast.ToUint64E(v.Get("request.gas_price")); err != nil {
		return nil, fmt.Errorf("invalid request gas price: %w", err)
	}
	if cfg.Request.ExecGasLimit, err = cast.ToUint64E(v.Get("request.exec_gas_limit")); err != nil {
		return nil, fmt.Errorf("invalid exec gas limit: %w", err)
	}
	if cfg.Request.TallyGasLimit, err = cast.ToUint64E(v.Get("request.tally_gas_limit")); err != nil {
		return nil, fmt.Errorf("invalid tally gas limit: %w", err)
	}

	cfg.Chain = ChainConfig{
		RPCEndpoint:  v.GetString("chain.rpc_endpoint"),
		ChainID:      v.GetString("chain.chain_id"),
		CoreContract: v.GetString("chain.core_contract"),
		GasPrices:    v.GetString("chain.gas_prices"),
	}
	if cfg.Chain.GasLimit, err = cast.ToUint64E(v.Get("chain.gas_limit")); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvGasLimit, err)
	}

	if cfg.Await.Timeout, err = cast.ToDurationE(v.Get("await.timeout")); err != nil {
		return nil, fmt.Errorf("invalid await timeout: %w", err)
	}
	if cfg.Await.PollingInterval, err = cast.ToDurationE(v.Get("await.polling_interval")); err != nil {
		return nil, fmt.Errorf("invalid polling interval: %w", err)
	}
	if cfg.Await.Timeout < 0 || cfg.Await.PollingInterval <= 0 {
		return nil, fmt.Errorf("await timeout must be >= 0 and polling interval > 0")
	}

	return cfg, nil
}

// WriteDefault creates a default config file. Existing files are never
// overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	defaults := fileConfig{
		Request: fileRequest{
			ExecInputs:        DefaultExecInputs,
			ReplicationFactor: types.DefaultReplicationFactor,
			GasPrice:          types.DefaultGasPrice,
			ExecGasLimit:      types.DefaultExecGasLimit,
			TallyGasLimit:     types.DefaultTallyGasLimit,
		},
		Chain: fileChain{
			RPCEndpoint: "https://rpc.testnet.seda.xyz",
			ChainID:     "seda-1-testnet",
			GasPrices:   "10000000000aseda",
			GasLimit:    2_000_000,
		},
		Await: fileAwait{
			Timeout:         types.DefaultAwaitTimeout.String(),
			PollingInterval: types.DefaultAwaitPollingInterval.String(),
		},
	}

	data, err := toml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal TOML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) Print() {
	log.Infof("%-15s: %s", "Home", c.Home)
	log.Infof("%-15s: %s", "Config File", orNone(c.File))
	log.Infof("%-15s: %s", "Program ID", orNone(c.Request.ProgramID))
	log.Infof("%-15s: %s", "Exec Inputs", c.Request.ExecInputs)
	log.Infof("%-15s: %s", "Explorer URL", orNone(c.Request.ExplorerURL))
	log.Infof("%-15s: %s", "RPC Endpoint", orNone(c.Chain.RPCEndpoint))
	log.Infof("%-15s: %s", "Chain ID", orNone(c.Chain.ChainID))
	log.Infof("%-15s: %s", "Core Contract", orNone(c.Chain.CoreContract))
	log.Infof("%-15s: %v", "Await Timeout", c.Await.Timeout)
	log.Infof("%-15s: %v", "Poll Interval", c.Await.PollingInterval)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
