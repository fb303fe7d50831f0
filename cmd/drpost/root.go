package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/GPTx-global/drpost/oracle/config"
	"github.com/GPTx-global/drpost/oracle/log"
	"github.com/GPTx-global/drpost/oracle/polymarket"
	"github.com/GPTx-global/drpost/oracle/report"
	"github.com/GPTx-global/drpost/oracle/submitter"
	"github.com/GPTx-global/drpost/oracle/types"
)

const (
	flagHome         = "home"
	flagEnvFile      = "env-file"
	flagLogLevel     = "log-level"
	flagLogFile      = "log-file"
	flagExecInputs   = "exec-inputs"
	flagEventSlug    = "event-slug"
	flagTimeout      = "timeout"
	flagPollInterval = "poll-interval"
	flagBaseURL      = "base-url"
)

// addressDeriver is implemented by networks that can derive the signer
// address offline.
type addressDeriver interface {
	BuildSigningConfig(opts types.SigningOptions) (types.SigningConfig, error)
	DeriveAddress(cfg types.SigningConfig) (string, error)
}

// run executes the command line and returns the process exit code. Errors
// go to stderr, results to stdout.
func run(ctx context.Context, args []string, network submitter.Network, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd(network)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the drpost command tree around network. Running the root
// command posts a data request.
func NewRootCmd(network submitter.Network) *cobra.Command {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "drpost",
		Short:         "Post a SEDA data request and wait for its result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = loadConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPost(cmd, network, cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagHome, config.DefaultHome(), "directory holding config.toml and logs")
	flags.String(flagEnvFile, config.DefaultEnvFile, "dotenv file merged into the environment")
	flags.String(flagLogLevel, "info", "log level (debug, info, warn, error)")
	flags.Bool(flagLogFile, false, "write logs to <home>/logs instead of stderr")

	addPostFlags(rootCmd)

	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Post a data request and wait for its result (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPost(cmd, network, cfg)
		},
	}
	addPostFlags(postCmd)

	resultCmd := &cobra.Command{
		Use:   "result [dr-id] [dr-block-height]",
		Short: "Show the result of an already posted data request",
		Long: `Show the result of an already posted data request.

The explorer link uses dr-block-height when it is given and the height
reported by the contract otherwise.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var height uint64
			if len(args) == 2 {
				h, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid block height %q: %w", args[1], err)
				}
				height = h
			}

			s := submitter.New(network, cfg)
			res, err := s.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				res.DrBlockHeight = height
			}

			s.Print(cmd.OutOrStdout(), res)
			return nil
		},
	}

	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address derived from SEDA_MNEMONIC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deriver, ok := network.(addressDeriver)
			if !ok {
				return fmt.Errorf("network %T cannot derive addresses", network)
			}

			signingConfig, err := deriver.BuildSigningConfig(types.SigningOptions{
				RPCEndpoint: cfg.Chain.RPCEndpoint,
				ChainID:     cfg.Chain.ChainID,
				GasPrices:   cfg.Chain.GasPrices,
			})
			if err != nil {
				return err
			}

			address, err := deriver.DeriveAddress(signingConfig)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), address)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml into --home",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(cfg.Home, config.FileName)
			if err := config.WriteDefault(path); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Log the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyPostFlags(cmd, cfg); err != nil {
				return err
			}
			cfg.Print()
			return nil
		},
	}
	addPostFlags(configCmd)

	previewCmd := &cobra.Command{
		Use:   "preview [event-slug]",
		Short: "Fetch a PolyMarket event locally the way the oracle program does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, _ := cmd.Flags().GetString(flagBaseURL)

			out, err := polymarket.Preview(cmd.Context(), baseURL, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if markets, ok := report.ParseMarkets(out); ok {
				report.RenderMarkets(cmd.OutOrStdout(), markets)
			}
			return nil
		},
	}
	previewCmd.Flags().String(flagBaseURL, polymarket.DefaultBaseURL, "PolyMarket gamma API base URL")

	rootCmd.AddCommand(postCmd, resultCmd, addressCmd, initCmd, configCmd, previewCmd)
	return rootCmd
}

func addPostFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagExecInputs, "", "execution inputs, overrides ORACLE_EXEC_INPUTS")
	cmd.Flags().String(flagEventSlug, "", "PolyMarket event slug, posted as {\"event_slug\":...}")
	cmd.Flags().Duration(flagTimeout, types.DefaultAwaitTimeout, "how long to wait for the result, 0 waits forever")
	cmd.Flags().Duration(flagPollInterval, types.DefaultAwaitPollingInterval, "interval between result queries")
	cmd.MarkFlagsMutuallyExclusive(flagExecInputs, flagEventSlug)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	level, _ := flags.GetString(flagLogLevel)
	if err := log.SetLevel(level); err != nil {
		return nil, err
	}

	home, _ := flags.GetString(flagHome)
	if toFile, _ := flags.GetBool(flagLogFile); toFile {
		if err := log.ResetLogger(home); err != nil {
			return nil, err
		}
	}

	envFile, _ := flags.GetString(flagEnvFile)
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	return config.Load(home)
}

// applyPostFlags lets explicitly set flags override the loaded config.
func applyPostFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed(flagExecInputs) {
		cfg.Request.ExecInputs, _ = flags.GetString(flagExecInputs)
	}
	if flags.Changed(flagEventSlug) {
		slug, _ := flags.GetString(flagEventSlug)
		inputs, err := sjson.Set(`{}`, "event_slug", slug)
		if err != nil {
			return fmt.Errorf("failed to build exec inputs: %w", err)
		}
		cfg.Request.ExecInputs = inputs
	}
	if flags.Changed(flagTimeout) {
		cfg.Await.Timeout, _ = flags.GetDuration(flagTimeout)
	}
	if flags.Changed(flagPollInterval) {
		cfg.Await.PollingInterval, _ = flags.GetDuration(flagPollInterval)
	}

	if cfg.Await.Timeout < 0 || cfg.Await.PollingInterval <= 0 {
		return fmt.Errorf("--%s must be >= 0 and --%s > 0", flagTimeout, flagPollInterval)
	}
	return nil
}

func runPost(cmd *cobra.Command, network submitter.Network, cfg *config.Config) error {
	if err := applyPostFlags(cmd, cfg); err != nil {
		return err
	}

	start := time.Now()
	if err := submitter.New(network, cfg).Run(cmd.Context(), cmd.OutOrStdout()); err != nil {
		return err
	}

	log.Debugf("done in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
