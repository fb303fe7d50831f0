package submitter

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/GPTx-global/drpost/oracle/config"
	"github.com/GPTx-global/drpost/oracle/log"
	"github.com/GPTx-global/drpost/oracle/report"
	"github.com/GPTx-global/drpost/oracle/types"
)

// Network signs, posts and waits for data requests on behalf of the
// submitter.
type Network interface {
	BuildSigningConfig(opts types.SigningOptions) (types.SigningConfig, error)
	CreateSigner(ctx context.Context, cfg types.SigningConfig) (types.Signer, error)
	PostAndAwaitDataRequest(ctx context.Context, signer types.Signer, in types.DataRequestInput, opts types.AwaitOptions) (*types.DataRequestResult, error)
}

// Lookup is implemented by networks that can read a result without posting.
type Lookup interface {
	BuildQueryConfig(opts types.SigningOptions) (types.SigningConfig, error)
	GetDataResult(ctx context.Context, cfg types.SigningConfig, drID string) (*types.DataRequestResult, error)
}

// Submitter runs one data request from configuration to printed result.
type Submitter struct {
	network Network
	config  *config.Config
	now     func() time.Time
}

func New(network Network, cfg *config.Config) *Submitter {
	return &Submitter{
		network: network,
		config:  cfg,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for the memo.
func (s *Submitter) WithClock(now func() time.Time) *Submitter {
	s.now = now
	return s
}

func (s *Submitter) signingOptions() types.SigningOptions {
	return types.SigningOptions{
		RPCEndpoint:  s.config.Chain.RPCEndpoint,
		ChainID:      s.config.Chain.ChainID,
		CoreContract: s.config.Chain.CoreContract,
		GasPrices:    s.config.Chain.GasPrices,
		GasLimit:     s.config.Chain.GasLimit,
	}
}

// BuildRequest assembles the data request from configuration. The memo is
// the current time.
func (s *Submitter) BuildRequest() (types.DataRequestInput, error) {
	req := s.config.Request
	if req.ProgramID == "" {
		return types.DataRequestInput{}, types.ErrMissingProgramID
	}

	execInputs := req.ExecInputs
	if execInputs == "" {
		execInputs = config.DefaultExecInputs
	}

	return types.DataRequestInput{
		ConsensusMethod:   types.ConsensusNone,
		ExecProgramID:     req.ProgramID,
		ExecInputs:        []byte(execInputs),
		TallyInputs:       []byte(req.TallyInputs),
		Memo:              []byte(s.now().UTC().Format(types.MemoTimeFormat)),
		ReplicationFactor: req.ReplicationFactor,
		GasPrice:          req.GasPrice,
		ExecGasLimit:      req.ExecGasLimit,
		TallyGasLimit:     req.TallyGasLimit,
	}, nil
}

// Submit posts the configured request and blocks until the network returns a
// result. Nothing reaches the network when the program id is missing.
func (s *Submitter) Submit(ctx context.Context) (*types.DataRequestResult, error) {
	if s.config.Request.ProgramID == "" {
		return nil, types.ErrMissingProgramID
	}

	signingConfig, err := s.network.BuildSigningConfig(s.signingOptions())
	if err != nil {
		return nil, err
	}

	signer, err := s.network.CreateSigner(ctx, signingConfig)
	if err != nil {
		return nil, err
	}
	log.Debugf("signing as %s via %s", signer.Address(), signer.Endpoint())

	input, err := s.BuildRequest()
	if err != nil {
		return nil, err
	}

	log.Info("Posting and waiting for a result, this may take a little while..")
	log.Infof("exec inputs: %s", hex.EncodeToString(input.ExecInputs))

	return s.network.PostAndAwaitDataRequest(ctx, signer, input, s.config.Await)
}

// Fetch reads the result of an already posted request.
func (s *Submitter) Fetch(ctx context.Context, drID string) (*types.DataRequestResult, error) {
	lookup, ok := s.network.(Lookup)
	if !ok {
		return nil, fmt.Errorf("network %T cannot look up results", s.network)
	}

	cfg, err := lookup.BuildQueryConfig(s.signingOptions())
	if err != nil {
		return nil, err
	}

	return lookup.GetDataResult(ctx, cfg, drID)
}

// Print renders res as a table, followed by a markets table when the result
// is a market price response.
func (s *Submitter) Print(w io.Writer, res *types.DataRequestResult) report.Record {
	record := report.NewRecord(res, s.config.Request.ExplorerURL)
	record.Render(w)

	if markets, ok := report.Markets(res); ok {
		report.RenderMarkets(w, markets)
	}

	return record
}

// Run submits and prints. No table is written when submission fails.
func (s *Submitter) Run(ctx context.Context, w io.Writer) error {
	res, err := s.Submit(ctx)
	if err != nil {
		return err
	}

	s.Print(w, res)
	return nil
}
