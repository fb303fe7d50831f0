package seda

import (
	"context"
	"errors"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/rpc/client/http"

	"github.com/GPTx-global/drpost/oracle/log"
	"github.com/GPTx-global/drpost/oracle/retry"
	"github.com/GPTx-global/drpost/oracle/types"
)

// Client talks to a SEDA chain over tendermint RPC.
type Client struct {
	encCfg encodingConfig
	env    *viper.Viper
	dial   func(endpoint string) (rpcClient, error)
}

func NewClient() *Client {
	SetAddressPrefixes()

	return &Client{
		encCfg: makeEncodingConfig(),
		env:    newEnv(),
		dial:   dialHTTP,
	}
}

func dialHTTP(endpoint string) (rpcClient, error) {
	clt, err := http.New(endpoint, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return clt, nil
}

// PostedRequest identifies a data request accepted by the chain.
type PostedRequest struct {
	DrID          string
	DrBlockHeight uint64
	TxHash        string
}

// PostDataRequest broadcasts the request and waits until it is in a block.
func (c *Client) PostDataRequest(ctx context.Context, s *Signer, in types.DataRequestInput, interval time.Duration) (*PostedRequest, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	msg, err := newPostDataRequestMsg(s.Address(), s.CoreContract(), in)
	if err != nil {
		return nil, err
	}

	txBytes, err := s.buildTx(msg)
	if err != nil {
		return nil, err
	}

	txResponse, err := s.broadcastTx(ctx, txBytes)
	if err != nil {
		return nil, err
	}
	log.Infof("data request tx %s broadcast", txResponse.TxHash)

	res, err := s.waitForTx(ctx, txResponse.TxHash, interval)
	if err != nil {
		return nil, err
	}

	drID, ok := eventAttribute(res, "", AttributeKeyDrID)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrDataRequestIDNotFound, "tx %s", txResponse.TxHash)
	}

	return &PostedRequest{
		DrID:          drID,
		DrBlockHeight: uint64(res.Height),
		TxHash:        txResponse.TxHash,
	}, nil
}

// AwaitDataResult polls the core contract until the request resolves or
// opts.Timeout passes.
func (c *Client) AwaitDataResult(ctx context.Context, s *Signer, posted *PostedRequest, opts types.AwaitOptions) (*types.DataRequestResult, error) {
	return awaitDataResult(ctx, s.rpc, s.CoreContract(), posted, opts)
}

func awaitDataResult(ctx context.Context, rpc rpcClient, contract string, posted *PostedRequest, opts types.AwaitOptions) (*types.DataRequestResult, error) {
	if opts.PollingInterval <= 0 {
		opts.PollingInterval = types.DefaultAwaitPollingInterval
	}

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var result *types.DataRequestResult
	err := retry.Do(waitCtx, retry.PollConfig(opts.PollingInterval), func() error {
		res, err := getDataResult(waitCtx, rpc, contract, posted.DrID)
		if err != nil {
			return err
		}
		result = res
		return nil
	}, func(err error) bool {
		return errors.Is(err, types.ErrResultNotReady) || retry.DefaultIsRetryable(err)
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, errorsmod.Wrapf(types.ErrAwaitTimeout, "no result for %s after %v", posted.DrID, opts.Timeout)
		}
		return nil, err
	}

	if result.DrBlockHeight == 0 {
		result.DrBlockHeight = posted.DrBlockHeight
	}

	return result, nil
}

// PostAndAwaitDataRequest posts in with signer and blocks until the result is
// available.
func (c *Client) PostAndAwaitDataRequest(ctx context.Context, signer types.Signer, in types.DataRequestInput, opts types.AwaitOptions) (*types.DataRequestResult, error) {
	s, ok := signer.(*Signer)
	if !ok {
		return nil, fmt.Errorf("unsupported signer type %T", signer)
	}

	if opts.PollingInterval <= 0 {
		opts.PollingInterval = types.DefaultAwaitPollingInterval
	}

	posted, err := c.PostDataRequest(ctx, s, in, opts.PollingInterval)
	if err != nil {
		return nil, err
	}
	log.Infof("data request %s included at height %d", posted.DrID, posted.DrBlockHeight)

	return c.AwaitDataResult(ctx, s, posted, opts)
}

// GetDataResult looks up the result of drID once. It needs no signing key.
func (c *Client) GetDataResult(ctx context.Context, cfg types.SigningConfig, drID string) (*types.DataRequestResult, error) {
	rpc, err := c.dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, err
	}

	contract := cfg.CoreContract
	if contract == "" {
		if contract, err = queryCoreContract(ctx, rpc); err != nil {
			return nil, err
		}
	}

	return getDataResult(ctx, rpc, contract, drID)
}
