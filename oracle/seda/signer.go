package seda

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cosmos/cosmos-sdk/client"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
	coretypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"

	"github.com/GPTx-global/drpost/oracle/log"
	"github.com/GPTx-global/drpost/oracle/types"
)

const (
	keyName = "drpost"

	accountQueryPath = "/cosmos.auth.v1beta1.Query/Account"
)

// rpcClient is the part of the tendermint RPC the signer talks to.
type rpcClient interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	ABCIQuery(ctx context.Context, path string, data tmbytes.HexBytes) (*coretypes.ResultABCIQuery, error)
	BroadcastTxSync(ctx context.Context, tx tmtypes.Tx) (*coretypes.ResultBroadcastTx, error)
	Tx(ctx context.Context, hash []byte, prove bool) (*coretypes.ResultTx, error)
}

// Signer holds a key derived from the configured mnemonic together with the
// connection used to sign for it.
type Signer struct {
	config    types.SigningConfig
	clientCtx client.Context
	rpc       rpcClient
	address   sdk.AccAddress
	accNum    uint64
	sequence  atomic.Uint64
}

var _ types.Signer = (*Signer)(nil)

func (s *Signer) Address() string  { return s.address.String() }
func (s *Signer) Endpoint() string { return s.config.RPCEndpoint }

// CoreContract is the resolved address of the core contract.
func (s *Signer) CoreContract() string { return s.config.CoreContract }

func hdPath(index uint32) string {
	return hd.CreateHDPath(Bip44CoinType, 0, index).String()
}

// newKeyring imports the mnemonic into an in-memory keyring and returns the
// derived address.
func newKeyring(encCfg encodingConfig, cfg types.SigningConfig) (keyring.Keyring, sdk.AccAddress, error) {
	kr := keyring.NewInMemory(encCfg.Codec)

	record, err := kr.NewAccount(keyName, cfg.Mnemonic, "", hdPath(cfg.AccountIndex), hd.Secp256k1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to import mnemonic: %w", err)
	}

	address, err := record.GetAddress()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get address from key: %w", err)
	}

	return kr, address, nil
}

// newSigner wires the keyring and the client context without touching the
// network.
func newSigner(encCfg encodingConfig, cfg types.SigningConfig, rpc rpcClient) (*Signer, error) {
	kr, address, err := newKeyring(encCfg, cfg)
	if err != nil {
		return nil, err
	}

	clientCtx := client.Context{}.
		WithCodec(encCfg.Codec).
		WithInterfaceRegistry(encCfg.InterfaceRegistry).
		WithTxConfig(encCfg.TxConfig).
		WithLegacyAmino(encCfg.Amino).
		WithKeyring(kr).
		WithChainID(cfg.ChainID).
		WithAccountRetriever(authtypes.AccountRetriever{}).
		WithNodeURI(cfg.RPCEndpoint).
		WithFromAddress(address).
		WithFromName(keyName).
		WithBroadcastMode("sync")

	return &Signer{
		config:    cfg,
		clientCtx: clientCtx,
		rpc:       rpc,
		address:   address,
	}, nil
}

// CreateSigner connects to the configured endpoint, fills in the chain id and
// core contract when they are not configured and loads the account number and
// sequence of the signing key.
func (c *Client) CreateSigner(ctx context.Context, cfg types.SigningConfig) (types.Signer, error) {
	rpc, err := c.dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, err
	}

	if cfg.ChainID == "" {
		status, err := rpc.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query node status: %w", err)
		}
		cfg.ChainID = status.NodeInfo.Network
	}

	if cfg.CoreContract == "" {
		cfg.CoreContract, err = queryCoreContract(ctx, rpc)
		if err != nil {
			return nil, err
		}
	}

	s, err := newSigner(c.encCfg, cfg, rpc)
	if err != nil {
		return nil, err
	}

	num, seq, err := queryAccount(ctx, rpc, c.encCfg.InterfaceRegistry, s.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account number sequence for %s: %w", s.Address(), err)
	}
	s.accNum = num
	s.sequence.Store(seq)

	log.Debugf("signer %s ready (%s, account %d, sequence %d)", s.Address(), redact(cfg), num, seq)
	return s, nil
}

// queryAccount loads the account number and sequence of address through the
// auth query service.
func queryAccount(ctx context.Context, rpc rpcClient, registry codectypes.InterfaceRegistry, address sdk.AccAddress) (uint64, uint64, error) {
	req := authtypes.QueryAccountRequest{Address: address.String()}
	bz, err := req.Marshal()
	if err != nil {
		return 0, 0, err
	}

	res, err := rpc.ABCIQuery(ctx, accountQueryPath, bz)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query account: %w", err)
	}
	if res.Response.Code != 0 {
		return 0, 0, fmt.Errorf("account query failed with code %d: %s", res.Response.Code, res.Response.Log)
	}

	var resp authtypes.QueryAccountResponse
	if err := resp.Unmarshal(res.Response.Value); err != nil {
		return 0, 0, fmt.Errorf("failed to decode account: %w", err)
	}

	var acc authtypes.AccountI
	if err := registry.UnpackAny(resp.Account, &acc); err != nil {
		return 0, 0, fmt.Errorf("failed to unpack account: %w", err)
	}

	return acc.GetAccountNumber(), acc.GetSequence(), nil
}

// DeriveAddress returns the address of the configured mnemonic without
// contacting the chain.
func (c *Client) DeriveAddress(cfg types.SigningConfig) (string, error) {
	_, address, err := newKeyring(c.encCfg, cfg)
	if err != nil {
		return "", err
	}
	return address.String(), nil
}
