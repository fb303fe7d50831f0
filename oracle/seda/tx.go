package seda

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/client/tx"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	coretypes "github.com/tendermint/tendermint/rpc/core/types"

	"github.com/GPTx-global/drpost/oracle/log"
	"github.com/GPTx-global/drpost/oracle/retry"
	"github.com/GPTx-global/drpost/oracle/types"
)

func (s *Signer) buildTx(msgs ...sdk.Msg) ([]byte, error) {
	gasPrices, err := sdk.ParseDecCoins(s.config.GasPrices)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gas prices: %w", err)
	}

	factory := tx.Factory{}.
		WithTxConfig(s.clientCtx.TxConfig).
		WithAccountRetriever(s.clientCtx.AccountRetriever).
		WithKeybase(s.clientCtx.Keyring).
		WithChainID(s.config.ChainID).
		WithGas(s.config.GasLimit).
		WithGasAdjustment(1.2).
		WithGasPrices(gasPrices.String()).
		WithAccountNumber(s.accNum).
		WithSequence(s.sequence.Load()).
		WithSignMode(signing.SignMode_SIGN_MODE_DIRECT)

	txBuilder, err := factory.BuildUnsignedTx(msgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build unsigned tx: %w", err)
	}

	if err := tx.Sign(factory, keyName, txBuilder, true); err != nil {
		return nil, fmt.Errorf("failed to sign tx: %w", err)
	}

	txBytes, err := s.clientCtx.TxConfig.TxEncoder()(txBuilder.GetTx())
	if err != nil {
		return nil, fmt.Errorf("failed to encode tx: %w", err)
	}

	return txBytes, nil
}

// broadcastTx submits in sync mode. The sequence only advances once the
// mempool accepted the tx.
func (s *Signer) broadcastTx(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	res, err := s.rpc.BroadcastTxSync(ctx, txBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast tx: %w", err)
	}

	txResponse := sdk.NewResponseFormatBroadcastTx(res)
	if txResponse.Code != 0 {
		return txResponse, errorsmod.Wrapf(types.ErrTxFailed, "check tx failed with code %d (%s): %s",
			txResponse.Code, txResponse.Codespace, txResponse.RawLog)
	}

	s.sequence.Add(1)
	return txResponse, nil
}

func isTxPending(err error) bool {
	return strings.Contains(err.Error(), "not found") || retry.DefaultIsRetryable(err)
}

// waitForTx polls the node until the tx is part of a block. Failed delivery
// is reported as ErrTxFailed.
func (s *Signer) waitForTx(ctx context.Context, txHash string, interval time.Duration) (*coretypes.ResultTx, error) {
	hash, err := hex.DecodeString(txHash)
	if err != nil {
		return nil, fmt.Errorf("invalid tx hash %q: %w", txHash, err)
	}

	var result *coretypes.ResultTx
	err = retry.Do(ctx, retry.PollConfig(interval), func() error {
		res, err := s.rpc.Tx(ctx, hash, false)
		if err != nil {
			log.Debugf("tx %s not included yet: %v", txHash, err)
			return err
		}
		result = res
		return nil
	}, isTxPending)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for tx %s: %w", txHash, err)
	}

	if result.TxResult.Code != 0 {
		return result, errorsmod.Wrapf(types.ErrTxFailed, "tx %s failed with code %d (%s): %s",
			txHash, result.TxResult.Code, result.TxResult.Codespace, result.TxResult.Log)
	}

	return result, nil
}

// eventAttribute returns the first value of key in events of eventType. An
// empty eventType matches any event.
func eventAttribute(res *coretypes.ResultTx, eventType, key string) (string, bool) {
	for _, event := range res.TxResult.Events {
		if eventType != "" && event.Type != eventType {
			continue
		}
		for _, attr := range event.Attributes {
			if string(attr.Key) == key {
				return string(attr.Value), true
			}
		}
	}
	return "", false
}
