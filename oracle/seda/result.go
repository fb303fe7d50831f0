package seda

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/GPTx-global/drpost/oracle/types"
	"github.com/GPTx-global/drpost/oracle/wasm"
)

const coreContractRegistryPath = "/sedachain.wasm_storage.v1.Query/CoreContractRegistry"

func queryCoreContract(ctx context.Context, rpc rpcClient) (string, error) {
	res, err := rpc.ABCIQuery(ctx, coreContractRegistryPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to query core contract: %w", err)
	}
	if res.Response.Code != 0 {
		return "", fmt.Errorf("core contract query failed with code %d: %s", res.Response.Code, res.Response.Log)
	}

	address, err := wasm.UnmarshalStringField(res.Response.Value, 1)
	if err != nil {
		return "", err
	}
	if address == "" {
		return "", errorsmod.Wrap(types.ErrInvalidSigningConfig, "chain has no core contract registered, set SEDA_CORE_CONTRACT")
	}

	return address, nil
}

func querySmart(ctx context.Context, rpc rpcClient, contract string, query []byte) ([]byte, error) {
	req := wasm.QuerySmartContractStateRequest{Address: contract, QueryData: query}

	res, err := rpc.ABCIQuery(ctx, wasm.SmartContractStatePath, req.Marshal())
	if err != nil {
		return nil, fmt.Errorf("failed to query contract %s: %w", contract, err)
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("contract query failed with code %d: %s", res.Response.Code, res.Response.Log)
	}

	return wasm.UnmarshalSmartContractStateResponse(res.Response.Value)
}

// getDataResult returns ErrResultNotReady until the request is resolved.
func getDataResult(ctx context.Context, rpc rpcClient, contract, drID string) (*types.DataRequestResult, error) {
	query, err := sjson.SetBytes([]byte(`{}`), "get_data_result.dr_id", drID)
	if err != nil {
		return nil, err
	}

	data, err := querySmart(ctx, rpc, contract, query)
	if err != nil {
		return nil, err
	}

	return parseDataResult(data)
}

func parseDataResult(data []byte) (*types.DataRequestResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, errorsmod.Wrapf(types.ErrInvalidResult, "invalid json: %q", data)
	}

	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null || !root.Get("dr_id").Exists() {
		return nil, types.ErrResultNotReady
	}

	result, err := base64.StdEncoding.DecodeString(root.Get("result").String())
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidResult, "result is not base64: %v", err)
	}

	res := &types.DataRequestResult{
		Version:        root.Get("version").String(),
		DrID:           root.Get("dr_id").String(),
		DrBlockHeight:  root.Get("dr_block_height").Uint(),
		Consensus:      root.Get("consensus").Bool(),
		ExitCode:       uint32(root.Get("exit_code").Uint()),
		Result:         result,
		BlockHeight:    root.Get("block_height").Uint(),
		GasUsed:        root.Get("gas_used").String(),
		PaybackAddress: root.Get("payback_address").String(),
		SedaPayload:    root.Get("seda_payload").String(),
	}

	if ts := root.Get("block_timestamp"); ts.Exists() && ts.Uint() > 0 {
		t := time.Unix(int64(ts.Uint()), 0).UTC()
		res.BlockTimestamp = &t
	}

	return res, nil
}
