package seda

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tidwall/sjson"

	"github.com/GPTx-global/drpost/oracle/types"
	"github.com/GPTx-global/drpost/oracle/wasm"
)

// Event attribute carrying the id of a posted data request.
const AttributeKeyDrID = "dr_id"

// postDataRequestMsg renders the core contract execute message for in, which
// must already carry its defaults.
func postDataRequestMsg(in types.DataRequestInput) ([]byte, error) {
	filter, err := in.ConsensusMethod.Filter()
	if err != nil {
		return nil, err
	}

	fields := []struct {
		path  string
		value any
	}{
		{"post_data_request.posted_dr.version", in.Version},
		{"post_data_request.posted_dr.exec_program_id", in.ExecProgramID},
		{"post_data_request.posted_dr.exec_inputs", base64.StdEncoding.EncodeToString(in.ExecInputs)},
		{"post_data_request.posted_dr.exec_gas_limit", in.ExecGasLimit},
		{"post_data_request.posted_dr.tally_program_id", in.TallyProgramID},
		{"post_data_request.posted_dr.tally_inputs", base64.StdEncoding.EncodeToString(in.TallyInputs)},
		{"post_data_request.posted_dr.tally_gas_limit", in.TallyGasLimit},
		{"post_data_request.posted_dr.replication_factor", in.ReplicationFactor},
		{"post_data_request.posted_dr.consensus_filter", base64.StdEncoding.EncodeToString(filter)},
		{"post_data_request.posted_dr.gas_price", strconv.FormatUint(in.GasPrice, 10)},
		{"post_data_request.posted_dr.memo", base64.StdEncoding.EncodeToString(in.Memo)},
		{"post_data_request.seda_payload", ""},
		{"post_data_request.payback_address", ""},
	}

	msg := []byte(`{}`)
	for _, f := range fields {
		if msg, err = sjson.SetBytes(msg, f.path, f.value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", f.path, err)
		}
	}

	return msg, nil
}

// postDataRequestFunds is the escrow paid for execution on every replica
// plus the tally.
func postDataRequestFunds(in types.DataRequestInput) sdk.Coins {
	gas := math.NewIntFromUint64(in.ExecGasLimit).
		Mul(math.NewIntFromUint64(uint64(in.ReplicationFactor))).
		Add(math.NewIntFromUint64(in.TallyGasLimit))

	return sdk.NewCoins(sdk.NewCoin(Denom, gas.Mul(math.NewIntFromUint64(in.GasPrice))))
}

func newPostDataRequestMsg(sender, contract string, in types.DataRequestInput) (*wasm.MsgExecuteContract, error) {
	payload, err := postDataRequestMsg(in)
	if err != nil {
		return nil, err
	}

	msg := wasm.NewMsgExecuteContract(sender, contract, payload, postDataRequestFunds(in))
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	return msg, nil
}
