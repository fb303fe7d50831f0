package wasm

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// SmartContractStatePath is the ABCI query path of the wasm smart query.
const SmartContractStatePath = "/cosmwasm.wasm.v1.Query/SmartContractState"

type QuerySmartContractStateRequest struct {
	Address   string
	QueryData []byte
}

func (r QuerySmartContractStateRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, r.Address)
	if len(r.QueryData) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, r.QueryData)
	}
	return b
}

// UnmarshalSmartContractStateResponse returns the raw JSON answer of the
// contract.
func UnmarshalSmartContractStateResponse(bz []byte) ([]byte, error) {
	var data []byte
	err := consumeFields(bz, func(num protowire.Number, _ protowire.Type, value []byte) error {
		if num == 1 {
			data = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode smart query response")
	}

	return data, nil
}

// UnmarshalStringField returns the first occurrence of a string field. It is
// enough for single-field responses such as contract registry lookups.
func UnmarshalStringField(bz []byte, field protowire.Number) (string, error) {
	var (
		value string
		found bool
	)
	err := consumeFields(bz, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		if num == field && typ == protowire.BytesType && !found {
			value, found = string(raw), true
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to decode field %d", field)
	}

	return value, nil
}
