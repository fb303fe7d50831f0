package wasm

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	MsgExecuteContractName    = "cosmwasm.wasm.v1.MsgExecuteContract"
	MsgExecuteContractTypeURL = "/" + MsgExecuteContractName
)

var _ sdk.Msg = &MsgExecuteContract{}

func init() {
	proto.RegisterType((*MsgExecuteContract)(nil), MsgExecuteContractName)
}

// MsgExecuteContract calls a CosmWasm contract with a JSON message. Field
// numbers follow cosmwasm/wasm/v1/tx.proto.
type MsgExecuteContract struct {
	Sender   string
	Contract string
	Msg      []byte
	Funds    sdk.Coins
}

func NewMsgExecuteContract(sender, contract string, msg []byte, funds sdk.Coins) *MsgExecuteContract {
	return &MsgExecuteContract{
		Sender:   sender,
		Contract: contract,
		Msg:      msg,
		Funds:    funds,
	}
}

func (m *MsgExecuteContract) Reset() { *m = MsgExecuteContract{} }

func (m *MsgExecuteContract) String() string {
	return fmt.Sprintf("MsgExecuteContract{sender: %s, contract: %s, msg: %s, funds: %s}",
		m.Sender, m.Contract, string(m.Msg), m.Funds)
}

func (*MsgExecuteContract) ProtoMessage() {}

// XXX_MessageName makes the type resolvable by name without a generated
// descriptor.
func (*MsgExecuteContract) XXX_MessageName() string { return MsgExecuteContractName }

// GetSigners implements the sdk.Msg interface
func (m *MsgExecuteContract) GetSigners() []sdk.AccAddress {
	sender, err := sdk.AccAddressFromBech32(m.Sender)
	if err != nil {
		panic(err)
	}
	return []sdk.AccAddress{sender}
}

// ValidateBasic implements the sdk.Msg interface
func (m *MsgExecuteContract) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(m.Sender); err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "invalid sender address (%s)", err)
	}
	if _, err := sdk.AccAddressFromBech32(m.Contract); err != nil {
		return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "invalid contract address (%s)", err)
	}
	if !m.Funds.IsValid() {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidCoins, m.Funds.String())
	}
	if !json.Valid(m.Msg) {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "msg must be valid json")
	}
	return nil
}

func (m *MsgExecuteContract) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Sender)
	b = appendString(b, 2, m.Contract)
	if len(m.Msg) > 0 {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Msg)
	}
	for _, coin := range m.Funds {
		bz, err := coin.Marshal()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal funds %s", coin)
		}
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, bz)
	}

	return b, nil
}

func (m *MsgExecuteContract) Size() int {
	bz, err := m.Marshal()
	if err != nil {
		return 0
	}
	return len(bz)
}

func (m *MsgExecuteContract) Unmarshal(bz []byte) error {
	m.Reset()

	return consumeFields(bz, func(num protowire.Number, typ protowire.Type, value []byte) error {
		switch num {
		case 1:
			m.Sender = string(value)
		case 2:
			m.Contract = string(value)
		case 3:
			m.Msg = append([]byte(nil), value...)
		case 5:
			var coin sdk.Coin
			if err := coin.Unmarshal(value); err != nil {
				return errors.Wrap(err, "failed to unmarshal funds")
			}
			m.Funds = append(m.Funds, coin)
		}
		return nil
	})
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// consumeFields walks a protobuf message and hands length-delimited fields to
// fn. Other wire types are skipped.
func consumeFields(bz []byte, fn func(num protowire.Number, typ protowire.Type, value []byte) error) error {
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "invalid tag")
		}
		bz = bz[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, bz)
			if n < 0 {
				return errors.Wrapf(protowire.ParseError(n), "invalid field %d", num)
			}
			bz = bz[n:]
			continue
		}

		value, n := protowire.ConsumeBytes(bz)
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "invalid field %d", num)
		}
		bz = bz[n:]

		if err := fn(num, typ, value); err != nil {
			return err
		}
	}

	return nil
}
