package seda

import (
	"sync"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/GPTx-global/drpost/oracle/wasm"
)

const (
	Bech32PrefixAccAddr = "seda"
	Bech32PrefixAccPub  = "sedapub"
	Bip44CoinType       = 118
	Denom               = "aseda"
)

var prefixOnce sync.Once

// SetAddressPrefixes switches the sdk to seda bech32 prefixes. The global
// config is left unsealed.
func SetAddressPrefixes() {
	prefixOnce.Do(func() {
		cfg := sdk.GetConfig()
		cfg.SetBech32PrefixForAccount(Bech32PrefixAccAddr, Bech32PrefixAccPub)
		cfg.SetCoinType(Bip44CoinType)
	})
}

type encodingConfig struct {
	InterfaceRegistry codectypes.InterfaceRegistry
	Codec             codec.Codec
	TxConfig          client.TxConfig
	Amino             *codec.LegacyAmino
}

func makeEncodingConfig() encodingConfig {
	amino := codec.NewLegacyAmino()
	registry := codectypes.NewInterfaceRegistry()

	std.RegisterLegacyAminoCodec(amino)
	std.RegisterInterfaces(registry)
	authtypes.RegisterInterfaces(registry)
	registry.RegisterImplementations((*sdk.Msg)(nil), &wasm.MsgExecuteContract{})

	cdc := codec.NewProtoCodec(registry)

	return encodingConfig{
		InterfaceRegistry: registry,
		Codec:             cdc,
		TxConfig:          authtx.NewTxConfig(cdc, authtx.DefaultSignModes),
		Amino:             amino,
	}
}
