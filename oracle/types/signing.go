package types

// SigningOptions are caller supplied overrides. Empty fields are resolved by
// the network client from its own environment.
type SigningOptions struct {
	Mnemonic     string
	RPCEndpoint  string
	ChainID      string
	CoreContract string
	GasPrices    string
	GasLimit     uint64
	AccountIndex uint32
}

// SigningConfig is a fully resolved signing identity description.
type SigningConfig struct {
	Mnemonic     string
	RPCEndpoint  string
	ChainID      string
	CoreContract string
	GasPrices    string
	GasLimit     uint64
	AccountIndex uint32
}

// Signer is an identity able to post data requests.
type Signer interface {
	Address() string
	Endpoint() string
}
