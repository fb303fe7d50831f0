package types

import (
	"fmt"
	"time"
	"unicode/utf8"

	errorsmod "cosmossdk.io/errors"
)

// Defaults applied to a data request when the caller leaves a field unset.
const (
	DefaultVersion           = "0.0.1"
	DefaultReplicationFactor = 1
	DefaultExecGasLimit      = uint64(300_000_000_000_000)
	DefaultTallyGasLimit     = uint64(150_000_000_000_000)
	DefaultGasPrice          = uint64(2_000)

	DefaultAwaitTimeout         = 60 * time.Second
	DefaultAwaitPollingInterval = 10 * time.Second
)

// MemoTimeFormat renders memo timestamps as ISO-8601 UTC with milliseconds.
const MemoTimeFormat = "2006-01-02T15:04:05.000Z"

type ConsensusMethod byte

const (
	ConsensusNone ConsensusMethod = iota
	ConsensusMode
	ConsensusStdDev
)

func (c ConsensusMethod) String() string {
	switch c {
	case ConsensusNone:
		return "none"
	case ConsensusMode:
		return "mode"
	case ConsensusStdDev:
		return "std-dev"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

// Filter returns the encoded consensus filter posted with the request.
// Only the "none" method is encodable without extra parameters.
func (c ConsensusMethod) Filter() ([]byte, error) {
	if c != ConsensusNone {
		return nil, errorsmod.Wrapf(ErrUnsupportedConsensus, "method %s requires filter parameters", c)
	}

	return []byte{byte(ConsensusNone)}, nil
}

// DataRequestInput is the payload of a single data request.
type DataRequestInput struct {
	Version           string
	ConsensusMethod   ConsensusMethod
	ExecProgramID     string
	ExecInputs        []byte
	ExecGasLimit      uint64
	TallyProgramID    string
	TallyInputs       []byte
	TallyGasLimit     uint64
	ReplicationFactor uint16
	GasPrice          uint64
	Memo              []byte
}

// WithDefaults returns a copy with every unset optional field filled in.
func (in DataRequestInput) WithDefaults() DataRequestInput {
	if in.Version == "" {
		in.Version = DefaultVersion
	}
	if in.TallyProgramID == "" {
		in.TallyProgramID = in.ExecProgramID
	}
	if in.ExecGasLimit == 0 {
		in.ExecGasLimit = DefaultExecGasLimit
	}
	if in.TallyGasLimit == 0 {
		in.TallyGasLimit = DefaultTallyGasLimit
	}
	if in.ReplicationFactor == 0 {
		in.ReplicationFactor = DefaultReplicationFactor
	}
	if in.GasPrice == 0 {
		in.GasPrice = DefaultGasPrice
	}
	if in.TallyInputs == nil {
		in.TallyInputs = []byte{}
	}

	return in
}

func (in DataRequestInput) Validate() error {
	if in.ExecProgramID == "" {
		return ErrMissingProgramID
	}

	return nil
}

// DataRequestResult is the finalized outcome of a data request.
type DataRequestResult struct {
	Version        string
	DrID           string
	DrBlockHeight  uint64
	Consensus      bool
	ExitCode       uint32
	Result         []byte
	BlockHeight    uint64
	BlockTimestamp *time.Time
	GasUsed        string
	PaybackAddress string
	SedaPayload    string
}

// ResultAsUTF8 reports the result bytes as text when they are valid UTF-8.
func (r DataRequestResult) ResultAsUTF8() (string, bool) {
	if len(r.Result) == 0 || !utf8.Valid(r.Result) {
		return "", false
	}

	return string(r.Result), true
}

// AwaitOptions controls how long the network client waits for a result.
// A zero Timeout waits until the context ends.
type AwaitOptions struct {
	Timeout         time.Duration
	PollingInterval time.Duration
}

func DefaultAwaitOptions() AwaitOptions {
	return AwaitOptions{
		Timeout:         DefaultAwaitTimeout,
		PollingInterval: DefaultAwaitPollingInterval,
	}
}
