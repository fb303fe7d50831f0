package types

import (
	errorsmod "cosmossdk.io/errors"
)

const ModuleName = "drpost"

// errors
var (
	ErrMissingProgramID      = errorsmod.Register(ModuleName, 2, "please set ORACLE_PROGRAM_ID in your env file")
	ErrInvalidSigningConfig  = errorsmod.Register(ModuleName, 3, "invalid signing config")
	ErrTxFailed              = errorsmod.Register(ModuleName, 4, "transaction failed")
	ErrResultNotReady        = errorsmod.Register(ModuleName, 5, "data result not available yet")
	ErrDataRequestIDNotFound = errorsmod.Register(ModuleName, 6, "data request id not found in transaction events")
	ErrAwaitTimeout          = errorsmod.Register(ModuleName, 7, "timed out waiting for data result")
	ErrUnsupportedConsensus  = errorsmod.Register(ModuleName, 8, "unsupported consensus method")
	ErrInvalidResult         = errorsmod.Register(ModuleName, 9, "invalid data result")
)
