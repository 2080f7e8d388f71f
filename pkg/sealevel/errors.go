package sealevel

import "errors"

// instruction errors
var (
	InstrErrInvalidInstructionData      = errors.New("InstrErrInvalidInstructionData")
	InstrErrNotEnoughAccountKeys        = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrComputationalBudgetExceeded = errors.New("InstrErrComputationalBudgetExceeded")
	InstrErrMissingAccount              = errors.New("InstrErrMissingAccount")
	InstrErrInvalidAccountOwner         = errors.New("InstrErrInvalidAccountOwner")
	InstrErrInvalidAccountData          = errors.New("InstrErrInvalidAccountData")
	InstrErrMissingRequiredSignature    = errors.New("InstrErrMissingRequiredSignature")
	InstrErrInvalidArgument             = errors.New("InstrErrInvalidArgument")
	InstrErrExecutableDataModified      = errors.New("InstrErrExecutableDataModified")
	InstrErrReadonlyDataModified        = errors.New("InstrErrReadonlyDataModified")
	InstrErrExternalAccountDataModified = errors.New("InstrErrExternalAccountDataModified")
	InstrErrPrivilegeEscalation         = errors.New("InstrErrPrivilegeEscalation")
	InstrErrAccountNotExecutable        = errors.New("InstrErrAccountNotExecutable")
	InstrErrInvalidRealloc              = errors.New("InstrErrInvalidRealloc")
	InstrErrModifiedProgramId           = errors.New("InstrErrModifiedProgramId")
	InstrErrCallDepth                   = errors.New("InstrErrCallDepth")
	InstrErrUnsupportedProgramId        = errors.New("InstrErrUnsupportedProgramId")
	InstrErrReentrancyNotAllowed        = errors.New("InstrErrReentrancyNotAllowed")
	InstrErrArithmeticOverflow          = errors.New("InstrErrArithmeticOverflow")
	InstrErrUnbalancedInstruction       = errors.New("InstrErrUnbalancedInstruction")
	InstrErrAccountDataTooSmall         = errors.New("InstrErrAccountDataTooSmall")
	InstrErrAccountBorrowOutstanding    = errors.New("InstrErrAccountBorrowOutstanding")
	InstrErrExternalAccountLamportSpend = errors.New("InstrErrExternalAccountLamportSpend")
	InstrErrReadonlyLamportChange       = errors.New("InstrErrReadonlyLamportChange")
	InstrErrExecutableLamportChange     = errors.New("InstrErrExecutableLamportChange")
	InstrErrExecutableModified          = errors.New("InstrErrExecutableModified")
	InstrErrInsufficientFunds           = errors.New("InstrErrInsufficientFunds")
	InstrErrAccountAlreadyInitialized   = errors.New("InstrErrAccountAlreadyInitialized")
	InstrErrUninitializedAccount        = errors.New("InstrErrUninitializedAccount")
	InstrErrInvalidSeeds                = errors.New("InstrErrInvalidSeeds")
	InstrErrMaxSeedLengthExceeded       = errors.New("InstrErrMaxSeedLengthExceeded")
	InstrErrRentExemptionViolation      = errors.New("InstrErrRentExemptionViolation")
	InstrErrProgramFailedToComplete     = errors.New("InstrErrProgramFailedToComplete")
)

// instruction errors - Solana numerical error codes
const (
	InstrErrCodeUnknown = -1

	InstrErrCodeSuccess                     = 0
	InstrErrCodeInvalidArgument             = 2
	InstrErrCodeInvalidInstructionData      = 3
	InstrErrCodeInvalidAccountData          = 4
	InstrErrCodeAccountDataTooSmall         = 5
	InstrErrCodeInsufficientFunds           = 6
	InstrErrCodeMissingRequiredSignature    = 8
	InstrErrCodeAccountAlreadyInitialized   = 9
	InstrErrCodeUninitializedAccount        = 10
	InstrErrCodeUnbalancedInstruction       = 11
	InstrErrCodeModifiedProgramId           = 12
	InstrErrCodeExternalAccountLamportSpend = 13
	InstrErrCodeExternalAccountDataModified = 14
	InstrErrCodeReadonlyLamportChange       = 15
	InstrErrCodeReadonlyDataModified        = 16
	InstrErrCodeExecutableModified          = 18
	InstrErrCodeNotEnoughAccountKeys        = 20
	InstrErrCodeAccountNotExecutable        = 22
	InstrErrCodeAccountBorrowOutstanding    = 24
	InstrErrCodeExecutableDataModified      = 28
	InstrErrCodeExecutableLamportChange     = 29
	InstrErrCodeUnsupportedProgramId        = 31
	InstrErrCodeCallDepth                   = 32
	InstrErrCodeMissingAccount              = 33
	InstrErrCodeReentrancyNotAllowed        = 34
	InstrErrCodeMaxSeedLengthExceeded       = 35
	InstrErrCodeInvalidSeeds                = 36
	InstrErrCodeInvalidRealloc              = 37
	InstrErrCodeComputationalBudgetExceeded = 38
	InstrErrCodePrivilegeEscalation         = 39
	InstrErrCodeProgramFailedToComplete     = 41
	InstrErrCodeAccountNotRentExempt        = 46
	InstrErrCodeInvalidAccountOwner         = 47
	InstrErrCodeArithmeticOverflow          = 48
)

// TranslateErrToInstrErrCode maps a sentinel instruction error to its Solana
// numerical error code. nil maps to InstrErrCodeSuccess; any failure without
// an assigned code maps to InstrErrCodeUnknown, never to the success code.
func TranslateErrToInstrErrCode(err error) int {
	if err == nil {
		return InstrErrCodeSuccess
	}
	switch err {
	case InstrErrInvalidInstructionData:
		return InstrErrCodeInvalidInstructionData
	case InstrErrNotEnoughAccountKeys:
		return InstrErrCodeNotEnoughAccountKeys
	case InstrErrComputationalBudgetExceeded:
		return InstrErrCodeComputationalBudgetExceeded
	case InstrErrMissingAccount:
		return InstrErrCodeMissingAccount
	case InstrErrInvalidAccountOwner:
		return InstrErrCodeInvalidAccountOwner
	case InstrErrInvalidAccountData:
		return InstrErrCodeInvalidAccountData
	case InstrErrMissingRequiredSignature:
		return InstrErrCodeMissingRequiredSignature
	case InstrErrInvalidArgument:
		return InstrErrCodeInvalidArgument
	case InstrErrExecutableDataModified:
		return InstrErrCodeExecutableDataModified
	case InstrErrReadonlyDataModified:
		return InstrErrCodeReadonlyDataModified
	case InstrErrExternalAccountDataModified:
		return InstrErrCodeExternalAccountDataModified
	case InstrErrAccountDataTooSmall:
		return InstrErrCodeAccountDataTooSmall
	case InstrErrInsufficientFunds:
		return InstrErrCodeInsufficientFunds
	case InstrErrAccountAlreadyInitialized:
		return InstrErrCodeAccountAlreadyInitialized
	case InstrErrUninitializedAccount:
		return InstrErrCodeUninitializedAccount
	case InstrErrUnbalancedInstruction:
		return InstrErrCodeUnbalancedInstruction
	case InstrErrModifiedProgramId:
		return InstrErrCodeModifiedProgramId
	case InstrErrExternalAccountLamportSpend:
		return InstrErrCodeExternalAccountLamportSpend
	case InstrErrReadonlyLamportChange:
		return InstrErrCodeReadonlyLamportChange
	case InstrErrExecutableModified:
		return InstrErrCodeExecutableModified
	case InstrErrAccountNotExecutable:
		return InstrErrCodeAccountNotExecutable
	case InstrErrAccountBorrowOutstanding:
		return InstrErrCodeAccountBorrowOutstanding
	case InstrErrExecutableLamportChange:
		return InstrErrCodeExecutableLamportChange
	case InstrErrUnsupportedProgramId:
		return InstrErrCodeUnsupportedProgramId
	case InstrErrCallDepth:
		return InstrErrCodeCallDepth
	case InstrErrReentrancyNotAllowed:
		return InstrErrCodeReentrancyNotAllowed
	case InstrErrMaxSeedLengthExceeded:
		return InstrErrCodeMaxSeedLengthExceeded
	case InstrErrInvalidSeeds:
		return InstrErrCodeInvalidSeeds
	case InstrErrInvalidRealloc:
		return InstrErrCodeInvalidRealloc
	case InstrErrPrivilegeEscalation:
		return InstrErrCodePrivilegeEscalation
	case InstrErrProgramFailedToComplete:
		return InstrErrCodeProgramFailedToComplete
	case InstrErrRentExemptionViolation:
		return InstrErrCodeAccountNotRentExempt
	case InstrErrArithmeticOverflow:
		return InstrErrCodeArithmeticOverflow
	}
	return InstrErrCodeUnknown
}
