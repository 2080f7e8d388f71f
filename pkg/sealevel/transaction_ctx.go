package sealevel

import (
	"github.com/Overclock-Validator/nacre/pkg/accounts"
	"github.com/gagliardetto/solana-go"
)

// MaxInstructionStackDepth bounds the invocation stack: the top-level
// instruction plus at most four nested invocations.
const MaxInstructionStackDepth = 5

const MaxReturnDataLen = 1024

type TxReturnData struct {
	programId solana.PublicKey
	data      []byte
}

// TransactionAccounts is the per-execution working set: pointers into the
// account store, plus touch and borrow bookkeeping. Borrows are strictly
// nested; at most one may be outstanding per account.
type TransactionAccounts struct {
	Accounts []*accounts.Account
	Touched  []bool
	locked   []bool
}

func NewTransactionAccounts(accts []*accounts.Account) *TransactionAccounts {
	return &TransactionAccounts{
		Accounts: accts,
		Touched:  make([]bool, len(accts)),
		locked:   make([]bool, len(accts)),
	}
}

func (txAccts *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(txAccts.Accounts)) {
		return nil, InstrErrNotEnoughAccountKeys
	}
	return txAccts.Accounts[idx], nil
}

func (txAccts *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(txAccts.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	txAccts.Touched[idx] = true
	return nil
}

func (txAccts *TransactionAccounts) Lock(idx uint64) error {
	if idx >= uint64(len(txAccts.locked)) {
		return InstrErrNotEnoughAccountKeys
	}
	if txAccts.locked[idx] {
		return InstrErrAccountBorrowOutstanding
	}
	txAccts.locked[idx] = true
	return nil
}

func (txAccts *TransactionAccounts) Unlock(idx uint64) {
	if idx < uint64(len(txAccts.locked)) {
		txAccts.locked[idx] = false
	}
}

// TransactionCtx owns the invocation stack and the account working set for
// one top-level instruction's execution.
type TransactionCtx struct {
	AccountKeys      []solana.PublicKey
	Accounts         *TransactionAccounts
	instructionStack []uint64
	instructionTrace []*InstructionCtx
	returnData       TxReturnData
	logs             []string
}

func NewTransactionCtx(txAccts *TransactionAccounts, keys []solana.PublicKey) *TransactionCtx {
	return &TransactionCtx{AccountKeys: keys, Accounts: txAccts}
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(idx uint64) (solana.PublicKey, error) {
	if idx >= uint64(len(txCtx.AccountKeys)) {
		return solana.PublicKey{}, InstrErrNotEnoughAccountKeys
	}
	return txCtx.AccountKeys[idx], nil
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for idx, key := range txCtx.AccountKeys {
		if key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) AccountAtIndex(idx uint64) (*accounts.Account, error) {
	return txCtx.Accounts.GetAccount(idx)
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

func (txCtx *TransactionCtx) InstructionTraceLength() uint64 {
	return uint64(len(txCtx.instructionTrace))
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	if len(txCtx.instructionStack) == 0 {
		return nil, InstrErrCallDepth
	}
	traceIdx := txCtx.instructionStack[len(txCtx.instructionStack)-1]
	return txCtx.InstructionCtxAtIndexInTrace(traceIdx)
}

func (txCtx *TransactionCtx) InstructionCtxAtNestingLevel(level uint64) (*InstructionCtx, error) {
	if level >= uint64(len(txCtx.instructionStack)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtIndexInTrace(txCtx.instructionStack[level])
}

func (txCtx *TransactionCtx) InstructionCtxAtIndexInTrace(traceIdx uint64) (*InstructionCtx, error) {
	if traceIdx >= uint64(len(txCtx.instructionTrace)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.instructionTrace[traceIdx], nil
}

// NextInstructionCtx appends a fresh, unconfigured instruction context to the
// trace. The caller configures it and then pushes it via Push.
func (txCtx *TransactionCtx) NextInstructionCtx() (*InstructionCtx, error) {
	ixCtx := &InstructionCtx{}
	txCtx.instructionTrace = append(txCtx.instructionTrace, ixCtx)
	return ixCtx, nil
}

// Push puts the most recently created instruction context onto the stack,
// enforcing the depth bound.
func (txCtx *TransactionCtx) Push() error {
	if len(txCtx.instructionTrace) == 0 {
		return InstrErrCallDepth
	}

	if uint64(len(txCtx.instructionStack))+1 > MaxInstructionStackDepth {
		return InstrErrCallDepth
	}

	traceIdx := uint64(len(txCtx.instructionTrace) - 1)
	txCtx.instructionTrace[traceIdx].nestingLevel = uint64(len(txCtx.instructionStack))
	txCtx.instructionStack = append(txCtx.instructionStack, traceIdx)
	return nil
}

func (txCtx *TransactionCtx) Pop() error {
	if len(txCtx.instructionStack) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]
	return nil
}

func (txCtx *TransactionCtx) SetReturnData(programId solana.PublicKey, data []byte) error {
	if len(data) > MaxReturnDataLen {
		return InstrErrInvalidArgument
	}
	txCtx.returnData = TxReturnData{programId: programId, data: data}
	return nil
}

func (txCtx *TransactionCtx) GetReturnData() (solana.PublicKey, []byte) {
	return txCtx.returnData.programId, txCtx.returnData.data
}

func (txCtx *TransactionCtx) Logs() []string {
	return txCtx.logs
}
