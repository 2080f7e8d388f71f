package sealevel

import (
	"github.com/Overclock-Validator/nacre/pkg/accounts"
	"github.com/Overclock-Validator/nacre/pkg/cu"
	"github.com/Overclock-Validator/nacre/pkg/rent"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// ExecutionCtx carries everything one top-level instruction's execution needs.
// Nothing in here is ambient or global; independent contexts never share
// state, so independent harness instances may run in parallel.
type ExecutionCtx struct {
	Accounts             accounts.Accounts
	TransactionContext   *TransactionCtx
	ComputeMeter         *cu.ComputeMeter
	Rent                 rent.Rent
	Blockhash            [32]byte
	LamportsPerSignature uint64
	NonceJournal         *NonceJournal
	Programs             *ProgramRegistry
}

// PrepareInstruction resolves a nested instruction's accounts against the
// caller's frame and enforces the capability propagation rules: a capability
// bit is carried forward, never escalated. `signers` holds addresses the
// caller may sign for beyond its own frame capabilities, i.e. program derived
// addresses established from the caller's seed groups.
func (execCtx *ExecutionCtx) PrepareInstruction(ix Instruction, signers []solana.PublicKey) ([]InstructionAccount, []uint64, error) {
	txCtx := execCtx.TransactionContext

	ixCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, nil, err
	}

	dedupInstructionAccounts := make([]InstructionAccount, 0)
	duplicateIndices := make([]uint64, 0)

	for instructionAcctIndex, accountMeta := range ix.Accounts {
		indexInTx, err := txCtx.IndexOfAccount(accountMeta.Pubkey)
		if err != nil {
			klog.Errorf("instruction references unknown account %s", accountMeta.Pubkey)
			return nil, nil, err
		}

		duplicateIndex := -1
		for index, instrAcct := range dedupInstructionAccounts {
			if instrAcct.IndexInTransaction == indexInTx {
				duplicateIndex = index
				break
			}
		}

		if duplicateIndex != -1 {
			duplicateIndices = append(duplicateIndices, uint64(duplicateIndex))
			dedupInstructionAccounts[duplicateIndex].IsSigner = dedupInstructionAccounts[duplicateIndex].IsSigner || accountMeta.IsSigner
			dedupInstructionAccounts[duplicateIndex].IsWritable = dedupInstructionAccounts[duplicateIndex].IsWritable || accountMeta.IsWritable
		} else {
			indexInCaller, err := ixCtx.IndexOfInstructionAccount(txCtx, accountMeta.Pubkey)
			if err != nil {
				return nil, nil, err
			}
			duplicateIndices = append(duplicateIndices, uint64(len(dedupInstructionAccounts)))

			instrAcct := InstructionAccount{IndexInTransaction: indexInTx,
				IndexInCaller: indexInCaller,
				IndexInCallee: uint64(instructionAcctIndex),
				IsSigner:      accountMeta.IsSigner,
				IsWritable:    accountMeta.IsWritable}

			dedupInstructionAccounts = append(dedupInstructionAccounts, instrAcct)
		}
	}

	for _, instructionAcct := range dedupInstructionAccounts {
		borrowedAcct, err := ixCtx.BorrowInstructionAccount(txCtx, instructionAcct.IndexInCaller)
		if err != nil {
			return nil, nil, err
		}

		// "Read-only in caller cannot become writable in callee"
		if instructionAcct.IsWritable && !borrowedAcct.IsWritable() {
			borrowedAcct.Drop()
			return nil, nil, InstrErrPrivilegeEscalation
		}

		// "To be signed in the callee,
		// it must be either signed in the caller or by the program"
		presentInSigners := false
		for _, addr := range signers {
			if addr == borrowedAcct.Key() {
				presentInSigners = true
				break
			}
		}
		if instructionAcct.IsSigner && !(borrowedAcct.IsSigner() || presentInSigners) {
			borrowedAcct.Drop()
			return nil, nil, InstrErrMissingRequiredSignature
		}
		borrowedAcct.Drop()
	}

	var instructionAccounts []InstructionAccount
	for _, duplicateIndex := range duplicateIndices {
		if duplicateIndex > uint64(len(dedupInstructionAccounts)-1) {
			return nil, nil, InstrErrNotEnoughAccountKeys
		}
		instrAcct := dedupInstructionAccounts[duplicateIndex]
		instructionAccounts = append(instructionAccounts, instrAcct)
	}

	// "Find and validate executables / program accounts"
	calleeProgramId := ix.ProgramId
	programAcctTxIdx, err := txCtx.IndexOfAccount(calleeProgramId)
	if err != nil {
		klog.Errorf("unknown program %s", calleeProgramId)
		return nil, nil, err
	}

	programAcct, err := txCtx.AccountAtIndex(programAcctTxIdx)
	if err != nil {
		return nil, nil, err
	}

	if !programAcct.IsExecutable() {
		klog.Errorf("account %s is not executable", calleeProgramId)
		return nil, nil, InstrErrAccountNotExecutable
	}

	return instructionAccounts, []uint64{programAcctTxIdx}, nil
}

// ProcessInstruction executes one instruction frame: configure the next
// context, push it, run the program, and pop on every exit path.
func (execCtx *ExecutionCtx) ProcessInstruction(instrData []byte, instructionAccts []InstructionAccount, programIndices []uint64) error {
	nextInstrCtx, err := execCtx.TransactionContext.NextInstructionCtx()
	if err != nil {
		return err
	}

	nextInstrCtx.Configure(programIndices, instructionAccts, instrData)

	err = execCtx.Push()
	if err != nil {
		return err
	}
	defer func() {
		if popErr := execCtx.Pop(); popErr != nil {
			klog.Errorf("instruction stack pop failed: %s", popErr)
		}
	}()

	return execCtx.ExecuteInstruction()
}

// ExecuteInstruction dispatches the current frame to its program handler.
func (execCtx *ExecutionCtx) ExecuteInstruction() error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	borrowedRootAccount, err := instrCtx.BorrowLastProgramAccount(txCtx)
	if err != nil {
		klog.V(2).Infof("BorrowLastProgramAccount failed: %s", err)
		return InstrErrUnsupportedProgramId
	}

	ownerId := borrowedRootAccount.Owner()
	programKey := borrowedRootAccount.Key()
	borrowedRootAccount.Drop()

	var handlerId solana.PublicKey
	if ownerId == NativeLoaderAddr {
		handlerId = programKey
	} else {
		handlerId = ownerId
	}

	programFn, err := execCtx.Programs.Resolve(handlerId)
	if err != nil {
		return err
	}

	klog.V(1).Infof("executing program %s at stack height %d", programKey, execCtx.StackHeight())
	return programFn(execCtx)
}

// Push enforces the depth bound and the reentrancy rule: a program already on
// the stack may only be re-entered as a direct self-recursion.
func (execCtx *ExecutionCtx) Push() error {
	txCtx := execCtx.TransactionContext

	idx := txCtx.InstructionTraceLength()
	instrCtx, err := txCtx.InstructionCtxAtIndexInTrace(idx - 1)
	if err != nil {
		return err
	}

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return InstrErrUnsupportedProgramId
	}

	if txCtx.InstructionCtxStackHeight() != 0 {
		var contains bool
		for level := uint64(0); level < txCtx.InstructionCtxStackHeight(); level++ {
			ic, err := txCtx.InstructionCtxAtNestingLevel(level)
			if err == nil {
				key, err := ic.LastProgramKey(txCtx)
				if err == nil && key == programId {
					contains = true
					break
				}
			}
		}

		var isLast bool
		ic, err := txCtx.CurrentInstructionCtx()
		if err != nil {
			return err
		}
		key, err := ic.LastProgramKey(txCtx)
		if err == nil && key == programId {
			isLast = true
		}

		if contains && !isLast {
			return InstrErrReentrancyNotAllowed
		}
	}

	return txCtx.Push()
}

func (execCtx *ExecutionCtx) Pop() error {
	return execCtx.TransactionContext.Pop()
}

func (execCtx *ExecutionCtx) StackHeight() uint64 {
	return execCtx.TransactionContext.InstructionCtxStackHeight()
}

// CurrentProgramId returns the identity of the program executing in the
// current frame.
func (execCtx *ExecutionCtx) CurrentProgramId() (solana.PublicKey, error) {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return instrCtx.LastProgramKey(execCtx.TransactionContext)
}

// NativeInvoke performs a cross-program invocation from the current frame.
// `signers` lists addresses the caller claims signing authority for; they
// must have been established via DeriveSigners or carried from the caller's
// own frame capabilities.
func (execCtx *ExecutionCtx) NativeInvoke(instruction Instruction, signers []solana.PublicKey) error {
	err := execCtx.ComputeMeter.Consume(CUInvokeUnits)
	if err != nil {
		return InstrErrComputationalBudgetExceeded
	}

	instrAccts, programIndices, err := execCtx.PrepareInstruction(instruction, signers)
	if err != nil {
		return err
	}

	return execCtx.ProcessInstruction(instruction.Data, instrAccts, programIndices)
}

// InvokeSigned is NativeInvoke plus PDA signing: each seed group is derived
// under the *calling* program's id (never the callee's), and the resulting
// addresses gain the signer capability in the callee frame. Multiple
// independent seed groups may sign simultaneously.
func (execCtx *ExecutionCtx) InvokeSigned(instruction Instruction, signersSeeds [][][]byte) error {
	signers, err := execCtx.DeriveSigners(signersSeeds)
	if err != nil {
		return err
	}
	return execCtx.NativeInvoke(instruction, signers)
}
