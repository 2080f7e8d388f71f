// Package harness is the deterministic execution front door: seed a ledger,
// register program handlers, fire single instructions or instruction chains,
// and inspect the outcomes. All execution is synchronous and single-pass;
// there is no scheduling, no fee market and no persistence beyond the
// in-memory store.
package harness

import (
	"github.com/Overclock-Validator/nacre/pkg/accounts"
	"github.com/Overclock-Validator/nacre/pkg/cu"
	"github.com/Overclock-Validator/nacre/pkg/rent"
	"github.com/Overclock-Validator/nacre/pkg/safemath"
	"github.com/Overclock-Validator/nacre/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// SignatureVerifier decides whether a top-level signer meta actually carries
// a valid signature. A nil verifier treats every claimed signature as valid,
// which is the usual setup for program tests.
type SignatureVerifier func(pubkey solana.PublicKey) bool

// Harness owns an account store, a program registry and the execution
// environment shared by every instruction it runs. It is not safe for
// concurrent use; run independent scenarios on independent instances.
type Harness struct {
	Store                *accounts.MemAccounts
	Programs             *sealevel.ProgramRegistry
	Rent                 rent.Rent
	ComputeBudget        uint64
	Blockhash            [32]byte
	LamportsPerSignature uint64
	NonceJournal         *sealevel.NonceJournal
	VerifySignature      SignatureVerifier

	programKeys []solana.PublicKey
}

// ExecutionOutcome reports one instruction's execution: the error (nil on
// success) with its numerical code, compute units consumed, the program log,
// return data and a copy of every working-set account as it stands after
// commit or rollback.
type ExecutionOutcome struct {
	Err                  error
	ErrCode              int
	ComputeUnitsConsumed uint64
	Logs                 []string
	ReturnData           []byte
	PostAccounts         []accounts.Account
}

func NewHarness() *Harness {
	h := &Harness{
		Store:                accounts.NewMemAccounts(),
		Programs:             sealevel.NewProgramRegistry(),
		Rent:                 rent.DefaultRent(),
		ComputeBudget:        cu.DefaultComputeUnitLimit,
		LamportsPerSignature: 5000,
		NonceJournal:         sealevel.NewNonceJournal(),
	}

	systemAcct := &accounts.Account{
		Key:        sealevel.SystemProgramAddr,
		Lamports:   1,
		Owner:      sealevel.NativeLoaderAddr,
		Executable: true,
	}
	if err := h.Store.SetAccount(systemAcct.Key, systemAcct); err != nil {
		panic(err)
	}
	h.programKeys = append(h.programKeys, systemAcct.Key)

	return h
}

// SetAccount seeds or replaces one account in the store.
func (h *Harness) SetAccount(acct accounts.Account) error {
	return h.Store.SetAccount(acct.Key, &acct)
}

// GetAccount returns a copy of an account's current committed state.
func (h *Harness) GetAccount(pubkey solana.PublicKey) (accounts.Account, error) {
	acct, err := h.Store.GetAccount(pubkey)
	if err != nil {
		return accounts.Account{}, err
	}
	return *acct.Clone(), nil
}

// AddProgram registers a handler under programId and seeds the matching
// executable account, making the program invocable both top-level and via
// cross-program invocation. Every entry into the handler is charged the flat
// registered-program default before the handler runs.
func (h *Harness) AddProgram(programId solana.PublicKey, fn sealevel.ProgramFn) error {
	h.Programs.Register(programId, func(execCtx *sealevel.ExecutionCtx) error {
		if err := execCtx.ComputeMeter.Consume(sealevel.CURegisteredProgramDefaultComputeUnits); err != nil {
			return sealevel.InstrErrComputationalBudgetExceeded
		}
		return fn(execCtx)
	})

	programAcct := &accounts.Account{
		Key:        programId,
		Lamports:   1,
		Owner:      sealevel.NativeLoaderAddr,
		Executable: true,
	}
	if err := h.Store.SetAccount(programId, programAcct); err != nil {
		return err
	}
	h.programKeys = append(h.programKeys, programId)
	return nil
}

// StateHash digests the committed store contents. Two harnesses that executed
// the same instructions over the same seed accounts produce equal hashes.
func (h *Harness) StateHash() [32]byte {
	return accounts.HashAccounts(h.Store.AllAccounts())
}

// Execute runs one instruction against a fresh compute budget. On any error
// every account mutation is rolled back; on success all of them are
// committed. The nonce journal is exempt from rollback either way.
func (h *Harness) Execute(ix sealevel.Instruction) ExecutionOutcome {
	meter := cu.NewComputeMeter(h.ComputeBudget)
	return h.execute(ix, &meter)
}

func (h *Harness) execute(ix sealevel.Instruction, meter *cu.ComputeMeter) ExecutionOutcome {
	keys, err := h.workingSetKeys(ix)
	if err != nil {
		return ExecutionOutcome{Err: err}
	}

	txAccts := make([]*accounts.Account, len(keys))
	for idx, key := range keys {
		acct, err := h.Store.GetAccount(key)
		if err != nil {
			klog.V(1).Infof("instruction references unknown account %s", key)
			return ExecutionOutcome{Err: sealevel.InstrErrMissingAccount}
		}
		txAccts[idx] = acct
	}

	if h.VerifySignature != nil {
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !h.VerifySignature(meta.Pubkey) {
				return ExecutionOutcome{Err: sealevel.InstrErrMissingRequiredSignature}
			}
		}
	}

	txCtx := sealevel.NewTransactionCtx(sealevel.NewTransactionAccounts(txAccts), keys)
	execCtx := &sealevel.ExecutionCtx{
		Accounts:             h.Store,
		TransactionContext:   txCtx,
		ComputeMeter:         meter,
		Rent:                 h.Rent,
		Blockhash:            h.Blockhash,
		LamportsPerSignature: h.LamportsPerSignature,
		NonceJournal:         h.NonceJournal,
		Programs:             h.Programs,
	}

	instrAccts := make([]sealevel.InstructionAccount, 0, len(ix.Accounts))
	for idxInCallee, meta := range ix.Accounts {
		idxInTx, err := txCtx.IndexOfAccount(meta.Pubkey)
		if err != nil {
			return ExecutionOutcome{Err: err}
		}
		instrAccts = append(instrAccts, sealevel.InstructionAccount{
			IndexInTransaction: idxInTx,
			IndexInCaller:      idxInTx,
			IndexInCallee:      uint64(idxInCallee),
			IsSigner:           meta.IsSigner,
			IsWritable:         meta.IsWritable,
		})
	}

	preLamports, err := lamportSum(txAccts)
	if err != nil {
		return ExecutionOutcome{Err: sealevel.InstrErrArithmeticOverflow}
	}

	preRentStates := make([]*rent.RentStateInfo, len(ix.Accounts))
	for idx, meta := range ix.Accounts {
		if meta.IsWritable {
			acct, _ := h.Store.GetAccount(meta.Pubkey)
			preRentStates[idx] = rent.RentStateFromAcct(acct, &h.Rent)
		}
	}

	token := h.Store.Snapshot()
	usedBefore := meter.Used()

	execErr := h.runGuarded(execCtx, ix.Data, instrAccts)

	if execErr == nil {
		execErr = h.postExecutionChecks(ix, txAccts, preLamports, preRentStates)
	}

	if execErr != nil {
		if rbErr := h.Store.RollbackTo(token); rbErr != nil {
			klog.Errorf("rollback failed: %s", rbErr)
		}
	} else {
		h.Store.Commit()
	}

	_, returnData := txCtx.GetReturnData()

	outcome := ExecutionOutcome{
		Err:                  execErr,
		ErrCode:              sealevel.TranslateErrToInstrErrCode(execErr),
		ComputeUnitsConsumed: meter.Used() - usedBefore,
		Logs:                 txCtx.Logs(),
		ReturnData:           returnData,
	}
	for _, key := range keys {
		if acct, err := h.Store.GetAccount(key); err == nil {
			outcome.PostAccounts = append(outcome.PostAccounts, *acct.Clone())
		}
	}
	return outcome
}

// runGuarded executes the top-level frame, converting handler panics into an
// error so a misbehaving program can never take the harness down with it.
func (h *Harness) runGuarded(execCtx *sealevel.ExecutionCtx, data []byte, instrAccts []sealevel.InstructionAccount) (err error) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("program panicked: %v", r)
			err = sealevel.InstrErrProgramFailedToComplete
		}
	}()

	return execCtx.ProcessInstruction(data, instrAccts, []uint64{0})
}

func (h *Harness) postExecutionChecks(ix sealevel.Instruction, txAccts []*accounts.Account, preLamports uint64, preRentStates []*rent.RentStateInfo) error {
	postLamports, err := lamportSum(txAccts)
	if err != nil {
		return sealevel.InstrErrArithmeticOverflow
	}
	if postLamports != preLamports {
		klog.Errorf("lamport sum changed across execution: %d -> %d", preLamports, postLamports)
		return sealevel.InstrErrUnbalancedInstruction
	}

	for idx, meta := range ix.Accounts {
		if preRentStates[idx] == nil {
			continue
		}
		// lamports sent to the incinerator are burned, the account is never
		// held to rent exemption
		if meta.Pubkey == sealevel.IncineratorAddr {
			continue
		}
		acct, err := h.Store.GetAccount(meta.Pubkey)
		if err != nil {
			return err
		}
		postRentState := rent.RentStateFromAcct(acct, &h.Rent)
		if err := rent.CheckTransitionAllowed(preRentStates[idx], postRentState); err != nil {
			klog.V(1).Infof("account %s would be left rent paying", meta.Pubkey)
			return sealevel.InstrErrRentExemptionViolation
		}
	}

	return nil
}

// workingSetKeys assembles the transaction working set: the invoked program
// first, then each instruction account in meta order, then every registered
// program account so nested invocations can resolve their targets.
func (h *Harness) workingSetKeys(ix sealevel.Instruction) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, 1+len(ix.Accounts)+len(h.programKeys))
	seen := make(map[solana.PublicKey]bool)

	keys = append(keys, ix.ProgramId)
	seen[ix.ProgramId] = true

	for _, meta := range ix.Accounts {
		if !seen[meta.Pubkey] {
			keys = append(keys, meta.Pubkey)
			seen[meta.Pubkey] = true
		}
	}

	for _, programKey := range h.programKeys {
		if !seen[programKey] {
			keys = append(keys, programKey)
			seen[programKey] = true
		}
	}

	return keys, nil
}

func lamportSum(accts []*accounts.Account) (uint64, error) {
	var sum uint64
	var err error
	for _, acct := range accts {
		sum, err = safemath.CheckedAddU64(sum, acct.Lamports)
		if err != nil {
			return 0, err
		}
	}
	return sum, nil
}
