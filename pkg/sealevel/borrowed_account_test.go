package sealevel

import (
	"testing"

	"github.com/Overclock-Validator/nacre/pkg/accounts"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

// runs fn as the handler of a program invoked top-level with victim as its
// single instruction account
func runOnVictim(victim *accounts.Account, writable bool, fn ProgramFn) error {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey), systemProgramAcct(), victim}, 100000)
	execCtx.Programs.Register(programKey, fn)

	acctMetas := []AccountMeta{{Pubkey: victim.Key, IsSigner: false, IsWritable: writable}}
	instrAccts := instructionAcctsFromAccountMetas(execCtx.TransactionContext, acctMetas)

	return execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
}

func borrowVictim(execCtx *ExecutionCtx) (*BorrowedAccount, error) {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, err
	}
	return instrCtx.BorrowInstructionAccount(txCtx, 0)
}

func TestCheckedSubLamports_NonOwnerCannotSpend(t *testing.T) {
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: SystemProgramAddr}

	err := runOnVictim(victim, true, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.CheckedSubLamports(10)
	})
	assert.Equal(t, InstrErrExternalAccountLamportSpend, err)
	assert.Equal(t, uint64(1000), victim.Lamports)
}

func TestCheckedAddLamports_NonOwnerMayCredit(t *testing.T) {
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: SystemProgramAddr}

	err := runOnVictim(victim, true, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.CheckedAddLamports(10)
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(1010), victim.Lamports)
}

func TestSetLamports_ReadonlyAccountRejected(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: programKey}

	err := runOnVictim(victim, false, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.CheckedAddLamports(10)
	})
	assert.Equal(t, InstrErrReadonlyLamportChange, err)
	assert.Equal(t, uint64(1000), victim.Lamports)
}

func TestSetData_NonOwnerRejected(t *testing.T) {
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: SystemProgramAddr, Data: []byte{1, 2, 3}}

	err := runOnVictim(victim, true, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.SetData([]byte{9, 9, 9})
	})
	assert.Equal(t, InstrErrExternalAccountDataModified, err)
	assert.Equal(t, []byte{1, 2, 3}, victim.Data)
}

func TestSetOwner_NonOwnerRejected(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: SystemProgramAddr}

	err := runOnVictim(victim, true, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.SetOwner(programKey)
	})
	assert.Equal(t, InstrErrModifiedProgramId, err)
	assert.Equal(t, SystemProgramAddr, victim.Owner)
}

func TestSetOwner_NonZeroedDataRejected(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: programKey, Data: []byte{1}}

	err := runOnVictim(victim, true, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.SetOwner(SystemProgramAddr)
	})
	assert.Equal(t, InstrErrModifiedProgramId, err)
	assert.Equal(t, programKey, victim.Owner)
}

func TestSetOwner_ReadonlyAccountRejected(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: programKey}

	err := runOnVictim(victim, false, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.SetOwner(SystemProgramAddr)
	})
	assert.Equal(t, InstrErrModifiedProgramId, err)
	assert.Equal(t, programKey, victim.Owner)
}

func TestSetOwner_CurrentOwnerMayReassign(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	victimKey := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	victim := &accounts.Account{Key: victimKey, Lamports: 1000, Owner: programKey, Data: []byte{0, 0}}

	err := runOnVictim(victim, true, func(execCtx *ExecutionCtx) error {
		acct, err := borrowVictim(execCtx)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return acct.SetOwner(SystemProgramAddr)
	})
	assert.NoError(t, err)
	assert.Equal(t, SystemProgramAddr, victim.Owner)
}
