package sealevel

import (
	"errors"
	"testing"

	"github.com/Overclock-Validator/nacre/pkg/accounts"
	"github.com/Overclock-Validator/nacre/pkg/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgramAcct(key solanago.PublicKey) *accounts.Account {
	return &accounts.Account{Key: key, Lamports: 1, Owner: NativeLoaderAddr, Executable: true}
}

func TestNativeInvoke_WritableEscalation(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	from := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	to := solanago.MustPublicKeyFromBase58("HWHvQhFmJB3NUcu1aihKmrKegfVxBEHzwVX6yZCKEsi1")

	fromAcct := &accounts.Account{Key: from, Lamports: 1000, Owner: SystemProgramAddr}
	toAcct := &accounts.Account{Key: to, Owner: SystemProgramAddr}

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey), systemProgramAcct(), fromAcct, toAcct}, 100000)

	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		transfer := SystemInstrTransfer{Lamports: 100}
		ix := Instruction{
			ProgramId: SystemProgramAddr,
			Accounts: []AccountMeta{
				// 'from' was handed to us read-only; asking for it writable
				// downstream is an escalation
				{Pubkey: from, IsSigner: true, IsWritable: true},
				{Pubkey: to, IsSigner: false, IsWritable: true},
			},
			Data: mustMarshal(&transfer),
		}
		return execCtx.NativeInvoke(ix, nil)
	})

	acctMetas := []AccountMeta{
		{Pubkey: from, IsSigner: true, IsWritable: false},
		{Pubkey: to, IsSigner: false, IsWritable: true},
	}
	instrAccts := instructionAcctsFromAccountMetas(execCtx.TransactionContext, acctMetas)

	err := execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
	assert.Equal(t, InstrErrPrivilegeEscalation, err)
	assert.Equal(t, uint64(1000), fromAcct.Lamports)
}

func TestNativeInvoke_SignerWithoutProvenance(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	from := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")
	to := solanago.MustPublicKeyFromBase58("HWHvQhFmJB3NUcu1aihKmrKegfVxBEHzwVX6yZCKEsi1")

	fromAcct := &accounts.Account{Key: from, Lamports: 1000, Owner: SystemProgramAddr}
	toAcct := &accounts.Account{Key: to, Owner: SystemProgramAddr}

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey), systemProgramAcct(), fromAcct, toAcct}, 100000)

	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		transfer := SystemInstrTransfer{Lamports: 100}
		ix := Instruction{
			ProgramId: SystemProgramAddr,
			Accounts: []AccountMeta{
				// 'from' never signed and is no derived address of ours
				{Pubkey: from, IsSigner: true, IsWritable: true},
				{Pubkey: to, IsSigner: false, IsWritable: true},
			},
			Data: mustMarshal(&transfer),
		}
		return execCtx.NativeInvoke(ix, nil)
	})

	acctMetas := []AccountMeta{
		{Pubkey: from, IsSigner: false, IsWritable: true},
		{Pubkey: to, IsSigner: false, IsWritable: true},
	}
	instrAccts := instructionAcctsFromAccountMetas(execCtx.TransactionContext, acctMetas)

	err := execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
	assert.Equal(t, InstrErrMissingRequiredSignature, err)
	assert.Equal(t, uint64(1000), fromAcct.Lamports)
}

func TestInvokeSigned_PdaGainsSignerCapability(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	payer := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")

	vaultBytes, bump, err := solana.FindProgramAddressBytes([][]byte{[]byte("vault"), payer[:]}, programKey[:])
	require.NoError(t, err)
	vault := solanago.PublicKeyFromBytes(vaultBytes)

	payerAcct := &accounts.Account{Key: payer, Lamports: 1_000_000, Owner: SystemProgramAddr}
	vaultAcct := &accounts.Account{Key: vault, Owner: SystemProgramAddr}

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey), systemProgramAcct(), payerAcct, vaultAcct}, 1_000_000)

	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		createAcct := SystemInstrCreateAccount{Lamports: 100_000, Space: 16, Owner: programKey}
		ix := Instruction{
			ProgramId: SystemProgramAddr,
			Accounts: []AccountMeta{
				{Pubkey: payer, IsSigner: true, IsWritable: true},
				{Pubkey: vault, IsSigner: true, IsWritable: true},
			},
			Data: mustMarshal(&createAcct),
		}
		return execCtx.InvokeSigned(ix, [][][]byte{{[]byte("vault"), payer[:], {bump}}})
	})

	acctMetas := []AccountMeta{
		{Pubkey: payer, IsSigner: true, IsWritable: true},
		{Pubkey: vault, IsSigner: false, IsWritable: true},
	}
	instrAccts := instructionAcctsFromAccountMetas(execCtx.TransactionContext, acctMetas)

	err = execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
	require.NoError(t, err)

	assert.Equal(t, uint64(900_000), payerAcct.Lamports)
	assert.Equal(t, uint64(100_000), vaultAcct.Lamports)
	assert.Equal(t, programKey, vaultAcct.Owner)
	assert.Equal(t, 16, len(vaultAcct.Data))
}

func TestInvokeSigned_WrongSeedsGrantNothing(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	payer := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")

	vaultBytes, _, err := solana.FindProgramAddressBytes([][]byte{[]byte("vault"), payer[:]}, programKey[:])
	require.NoError(t, err)
	vault := solanago.PublicKeyFromBytes(vaultBytes)

	_, otherBump, err := solana.FindProgramAddressBytes([][]byte{[]byte("other")}, programKey[:])
	require.NoError(t, err)

	payerAcct := &accounts.Account{Key: payer, Lamports: 1_000_000, Owner: SystemProgramAddr}
	vaultAcct := &accounts.Account{Key: vault, Owner: SystemProgramAddr}

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey), systemProgramAcct(), payerAcct, vaultAcct}, 1_000_000)

	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		createAcct := SystemInstrCreateAccount{Lamports: 100_000, Space: 16, Owner: programKey}
		ix := Instruction{
			ProgramId: SystemProgramAddr,
			Accounts: []AccountMeta{
				{Pubkey: payer, IsSigner: true, IsWritable: true},
				{Pubkey: vault, IsSigner: true, IsWritable: true},
			},
			Data: mustMarshal(&createAcct),
		}
		// seeds do not derive the vault, so no signer capability appears
		return execCtx.InvokeSigned(ix, [][][]byte{{[]byte("other"), {otherBump}}})
	})

	acctMetas := []AccountMeta{
		{Pubkey: payer, IsSigner: true, IsWritable: true},
		{Pubkey: vault, IsSigner: false, IsWritable: true},
	}
	instrAccts := instructionAcctsFromAccountMetas(execCtx.TransactionContext, acctMetas)

	err = execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
	assert.Equal(t, InstrErrMissingRequiredSignature, err)
	assert.Equal(t, uint64(1_000_000), payerAcct.Lamports)
	assert.Equal(t, uint64(0), vaultAcct.Lamports)
}

func TestProcessInstruction_CallDepthBound(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey)}, 1_000_000)

	var deepestHeight uint64
	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		if h := execCtx.StackHeight(); h > deepestHeight {
			deepestHeight = h
		}
		ix := Instruction{ProgramId: programKey}
		return execCtx.NativeInvoke(ix, nil)
	})

	err := execCtx.ProcessInstruction(nil, nil, []uint64{0})
	assert.Equal(t, InstrErrCallDepth, err)
	assert.Equal(t, uint64(MaxInstructionStackDepth), deepestHeight)
}

func TestPush_NonSelfReentrancyRejected(t *testing.T) {
	programA := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	programB := solanago.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programA), testProgramAcct(programB)}, 1_000_000)

	execCtx.Programs.Register(programA, func(execCtx *ExecutionCtx) error {
		if execCtx.StackHeight() > 1 {
			// re-entered through B; would loop forever if allowed
			return nil
		}
		return execCtx.NativeInvoke(Instruction{ProgramId: programB}, nil)
	})
	execCtx.Programs.Register(programB, func(execCtx *ExecutionCtx) error {
		return execCtx.NativeInvoke(Instruction{ProgramId: programA}, nil)
	})

	err := execCtx.ProcessInstruction(nil, nil, []uint64{0})
	assert.Equal(t, InstrErrReentrancyNotAllowed, err)
}

func TestNativeInvoke_ConsumesInvokeUnits(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

	// exactly one invoke charge short
	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey), systemProgramAcct()}, CUInvokeUnits-1)

	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		return execCtx.NativeInvoke(Instruction{ProgramId: SystemProgramAddr}, nil)
	})

	err := execCtx.ProcessInstruction(nil, nil, []uint64{0})
	assert.Equal(t, InstrErrComputationalBudgetExceeded, err)
	assert.True(t, execCtx.ComputeMeter.Exceeded())
	assert.Equal(t, uint64(0), execCtx.ComputeMeter.Remaining())
}

func TestReturnData_VisibleToCaller(t *testing.T) {
	programA := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	programB := solanago.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programA), testProgramAcct(programB)}, 1_000_000)

	var observed []byte
	execCtx.Programs.Register(programA, func(execCtx *ExecutionCtx) error {
		err := execCtx.NativeInvoke(Instruction{ProgramId: programB}, nil)
		if err != nil {
			return err
		}
		_, observed = execCtx.TransactionContext.GetReturnData()
		return nil
	})
	execCtx.Programs.Register(programB, func(execCtx *ExecutionCtx) error {
		return execCtx.TransactionContext.SetReturnData(programB, []byte{0xca, 0xfe})
	})

	err := execCtx.ProcessInstruction(nil, nil, []uint64{0})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, observed)
}

func TestProgramLog_Recorded(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey)}, 1_000_000)

	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		execCtx.ProgramLog("hello from %s", "vault")
		return nil
	})

	err := execCtx.ProcessInstruction(nil, nil, []uint64{0})
	require.NoError(t, err)
	require.Len(t, execCtx.TransactionContext.Logs(), 1)
	assert.Equal(t, "hello from vault", execCtx.TransactionContext.Logs()[0])
}

func TestVerifyCanonicalBump_RejectsNonCanonical(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")

	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey)}, 10_000_000)

	seeds := [][]byte{[]byte("state")}
	addrBytes, canonicalBump, err := solana.FindProgramAddressBytes(seeds, programKey[:])
	require.NoError(t, err)
	addr := solanago.PublicKeyFromBytes(addrBytes)

	require.NoError(t, execCtx.VerifyCanonicalBump(addr, seeds, canonicalBump, programKey))

	// find a lower bump that also derives off-curve; it must be rejected
	for bump := int(canonicalBump) - 1; bump >= 0; bump-- {
		seedsWithBump := append([][]byte{}, seeds...)
		seedsWithBump = append(seedsWithBump, []byte{byte(bump)})
		nonCanonical, err := solana.CreateProgramAddressBytes(seedsWithBump, programKey[:])
		if err != nil {
			continue
		}
		err = execCtx.VerifyCanonicalBump(solanago.PublicKeyFromBytes(nonCanonical), seeds, byte(bump), programKey)
		assert.Equal(t, InstrErrInvalidSeeds, err)
		return
	}
	t.Skip("no lower off-curve bump exists for these seeds")
}

func TestBorrow_SecondBorrowWhileOutstanding(t *testing.T) {
	programKey := solanago.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
	target := solanago.MustPublicKeyFromBase58("A4QWAG9VJrDtYbemBdKLfUYY15z2N6gDDXXc8Jiq34zv")

	targetAcct := &accounts.Account{Key: target, Lamports: 100, Owner: SystemProgramAddr}
	execCtx := newTestExecCtx([]*accounts.Account{testProgramAcct(programKey), targetAcct}, 10000)

	execCtx.Programs.Register(programKey, func(execCtx *ExecutionCtx) error {
		txCtx := execCtx.TransactionContext
		instrCtx, err := txCtx.CurrentInstructionCtx()
		if err != nil {
			return err
		}

		first, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
		if err != nil {
			return err
		}
		defer first.Drop()

		_, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
		if err != InstrErrAccountBorrowOutstanding {
			return errors.New("expected outstanding-borrow rejection")
		}

		first.Drop()
		second, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
		if err != nil {
			return err
		}
		second.Drop()
		return nil
	})

	acctMetas := []AccountMeta{{Pubkey: target, IsSigner: false, IsWritable: true}}
	instrAccts := instructionAcctsFromAccountMetas(execCtx.TransactionContext, acctMetas)

	err := execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
	require.NoError(t, err)
}
