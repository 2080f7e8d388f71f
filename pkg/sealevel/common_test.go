package sealevel

import (
	"bytes"

	"github.com/Overclock-Validator/nacre/pkg/accounts"
	"github.com/Overclock-Validator/nacre/pkg/cu"
	"github.com/Overclock-Validator/nacre/pkg/rent"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

func instructionAcctsFromAccountMetas(txCtx *TransactionCtx, acctMetas []AccountMeta) []InstructionAccount {
	var instrAccts []InstructionAccount

	for idxInCallee, meta := range acctMetas {
		idxInTx, err := txCtx.IndexOfAccount(meta.Pubkey)
		if err != nil {
			panic("account meta refers to a key outside the transaction working set")
		}
		instrAccts = append(instrAccts, InstructionAccount{
			IndexInTransaction: idxInTx,
			IndexInCaller:      idxInTx,
			IndexInCallee:      uint64(idxInCallee),
			IsSigner:           meta.IsSigner,
			IsWritable:         meta.IsWritable,
		})
	}

	return instrAccts
}

func newTestTransactionCtx(accts []*accounts.Account) *TransactionCtx {
	keys := make([]solana.PublicKey, len(accts))
	for idx, acct := range accts {
		keys[idx] = acct.Key
	}
	return NewTransactionCtx(NewTransactionAccounts(accts), keys)
}

func newTestExecCtx(accts []*accounts.Account, budget uint64) *ExecutionCtx {
	meter := cu.NewComputeMeter(budget)
	return &ExecutionCtx{
		TransactionContext: newTestTransactionCtx(accts),
		ComputeMeter:       &meter,
		Rent:               rent.DefaultRent(),
		NonceJournal:       NewNonceJournal(),
		Programs:           NewProgramRegistry(),
	}
}

func systemProgramAcct() *accounts.Account {
	return &accounts.Account{Key: SystemProgramAddr, Lamports: 1, Owner: NativeLoaderAddr, Executable: true}
}

func mustMarshal(serializable interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}) []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	if err := serializable.MarshalWithEncoder(encoder); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
