package sealevel

import (
	"bytes"
	"crypto/sha256"

	"github.com/Overclock-Validator/nacre/pkg/solana"
	solanago "github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// ValidateAndCreateWithSeed computes sha256(base || seed || owner), the
// address scheme for accounts derived from a base key a caller controls.
// Owners whose tail collides with the PDA marker are rejected so the two
// derivation namespaces cannot overlap.
func ValidateAndCreateWithSeed(base solanago.PublicKey, seed string, owner solanago.PublicKey) (solanago.PublicKey, error) {
	if len(seed) > solana.MaxSeedLen {
		return solanago.PublicKey{}, InstrErrMaxSeedLengthExceeded
	}

	slice := owner[(len(owner) - len(solana.PdaMarker)):]
	if bytes.Equal(slice, []byte(solana.PdaMarker)) {
		return solanago.PublicKey{}, InstrErrInvalidAccountOwner
	}

	b := make([]byte, 0, 64+len(seed))
	b = append(b, base[:]...)
	b = append(b, seed[:]...)
	b = append(b, owner[:]...)
	hash := sha256.Sum256(b)
	return solanago.PublicKeyFromBytes(hash[:]), nil
}

func extractAddress(txCtx *TransactionCtx, instrCtx *InstructionCtx, instrAcctIdx uint64) (solanago.PublicKey, error) {
	var addr solanago.PublicKey
	var err error

	idx, err := instrCtx.IndexOfInstructionAccountInTransaction(instrAcctIdx)
	if err != nil {
		return addr, err
	}

	addr, err = txCtx.KeyOfAccountAtIndex(idx)
	return addr, err
}

func extractAddressWithSeed(txCtx *TransactionCtx, instrCtx *InstructionCtx, instrAcctIdx uint64, base solanago.PublicKey, seed string, owner solanago.PublicKey) (solanago.PublicKey, error) {
	addr, err := extractAddress(txCtx, instrCtx, instrAcctIdx)
	if err != nil {
		return addr, err
	}

	addrWithSeed, err := ValidateAndCreateWithSeed(base, seed, owner)
	if err != nil {
		return addr, err
	}
	if addr != addrWithSeed {
		klog.Errorf("Create: address %s does not match derived address %s", addr, addrWithSeed)
		return addr, SystemProgErrAddressWithSeedMismatch
	}
	return addr, nil
}
