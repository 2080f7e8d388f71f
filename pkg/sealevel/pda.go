package sealevel

import (
	"bytes"

	"github.com/Overclock-Validator/nacre/pkg/solana"
	solanago "github.com/gagliardetto/solana-go"
)

const MaxSigners = 16

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > solana.MaxSeeds {
		return InstrErrMaxSeedLengthExceeded
	}
	for _, seed := range seeds {
		if len(seed) > solana.MaxSeedLen {
			return InstrErrMaxSeedLengthExceeded
		}
	}
	return nil
}

// CreateProgramAddress is the compute-metered derivation for one exact seed
// list (bump included by the caller, if any).
func (execCtx *ExecutionCtx) CreateProgramAddress(seeds [][]byte, programId solanago.PublicKey) (solanago.PublicKey, error) {
	err := execCtx.ComputeMeter.Consume(CUCreateProgramAddressUnits)
	if err != nil {
		return solanago.PublicKey{}, InstrErrComputationalBudgetExceeded
	}

	if err = validateSeeds(seeds); err != nil {
		return solanago.PublicKey{}, err
	}

	addr, err := solana.CreateProgramAddressBytes(seeds, programId[:])
	if err != nil {
		return solanago.PublicKey{}, InstrErrInvalidSeeds
	}
	return solanago.PublicKeyFromBytes(addr), nil
}

// FindProgramAddress scans for the canonical bump, charging compute units per
// derivation attempt exactly as the scan proceeds.
func (execCtx *ExecutionCtx) FindProgramAddress(seeds [][]byte, programId solanago.PublicKey) (solanago.PublicKey, byte, error) {
	if err := validateSeeds(seeds); err != nil {
		return solanago.PublicKey{}, 0, err
	}

	for bumpSeed := 255; bumpSeed >= 0; bumpSeed-- {
		err := execCtx.ComputeMeter.Consume(CUCreateProgramAddressUnits)
		if err != nil {
			return solanago.PublicKey{}, 0, InstrErrComputationalBudgetExceeded
		}

		seedsWithBump := make([][]byte, len(seeds), len(seeds)+1)
		copy(seedsWithBump, seeds)
		seedsWithBump = append(seedsWithBump, []byte{byte(bumpSeed)})

		addr, err := solana.CreateProgramAddressBytes(seedsWithBump, programId[:])
		if err == nil {
			return solanago.PublicKeyFromBytes(addr), byte(bumpSeed), nil
		}
		if err != solana.ErrOnCurveInvalidSeeds {
			return solanago.PublicKey{}, 0, InstrErrInvalidSeeds
		}
	}

	return solanago.PublicKey{}, 0, InstrErrInvalidSeeds
}

// VerifyCanonicalBump validates an untrusted (address, bump) claim: the
// address must derive from the seeds under programId AND the bump must be the
// canonical one. A bump that merely derives the right address is rejected if
// any higher bump also derives off-curve, closing the address-substitution
// hole that single-hash verification leaves open.
func (execCtx *ExecutionCtx) VerifyCanonicalBump(claimed solanago.PublicKey, seeds [][]byte, bump byte, programId solanago.PublicKey) error {
	addr, canonicalBump, err := execCtx.FindProgramAddress(seeds, programId)
	if err != nil {
		return err
	}
	if bump != canonicalBump || !bytes.Equal(claimed[:], addr[:]) {
		return InstrErrInvalidSeeds
	}
	return nil
}

// DeriveSigners turns the caller's seed groups into PDA signer addresses,
// derived under the caller's own program id. This is the only way a program
// mints a signer capability it did not receive from its caller.
func (execCtx *ExecutionCtx) DeriveSigners(signersSeeds [][][]byte) ([]solanago.PublicKey, error) {
	if len(signersSeeds) == 0 {
		return nil, nil
	}
	if len(signersSeeds) > MaxSigners {
		return nil, InstrErrMaxSeedLengthExceeded
	}

	callerProgramId, err := execCtx.CurrentProgramId()
	if err != nil {
		return nil, err
	}

	signers := make([]solanago.PublicKey, 0, len(signersSeeds))
	for _, seeds := range signersSeeds {
		signer, err := execCtx.CreateProgramAddress(seeds, callerProgramId)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, nil
}
