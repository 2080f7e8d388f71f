package solana

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

const MaxSeeds = 16
const MaxSeedLen = 32
const PublicKeyLength = 32
const PdaMarker = "ProgramDerivedAddress"

var (
	ErrSeedLength          = errors.New("Max seeds (16) exceeded")
	ErrAddressLength       = errors.New("Wrong key length; addresses are 32 bytes long")
	ErrOnCurveInvalidSeeds = errors.New("Invalid seeds - generated address must be off-curve")
	ErrNoValidBumpFound    = errors.New("Unable to find a viable program address bump seed")
)

// CreateProgramAddressBytes hashes (seeds, programID, marker) into a derived
// address. Fails if the candidate lands on the ed25519 curve.
func CreateProgramAddressBytes(seeds [][]byte, programID []byte) ([]byte, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrSeedLength
	}

	if len(programID) != PublicKeyLength {
		return nil, ErrAddressLength
	}

	hasher := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return nil, ErrSeedLength
		}
		hasher.Write(seed)
	}

	hasher.Write(programID)
	hasher.Write([]byte(PdaMarker))
	hash := hasher.Sum(nil)

	if IsOnCurve(hash[:]) {
		return nil, ErrOnCurveInvalidSeeds
	}

	return hash[:], nil
}

// FindProgramAddressBytes scans bump seeds from 255 downwards and returns the
// first off-curve derivation, i.e. the canonical (address, bump) pair for the
// given seeds. Derivation is deterministic; repeated calls agree.
func FindProgramAddressBytes(seeds [][]byte, programID []byte) ([]byte, byte, error) {
	if len(seeds) >= MaxSeeds {
		return nil, 0, ErrSeedLength
	}

	for bumpSeed := 255; bumpSeed >= 0; bumpSeed-- {
		seedsWithBump := make([][]byte, len(seeds), len(seeds)+1)
		copy(seedsWithBump, seeds)
		seedsWithBump = append(seedsWithBump, []byte{byte(bumpSeed)})

		address, err := CreateProgramAddressBytes(seedsWithBump, programID)
		if err == nil {
			return address, byte(bumpSeed), nil
		}
		if err != ErrOnCurveInvalidSeeds {
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoValidBumpFound
}

// VerifyProgramAddressBytes recomputes the derivation for the exact supplied
// bump and compares against the claimed address. One hash only; it does not
// establish that bump is canonical. Callers validating an untrusted
// (address, bump) pair must compare against FindProgramAddressBytes instead.
func VerifyProgramAddressBytes(claimed []byte, seeds [][]byte, bump byte, programID []byte) bool {
	if len(seeds) >= MaxSeeds {
		return false
	}

	seedsWithBump := make([][]byte, len(seeds), len(seeds)+1)
	copy(seedsWithBump, seeds)
	seedsWithBump = append(seedsWithBump, []byte{bump})

	address, err := CreateProgramAddressBytes(seedsWithBump, programID)
	if err != nil {
		return false
	}

	return bytes.Equal(claimed, address)
}

// IsOnCurve checks if 'b' is on the ed25519 curve
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	onCurve := err == nil
	return onCurve
}
