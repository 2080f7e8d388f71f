package sealevel

import (
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	NonceVersionLegacy  = 0
	NonceVersionCurrent = 1
)

const NonceAccountDataLen = 80

type FeeCalculator struct {
	LamportsPerSignature uint64
}

type NonceData struct {
	IsInitialized bool
	Authority     solana.PublicKey
	DurableNonce  [32]byte
	FeeCalculator FeeCalculator
}

type NonceStateVersions struct {
	Type    uint32
	Legacy  NonceData
	Current NonceData
}

func (nonceStateVersions *NonceStateVersions) State() *NonceData {
	if nonceStateVersions.Type == NonceVersionLegacy {
		return &nonceStateVersions.Legacy
	}
	return &nonceStateVersions.Current
}

func (nonceStateVersions *NonceStateVersions) Deinitialize() {
	nonceStateVersions.Type = NonceVersionCurrent
	nonceStateVersions.Current = NonceData{}
}

func (nonceData *NonceData) IsSignerAuthority(signers []solana.PublicKey) bool {
	for _, signer := range signers {
		if signer == nonceData.Authority {
			return true
		}
	}
	return false
}

func (nonceData *NonceData) unmarshal(decoder *bin.Decoder) error {
	initialized, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}
	if initialized > 1 {
		return InstrErrInvalidAccountData
	}
	nonceData.IsInitialized = initialized == 1

	if !nonceData.IsInitialized {
		return nil
	}

	authority, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(nonceData.Authority[:], authority)

	durableNonce, err := decoder.ReadBytes(32)
	if err != nil {
		return err
	}
	copy(nonceData.DurableNonce[:], durableNonce)

	nonceData.FeeCalculator.LamportsPerSignature, err = decoder.ReadUint64(bin.LE)
	return err
}

func (nonceData *NonceData) marshal(encoder *bin.Encoder) error {
	var initialized uint32
	if nonceData.IsInitialized {
		initialized = 1
	}
	if err := encoder.WriteUint32(initialized, bin.LE); err != nil {
		return err
	}
	if !nonceData.IsInitialized {
		return nil
	}
	if err := encoder.WriteBytes(nonceData.Authority[:], false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(nonceData.DurableNonce[:], false); err != nil {
		return err
	}
	return encoder.WriteUint64(nonceData.FeeCalculator.LamportsPerSignature, bin.LE)
}

func unmarshalNonceStateVersions(data []byte) (*NonceStateVersions, error) {
	decoder := bin.NewBinDecoder(data)

	var nonceStateVersions NonceStateVersions
	versionType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, InstrErrInvalidAccountData
	}
	if versionType != NonceVersionLegacy && versionType != NonceVersionCurrent {
		return nil, InstrErrInvalidAccountData
	}
	nonceStateVersions.Type = versionType

	if err = nonceStateVersions.State().unmarshal(decoder); err != nil {
		return nil, InstrErrInvalidAccountData
	}

	return &nonceStateVersions, nil
}

func (nonceStateVersions *NonceStateVersions) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	if err := encoder.WriteUint32(nonceStateVersions.Type, bin.LE); err != nil {
		return nil, err
	}
	if err := nonceStateVersions.State().marshal(encoder); err != nil {
		return nil, err
	}

	// nonce accounts are fixed size; pad the uninitialized tail
	data := buf.Bytes()
	if len(data) < NonceAccountDataLen {
		data = append(data, make([]byte, NonceAccountDataLen-len(data))...)
	}
	return data, nil
}

func durableNonce(blockhash [32]byte) [32]byte {
	hasher := sha256.New()
	hasher.Write([]byte("DURABLE_NONCE"))
	hasher.Write(blockhash[:])

	var result [32]byte
	copy(result[:], hasher.Sum(nil))
	return result
}

// NonceJournal records nonce advancements outside the account graph. It is
// the single non-rollbackable side effect in the harness: the execution
// engine writes to it at the moment a nonce advances and never undoes the
// write, so a failed instruction cannot be replayed against the stale nonce
// it already burned.
type NonceJournal struct {
	advancements map[solana.PublicKey][32]byte
	order        []solana.PublicKey
}

func NewNonceJournal() *NonceJournal {
	return &NonceJournal{advancements: make(map[solana.PublicKey][32]byte)}
}

func (journal *NonceJournal) Record(nonceAcct solana.PublicKey, durableNonce [32]byte) {
	if _, seen := journal.advancements[nonceAcct]; !seen {
		journal.order = append(journal.order, nonceAcct)
	}
	journal.advancements[nonceAcct] = durableNonce
}

func (journal *NonceJournal) Advanced(nonceAcct solana.PublicKey) bool {
	_, ok := journal.advancements[nonceAcct]
	return ok
}

func (journal *NonceJournal) Nonce(nonceAcct solana.PublicKey) ([32]byte, bool) {
	nonce, ok := journal.advancements[nonceAcct]
	return nonce, ok
}

func (journal *NonceJournal) Advancements() []solana.PublicKey {
	out := make([]solana.PublicKey, len(journal.order))
	copy(out, journal.order)
	return out
}
