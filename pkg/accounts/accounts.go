package accounts

import (
	"errors"
	"io"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MaxPermittedDataLength is the largest data buffer an account may hold.
const MaxPermittedDataLength = 10 * 1024 * 1024

var (
	ErrNoAccount    = errors.New("account does not exist")
	ErrDataTooLarge = errors.New("account data length exceeds maximum permitted")
	ErrBadSnapshot  = errors.New("no such snapshot")
)

type Accounts interface {
	GetAccount(pubkey solana.PublicKey) (*Account, error)
	SetAccount(pubkey solana.PublicKey, acct *Account) error
	AllAccounts() []*Account
}

type Account struct {
	Key        solana.PublicKey
	Lamports   uint64
	Data       []byte
	Owner      solana.PublicKey
	Executable bool
	RentEpoch  uint64
}

func (a *Account) Clone() *Account {
	clone := *a
	clone.Data = make([]byte, len(a.Data))
	copy(clone.Data, a.Data)
	return &clone
}

func (a *Account) SetData(data []byte) {
	a.Data = data
}

func (a *Account) Resize(newLen uint64, fill byte) {
	oldLen := uint64(len(a.Data))
	if newLen <= oldLen {
		a.Data = a.Data[:newLen]
		return
	}
	grown := make([]byte, newLen)
	copy(grown, a.Data)
	for i := oldLen; i < newLen; i++ {
		grown[i] = fill
	}
	a.Data = grown
}

func (a *Account) IsExecutable() bool {
	return a.Executable
}

func (a *Account) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if err = decoder.Decode(&a.Key); err != nil {
		return err
	}
	a.Lamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	var dataLen uint64
	dataLen, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	if dataLen > uint64(decoder.Remaining()) {
		return io.ErrUnexpectedEOF
	}
	a.Data, err = decoder.ReadNBytes(int(dataLen))
	if err != nil {
		return err
	}
	if err = decoder.Decode(&a.Owner); err != nil {
		return err
	}
	a.Executable, err = decoder.ReadBool()
	if err != nil {
		return err
	}
	a.RentEpoch, err = decoder.ReadUint64(bin.LE)
	return
}

func (a *Account) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteBytes(a.Key[:], false)
	_ = encoder.WriteUint64(a.Lamports, bin.LE)
	_ = encoder.WriteUint64(uint64(len(a.Data)), bin.LE)
	_ = encoder.WriteBytes(a.Data, false)
	_ = encoder.WriteBytes(a.Owner[:], false)
	_ = encoder.WriteBool(a.Executable)
	return encoder.WriteUint64(a.RentEpoch, bin.LE)
}
