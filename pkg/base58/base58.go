package base58

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var ErrWrongKeyLength = errors.New("wrong key length; addresses are 32 bytes long")

// DecodeFromString decodes a base58 string into a 32-byte pubkey.
func DecodeFromString(s string) (solana.PublicKey, error) {
	var pk solana.PublicKey
	decoded, err := base58.Decode(s)
	if err != nil {
		return pk, err
	}
	if len(decoded) != solana.PublicKeyLength {
		return pk, ErrWrongKeyLength
	}
	copy(pk[:], decoded)
	return pk, nil
}

// MustDecodeFromString is DecodeFromString for well-known hardcoded addresses.
func MustDecodeFromString(s string) solana.PublicKey {
	pk, err := DecodeFromString(s)
	if err != nil {
		panic(err.Error())
	}
	return pk
}

func EncodeToString(pk solana.PublicKey) string {
	return base58.Encode(pk[:])
}
