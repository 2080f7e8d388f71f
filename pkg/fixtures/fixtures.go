// Package fixtures loads and saves account sets, so scenario ledgers can be
// kept next to the tests that use them. Two formats are supported: a
// human-editable YAML form and a compact binary form for large ledgers.
package fixtures

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/Overclock-Validator/nacre/pkg/accounts"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

// AccountFixture is the YAML shape of one account. Addresses and owners are
// base58, data is base64.
type AccountFixture struct {
	Address    string `yaml:"address"`
	Lamports   uint64 `yaml:"lamports"`
	Owner      string `yaml:"owner"`
	Data       string `yaml:"data,omitempty"`
	Executable bool   `yaml:"executable,omitempty"`
}

type Fixture struct {
	Accounts []AccountFixture `yaml:"accounts"`
}

func LoadYAML(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return &fixture, nil
}

func (fixture *Fixture) SaveYAML(path string) error {
	raw, err := yaml.Marshal(fixture)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// ToAccounts decodes the fixture into concrete accounts.
func (fixture *Fixture) ToAccounts() ([]accounts.Account, error) {
	accts := make([]accounts.Account, 0, len(fixture.Accounts))
	for idx, acctFixture := range fixture.Accounts {
		address, err := solana.PublicKeyFromBase58(acctFixture.Address)
		if err != nil {
			return nil, fmt.Errorf("fixture account %d: bad address %q: %w", idx, acctFixture.Address, err)
		}
		owner, err := solana.PublicKeyFromBase58(acctFixture.Owner)
		if err != nil {
			return nil, fmt.Errorf("fixture account %d: bad owner %q: %w", idx, acctFixture.Owner, err)
		}
		var data []byte
		if acctFixture.Data != "" {
			data, err = base64.StdEncoding.DecodeString(acctFixture.Data)
			if err != nil {
				return nil, fmt.Errorf("fixture account %d: bad data: %w", idx, err)
			}
		}
		accts = append(accts, accounts.Account{
			Key:        address,
			Lamports:   acctFixture.Lamports,
			Data:       data,
			Owner:      owner,
			Executable: acctFixture.Executable,
		})
	}
	return accts, nil
}

// FromAccounts builds the YAML shape from concrete accounts.
func FromAccounts(accts []accounts.Account) *Fixture {
	fixture := &Fixture{Accounts: make([]AccountFixture, 0, len(accts))}
	for _, acct := range accts {
		acctFixture := AccountFixture{
			Address:    acct.Key.String(),
			Lamports:   acct.Lamports,
			Owner:      acct.Owner.String(),
			Executable: acct.Executable,
		}
		if len(acct.Data) != 0 {
			acctFixture.Data = base64.StdEncoding.EncodeToString(acct.Data)
		}
		fixture.Accounts = append(fixture.Accounts, acctFixture)
	}
	return fixture
}

// Seed writes every fixture account into the store, replacing existing
// entries with the same address.
func (fixture *Fixture) Seed(store accounts.Accounts) error {
	accts, err := fixture.ToAccounts()
	if err != nil {
		return err
	}
	for idx := range accts {
		if err := store.SetAccount(accts[idx].Key, &accts[idx]); err != nil {
			return err
		}
	}
	return nil
}

// SaveBinary writes accounts as a length-prefixed binary stream.
func SaveBinary(path string, accts []accounts.Account) error {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	if err := encoder.WriteUint64(uint64(len(accts)), bin.LE); err != nil {
		return err
	}
	for idx := range accts {
		if err := accts[idx].MarshalWithEncoder(encoder); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadBinary reads a stream written by SaveBinary.
func LoadBinary(path string) ([]accounts.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decoder := bin.NewBinDecoder(raw)

	count, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	// every serialized account occupies well over one byte
	if count > uint64(len(raw)) {
		return nil, fmt.Errorf("implausible account count %d in %s", count, path)
	}

	accts := make([]accounts.Account, count)
	for idx := uint64(0); idx < count; idx++ {
		if err := accts[idx].UnmarshalWithDecoder(decoder); err != nil {
			return nil, fmt.Errorf("account %d in %s: %w", idx, path, err)
		}
	}
	return accts, nil
}
