package accounts

import (
	"github.com/gagliardetto/solana-go"
)

// SnapshotToken refers to one snapshot taken since the last commit.
type SnapshotToken int

// MemAccounts is an in-memory account store. It exclusively owns every
// Account it holds for the duration of an execution; callers mutate accounts
// only through pointers obtained from GetAccount, which is what makes the
// deep-copy snapshots below a faithful rollback boundary.
type MemAccounts struct {
	Map       map[solana.PublicKey]*Account
	snapshots []map[solana.PublicKey]*Account
}

func NewMemAccounts() *MemAccounts {
	return &MemAccounts{
		Map: make(map[solana.PublicKey]*Account),
	}
}

func (m *MemAccounts) GetAccount(pubkey solana.PublicKey) (*Account, error) {
	acct, ok := m.Map[pubkey]
	if !ok {
		return nil, ErrNoAccount
	}
	return acct, nil
}

func (m *MemAccounts) SetAccount(pubkey solana.PublicKey, acct *Account) error {
	if uint64(len(acct.Data)) > MaxPermittedDataLength {
		return ErrDataTooLarge
	}
	m.Map[pubkey] = acct
	return nil
}

func (m *MemAccounts) AllAccounts() []*Account {
	accts := make([]*Account, 0, len(m.Map))
	for _, acct := range m.Map {
		accts = append(accts, acct)
	}
	return accts
}

// Snapshot deep-copies the current account graph and returns a token for
// RollbackTo. Snapshots stack; rolling back to an earlier token discards the
// later ones.
func (m *MemAccounts) Snapshot() SnapshotToken {
	frozen := make(map[solana.PublicKey]*Account, len(m.Map))
	for pubkey, acct := range m.Map {
		frozen[pubkey] = acct.Clone()
	}
	m.snapshots = append(m.snapshots, frozen)
	return SnapshotToken(len(m.snapshots) - 1)
}

// RollbackTo restores lamports, data, owner and executable flags byte-for-byte
// to the state captured at token. Anything the store does not hold - such as
// the nonce advancement journal kept by the execution layer - is untouched on
// purpose; that journal is committed through its own side channel.
func (m *MemAccounts) RollbackTo(token SnapshotToken) error {
	if int(token) < 0 || int(token) >= len(m.snapshots) {
		return ErrBadSnapshot
	}

	frozen := m.snapshots[token]
	restored := make(map[solana.PublicKey]*Account, len(frozen))
	for pubkey, acct := range frozen {
		restored[pubkey] = acct.Clone()
	}
	m.Map = restored
	m.snapshots = m.snapshots[:token]
	return nil
}

// Commit makes all mutations since the last commit permanent by discarding
// the snapshots that could have undone them.
func (m *MemAccounts) Commit() {
	m.snapshots = nil
}
