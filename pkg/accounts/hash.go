package accounts

import (
	"encoding/binary"
	"sort"

	"github.com/zeebo/blake3"
)

// HashAccounts computes a deterministic digest over a set of accounts,
// independent of map iteration order. Zero-lamport accounts are skipped since
// they are eligible for removal and must not perturb the digest.
func HashAccounts(accts []*Account) [32]byte {
	sorted := make([]*Account, len(accts))
	copy(sorted, accts)
	sort.Slice(sorted, func(i, j int) bool {
		return pubkeyLess(sorted[i].Key[:], sorted[j].Key[:])
	})

	hasher := blake3.New()
	var u64Buf [8]byte

	for _, acct := range sorted {
		if acct.Lamports == 0 {
			continue
		}
		hasher.Write(acct.Key[:])
		binary.LittleEndian.PutUint64(u64Buf[:], acct.Lamports)
		hasher.Write(u64Buf[:])
		hasher.Write(acct.Owner[:])
		if acct.Executable {
			hasher.Write([]byte{1})
		} else {
			hasher.Write([]byte{0})
		}
		binary.LittleEndian.PutUint64(u64Buf[:], uint64(len(acct.Data)))
		hasher.Write(u64Buf[:])
		hasher.Write(acct.Data)
	}

	var digest [32]byte
	hasher.Digest().Read(digest[:])
	return digest
}

func pubkeyLess(a []byte, b []byte) bool {
	for i := 0; i < 4; i++ {
		a1 := binary.BigEndian.Uint64(a[8*i:])
		b1 := binary.BigEndian.Uint64(b[8*i:])
		if a1 != b1 {
			return a1 < b1
		}
	}
	return false
}
