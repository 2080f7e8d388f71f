package rent

import (
	"errors"

	"github.com/Overclock-Validator/nacre/pkg/accounts"
)

const (
	RentStateUninitialized = iota
	RentStateRentPaying
	RentStateRentExempt
)

var ErrTransitionNotAllowed = errors.New("rent state transition not allowed")

type RentPayingInfo struct {
	Lamports uint64
	DataSize uint64
}

type RentStateInfo struct {
	RentState      uint64
	RentPayingInfo RentPayingInfo
}

func RentStateFromAcct(acct *accounts.Account, rent *Rent) *RentStateInfo {
	if acct.Lamports == 0 {
		return &RentStateInfo{RentState: RentStateUninitialized}
	} else if rent.IsExempt(acct.Lamports, uint64(len(acct.Data))) {
		return &RentStateInfo{RentState: RentStateRentExempt}
	} else {
		return &RentStateInfo{RentState: RentStateRentPaying,
			RentPayingInfo: RentPayingInfo{Lamports: acct.Lamports, DataSize: uint64(len(acct.Data))}}
	}
}

// CheckTransitionAllowed enforces the rent exemption invariant between an
// account's pre-execution and post-execution states. A committed account must
// end up fully drained (eligible for removal) or rent exempt; an account that
// was already rent paying before execution may remain so only if it did not
// grow and did not gain lamports.
func CheckTransitionAllowed(preRentState *RentStateInfo, postRentState *RentStateInfo) error {
	if preRentState == nil || postRentState == nil {
		return nil
	}

	switch postRentState.RentState {
	case RentStateUninitialized, RentStateRentExempt:
		return nil
	case RentStateRentPaying:
		if preRentState.RentState != RentStateRentPaying {
			return ErrTransitionNotAllowed
		}
		if postRentState.RentPayingInfo.DataSize == preRentState.RentPayingInfo.DataSize &&
			postRentState.RentPayingInfo.Lamports <= preRentState.RentPayingInfo.Lamports {
			return nil
		}
		return ErrTransitionNotAllowed
	}

	return nil
}
